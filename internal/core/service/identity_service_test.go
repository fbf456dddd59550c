package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/travelplanner/catalog/internal/core/domain"
)

func mustRegister(t *testing.T, svc *IdentityService, username, password string) *domain.Identity {
	t.Helper()
	u, err := svc.Register(context.Background(), username, password)
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return u
}

func TestIdentityService_Register_Success(t *testing.T) {
	repo := newStubIdentityRepo()
	sink := &recordingSink{}
	svc := newTestIdentityService(repo, sink)

	user, err := svc.Register(context.Background(), "  alice ", " secret1 ")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.Username != "alice" {
		t.Fatalf("username not trimmed: %q", user.Username)
	}
	if user.Role != domain.RoleUser {
		t.Fatalf("unexpected role: %s", user.Role)
	}
	if user.PasswordHash == "secret1" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret1")); err != nil {
		t.Fatalf("stored hash does not match trimmed password: %v", err)
	}
	if sink.find(domain.AuditRegister, domain.OutcomeSuccess) == nil {
		t.Fatalf("expected register audit event")
	}
}

func TestIdentityService_Register_Validation(t *testing.T) {
	svc := newTestIdentityService(newStubIdentityRepo(), nil)

	_, err := svc.Register(context.Background(), "   ", "  12345  ")
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(ve.Fields) != 2 {
		t.Fatalf("expected both username and password violations, got %+v", ve.Fields)
	}
}

func TestIdentityService_Register_Duplicate(t *testing.T) {
	svc := newTestIdentityService(newStubIdentityRepo(), nil)

	mustRegister(t, svc, "bob", "password")
	if _, err := svc.Register(context.Background(), "bob", "password2"); !errors.Is(err, domain.ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}
	// Usernames are case-sensitive.
	if _, err := svc.Register(context.Background(), "Bob", "password2"); err != nil {
		t.Fatalf("expected distinct username to register, got %v", err)
	}
}

func TestIdentityService_Authenticate(t *testing.T) {
	svc := newTestIdentityService(newStubIdentityRepo(), nil)
	mustRegister(t, svc, "carol", "s3cret!")

	user, err := svc.Authenticate(context.Background(), "carol", " s3cret! ")
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if user.Username != "carol" {
		t.Fatalf("unexpected user: %+v", user)
	}

	_, wrongPassword := svc.Authenticate(context.Background(), "carol", "badpass")
	_, unknownUser := svc.Authenticate(context.Background(), "ghost", "badpass")
	if !errors.Is(wrongPassword, domain.ErrInvalidCredentials) || !errors.Is(unknownUser, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for both, got %v / %v", wrongPassword, unknownUser)
	}
	if wrongPassword.Error() != unknownUser.Error() {
		t.Fatalf("failures must be indistinguishable: %q vs %q", wrongPassword, unknownUser)
	}
}

func TestIdentityService_Authenticate_StoreError(t *testing.T) {
	repo := newStubIdentityRepo()
	repo.findErr = errors.New("connection reset")
	svc := newTestIdentityService(repo, nil)

	if _, err := svc.Authenticate(context.Background(), "carol", "whatever"); err == nil || errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("store failures must not be reported as bad credentials, got %v", err)
	}
}

func TestIdentityService_Promote(t *testing.T) {
	repo := newStubIdentityRepo()
	sink := &recordingSink{}
	svc := newTestIdentityService(repo, sink)
	ctx := context.Background()

	if err := svc.EnsureBootstrapAdmin(ctx, "root", "rootpass"); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	root, _ := repo.FindByUsername(ctx, "root")
	alice := mustRegister(t, svc, "alice", "secret1")
	mustRegister(t, svc, "bob", "secret2")

	if _, err := svc.Promote(ctx, alice, "bob"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-admin, got %v", err)
	}
	if repo.role("bob") != domain.RoleUser {
		t.Fatalf("bob must stay a user")
	}
	if sink.find(domain.AuditPromote, domain.OutcomeDenied) == nil {
		t.Fatalf("expected denied promote audit event")
	}

	if _, err := svc.Promote(ctx, nil, "bob"); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}

	bob, err := svc.Promote(ctx, root, "bob")
	if err != nil {
		t.Fatalf("promote: %v", err)
	}
	if bob.Role != domain.RoleAdmin {
		t.Fatalf("expected admin, got %s", bob.Role)
	}

	if _, err := svc.Promote(ctx, root, "nobody"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Promote(ctx, root, "  "); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for blank username, got %v", err)
	}
}

func TestIdentityService_RoleChange_BlankUsername(t *testing.T) {
	repo := newStubIdentityRepo()
	svc := newTestIdentityService(repo, &recordingSink{})
	ctx := context.Background()

	if err := svc.EnsureBootstrapAdmin(ctx, "root", "rootpass"); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	root, _ := repo.FindByUsername(ctx, "root")

	for name, change := range map[string]func() (*domain.Identity, error){
		"promote": func() (*domain.Identity, error) { return svc.Promote(ctx, root, "\t ") },
		"demote":  func() (*domain.Identity, error) { return svc.Demote(ctx, root, "") },
	} {
		_, err := change()
		var ve *domain.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("%s: expected *domain.ValidationError, got %v", name, err)
		}
		if len(ve.Fields) != 1 || ve.Fields[0].Field != "username" || ve.Fields[0].Message != "username is required" {
			t.Fatalf("%s: unexpected violations: %+v", name, ve.Fields)
		}
	}
}

func TestIdentityService_Demote(t *testing.T) {
	repo := newStubIdentityRepo()
	svc := newTestIdentityService(repo, &recordingSink{})
	ctx := context.Background()

	if err := svc.EnsureBootstrapAdmin(ctx, "root", "rootpass"); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	root, _ := repo.FindByUsername(ctx, "root")
	mustRegister(t, svc, "bob", "secret2")
	if _, err := svc.Promote(ctx, root, "bob"); err != nil {
		t.Fatalf("promote: %v", err)
	}

	// Two admins: demoting the other one succeeds.
	bob, err := svc.Demote(ctx, root, "bob")
	if err != nil {
		t.Fatalf("demote: %v", err)
	}
	if bob.Role != domain.RoleUser {
		t.Fatalf("expected user role, got %s", bob.Role)
	}

	// Demoting a plain user is a no-op.
	again, err := svc.Demote(ctx, root, "bob")
	if err != nil || again.Role != domain.RoleUser {
		t.Fatalf("expected no-op demotion, got %+v %v", again, err)
	}

	if _, err := svc.Demote(ctx, root, "root"); !errors.Is(err, domain.ErrSelfDemotion) {
		t.Fatalf("expected ErrSelfDemotion, got %v", err)
	}
	if _, err := svc.Demote(ctx, root, "ghost"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	bobIdentity, _ := repo.FindByUsername(ctx, "bob")
	if _, err := svc.Demote(ctx, bobIdentity, "root"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestIdentityService_Demote_SelfAlwaysRejected(t *testing.T) {
	repo := newStubIdentityRepo()
	svc := newTestIdentityService(repo, nil)
	ctx := context.Background()

	_ = svc.EnsureBootstrapAdmin(ctx, "root", "rootpass")
	root, _ := repo.FindByUsername(ctx, "root")
	for _, name := range []string{"a1", "a2", "a3"} {
		mustRegister(t, svc, name, "secret1")
		if _, err := svc.Promote(ctx, root, name); err != nil {
			t.Fatalf("promote %s: %v", name, err)
		}
	}

	if _, err := svc.Demote(ctx, root, "root"); !errors.Is(err, domain.ErrSelfDemotion) {
		t.Fatalf("expected ErrSelfDemotion with 4 admins, got %v", err)
	}
	if repo.role("root") != domain.RoleAdmin {
		t.Fatalf("root must remain admin")
	}
}

func TestIdentityService_Demote_LastAdmin(t *testing.T) {
	repo := newStubIdentityRepo()
	svc := newTestIdentityService(repo, nil)
	ctx := context.Background()

	_ = svc.EnsureBootstrapAdmin(ctx, "root", "rootpass")
	// The actor holds a stale admin snapshot; only root is stored as admin.
	actor := &domain.Identity{ID: "external", Username: "auditor", Role: domain.RoleAdmin}

	if _, err := svc.Demote(ctx, actor, "root"); !errors.Is(err, domain.ErrLastAdmin) {
		t.Fatalf("expected ErrLastAdmin, got %v", err)
	}
	if repo.role("root") != domain.RoleAdmin {
		t.Fatalf("root must remain admin")
	}
}

func TestIdentityService_Demote_ConcurrentNeverDropsToZero(t *testing.T) {
	repo := newStubIdentityRepo()
	svc := newTestIdentityService(repo, nil)
	ctx := context.Background()

	_ = svc.EnsureBootstrapAdmin(ctx, "a", "passwordA")
	a, _ := repo.FindByUsername(ctx, "a")
	mustRegister(t, svc, "b", "passwordB")
	if _, err := svc.Promote(ctx, a, "b"); err != nil {
		t.Fatalf("promote: %v", err)
	}
	b, _ := repo.FindByUsername(ctx, "b")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); _, _ = svc.Demote(ctx, a, "b") }()
	go func() { defer wg.Done(); _, _ = svc.Demote(ctx, b, "a") }()
	wg.Wait()

	n, _ := repo.SyncAdminCount(ctx)
	if n != 1 {
		t.Fatalf("expected exactly one admin left, got %d", n)
	}
}

func TestIdentityService_EnsureBootstrapAdmin(t *testing.T) {
	repo := newStubIdentityRepo()
	svc := newTestIdentityService(repo, nil)
	ctx := context.Background()

	if err := svc.EnsureBootstrapAdmin(ctx, "", ""); err != nil {
		t.Fatalf("unset credentials must be a no-op: %v", err)
	}
	if len(repo.byUsername) != 0 {
		t.Fatalf("no identity expected")
	}

	mustRegister(t, svc, "ops", "opspass")
	if err := svc.EnsureBootstrapAdmin(ctx, "ops", "ignored"); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if repo.role("ops") != domain.RoleAdmin {
		t.Fatalf("existing identity must be promoted")
	}

	// Idempotent.
	if err := svc.EnsureBootstrapAdmin(ctx, "ops", "ignored"); err != nil {
		t.Fatalf("second bootstrap: %v", err)
	}
	if n, _ := repo.SyncAdminCount(ctx); n != 1 {
		t.Fatalf("expected one admin, got %d", n)
	}

	// The existing password is kept.
	if _, err := svc.Authenticate(ctx, "ops", "opspass"); err != nil {
		t.Fatalf("original password must still work: %v", err)
	}
}

func TestIdentityService_ChangePassword(t *testing.T) {
	repo := newStubIdentityRepo()
	svc := newTestIdentityService(repo, nil)
	ctx := context.Background()
	dave := mustRegister(t, svc, "dave", "goodpass")

	if err := svc.ChangePassword(ctx, dave, "wrong", "newpass1"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := svc.ChangePassword(ctx, dave, "goodpass", "123"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := svc.ChangePassword(ctx, nil, "goodpass", "newpass1"); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if err := svc.ChangePassword(ctx, dave, "goodpass", "newpass1"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "dave", "newpass1"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "dave", "goodpass"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("old password still accepted")
	}
}
