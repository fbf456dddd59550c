package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/travelplanner/catalog/internal/core/authz"
	"github.com/travelplanner/catalog/internal/core/domain"
	"github.com/travelplanner/catalog/internal/core/ports"
	"github.com/travelplanner/catalog/internal/pkg/validate"
)

// credentialsInput is validated after trimming both fields.
type credentialsInput struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"min=6,max=72"`
}

// IdentityService implements registration, authentication and role changes.
type IdentityService struct {
	repo     ports.IdentityRepository
	audit    ports.AuditSink
	logger   zerolog.Logger
	hashCost int

	dummyOnce sync.Once
	dummyHash []byte
}

func NewIdentityService(repo ports.IdentityRepository, audit ports.AuditSink, logger zerolog.Logger) *IdentityService {
	return &IdentityService{
		repo:     repo,
		audit:    audit,
		logger:   logger,
		hashCost: bcrypt.DefaultCost,
	}
}

func (s *IdentityService) Register(ctx context.Context, username, password string) (*domain.Identity, error) {
	in := credentialsInput{
		Username: strings.TrimSpace(username),
		Password: strings.TrimSpace(password),
	}
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	created, err := s.create(ctx, in.Username, in.Password, domain.RoleUser)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("identity_id", created.ID).Str("username", created.Username).Msg("identity registered")
	s.record(domain.AuditRegister, created.ID, created.Username, domain.OutcomeSuccess, nil)
	return created, nil
}

func (s *IdentityService) create(ctx context.Context, username, password, role string) (*domain.Identity, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return s.repo.Create(ctx, &domain.Identity{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

// Authenticate returns domain.ErrInvalidCredentials for both unknown usernames
// and wrong passwords, and spends a bcrypt comparison in either case.
func (s *IdentityService) Authenticate(ctx context.Context, username, password string) (*domain.Identity, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	identity, err := s.repo.FindByUsername(ctx, username)
	if errors.Is(err, domain.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return identity, nil
}

func (s *IdentityService) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), s.hashCost)
	})
	return s.dummyHash
}

func (s *IdentityService) Promote(ctx context.Context, actor *domain.Identity, username string) (*domain.Identity, error) {
	if err := s.authorize(actor, authz.PromoteIdentity, domain.AuditPromote, username); err != nil {
		return nil, err
	}
	username = strings.TrimSpace(username)
	if err := requireUsername(username); err != nil {
		return nil, err
	}

	updated, err := s.repo.Promote(ctx, username)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("actor", actor.Username).Str("username", username).Msg("identity promoted")
	s.record(domain.AuditPromote, actor.ID, username, domain.OutcomeSuccess, nil)
	return updated, nil
}

// Demote applies the checks in order: self-demotion, existence, last admin.
// Demoting an identity that is not an admin is a no-op.
func (s *IdentityService) Demote(ctx context.Context, actor *domain.Identity, username string) (*domain.Identity, error) {
	if err := s.authorize(actor, authz.DemoteIdentity, domain.AuditDemote, username); err != nil {
		return nil, err
	}
	username = strings.TrimSpace(username)
	if err := requireUsername(username); err != nil {
		return nil, err
	}

	if username == actor.Username {
		s.record(domain.AuditDemote, actor.ID, username, domain.OutcomeDenied, domain.ErrSelfDemotion)
		return nil, domain.ErrSelfDemotion
	}

	target, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if !target.IsAdmin() {
		return target, nil
	}

	updated, err := s.repo.DemoteAdmin(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrLastAdmin) {
			s.record(domain.AuditDemote, actor.ID, username, domain.OutcomeDenied, err)
		}
		return nil, err
	}

	s.logger.Info().Str("actor", actor.Username).Str("username", username).Msg("identity demoted")
	s.record(domain.AuditDemote, actor.ID, username, domain.OutcomeSuccess, nil)
	return updated, nil
}

func (s *IdentityService) ChangePassword(ctx context.Context, actor *domain.Identity, current, next string) error {
	if err := authz.Evaluate(actor, authz.ChangePassword, nil).Err(); err != nil {
		return err
	}

	next = strings.TrimSpace(next)
	if err := validate.Struct(credentialsInput{Username: actor.Username, Password: next}); err != nil {
		return err
	}

	// Re-read so a stale session snapshot cannot bypass the current hash.
	stored, err := s.repo.FindByID(ctx, actor.ID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte(strings.TrimSpace(current))) != nil {
		return domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.hashCost)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePasswordHash(ctx, actor.ID, string(hash)); err != nil {
		return err
	}

	s.logger.Info().Str("identity_id", actor.ID).Msg("password changed")
	s.record(domain.AuditPasswordChange, actor.ID, actor.Username, domain.OutcomeSuccess, nil)
	return nil
}

// EnsureBootstrapAdmin guarantees that username exists with the admin role.
// It does nothing when either credential is empty. The admin guard is
// resynchronised from the stored roles in every case.
func (s *IdentityService) EnsureBootstrapAdmin(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		s.logger.Info().Msg("bootstrap admin credentials not set, skipping")
		return s.syncAdminCount(ctx)
	}

	existing, err := s.repo.FindByUsername(ctx, username)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		created, err := s.create(ctx, username, strings.TrimSpace(password), domain.RoleAdmin)
		if err != nil && !errors.Is(err, domain.ErrDuplicateUsername) {
			return err
		}
		if created != nil {
			s.logger.Info().Str("username", username).Msg("bootstrap admin created")
			s.record(domain.AuditBootstrapAdmin, created.ID, username, domain.OutcomeSuccess, nil)
		}
	case err != nil:
		return err
	case !existing.IsAdmin():
		if _, err := s.repo.Promote(ctx, username); err != nil {
			return err
		}
		s.logger.Info().Str("username", username).Msg("bootstrap admin role restored")
		s.record(domain.AuditBootstrapAdmin, existing.ID, username, domain.OutcomeSuccess, nil)
	}

	return s.syncAdminCount(ctx)
}

func (s *IdentityService) syncAdminCount(ctx context.Context) error {
	n, err := s.repo.SyncAdminCount(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		s.logger.Warn().Msg("no admin identity exists; admin routes are unreachable")
	}
	return nil
}

func (s *IdentityService) Get(ctx context.Context, id string) (*domain.Identity, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *IdentityService) authorize(actor *domain.Identity, op authz.Operation, action domain.AuditAction, target string) error {
	err := authz.Evaluate(actor, op, nil).Err()
	if err != nil && actor != nil {
		s.record(action, actor.ID, target, domain.OutcomeDenied, err)
	}
	return err
}

func (s *IdentityService) record(action domain.AuditAction, actorID, target, outcome string, reason error) {
	recordAudit(s.audit, action, actorID, target, outcome, reason)
}

func requireUsername(username string) error {
	return validate.Var("username", username, "notblank")
}
