package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/travelplanner/catalog/internal/api/middleware"
	"github.com/travelplanner/catalog/internal/core/domain"
	"github.com/travelplanner/catalog/internal/core/ports"
)

type stubIdentityService struct {
	registerFn       func(ctx context.Context, username, password string) (*domain.Identity, error)
	promoteFn        func(ctx context.Context, actor *domain.Identity, username string) (*domain.Identity, error)
	demoteFn         func(ctx context.Context, actor *domain.Identity, username string) (*domain.Identity, error)
	changePasswordFn func(ctx context.Context, actor *domain.Identity, current, next string) error
}

func (s *stubIdentityService) Register(ctx context.Context, username, password string) (*domain.Identity, error) {
	return s.registerFn(ctx, username, password)
}

func (s *stubIdentityService) Authenticate(context.Context, string, string) (*domain.Identity, error) {
	panic("not used")
}

func (s *stubIdentityService) Promote(ctx context.Context, actor *domain.Identity, username string) (*domain.Identity, error) {
	return s.promoteFn(ctx, actor, username)
}

func (s *stubIdentityService) Demote(ctx context.Context, actor *domain.Identity, username string) (*domain.Identity, error) {
	return s.demoteFn(ctx, actor, username)
}

func (s *stubIdentityService) ChangePassword(ctx context.Context, actor *domain.Identity, current, next string) error {
	return s.changePasswordFn(ctx, actor, current, next)
}

func (s *stubIdentityService) EnsureBootstrapAdmin(context.Context, string, string) error {
	panic("not used")
}

func (s *stubIdentityService) Get(context.Context, string) (*domain.Identity, error) {
	panic("not used")
}

type stubSessionService struct {
	loginFn  func(ctx context.Context, username, password string) (*domain.Session, *domain.Identity, error)
	logoutFn func(ctx context.Context, token string) error
}

func (s *stubSessionService) Login(ctx context.Context, username, password string) (*domain.Session, *domain.Identity, error) {
	return s.loginFn(ctx, username, password)
}

func (s *stubSessionService) Resolve(context.Context, string) (*domain.Identity, error) {
	return nil, nil
}

func (s *stubSessionService) Logout(ctx context.Context, token string) error {
	return s.logoutFn(ctx, token)
}

type stubDestinationService struct {
	listFn   func(ctx context.Context, input ports.ListDestinationsInput) ([]*domain.Destination, error)
	getFn    func(ctx context.Context, id string) (*domain.Destination, error)
	createFn func(ctx context.Context, actor *domain.Identity, fields domain.DestinationFields) (*domain.Destination, error)
	updateFn func(ctx context.Context, actor *domain.Identity, id string, fields domain.DestinationFields) (*domain.Destination, error)
	deleteFn func(ctx context.Context, actor *domain.Identity, id string) error
}

func (s *stubDestinationService) List(ctx context.Context, input ports.ListDestinationsInput) ([]*domain.Destination, error) {
	return s.listFn(ctx, input)
}

func (s *stubDestinationService) Get(ctx context.Context, id string) (*domain.Destination, error) {
	return s.getFn(ctx, id)
}

func (s *stubDestinationService) Create(ctx context.Context, actor *domain.Identity, fields domain.DestinationFields) (*domain.Destination, error) {
	return s.createFn(ctx, actor, fields)
}

func (s *stubDestinationService) Update(ctx context.Context, actor *domain.Identity, id string, fields domain.DestinationFields) (*domain.Destination, error) {
	return s.updateFn(ctx, actor, id, fields)
}

func (s *stubDestinationService) Delete(ctx context.Context, actor *domain.Identity, id string) error {
	return s.deleteFn(ctx, actor, id)
}

type stubAuditService struct {
	listFn func(ctx context.Context, limit int) ([]*domain.AuditEvent, error)
}

func (s *stubAuditService) Process(context.Context, domain.AuditEvent) error { return nil }

func (s *stubAuditService) ListRecent(ctx context.Context, limit int) ([]*domain.AuditEvent, error) {
	return s.listFn(ctx, limit)
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func newTestCookie() *middleware.SessionCookie {
	return middleware.NewSessionCookie("test-secret", time.Hour, false)
}

// newContext builds an echo context for a request with the given body and
// content type. An empty content type sends no header.
func newContext(e *echo.Echo, method, target, ctype string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, body)
	if ctype != "" {
		req.Header.Set(echo.HeaderContentType, ctype)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
}
