package ports

import (
	"context"

	"github.com/travelplanner/catalog/internal/core/domain"
)

// IdentityService covers account lifecycle and role assignment.
type IdentityService interface {
	Register(ctx context.Context, username, password string) (*domain.Identity, error)
	Authenticate(ctx context.Context, username, password string) (*domain.Identity, error)
	Promote(ctx context.Context, actor *domain.Identity, username string) (*domain.Identity, error)
	Demote(ctx context.Context, actor *domain.Identity, username string) (*domain.Identity, error)
	ChangePassword(ctx context.Context, actor *domain.Identity, current, next string) error
	EnsureBootstrapAdmin(ctx context.Context, username, password string) error
	Get(ctx context.Context, id string) (*domain.Identity, error)
}

// SessionService logs identities in and out and resolves session tokens.
type SessionService interface {
	Login(ctx context.Context, username, password string) (*domain.Session, *domain.Identity, error)
	// Resolve returns a nil identity and nil error when the token maps to no
	// live session.
	Resolve(ctx context.Context, token string) (*domain.Identity, error)
	Logout(ctx context.Context, token string) error
}
