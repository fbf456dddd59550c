package ports

import (
	"context"
	"time"

	"github.com/travelplanner/catalog/internal/core/domain"
)

// SessionStore maps opaque tokens to sessions. Tokens are generated by the store.
type SessionStore interface {
	Create(ctx context.Context, identityID string, ttl time.Duration) (*domain.Session, error)
	// Get returns domain.ErrSessionNotFound for unknown or expired tokens.
	Get(ctx context.Context, token string) (*domain.Session, error)
	Delete(ctx context.Context, token string) error
}

// LoginThrottle counts login attempts per key within a window.
type LoginThrottle interface {
	Hit(ctx context.Context, key string) (allowed bool, err error)
	Reset(ctx context.Context, key string) error
}
