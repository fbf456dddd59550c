package ports

import (
	"context"

	"github.com/travelplanner/catalog/internal/core/domain"
)

// IdentityRepository defines persistence for identities and role changes.
type IdentityRepository interface {
	// Create stores a new identity. Returns domain.ErrDuplicateUsername when
	// the username is taken.
	Create(ctx context.Context, identity *domain.Identity) (*domain.Identity, error)
	FindByUsername(ctx context.Context, username string) (*domain.Identity, error)
	// FindByID returns domain.ErrNotFound for unknown or malformed ids.
	FindByID(ctx context.Context, id string) (*domain.Identity, error)
	// Promote sets the role to admin. Returns domain.ErrNotFound for unknown usernames.
	Promote(ctx context.Context, username string) (*domain.Identity, error)
	// DemoteAdmin moves an admin back to the user role, failing with
	// domain.ErrLastAdmin when the change would leave no admin. The check and
	// the write are serialized by the store.
	DemoteAdmin(ctx context.Context, username string) (*domain.Identity, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	// SyncAdminCount recomputes the admin guard from the stored roles.
	SyncAdminCount(ctx context.Context) (int64, error)
}
