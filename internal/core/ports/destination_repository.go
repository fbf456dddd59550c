package ports

import (
	"context"

	"github.com/travelplanner/catalog/internal/core/domain"
)

// DestinationQuery carries list parameters already checked by the service.
type DestinationQuery struct {
	Category string   // exact match, empty = no filter
	Sort     string   // client field name, ascending; empty = natural order
	Fields   []string // client field names; empty = all fields
}

// DestinationRepository defines persistence operations for destinations.
// Ids that are not well-formed store identifiers yield domain.ErrInvalidID.
type DestinationRepository interface {
	List(ctx context.Context, q DestinationQuery) ([]*domain.Destination, error)
	FindByID(ctx context.Context, id string) (*domain.Destination, error)
	Create(ctx context.Context, d *domain.Destination) (*domain.Destination, error)
	// Update applies only the supplied fields and returns the stored result.
	Update(ctx context.Context, id string, fields domain.DestinationFields) (*domain.Destination, error)
	Delete(ctx context.Context, id string) error
	// ReplaceAll drops every destination and inserts ds. Used by seeding.
	ReplaceAll(ctx context.Context, ds []*domain.Destination) (int, error)
}
