package ports

import (
	"context"

	"github.com/travelplanner/catalog/internal/core/domain"
)

// ListDestinationsInput carries the raw list parameters from the transport layer.
type ListDestinationsInput struct {
	Category string
	Sort     string
	Fields   []string
}

// DestinationService defines use-case operations for destinations.
// Mutations take the acting identity; nil means unauthenticated.
type DestinationService interface {
	List(ctx context.Context, input ListDestinationsInput) ([]*domain.Destination, error)
	Get(ctx context.Context, id string) (*domain.Destination, error)
	Create(ctx context.Context, actor *domain.Identity, fields domain.DestinationFields) (*domain.Destination, error)
	Update(ctx context.Context, actor *domain.Identity, id string, fields domain.DestinationFields) (*domain.Destination, error)
	Delete(ctx context.Context, actor *domain.Identity, id string) error
}
