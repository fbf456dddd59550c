package service

import (
	"context"
	"fmt"
	"time"

	"github.com/travelplanner/catalog/internal/core/domain"
	"github.com/travelplanner/catalog/internal/core/ports"
)

var seedCategories = []string{"Europe", "Asia", "America"}

// SampleDestinations builds n catalog records owned by ownerID.
func SampleDestinations(ownerID string, n int, now time.Time) []*domain.Destination {
	out := make([]*domain.Destination, 0, n)
	for i := 1; i <= n; i++ {
		price := float64(i * 100)
		rating := float64(i%5 + 1)
		out = append(out, &domain.Destination{
			OwnerID:     ownerID,
			Name:        fmt.Sprintf("Destination %d", i),
			Category:    seedCategories[i%len(seedCategories)],
			Description: fmt.Sprintf("Description for destination %d", i),
			Img:         fmt.Sprintf("https://example.com/img%d.jpg", i),
			Location:    fmt.Sprintf("Location %d", i),
			Price:       &price,
			Rating:      &rating,
			Activities:  []string{fmt.Sprintf("Activity1-%d", i), fmt.Sprintf("Activity2-%d", i)},
			CreatedAt:   now.UTC().Truncate(time.Millisecond),
		})
	}
	return out
}

// SeedDestinations replaces the catalog with n sample records owned by the
// identity named ownerUsername.
func SeedDestinations(ctx context.Context, identities ports.IdentityRepository, destinations ports.DestinationRepository, ownerUsername string, n int) (int, error) {
	owner, err := identities.FindByUsername(ctx, ownerUsername)
	if err != nil {
		return 0, fmt.Errorf("seed: resolve owner %q: %w", ownerUsername, err)
	}
	return destinations.ReplaceAll(ctx, SampleDestinations(owner.ID, n, time.Now()))
}
