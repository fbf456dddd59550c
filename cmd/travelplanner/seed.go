package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/travelplanner/catalog/internal/core/service"
)

var (
	seedCount int
	seedOwner string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Replace the catalog with sample destinations",
	Long: `Drop every destination and insert sample records owned by an existing
identity. The owner defaults to ADMIN_USERNAME.`,
	Example: `  # Seed 20 destinations owned by the bootstrap admin
  travelplanner seed

  # Seed 5 destinations owned by alice
  travelplanner seed --count 5 --owner alice`,
	RunE: func(cmd *cobra.Command, args []string) error {
		owner := seedOwner
		if owner == "" {
			owner = cfg.Admin.Username
		}
		if owner == "" {
			return fmt.Errorf("seed: an owner is required (use --owner or set ADMIN_USERNAME)")
		}
		if seedCount <= 0 {
			return fmt.Errorf("seed: --count must be positive")
		}

		ctx := cmd.Context()
		s, err := openStores(ctx, false)
		if err != nil {
			return err
		}
		defer s.close(ctx)

		n, err := service.SeedDestinations(ctx, s.identities, s.destinations, owner, seedCount)
		if err != nil {
			return err
		}
		log.Info().Int("count", n).Str("owner", owner).Msg("catalog seeded")
		return nil
	},
}

func init() {
	seedCmd.Flags().IntVar(&seedCount, "count", 20, "number of destinations to insert")
	seedCmd.Flags().StringVar(&seedOwner, "owner", "", "username that owns the seeded destinations")
}
