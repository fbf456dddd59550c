package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/travelplanner/catalog/internal/core/service"
	"github.com/travelplanner/catalog/internal/infrastructure/queue"
)

var (
	adminUsername string
	adminPassword string
)

var ensureAdminCmd = &cobra.Command{
	Use:   "ensure-admin",
	Short: "Create or restore the bootstrap admin",
	Long: `Make sure the given identity exists with the admin role and resynchronise
the admin guard. Credentials default to ADMIN_USERNAME and ADMIN_PASSWORD.
Safe to run repeatedly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		username, password := adminUsername, adminPassword
		if username == "" {
			username = cfg.Admin.Username
		}
		if password == "" {
			password = cfg.Admin.Password
		}
		if username == "" || password == "" {
			return fmt.Errorf("ensure-admin: username and password are required")
		}

		ctx := cmd.Context()
		s, err := openStores(ctx, false)
		if err != nil {
			return err
		}
		defer s.close(ctx)

		dispatcher := queue.NewDispatcher(1, service.NewAuditService(s.audit, log), log)
		dispatcher.Start(ctx)
		defer dispatcher.Close()

		identities := service.NewIdentityService(s.identities, dispatcher, log)
		return identities.EnsureBootstrapAdmin(ctx, username, password)
	},
}

func init() {
	ensureAdminCmd.Flags().StringVar(&adminUsername, "username", "", "admin username (default ADMIN_USERNAME)")
	ensureAdminCmd.Flags().StringVar(&adminPassword, "password", "", "admin password (default ADMIN_PASSWORD)")
}
