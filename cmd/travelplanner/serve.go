package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/travelplanner/catalog/internal/api"
	"github.com/travelplanner/catalog/internal/api/middleware"
	"github.com/travelplanner/catalog/internal/core/service"
	mongostore "github.com/travelplanner/catalog/internal/infrastructure/db/mongo"
	redisstore "github.com/travelplanner/catalog/internal/infrastructure/db/redis"
	"github.com/travelplanner/catalog/internal/infrastructure/http/handlers"
	"github.com/travelplanner/catalog/internal/infrastructure/queue"
	"github.com/travelplanner/catalog/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Long: `Run the HTTP server. MongoDB and Redis must be reachable at startup;
the process exits if either connection fails.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if servePort != "" {
			cfg.Port = servePort
		}
		return runServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "override PORT")
}

func runServe(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := openStores(ctx, true)
	if err != nil {
		log.Error().Err(err).Msg("failed to connect to backing stores")
		return err
	}
	defer s.close(context.Background())

	auditService := service.NewAuditService(s.audit, log)
	dispatcher := queue.NewDispatcher(cfg.AuditWorkers, auditService, logger.Component("audit"))
	dispatcher.Start(context.Background())
	defer dispatcher.Close()

	identities := service.NewIdentityService(s.identities, dispatcher, log)
	if err := identities.EnsureBootstrapAdmin(ctx, cfg.Admin.Username, cfg.Admin.Password); err != nil {
		return err
	}

	sessions := service.NewSessionService(
		identities,
		redisstore.NewSessionStore(s.redis),
		redisstore.NewLoginThrottle(s.redis, cfg.Login.MaxAttempts, cfg.Login.Window),
		dispatcher,
		cfg.Session.TTL,
		log,
	)

	e := api.NewRouter(api.Dependencies{
		Identities:   identities,
		Sessions:     sessions,
		Destinations: service.NewDestinationService(s.destinations, dispatcher, log),
		Audit:        auditService,
		Cookie:       middleware.NewSessionCookie(cfg.Session.Secret, cfg.Session.TTL, cfg.CookieSecure()),
		Checks: []handlers.DependencyCheck{
			{Name: "mongodb", Ping: mongostore.Pinger(s.mongoClient)},
			{Name: "redis", Ping: redisstore.Pinger(s.redis)},
		},
		PublicDir: cfg.PublicDir,
		ViewsDir:  cfg.ViewsDir,
		Logger:    logger.Component("http"),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		return err
	}
	return nil
}
