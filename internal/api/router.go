package api

import (
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/travelplanner/catalog/internal/api/docs"
	"github.com/travelplanner/catalog/internal/api/handler"
	"github.com/travelplanner/catalog/internal/api/middleware"
	"github.com/travelplanner/catalog/internal/core/authz"
	"github.com/travelplanner/catalog/internal/core/ports"
	"github.com/travelplanner/catalog/internal/infrastructure/http/handlers"
)

// Dependencies are the services and settings the router wires into handlers.
type Dependencies struct {
	Identities   ports.IdentityService
	Sessions     ports.SessionService
	Destinations ports.DestinationService
	Audit        ports.AuditService

	Cookie *middleware.SessionCookie
	Checks []handlers.DependencyCheck

	PublicDir string
	ViewsDir  string

	Logger zerolog.Logger
	// Registry receives the HTTP metrics. Nil uses the default registry,
	// which also holds the application counters.
	Registry *prometheus.Registry
}

// routeList is reported by GET /api/info.
var routeList = []string{
	"/api/items",
	"/api/items/:id",
	"/api/info",
	"/register",
	"/login",
	"/logout",
	"/check-auth",
	"/account/password",
	"/admin",
	"/admin/promote",
	"/admin/demote",
	"/admin/audit",
	"/search?q=",
	"/item/:id",
	"/health",
	"/health/ready",
	"/metrics",
	"/swagger/index.html",
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)
	e.Validator = handler.NewValidator()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger(deps.Logger))
	e.Use(prometheusMiddleware(deps.Registry))
	if deps.PublicDir != "" {
		e.Use(echomiddleware.StaticWithConfig(echomiddleware.StaticConfig{
			Root:    deps.PublicDir,
			Skipper: skipAPI,
		}))
	}
	e.Use(middleware.LoadSession(deps.Sessions, deps.Cookie, deps.Logger))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Identities, deps.Sessions, deps.Cookie)
	adminHandler := handler.NewAdminHandler(deps.Identities, deps.Audit)
	destinationHandler := handler.NewDestinationHandler(deps.Destinations)
	pageHandler := handler.NewPageHandler(deps.ViewsDir, routeList)

	// --- Destination API ---
	items := e.Group("/api/items")
	items.GET("", destinationHandler.List)
	items.GET("/:id", destinationHandler.Get)
	items.POST("", destinationHandler.Create, middleware.Authorize(authz.CreateDestination))
	items.PUT("/:id", destinationHandler.Update, middleware.Authorize(authz.UpdateDestination))
	items.DELETE("/:id", destinationHandler.Delete, middleware.Authorize(authz.DeleteDestination))
	e.GET("/api/info", pageHandler.Info)

	// --- Auth routes ---
	e.GET("/register", pageHandler.View("register.html"))
	e.POST("/register", authHandler.Register)
	e.GET("/login", pageHandler.View("login.html"))
	e.POST("/login", authHandler.Login)
	e.POST("/logout", authHandler.Logout)
	e.GET("/check-auth", authHandler.CheckAuth)
	e.POST("/account/password", authHandler.ChangePassword, middleware.Authorize(authz.ChangePassword))

	// --- Admin routes ---
	e.GET("/admin", pageHandler.View("admin.html"), middleware.Authorize(authz.ViewAdmin))
	admin := e.Group("/admin")
	admin.POST("/promote", adminHandler.Promote, middleware.Authorize(authz.PromoteIdentity))
	admin.POST("/demote", adminHandler.Demote, middleware.Authorize(authz.DemoteIdentity))
	admin.GET("/audit", adminHandler.Audit, middleware.Authorize(authz.ViewAudit))

	// --- Pages ---
	e.GET("/", pageHandler.View("index.html"))
	e.GET("/test", pageHandler.View("test.html"))
	e.GET("/about", pageHandler.View("about.html"))
	e.GET("/contact", pageHandler.View("contact.html"))
	e.GET("/search", pageHandler.Search)
	e.GET("/item/:id", pageHandler.View("item.html"))

	// --- Health probes, metrics and docs (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(deps.Checks...)

	e.GET("/health", healthHandler.Liveness)            // process is up
	e.GET("/health/ready", healthDepsHandler.Readiness) // mongo and redis answer
	e.GET("/metrics", metricsHandler(deps.Registry))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	e.RouteNotFound("/*", pageHandler.NotFound)

	return e
}

func skipAPI(c echo.Context) bool {
	p := c.Request().URL.Path
	return p == "/api" || strings.HasPrefix(p, "/api/")
}

// requestLogger emits one access log line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

func prometheusMiddleware(reg *prometheus.Registry) echo.MiddlewareFunc {
	cfg := echoprometheus.MiddlewareConfig{Subsystem: "travelplanner"}
	if reg != nil {
		cfg.Registerer = reg
	}
	return echoprometheus.NewMiddlewareWithConfig(cfg)
}

func metricsHandler(reg *prometheus.Registry) echo.HandlerFunc {
	if reg == nil {
		return echoprometheus.NewHandler()
	}
	return echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg})
}
