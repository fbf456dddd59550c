package config

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

const devSessionSecret = "dev-insecure-session-secret-change-me"

type Config struct {
	Port     string `env:"PORT,      default=3000"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	PublicDir string `env:"PUBLIC_DIR, default=public"`
	ViewsDir  string `env:"VIEWS_DIR,  default=views"`

	// AuditWorkers is the number of sharded audit writers.
	AuditWorkers int `env:"AUDIT_WORKERS, default=4"`

	Session SessionConfig
	Admin   AdminConfig
	Login   LoginConfig
	Mongo   MongoConfig
	Redis   RedisConfig
}

type SessionConfig struct {
	Secret string        `env:"SESSION_SECRET"`
	TTL    time.Duration `env:"SESSION_TTL, default=24h"`
	// Secure is left empty to follow ENV.
	Secure string `env:"COOKIE_SECURE"`
}

// AdminConfig holds the optional bootstrap admin credentials.
type AdminConfig struct {
	Username string `env:"ADMIN_USERNAME"`
	Password string `env:"ADMIN_PASSWORD"`
}

type LoginConfig struct {
	MaxAttempts int           `env:"LOGIN_MAX_ATTEMPTS, default=10"`
	Window      time.Duration `env:"LOGIN_WINDOW,       default=15m"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=travelPlannerDB"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// IsProduction reports whether the service runs with production defaults.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// CookieSecure resolves the Secure cookie attribute, defaulting to true in production.
func (c *Config) CookieSecure() bool {
	if v, err := strconv.ParseBool(c.Session.Secure); err == nil {
		return v
	}
	return c.IsProduction()
}

// Validate checks cross-field constraints envconfig cannot express.
func (c *Config) Validate() error {
	if c.Session.Secret == "" {
		if c.IsProduction() {
			return fmt.Errorf("config: SESSION_SECRET is required in production")
		}
		c.Session.Secret = devSessionSecret
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("config: SESSION_TTL must be positive")
	}
	if (c.Admin.Username == "") != (c.Admin.Password == "") {
		return fmt.Errorf("config: ADMIN_USERNAME and ADMIN_PASSWORD must be set together")
	}
	return nil
}

// Load reads configuration and panics when it is invalid.
func Load() *Config {
	cfg, err := Read(context.Background())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// Read loads an optional .env file and then processes the environment
// using go-envconfig.
func Read(ctx context.Context) (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	return Process(ctx, envconfig.OsLookuper())
}

// Process builds a Config from the given lookuper and validates it.
func Process(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
