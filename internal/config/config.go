package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/MrJamesThe3rd/payrecon/internal/database"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"payrecon"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"payrecon"`

		MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
		MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
		ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"5m"`
	}

	Server struct {
		Timeout         time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"15s"`
		MaxBodyBytes    int64         `envconfig:"SERVER_MAX_BODY_BYTES" default:"1048576"`
	}

	MercadoPago struct {
		BaseURL       string `envconfig:"MERCADOPAGO_BASE_URL" default:"https://api.mercadopago.com"`
		AccessToken   string `envconfig:"MERCADOPAGO_ACCESS_TOKEN"`
		WebhookSecret string `envconfig:"MERCADOPAGO_WEBHOOK_SECRET"`
	}

	Stripe struct {
		BaseURL       string `envconfig:"STRIPE_BASE_URL"`
		SecretKey     string `envconfig:"STRIPE_SECRET_KEY"`
		WebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET"`
	}

	Redis struct {
		Addr      string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
		Password  string `envconfig:"REDIS_PASSWORD"`
		DB        int    `envconfig:"REDIS_DB" default:"0"`
		IntentKey string `envconfig:"REDIS_INTENT_KEY" default:"payrecon:intents"`
	}

	Admin struct {
		JWTSecret      string   `envconfig:"ADMIN_JWT_SECRET"`
		AllowedOrigins []string `envconfig:"ADMIN_ALLOWED_ORIGINS" default:"http://localhost:3000"`
		APIURL         string   `envconfig:"ADMIN_API_URL" default:"http://localhost:8080"`
		Token          string   `envconfig:"ADMIN_TOKEN"`
		// ConsoleActor is recorded in the audit log for console overrides.
		// Falls back to the OS user when empty.
		ConsoleActor   string   `envconfig:"ADMIN_CONSOLE_ACTOR"`
	}

	Reconcile struct {
		ProviderAttempts int           `envconfig:"RECONCILE_PROVIDER_ATTEMPTS" default:"3"`
		InitialBackoff   time.Duration `envconfig:"RECONCILE_INITIAL_BACKOFF" default:"200ms"`
		DedupCacheSize   int           `envconfig:"RECONCILE_DEDUP_CACHE_SIZE" default:"4096"`
	}

	Sweeper struct {
		Interval      time.Duration `envconfig:"SWEEPER_INTERVAL" default:"1m"`
		BatchSize     int           `envconfig:"SWEEPER_BATCH_SIZE" default:"50"`
		BaseDelay     time.Duration `envconfig:"SWEEPER_BASE_DELAY" default:"1m"`
		MaxDelay      time.Duration `envconfig:"SWEEPER_MAX_DELAY" default:"6h"`
		RelayInterval time.Duration `envconfig:"SWEEPER_RELAY_INTERVAL" default:"2s"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

// MigrationURL is the connection string in the form golang-migrate's pgx driver expects.
func (c *Config) MigrationURL() string {
	return fmt.Sprintf("pgx5://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

// Pool returns the connection pool limits for database.New.
func (c *Config) Pool() database.Pool {
	return database.Pool{
		MaxOpenConns:    c.DB.MaxOpenConns,
		MaxIdleConns:    c.DB.MaxIdleConns,
		ConnMaxLifetime: c.DB.ConnMaxLifetime,
	}
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
