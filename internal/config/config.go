// Package config reads API and worker settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/imrishuroy/kitchen-orderflow/internal/catalog"
)

// Auth provider kinds
const (
	AuthGoTrue = "gotrue"
	AuthLocal  = "local"
)

// Config holds process settings. AWS region and endpoint are read by the aws
// package directly.
type Config struct {
	Env      string
	RunLocal bool
	HTTPAddr string
	LogLevel string

	KVTable          string
	OrdersQueueURL   string
	MetricsNamespace string

	AuthProvider   string
	AuthURL        string
	AuthServiceKey string
	AuthJWTSecret  string

	PaymentFieldKey   string
	StrictTransitions bool
	Pricing           catalog.Mode
	ExposeResetCode   bool
	CORSAllowOrigins  []string
	AdminUserIDs      []string
}

// Load reads .env (when present) and the environment for the API.
func Load() (*Config, error) {
	cfg := fromEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadWorker reads the subset the queue worker uses. Auth settings are not
// checked; the worker never verifies tokens.
func LoadWorker() (*Config, error) {
	cfg := fromEnv()
	if err := cfg.validateStore(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromEnv() *Config {
	// a missing .env is normal outside development
	_ = godotenv.Load()

	return &Config{
		Env:               getenv("APP_ENV", "production"),
		RunLocal:          getbool("RUN_LOCAL"),
		HTTPAddr:          getenv("HTTP_ADDR", ":8080"),
		LogLevel:          getenv("LOG_LEVEL", "info"),
		KVTable:           os.Getenv("KV_TABLE"),
		OrdersQueueURL:    os.Getenv("ORDERS_QUEUE_URL"),
		MetricsNamespace:  getenv("METRICS_NAMESPACE", "KitchenOrderflow"),
		AuthProvider:      getenv("AUTH_PROVIDER", AuthGoTrue),
		AuthURL:           strings.TrimRight(os.Getenv("AUTH_URL"), "/"),
		AuthServiceKey:    os.Getenv("AUTH_SERVICE_KEY"),
		AuthJWTSecret:     os.Getenv("AUTH_JWT_SECRET"),
		PaymentFieldKey:   os.Getenv("PAYMENT_FIELD_KEY"),
		StrictTransitions: getbool("STRICT_STATUS_TRANSITIONS"),
		Pricing:           catalog.Mode(getenv("CATALOG_PRICING", string(catalog.ModeEnforce))),
		ExposeResetCode:   getbool("EXPOSE_RESET_CODE"),
		CORSAllowOrigins:  getlist("CORS_ALLOW_ORIGINS"),
		AdminUserIDs:      getlist("ADMIN_USER_IDS"),
	}
}

// Development reports whether the process runs in a development environment.
func (c *Config) Development() bool {
	return c.Env == "development" || c.Env == "debug"
}

func (c *Config) validate() error {
	switch c.Pricing {
	case catalog.ModeEnforce, catalog.ModeTrust:
	default:
		return fmt.Errorf("CATALOG_PRICING must be %q or %q, got %q", catalog.ModeEnforce, catalog.ModeTrust, c.Pricing)
	}
	switch c.AuthProvider {
	case AuthGoTrue:
		if c.AuthURL == "" || c.AuthServiceKey == "" {
			return fmt.Errorf("AUTH_URL and AUTH_SERVICE_KEY are required for the %s provider", AuthGoTrue)
		}
	case AuthLocal:
		if c.AuthJWTSecret == "" {
			return fmt.Errorf("AUTH_JWT_SECRET is required for the %s provider", AuthLocal)
		}
	default:
		return fmt.Errorf("unknown AUTH_PROVIDER %q", c.AuthProvider)
	}
	return c.validateStore()
}

func (c *Config) validateStore() error {
	// without a table the process falls back to the in-memory store, which only makes sense locally
	if c.KVTable == "" && !c.RunLocal {
		return fmt.Errorf("KV_TABLE is required unless RUN_LOCAL=true")
	}
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getbool(key string) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && b
}

func getlist(key string) []string {
	var out []string
	for _, p := range strings.Split(os.Getenv(key), ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
