package extension

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds the subchain extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.subchain" or "subchain" keys).
type Config struct {
	// DisableRoutes skips building the HTTP server.
	DisableRoutes bool `json:"disable_routes" mapstructure:"disable_routes" yaml:"disable_routes"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// BasePath is the URL prefix for subchain routes (default: "/subchain").
	BasePath string `json:"base_path" mapstructure:"base_path" validate:"omitempty,startswith=/" yaml:"base_path"`

	// ProgramID pins the address namespace. Records written under one
	// program ID are unreachable under another, so production deployments
	// must set it.
	ProgramID string `json:"program_id" mapstructure:"program_id" yaml:"program_id"`

	// HookTimeout bounds each plugin hook call (default: 5s).
	HookTimeout time.Duration `json:"hook_timeout" mapstructure:"hook_timeout" validate:"gte=0" yaml:"hook_timeout"`

	// RedisURL selects the redis store when no store was set programmatically.
	RedisURL string `json:"redis_url" mapstructure:"redis_url" validate:"omitempty,url" yaml:"redis_url"`

	// RedisKeyPrefix namespaces redis keys (default: "subchain").
	RedisKeyPrefix string `json:"redis_key_prefix" mapstructure:"redis_key_prefix" yaml:"redis_key_prefix"`

	// JWTSecret signs and verifies caller tokens. Required unless routes
	// are disabled.
	JWTSecret string `json:"jwt_secret" mapstructure:"jwt_secret" validate:"omitempty,min=32" yaml:"jwt_secret"`

	// JWTIssuer, when set, is required on every caller token.
	JWTIssuer string `json:"jwt_issuer" mapstructure:"jwt_issuer" yaml:"jwt_issuer"`

	// AllowedOrigins enables CORS for the listed origins.
	AllowedOrigins []string `json:"allowed_origins" mapstructure:"allowed_origins" validate:"dive,required" yaml:"allowed_origins"`

	// EnableMetrics registers the Prometheus metrics plugin and serves it
	// at {base_path}/metrics.
	EnableMetrics bool `json:"enable_metrics" mapstructure:"enable_metrics" yaml:"enable_metrics"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// ErrMissingJWTSecret is returned when routes are enabled without a secret.
var ErrMissingJWTSecret = errors.New("subchain: jwt_secret is required unless routes are disabled")

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BasePath:       "/subchain",
		HookTimeout:    5 * time.Second,
		RedisKeyPrefix: "subchain",
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("subchain: invalid extension config: %w", err)
	}
	if !c.DisableRoutes && c.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	return nil
}
