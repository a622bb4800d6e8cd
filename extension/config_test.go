package extension

import (
	"errors"
	"testing"
	"time"
)

func TestMergeWithDefaults(t *testing.T) {
	cfg := mergeWithDefaults(Config{BasePath: "/billing"})

	if cfg.BasePath != "/billing" {
		t.Errorf("BasePath = %q, want /billing", cfg.BasePath)
	}
	if cfg.HookTimeout != 5*time.Second {
		t.Errorf("HookTimeout = %v, want 5s", cfg.HookTimeout)
	}
	if cfg.RedisKeyPrefix != "subchain" {
		t.Errorf("RedisKeyPrefix = %q", cfg.RedisKeyPrefix)
	}
}

func TestMergeConfigurations(t *testing.T) {
	yaml := Config{
		BasePath:    "/from-yaml",
		HookTimeout: time.Second,
	}
	programmatic := Config{
		BasePath:       "/from-code",
		DisableMigrate: true,
		ProgramID:      "prog_01h455vb4pex5vsknk084sn02q",
		JWTSecret:      "code-secret",
		AllowedOrigins: []string{"https://app.example"},
	}

	got := mergeConfigurations(yaml, programmatic)

	if got.BasePath != "/from-yaml" {
		t.Errorf("BasePath = %q, yaml should win", got.BasePath)
	}
	if !got.DisableMigrate {
		t.Error("programmatic DisableMigrate should carry over")
	}
	if got.ProgramID != programmatic.ProgramID {
		t.Errorf("ProgramID = %q, programmatic should fill gap", got.ProgramID)
	}
	if got.JWTSecret != "code-secret" {
		t.Errorf("JWTSecret = %q", got.JWTSecret)
	}
	if got.HookTimeout != time.Second {
		t.Errorf("HookTimeout = %v, yaml should win", got.HookTimeout)
	}
	if len(got.AllowedOrigins) != 1 {
		t.Errorf("AllowedOrigins = %v", got.AllowedOrigins)
	}
	if got.RedisKeyPrefix != "subchain" {
		t.Errorf("RedisKeyPrefix = %q, want default", got.RedisKeyPrefix)
	}
}

func TestValidate(t *testing.T) {
	secret := "0123456789abcdef0123456789abcdef"

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults without routes", Config{DisableRoutes: true}, false},
		{"routes need a secret", Config{}, true},
		{"short secret", Config{JWTSecret: "short"}, true},
		{"valid routes", Config{JWTSecret: secret, BasePath: "/subchain"}, false},
		{"relative base path", Config{JWTSecret: secret, BasePath: "subchain"}, true},
		{"bad redis url", Config{DisableRoutes: true, RedisURL: "not a url"}, true},
		{"redis url", Config{DisableRoutes: true, RedisURL: "redis://localhost:6379/0"}, false},
		{"negative timeout", Config{DisableRoutes: true, HookTimeout: -time.Second}, true},
		{"empty origin", Config{DisableRoutes: true, AllowedOrigins: []string{""}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if err := (Config{}).Validate(); !errors.Is(err, ErrMissingJWTSecret) {
		t.Errorf("expected ErrMissingJWTSecret, got %v", err)
	}
}
