package config

import (
	"errors"
	"testing"
	"time"
)

// t.Setenv auto-restores the variable after the test, so these tests can't
// leak state into each other.

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-at-least-16-chars!!")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.DBPath != "data/chat.db" {
		t.Errorf("DBPath = %q, want data/chat.db", cfg.DBPath)
	}
	if cfg.Agent.Model != "gpt-4o" {
		t.Errorf("Agent.Model = %q, want gpt-4o", cfg.Agent.Model)
	}
	if cfg.Agent.Timeout != 60*time.Second {
		t.Errorf("Agent.Timeout = %v, want 60s", cfg.Agent.Timeout)
	}
	if cfg.Agent.Instructions == "" {
		t.Error("Agent.Instructions should default to the built-in persona")
	}
	if cfg.RateLimit.RPS != 1.0 || cfg.RateLimit.Burst != 5 {
		t.Errorf("RateLimit = %+v, want rps 1.0 / burst 5", cfg.RateLimit)
	}
	// No OPENAI_API_KEY set — the key must stay empty, not error
	if cfg.Agent.APIKey != "" {
		t.Errorf("Agent.APIKey = %q, want empty", cfg.Agent.APIKey)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-at-least-16-chars!!")
	t.Setenv("PORT", "9999")
	t.Setenv("DB_PATH", "/tmp/other.db")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("AGENT_MODEL", "gpt-4o-mini")
	t.Setenv("AGENT_TIMEOUT", "30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != 9999 {
		t.Errorf("Port = %d, want 9999", cfg.Port)
	}
	if cfg.DBPath != "/tmp/other.db" {
		t.Errorf("DBPath = %q, want /tmp/other.db", cfg.DBPath)
	}
	if cfg.Agent.APIKey != "sk-test" {
		t.Errorf("Agent.APIKey = %q, want sk-test", cfg.Agent.APIKey)
	}
	if cfg.Agent.Model != "gpt-4o-mini" {
		t.Errorf("Agent.Model = %q, want gpt-4o-mini", cfg.Agent.Model)
	}
	if cfg.Agent.Timeout != 30*time.Second {
		t.Errorf("Agent.Timeout = %v, want 30s", cfg.Agent.Timeout)
	}
}

func TestLoad_MissingJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	if !errors.Is(err, ErrMissingJWTSecret) {
		t.Errorf("Load() error = %v, want ErrMissingJWTSecret", err)
	}
}

func TestValidate(t *testing.T) {
	base := Config{Port: 8080, JWTSecret: "test-secret-at-least-16-chars!!"}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"valid", func(c *Config) {}, nil},
		{"port zero", func(c *Config) { c.Port = 0 }, ErrInvalidPort},
		{"port too large", func(c *Config) { c.Port = 70000 }, ErrInvalidPort},
		{"secret too short", func(c *Config) { c.JWTSecret = "short" }, ErrMissingJWTSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
