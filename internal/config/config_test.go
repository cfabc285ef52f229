// Versewatch - Star Citizen Telemetry Tracker
// Copyright 2026 Versewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/versewatch/versewatch

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8000 {
		t.Errorf("expected default port 8000, got %d", cfg.Server.Port)
	}
	if cfg.Server.Addr() != "0.0.0.0:8000" {
		t.Errorf("unexpected addr %q", cfg.Server.Addr())
	}
	if cfg.Database.Path != "/data/versewatch.duckdb" {
		t.Errorf("unexpected database path %q", cfg.Database.Path)
	}
	if cfg.Notifier.Enabled {
		t.Error("notifier should be disabled by default")
	}
	if cfg.Notifier.BufferSize != 256 {
		t.Errorf("expected default buffer size 256, got %d", cfg.Notifier.BufferSize)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging defaults: %+v", cfg.Logging)
	}
	if cfg.Security.RateLimitWindow != time.Minute {
		t.Errorf("unexpected rate limit window %v", cfg.Security.RateLimitWindow)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9001")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DATABASE_PATH", "/tmp/vw-test.duckdb")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9001 {
		t.Errorf("expected port 9001, got %d", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level debug, got %q", cfg.Logging.Level)
	}
	if cfg.Database.Path != "/tmp/vw-test.duckdb" {
		t.Errorf("expected overridden db path, got %q", cfg.Database.Path)
	}
	want := []string{"https://a.example", "https://b.example"}
	if len(cfg.Security.CORSOrigins) != len(want) {
		t.Fatalf("expected %d cors origins, got %v", len(want), cfg.Security.CORSOrigins)
	}
	for i, origin := range want {
		if cfg.Security.CORSOrigins[i] != origin {
			t.Errorf("cors origin %d: expected %q, got %q", i, origin, cfg.Security.CORSOrigins[i])
		}
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("server:\n  port: 8443\nnotifier:\n  enabled: true\n  discord_token: token-123\n  subscriptions:\n    - channel_id: \"42\"\n      group: crew\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8443 {
		t.Errorf("expected port 8443 from file, got %d", cfg.Server.Port)
	}
	if !cfg.Notifier.Enabled {
		t.Error("notifier should be enabled from file")
	}
	if len(cfg.Notifier.Subscriptions) != 1 || cfg.Notifier.Subscriptions[0].Group != "crew" {
		t.Errorf("unexpected subscriptions: %+v", cfg.Notifier.Subscriptions)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, true},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, true},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, true},
		{"empty audit path", func(c *Config) { c.Audit.Path = "" }, true},
		{"notifier enabled without token", func(c *Config) { c.Notifier.Enabled = true }, true},
		{"notifier enabled with token", func(c *Config) {
			c.Notifier.Enabled = true
			c.Notifier.DiscordToken = "tok"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
