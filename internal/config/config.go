// Versewatch - Star Citizen Telemetry Tracker
// Copyright 2026 Versewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/versewatch/versewatch

// Package config loads layered runtime configuration: built-in defaults,
// then an optional YAML file, then environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the root configuration for the Versewatch server.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Audit    AuditConfig    `koanf:"audit"`
	Notifier NotifierConfig `koanf:"notifier"`
	Logging  LoggingConfig  `koanf:"logging"`
	Security SecurityConfig `koanf:"security"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig configures the DuckDB event store.
type DatabaseConfig struct {
	// Path is the database file. Empty means in-memory (tests only).
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"`
}

// AuditConfig configures the append-only IP-change trail.
type AuditConfig struct {
	Path string `koanf:"path" validate:"required"`
}

// ChannelSubscription statically subscribes a chat channel to a group.
type ChannelSubscription struct {
	ChannelID string `koanf:"channel_id" validate:"required"`
	Group     string `koanf:"group" validate:"required"`
}

// NotifierConfig configures the Discord relay.
type NotifierConfig struct {
	Enabled bool `koanf:"enabled"`

	// BufferSize bounds the handoff channel between the ingestion path and
	// the relay loop. Events beyond the bound are dropped, never queued
	// against the ingestion path.
	BufferSize int `koanf:"buffer_size" validate:"min=1"`

	DiscordToken  string                `koanf:"discord_token"`
	Subscriptions []ChannelSubscription `koanf:"subscriptions" validate:"dive"`
}

// LoggingConfig configures zerolog output.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// SecurityConfig configures the transport-level guards.
type SecurityConfig struct {
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs" validate:"min=1"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// Validate checks the assembled configuration.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Notifier.Enabled && c.Notifier.DiscordToken == "" {
		return fmt.Errorf("invalid configuration: notifier.discord_token is required when the notifier is enabled")
	}
	return nil
}
