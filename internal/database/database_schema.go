// Versewatch - Star Citizen Telemetry Tracker
// Copyright 2026 Versewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/versewatch/versewatch

package database

import (
	"context"
	"fmt"
)

// schemaStatements are applied in order at startup. All statements are
// idempotent so the store self-bootstraps on first run and is a no-op after.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id UUID PRIMARY KEY,
		event_type TEXT NOT NULL,
		event_time TIMESTAMP NOT NULL,
		event_group TEXT NOT NULL,
		player TEXT,
		killer TEXT,
		victim TEXT,
		vehicle TEXT,
		zone TEXT,
		raw_data TEXT,
		created_at TIMESTAMP NOT NULL
	);`,

	// Dedup key: one row per (event_type, event_time, event_group).
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_events_dedup
		ON events(event_type, event_time, event_group);`,

	`CREATE INDEX IF NOT EXISTS idx_events_group_time
		ON events(event_group, event_time);`,

	`CREATE TABLE IF NOT EXISTS player_ips (
		player TEXT PRIMARY KEY,
		ip_address TEXT NOT NULL,
		last_seen TIMESTAMP NOT NULL
	);`,
}

// initSchema applies the schema statements.
func (db *DB) initSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultQueryTimeout)
	defer cancel()

	for _, stmt := range schemaStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}
