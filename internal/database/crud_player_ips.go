// Versewatch - Star Citizen Telemetry Tracker
// Copyright 2026 Versewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/versewatch/versewatch

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/versewatch/versewatch/internal/models"
)

// GetPlayerIP returns the last-known-IP record for a player.
// Returns ErrPlayerNotFound when the player has never been observed.
func (db *DB) GetPlayerIP(ctx context.Context, player string) (*models.PlayerIPRecord, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT player, ip_address, last_seen FROM player_ips WHERE player = ?`

	record := &models.PlayerIPRecord{}
	err := db.conn.QueryRowContext(ctx, query, player).Scan(
		&record.Player, &record.IPAddress, &record.LastSeen,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to get player ip: %w", err)
	}

	record.LastSeen = record.LastSeen.UTC()
	return record, nil
}

// UpsertPlayerIP creates or overwrites the player's record with the given
// address and observation time. The player_ips primary key guarantees at
// most one record per player.
func (db *DB) UpsertPlayerIP(ctx context.Context, player, ipAddress string, lastSeen time.Time) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `INSERT INTO player_ips (player, ip_address, last_seen)
		VALUES (?, ?, ?)
		ON CONFLICT (player) DO UPDATE SET
			ip_address = excluded.ip_address,
			last_seen = excluded.last_seen`

	if _, err := db.conn.ExecContext(ctx, query, player, ipAddress, lastSeen.UTC()); err != nil {
		return fmt.Errorf("failed to upsert player ip: %w", err)
	}
	return nil
}
