// Versewatch - Star Citizen Telemetry Tracker
// Copyright 2026 Versewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/versewatch/versewatch

package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/versewatch/versewatch/internal/database"
	"github.com/versewatch/versewatch/internal/metrics"
	"github.com/versewatch/versewatch/internal/models"
)

// PlayerIPStore is the slice of the record store holding last-known-IP
// records. Implemented by *database.DB.
type PlayerIPStore interface {
	GetPlayerIP(ctx context.Context, player string) (*models.PlayerIPRecord, error)
	UpsertPlayerIP(ctx context.Context, player, ipAddress string, lastSeen time.Time) error
}

// ChangeRecorder appends address changes to the durable audit trail.
// Implemented by *audit.Trail.
type ChangeRecorder interface {
	RecordIPChange(player, oldAddr, newAddr string, changedAt time.Time) error
}

// IPTracker maintains the player -> last-known-IP side table and its
// append-only change audit.
type IPTracker struct {
	store PlayerIPStore
	trail ChangeRecorder
	clock func() time.Time
}

// NewIPTracker creates an IP tracker writing changes to trail.
func NewIPTracker(store PlayerIPStore, trail ChangeRecorder) *IPTracker {
	return &IPTracker{
		store: store,
		trail: trail,
		clock: time.Now,
	}
}

// RecordPlayerIP records an address observation for a player.
//
// First observation creates the record. An address change is appended to
// the audit trail before the record is overwritten, so the old value stays
// observable. last_seen is updated on every observation, address change or
// not; staleness detection depends on it.
func (t *IPTracker) RecordPlayerIP(ctx context.Context, player, ipAddress string, observedAt time.Time) error {
	existing, err := t.store.GetPlayerIP(ctx, player)
	if err != nil && !errors.Is(err, database.ErrPlayerNotFound) {
		return fmt.Errorf("lookup player ip: %w", err)
	}

	if existing != nil && existing.IPAddress != ipAddress {
		if err := t.trail.RecordIPChange(player, existing.IPAddress, ipAddress, t.clock()); err != nil {
			// The old address must be durable before the overwrite.
			return fmt.Errorf("audit ip change: %w", err)
		}
		metrics.IPChangesRecorded.Inc()
	}

	if err := t.store.UpsertPlayerIP(ctx, player, ipAddress, observedAt); err != nil {
		return fmt.Errorf("upsert player ip: %w", err)
	}
	return nil
}
