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

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/versewatch/versewatch/internal/models"
)

// InsertEvent persists a new event row.
//
// The unique index on (event_type, event_time, event_group) enforces
// deduplication; a violation is reported as ErrDuplicateEvent so the caller
// can resolve to the pre-existing record. Any other failure surfaces as-is.
func (db *DB) InsertEvent(ctx context.Context, event *models.Event) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	var rawJSON []byte
	if event.RawData != nil {
		var err error
		rawJSON, err = json.Marshal(event.RawData)
		if err != nil {
			return fmt.Errorf("marshal raw payload: %w", err)
		}
	}

	query := `INSERT INTO events (
		id, event_type, event_time, event_group,
		player, killer, victim, vehicle, zone,
		raw_data, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := db.conn.ExecContext(ctx, query,
		event.ID, event.EventType, event.Timestamp.UTC(), event.Group,
		event.Player, event.Killer, event.Victim, event.Vehicle, event.Zone,
		string(rawJSON), event.CreatedAt,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrDuplicateEvent
		}
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// GetEventByKey looks up the event stored under the dedup key
// (eventType, timestamp, group). Returns ErrEventNotFound when absent.
func (db *DB) GetEventByKey(ctx context.Context, eventType string, timestamp time.Time, group string) (*models.Event, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT
		id, event_type, event_time, event_group,
		player, killer, victim, vehicle, zone,
		raw_data, created_at
	FROM events
	WHERE event_type = ? AND event_time = ? AND event_group = ?`

	row := db.conn.QueryRowContext(ctx, query, eventType, timestamp.UTC(), group)
	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return event, nil
}

// ListRecentEvents returns up to limit events for a group, newest first.
// An empty group returns events across all groups.
func (db *DB) ListRecentEvents(ctx context.Context, group string, limit int) ([]*models.Event, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	query := `SELECT
		id, event_type, event_time, event_group,
		player, killer, victim, vehicle, zone,
		raw_data, created_at
	FROM events`
	args := []interface{}{}
	if group != "" {
		query += ` WHERE event_group = ?`
		args = append(args, group)
	}
	query += ` ORDER BY event_time DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}
	return events, nil
}

// CountEvents returns the number of stored events, optionally scoped to a group.
func (db *DB) CountEvents(ctx context.Context, group string) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT COUNT(*) FROM events`
	args := []interface{}{}
	if group != "" {
		query += ` WHERE event_group = ?`
		args = append(args, group)
	}

	var count int64
	if err := db.conn.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanEvent.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanEvent reads one event row in the column order used by this file.
func scanEvent(row rowScanner) (*models.Event, error) {
	event := &models.Event{}
	var rawJSON sql.NullString

	err := row.Scan(
		&event.ID, &event.EventType, &event.Timestamp, &event.Group,
		&event.Player, &event.Killer, &event.Victim, &event.Vehicle, &event.Zone,
		&rawJSON, &event.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if rawJSON.Valid && rawJSON.String != "" {
		if err := json.Unmarshal([]byte(rawJSON.String), &event.RawData); err != nil {
			return nil, fmt.Errorf("unmarshal raw payload: %w", err)
		}
	}

	event.Timestamp = event.Timestamp.UTC()
	event.CreatedAt = event.CreatedAt.UTC()
	return event, nil
}
