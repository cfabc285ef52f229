// Versewatch - Star Citizen Telemetry Tracker
// Copyright 2026 Versewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/versewatch/versewatch

// Package ingest normalizes raw telemetry payloads, persists them
// idempotently and keeps the player IP bookkeeping up to date.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/versewatch/versewatch/internal/database"
	"github.com/versewatch/versewatch/internal/logging"
	"github.com/versewatch/versewatch/internal/metrics"
	"github.com/versewatch/versewatch/internal/models"
)

// timestampLayouts are tried in order when parsing the caller-supplied
// ISO-8601 timestamp. Star Citizen logs use zoneless local timestamps, the
// HTTP clients mostly send RFC 3339.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// EventStore is the slice of the record store the pipeline writes events to.
// Implemented by *database.DB.
type EventStore interface {
	InsertEvent(ctx context.Context, event *models.Event) error
	GetEventByKey(ctx context.Context, eventType string, timestamp time.Time, group string) (*models.Event, error)
}

// Pipeline ingests raw event payloads: normalize, insert, resolve duplicates
// to the original record, and trigger IP bookkeeping for new events.
type Pipeline struct {
	store   EventStore
	tracker *IPTracker
	clock   func() time.Time
}

// NewPipeline creates an ingestion pipeline. tracker may be nil to disable
// IP bookkeeping.
func NewPipeline(store EventStore, tracker *IPTracker) *Pipeline {
	return &Pipeline{
		store:   store,
		tracker: tracker,
		clock:   time.Now,
	}
}

// Ingest normalizes and persists one raw payload.
//
// The returned event is the canonical stored record: the freshly inserted
// row (isNew=true), or the pre-existing row the dedup key resolved to
// (isNew=false). Unknown payload fields are preserved in RawData.
func (p *Pipeline) Ingest(ctx context.Context, payload map[string]interface{}) (*models.Event, bool, error) {
	if len(payload) == 0 {
		metrics.IngestErrors.WithLabelValues("validation").Inc()
		return nil, false, ErrInvalidPayload
	}

	event := p.normalize(payload)

	if err := p.store.InsertEvent(ctx, event); err != nil {
		if errors.Is(err, database.ErrDuplicateEvent) {
			return p.resolveDuplicate(ctx, event, err)
		}
		metrics.IngestErrors.WithLabelValues("store").Inc()
		return nil, false, fmt.Errorf("persist event: %w", err)
	}

	metrics.EventsIngested.WithLabelValues("new").Inc()

	// IP bookkeeping runs synchronously so the caller can rely on it having
	// been attempted, but its failures never abort the committed insert.
	p.trackPlayerIP(ctx, event, payload)

	return event, true, nil
}

// normalize extracts the typed fields with defaults and preserves the raw
// payload verbatim.
func (p *Pipeline) normalize(payload map[string]interface{}) *models.Event {
	group := stringField(payload, "group")
	if group == "" {
		group = models.DefaultGroup
	}

	return &models.Event{
		EventType: stringField(payload, "event_type"),
		Timestamp: p.parseTimestamp(payload),
		Group:     group,
		Player:    stringField(payload, "player"),
		Killer:    stringField(payload, "killer"),
		Victim:    stringField(payload, "victim"),
		Vehicle:   stringField(payload, "vehicle"),
		Zone:      stringField(payload, "zone"),
		RawData:   payload,
	}
}

// parseTimestamp parses the caller-supplied timestamp, substituting the
// ingestion wall-clock on any failure. Availability over fidelity: a bad
// timestamp is log-worthy, never fatal.
//
// Timestamps are truncated to microseconds, the store's TIMESTAMP
// resolution, so the dedup key round-trips through the database.
func (p *Pipeline) parseTimestamp(payload map[string]interface{}) time.Time {
	raw := stringField(payload, "timestamp")
	if raw != "" {
		for _, layout := range timestampLayouts {
			if ts, err := time.Parse(layout, raw); err == nil {
				return ts.UTC().Truncate(time.Microsecond)
			}
		}
	}

	logging.Warn().
		Str("timestamp", raw).
		Msg("unparsable event timestamp, using ingestion time")
	return p.clock().UTC().Truncate(time.Microsecond)
}

// resolveDuplicate re-reads the pre-existing record after a dedup conflict.
func (p *Pipeline) resolveDuplicate(ctx context.Context, event *models.Event, insertErr error) (*models.Event, bool, error) {
	existing, err := p.store.GetEventByKey(ctx, event.EventType, event.Timestamp, event.Group)
	if err != nil {
		if errors.Is(err, database.ErrEventNotFound) {
			// Conflict with no surviving row: a concurrent delete raced the
			// lookup, or a different constraint fired. Fatal for this call.
			metrics.IngestErrors.WithLabelValues("dedup_resolution").Inc()
			return nil, false, fmt.Errorf("%w (%s/%s/%s): %v",
				ErrDedupResolution, event.EventType, event.Timestamp.Format(time.RFC3339), event.Group, insertErr)
		}
		metrics.IngestErrors.WithLabelValues("store").Inc()
		return nil, false, fmt.Errorf("resolve duplicate: %w", err)
	}

	metrics.EventsIngested.WithLabelValues("duplicate").Inc()
	logging.Debug().
		Str("event_type", event.EventType).
		Str("group", event.Group).
		Msg("duplicate event resolved to existing record")
	return existing, false, nil
}

// trackPlayerIP runs IP bookkeeping when the payload carries both a player
// name and an address. Failures are recorded and surfaced via metrics only.
func (p *Pipeline) trackPlayerIP(ctx context.Context, event *models.Event, payload map[string]interface{}) {
	if p.tracker == nil || event.Player == "" {
		return
	}
	ipAddress := stringField(payload, "ip_address")
	if ipAddress == "" {
		return
	}

	if err := p.tracker.RecordPlayerIP(ctx, event.Player, ipAddress, event.Timestamp); err != nil {
		metrics.IPTrackingErrors.Inc()
		logging.Error().Err(err).
			Str("player", event.Player).
			Msg("ip bookkeeping failed")
	}
}

// stringField returns the payload value for key when it is a non-empty
// string; malformed values are treated as absent.
func stringField(payload map[string]interface{}, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}
