// Versewatch - Star Citizen Telemetry Tracker
// Copyright 2026 Versewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/versewatch/versewatch

package database

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/versewatch/versewatch/internal/config"
	"github.com/versewatch/versewatch/internal/logging"
	"github.com/versewatch/versewatch/internal/models"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{Level: "info", Output: io.Discard})
}

func newTestDB(t *testing.T) *DB {
	t.Helper()
	cfg := &config.DatabaseConfig{
		Path:      filepath.Join(t.TempDir(), "test.duckdb"),
		MaxMemory: "256MB",
		Threads:   2,
	}
	db, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close database: %v", err)
		}
	})
	return db
}

func sampleEvent(group string, ts time.Time) *models.Event {
	return &models.Event{
		EventType: models.EventTypeKill,
		Timestamp: ts,
		Group:     group,
		Killer:    "Ace",
		Victim:    "Baron",
		Zone:      "Stanton",
		RawData: map[string]interface{}{
			"event_type": "kill",
			"killer":     "Ace",
			"victim":     "Baron",
			"weapon":     "behr_rifle",
		},
	}
}

func TestInsertAndGetEvent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	ts := time.Date(2024, 5, 1, 12, 30, 45, 123456000, time.UTC)

	event := sampleEvent("crew", ts)
	if err := db.InsertEvent(ctx, event); err != nil {
		t.Fatalf("InsertEvent: %v", err)
	}

	got, err := db.GetEventByKey(ctx, models.EventTypeKill, ts, "crew")
	if err != nil {
		t.Fatalf("GetEventByKey: %v", err)
	}
	if got.ID != event.ID {
		t.Errorf("ID = %s, want %s", got.ID, event.ID)
	}
	if !got.Timestamp.Equal(ts) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, ts)
	}
	if got.Killer != "Ace" || got.Victim != "Baron" || got.Zone != "Stanton" {
		t.Errorf("typed fields did not round-trip: %+v", got)
	}
	if got.RawData["weapon"] != "behr_rifle" {
		t.Errorf("raw payload did not round-trip: %v", got.RawData)
	}
}

func TestInsertEvent_Duplicate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	if err := db.InsertEvent(ctx, sampleEvent("crew", ts)); err != nil {
		t.Fatalf("first insert: %v", err)
	}

	err := db.InsertEvent(ctx, sampleEvent("crew", ts))
	if !errors.Is(err, ErrDuplicateEvent) {
		t.Fatalf("expected ErrDuplicateEvent, got %v", err)
	}

	count, err := db.CountEvents(ctx, "")
	if err != nil {
		t.Fatalf("CountEvents: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 row after duplicate insert, got %d", count)
	}
}

func TestInsertEvent_SameKeyDifferentGroup(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	if err := db.InsertEvent(ctx, sampleEvent("crew", ts)); err != nil {
		t.Fatalf("insert crew: %v", err)
	}
	// Same type and timestamp in another group is a distinct event.
	if err := db.InsertEvent(ctx, sampleEvent("rivals", ts)); err != nil {
		t.Fatalf("insert rivals: %v", err)
	}

	count, err := db.CountEvents(ctx, "")
	if err != nil {
		t.Fatalf("CountEvents: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 rows, got %d", count)
	}
}

func TestGetEventByKey_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetEventByKey(context.Background(), "kill", time.Now().UTC(), "nope")
	if !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}
}

func TestListRecentEvents(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		if err := db.InsertEvent(ctx, sampleEvent("crew", base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("insert crew %d: %v", i, err)
		}
	}
	if err := db.InsertEvent(ctx, sampleEvent("rivals", base)); err != nil {
		t.Fatalf("insert rivals: %v", err)
	}

	t.Run("group scoped newest first", func(t *testing.T) {
		events, err := db.ListRecentEvents(ctx, "crew", 10)
		if err != nil {
			t.Fatalf("ListRecentEvents: %v", err)
		}
		if len(events) != 3 {
			t.Fatalf("expected 3 events, got %d", len(events))
		}
		for i := 1; i < len(events); i++ {
			if events[i].Timestamp.After(events[i-1].Timestamp) {
				t.Error("events not ordered newest first")
			}
		}
	})

	t.Run("limit", func(t *testing.T) {
		events, err := db.ListRecentEvents(ctx, "crew", 2)
		if err != nil {
			t.Fatalf("ListRecentEvents: %v", err)
		}
		if len(events) != 2 {
			t.Errorf("expected 2 events, got %d", len(events))
		}
	})

	t.Run("all groups", func(t *testing.T) {
		events, err := db.ListRecentEvents(ctx, "", 10)
		if err != nil {
			t.Fatalf("ListRecentEvents: %v", err)
		}
		if len(events) != 4 {
			t.Errorf("expected 4 events, got %d", len(events))
		}
	})
}

func TestCountEvents_GroupScoped(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	if err := db.InsertEvent(ctx, sampleEvent("crew", base)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := db.InsertEvent(ctx, sampleEvent("rivals", base)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	count, err := db.CountEvents(ctx, "crew")
	if err != nil {
		t.Fatalf("CountEvents: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 crew event, got %d", count)
	}
}

func TestPlayerIPs(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, err := db.GetPlayerIP(ctx, "Ace")
	if !errors.Is(err, ErrPlayerNotFound) {
		t.Fatalf("expected ErrPlayerNotFound, got %v", err)
	}

	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if err := db.UpsertPlayerIP(ctx, "Ace", "10.0.0.1", t0); err != nil {
		t.Fatalf("UpsertPlayerIP: %v", err)
	}

	rec, err := db.GetPlayerIP(ctx, "Ace")
	if err != nil {
		t.Fatalf("GetPlayerIP: %v", err)
	}
	if rec.IPAddress != "10.0.0.1" || !rec.LastSeen.Equal(t0) {
		t.Errorf("unexpected record: %+v", rec)
	}

	// Overwrite keeps exactly one row per player.
	t1 := t0.Add(time.Hour)
	if err := db.UpsertPlayerIP(ctx, "Ace", "10.0.0.2", t1); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	rec, err = db.GetPlayerIP(ctx, "Ace")
	if err != nil {
		t.Fatalf("GetPlayerIP after update: %v", err)
	}
	if rec.IPAddress != "10.0.0.2" || !rec.LastSeen.Equal(t1) {
		t.Errorf("unexpected record after update: %+v", rec)
	}
}

func TestPing(t *testing.T) {
	db := newTestDB(t)
	if err := db.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}
