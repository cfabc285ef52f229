// Versewatch - Star Citizen Telemetry Tracker
// Copyright 2026 Versewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/versewatch/versewatch

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/versewatch/versewatch/internal/database"
	"github.com/versewatch/versewatch/internal/ingest"
	"github.com/versewatch/versewatch/internal/logging"
	"github.com/versewatch/versewatch/internal/models"
)

// maxEventBodySize bounds ingest request bodies.
const maxEventBodySize = 1 << 20 // 1 MB

// Ingestor persists raw event payloads. Implemented by *ingest.Pipeline.
type Ingestor interface {
	Ingest(ctx context.Context, payload map[string]interface{}) (*models.Event, bool, error)
}

// EventReader serves queries against the record store. Implemented by
// *database.DB.
type EventReader interface {
	ListRecentEvents(ctx context.Context, group string, limit int) ([]*models.Event, error)
	CountEvents(ctx context.Context, group string) (int64, error)
	GetPlayerIP(ctx context.Context, player string) (*models.PlayerIPRecord, error)
	Ping(ctx context.Context) error
}

// EventPublisher fans committed events out to live subscribers and the
// notifier. Implemented by *broadcast.Broadcaster.
type EventPublisher interface {
	Publish(event *models.Event)
}

// Handler holds the dependencies for all HTTP handlers.
type Handler struct {
	ingestor  Ingestor
	reader    EventReader
	publisher EventPublisher
	startTime time.Time
}

// NewHandler creates the API handler. publisher may be nil (no fan-out).
func NewHandler(ingestor Ingestor, reader EventReader, publisher EventPublisher) *Handler {
	return &Handler{
		ingestor:  ingestor,
		reader:    reader,
		publisher: publisher,
		startTime: time.Now(),
	}
}

// eventResponse is the ingest response body.
type eventResponse struct {
	Event     map[string]interface{} `json:"event"`
	Duplicate bool                   `json:"duplicate"`
}

// CreateEvent handles POST /api/v1/events: ingest one raw event payload.
//
// Duplicates are not an error: the response carries the canonical stored
// event and duplicate=true, and nothing is re-broadcast.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxEventBodySize)

	var payload map[string]interface{}
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "request body must be a JSON object")
		return
	}

	event, isNew, err := h.ingestor.Ingest(r.Context(), payload)
	if err != nil {
		if errors.Is(err, ingest.ErrInvalidPayload) {
			respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "event payload is empty")
			return
		}
		logging.Error().Err(err).Msg("event ingestion failed")
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "failed to store event")
		return
	}

	status := http.StatusCreated
	if isNew {
		if h.publisher != nil {
			h.publisher.Publish(event)
		}
	} else {
		status = http.StatusOK
	}

	respondJSON(w, status, eventResponse{Event: event.Payload(), Duplicate: !isNew})
}

// ListEvents handles GET /api/v1/events?group=&limit=.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	group := r.URL.Query().Get("group")
	limit := queryInt(r, "limit", 100)

	events, err := h.reader.ListRecentEvents(r.Context(), group, limit)
	if err != nil {
		logging.Error().Err(err).Msg("failed to list events")
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "failed to list events")
		return
	}

	payloads := make([]map[string]interface{}, 0, len(events))
	for _, event := range events {
		payloads = append(payloads, event.Payload())
	}
	respondJSON(w, http.StatusOK, payloads)
}

// CountEvents handles GET /api/v1/events/count?group=.
func (h *Handler) CountEvents(w http.ResponseWriter, r *http.Request) {
	count, err := h.reader.CountEvents(r.Context(), r.URL.Query().Get("group"))
	if err != nil {
		logging.Error().Err(err).Msg("failed to count events")
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "failed to count events")
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"count": count})
}

// PlayerIP handles GET /api/v1/players/{player}/ip.
func (h *Handler) PlayerIP(w http.ResponseWriter, r *http.Request) {
	player := chi.URLParam(r, "player")
	if player == "" {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "player name required")
		return
	}

	record, err := h.reader.GetPlayerIP(r.Context(), player)
	if err != nil {
		if errors.Is(err, database.ErrPlayerNotFound) {
			respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "player has no recorded address")
			return
		}
		logging.Error().Err(err).Msg("failed to look up player ip")
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "failed to look up player")
		return
	}
	respondJSON(w, http.StatusOK, record)
}

// Health handles GET /api/v1/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	dbStatus := "ok"
	code := http.StatusOK

	if err := h.reader.Ping(r.Context()); err != nil {
		status = "degraded"
		dbStatus = "unreachable"
		code = http.StatusServiceUnavailable
	}

	respondJSON(w, code, map[string]interface{}{
		"status":         status,
		"database":       dbStatus,
		"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
	})
}

// HealthLive handles GET /api/v1/health/live: process liveness only.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HealthReady handles GET /api/v1/health/ready: the store must answer.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if err := h.reader.Ping(r.Context()); err != nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "database unreachable")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// queryInt parses an integer query parameter, returning def when absent or
// malformed.
func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
