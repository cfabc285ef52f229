// Versewatch - Star Citizen Telemetry Tracker
// Copyright 2026 Versewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/versewatch/versewatch

package api

import (
	"net/http"
	"time"

	gorillaws "github.com/gorilla/websocket"

	"github.com/versewatch/versewatch/internal/config"
	"github.com/versewatch/versewatch/internal/logging"
	"github.com/versewatch/versewatch/internal/websocket"
)

// WSHandler upgrades HTTP connections and attaches them to the hub.
type WSHandler struct {
	hub *websocket.Hub
	cfg *config.Config
}

// NewWSHandler creates the WebSocket upgrade handler. cfg may be nil; origin
// checks then fail open (tests, development).
func NewWSHandler(hub *websocket.Hub, cfg *config.Config) *WSHandler {
	return &WSHandler{hub: hub, cfg: cfg}
}

func (h *WSHandler) upgrader() gorillaws.Upgrader {
	return gorillaws.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkOrigin validates browser connections against the configured CORS
// origins. Requests without an Origin header (scripts, the log scanner) are
// allowed: they are not subject to the browser same-origin model.
func (h *WSHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if h.cfg == nil {
		return true
	}

	for _, allowed := range h.cfg.Security.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	logging.Warn().Str("origin", origin).Msg("websocket connection rejected from unauthorized origin")
	return false
}

// Serve handles GET /ws?group=. The connection joins the given group; when
// the parameter is omitted it stays unsubscribed and receives nothing until
// it sends a subscribe message.
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	upgrader := h.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		logging.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := websocket.NewClient(h.hub, conn, r.URL.Query().Get("group"))
	// Registration completes before the read pump starts, so a subscribe
	// frame sent immediately on connect is never lost.
	h.hub.Add(client)
	client.Start()
}
