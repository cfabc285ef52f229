// Versewatch - Star Citizen Telemetry Tracker
// Copyright 2026 Versewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/versewatch/versewatch

// Package models defines the core data types shared across Versewatch.
package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultGroup is the partition key assigned to events posted without one.
const DefaultGroup = "default"

// Well-known event types emitted by the log-scanning client. The server
// accepts arbitrary type tags; these are the ones the notifier formats.
const (
	EventTypeKill               = "kill"
	EventTypeVehicleDestruction = "vehicle_destruction"
)

// Event is a single normalized gameplay telemetry event.
//
// Events are immutable once committed: the triple (EventType, Timestamp,
// Group) uniquely identifies a stored event, and a second ingestion attempt
// with the same triple resolves to the original record.
type Event struct {
	ID        uuid.UUID `json:"id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
	Group     string    `json:"group"`
	Player    string    `json:"player,omitempty"`
	Killer    string    `json:"killer,omitempty"`
	Victim    string    `json:"victim,omitempty"`
	Vehicle   string    `json:"vehicle,omitempty"`
	Zone      string    `json:"zone,omitempty"`

	// RawData preserves the original payload verbatim, including fields the
	// typed columns do not model. Unknown fields are kept, not rejected.
	RawData map[string]interface{} `json:"raw_data,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Payload flattens the event into the JSON object delivered to subscribers:
// every extra raw field, with the typed fields overriding raw values of the
// same name. The timestamp is rendered as RFC 3339.
func (e *Event) Payload() map[string]interface{} {
	payload := make(map[string]interface{}, len(e.RawData)+8)
	for k, v := range e.RawData {
		payload[k] = v
	}

	payload["event_type"] = e.EventType
	payload["timestamp"] = e.Timestamp.UTC().Format(time.RFC3339Nano)
	payload["group"] = e.Group
	if e.Player != "" {
		payload["player"] = e.Player
	}
	if e.Killer != "" {
		payload["killer"] = e.Killer
	}
	if e.Victim != "" {
		payload["victim"] = e.Victim
	}
	if e.Vehicle != "" {
		payload["vehicle"] = e.Vehicle
	}
	if e.Zone != "" {
		payload["zone"] = e.Zone
	}

	return payload
}

// PlayerIPRecord tracks the most recently observed address for one player.
// At most one record exists per player; address changes are recorded to the
// append-only audit trail before the record is overwritten.
type PlayerIPRecord struct {
	Player    string    `json:"player"`
	IPAddress string    `json:"ip_address"`
	LastSeen  time.Time `json:"last_seen"`
}
