// Versewatch - Star Citizen Telemetry Tracker
// Copyright 2026 Versewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/versewatch/versewatch

package database

import (
	"errors"
	"strings"
)

var (
	// ErrDuplicateEvent indicates an insert hit the dedup unique index.
	// Callers resolve it by re-reading the existing row with GetEventByKey.
	ErrDuplicateEvent = errors.New("event already exists")

	// ErrEventNotFound indicates a point lookup matched no row.
	ErrEventNotFound = errors.New("event not found")

	// ErrPlayerNotFound indicates no IP record exists for the player.
	ErrPlayerNotFound = errors.New("player not found")
)

// isUniqueConstraintError checks if an error is a unique constraint violation.
// DuckDB constraint error messages contain "unique constraint" or "duplicate key".
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
