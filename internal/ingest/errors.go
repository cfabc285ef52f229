// Versewatch - Star Citizen Telemetry Tracker
// Copyright 2026 Versewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/versewatch/versewatch

package ingest

import "errors"

var (
	// ErrInvalidPayload indicates the payload could not be minimally
	// normalized (nil or empty). Malformed optional fields never trigger
	// this; they are left empty.
	ErrInvalidPayload = errors.New("invalid event payload")

	// ErrDedupResolution indicates the insert hit the dedup constraint but
	// the existing record could not be found (a race with a concurrent
	// delete, or a conflict on a different constraint). Fatal for the call.
	ErrDedupResolution = errors.New("duplicate detected but existing event not found")
)
