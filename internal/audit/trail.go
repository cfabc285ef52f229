// Versewatch - Star Citizen Telemetry Tracker
// Copyright 2026 Versewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/versewatch/versewatch

// Package audit maintains the append-only IP-change audit trail.
//
// The trail is a plain text file with one human-readable timestamped line
// per address change. Appends are synchronous and fsync'd: the old address
// must be durable before the player_ips record is overwritten.
package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/versewatch/versewatch/internal/logging"
)

// Trail is an append-only audit log of player IP address changes.
type Trail struct {
	mu   sync.Mutex
	file *os.File
	path string
}

// Open opens (or creates) the audit trail at path. Parent directories are
// created as needed.
func Open(path string) (*Trail, error) {
	if path == "" {
		return nil, fmt.Errorf("audit trail path is empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create audit trail directory: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit trail: %w", err)
	}

	return &Trail{file: file, path: path}, nil
}

// RecordIPChange appends one line describing an address change and syncs it
// to disk before returning. changedAt is the wall-clock time of the change.
func (t *Trail) RecordIPChange(player, oldAddr, newAddr string, changedAt time.Time) error {
	line := fmt.Sprintf("%s player %q ip changed %s -> %s\n",
		changedAt.UTC().Format(time.RFC3339), player, oldAddr, newAddr)

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.file == nil {
		return fmt.Errorf("audit trail is closed")
	}
	if _, err := t.file.WriteString(line); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	if err := t.file.Sync(); err != nil {
		return fmt.Errorf("sync audit trail: %w", err)
	}

	logging.Debug().
		Str("player", player).
		Str("old_ip", oldAddr).
		Str("new_ip", newAddr).
		Msg("ip change audited")
	return nil
}

// Path returns the location of the trail file.
func (t *Trail) Path() string {
	return t.path
}

// Close closes the underlying file. Further appends fail.
func (t *Trail) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.file == nil {
		return nil
	}
	err := t.file.Close()
	t.file = nil
	return err
}
