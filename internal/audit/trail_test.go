// Versewatch - Star Citizen Telemetry Tracker
// Copyright 2026 Versewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/versewatch/versewatch

package audit

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestTrail_RecordIPChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ip_changes.log")
	trail, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer trail.Close()

	changedAt := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := trail.RecordIPChange("Ace", "10.0.0.1", "10.0.0.2", changedAt); err != nil {
		t.Fatalf("RecordIPChange failed: %v", err)
	}
	if err := trail.RecordIPChange("Ace", "10.0.0.2", "10.0.0.1", changedAt.Add(time.Minute)); err != nil {
		t.Fatalf("RecordIPChange failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read trail: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 audit lines, got %d: %q", len(lines), lines)
	}
	if !strings.Contains(lines[0], "10.0.0.1 -> 10.0.0.2") {
		t.Errorf("first line missing change A->B: %q", lines[0])
	}
	if !strings.Contains(lines[1], "10.0.0.2 -> 10.0.0.1") {
		t.Errorf("second line missing change B->A: %q", lines[1])
	}
	if !strings.HasPrefix(lines[0], "2024-01-02T03:04:05Z") {
		t.Errorf("first line missing timestamp prefix: %q", lines[0])
	}
}

func TestTrail_CreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "trail.log")
	trail, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer trail.Close()

	if _, err := os.Stat(path); err != nil {
		t.Errorf("trail file not created: %v", err)
	}
}

func TestTrail_ClosedAppendFails(t *testing.T) {
	trail, err := Open(filepath.Join(t.TempDir(), "trail.log"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := trail.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := trail.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
	if err := trail.RecordIPChange("Ace", "a", "b", time.Now()); err == nil {
		t.Error("expected error appending to closed trail")
	}
}

func TestTrail_ConcurrentAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trail.log")
	trail, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer trail.Close()

	const writers = 8
	const perWriter = 20

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				if err := trail.RecordIPChange("Pilot", "1.1.1.1", "2.2.2.2", time.Now()); err != nil {
					t.Errorf("writer %d append %d: %v", w, i, err)
				}
			}
		}(w)
	}
	wg.Wait()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read trail: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != writers*perWriter {
		t.Errorf("expected %d lines, got %d", writers*perWriter, len(lines))
	}
}
