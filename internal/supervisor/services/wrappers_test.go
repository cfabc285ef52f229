// Versewatch - Star Citizen Telemetry Tracker
// Copyright 2026 Versewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/versewatch/versewatch

package services

import (
	"context"
	"errors"
	"testing"
)

type fakeRunner struct {
	err    error
	called bool
}

func (f *fakeRunner) RunWithContext(_ context.Context) error {
	f.called = true
	return f.err
}

func (f *fakeRunner) Run(_ context.Context) error {
	f.called = true
	return f.err
}

func TestWebSocketHubService_Delegates(t *testing.T) {
	hub := &fakeRunner{err: errors.New("hub stopped")}
	svc := NewWebSocketHubService(hub)

	if err := svc.Serve(context.Background()); !errors.Is(err, hub.err) {
		t.Errorf("Serve() = %v, want hub error", err)
	}
	if !hub.called {
		t.Error("hub was never run")
	}
	if svc.String() != "websocket-hub" {
		t.Errorf("String() = %q", svc.String())
	}
}

func TestNotifierService_Delegates(t *testing.T) {
	relay := &fakeRunner{err: errors.New("relay stopped")}
	svc := NewNotifierService(relay)

	if err := svc.Serve(context.Background()); !errors.Is(err, relay.err) {
		t.Errorf("Serve() = %v, want relay error", err)
	}
	if !relay.called {
		t.Error("relay was never run")
	}
	if svc.String() != "notifier-relay" {
		t.Errorf("String() = %q", svc.String())
	}
}
