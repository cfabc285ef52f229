// Versewatch - Star Citizen Telemetry Tracker
// Copyright 2026 Versewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/versewatch/versewatch

package services

import (
	"context"
)

// Runner matches *notifier.Relay's Run method.
type Runner interface {
	Run(ctx context.Context) error
}

// NotifierService wraps the notifier relay as a supervised service, so a
// crashed relay router is restarted without disturbing ingestion.
type NotifierService struct {
	relay Runner
	name  string
}

// NewNotifierService wraps relay as a supervised service.
func NewNotifierService(relay Runner) *NotifierService {
	return &NotifierService{
		relay: relay,
		name:  "notifier-relay",
	}
}

// Serve implements suture.Service.
func (n *NotifierService) Serve(ctx context.Context) error {
	return n.relay.Run(ctx)
}

// String implements fmt.Stringer; suture uses it in log messages.
func (n *NotifierService) String() string {
	return n.name
}
