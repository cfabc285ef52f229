// Versewatch - Star Citizen Telemetry Tracker
// Copyright 2026 Versewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/versewatch/versewatch

// Package notifier relays committed events to subscribed chat channels.
//
// The relay runs on its own watermill router, decoupled from the ingestion
// path: events arrive over an in-process subscription and are delivered
// at-most-once. A subscriber that is down simply misses events; there is no
// replay.
package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/versewatch/versewatch/internal/broadcast"
	"github.com/versewatch/versewatch/internal/logging"
	"github.com/versewatch/versewatch/internal/metrics"
	"github.com/versewatch/versewatch/internal/models"
)

const (
	handlerName = "chat-notifier"
	sendTimeout = 10 * time.Second
)

// ChannelSender posts a message to one chat channel. Implemented by
// *DiscordSender; tests substitute a fake.
type ChannelSender interface {
	SendChannelMessage(ctx context.Context, channelID, content string) error
}

// Relay consumes the notifier topic and posts formatted event messages to
// every channel subscribed to the event's group.
type Relay struct {
	subs    *Subscriptions
	sender  ChannelSender
	breaker *gobreaker.CircuitBreaker[any]
	router  *message.Router
}

// NewRelay builds the relay and registers its handler on a fresh router.
func NewRelay(subscriber message.Subscriber, sender ChannelSender, subs *Subscriptions) (*Relay, error) {
	router, err := message.NewRouter(message.RouterConfig{}, watermill.NopLogger{})
	if err != nil {
		return nil, fmt.Errorf("create notifier router: %w", err)
	}

	r := &Relay{
		subs:   subs,
		sender: sender,
		breaker: gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
			Name:    handlerName,
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logging.Warn().
					Str("breaker", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("notifier circuit breaker state change")
			},
		}),
		router: router,
	}

	router.AddNoPublisherHandler(handlerName, broadcast.NotifierTopic, subscriber, r.handle)
	return r, nil
}

// Run starts the relay's router and blocks until ctx is canceled. Designed
// for suture supervision.
func (r *Relay) Run(ctx context.Context) error {
	return r.router.Run(ctx)
}

// Running is closed once the router is consuming.
func (r *Relay) Running() chan struct{} {
	return r.router.Running()
}

// Close stops the router.
func (r *Relay) Close() error {
	return r.router.Close()
}

// handle delivers one event message. It always returns nil: a failed or
// unformattable notification is dropped, never retried, so a dead chat
// service cannot back up the queue.
func (r *Relay) handle(msg *message.Message) error {
	var payload map[string]interface{}
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		logging.Warn().Err(err).
			Str("message_id", msg.UUID).
			Msg("malformed notifier payload, dropping")
		return nil
	}

	group := stringValue(payload, "group")
	if group == "" {
		group = models.DefaultGroup
	}

	content, ok := FormatEventMessage(payload, group)
	if !ok {
		// Not every event type is chat-worthy.
		return nil
	}

	for _, channelID := range r.subs.ChannelsFor(group) {
		r.send(channelID, content)
	}
	return nil
}

// send posts to one channel through the circuit breaker.
func (r *Relay) send(channelID, content string) {
	_, err := r.breaker.Execute(func() (any, error) {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		return nil, r.sender.SendChannelMessage(ctx, channelID, content)
	})
	if err != nil {
		metrics.NotifierSends.WithLabelValues("failed").Inc()
		logging.Warn().Err(err).
			Str("channel_id", channelID).
			Msg("chat notification failed")
		return
	}
	metrics.NotifierSends.WithLabelValues("sent").Inc()
}

// FormatEventMessage renders the chat message for an event payload. The
// second return is false for event types that do not produce notifications.
func FormatEventMessage(payload map[string]interface{}, group string) (string, bool) {
	switch stringValue(payload, "event_type") {
	case models.EventTypeKill:
		killer := stringValue(payload, "killer")
		victim := stringValue(payload, "victim")
		return fmt.Sprintf("**Kill Event** in group '%s': %s killed %s", group, killer, victim), true

	case models.EventTypeVehicleDestruction:
		player := stringValue(payload, "player")
		vehicle := stringValue(payload, "vehicle")
		return fmt.Sprintf("**Vehicle Destruction** in group '%s': %s destroyed by %s", group, vehicle, player), true

	default:
		return "", false
	}
}

func stringValue(payload map[string]interface{}, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}
