// Versewatch - Star Citizen Telemetry Tracker
// Copyright 2026 Versewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/versewatch/versewatch

// Package broadcast fans freshly ingested events out to the live WebSocket
// subscribers of the event's group, and hands each event off to the chat
// notifier relay. Both paths are fire-and-forget: a slow socket or a full
// notifier queue never stalls ingestion.
package broadcast

import (
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/versewatch/versewatch/internal/logging"
	"github.com/versewatch/versewatch/internal/metrics"
	"github.com/versewatch/versewatch/internal/models"
	"github.com/versewatch/versewatch/internal/websocket"
)

// NotifierTopic is the in-process topic carrying events from the broadcaster
// to the notifier relay.
const NotifierTopic = "events.notify"

// Message metadata keys on notifier messages.
const (
	MetadataEventType = "event_type"
	MetadataGroup     = "group"
)

// defaultQueueSize bounds the notifier handoff when no size is configured.
const defaultQueueSize = 256

// Registry is the slice of the hub the broadcaster needs: a group membership
// snapshot, and eviction of clients that can no longer keep up.
// Implemented by *websocket.Hub.
type Registry interface {
	MembersOf(group string) []*websocket.Client
	Remove(client *websocket.Client)
}

// Broadcaster delivers committed events to local subscribers and enqueues
// them for the notifier relay.
//
// The notifier handoff goes through an internal bounded queue drained by a
// forwarder goroutine, so a publisher that blocks (a full pub/sub buffer
// behind a stalled consumer) can never hold up Publish callers. Events
// beyond the bound are dropped and counted.
type Broadcaster struct {
	registry  Registry
	publisher message.Publisher
	queue     chan *message.Message
	done      chan struct{}
	closeOnce sync.Once
}

// NewBroadcaster creates a broadcaster. publisher may be nil when the
// notifier is disabled; local fan-out still runs. queueSize bounds the
// notifier handoff; values < 1 use the default.
func NewBroadcaster(registry Registry, publisher message.Publisher, queueSize int) *Broadcaster {
	b := &Broadcaster{
		registry:  registry,
		publisher: publisher,
	}
	if publisher != nil {
		if queueSize < 1 {
			queueSize = defaultQueueSize
		}
		b.queue = make(chan *message.Message, queueSize)
		b.done = make(chan struct{})
		go b.forward()
	}
	return b
}

// Close stops the notifier forwarder. Queued notifications that have not
// been handed to the publisher yet are dropped; the events themselves are
// already committed. Safe to call more than once.
func (b *Broadcaster) Close() {
	if b.done == nil {
		return
	}
	b.closeOnce.Do(func() {
		close(b.done)
	})
}

// Publish fans event out to the WebSocket clients subscribed to its group,
// then enqueues it for the notifier. Callers invoke it exactly once per
// committed event; duplicates resolved during ingestion are never published.
//
// Delivery is per-subscriber best-effort: a client whose buffer is full is
// dropped from the hub so one stalled reader cannot block the rest.
func (b *Broadcaster) Publish(event *models.Event) {
	payload := event.Payload()
	msg := websocket.Message{Type: websocket.MessageTypeEvent, Data: payload}

	members := b.registry.MembersOf(event.Group)
	for _, client := range members {
		if client.TrySend(msg) {
			metrics.Deliveries.WithLabelValues("sent").Inc()
			continue
		}
		metrics.Deliveries.WithLabelValues("dropped").Inc()
		logging.Warn().
			Uint64("client_id", client.ID()).
			Str("group", event.Group).
			Msg("subscriber buffer full, dropping client")
		b.registry.Remove(client)
	}

	logging.Debug().
		Str("event_type", event.EventType).
		Str("group", event.Group).
		Int("subscribers", len(members)).
		Msg("event broadcast")

	b.enqueueNotification(event, payload)
}

// enqueueNotification hands the event to the notifier forwarder without
// blocking. Failures are counted and logged, never returned; the event is
// already committed.
func (b *Broadcaster) enqueueNotification(event *models.Event, payload map[string]interface{}) {
	if b.publisher == nil {
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		metrics.NotifierDropped.Inc()
		logging.Error().Err(err).
			Str("event_type", event.EventType).
			Msg("failed to encode event for notifier")
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), body)
	msg.Metadata.Set(MetadataEventType, event.EventType)
	msg.Metadata.Set(MetadataGroup, event.Group)

	select {
	case b.queue <- msg:
		metrics.NotifierEnqueued.Inc()
	default:
		metrics.NotifierDropped.Inc()
		logging.Warn().
			Str("event_type", event.EventType).
			Str("group", event.Group).
			Msg("notifier queue full, dropping notification")
	}
}

// forward drains the handoff queue into the publisher. Publish may block
// here without affecting ingestion.
func (b *Broadcaster) forward() {
	for {
		select {
		case <-b.done:
			return
		case msg := <-b.queue:
			if err := b.publisher.Publish(NotifierTopic, msg); err != nil {
				metrics.NotifierDropped.Inc()
				logging.Warn().Err(err).
					Str("event_type", msg.Metadata.Get(MetadataEventType)).
					Str("group", msg.Metadata.Get(MetadataGroup)).
					Msg("notifier queue unavailable, dropping notification")
			}
		}
	}
}
