// Versewatch - Star Citizen Telemetry Tracker
// Copyright 2026 Versewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/versewatch/versewatch

package notifier

import (
	"sort"
	"sync"

	"github.com/versewatch/versewatch/internal/config"
)

// Subscriptions maps chat channels to the single group each one follows.
// Subscribing a channel again replaces its previous group.
type Subscriptions struct {
	mu       sync.RWMutex
	channels map[string]string
}

// NewSubscriptions creates a subscription table seeded from configuration.
func NewSubscriptions(seed []config.ChannelSubscription) *Subscriptions {
	s := &Subscriptions{channels: make(map[string]string, len(seed))}
	for _, sub := range seed {
		if sub.ChannelID != "" && sub.Group != "" {
			s.channels[sub.ChannelID] = sub.Group
		}
	}
	return s
}

// Subscribe points channelID at group, replacing any earlier subscription.
func (s *Subscriptions) Subscribe(channelID, group string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels[channelID] = group
}

// Unsubscribe removes channelID from the table.
func (s *Subscriptions) Unsubscribe(channelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.channels, channelID)
}

// ChannelsFor returns the channels subscribed to group, in stable order.
func (s *Subscriptions) ChannelsFor(group string) []string {
	s.mu.RLock()
	var channels []string
	for channelID, g := range s.channels {
		if g == group {
			channels = append(channels, channelID)
		}
	}
	s.mu.RUnlock()

	sort.Strings(channels)
	return channels
}

// Len returns the number of subscribed channels.
func (s *Subscriptions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.channels)
}
