// Versewatch - Star Citizen Telemetry Tracker
// Copyright 2026 Versewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/versewatch/versewatch

package notifier

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/versewatch/versewatch/internal/logging"
)

// DiscordSender posts messages through a Discord bot session.
type DiscordSender struct {
	session *discordgo.Session
}

// NewDiscordSender opens a Discord session with the given bot token.
func NewDiscordSender(token string) (*DiscordSender, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages

	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("open discord session: %w", err)
	}
	logging.Info().Msg("discord session opened")

	return &DiscordSender{session: session}, nil
}

// SendChannelMessage posts content to the given Discord channel.
func (d *DiscordSender) SendChannelMessage(ctx context.Context, channelID, content string) error {
	_, err := d.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("send to channel %s: %w", channelID, err)
	}
	return nil
}

// Close shuts the Discord session down.
func (d *DiscordSender) Close() error {
	return d.session.Close()
}
