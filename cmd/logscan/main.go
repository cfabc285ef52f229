// Versewatch - Star Citizen Telemetry Tracker
// Copyright 2026 Versewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/versewatch/versewatch

// Command logscan scans a Star Citizen Game.log file for telemetry events
// and submits them to a Versewatch server.
//
// Usage:
//
//	logscan -file Game.log -server http://localhost:8080 -group crew
//	logscan -file Game.log -dry-run
//	logscan -file Game.log -follow
package main

import (
	"bufio"
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"

	"github.com/versewatch/versewatch/internal/logging"
	"github.com/versewatch/versewatch/internal/logscan"
)

const (
	postTimeout  = 10 * time.Second
	pollInterval = time.Second
)

func main() {
	var (
		file   = flag.String("file", "Game.log", "path to the Game.log file")
		server = flag.String("server", "http://localhost:8080", "Versewatch server base URL")
		group  = flag.String("group", "", "group to tag events with (server default when empty)")
		dryRun = flag.Bool("dry-run", false, "print event payloads instead of submitting them")
		follow = flag.Bool("follow", false, "keep the file open and scan lines as they are appended")
		logLvl = flag.String("log-level", "info", "log level (debug, info, warn, error)")
	)
	flag.Parse()

	logging.Init(logging.Config{Level: *logLvl, Format: "console"})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	scanner := &scanner{
		parser: logscan.NewParser(*group),
		submit: submitter(*server, *dryRun),
	}

	if err := scanner.scanFile(ctx, *file, *follow); err != nil {
		logging.Fatal().Err(err).Str("file", *file).Msg("Scan failed")
	}

	logging.Info().
		Int("matched", scanner.matched).
		Int("submitted", scanner.submitted).
		Msg("Scan complete")
}

type scanner struct {
	parser    *logscan.Parser
	submit    func(ctx context.Context, payload map[string]interface{}) error
	matched   int
	submitted int
}

// scanFile reads f line by line. With follow it polls for appended lines
// until the context is cancelled, surviving partial trailing lines.
func (s *scanner) scanFile(ctx context.Context, path string, follow bool) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	var partial bytes.Buffer
	for {
		line, err := reader.ReadString('\n')
		if err == nil {
			partial.WriteString(line)
			s.handleLine(ctx, partial.String())
			partial.Reset()
			continue
		}
		if err != io.EOF {
			return fmt.Errorf("read log file: %w", err)
		}

		// EOF with a partial line: stash it until the rest is written.
		partial.WriteString(line)
		if !follow {
			if partial.Len() > 0 {
				s.handleLine(ctx, partial.String())
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(pollInterval):
		}
	}
}

func (s *scanner) handleLine(ctx context.Context, line string) {
	payload := s.parser.ParseLine(line)
	if payload == nil {
		return
	}
	s.matched++

	if err := s.submit(ctx, payload); err != nil {
		logging.Warn().
			Err(err).
			Str("event_type", fmt.Sprint(payload["event_type"])).
			Msg("Failed to submit event")
		return
	}
	s.submitted++
}

// submitter returns the payload sink: stdout JSON in dry-run mode, otherwise
// a POST to the server's event endpoint.
func submitter(server string, dryRun bool) func(ctx context.Context, payload map[string]interface{}) error {
	if dryRun {
		enc := json.NewEncoder(os.Stdout)
		return func(_ context.Context, payload map[string]interface{}) error {
			return enc.Encode(payload)
		}
	}

	client := &http.Client{Timeout: postTimeout}
	url := server + "/api/v1/events"
	return func(ctx context.Context, payload map[string]interface{}) error {
		body, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode payload: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("post event: %w", err)
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body) //nolint:errcheck

		if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
			return fmt.Errorf("server returned %s", resp.Status)
		}
		return nil
	}
}
