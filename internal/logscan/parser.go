// Versewatch - Star Citizen Telemetry Tracker
// Copyright 2026 Versewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/versewatch/versewatch

// Package logscan turns Star Citizen Game.log lines into event payloads
// ready for ingestion.
package logscan

import (
	"regexp"
	"strings"
)

// Game.log line patterns. The <timestamp> prefix is the client's UTC clock
// in RFC 3339 form.
var (
	actorDeathPattern = regexp.MustCompile(
		`<(?P<timestamp>[^>]+)> \[Notice\] <Actor Death> CActor::Kill: '(?P<victim>[^']+)' \[\d+\] in zone '(?P<zone>[^']+)' killed by '(?P<attacker>[^']+)' \[\d+\] using '(?P<weapon>[^']+)' \[Class [^\]]+\] with damage type '(?P<damage_type>[^']+)'`)

	vehicleDestructionPattern = regexp.MustCompile(
		`<(?P<timestamp>[^>]+)> \[Notice\] <Vehicle Destruction> CVehicle::OnAdvanceDestroyLevel: Vehicle '(?P<vehicle>[^']+)' \[\d+\] in zone '(?P<zone>[^']+)'.* driven by '(?P<driver>[^']+)' \[\d+\] advanced from destroy level (?P<from_level>\d+) to (?P<to_level>\d+)`)

	jumpDriveStatePattern = regexp.MustCompile(
		`<(?P<timestamp>[^>]+)> \[Notice\] <Jump Drive Changing State> CSCItemJumpDrive::OnStateChanged \| (?P<ship>[^|]+) \| [^|]+ \| (?P<location>[^|]+) \| [^|]+ \[\d+\] \| State is now (?P<state>[^\[]+)`)

	quantumTravelPattern = regexp.MustCompile(
		`<(?P<timestamp>[^>]+)> -- Entity Trying To QT: (?P<entity>.+)`)

	corpsePattern = regexp.MustCompile(
		`<(?P<timestamp>[^>]+)> \[Notice\] <Corpse> Player '(?P<player>[^']+)' <[^>]+>: IsCorpseEnabled: (?P<corpse_enabled>Yes|No)`)

	haulingObjectivePattern = regexp.MustCompile(
		`<(?P<timestamp>[^>]+)> \[Notice\] <CreateHaulingObjectiveHandler> (?P<objective_type>Pick|Dropoff) created - \[Cient\] sourcename: (?P<source>[^,]+), missionId: (?P<mission_id>[0-9a-fA-F-]+), locationName: (?P<location_name>[^,]+)`)
)

// Event types produced by the parser.
const (
	TypeKill               = "kill"
	TypeVehicleDestruction = "vehicle_destruction"
	TypeJumpDriveState     = "jump_drive_state"
	TypeQuantumTravel      = "quantum_travel"
	TypeCorpse             = "corpse"
	TypeHaulingObjective   = "hauling_objective"
)

// Parser converts Game.log lines into event payloads. A configured group is
// stamped on every payload.
type Parser struct {
	group string
}

// NewParser creates a parser tagging payloads with group. Empty keeps the
// server's default group.
func NewParser(group string) *Parser {
	return &Parser{group: group}
}

// ParseLine converts one log line into an event payload, or returns nil for
// lines that carry no telemetry.
func (p *Parser) ParseLine(line string) map[string]interface{} {
	if fields := match(actorDeathPattern, line); fields != nil {
		return p.payload(TypeKill, fields["timestamp"], map[string]interface{}{
			"killer":      fields["attacker"],
			"victim":      fields["victim"],
			"zone":        fields["zone"],
			"weapon":      fields["weapon"],
			"damage_type": fields["damage_type"],
		})
	}

	if fields := match(vehicleDestructionPattern, line); fields != nil {
		return p.payload(TypeVehicleDestruction, fields["timestamp"], map[string]interface{}{
			"player":     fields["driver"],
			"vehicle":    fields["vehicle"],
			"zone":       fields["zone"],
			"from_level": fields["from_level"],
			"to_level":   fields["to_level"],
		})
	}

	if fields := match(jumpDriveStatePattern, line); fields != nil {
		return p.payload(TypeJumpDriveState, fields["timestamp"], map[string]interface{}{
			"vehicle": strings.TrimSpace(fields["ship"]),
			"zone":    strings.TrimSpace(fields["location"]),
			"state":   strings.TrimSpace(fields["state"]),
		})
	}

	if fields := match(quantumTravelPattern, line); fields != nil {
		return p.payload(TypeQuantumTravel, fields["timestamp"], map[string]interface{}{
			"vehicle": strings.TrimSpace(fields["entity"]),
		})
	}

	if fields := match(corpsePattern, line); fields != nil {
		return p.payload(TypeCorpse, fields["timestamp"], map[string]interface{}{
			"player":         fields["player"],
			"corpse_enabled": fields["corpse_enabled"] == "Yes",
		})
	}

	if fields := match(haulingObjectivePattern, line); fields != nil {
		return p.payload(TypeHaulingObjective, fields["timestamp"], map[string]interface{}{
			"objective_type": fields["objective_type"],
			"source":         fields["source"],
			"mission_id":     fields["mission_id"],
			"zone":           fields["location_name"],
		})
	}

	return nil
}

func (p *Parser) payload(eventType, timestamp string, fields map[string]interface{}) map[string]interface{} {
	payload := map[string]interface{}{
		"event_type": eventType,
		"timestamp":  timestamp,
	}
	if p.group != "" {
		payload["group"] = p.group
	}
	for k, v := range fields {
		payload[k] = v
	}
	return payload
}

// match runs pattern against line and returns named captures, nil when the
// line does not match.
func match(pattern *regexp.Regexp, line string) map[string]string {
	m := pattern.FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	fields := make(map[string]string)
	for i, name := range pattern.SubexpNames() {
		if name != "" && i < len(m) {
			fields[name] = m[i]
		}
	}
	return fields
}
