// Versewatch - Star Citizen Telemetry Tracker
// Copyright 2026 Versewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/versewatch/versewatch

package logscan

import (
	"testing"
)

func TestParseLine_ActorDeath(t *testing.T) {
	line := `<2026-08-30T21:14:09.123Z> [Notice] <Actor Death> CActor::Kill: 'Maverick' [202212345678] in zone 'OOC_Stanton_2b_Cellin' killed by 'Ace' [202287654321] using 'behr_rifle_ballistic_01_5678' [Class behr_rifle_ballistic_01] with damage type 'Bullet' from direction x: -0.5, y: 0.2, z: 0.8`

	p := NewParser("crew")
	payload := p.ParseLine(line)
	if payload == nil {
		t.Fatal("expected a payload, got nil")
	}

	want := map[string]interface{}{
		"event_type":  TypeKill,
		"timestamp":   "2026-08-30T21:14:09.123Z",
		"group":       "crew",
		"killer":      "Ace",
		"victim":      "Maverick",
		"zone":        "OOC_Stanton_2b_Cellin",
		"weapon":      "behr_rifle_ballistic_01_5678",
		"damage_type": "Bullet",
	}
	for k, v := range want {
		if payload[k] != v {
			t.Errorf("payload[%q] = %v, want %v", k, payload[k], v)
		}
	}
}

func TestParseLine_VehicleDestruction(t *testing.T) {
	line := `<2026-08-30T22:01:55.001Z> [Notice] <Vehicle Destruction> CVehicle::OnAdvanceDestroyLevel: Vehicle 'AEGS_Gladius_1234' [1234] in zone 'Stanton2' [pos x: 1.0, y: 2.0, z: 3.0 vel x: 0, y: 0, z: 0] driven by 'Maverick' [5678] advanced from destroy level 1 to 2 caused by 'Ace' [91011] with 'Combat'`

	payload := NewParser("").ParseLine(line)
	if payload == nil {
		t.Fatal("expected a payload, got nil")
	}
	if payload["event_type"] != TypeVehicleDestruction {
		t.Errorf("event_type = %v", payload["event_type"])
	}
	if payload["player"] != "Maverick" || payload["vehicle"] != "AEGS_Gladius_1234" {
		t.Errorf("unexpected fields: %v", payload)
	}
	if payload["from_level"] != "1" || payload["to_level"] != "2" {
		t.Errorf("destroy levels = %v -> %v", payload["from_level"], payload["to_level"])
	}
	if _, ok := payload["group"]; ok {
		t.Error("empty group should not be stamped on the payload")
	}
}

func TestParseLine_JumpDriveState(t *testing.T) {
	line := `<2026-08-30T23:10:00.500Z> [Notice] <Jump Drive Changing State> CSCItemJumpDrive::OnStateChanged | RSI_Polaris_5555 | SolarSystem | Pyro Gateway | JumpDrive_1 [42] | State is now Spooling [Team_VehicleFeatures][Vehicle]`

	payload := NewParser("crew").ParseLine(line)
	if payload == nil {
		t.Fatal("expected a payload, got nil")
	}
	if payload["event_type"] != TypeJumpDriveState {
		t.Errorf("event_type = %v", payload["event_type"])
	}
	if payload["vehicle"] != "RSI_Polaris_5555" {
		t.Errorf("vehicle = %v", payload["vehicle"])
	}
	if payload["state"] != "Spooling" {
		t.Errorf("state = %q", payload["state"])
	}
}

func TestParseLine_QuantumTravel(t *testing.T) {
	payload := NewParser("").ParseLine(`<2026-08-30T23:45:12.000Z> -- Entity Trying To QT: ANVL_Carrack_9999`)
	if payload == nil {
		t.Fatal("expected a payload, got nil")
	}
	if payload["event_type"] != TypeQuantumTravel || payload["vehicle"] != "ANVL_Carrack_9999" {
		t.Errorf("unexpected payload: %v", payload)
	}
}

func TestParseLine_Corpse(t *testing.T) {
	line := `<2026-08-31T00:05:33.250Z> [Notice] <Corpse> Player 'Maverick' <remote client>: IsCorpseEnabled: Yes, there is no local inventory.`

	payload := NewParser("").ParseLine(line)
	if payload == nil {
		t.Fatal("expected a payload, got nil")
	}
	if payload["event_type"] != TypeCorpse || payload["player"] != "Maverick" {
		t.Errorf("unexpected payload: %v", payload)
	}
	if payload["corpse_enabled"] != true {
		t.Errorf("corpse_enabled = %v", payload["corpse_enabled"])
	}
}

func TestParseLine_HaulingObjective(t *testing.T) {
	line := `<2026-08-31T01:20:45.100Z> [Notice] <CreateHaulingObjectiveHandler> Pick created - [Cient] sourcename: HurstonDynamics, missionId: 7c9e6679-7425-40de-944b-e07fc1f90ae7, locationName: Everus Harbor, objectives: 1`

	payload := NewParser("").ParseLine(line)
	if payload == nil {
		t.Fatal("expected a payload, got nil")
	}
	if payload["event_type"] != TypeHaulingObjective {
		t.Errorf("event_type = %v", payload["event_type"])
	}
	if payload["objective_type"] != "Pick" || payload["zone"] != "Everus Harbor" {
		t.Errorf("unexpected payload: %v", payload)
	}
	if payload["mission_id"] != "7c9e6679-7425-40de-944b-e07fc1f90ae7" {
		t.Errorf("mission_id = %v", payload["mission_id"])
	}
}

func TestParseLine_NoMatch(t *testing.T) {
	lines := []string{
		"",
		"<2026-08-31T02:00:00.000Z> [Notice] <Ping> heartbeat",
		"random text without any structure",
		"<2026-08-31T02:00:00.000Z> [Error] <Actor Death> truncated",
	}
	p := NewParser("crew")
	for _, line := range lines {
		if payload := p.ParseLine(line); payload != nil {
			t.Errorf("ParseLine(%q) = %v, want nil", line, payload)
		}
	}
}
