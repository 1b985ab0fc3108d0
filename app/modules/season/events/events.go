// Package seasonevents defines the season module's event topics and payloads.
package seasonevents

import (
	"encoding/json"
	"time"

	seasondomain "github.com/Black-And-White-Club/pitwall/app/modules/season/domain"
)

// Topics. All live under the season stream's "season.>" subjects.
const (
	// RaceSubmittedV1 carries a race result to record.
	RaceSubmittedV1 = "season.race.submitted.v1"
	// RaceRejectedV1 reports a submission that failed validation.
	RaceRejectedV1 = "season.race.rejected.v1"
	// RestoreRequestedV1 asks the service to replace the season from a save code.
	RestoreRequestedV1 = "season.restore.requested.v1"
	// RestoreFailedV1 reports a save code that could not be replayed.
	RestoreFailedV1 = "season.restore.failed.v1"
	// StandingsUpdatedV1 is published after every change to the season.
	StandingsUpdatedV1 = "season.standings.updated.v1"
)

// RaceSubmittedPayloadV1 is a race result keyed by competitor name. Values are
// finishing ranks or "DNF".
type RaceSubmittedPayloadV1 struct {
	Kind        string            `json:"kind"`
	Results     map[string]string `json:"results"`
	HeldOn      string            `json:"held_on,omitempty"`
	SubmittedBy string            `json:"submitted_by,omitempty"`
}

// ViolationV1 is one rejected token.
type ViolationV1 struct {
	Competitor string `json:"competitor"`
	Token      string `json:"token,omitempty"`
	Problem    string `json:"problem"`
}

// RaceRejectedPayloadV1 explains why a submission was not recorded.
type RaceRejectedPayloadV1 struct {
	Kind        string        `json:"kind"`
	Reason      string        `json:"reason"`
	Violations  []ViolationV1 `json:"violations,omitempty"`
	SubmittedBy string        `json:"submitted_by,omitempty"`
}

// RestoreRequestedPayloadV1 carries an encoded save code.
type RestoreRequestedPayloadV1 struct {
	SaveCode json.RawMessage `json:"save_code"`
}

// RestoreFailedPayloadV1 reports why a restore was refused.
type RestoreFailedPayloadV1 struct {
	Reason string `json:"reason"`
}

// StandingsUpdatedPayloadV1 is the season after a change.
type StandingsUpdatedPayloadV1 struct {
	RaceNo      int                    `json:"race_no"`
	Events      int                    `json:"events"`
	Fingerprint string                 `json:"fingerprint"`
	HeldOn      *time.Time             `json:"held_on,omitempty"`
	Cause       string                 `json:"cause"`
	Standings   seasondomain.Standings `json:"standings"`
}
