package seasonservice

import (
	"time"

	seasondomain "github.com/Black-And-White-Club/pitwall/app/modules/season/domain"
	"github.com/google/uuid"
)

// RecordRaceRequest is a race submission. HeldOn is optional free text such as
// "last sunday" or "2026-03-15".
type RecordRaceRequest struct {
	Kind   seasondomain.EventKind
	Tokens map[string]string
	HeldOn string
}

// Snapshot is the season state after an operation.
type Snapshot struct {
	RaceNo      int                    `json:"race_no"`
	Events      int                    `json:"events"`
	Fingerprint string                 `json:"fingerprint"`
	HeldOn      *time.Time             `json:"held_on,omitempty"`
	Standings   seasondomain.Standings `json:"standings"`
	// Last is the event recorded by the operation, if it recorded one.
	Last *seasondomain.Event `json:"-"`
}

// SaveCodeView is the encoded current save code.
type SaveCodeView struct {
	RaceNo      int
	Fingerprint string
	Code        []byte
}

// ArchiveSummary describes one archived save code.
type ArchiveSummary struct {
	ID           uuid.UUID  `json:"id"`
	Fingerprint  string     `json:"fingerprint"`
	Roster       string     `json:"roster"`
	RulesVersion string     `json:"rules_version"`
	RaceNo       int        `json:"race_no"`
	Label        string     `json:"label,omitempty"`
	HeldOn       *time.Time `json:"held_on,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
