package seasondomain

import (
	"errors"
	"fmt"
	"strings"
)

// Validation failure kinds. An EntryError wraps exactly one of these, so callers
// can match a rejected submission with errors.Is.
var (
	// ErrMalformedToken indicates a token is neither the DNF marker nor an integer.
	ErrMalformedToken = errors.New("malformed token")

	// ErrOutOfRange indicates an integer rank outside [1, N].
	ErrOutOfRange = errors.New("rank out of range")

	// ErrDuplicateRank indicates two competitors claim the same numeric rank.
	ErrDuplicateRank = errors.New("duplicate rank")

	// ErrMissingEntry indicates a roster competitor has a blank or absent token.
	ErrMissingEntry = errors.New("missing entry")

	// ErrUnknownCompetitor indicates a token was submitted for a name not on the roster.
	ErrUnknownCompetitor = errors.New("unknown competitor")
)

// ErrCorruptLedger is matched by every replay failure caused by a structurally
// invalid save code.
var ErrCorruptLedger = errors.New("corrupt ledger")

var (
	// ErrNoEvents is returned when undoing an empty season.
	ErrNoEvents = errors.New("season has no events")

	// ErrEventNotFound is returned when correcting a feature race that was never run.
	ErrEventNotFound = errors.New("event not found")
)

// EntryError identifies one competitor's rejected token.
type EntryError struct {
	Competitor string
	Token      string
	Kind       error
}

func (e *EntryError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("%s: %v", e.Competitor, e.Kind)
	}
	return fmt.Sprintf("%s: %v (%q)", e.Competitor, e.Kind, e.Token)
}

func (e *EntryError) Unwrap() error { return e.Kind }

// ValidationError rejects a whole submission. Violations are ordered by roster
// position, followed by unknown names in lexical order.
type ValidationError struct {
	Violations []*EntryError
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 1 {
		return "invalid race result: " + e.Violations[0].Error()
	}
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.Error()
	}
	return fmt.Sprintf("invalid race result (%d problems): %s", len(e.Violations), strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() []error {
	errs := make([]error, len(e.Violations))
	for i, v := range e.Violations {
		errs[i] = v
	}
	return errs
}

// ByKind returns the violations matching kind.
func (e *ValidationError) ByKind(kind error) []*EntryError {
	var out []*EntryError
	for _, v := range e.Violations {
		if errors.Is(v.Kind, kind) {
			out = append(out, v)
		}
	}
	return out
}

// CorruptLedgerError reports why a save code could not be replayed.
type CorruptLedgerError struct {
	Reason string
	Err    error
}

func (e *CorruptLedgerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("corrupt ledger: %s: %v", e.Reason, e.Err)
	}
	return "corrupt ledger: " + e.Reason
}

func (e *CorruptLedgerError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrCorruptLedger, e.Err}
	}
	return []error{ErrCorruptLedger}
}

func corrupt(err error, format string, args ...any) *CorruptLedgerError {
	return &CorruptLedgerError{Reason: fmt.Sprintf(format, args...), Err: err}
}
