package seasondomain

import (
	"slices"
	"strconv"
	"testing"

	"github.com/shopspring/decimal"
)

// raceTokens places lead first in the given order, then the rest of the roster
// in roster order, then the retirements.
func raceTokens(r *Roster, lead []string, dnf ...string) map[string]string {
	tokens := make(map[string]string, r.Size())
	rank := 0
	for _, n := range lead {
		rank++
		tokens[n] = strconv.Itoa(rank)
	}
	for _, n := range r.Names() {
		if slices.Contains(lead, n) || slices.Contains(dnf, n) {
			continue
		}
		rank++
		tokens[n] = strconv.Itoa(rank)
	}
	for _, n := range dnf {
		tokens[n] = DNFMarker
	}
	return tokens
}

func newTestLedger(t *testing.T, rules RuleSet) *Ledger {
	t.Helper()
	l, err := NewLedger(StandardRoster(), rules)
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}
	return l
}

func mustRecord(t *testing.T, l *Ledger, kind EventKind, tokens map[string]string) Event {
	t.Helper()
	ev, err := l.Record(kind, tokens)
	if err != nil {
		t.Fatalf("Record(%s): %v", kind, err)
	}
	return ev
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
