package seasonservice

import (
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// HeldOnParser turns free-text race dates ("2026-03-15", "last sunday",
// "yesterday") into a calendar day.
type HeldOnParser struct {
	w *when.Parser
}

// NewHeldOnParser creates a parser with the English and numeric rule sets.
func NewHeldOnParser() *HeldOnParser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &HeldOnParser{w: w}
}

// Parse resolves input relative to now. Blank input yields nil. The result is
// midnight UTC of the resolved day.
func (p *HeldOnParser) Parse(input string, now time.Time) (*time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}

	if t, err := time.Parse(time.DateOnly, input); err == nil {
		day := t.UTC()
		return &day, nil
	}

	r, err := p.w.Parse(strings.ToLower(input), now)
	if err != nil {
		return nil, fmt.Errorf("parse race date %q: %w", input, err)
	}
	if r == nil {
		return nil, fmt.Errorf("could not recognize race date %q", input)
	}
	y, m, d := r.Time.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &day, nil
}
