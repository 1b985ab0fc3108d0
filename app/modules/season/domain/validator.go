package seasondomain

import (
	"slices"
	"strconv"
	"strings"
)

// ValidateSubmission turns raw per-competitor tokens into a RaceResult. The
// submission is accepted only if every roster competitor has a well-formed
// token, numeric ranks are in [1, N] and pairwise distinct, and no unknown
// names are present. Any failure rejects the whole submission.
func ValidateSubmission(roster *Roster, kind EventKind, tokens map[string]string) (RaceResult, error) {
	var violations []*EntryError

	names := roster.Names()
	entries := make([]Entry, len(names))
	holders := make(map[int][]int, len(names))
	perIndex := make([]*EntryError, len(names))

	for i, name := range names {
		raw, ok := tokens[name]
		finish, kindErr := parseToken(raw, roster.Size())
		if !ok {
			kindErr = ErrMissingEntry
		}
		if kindErr != nil {
			perIndex[i] = &EntryError{Competitor: name, Token: strings.TrimSpace(raw), Kind: kindErr}
			continue
		}
		entries[i] = Entry{Competitor: name, Finish: finish}
		if !finish.IsDNF() {
			holders[finish.Rank] = append(holders[finish.Rank], i)
		}
	}

	for rank, idx := range holders {
		if len(idx) < 2 {
			continue
		}
		for _, i := range idx {
			perIndex[i] = &EntryError{Competitor: names[i], Token: strconv.Itoa(rank), Kind: ErrDuplicateRank}
		}
	}

	for _, v := range perIndex {
		if v != nil {
			violations = append(violations, v)
		}
	}

	var unknown []string
	for name := range tokens {
		if !roster.Has(name) {
			unknown = append(unknown, name)
		}
	}
	slices.Sort(unknown)
	for _, name := range unknown {
		violations = append(violations, &EntryError{Competitor: name, Token: strings.TrimSpace(tokens[name]), Kind: ErrUnknownCompetitor})
	}

	if len(violations) > 0 {
		return RaceResult{}, &ValidationError{Violations: violations}
	}
	return RaceResult{Kind: kind, Entries: entries}, nil
}

// ValidateFinishes applies the submission rules to already-typed finishes.
func ValidateFinishes(roster *Roster, kind EventKind, finishes map[string]Finish) (RaceResult, error) {
	tokens := make(map[string]string, len(finishes))
	for name, f := range finishes {
		tokens[name] = f.String()
	}
	return ValidateSubmission(roster, kind, tokens)
}

func parseToken(raw string, gridSize int) (Finish, error) {
	token := strings.TrimSpace(raw)
	if token == "" {
		return Finish{}, ErrMissingEntry
	}
	if strings.EqualFold(token, DNFMarker) {
		return DNF(), nil
	}
	n, err := strconv.Atoi(token)
	if err != nil {
		return Finish{}, ErrMalformedToken
	}
	if n < 1 || n > gridSize {
		return Finish{}, ErrOutOfRange
	}
	return Ranked(n), nil
}
