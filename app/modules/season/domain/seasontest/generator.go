// Package seasontest generates random but valid race submissions for tests.
package seasontest

import (
	"strconv"
	"time"

	seasondomain "github.com/Black-And-White-Club/pitwall/app/modules/season/domain"
	"github.com/brianvoe/gofakeit/v7"
)

// Submission is one generated race entry: the raw tokens a user would type.
type Submission struct {
	Kind   seasondomain.EventKind
	Tokens map[string]string
}

// SeasonOptions shapes a generated season.
type SeasonOptions struct {
	Features int
	// SprintChance is the percentage chance of a sprint before each feature.
	SprintChance int
	// DNFChance is the percentage chance of each competitor retiring.
	DNFChance int
}

// TestDataGenerator provides methods to create test data for season tests
type TestDataGenerator struct {
	faker *gofakeit.Faker
	seed  int64
}

// NewTestDataGenerator creates a new test data generator with optional seed
func NewTestDataGenerator(seed ...int64) *TestDataGenerator {
	var s int64
	if len(seed) > 0 {
		s = seed[0]
	} else {
		s = time.Now().UnixNano()
	}

	return &TestDataGenerator{
		faker: gofakeit.New(uint64(s)),
		seed:  s,
	}
}

// Seed returns the seed so a failing run can be reproduced.
func (g *TestDataGenerator) Seed() int64 { return g.seed }

// GenerateResult produces a valid token set for one race: a shuffled finishing
// order with some competitors retiring.
func (g *TestDataGenerator) GenerateResult(roster *seasondomain.Roster, kind seasondomain.EventKind, dnfChance int) Submission {
	names := roster.Names()
	order := make([]int, len(names))
	for i := range order {
		order[i] = i
	}
	g.faker.ShuffleInts(order)

	tokens := make(map[string]string, len(names))
	rank := 0
	for _, idx := range order {
		if g.faker.Number(1, 100) <= dnfChance {
			tokens[names[idx]] = g.faker.RandomString([]string{"DNF", "dnf", " DNF "})
			continue
		}
		rank++
		tokens[names[idx]] = strconv.Itoa(rank)
	}
	return Submission{Kind: kind, Tokens: tokens}
}

// GenerateSeason produces an ordered list of submissions with sprints
// interleaved between feature races.
func (g *TestDataGenerator) GenerateSeason(roster *seasondomain.Roster, opts SeasonOptions) []Submission {
	var out []Submission
	for i := 0; i < opts.Features; i++ {
		if g.faker.Number(1, 100) <= opts.SprintChance {
			out = append(out, g.GenerateResult(roster, seasondomain.KindSprint, opts.DNFChance))
		}
		out = append(out, g.GenerateResult(roster, seasondomain.KindFeature, opts.DNFChance))
	}
	if g.faker.Number(1, 100) <= opts.SprintChance {
		out = append(out, g.GenerateResult(roster, seasondomain.KindSprint, opts.DNFChance))
	}
	return out
}

// GenerateSaveID returns a random archive label.
func (g *TestDataGenerator) GenerateSaveID() string {
	return g.faker.UUID()
}
