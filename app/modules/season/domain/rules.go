package seasondomain

import (
	"errors"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
)

// SprintMode selects the sprint scoring formula.
type SprintMode string

const (
	// SprintBonusOnly awards a podium bonus plus a field bonus for competitors
	// outside the standings top group.
	SprintBonusOnly SprintMode = "bonus_only"
	// SprintFlatScale awards a flat scale to the leading finishers.
	SprintFlatScale SprintMode = "flat_scale"
)

// HeadToHeadPolicy selects how the teammate comparison penalises the loser.
type HeadToHeadPolicy string

const (
	// HeadToHeadAsymmetric charges the loser one extra step.
	HeadToHeadAsymmetric HeadToHeadPolicy = "asymmetric"
	// HeadToHeadSymmetric moves both teammates by the same amount.
	HeadToHeadSymmetric HeadToHeadPolicy = "symmetric"
)

// ParseSprintMode validates a configured sprint mode.
func ParseSprintMode(s string) (SprintMode, error) {
	switch SprintMode(s) {
	case "", SprintBonusOnly:
		return SprintBonusOnly, nil
	case SprintFlatScale:
		return SprintFlatScale, nil
	}
	return "", fmt.Errorf("unknown sprint mode %q", s)
}

// ParseHeadToHeadPolicy validates a configured head-to-head policy.
func ParseHeadToHeadPolicy(s string) (HeadToHeadPolicy, error) {
	switch HeadToHeadPolicy(s) {
	case "", HeadToHeadAsymmetric:
		return HeadToHeadAsymmetric, nil
	case HeadToHeadSymmetric:
		return HeadToHeadSymmetric, nil
	}
	return "", fmt.Errorf("unknown head-to-head policy %q", s)
}

// RatingBand covers finishing positions up to and including UpTo.
type RatingBand struct {
	UpTo  int
	Delta decimal.Decimal
}

// RatingCurve maps a car tier to its bands, ordered by UpTo. Positions past the
// last band use the last band's delta.
type RatingCurve map[int][]RatingBand

// Delta returns the curve delta for a classified position.
func (c RatingCurve) Delta(tier, position int) decimal.Decimal {
	bands := c[tier]
	if len(bands) == 0 {
		return decimal.Zero
	}
	for _, b := range bands {
		if position <= b.UpTo {
			return b.Delta
		}
	}
	return bands[len(bands)-1].Delta
}

// Validate checks that deltas never increase with position inside a tier and
// that a weaker car earns at least as much as a stronger one for a win.
func (c RatingCurve) Validate() error {
	tiers := make([]int, 0, len(c))
	for tier, bands := range c {
		if len(bands) == 0 {
			return fmt.Errorf("rating curve tier %d has no bands", tier)
		}
		for i := 1; i < len(bands); i++ {
			if bands[i].UpTo <= bands[i-1].UpTo {
				return fmt.Errorf("rating curve tier %d: band %d does not extend past position %d", tier, i, bands[i-1].UpTo)
			}
			if bands[i].Delta.GreaterThan(bands[i-1].Delta) {
				return fmt.Errorf("rating curve tier %d: delta increases at position %d", tier, bands[i-1].UpTo+1)
			}
		}
		tiers = append(tiers, tier)
	}
	slices.Sort(tiers)
	for i := 1; i < len(tiers); i++ {
		lower, higher := tiers[i-1], tiers[i]
		if c.Delta(lower, 1).LessThan(c.Delta(higher, 1)) {
			return fmt.Errorf("rating curve: tier %d rewards a win less than tier %d", lower, higher)
		}
	}
	return nil
}

// Clamp bounds a competitor's rating after every feature race.
type Clamp struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// Apply limits v to [Min, Max].
func (c Clamp) Apply(v decimal.Decimal) decimal.Decimal {
	if v.LessThan(c.Min) {
		return c.Min
	}
	if v.GreaterThan(c.Max) {
		return c.Max
	}
	return v
}

// ClassicClamp is the bounded rating range used by the three-tier scheme.
func ClassicClamp() *Clamp {
	return &Clamp{Min: decimal.RequireFromString("6.5"), Max: decimal.RequireFromString("10.4")}
}

// RuleSet is the versioned scoring configuration for a season. Every rule
// variant is a named choice here rather than a code branch elsewhere.
type RuleSet struct {
	Version string

	FeatureScale    []int
	PenaltyInterval int

	SprintMode         SprintMode
	SprintPodiumScale  []int
	SprintFieldScale   []int
	SprintExclusionTop int

	Curve                RatingCurve
	DNFDelta             decimal.Decimal
	HeadToHead           HeadToHeadPolicy
	HeadToHeadGapDivisor int
	HeadToHeadStep       decimal.Decimal
	Clamp                *Clamp
}

func band(upTo int, delta string) RatingBand {
	return RatingBand{UpTo: upTo, Delta: decimal.RequireFromString(delta)}
}

// DefaultCurve is the three-tier (10/9/8) rating table.
func DefaultCurve() RatingCurve {
	return RatingCurve{
		10: {band(3, "0.1"), band(6, "0"), band(10, "-0.1"), band(15, "-0.2"), band(99, "-0.3")},
		9:  {band(3, "0.2"), band(6, "0.1"), band(10, "0"), band(15, "-0.1"), band(99, "-0.2")},
		8:  {band(3, "0.3"), band(6, "0.2"), band(10, "0.1"), band(15, "0"), band(99, "-0.1")},
	}
}

// DefaultRules returns the default season rules: bonus-only sprints,
// asymmetric head-to-head and an unclamped rating.
func DefaultRules() RuleSet {
	return RuleSet{
		Version:              "2025.1",
		FeatureScale:         []int{25, 18, 15, 12, 10, 8, 6, 4, 2, 1},
		PenaltyInterval:      5,
		SprintMode:           SprintBonusOnly,
		SprintPodiumScale:    []int{5, 3, 1},
		SprintFieldScale:     []int{8, 7, 6, 5, 4, 3, 2, 1},
		SprintExclusionTop:   10,
		Curve:                DefaultCurve(),
		DNFDelta:             decimal.RequireFromString("-1.0"),
		HeadToHead:           HeadToHeadAsymmetric,
		HeadToHeadGapDivisor: 3,
		HeadToHeadStep:       decimal.RequireFromString("0.1"),
	}
}

// Validate checks the rule set against the roster it will score.
func (r RuleSet) Validate(roster *Roster) error {
	var errs []error
	if len(r.FeatureScale) == 0 {
		errs = append(errs, errors.New("feature scale is empty"))
	}
	if r.PenaltyInterval < 0 {
		errs = append(errs, fmt.Errorf("penalty interval %d is negative", r.PenaltyInterval))
	}
	switch r.SprintMode {
	case SprintBonusOnly:
		if r.SprintExclusionTop < 0 {
			errs = append(errs, errors.New("sprint exclusion top is negative"))
		}
	case SprintFlatScale:
	default:
		errs = append(errs, fmt.Errorf("unknown sprint mode %q", r.SprintMode))
	}
	if len(r.SprintFieldScale) == 0 {
		errs = append(errs, errors.New("sprint field scale is empty"))
	}
	for _, scale := range [][]int{r.FeatureScale, r.SprintPodiumScale, r.SprintFieldScale} {
		for _, p := range scale {
			if p < 0 {
				errs = append(errs, fmt.Errorf("negative award %d in scale %v", p, scale))
			}
		}
	}
	switch r.HeadToHead {
	case HeadToHeadAsymmetric, HeadToHeadSymmetric:
	default:
		errs = append(errs, fmt.Errorf("unknown head-to-head policy %q", r.HeadToHead))
	}
	if r.HeadToHeadGapDivisor < 1 {
		errs = append(errs, fmt.Errorf("head-to-head gap divisor %d must be positive", r.HeadToHeadGapDivisor))
	}
	if r.HeadToHeadStep.IsNegative() {
		errs = append(errs, errors.New("head-to-head step is negative"))
	}
	if r.DNFDelta.IsPositive() {
		errs = append(errs, errors.New("DNF rating delta must not be positive"))
	}
	if r.Clamp != nil && r.Clamp.Min.GreaterThan(r.Clamp.Max) {
		errs = append(errs, fmt.Errorf("rating clamp min %s exceeds max %s", r.Clamp.Min, r.Clamp.Max))
	}
	if err := r.Curve.Validate(); err != nil {
		errs = append(errs, err)
	}
	if roster != nil {
		for _, t := range roster.Teams() {
			if len(r.Curve[t.Tier]) == 0 {
				errs = append(errs, fmt.Errorf("rating curve has no tier %d (team %s)", t.Tier, t.Name))
			}
		}
	}
	return errors.Join(errs...)
}
