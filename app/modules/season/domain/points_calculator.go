package seasondomain

// PenaltyState is the slice of a competitor's season state the feature scorer
// depends on.
type PenaltyState struct {
	DNFs        int
	PenaltyNext bool
}

// PointsOutcome is the effect of one event on points and counters. The ledger
// applies it; scoring itself never mutates state.
type PointsOutcome struct {
	Awards map[string]int
	// Podiums maps a competitor to their classified position when it is 1..3.
	Podiums map[string]int
	DNFs    []string
	// Armed competitors reached a DNF multiple and carry a penalty into the
	// next scoring finish.
	Armed []string
	// Forfeited competitors finished in the points but lost the award to a
	// pending penalty.
	Forfeited []string
}

func newOutcome(n int) PointsOutcome {
	return PointsOutcome{
		Awards:  make(map[string]int, n),
		Podiums: make(map[string]int, 3),
	}
}

// scaleAt returns the award at 1-based classified position, or 0 past the end
// of the scale.
func scaleAt(scale []int, position int) int {
	if position < 1 || position > len(scale) {
		return 0
	}
	return scale[position-1]
}

// ScoreFeature scores a feature race. Awards are indexed by classified position
// so a forfeited award is never shifted onto the next finisher.
func ScoreFeature(rules RuleSet, result RaceResult, prior map[string]PenaltyState) PointsOutcome {
	out := newOutcome(len(result.Entries))
	positions := result.ClassifiedPositions()

	for _, e := range result.Entries {
		name := e.Competitor
		state := prior[name]

		if e.Finish.IsDNF() {
			out.Awards[name] = 0
			out.DNFs = append(out.DNFs, name)
			dnfs := state.DNFs + 1
			if rules.PenaltyInterval > 0 && dnfs%rules.PenaltyInterval == 0 {
				out.Armed = append(out.Armed, name)
			}
			continue
		}

		pos := positions[name]
		if pos <= 3 {
			out.Podiums[name] = pos
		}

		award := scaleAt(rules.FeatureScale, pos)
		if award > 0 && state.PenaltyNext {
			out.Forfeited = append(out.Forfeited, name)
			award = 0
		}
		out.Awards[name] = award
	}
	return out
}

// ScoreSprint scores a sprint. standingsOrder is the competitor order of the
// standings taken immediately before the sprint; only the bonus-only mode
// reads it.
func ScoreSprint(rules RuleSet, result RaceResult, standingsOrder []string) map[string]int {
	awards := make(map[string]int, len(result.Entries))
	for _, e := range result.Entries {
		awards[e.Competitor] = 0
	}
	classified := result.Classified()

	switch rules.SprintMode {
	case SprintFlatScale:
		for i, e := range classified {
			awards[e.Competitor] += scaleAt(rules.SprintFieldScale, i+1)
		}

	default:
		for i, e := range classified {
			awards[e.Competitor] += scaleAt(rules.SprintPodiumScale, i+1)
		}

		top := make(map[string]bool, rules.SprintExclusionTop)
		for i, name := range standingsOrder {
			if i >= rules.SprintExclusionTop {
				break
			}
			top[name] = true
		}
		fieldPos := 0
		for _, e := range classified {
			if top[e.Competitor] {
				continue
			}
			fieldPos++
			awards[e.Competitor] += scaleAt(rules.SprintFieldScale, fieldPos)
		}
	}
	return awards
}
