package seasondomain

import "github.com/shopspring/decimal"

// RateFeature computes each competitor's rating delta for a feature race: the
// tier-curve delta plus the teammate head-to-head adjustment. Clamping is
// applied by the ledger to the cumulative value.
func RateFeature(roster *Roster, rules RuleSet, result RaceResult) map[string]decimal.Decimal {
	positions := result.ClassifiedPositions()
	sentinel := roster.DNFSentinel()

	effective := make(map[string]int, len(result.Entries))
	deltas := make(map[string]decimal.Decimal, len(result.Entries))
	for _, e := range result.Entries {
		team, _ := roster.TeamOf(e.Competitor)
		if e.Finish.IsDNF() {
			effective[e.Competitor] = sentinel
			deltas[e.Competitor] = rules.DNFDelta
			continue
		}
		pos := positions[e.Competitor]
		effective[e.Competitor] = pos
		deltas[e.Competitor] = rules.Curve.Delta(team.Tier, pos)
	}

	for _, team := range roster.Teams() {
		pair, _ := roster.Members(team.Name)
		a, aok := effective[pair[0]]
		b, bok := effective[pair[1]]
		if !aok || !bok || a == b {
			continue
		}
		winner, loser := pair[0], pair[1]
		if b < a {
			winner, loser = loser, winner
		}
		gain, loss := headToHead(rules, a, b)
		deltas[winner] = deltas[winner].Add(gain)
		deltas[loser] = deltas[loser].Sub(loss)
	}
	return deltas
}

// headToHead returns the winner's gain and the loser's loss for two effective
// positions. One step is earned per full gap divisor; the asymmetric policy
// charges the loser one extra step.
func headToHead(rules RuleSet, a, b int) (gain, loss decimal.Decimal) {
	gap := a - b
	if gap < 0 {
		gap = -gap
	}
	if gap == 0 {
		return decimal.Zero, decimal.Zero
	}
	steps := int64(gap / rules.HeadToHeadGapDivisor)
	gain = rules.HeadToHeadStep.Mul(decimal.NewFromInt(steps))
	if rules.HeadToHead == HeadToHeadAsymmetric {
		steps++
	}
	loss = rules.HeadToHeadStep.Mul(decimal.NewFromInt(steps))
	return gain, loss
}

// applyRating adds delta to current and clamps the result when the rules
// bound the rating.
func applyRating(rules RuleSet, current, delta decimal.Decimal) decimal.Decimal {
	next := current.Add(delta)
	if rules.Clamp != nil {
		next = rules.Clamp.Apply(next)
	}
	return next
}
