/*
Package simulation recomputes a product's live nutritional stats from its
baseline plus a set of toggled modifiers. The engine is pure: the result
depends only on the simulation and the active set, never on toggle order.
*/
package simulation

import "sort"

// ComputeCurrentStats derives the live stats for the given active modifier set.
//
// Modifiers are walked in their declared order so any permutation of the same
// active set yields an identical result. IDs in the active set that match no
// modifier are silently ignored; a UI holding stale ids after a re-analysis
// must not crash. The final score is clamped to [0, 100].
func ComputeCurrentStats(sim *Simulation, active map[string]bool) CurrentStats {
	stats := CurrentStats{}
	if sim == nil {
		return stats
	}

	stats.Score = sim.BaseStats.Score
	stats.Calories = sim.BaseStats.Calories
	stats.SodiumMg = sim.BaseStats.SodiumMg
	stats.ProteinG = sim.BaseStats.ProteinG
	stats.CarbsG = sim.BaseStats.CarbsG
	stats.FatG = sim.BaseStats.FatG
	stats.MagnesiumMg = sim.BaseStats.MagnesiumMg
	stats.PotassiumMg = sim.BaseStats.PotassiumMg

	// Union, not list: overlapping modifiers cannot double-remove an ingredient.
	removed := make(map[string]bool)

	for _, mod := range sim.Modifiers {
		if !active[mod.ID] {
			continue
		}
		stats.Calories += mod.Impact.Calories
		stats.SodiumMg += mod.Impact.SodiumMg
		stats.ProteinG += mod.Impact.ProteinG
		stats.CarbsG += mod.Impact.CarbsG
		stats.FatG += mod.Impact.FatG
		stats.Score += mod.Impact.ScoreDelta

		for _, ing := range mod.Impact.RemoveIngredients {
			removed[ing] = true
		}
	}

	if len(removed) > 0 {
		stats.RemovedIngredients = make([]string, 0, len(removed))
		for ing := range removed {
			stats.RemovedIngredients = append(stats.RemovedIngredients, ing)
		}
		sort.Strings(stats.RemovedIngredients)
	}

	stats.Score = clampScore(stats.Score)
	return stats
}

// Toggle returns a new active set with the membership of id flipped.
// No other modifier's membership changes; the input set is not mutated.
func Toggle(active map[string]bool, id string) map[string]bool {
	next := make(map[string]bool, len(active)+1)
	for k, v := range active {
		if v {
			next[k] = true
		}
	}
	if next[id] {
		delete(next, id)
	} else {
		next[id] = true
	}
	return next
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
