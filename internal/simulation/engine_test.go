package simulation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSimulation() *Simulation {
	return &Simulation{
		BaseStats: BaseStats{
			Score:       30,
			Calories:    450,
			SodiumMg:    1800,
			ProteinG:    9,
			CarbsG:      54,
			FatG:        18,
			Ingredients: []string{"Wheat Flour", "Palm Oil", "Seasoning Packet"},
		},
		Modifiers: []Modifier{
			{
				ID:    "drain_noodles",
				Label: "Drain Noodles",
				Kind:  ModifierSubtraction,
				Impact: Impact{
					SodiumMg:   -800,
					FatG:       -6,
					ScoreDelta: 15,
				},
			},
			{
				ID:    "add_spinach",
				Label: "Add Spinach",
				Kind:  ModifierAddition,
				Impact: Impact{
					Calories:   20,
					ProteinG:   2,
					ScoreDelta: 10,
				},
			},
			{
				ID:    "skip_seasoning",
				Label: "Skip Seasoning Packet",
				Kind:  ModifierSubtraction,
				Impact: Impact{
					SodiumMg:          -900,
					ScoreDelta:        20,
					RemoveIngredients: []string{"Seasoning Packet"},
				},
			},
		},
		Verdicts: Verdicts{Default: "Bad", Improved: "Okay", Optimized: "Great"},
	}
}

func TestComputeCurrentStats_EmptySetIsBaseline(t *testing.T) {
	sim := testSimulation()
	stats := ComputeCurrentStats(sim, map[string]bool{})

	assert.Equal(t, sim.BaseStats.Score, stats.Score)
	assert.Equal(t, sim.BaseStats.SodiumMg, stats.SodiumMg)
	assert.Equal(t, sim.BaseStats.ProteinG, stats.ProteinG)
	assert.Empty(t, stats.RemovedIngredients)
}

func TestComputeCurrentStats_SumsActiveImpacts(t *testing.T) {
	sim := testSimulation()
	stats := ComputeCurrentStats(sim, map[string]bool{"drain_noodles": true, "add_spinach": true})

	assert.Equal(t, float64(55), stats.Score)
	assert.Equal(t, float64(1000), stats.SodiumMg)
	assert.Equal(t, float64(470), stats.Calories)
	assert.Equal(t, float64(11), stats.ProteinG)
	assert.Equal(t, float64(12), stats.FatG)
}

func TestComputeCurrentStats_OrderIndependent(t *testing.T) {
	sim := testSimulation()

	// Build the same active set through different toggle histories.
	a := Toggle(Toggle(map[string]bool{}, "drain_noodles"), "skip_seasoning")
	b := Toggle(Toggle(map[string]bool{}, "skip_seasoning"), "drain_noodles")

	require.Equal(t, ComputeCurrentStats(sim, a), ComputeCurrentStats(sim, b))
}

func TestComputeCurrentStats_Idempotent(t *testing.T) {
	sim := testSimulation()
	active := map[string]bool{"drain_noodles": true, "skip_seasoning": true}

	first := ComputeCurrentStats(sim, active)
	second := ComputeCurrentStats(sim, active)
	assert.Equal(t, first, second)
}

func TestComputeCurrentStats_ToggleOnOffRestoresBaseline(t *testing.T) {
	sim := testSimulation()

	base := ComputeCurrentStats(sim, map[string]bool{})
	active := Toggle(map[string]bool{}, "add_spinach")
	restored := ComputeCurrentStats(sim, Toggle(active, "add_spinach"))

	assert.Equal(t, base, restored)
}

func TestComputeCurrentStats_UnknownIDsIgnored(t *testing.T) {
	sim := testSimulation()

	withUnknown := ComputeCurrentStats(sim, map[string]bool{"drain_noodles": true, "ghost_modifier": true})
	without := ComputeCurrentStats(sim, map[string]bool{"drain_noodles": true})
	assert.Equal(t, without, withUnknown)
}

func TestComputeCurrentStats_ScoreClamped(t *testing.T) {
	sim := testSimulation()
	sim.Modifiers[0].Impact.ScoreDelta = 500
	stats := ComputeCurrentStats(sim, map[string]bool{"drain_noodles": true})
	assert.Equal(t, float64(100), stats.Score)

	sim.Modifiers[0].Impact.ScoreDelta = -500
	stats = ComputeCurrentStats(sim, map[string]bool{"drain_noodles": true})
	assert.Equal(t, float64(0), stats.Score)
}

func TestComputeCurrentStats_RemovedIngredientsUnion(t *testing.T) {
	sim := testSimulation()
	sim.Modifiers[1].Impact.RemoveIngredients = []string{"Seasoning Packet", "Palm Oil"}

	stats := ComputeCurrentStats(sim, map[string]bool{"add_spinach": true, "skip_seasoning": true})
	assert.Equal(t, []string{"Palm Oil", "Seasoning Packet"}, stats.RemovedIngredients)
}

func TestComputeCurrentStats_NilSimulation(t *testing.T) {
	assert.Equal(t, CurrentStats{}, ComputeCurrentStats(nil, map[string]bool{"x": true}))
}

func TestToggle_FlipsOnlyTarget(t *testing.T) {
	active := map[string]bool{"a": true}

	next := Toggle(active, "b")
	assert.True(t, next["a"])
	assert.True(t, next["b"])

	next = Toggle(next, "a")
	assert.False(t, next["a"])
	assert.True(t, next["b"])

	// Input set untouched.
	assert.True(t, active["a"])
	assert.False(t, active["b"])
}
