package analysis

import "encode-health/internal/simulation"

// FallbackDisclosure is the degraded-mode marker embedded in the offline
// view's summary so the user always knows the analysis is simulated.
const FallbackDisclosure = "Oops, API failed. Generating simulation based on standard biological baselines."

// FallbackView builds the hard-coded offline AnalysisView substituted when the
// upstream analysis call fails. Structurally identical to a normal dashboard
// payload, with ConfidenceScore pinned to 0 and a disclosing summary.
func FallbackView(query string) AnalysisView {
	name := query
	if name == "" {
		name = "Dark Matter Sample"
	}

	return AnalysisView{
		ProductName: name,
		HealthScore: 72,
		Summary:     FallbackDisclosure,
		AgentNote:   "System Alert: Neural Link Unstable. Using cached heuristic model.",
		Category:    "Simulation",
		Metadata: Metadata{
			Source:         "Cached Protocol",
			Portion:        "Unknown",
			CaloricDensity: "Medium",
		},
		GoalAlignment: GoalAlignment{MuscleGain: 45, WeightLoss: 55, Longevity: 65, Energy: 60},
		KeyInsights: []KeyInsight{
			{Icon: "ShieldAlert", Title: "Data Stream Interrupted", Description: "Real-time analysis failed. Showing projected molecular values.", Kind: InsightWarning},
			{Icon: "Zap", Title: "Energy Potential", Description: "Estimated moderate energy release based on category averages.", Kind: InsightBenefit},
			{Icon: "Scale", Title: "Balance Check", Description: "Macronutrient ratio appears balanced in this simulation.", Kind: InsightWarning},
		},
		Simulation: &simulation.Simulation{
			BaseStats: simulation.BaseStats{
				Score:       72,
				Calories:    250,
				SodiumMg:    400,
				ProteinG:    15,
				CarbsG:      30,
				FatG:        8,
				MagnesiumMg: 40,
				PotassiumMg: 150,
				Ingredients: []string{"Simulated Protein", "Virtual Fiber"},
			},
			Modifiers: []simulation.Modifier{
				{
					ID:     "mod1",
					Label:  "Theoretical Optimization",
					Kind:   simulation.ModifierAddition,
					Impact: simulation.Impact{ScoreDelta: 10, ProteinG: 5},
				},
			},
			Verdicts: simulation.Verdicts{Default: "Simulated", Improved: "Optimized", Optimized: "Ideal"},
		},
		ConfidenceScore: 0,
	}
}
