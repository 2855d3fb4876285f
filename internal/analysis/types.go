package analysis

import (
	"encoding/json"

	"encode-health/internal/simulation"
)

/* =================================================================================
						CANONICAL VIEW MODEL (post-normalization)
	AnalysisView is the single shape every rendering surface consumes. Every
	field has a defined default; no consumer needs to null-check. A new view
	replaces the prior one, it is never mutated in place.
=================================================================================*/

// InsightKind classifies a key insight entry.
type InsightKind string

const (
	InsightRisk    InsightKind = "risk"
	InsightBenefit InsightKind = "benefit"
	InsightWarning InsightKind = "warning"
	InsightNeutral InsightKind = "neutral"
)

// KeyInsight is one entry of the dashboard's analysis log.
type KeyInsight struct {
	Icon        string      `json:"icon"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Kind        InsightKind `json:"type"`
}

// Metadata carries provenance details for the analyzed product.
type Metadata struct {
	Source         string `json:"source"`
	Portion        string `json:"portion"`
	CaloricDensity string `json:"caloric_density"`
}

// GoalAlignment scores the product against the four tracked goals (0-100 each).
type GoalAlignment struct {
	MuscleGain float64 `json:"muscle_gain"`
	WeightLoss float64 `json:"weight_loss"`
	Longevity  float64 `json:"longevity"`
	Energy     float64 `json:"energy"`
}

// AnalysisView is the canonical, fully-defaulted analysis record.
type AnalysisView struct {
	ProductName     string                 `json:"product_name"`
	HealthScore     float64                `json:"health_score"` // clamped to [0,100]
	Summary         string                 `json:"summary"`
	AgentNote       string                 `json:"agent_note"`
	Category        string                 `json:"category"`
	Metadata        Metadata               `json:"metadata"`
	GoalAlignment   GoalAlignment          `json:"goal_alignment"`
	KeyInsights     []KeyInsight           `json:"key_insights"`
	Simulation      *simulation.Simulation `json:"simulation,omitempty"`
	ConfidenceScore float64                `json:"confidence_score"` // 0.0 - 1.0
}

/* =================================================================================
						RAW UPSTREAM SCHEMA (pre-normalization)
	The model's output has drifted across prompt revisions: some responses carry
	a components array, some only top-level blocks, and the modifier score field
	has two historical names. Each block below is optional and individually
	defaulted by Normalize, so partial presence never blocks construction.
=================================================================================*/

// RawMeta is the top-level "meta" block.
type RawMeta struct {
	ProductName    string `json:"product_name"`
	Category       string `json:"category"`
	Source         string `json:"source"`
	PortionSize    string `json:"portion_size"`
	CaloricDensity string `json:"caloric_density"`
}

// RawGoalAlignment is the top-level "goal_alignment" block.
type RawGoalAlignment struct {
	MuscleGain *float64 `json:"muscle_gain"`
	WeightLoss *float64 `json:"weight_loss"`
	Longevity  *float64 `json:"longevity"`
	Energy     *float64 `json:"energy"`
}

// RawImpact carries both historical names for the score field; score_delta is
// canonical, score_impact is the legacy alias. Normalize migrates the alias
// exactly once so no other call site needs a fallback chain.
type RawImpact struct {
	Calories          float64  `json:"calories"`
	SodiumMg          float64  `json:"sodium_mg"`
	ProteinG          float64  `json:"protein_g"`
	CarbsG            float64  `json:"carbs_g"`
	FatG              float64  `json:"fat_g"`
	ScoreDelta        *float64 `json:"score_delta"`
	ScoreImpact       *float64 `json:"score_impact"`
	RemoveIngredients []string `json:"remove_ingredients"`
}

// RawModifier is one modifier as emitted by the model.
type RawModifier struct {
	ID     string    `json:"id"`
	Label  string    `json:"label"`
	Type   string    `json:"type"`
	Impact RawImpact `json:"impact"`
}

// RawSimulation is the top-level "simulation" block.
type RawSimulation struct {
	BaseStats simulation.BaseStats  `json:"base_stats"`
	Additives *simulation.Additives `json:"additives"`
	Modifiers []RawModifier         `json:"modifiers"`
	Verdicts  simulation.Verdicts   `json:"verdicts"`
}

// RawComponent is one entry of the heterogeneous "components" array. Data is
// kept loose because each component type carries its own shape.
type RawComponent struct {
	ID   string         `json:"id"`
	Zone string         `json:"zone"`
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// FollowUpBattle is the head-to-head block of a battle follow-up.
type FollowUpBattle struct {
	ProductA map[string]any `json:"productA"`
	ProductB map[string]any `json:"productB"`
	Verdict  string         `json:"verdict"`
}

// FollowUpManufacturing is the step list of a manufacturing follow-up.
type FollowUpManufacturing struct {
	Steps []map[string]any `json:"steps"`
}

// FollowUpData declares which specialized follow-up widget (if any) the
// response carries.
type FollowUpData struct {
	Type          string                 `json:"type"`
	Battle        *FollowUpBattle        `json:"battle"`
	Manufacturing *FollowUpManufacturing `json:"manufacturing"`
}

// RawAnalysis is the union of every known upstream schema variant.
type RawAnalysis struct {
	Meta          *RawMeta          `json:"meta"`
	GoalAlignment *RawGoalAlignment `json:"goal_alignment"`
	FollowUpData  *FollowUpData     `json:"follow_up_data"`
	Simulation    *RawSimulation    `json:"simulation"`
	LayoutConfig  map[string]any    `json:"layout_config"`
	Components    []RawComponent    `json:"components"`
	AgentNote     string            `json:"agent_note"`
}

// BattleJSON returns the battle block as raw JSON for turn payload storage.
func (f *FollowUpBattle) BattleJSON() json.RawMessage {
	b, err := json.Marshal(f)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return b
}

// StepsJSON returns the manufacturing block as raw JSON for turn payload storage.
func (f *FollowUpManufacturing) StepsJSON() json.RawMessage {
	b, err := json.Marshal(f)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return b
}
