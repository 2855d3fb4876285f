/*
Package analysis reconciles the model's drifting JSON shapes into one canonical
AnalysisView. It is the boundary that converts "maybe missing field" into
"always present, semantically defaulted field": malformed or partial upstream
JSON never becomes a crash downstream of this package.
*/
package analysis

import (
	"encoding/json"
	"strconv"
	"strings"

	"encode-health/internal/simulation"
)

// Documented defaults applied when the upstream block is absent or mistyped.
const (
	defaultProductName    = "Unknown Product"
	defaultSummary        = "Analysis complete."
	defaultAgentNote      = "Clinical constraints integrated."
	defaultCategory       = "General"
	defaultSource         = "Analyzed Source"
	defaultPortion        = "Standard Serving"
	defaultDensity        = "Medium"
	defaultGoalScore      = 50
	defaultConfidence     = 0.95
	defaultTextExtraction = "I've analyzed that for you. Please check the dashboard."
)

// StripCodeFence removes a surrounding markdown code fence of the literal form
// ```json ... ``` that some model revisions wrap their output in.
func StripCodeFence(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// Decode parses a raw model response body into the loose upstream schema.
// A body that fails to parse even after fence stripping is a MalformedResponse
// and is reported as an error; everything downstream of a successful Decode is
// total.
func Decode(body []byte) (RawAnalysis, error) {
	var raw RawAnalysis
	cleaned := StripCodeFence(string(body))
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return RawAnalysis{}, err
	}
	return raw, nil
}

// Normalize maps a raw upstream response onto the canonical AnalysisView.
// Every lookup is independent and individually defaulted, so partial presence
// of the upstream schema never prevents constructing a complete view.
func Normalize(raw RawAnalysis) AnalysisView {
	hero := findComponent(raw.Components, "hero", "score_ring")
	summary := findComponent(raw.Components, "summary", "text_block")
	risks := findComponent(raw.Components, "risks", "red_flag_list")

	view := AnalysisView{
		ProductName:     defaultProductName,
		Summary:         defaultSummary,
		AgentNote:       defaultAgentNote,
		Category:        defaultCategory,
		Metadata:        Metadata{Source: defaultSource, Portion: defaultPortion, CaloricDensity: defaultDensity},
		GoalAlignment:   GoalAlignment{MuscleGain: defaultGoalScore, WeightLoss: defaultGoalScore, Longevity: defaultGoalScore, Energy: defaultGoalScore},
		KeyInsights:     []KeyInsight{},
		ConfidenceScore: defaultConfidence,
	}

	if raw.Meta != nil {
		if raw.Meta.ProductName != "" {
			view.ProductName = raw.Meta.ProductName
		}
		if raw.Meta.Category != "" {
			view.Category = raw.Meta.Category
		}
		if raw.Meta.Source != "" {
			view.Metadata.Source = raw.Meta.Source
		}
		if raw.Meta.PortionSize != "" {
			view.Metadata.Portion = raw.Meta.PortionSize
		}
		if raw.Meta.CaloricDensity != "" {
			view.Metadata.CaloricDensity = raw.Meta.CaloricDensity
		}
	}

	if raw.AgentNote != "" {
		view.AgentNote = raw.AgentNote
	}

	if raw.GoalAlignment != nil {
		view.GoalAlignment = GoalAlignment{
			MuscleGain: goalOrDefault(raw.GoalAlignment.MuscleGain),
			WeightLoss: goalOrDefault(raw.GoalAlignment.WeightLoss),
			Longevity:  goalOrDefault(raw.GoalAlignment.Longevity),
			Energy:     goalOrDefault(raw.GoalAlignment.Energy),
		}
	}

	if summary != nil {
		if headline, ok := summary.Data["headline"].(string); ok && headline != "" {
			view.Summary = headline
		}
	}

	view.Simulation = normalizeSimulation(raw.Simulation)
	view.KeyInsights = mapRiskFlags(risks)
	view.HealthScore = clamp(resolveHealthScore(view.Simulation, hero), 0, 100)

	return view
}

// SummaryText extracts the text-turn content from a raw response: summary
// headline first, then the first risk flag description, then a fixed fallback.
func SummaryText(raw RawAnalysis) string {
	if summary := findComponent(raw.Components, "summary", "text_block"); summary != nil {
		if headline, ok := summary.Data["headline"].(string); ok && headline != "" {
			return headline
		}
	}
	if risks := findComponent(raw.Components, "risks", "red_flag_list"); risks != nil {
		if flags := mapRiskFlags(risks); len(flags) > 0 && flags[0].Description != "" {
			return flags[0].Description
		}
	}
	return defaultTextExtraction
}

/* =================================================================================
									HELPERS
=================================================================================*/

// findComponent returns the first component matching either the id or the type,
// mirroring the priority-ordered lookup older dashboards relied on.
func findComponent(components []RawComponent, id, typ string) *RawComponent {
	for i := range components {
		if components[i].ID == id || components[i].Type == typ {
			return &components[i]
		}
	}
	return nil
}

// mapRiskFlags converts the red-flag list into key insights. A high risk level
// maps to the ShieldAlert icon and risk kind, everything else to
// AlertTriangle/warning.
func mapRiskFlags(risks *RawComponent) []KeyInsight {
	insights := []KeyInsight{}
	if risks == nil {
		return insights
	}
	flags, ok := risks.Data["flags"].([]any)
	if !ok {
		return insights
	}
	for _, f := range flags {
		flag, ok := f.(map[string]any)
		if !ok {
			continue
		}
		name, _ := flag["name"].(string)
		desc, _ := flag["description"].(string)
		level, _ := flag["risk_level"].(string)

		insight := KeyInsight{Icon: "AlertTriangle", Title: name, Description: desc, Kind: InsightWarning}
		if level == "high" {
			insight.Icon = "ShieldAlert"
			insight.Kind = InsightRisk
		}
		insights = append(insights, insight)
	}
	return insights
}

// normalizeSimulation converts the raw simulation block to the canonical form,
// migrating the legacy score_impact alias onto ScoreDelta.
func normalizeSimulation(raw *RawSimulation) *simulation.Simulation {
	if raw == nil {
		return nil
	}

	sim := &simulation.Simulation{
		BaseStats: raw.BaseStats,
		Additives: raw.Additives,
		Verdicts:  raw.Verdicts,
		Modifiers: make([]simulation.Modifier, 0, len(raw.Modifiers)),
	}
	if sim.BaseStats.Ingredients == nil {
		sim.BaseStats.Ingredients = []string{}
	}

	for _, m := range raw.Modifiers {
		mod := simulation.Modifier{
			ID:    m.ID,
			Label: m.Label,
			Kind:  simulation.ModifierKind(m.Type),
			Impact: simulation.Impact{
				Calories:          m.Impact.Calories,
				SodiumMg:          m.Impact.SodiumMg,
				ProteinG:          m.Impact.ProteinG,
				CarbsG:            m.Impact.CarbsG,
				FatG:              m.Impact.FatG,
				RemoveIngredients: m.Impact.RemoveIngredients,
			},
		}
		switch {
		case m.Impact.ScoreDelta != nil:
			mod.Impact.ScoreDelta = *m.Impact.ScoreDelta
		case m.Impact.ScoreImpact != nil:
			mod.Impact.ScoreDelta = *m.Impact.ScoreImpact
		}
		sim.Modifiers = append(sim.Modifiers, mod)
	}
	return sim
}

// resolveHealthScore applies the documented precedence: positive simulation
// base score, then the hero component's grade, then 0. Letter grades from
// older prompt revisions map to tier midpoints.
func resolveHealthScore(sim *simulation.Simulation, hero *RawComponent) float64 {
	if sim != nil && sim.BaseStats.Score > 0 {
		return sim.BaseStats.Score
	}
	if hero == nil {
		return 0
	}
	switch grade := hero.Data["grade"].(type) {
	case float64:
		return grade
	case string:
		if v, err := strconv.ParseFloat(strings.TrimSpace(grade), 64); err == nil {
			return v
		}
		return letterGradeScore(grade)
	}
	return 0
}

func letterGradeScore(grade string) float64 {
	switch strings.ToUpper(strings.TrimSpace(grade)) {
	case "A":
		return 90
	case "B":
		return 75
	case "C":
		return 60
	case "D":
		return 45
	case "F":
		return 20
	}
	return 0
}

func goalOrDefault(v *float64) float64 {
	if v == nil {
		return defaultGoalScore
	}
	return clamp(*v, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
