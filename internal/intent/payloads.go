package intent

/* =================================================================================
					ILLUSTRATIVE WIDGET PAYLOADS
	One builder per kind. These are only used when the upstream response for a
	turn does not already supply real widget data; classification itself never
	fabricates anything, which keeps the router testable on its own.
=================================================================================*/

import "strings"

// Component is a widget payload tagged with its kind, matching the follow-up
// chat response contract: { type, data }.
type Component struct {
	Type Kind `json:"type"`
	Data any  `json:"data"`
}

// ComplianceItem is one row of a compliance checklist.
type ComplianceItem struct {
	Label  string `json:"label"`
	Status string `json:"status"` // pass | fail | warn
	Value  string `json:"value"`
	Reason string `json:"reason,omitempty"`
}

// CompliancePayload answers "is this keto/vegan/gluten-free?" style questions.
type CompliancePayload struct {
	Title  string           `json:"title"`
	Status string           `json:"status"`
	Items  []ComplianceItem `json:"items"`
}

// ComparisonRow is one metric line of a head-to-head comparison.
type ComparisonRow struct {
	Metric string `json:"metric"`
	ValA   string `json:"val_a"`
	ValB   string `json:"val_b"`
	Winner string `json:"winner"` // "a" | "b"
}

// ComparisonPayload pits the analyzed product against an alternative.
type ComparisonPayload struct {
	EntityA string          `json:"entity_a"`
	EntityB string          `json:"entity_b"`
	Rows    []ComparisonRow `json:"rows"`
}

// TimelineStep is one stage of a manufacturing process timeline.
type TimelineStep struct {
	Step string `json:"step"`
	Type string `json:"type"` // natural | processing | ultra | chemical
	Note string `json:"note,omitempty"`
}

// TimelinePayload traces how the product is made.
type TimelinePayload struct {
	Steps []TimelineStep `json:"steps"`
}

// CarouselProduct is one healthier-alternative card.
type CarouselProduct struct {
	Name   string `json:"name"`
	Badge  string `json:"badge"`
	Sodium string `json:"sodium"`
}

// CarouselPayload lists swap suggestions.
type CarouselPayload struct {
	Title    string            `json:"title"`
	Products []CarouselProduct `json:"products"`
}

// DeepDiveIngredient is one entry of an ingredient breakdown.
type DeepDiveIngredient struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // base | additive_risk | additive_safe
	Description string `json:"description"`
}

// DeepDivePayload breaks the product down ingredient by ingredient.
type DeepDivePayload struct {
	Ingredients []DeepDiveIngredient `json:"ingredients"`
}

// BuildComponent returns the illustrative payload for a classified kind.
// The utterance is only consulted for presentation hints (e.g. the checklist
// title), never to re-classify.
func BuildComponent(kind Kind, utterance string) *Component {
	q := strings.ToLower(utterance)

	switch kind {
	case KindComplianceChecklist:
		title := "Dietary Check"
		if strings.Contains(q, "keto") {
			title = "Keto Compliance"
		}
		return &Component{Type: kind, Data: CompliancePayload{
			Title:  title,
			Status: "FAIL",
			Items: []ComplianceItem{
				{Label: "Carb Limit (<20g)", Status: "fail", Value: "54g Detected", Reason: "Wheat Flour Base"},
				{Label: "Animal Derivatives", Status: "pass", Value: "0g Found"},
				{Label: "Processed Oils", Status: "warn", Value: "Palm Oil detected"},
			},
		}}

	case KindComparisonCard:
		return &Component{Type: kind, Data: ComparisonPayload{
			EntityA: "This Product",
			EntityB: "Fresh Alternative",
			Rows: []ComparisonRow{
				{Metric: "Sodium", ValA: "1800mg", ValB: "200mg", Winner: "b"},
				{Metric: "Fiber", ValA: "1g", ValB: "6g", Winner: "b"},
				{Metric: "Processing", ValA: "Ultra", ValB: "Minimal", Winner: "b"},
			},
		}}

	case KindProcessTimeline:
		return &Component{Type: kind, Data: TimelinePayload{
			Steps: []TimelineStep{
				{Step: "Harvest", Type: "natural"},
				{Step: "Refining", Type: "processing", Note: "Stripped of fiber"},
				{Step: "Flash Frying", Type: "ultra", Note: "Soaked in Palm Oil"},
				{Step: "Chemical Coat", Type: "chemical", Note: "TBHQ & MSG Added"},
			},
		}}

	case KindProductCarousel:
		return &Component{Type: kind, Data: CarouselPayload{
			Title: "Healthier Alternatives",
			Products: []CarouselProduct{
				{Name: "Millet Ramen", Badge: "Whole Grain", Sodium: "450mg"},
				{Name: "Air-Dried Noodles", Badge: "Non-Fried", Sodium: "800mg"},
				{Name: "Zucchini Noodles", Badge: "Low Carb", Sodium: "5mg"},
			},
		}}

	case KindIngredientDeepDive:
		return &Component{Type: kind, Data: DeepDivePayload{
			Ingredients: []DeepDiveIngredient{
				{Name: "Wheat Flour", Type: "base", Description: "Refined carbohydrate source"},
				{Name: "Palm Oil", Type: "base", Description: "High saturate fat source"},
				{Name: "TBHQ", Type: "additive_risk", Description: "Synthetic antioxidant linked to immune issues"},
				{Name: "MSG", Type: "additive_safe", Description: "Flavor enhancer"},
				{Name: "Red 40", Type: "additive_risk", Description: "Artificial dye"},
			},
		}}
	}

	return nil
}
