/*
Package intent classifies free-text follow-up questions into UI-pattern kinds
using a fixed, ordered keyword table. This is a deliberately simple, auditable
heuristic: case-insensitive substring match, first matching rule wins.
*/
package intent

import "strings"

// Kind is the discriminant tag selecting which specialized widget a follow-up
// turn renders as.
type Kind string

const (
	KindComplianceChecklist Kind = "compliance_checklist"
	KindComparisonCard      Kind = "comparison_card"
	KindProcessTimeline     Kind = "process_timeline"
	KindProductCarousel     Kind = "product_carousel"
	KindIngredientDeepDive  Kind = "ingredient_deep_dive"
)

// rule pairs a kind with the trigger substrings that select it.
type rule struct {
	kind     Kind
	triggers []string
}

// rules is order-sensitive: several rules can match the same utterance, and
// only the first match fires. "is this keto or should I compare?" is a
// compliance check, never a comparison.
var rules = []rule{
	{KindComplianceChecklist, []string{"keto", "vegan", "gluten", "diet"}},
	{KindComparisonCard, []string{"compare", "better", "vs"}},
	{KindProcessTimeline, []string{"process", "made", "how"}},
	{KindProductCarousel, []string{"swap", "alternative", "instead"}},
	{KindIngredientDeepDive, []string{"ingredient", "chemical", "what is"}},
}

// Classify returns the UI-pattern kind for an utterance, or false when no rule
// matches and the turn should render as plain text.
func Classify(utterance string) (Kind, bool) {
	q := strings.ToLower(utterance)
	for _, r := range rules {
		for _, trigger := range r.triggers {
			if strings.Contains(q, trigger) {
				return r.kind, true
			}
		}
	}
	return "", false
}

// Known reports whether a component type declared by the upstream response is
// one of the fixed widget kinds. Unrecognized kinds must render nothing rather
// than fail.
func Known(kind string) bool {
	switch Kind(kind) {
	case KindComplianceChecklist, KindComparisonCard, KindProcessTimeline,
		KindProductCarousel, KindIngredientDeepDive:
		return true
	}
	return false
}
