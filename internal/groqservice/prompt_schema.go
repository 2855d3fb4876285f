package groqservice

import (
	"fmt"
	"strings"

	"encode-health/internal/profile"
)

/* =================================================================================
						PROMPT ENGINEERING & GUARDRAILS
	The analyze prompt carries the full output schema inline: the model is told
	to emit ONLY valid JSON in the documented shape. Older revisions of this
	prompt produced divergent shapes, which is why the analysis package
	normalizes rather than trusts.
=================================================================================*/

// analyzeSystemPromptTemplate expects two arguments: the user's stated context
// and the optional personalization block.
const analyzeSystemPromptTemplate = `You are an expert nutritional data scientist and UI renderer. You are analyzing a food product.
CONTEXT: The user has stated: "%s".%s
CRITICAL: Bias the health score and risks heavily based on this context.

1. Calculate a health score (0-100) based on nutritional density and processing.
2. Identify the 3 biggest health risks (e.g., Sodium, Sugar, Additives).
3. DESIGN THE "SIMULATION ENGINE":
   - Define exact "base_stats" (Calories, Sodium, Macros).
   - Create 3 realistic "Hacks/Modifiers" that specifically address the product's flaws (e.g. "Drain Noodles" to reduce Fat, "Add Spinach" to add Fiber).
   - Calculate the QUANTITATIVE IMPACT of each hack (e.g. sodium_mg: -800).
   - Write 3 "Verdict" states: Default (Bad), Improved (Okay), Optimized (Great).
4. If the user's query explicitly asks for a comparison between two products (e.g., "Product A vs Product B"), populate the "follow_up_data.battle" field.
5. If the user's query explicitly asks about the manufacturing process or how a product is made (e.g., "How is X made?", "Manufacturing process of Y"), populate the "follow_up_data.manufacturing" field.
6. Otherwise, set "follow_up_data.type" to null and leave "battle" and "manufacturing" empty.

Output ONLY valid JSON matching this schema:
{
  "meta": {
      "product_name": "Exact Name",
      "category": "String",
      "source": "e.g. Whole Foods / Unknown",
      "portion_size": "e.g. 350g",
      "caloric_density": "High" | "Medium" | "Low"
  },
  "goal_alignment": {
      "muscle_gain": number,
      "weight_loss": number,
      "longevity": number,
      "energy": number
  },
  "follow_up_data": {
        "type": "battle" | "manufacturing" | null,
        "battle": {
            "productA": { "name": "String", "protein": "String", "sodium": "String" },
            "productB": { "name": "String", "protein": "String", "sodium": "String" },
            "verdict": "String"
        },
        "manufacturing": {
            "steps": [ { "title": "String", "desc": "String", "risk": "high"|"medium"|"low" } ]
        }
  },
  "simulation": {
      "base_stats": {
          "score": number,
          "calories": number,
          "sodium_mg": number,
          "protein_g": number,
          "carbs_g": number,
          "fat_g": number,
          "magnesium_mg": number,
          "potassium_mg": number,
          "ingredients": ["Main", "Ingredients", "List"]
      },
      "additives": {
          "is_clean": boolean,
          "detected": ["names"]
      },
      "modifiers": [
          {
              "id": "hack_id",
              "label": "Action Label",
              "type": "addition" | "subtraction",
              "impact": {
                  "calories": number (optional),
                  "sodium_mg": number (optional),
                  "protein_g": number (optional),
                  "carbs_g": number (optional),
                  "fat_g": number (optional),
                  "score_delta": number,
                  "remove_ingredients": ["Ingredient Name"] (optional)
              }
          }
      ],
      "verdicts": {
          "default": "Critique of base product",
          "improved": "Encouraging update",
          "optimized": "Final praise"
      }
  },
  "layout_config": {
      "theme": "dark_slate",
      "emphasis": "sodium_warning"
  },
  "components": [
    {
        "id": "hero", "zone": "zone_1", "type": "score_ring",
        "data": { "grade": "A-F", "label": "Short Verdict" }
    },
    {
        "id": "summary", "zone": "zone_1", "type": "text_block",
        "data": { "headline": "Punchy Soundbite" }
    },
    {
        "id": "risks", "zone": "zone_3", "type": "red_flag_list",
        "data": { "flags": [{ "name": "Title", "risk_level": "high"|"medium"|"low", "description": "Insight", "category": "macro"|"bio"|"micro" }] }
    }
  ]
}`

// ChatSystemPrompt keeps follow-up answers short; the widget payload carries
// the structure, the text is just flavor.
const ChatSystemPrompt = "You are a witty health assistant. Give a 1-sentence answer."

// TriageSystemPrompt drives the pre-analysis clarification step.
const triageSystemPromptTemplate = `YOU ARE: The "ENCODE Triage Protocol".
TARGET: A Clinical Nutrition Screener.

INPUT:
Product Name: "%s"

TASK:
Analyze the product's nutritional profile and potential risks.
Generate exactly 3 High-Value Screening Questions to determine if this product is safe/aligned with the user.
These questions should be asked *simultaneously* to gather context fast.

GUIDELINES:
- Question 1: Focused on major risk (e.g. "Do you have high blood pressure?" for salty foods).
- Question 2: Focused on dietary goals (e.g. "Are you tracking specific macros?").
- Question 3: Focused on sensitivity/preference (e.g. "Are you avoiding artificial sweeteners?").

FORMAT:
Return JSON:
{
  "questions": [
    { "id": "q1", "text": "Question string", "type": "yes_no" | "text" },
    { "id": "q2", "text": "Question string", "type": "yes_no" | "text" },
    { "id": "q3", "text": "Question string", "type": "yes_no" | "text" }
  ]
}`

// BuildAnalyzeSystemPrompt assembles the analysis system prompt from the
// user's stated context and an optional personalization block.
func BuildAnalyzeSystemPrompt(userContext, profileBlock string) string {
	if userContext == "" {
		userContext = "General health awareness"
	}
	return fmt.Sprintf(analyzeSystemPromptTemplate, userContext, profileBlock)
}

// BuildTriageSystemPrompt assembles the triage system prompt for one product.
func BuildTriageSystemPrompt(productName string) string {
	return fmt.Sprintf(triageSystemPromptTemplate, productName)
}

// BuildProfileBlock renders a user profile as the PERSONALIZATION constraint
// block injected into the analysis prompt. Returns "" when the profile carries
// nothing actionable.
func BuildProfileBlock(p *profile.Profile) string {
	if p == nil {
		return ""
	}

	var constraints []string
	if len(p.Constraints.Allergies) > 0 {
		constraints = append(constraints, fmt.Sprintf("ALLERGIES: %s", strings.Join(p.Constraints.Allergies, ", ")))
	}
	if len(p.Constraints.Conditions) > 0 {
		constraints = append(constraints, fmt.Sprintf("HEALTH CONDITIONS: %s", strings.Join(p.Constraints.Conditions, ", ")))
	}
	if len(p.Goals) > 0 {
		constraints = append(constraints, fmt.Sprintf("GOALS: %s", strings.Join(p.Goals, ", ")))
	}
	if p.DailySodiumCapMg > 0 {
		constraints = append(constraints, fmt.Sprintf("DAILY SODIUM LIMIT: %dmg", p.DailySodiumCapMg))
	}

	if len(constraints) == 0 {
		return ""
	}

	return "\n\nPERSONALIZATION (CRITICAL - Adjust scores based on this):\n" +
		strings.Join(constraints, "\n") +
		"\n\nIMPORTANT: The user has ALREADY provided this profile. Do NOT ask for allergies, goals, or biometrics again. Use these values as absolute constraints."
}
