package simulation

/* =================================================================================
							SIMULATION DATA MODEL
	These structs mirror the "simulation" block of the analysis payload. BaseStats
	is the untouched baseline; modifiers are toggleable deltas applied on top.
=================================================================================*/

// BaseStats holds the unmodified nutritional baseline for a product.
// Score never changes after construction; derived values live in CurrentStats.
type BaseStats struct {
	Score       float64  `json:"score"`
	Calories    float64  `json:"calories"`
	SodiumMg    float64  `json:"sodium_mg"`
	ProteinG    float64  `json:"protein_g"`
	CarbsG      float64  `json:"carbs_g"`
	FatG        float64  `json:"fat_g"`
	MagnesiumMg float64  `json:"magnesium_mg,omitempty"`
	PotassiumMg float64  `json:"potassium_mg,omitempty"`
	Ingredients []string `json:"ingredients"`
}

// ModifierKind distinguishes additive hacks ("Add Spinach") from subtractive
// ones ("Drain Noodles").
type ModifierKind string

const (
	ModifierAddition    ModifierKind = "addition"
	ModifierSubtraction ModifierKind = "subtraction"
)

// Impact is the signed delta a modifier applies to each stat axis.
// A zero field means no effect on that axis.
type Impact struct {
	Calories          float64  `json:"calories,omitempty"`
	SodiumMg          float64  `json:"sodium_mg,omitempty"`
	ProteinG          float64  `json:"protein_g,omitempty"`
	CarbsG            float64  `json:"carbs_g,omitempty"`
	FatG              float64  `json:"fat_g,omitempty"`
	ScoreDelta        float64  `json:"score_delta,omitempty"`
	RemoveIngredients []string `json:"remove_ingredients,omitempty"`
}

// Modifier is a named, toggleable delta. IDs are unique within one Simulation.
type Modifier struct {
	ID     string       `json:"id"`
	Label  string       `json:"label"`
	Kind   ModifierKind `json:"type"`
	Impact Impact       `json:"impact"`
}

// Verdicts holds the three narrative states keyed by score tier.
type Verdicts struct {
	Default   string `json:"default"`
	Improved  string `json:"improved"`
	Optimized string `json:"optimized"`
}

// Additives flags artificial preservatives detected in the product.
type Additives struct {
	IsClean  bool     `json:"is_clean"`
	Detected []string `json:"detected,omitempty"`
}

// Simulation is the full interactive-simulator block for one analysis.
type Simulation struct {
	BaseStats BaseStats  `json:"base_stats"`
	Additives *Additives `json:"additives,omitempty"`
	Modifiers []Modifier `json:"modifiers"`
	Verdicts  Verdicts   `json:"verdicts"`
}

// CurrentStats is the derived live view: base stats with every active
// modifier's impact summed in. Never persisted, always recomputed.
type CurrentStats struct {
	Score              float64  `json:"score"`
	Calories           float64  `json:"calories"`
	SodiumMg           float64  `json:"sodium_mg"`
	ProteinG           float64  `json:"protein_g"`
	CarbsG             float64  `json:"carbs_g"`
	FatG               float64  `json:"fat_g"`
	MagnesiumMg        float64  `json:"magnesium_mg,omitempty"`
	PotassiumMg        float64  `json:"potassium_mg,omitempty"`
	RemovedIngredients []string `json:"removed_ingredients,omitempty"`
}
