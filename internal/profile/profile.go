/*
Package profile maintains the user's biometrics, goals, and dietary
constraints, and derives sodium/calorie caps from them. Derived values are
recomputed synchronously with every mutation; no caller can observe a stale
window. All state is constructor-injected, there are no ambient singletons.
*/
package profile

import (
	"fmt"
	"math"
	"strings"
	"sync"
)

const (
	// DefaultSodiumCapMg is the standard daily sodium cap (FDA guideline).
	DefaultSodiumCapMg = 2300
	// StrictSodiumCapMg applies with hypertension or a heart_health goal.
	StrictSodiumCapMg = 1500
	// DefaultDailyCalories applies until biometrics are known.
	DefaultDailyCalories = 2000
)

// Biometrics holds the raw body measurements derived values are computed from.
type Biometrics struct {
	WeightKg float64 `json:"weight_kg"`
	HeightCm float64 `json:"height_cm"`
	Age      int     `json:"age"`
	Sex      string  `json:"sex"` // male | female | other
}

// Constraints groups the user's hard dietary restrictions.
type Constraints struct {
	Allergies  []string `json:"allergies"`
	Diet       []string `json:"diet"`
	Conditions []string `json:"conditions"`
}

// Profile is the full user profile including derived values. Derived fields
// are never stored independently of their inputs without immediate recompute.
type Profile struct {
	Biometrics       *Biometrics `json:"biometrics"`
	Goals            []string    `json:"goals"`
	Constraints      Constraints `json:"constraints"`
	BMR              *float64    `json:"bmr"`
	BMI              *float64    `json:"bmi"`
	DailySodiumCapMg int         `json:"daily_sodium_cap_mg"`
	DailyCalories    int         `json:"daily_calories"`
}

// ConstraintKind addresses one of the three constraint lists.
type ConstraintKind string

const (
	ConstraintAllergies  ConstraintKind = "allergies"
	ConstraintDiet       ConstraintKind = "diet"
	ConstraintConditions ConstraintKind = "conditions"
)

// ValidConstraintKind reports whether kind names a known constraint list.
func ValidConstraintKind(kind ConstraintKind) bool {
	return kind == ConstraintAllergies || kind == ConstraintDiet || kind == ConstraintConditions
}

/* =================================================================================
								DERIVATIONS
=================================================================================*/

// CalculateBMR applies the Mifflin-St Jeor equation. The "other" sex reuses
// the female coefficient, preserving the established numeric behavior.
func CalculateBMR(bio Biometrics) float64 {
	base := 10*bio.WeightKg + 6.25*bio.HeightCm - 5*float64(bio.Age)
	if bio.Sex == "male" {
		return base + 5
	}
	return base - 161
}

// CalculateBMI is weight over height squared, height in meters.
func CalculateBMI(bio Biometrics) float64 {
	heightM := bio.HeightCm / 100
	return bio.WeightKg / (heightM * heightM)
}

// SodiumCapMg tightens the daily cap for hypertensive users and heart-health
// goals.
func SodiumCapMg(p *Profile) int {
	if containsString(p.Constraints.Conditions, "hypertension") || containsString(p.Goals, "heart_health") {
		return StrictSodiumCapMg
	}
	return DefaultSodiumCapMg
}

// DailyCalorieTarget multiplies BMR by a goal-driven activity modifier.
// fat_loss is evaluated first and wins when both cutting goals are present.
func DailyCalorieTarget(bmr float64, goals []string) int {
	modifier := 1.55
	switch {
	case containsString(goals, "fat_loss"):
		modifier = 1.2
	case containsString(goals, "muscle_gain"):
		modifier = 1.8
	}
	return int(math.Round(bmr * modifier))
}

/* =================================================================================
								ENGINE
=================================================================================*/

// Engine is the single writer for one user's profile. Reads go through
// Snapshot, which returns a deep copy.
type Engine struct {
	mu sync.Mutex
	p  Profile
}

// NewEngine returns an engine holding the all-empty default profile.
func NewEngine() *Engine {
	return &Engine{p: defaultProfile()}
}

// NewEngineFrom wraps a previously stored profile. Derived values are
// recomputed immediately rather than trusted from storage.
func NewEngineFrom(p Profile) *Engine {
	e := &Engine{p: p}
	e.recompute()
	return e
}

func defaultProfile() Profile {
	return Profile{
		Goals: []string{},
		Constraints: Constraints{
			Allergies:  []string{},
			Diet:       []string{},
			Conditions: []string{},
		},
		DailySodiumCapMg: DefaultSodiumCapMg,
		DailyCalories:    DefaultDailyCalories,
	}
}

// recompute refreshes every derived field from its inputs. Must be called
// under e.mu after each mutation.
func (e *Engine) recompute() {
	if e.p.Goals == nil {
		e.p.Goals = []string{}
	}
	if e.p.Constraints.Allergies == nil {
		e.p.Constraints.Allergies = []string{}
	}
	if e.p.Constraints.Diet == nil {
		e.p.Constraints.Diet = []string{}
	}
	if e.p.Constraints.Conditions == nil {
		e.p.Constraints.Conditions = []string{}
	}

	e.p.DailySodiumCapMg = SodiumCapMg(&e.p)

	if e.p.Biometrics == nil {
		e.p.BMR = nil
		e.p.BMI = nil
		e.p.DailyCalories = DefaultDailyCalories
		return
	}

	bmr := CalculateBMR(*e.p.Biometrics)
	bmi := CalculateBMI(*e.p.Biometrics)
	e.p.BMR = &bmr
	e.p.BMI = &bmi
	e.p.DailyCalories = DailyCalorieTarget(bmr, e.p.Goals)
}

// UpdateBiometrics replaces the biometrics and recomputes all derived values.
func (e *Engine) UpdateBiometrics(bio Biometrics) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.p.Biometrics = &bio
	e.recompute()
}

// ToggleGoal flips membership of one goal.
func (e *Engine) ToggleGoal(goal string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if containsString(e.p.Goals, goal) {
		next := make([]string, 0, len(e.p.Goals))
		for _, g := range e.p.Goals {
			if g != goal {
				next = append(next, g)
			}
		}
		e.p.Goals = next
	} else {
		e.p.Goals = append(e.p.Goals, goal)
	}
	e.recompute()
}

// AddConstraint appends a value to one constraint list, ignoring duplicates.
func (e *Engine) AddConstraint(kind ConstraintKind, value string) error {
	if !ValidConstraintKind(kind) {
		return fmt.Errorf("unknown constraint type: %s", kind)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	list := e.constraintList(kind)
	if !containsString(*list, value) {
		*list = append(*list, value)
	}
	e.recompute()
	return nil
}

// RemoveConstraint drops a value from one constraint list.
func (e *Engine) RemoveConstraint(kind ConstraintKind, value string) error {
	if !ValidConstraintKind(kind) {
		return fmt.Errorf("unknown constraint type: %s", kind)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	list := e.constraintList(kind)
	next := make([]string, 0, len(*list))
	for _, v := range *list {
		if v != value {
			next = append(next, v)
		}
	}
	*list = next
	e.recompute()
	return nil
}

func (e *Engine) constraintList(kind ConstraintKind) *[]string {
	switch kind {
	case ConstraintAllergies:
		return &e.p.Constraints.Allergies
	case ConstraintDiet:
		return &e.p.Constraints.Diet
	default:
		return &e.p.Constraints.Conditions
	}
}

// HasConflict returns the first configured allergy (insertion order) whose
// lowercase form appears as a substring of any lowercased ingredient name.
// This is a plain substring check, not tokenized matching: "Soy" will match
// "Soylent". That looseness is accepted behavior for now.
func (e *Engine) HasConflict(ingredients []string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	lowered := make([]string, len(ingredients))
	for i, ing := range ingredients {
		lowered[i] = strings.ToLower(ing)
	}

	for _, allergy := range e.p.Constraints.Allergies {
		needle := strings.ToLower(allergy)
		for _, ing := range lowered {
			if strings.Contains(ing, needle) {
				return allergy, true
			}
		}
	}
	return "", false
}

// IsComplete reports whether biometrics are present and at least one goal set.
func (e *Engine) IsComplete() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.p.Biometrics != nil && len(e.p.Goals) > 0
}

// Snapshot returns a deep copy safe to hand to rendering or persistence.
func (e *Engine) Snapshot() Profile {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := e.p
	if e.p.Biometrics != nil {
		bio := *e.p.Biometrics
		out.Biometrics = &bio
	}
	if e.p.BMR != nil {
		bmr := *e.p.BMR
		out.BMR = &bmr
	}
	if e.p.BMI != nil {
		bmi := *e.p.BMI
		out.BMI = &bmi
	}
	out.Goals = append([]string{}, e.p.Goals...)
	out.Constraints = Constraints{
		Allergies:  append([]string{}, e.p.Constraints.Allergies...),
		Diet:       append([]string{}, e.p.Constraints.Diet...),
		Conditions: append([]string{}, e.p.Constraints.Conditions...),
	}
	return out
}

// Reset restores the all-empty default profile.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.p = defaultProfile()
}

func containsString(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
