package challenge

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// GoalType is the closed set of goal categories a challenge can track.
type GoalType string

const (
	GoalProtein  GoalType = "PROTEIN"
	GoalCalorie  GoalType = "CALORIE"
	GoalCarbs    GoalType = "CARBS"
	GoalFat      GoalType = "FAT"
	GoalWater    GoalType = "WATER"
	GoalWeight   GoalType = "WEIGHT"
	GoalExercise GoalType = "EXERCISE"
	GoalHabit    GoalType = "HABIT"
	GoalCombined GoalType = "COMBINED"
)

// frequencyKey is reserved scheduling metadata inside goal details and
// never a goal of its own.
const frequencyKey = "frequency"

type scoringMode int

const (
	// achieved at >= 90% of target, rate capped at 150
	scoreAtLeast90 scoringMode = iota
	// achieved within +-10% of target, rate = 100 - deviation
	scoreWithin10
	// achieved at >= 100% of target, rate capped at 150
	scoreAtLeast
)

// goalSpec binds a nutrition goal type to its goal-details key, the
// metric key observed in daily summaries, its display unit and scoring.
type goalSpec struct {
	detailKey string
	metricKey string
	unit      string
	mode      scoringMode
}

var goalSpecs = map[GoalType]goalSpec{
	GoalProtein: {detailKey: "protein", metricKey: "totalProtein", unit: "g", mode: scoreAtLeast90},
	GoalCalorie: {detailKey: "calories", metricKey: "totalCalories", unit: "kcal", mode: scoreWithin10},
	GoalCarbs:   {detailKey: "carbs", metricKey: "totalCarbs", unit: "g", mode: scoreWithin10},
	GoalFat:     {detailKey: "fat", metricKey: "totalFat", unit: "g", mode: scoreWithin10},
	GoalWater:   {detailKey: "water", metricKey: "waterIntake", unit: "L", mode: scoreAtLeast},
	GoalWeight:  {detailKey: "weight", metricKey: "weight", unit: "kg", mode: scoreWithin10},
}

// goalTypeByKey maps goal-details keys to goal types for COMBINED
// resolution and goal-type derivation.
var goalTypeByKey = map[string]GoalType{
	"protein":  GoalProtein,
	"calories": GoalCalorie,
	"carbs":    GoalCarbs,
	"fat":      GoalFat,
	"weight":   GoalWeight,
	"water":    GoalWater,
}

// IsValid reports whether t is a member of the closed goal type set.
func (t GoalType) IsValid() bool {
	switch t {
	case GoalProtein, GoalCalorie, GoalCarbs, GoalFat, GoalWater, GoalWeight,
		GoalExercise, GoalHabit, GoalCombined:
		return true
	}
	return false
}

// isManualCheck reports whether the type is evaluated from the checklist
// instead of nutrition metrics.
func (t GoalType) isManualCheck() bool {
	return t == GoalExercise || t == GoalHabit
}

// Evaluation is the outcome of scoring one challenge for one date.
type Evaluation struct {
	Actual   string
	Achieved bool
	Rate     float64
}

// EvaluateGoal scores a challenge for the given date. metrics is the
// observed daily summary (may be empty), items the current checklist.
//
// When the metrics snapshot carries none of the recognized nutrition
// keys but at least one checklist item is done on the date, the day is
// scored by checklist completion regardless of goal type, so
// checkbox-only interaction still drives progress on nutrition-typed
// challenges.
func EvaluateGoal(goalType GoalType, details map[string]interface{}, metrics map[string]interface{}, items []ChallengeItem, date time.Time) Evaluation {
	if !hasNutritionMetrics(metrics) && countDoneOn(items, date) > 0 {
		return evaluateChecklist(items, date)
	}

	switch {
	case goalType.isManualCheck():
		return evaluateChecklist(items, date)
	case goalType == GoalCombined:
		return evaluateCombined(details, metrics)
	default:
		spec, ok := goalSpecs[goalType]
		if !ok {
			return Evaluation{}
		}
		return evaluateNutrition(spec, parseNumber(details[spec.detailKey]), metrics)
	}
}

// DeriveGoalType infers the goal type from the goal-details keys:
// exactly one recognized key maps to its type, anything else is
// COMBINED.
func DeriveGoalType(details map[string]interface{}) GoalType {
	var derived GoalType
	recognized := 0
	for key := range details {
		if t, ok := goalTypeByKey[key]; ok {
			derived = t
			recognized++
		}
	}
	if recognized == 1 {
		return derived
	}
	return GoalCombined
}

// ValidateGoalDetails rejects goal specifications that are empty or
// contain nothing beyond the reserved frequency key.
func ValidateGoalDetails(details map[string]interface{}) error {
	if len(details) == 0 {
		return ErrGoalTooVague
	}
	for key := range details {
		if key != frequencyKey {
			return nil
		}
	}
	return ErrGoalTooVague
}

func evaluateNutrition(spec goalSpec, target float64, metrics map[string]interface{}) Evaluation {
	actual := parseNumber(metrics[spec.metricKey])
	display := formatAmount(actual) + spec.unit

	// Guard division by zero: an unparseable or zero target can never
	// be achieved.
	if target == 0 {
		return Evaluation{Actual: display, Achieved: false, Rate: 0}
	}

	switch spec.mode {
	case scoreAtLeast90:
		return Evaluation{
			Actual:   display,
			Achieved: actual >= 0.9*target,
			Rate:     round2(math.Min(150, actual/target*100)),
		}
	case scoreAtLeast:
		return Evaluation{
			Actual:   display,
			Achieved: actual >= target,
			Rate:     round2(math.Min(150, actual/target*100)),
		}
	default: // scoreWithin10
		deviation := math.Abs(actual-target) / target * 100
		return Evaluation{
			Actual:   display,
			Achieved: deviation <= 10,
			Rate:     round2(math.Max(0, 100-deviation)),
		}
	}
}

func evaluateChecklist(items []ChallengeItem, date time.Time) Evaluation {
	total := len(items)
	done := countDoneOn(items, date)

	// Zero-item checklists score 0 and are never achieved.
	rate := 0.0
	if total > 0 {
		rate = round2(float64(done) / float64(total) * 100)
	}

	return Evaluation{
		Actual:   fmt.Sprintf("%d/%d", done, total),
		Achieved: total > 0 && done == total,
		Rate:     rate,
	}
}

func evaluateCombined(details map[string]interface{}, metrics map[string]interface{}) Evaluation {
	keys := make([]string, 0, len(details))
	for key := range details {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var (
		segments []string
		rateSum  float64
		resolved int
		achieved = true
	)

	for _, key := range keys {
		if key == frequencyKey {
			continue
		}
		goalType, ok := goalTypeByKey[key]
		if !ok {
			// Unrecognized keys are ignored, not rejected.
			continue
		}
		spec := goalSpecs[goalType]
		sub := evaluateNutrition(spec, parseNumber(details[key]), metrics)
		segments = append(segments, key+" "+sub.Actual)
		rateSum += sub.Rate
		achieved = achieved && sub.Achieved
		resolved++
	}

	if resolved == 0 {
		return Evaluation{Actual: "", Achieved: false, Rate: 0}
	}

	return Evaluation{
		Actual:   strings.Join(segments, ", "),
		Achieved: achieved,
		Rate:     round2(rateSum / float64(resolved)),
	}
}

// countDoneOn counts checklist items completed on the given date. Done
// items carrying no timestamp count for every date (legacy rows predate
// the DoneAt column).
func countDoneOn(items []ChallengeItem, date time.Time) int {
	count := 0
	for _, item := range items {
		if !item.Done {
			continue
		}
		if item.DoneAt == nil || sameDay(*item.DoneAt, date) {
			count++
		}
	}
	return count
}

// hasNutritionMetrics reports whether the snapshot carries at least one
// recognized nutrition metric key.
func hasNutritionMetrics(metrics map[string]interface{}) bool {
	for _, spec := range goalSpecs {
		if _, ok := metrics[spec.metricKey]; ok {
			return true
		}
	}
	return false
}

// parseNumber extracts a numeric value from a goal-details or metrics
// entry. Strings are parsed after stripping everything but digits and
// the decimal point ("60g" -> 60); anything unparseable is 0.
func parseNumber(v interface{}) float64 {
	switch val := v.(type) {
	case nil:
		return 0
	case float64:
		return val
	case float32:
		return float64(val)
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case string:
		var b strings.Builder
		for _, r := range val {
			if (r >= '0' && r <= '9') || r == '.' {
				b.WriteRune(r)
			}
		}
		parsed, err := strconv.ParseFloat(b.String(), 64)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
