package structs

// DailyProgressReport compares a day's intake against the active goal.
type DailyProgressReport struct {
	UserID           string       `json:"user_id"`
	Date             string       `json:"date"`
	GoalID           int64        `json:"goal_id"`
	Nutrients        Nutrient     `json:"nutrients"`
	ActivityCalories float64      `json:"activity_calories"`
	MealCount        int          `json:"meal_count"`
	Balance          *MealBalance `json:"balance,omitempty"`
}

// BalanceAnalysis grades a day's intake against its targets.
type BalanceAnalysis struct {
	CalorieBalance     string `json:"calorie_balance"`
	MacroBalance       string `json:"macro_balance"`
	ProteinSufficiency string `json:"protein_sufficiency"`
}

type MealBalance struct {
	Analysis         BalanceAnalysis `json:"analysis"`
	Recommendations  []string        `json:"recommendations"`
	RemainingTargets MacroTotals     `json:"remaining_targets"`
}
