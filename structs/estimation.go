package structs

type EstimationContext struct {
	MealType      string       `json:"mealType"`
	UserGoals     *MacroTotals `json:"userGoals,omitempty"`
	PreviousFoods []string     `json:"previousFoods"`
}

// EstimationResult is a validated AI estimate.
type EstimationResult struct {
	MealName        string     `json:"meal_name"`
	MealType        string     `json:"meal_type"`
	TotalCalories   float64    `json:"total_calories"`
	TotalProtein    float64    `json:"total_protein"`
	TotalCarbs      float64    `json:"total_carbs"`
	TotalFat        float64    `json:"total_fat"`
	FoodItems       []FoodItem `json:"food_items"`
	ConfidenceScore float64    `json:"confidence_score"`
}
