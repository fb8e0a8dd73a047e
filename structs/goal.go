package structs

// GoalConfiguration is the biometric input of a target calculation.
// Weight is in kilograms and height in centimeters.
type GoalConfiguration struct {
	GoalType       string   `json:"goal_type" validate:"required,oneof=fat_loss muscle_gain maintenance performance"`
	Intensity      string   `json:"intensity" validate:"required,oneof=conservative moderate aggressive"`
	WeightKg       float64  `json:"user_weight" validate:"gt=0"`
	HeightCm       float64  `json:"user_height" validate:"gt=0"`
	Age            int      `json:"age" validate:"gt=0"`
	Sex            string   `json:"sex" validate:"required,oneof=male female non_binary"`
	ActivityLevel  string   `json:"activity_level" validate:"required,oneof=sedentary light moderate active very_active"`
	BodyType       string   `json:"body_type" validate:"required,oneof=ectomorph mesomorph endomorph"`
	BodyFatPercent *float64 `json:"body_fat_percent,omitempty" validate:"omitempty,gte=0,lt=100"`
}

type CalculatedTargets struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	BMR      float64 `json:"bmr"`
	TDEE     float64 `json:"tdee"`
	// LeanBodyMass is in pounds and only set when body fat was supplied.
	LeanBodyMass       *float64        `json:"lean_body_mass,omitempty"`
	GoalTimeframeWeeks int             `json:"goal_timeframe_weeks"`
	Recommendations    Recommendations `json:"recommendations"`
	Explanation        string          `json:"explanation"`
	Warnings           []string        `json:"warnings,omitempty"`
}

type Recommendations struct {
	MealTiming  string   `json:"meal_timing"`
	Hydration   string   `json:"hydration"`
	Supplements []string `json:"supplements"`
	Tips        []string `json:"tips"`
}

// GoalConfigRecord is what a daily goal stores in its goal_config column.
type GoalConfigRecord struct {
	GoalConfiguration
	CalculatedTargets CalculatedTargets `json:"calculated_targets"`
	BasicTargets      bool              `json:"basic_targets,omitempty"`
	CreatedAt         string            `json:"created_at"`
}
