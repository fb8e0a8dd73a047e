package enums

// ConnectionName names the worker's pooled rabbitmq connection.
const ConnectionName = "macrotrack"

// queue names
const (
	MealEstimateQueue   = "meal-estimate"
	FoodCorrectionQueue = "food-correction"
	GoalCalculateQueue  = "goal-calculate"
	DailyProgressQueue  = "daily-progress"
)

// goal types
const (
	FatLoss     = "fat_loss"
	MuscleGain  = "muscle_gain"
	Maintenance = "maintenance"
	Performance = "performance"
)

// intensities
const (
	Conservative = "conservative"
	Moderate     = "moderate"
	Aggressive   = "aggressive"
)

// biological sex categories
const (
	Male      = "male"
	Female    = "female"
	NonBinary = "non_binary"
)

// activity levels
const (
	Sedentary  = "sedentary"
	Light      = "light"
	Active     = "active"
	VeryActive = "very_active"
	// ModerateActivity shares its value with the Moderate intensity.
	ModerateActivity = "moderate"
)

// body types
const (
	Ectomorph = "ectomorph"
	Mesomorph = "mesomorph"
	Endomorph = "endomorph"
)

// correction actions carried by food-correction jobs
const (
	CorrectionSave       = "save"
	CorrectionReset      = "reset"
	CorrectionDelete     = "delete"
	CorrectionDeleteMeal = "delete_meal"
)

const (
	DailyGoalType   = "daily"
	MonthlyGoalType = "monthly"
	DefaultMeal     = "meal"
	DefaultMealName = "New Meal"
	DefaultReason   = "User manual adjustment"
)
