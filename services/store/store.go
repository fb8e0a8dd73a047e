package store

import (
	"context"
	"macrotrack-go-worker/models"
	"macrotrack-go-worker/structs"
)

// Collection names shared by both store implementations and error reports.
const (
	ProfilesCollection     = "profiles"
	MealsCollection        = "meals"
	FoodItemsCollection    = "food_items"
	DailyGoalsCollection   = "daily_goals"
	MonthlyGoalsCollection = "monthly_goals"
	CorrectionsCollection  = "food_corrections"
	ActivityCollection     = "activity_data"
	ProgressCollection     = "goal_progress"
	ActivityLogCollection  = "activity_log"
)

// Lookups return (nil, nil) when nothing matches. Every failure is an
// *apperr.PersistenceError.

type ProfileRepository interface {
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	SaveProfile(ctx context.Context, profile *models.Profile) error
}

type MealRepository interface {
	// CreateMeal persists the meal and its FoodItems atomically.
	CreateMeal(ctx context.Context, meal *models.Meal) error
	GetDailyMeals(ctx context.Context, userID, date string) ([]models.Meal, error)
	GetMeal(ctx context.Context, userID string, mealID int64) (*models.Meal, error)
	GetFoodItem(ctx context.Context, userID string, itemID int64) (*models.FoodItem, error)
	UpdateFoodItem(ctx context.Context, item *models.FoodItem) error
	DeleteFoodItem(ctx context.Context, itemID int64) error
	UpdateMealTotals(ctx context.Context, mealID int64, totals structs.MacroTotals) error
	// DeleteMeal removes the meal and cascades to its food items.
	DeleteMeal(ctx context.Context, userID string, mealID int64) error
}

type GoalRepository interface {
	GetActiveDailyGoal(ctx context.Context, userID, date string) (*models.DailyGoal, error)
	// SaveActiveDailyGoal leaves goal as the only active goal for its (user, date).
	SaveActiveDailyGoal(ctx context.Context, goal *models.DailyGoal) error
	GetActiveMonthlyGoal(ctx context.Context, userID string, year, month int) (*models.MonthlyGoal, error)
	// SaveActiveMonthlyGoal leaves goal as the only active goal for its (user, year, month).
	SaveActiveMonthlyGoal(ctx context.Context, goal *models.MonthlyGoal) error
}

type CorrectionRepository interface {
	// GetFoodCorrections lists a user's corrections; a non-empty foodName filters by normalized name.
	GetFoodCorrections(ctx context.Context, userID, foodName string) ([]models.FoodCorrection, error)
	// UpsertFoodCorrection writes the record keyed on (UserID, FoodName). An
	// existing row keeps its id and originals; correction is refreshed from
	// what was stored.
	UpsertFoodCorrection(ctx context.Context, correction *models.FoodCorrection) error
	DeleteFoodCorrection(ctx context.Context, userID, foodName string) error
}

type ActivityRepository interface {
	GetActivityData(ctx context.Context, userID, date string) ([]models.ActivityData, error)
	CreateActivityData(ctx context.Context, activity *models.ActivityData) error
}

type ProgressRepository interface {
	// SaveGoalProgress upserts on (UserID, Date, GoalType).
	SaveGoalProgress(ctx context.Context, progress *models.GoalProgress) error
	ListGoalProgress(ctx context.Context, userID, startDate, endDate string) ([]models.GoalProgress, error)
}

type ActivityLogRepository interface {
	InsertActivityLog(ctx context.Context, log *models.ActivityLog) error
}

type Store interface {
	ProfileRepository
	MealRepository
	GoalRepository
	CorrectionRepository
	ActivityRepository
	ProgressRepository
	ActivityLogRepository
	Close() error
}
