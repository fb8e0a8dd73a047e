package progress

import (
	"context"
	"macrotrack-go-worker/apperr"
	"macrotrack-go-worker/models"
	"macrotrack-go-worker/services/store"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProgressService() (*ProgressService, *store.MemoryStore) {
	logger, _ := test.NewNullLogger()
	s := store.NewMemoryStore()
	return &ProgressService{Store: s, Logger: logrus.NewEntry(logger)}, s
}

func TestCalculate(t *testing.T) {
	ctx := context.Background()
	service, s := newProgressService()
	require.NoError(t, s.SaveActiveDailyGoal(ctx, &models.DailyGoal{
		UserID: "u1", Date: "2026-10-17", CaloriesTarget: 2000, ProteinTarget: 150, CarbsTarget: 200, FatTarget: 0,
	}))
	require.NoError(t, s.CreateMeal(ctx, &models.Meal{UserID: "u1", Date: "2026-10-17", FoodItems: []models.FoodItem{
		{Name: "chicken", Calories: 250, Protein: 38, Fat: 4},
		{Name: "rice", Calories: 150, Protein: 3, Carbs: 33, Fat: 0.5},
	}}))
	require.NoError(t, s.CreateActivityData(ctx, &models.ActivityData{UserID: "u1", Date: "2026-10-17", CaloriesBurned: 320}))

	report, err := service.Calculate(ctx, "u1", "2026-10-17")
	require.NoError(t, err)
	assert.Equal(t, 1, report.MealCount)
	assert.Equal(t, 400.0, report.Nutrients.Calories.Consumed)
	assert.Equal(t, 20.0, report.Nutrients.Calories.Percent)
	assert.Equal(t, 27.3, report.Nutrients.Protein.Percent)
	assert.Equal(t, 0.0, report.Nutrients.Fat.Percent)
	assert.Equal(t, 320.0, report.ActivityCalories)
	assert.NotZero(t, report.GoalID)

	rows, err := service.Analytics(ctx, "u1", "2026-10-01", "2026-10-31")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "daily", rows[0].GoalType)
	assert.Equal(t, 20.0, rows[0].CaloriesProgress)

	// recalculating upserts the same row
	_, err = service.Calculate(ctx, "u1", "2026-10-17")
	require.NoError(t, err)
	rows, err = service.Analytics(ctx, "u1", "2026-10-17", "2026-10-17")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestCalculateWithoutGoal(t *testing.T) {
	service, _ := newProgressService()
	report, err := service.Calculate(context.Background(), "u1", "2026-10-17")
	require.NoError(t, err)
	assert.Equal(t, 0, report.MealCount)
	assert.Equal(t, 0.0, report.Nutrients.Calories.Percent)
	assert.Zero(t, report.GoalID)

	rows, err := service.Analytics(context.Background(), "u1", "2026-10-17", "2026-10-17")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestProgressValidation(t *testing.T) {
	service, _ := newProgressService()
	ctx := context.Background()

	_, err := service.Calculate(ctx, "u1", "17/10/2026")
	assert.True(t, apperr.IsValidation(err))
	_, err = service.Analytics(ctx, "u1", "2026-10-17", "2026-10-01")
	assert.True(t, apperr.IsValidation(err))
}
