package store

import (
	"context"
	"macrotrack-go-worker/apperr"
	"macrotrack-go-worker/models"
	"macrotrack-go-worker/structs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreMealLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	meal := &models.Meal{
		UserID: "u1",
		Name:   "Lunch",
		Date:   "2026-10-17",
		FoodItems: []models.FoodItem{
			{Name: "chicken", Calories: 200, Protein: 30},
			{Name: "rice", Calories: 150, Carbs: 33},
		},
	}
	require.NoError(t, s.CreateMeal(ctx, meal))
	assert.NotZero(t, meal.ID)
	assert.Equal(t, meal.ID, meal.FoodItems[0].MealID)

	meals, err := s.GetDailyMeals(ctx, "u1", "2026-10-17")
	require.NoError(t, err)
	require.Len(t, meals, 1)
	assert.Len(t, meals[0].FoodItems, 2)

	other, err := s.GetMeal(ctx, "u2", meal.ID)
	require.NoError(t, err)
	assert.Nil(t, other)

	item, err := s.GetFoodItem(ctx, "u1", meal.FoodItems[0].ID)
	require.NoError(t, err)
	require.NotNil(t, item)
	item.Calories = 250
	require.NoError(t, s.UpdateFoodItem(ctx, item))

	require.NoError(t, s.UpdateMealTotals(ctx, meal.ID, structs.MacroTotals{Calories: 400}))
	stored, err := s.GetMeal(ctx, "u1", meal.ID)
	require.NoError(t, err)
	assert.Equal(t, 400.0, stored.TotalCalories)
	assert.Equal(t, 250.0, stored.FoodItems[0].Calories)

	require.NoError(t, s.DeleteMeal(ctx, "u1", meal.ID))
	gone, err := s.GetFoodItem(ctx, "u1", meal.FoodItems[1].ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestMemoryStoreCopiesOnRead(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	orig := 100.0
	meal := &models.Meal{UserID: "u1", Date: "2026-10-17", FoodItems: []models.FoodItem{{Name: "egg", OriginalCalories: &orig}}}
	require.NoError(t, s.CreateMeal(ctx, meal))

	item, err := s.GetFoodItem(ctx, "u1", meal.FoodItems[0].ID)
	require.NoError(t, err)
	*item.OriginalCalories = 1

	again, err := s.GetFoodItem(ctx, "u1", meal.FoodItems[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, *again.OriginalCalories)
}

func TestMemoryStoreSingleActiveGoal(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	first := &models.DailyGoal{UserID: "u1", Date: "2026-10-17", CaloriesTarget: 2000}
	require.NoError(t, s.SaveActiveDailyGoal(ctx, first))
	second := &models.DailyGoal{UserID: "u1", Date: "2026-10-17", CaloriesTarget: 1800}
	require.NoError(t, s.SaveActiveDailyGoal(ctx, second))
	assert.Equal(t, first.ID, second.ID)

	active, err := s.GetActiveDailyGoal(ctx, "u1", "2026-10-17")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, 1800.0, active.CaloriesTarget)

	none, err := s.GetActiveDailyGoal(ctx, "u1", "2026-10-18")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestMemoryStoreCorrectionUpsert(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	c := &models.FoodCorrection{UserID: "u1", FoodName: "chicken", OriginalCalories: 200, CorrectedCalories: 250}
	require.NoError(t, s.UpsertFoodCorrection(ctx, c))
	id := c.ID
	assert.NotEmpty(t, id)

	c2 := &models.FoodCorrection{UserID: "u1", FoodName: "chicken", OriginalCalories: 250, CorrectedCalories: 260}
	require.NoError(t, s.UpsertFoodCorrection(ctx, c2))
	assert.Equal(t, id, c2.ID)
	assert.Equal(t, 200.0, c2.OriginalCalories)

	all, err := s.GetFoodCorrections(ctx, "u1", "")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 260.0, all[0].CorrectedCalories)

	require.NoError(t, s.DeleteFoodCorrection(ctx, "u1", "chicken"))
	require.NoError(t, s.DeleteFoodCorrection(ctx, "u1", "chicken"))
	all, err = s.GetFoodCorrections(ctx, "u1", "chicken")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestMemoryStoreProgressRange(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for _, date := range []string{"2026-10-15", "2026-10-16", "2026-10-17"} {
		require.NoError(t, s.SaveGoalProgress(ctx, &models.GoalProgress{UserID: "u1", Date: date, GoalType: "daily"}))
	}
	require.NoError(t, s.SaveGoalProgress(ctx, &models.GoalProgress{UserID: "u1", Date: "2026-10-16", GoalType: "daily", CaloriesActual: 900}))

	rows, err := s.ListGoalProgress(ctx, "u1", "2026-10-16", "2026-10-17")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2026-10-16", rows[0].Date)
	assert.Equal(t, 900.0, rows[0].CaloriesActual)
}

func TestMemoryStoreCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewMemoryStore()

	_, err := s.GetDailyMeals(ctx, "u1", "2026-10-17")
	assert.True(t, apperr.IsPersistence(err))
	err = s.UpsertFoodCorrection(ctx, &models.FoodCorrection{UserID: "u1", FoodName: "x"})
	assert.True(t, apperr.IsPersistence(err))
}
