package goal

import (
	"context"
	"encoding/json"
	"macrotrack-go-worker/apperr"
	"macrotrack-go-worker/models"
	"macrotrack-go-worker/services/store"
	"macrotrack-go-worker/structs"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig() structs.GoalConfiguration {
	return structs.GoalConfiguration{
		GoalType:      "fat_loss",
		Intensity:     "moderate",
		WeightKg:      80,
		HeightCm:      180,
		Age:           30,
		Sex:           "male",
		ActivityLevel: "sedentary",
		BodyType:      "mesomorph",
	}
}

func TestCalculateTargetsFatLoss(t *testing.T) {
	targets, err := CalculateTargets(baseConfig())
	require.NoError(t, err)

	assert.Equal(t, 1780.0, targets.BMR)
	assert.Equal(t, 2136.0, targets.TDEE)
	assert.Less(t, targets.Calories, targets.TDEE)
	assert.Equal(t, 1762.0, targets.Calories)
	assert.Equal(t, 175.0, targets.Protein)
	assert.Equal(t, 59.0, targets.Fat)
	assert.Equal(t, 133.0, targets.Carbs)
	assert.GreaterOrEqual(t, targets.GoalTimeframeWeeks, 8)
	assert.LessOrEqual(t, targets.GoalTimeframeWeeks, 16)
	assert.Nil(t, targets.LeanBodyMass)
	assert.Empty(t, targets.Warnings)
	assert.NotEmpty(t, targets.Explanation)
}

func TestCalculateTargetsMacrosAddUp(t *testing.T) {
	goals := []string{"fat_loss", "muscle_gain", "maintenance", "performance"}
	intensities := []string{"conservative", "moderate", "aggressive"}
	sexes := []string{"male", "female", "non_binary"}
	bodyTypes := []string{"ectomorph", "mesomorph", "endomorph"}

	for _, g := range goals {
		for _, i := range intensities {
			for _, s := range sexes {
				for _, b := range bodyTypes {
					config := baseConfig()
					config.GoalType, config.Intensity, config.Sex, config.BodyType = g, i, s, b
					targets, err := CalculateTargets(config)
					require.NoError(t, err, "%s/%s/%s/%s", g, i, s, b)

					assert.GreaterOrEqual(t, targets.Protein, 0.0)
					assert.GreaterOrEqual(t, targets.Carbs, 0.0)
					assert.GreaterOrEqual(t, targets.Fat, 0.0)
					kcal := 4*targets.Protein + 4*targets.Carbs + 9*targets.Fat
					assert.InDelta(t, targets.Calories, kcal, 2, "%s/%s/%s/%s", g, i, s, b)
				}
			}
		}
	}
}

func TestCalculateTargetsDeterministic(t *testing.T) {
	first, err := CalculateTargets(baseConfig())
	require.NoError(t, err)
	second, err := CalculateTargets(baseConfig())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCalculateTargetsLeanBodyMass(t *testing.T) {
	config := baseConfig()
	config.GoalType = "maintenance"
	bf := 20.0
	config.BodyFatPercent = &bf

	targets, err := CalculateTargets(config)
	require.NoError(t, err)
	require.NotNil(t, targets.LeanBodyMass)
	assert.InDelta(t, 141.1, *targets.LeanBodyMass, 0.01)
	assert.Equal(t, 2136.0, targets.Calories)
	// 2.0 g/kg of 64 kg lean mass, rounded to the nearest 5
	assert.Equal(t, 130.0, targets.Protein)

	config.Age = 55
	older, err := CalculateTargets(config)
	require.NoError(t, err)
	assert.Greater(t, older.Protein, 0.0)
	assert.Equal(t, 0.0, float64(int(older.Protein)%5))
}

func TestCalculateTargetsValidation(t *testing.T) {
	cases := map[string]func(c *structs.GoalConfiguration){
		"user_weight":      func(c *structs.GoalConfiguration) { c.WeightKg = 0 },
		"user_height":      func(c *structs.GoalConfiguration) { c.HeightCm = -1 },
		"age":              func(c *structs.GoalConfiguration) { c.Age = 0 },
		"goal_type":        func(c *structs.GoalConfiguration) { c.GoalType = "bulk" },
		"activity_level":   func(c *structs.GoalConfiguration) { c.ActivityLevel = "couch" },
		"body_fat_percent": func(c *structs.GoalConfiguration) { bf := 100.0; c.BodyFatPercent = &bf },
	}
	for field, mutate := range cases {
		config := baseConfig()
		mutate(&config)
		_, err := CalculateTargets(config)
		require.Error(t, err, field)
		var ve *apperr.ValidationError
		require.ErrorAs(t, err, &ve, field)
		assert.Equal(t, field, ve.Field)
	}
}

func TestCalculateTargetsComputationError(t *testing.T) {
	config := baseConfig()
	config.WeightKg = 1
	config.HeightCm = 1
	config.Age = 100

	_, err := CalculateTargets(config)
	assert.True(t, apperr.IsComputation(err))
}

func TestCarbGramsClampsNegative(t *testing.T) {
	carbs, warning := carbGrams(1000, 200, 50)
	assert.Equal(t, 0.0, carbs)
	assert.NotEmpty(t, warning)

	carbs, warning = carbGrams(2000, 150, 60)
	assert.Equal(t, 215.0, carbs)
	assert.Empty(t, warning)
}

func TestBasicTargets(t *testing.T) {
	targets := BasicTargets()
	assert.Equal(t, 2000.0, targets.Calories)
	assert.Equal(t, 150.0, targets.Protein)
	assert.Equal(t, 200.0, targets.Carbs)
	assert.Equal(t, 80.0, targets.Fat)
	assert.Equal(t, 12, targets.GoalTimeframeWeeks)
	assert.Equal(t, []string{"Multivitamin", "Omega-3"}, targets.Recommendations.Supplements)
}

func TestMergeProfileDefaults(t *testing.T) {
	profile := &models.Profile{
		ID: "u1", Age: 30, Sex: "male", WeightKg: 80, HeightCm: 180,
		ActivityLevel: "light", FitnessGoal: "muscle_gain", BodyType: "ectomorph",
	}

	config := MergeProfileDefaults(profile, "")
	assert.Equal(t, "muscle_gain", config.GoalType)
	assert.Equal(t, "moderate", config.Intensity)
	assert.Equal(t, 80.0, config.WeightKg)

	stored, err := json.Marshal(structs.GoalConfigRecord{GoalConfiguration: structs.GoalConfiguration{
		GoalType: "fat_loss", Intensity: "aggressive", WeightKg: 75,
	}})
	require.NoError(t, err)
	config = MergeProfileDefaults(profile, string(stored))
	assert.Equal(t, "fat_loss", config.GoalType)
	assert.Equal(t, "aggressive", config.Intensity)
	assert.Equal(t, 75.0, config.WeightKg)
	assert.Equal(t, 180.0, config.HeightCm)
	assert.Equal(t, "ectomorph", config.BodyType)
}

func TestGoalServiceSetActiveGoal(t *testing.T) {
	ctx := context.Background()
	logger, _ := test.NewNullLogger()
	s := store.NewMemoryStore()
	service := GoalService{Store: s, Logger: logrus.NewEntry(logger)}

	saved, targets, err := service.SetActiveGoal(ctx, "u1", "2026-10-17", baseConfig(), false)
	require.NoError(t, err)
	assert.Equal(t, targets.Calories, saved.CaloriesTarget)

	_, _, err = service.SetActiveGoal(ctx, "u1", "2026-10-17", baseConfig(), true)
	require.NoError(t, err)

	active, err := service.ActiveGoal(ctx, "u1", "2026-10-17")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, 2000.0, active.CaloriesTarget)

	var record structs.GoalConfigRecord
	require.NoError(t, json.Unmarshal([]byte(active.GoalConfig), &record))
	assert.True(t, record.BasicTargets)
	assert.Equal(t, "fat_loss", record.GoalType)

	bad := baseConfig()
	bad.Age = 0
	_, _, err = service.SetActiveGoal(ctx, "u1", "2026-10-17", bad, false)
	assert.True(t, apperr.IsValidation(err))
}

func TestGoalServiceSetMonthlyGoal(t *testing.T) {
	ctx := context.Background()
	logger, _ := test.NewNullLogger()
	s := store.NewMemoryStore()
	service := GoalService{Store: s, Logger: logrus.NewEntry(logger)}

	first, targets, err := service.SetMonthlyGoal(ctx, "u1", 2026, 10, baseConfig(), false)
	require.NoError(t, err)
	assert.Equal(t, targets.Calories, first.CaloriesTarget)
	assert.Equal(t, targets.Protein, first.ProteinTarget)

	// replacing keeps one active goal per month
	second, _, err := service.SetMonthlyGoal(ctx, "u1", 2026, 10, baseConfig(), true)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	active, err := service.ActiveMonthlyGoal(ctx, "u1", 2026, 10)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, 2000.0, active.CaloriesTarget)
	assert.True(t, active.IsActive)

	other, err := service.ActiveMonthlyGoal(ctx, "u1", 2026, 11)
	require.NoError(t, err)
	assert.Nil(t, other)

	// the daily goal for a day in that month is untouched
	daily, err := service.ActiveGoal(ctx, "u1", "2026-10-17")
	require.NoError(t, err)
	assert.Nil(t, daily)

	_, _, err = service.SetMonthlyGoal(ctx, "u1", 2026, 13, baseConfig(), false)
	assert.True(t, apperr.IsValidation(err))
}
