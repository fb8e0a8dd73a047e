package goal

import (
	"context"
	"encoding/json"
	"fmt"
	"macrotrack-go-worker/apperr"
	"macrotrack-go-worker/enums"
	"macrotrack-go-worker/models"
	"macrotrack-go-worker/services"
	"macrotrack-go-worker/services/store"
	"macrotrack-go-worker/structs"
	"macrotrack-go-worker/utils"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const lbsPerKg = 2.20462

var activityMultipliers = map[string]float64{
	enums.Sedentary:        1.2,
	enums.Light:            1.375,
	enums.ModerateActivity: 1.55,
	enums.Active:           1.725,
	enums.VeryActive:       1.9,
}

// intensity-indexed tables: conservative, moderate, aggressive
var intensityIndex = map[string]int{
	enums.Conservative: 0,
	enums.Moderate:     1,
	enums.Aggressive:   2,
}

var calorieAdjustments = map[string][3]float64{
	enums.FatLoss:     {-0.10, -0.175, -0.25},
	enums.MuscleGain:  {0.10, 0.15, 0.20},
	enums.Maintenance: {0, 0, 0},
	enums.Performance: {0, 0.05, 0.10},
}

// grams per kg of lean body mass
var leanProteinRates = map[string][3]float64{
	enums.FatLoss:     {2.2, 2.4, 2.6},
	enums.Maintenance: {1.8, 2.0, 2.2},
	enums.MuscleGain:  {1.6, 1.8, 2.0},
	enums.Performance: {1.6, 1.85, 2.1},
}

// grams per lb of body weight
var weightProteinRates = map[string][3]float64{
	enums.FatLoss:     {1.0, 1.075, 1.15},
	enums.Maintenance: {0.9, 0.95, 1.0},
	enums.MuscleGain:  {0.8, 0.875, 0.95},
	enums.Performance: {0.9, 0.975, 1.05},
}

var timeframeWeeks = map[string][3]int{
	enums.FatLoss:     {16, 12, 8},
	enums.MuscleGain:  {16, 14, 12},
	enums.Maintenance: {12, 12, 12},
	enums.Performance: {12, 10, 8},
}

var fatShares = map[string]float64{
	enums.FatLoss:     0.30,
	enums.MuscleGain:  0.25,
	enums.Maintenance: 0.30,
	enums.Performance: 0.25,
}

var bodyTypeFatModifiers = map[string]float64{
	enums.Ectomorph: -0.05,
	enums.Mesomorph: 0,
	enums.Endomorph: 0.05,
}

// body fat thresholds: [low, high]
var bodyFatThresholds = map[string][2]float64{
	enums.Male:      {15, 25},
	enums.Female:    {23, 35},
	enums.NonBinary: {19, 30},
}

const (
	minLeanProteinRate = 1.4
	maxLeanProteinRate = 2.7
	minFatShare        = 0.20
	maxFatShare        = 0.35
)

// CalculateTargets derives daily calorie and macro targets from a biometric
// configuration. It is deterministic and never returns NaN or negative grams.
func CalculateTargets(config structs.GoalConfiguration) (structs.CalculatedTargets, error) {
	var targets structs.CalculatedTargets
	if err := utils.ValidateStruct(config); err != nil {
		return targets, err
	}
	idx := intensityIndex[config.Intensity]

	bmr := BMR(config)
	if !positiveFinite(bmr) {
		return targets, apperr.Computation("bmr", fmt.Sprintf("must be positive, got %.2f", bmr))
	}
	tdee := bmr * activityMultipliers[config.ActivityLevel]
	if !positiveFinite(tdee) {
		return targets, apperr.Computation("tdee", fmt.Sprintf("must be positive, got %.2f", tdee))
	}
	calories := math.Round(tdee * (1 + calorieAdjustments[config.GoalType][idx]))
	if !positiveFinite(calories) {
		return targets, apperr.Computation("calories", fmt.Sprintf("must be positive, got %.2f", calories))
	}

	protein, lbm := proteinGrams(config, idx, calories)
	fatShare := clamp(fatShares[config.GoalType]+bodyTypeFatModifiers[config.BodyType], minFatShare, maxFatShare)
	fat := math.Round(calories * fatShare / 9)
	carbs, warning := carbGrams(calories, protein, fat)

	for field, v := range map[string]float64{"protein": protein, "carbs": carbs, "fat": fat} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return targets, apperr.Computation(field, fmt.Sprintf("invalid value %v", v))
		}
	}

	targets = structs.CalculatedTargets{
		Calories:           calories,
		Protein:            protein,
		Carbs:              carbs,
		Fat:                fat,
		BMR:                math.Round(bmr),
		TDEE:               math.Round(tdee),
		LeanBodyMass:       lbm,
		GoalTimeframeWeeks: timeframeWeeks[config.GoalType][idx],
		Recommendations:    recommendations(config),
	}
	if warning != "" {
		targets.Warnings = append(targets.Warnings, warning)
	}
	targets.Explanation = explanation(config, targets, fatShare)
	return targets, nil
}

// BMR is the Mifflin-St Jeor resting energy expenditure; non_binary uses the
// mean of the male and female offsets.
func BMR(config structs.GoalConfiguration) float64 {
	base := 10*config.WeightKg + 6.25*config.HeightCm - 5*float64(config.Age)
	switch config.Sex {
	case enums.Male:
		return base + 5
	case enums.Female:
		return base - 161
	default:
		return base - 78
	}
}

func proteinGrams(config structs.GoalConfiguration, idx int, calories float64) (float64, *float64) {
	weightLbs := config.WeightKg * lbsPerKg
	var grams float64
	var lbm *float64

	if config.BodyFatPercent != nil {
		bf := *config.BodyFatPercent
		leanLbs := weightLbs * (1 - bf/100)
		rate := leanProteinRates[config.GoalType][idx]
		if config.Age >= 50 {
			rate += 0.1
		}
		thresholds := bodyFatThresholds[config.Sex]
		if config.GoalType == enums.FatLoss && bf < thresholds[0] {
			rate += 0.1
		}
		if bf >= thresholds[1] {
			rate -= 0.1
		}
		rate = clamp(rate, minLeanProteinRate, maxLeanProteinRate)
		grams = rate * leanLbs / lbsPerKg
		rounded := services.RoundTo(leanLbs, 1)
		lbm = &rounded
	} else {
		grams = weightProteinRates[config.GoalType][idx] * weightLbs
	}

	capShare := 0.35
	if config.GoalType == enums.FatLoss {
		capShare = 0.40
	}
	maxGrams := calories * capShare / 4
	if grams > maxGrams {
		grams = maxGrams
	}
	rounded := math.Round(grams/5) * 5
	if rounded > maxGrams {
		rounded = math.Floor(grams/5) * 5
	}
	return math.Max(rounded, 0), lbm
}

// carbGrams fills the remaining calories; a negative remainder is clamped to
// zero with a warning.
func carbGrams(calories, protein, fat float64) (float64, string) {
	carbs := math.Round((calories - 4*protein - 9*fat) / 4)
	if carbs < 0 {
		return 0, fmt.Sprintf("protein and fat targets exceed %.0f kcal; carbohydrates set to 0", calories)
	}
	return carbs, ""
}

func recommendations(config structs.GoalConfiguration) structs.Recommendations {
	liters := services.RoundTo(config.WeightKg*0.035, 1)
	rec := structs.Recommendations{
		Hydration:   fmt.Sprintf("Drink at least %.1f liters of water daily, more on training days", liters),
		Supplements: []string{"Multivitamin", "Omega-3"},
	}
	switch config.GoalType {
	case enums.FatLoss:
		rec.MealTiming = "Eat 3-4 meals per day with 25-40g protein at each meal"
		rec.Supplements = append(rec.Supplements, "Whey protein")
		rec.Tips = []string{"Prioritize protein and vegetables at each meal", "Weigh yourself at the same time each morning", "Keep strength training to preserve lean mass"}
	case enums.MuscleGain:
		rec.MealTiming = "Eat 4-5 meals per day, including protein and carbohydrates around training"
		rec.Supplements = append(rec.Supplements, "Whey protein", "Creatine monohydrate")
		rec.Tips = []string{"Progressively increase training load", "Sleep 7-9 hours per night", "Adjust calories if weight gain stalls for two weeks"}
	case enums.Performance:
		rec.MealTiming = "Eat a carbohydrate-rich meal 2-3 hours before training and protein within 2 hours after"
		rec.Supplements = append(rec.Supplements, "Creatine monohydrate", "Electrolytes")
		rec.Tips = []string{"Time carbohydrates around sessions", "Track training performance alongside intake"}
	default:
		rec.MealTiming = "Eat 3-4 meals per day with protein at each meal"
		rec.Tips = []string{"Track your food intake", "Stay consistent with your goals"}
	}
	return rec
}

func explanation(config structs.GoalConfiguration, t structs.CalculatedTargets, fatShare float64) string {
	goalName := strings.ReplaceAll(config.GoalType, "_", " ")
	return fmt.Sprintf(
		"Your BMR is %.0f kcal and your TDEE at a %s activity level is %.0f kcal. For %s at %s intensity the daily target is %.0f kcal: %.0fg protein, %.0fg fat (%.0f%% of calories) and %.0fg carbohydrates, over roughly %d weeks.",
		t.BMR, strings.ReplaceAll(config.ActivityLevel, "_", " "), t.TDEE, goalName, config.Intensity,
		t.Calories, t.Protein, t.Fat, fatShare*100, t.Carbs, t.GoalTimeframeWeeks,
	)
}

// BasicTargets is the manual fallback used when a personalized calculation
// is unavailable.
func BasicTargets() structs.CalculatedTargets {
	lbm := 140.0
	return structs.CalculatedTargets{
		Calories:           2000,
		Protein:            150,
		Carbs:              200,
		Fat:                80,
		BMR:                1600,
		TDEE:               2000,
		LeanBodyMass:       &lbm,
		GoalTimeframeWeeks: 12,
		Recommendations: structs.Recommendations{
			MealTiming:  "Eat 3-4 meals per day with protein at each meal",
			Hydration:   "Drink 8-10 glasses of water daily",
			Supplements: []string{"Multivitamin", "Omega-3"},
			Tips:        []string{"Track your food intake", "Stay consistent with your goals"},
		},
		Explanation: "Basic nutrition targets set. For personalized recommendations, ensure the LLM API key is configured.",
	}
}

// MergeProfileDefaults seeds a configuration. A stored goal configuration
// wins over profile fields.
func MergeProfileDefaults(profile *models.Profile, storedConfig string) structs.GoalConfiguration {
	var config structs.GoalConfiguration
	if profile != nil {
		config = structs.GoalConfiguration{
			GoalType:      profile.FitnessGoal,
			Intensity:     enums.Moderate,
			WeightKg:      profile.WeightKg,
			HeightCm:      profile.HeightCm,
			Age:           profile.Age,
			Sex:           profile.Sex,
			ActivityLevel: profile.ActivityLevel,
			BodyType:      profile.BodyType,
		}
	}
	if storedConfig != "" {
		var record structs.GoalConfigRecord
		if err := json.Unmarshal([]byte(storedConfig), &record); err == nil {
			config = overlay(config, record.GoalConfiguration)
		}
	}
	return config
}

// overlay copies every set field of stored onto base.
func overlay(base, stored structs.GoalConfiguration) structs.GoalConfiguration {
	if stored.GoalType != "" {
		base.GoalType = stored.GoalType
	}
	if stored.Intensity != "" {
		base.Intensity = stored.Intensity
	}
	if stored.WeightKg > 0 {
		base.WeightKg = stored.WeightKg
	}
	if stored.HeightCm > 0 {
		base.HeightCm = stored.HeightCm
	}
	if stored.Age > 0 {
		base.Age = stored.Age
	}
	if stored.Sex != "" {
		base.Sex = stored.Sex
	}
	if stored.ActivityLevel != "" {
		base.ActivityLevel = stored.ActivityLevel
	}
	if stored.BodyType != "" {
		base.BodyType = stored.BodyType
	}
	if stored.BodyFatPercent != nil {
		bf := *stored.BodyFatPercent
		base.BodyFatPercent = &bf
	}
	return base
}

type GoalService struct {
	Store  store.Store
	Logger *logrus.Entry
}

// SetActiveGoal calculates targets (or takes the basic fallback) and saves
// them as the only active goal for (userID, date).
func (g *GoalService) SetActiveGoal(ctx context.Context, userID, date string, config structs.GoalConfiguration, useBasic bool) (*models.DailyGoal, structs.CalculatedTargets, error) {
	targets, payload, err := g.targets(config, useBasic)
	if err != nil {
		return nil, targets, err
	}

	dailyGoal := &models.DailyGoal{
		UserID:         userID,
		Date:           date,
		CaloriesTarget: math.Round(targets.Calories),
		ProteinTarget:  services.RoundTo(targets.Protein, 2),
		CarbsTarget:    services.RoundTo(targets.Carbs, 2),
		FatTarget:      services.RoundTo(targets.Fat, 2),
		GoalConfig:     payload,
	}
	if err := g.Store.SaveActiveDailyGoal(ctx, dailyGoal); err != nil {
		g.Logger.WithError(err).Error("save daily goal failed")
		return nil, targets, err
	}
	g.Logger.WithFields(logrus.Fields{"goal_id": dailyGoal.ID, "calories": dailyGoal.CaloriesTarget, "basic": useBasic}).Info("daily goal saved")
	return dailyGoal, targets, nil
}

// SetMonthlyGoal saves per-day targets for a calendar month as the only
// active monthly goal for (userID, year, month).
func (g *GoalService) SetMonthlyGoal(ctx context.Context, userID string, year, month int, config structs.GoalConfiguration, useBasic bool) (*models.MonthlyGoal, structs.CalculatedTargets, error) {
	if month < 1 || month > 12 {
		return nil, structs.CalculatedTargets{}, apperr.Validation("month", "must be between 1 and 12")
	}
	if year < 1 {
		return nil, structs.CalculatedTargets{}, apperr.Validation("year", "must be positive")
	}
	targets, payload, err := g.targets(config, useBasic)
	if err != nil {
		return nil, targets, err
	}

	monthlyGoal := &models.MonthlyGoal{
		UserID:         userID,
		Year:           year,
		Month:          month,
		CaloriesTarget: math.Round(targets.Calories),
		ProteinTarget:  services.RoundTo(targets.Protein, 2),
		CarbsTarget:    services.RoundTo(targets.Carbs, 2),
		FatTarget:      services.RoundTo(targets.Fat, 2),
		GoalConfig:     payload,
	}
	if err := g.Store.SaveActiveMonthlyGoal(ctx, monthlyGoal); err != nil {
		g.Logger.WithError(err).Error("save monthly goal failed")
		return nil, targets, err
	}
	g.Logger.WithFields(logrus.Fields{"goal_id": monthlyGoal.ID, "year": year, "month": month, "calories": monthlyGoal.CaloriesTarget}).Info("monthly goal saved")
	return monthlyGoal, targets, nil
}

// targets returns the targets for config and the goal_config payload stored
// alongside them.
func (g *GoalService) targets(config structs.GoalConfiguration, useBasic bool) (structs.CalculatedTargets, string, error) {
	var targets structs.CalculatedTargets
	if useBasic {
		targets = BasicTargets()
	} else {
		var err error
		if targets, err = CalculateTargets(config); err != nil {
			g.Logger.WithError(err).Error("calculate targets failed")
			return targets, "", err
		}
	}

	record := structs.GoalConfigRecord{
		GoalConfiguration: config,
		CalculatedTargets: targets,
		BasicTargets:      useBasic,
		CreatedAt:         time.Now().UTC().Format(time.RFC3339),
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return targets, "", err
	}
	return targets, string(payload), nil
}

func (g *GoalService) ActiveGoal(ctx context.Context, userID, date string) (*models.DailyGoal, error) {
	return g.Store.GetActiveDailyGoal(ctx, userID, date)
}

func (g *GoalService) ActiveMonthlyGoal(ctx context.Context, userID string, year, month int) (*models.MonthlyGoal, error) {
	return g.Store.GetActiveMonthlyGoal(ctx, userID, year, month)
}

func positiveFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
