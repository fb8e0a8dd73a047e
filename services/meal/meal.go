package meal

import (
	"context"
	"encoding/json"
	"fmt"
	"macrotrack-go-worker/apperr"
	"macrotrack-go-worker/enums"
	"macrotrack-go-worker/models"
	"macrotrack-go-worker/services/correction"
	"macrotrack-go-worker/services/estimate"
	"macrotrack-go-worker/services/store"
	"macrotrack-go-worker/structs"
	"macrotrack-go-worker/utils"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

type MealService struct {
	Store       store.Store
	Estimator   estimate.Estimator
	Policy      estimate.RetryPolicy
	Corrections *correction.CorrectionService
	Logger      *logrus.Entry
}

func NewMealService(s store.Store, estimator estimate.Estimator, policy estimate.RetryPolicy, logger *logrus.Entry) *MealService {
	return &MealService{
		Store:       s,
		Estimator:   estimator,
		Policy:      policy,
		Corrections: &correction.CorrectionService{Store: s, Logger: logger},
		Logger:      logger,
	}
}

type mealData struct {
	OriginalInput   string              `json:"original_input"`
	ConfidenceScore float64             `json:"confidence_score"`
	AITotals        structs.MacroTotals `json:"ai_totals"`
	EstimatedAt     string              `json:"estimated_at"`
}

// LogMeal estimates a described meal, applies the user's corrections and
// stores the meal with its items. Nothing is written unless the estimate
// validated.
func (m *MealService) LogMeal(ctx context.Context, param structs.MealQueueParam) (*models.Meal, error) {
	if err := utils.ValidateStruct(param); err != nil {
		return nil, err
	}
	date := param.Date
	if date == "" {
		date = utils.Today()
	}
	mealType := param.MealType
	if mealType == "" {
		mealType = enums.DefaultMeal
	}

	estimationContext, err := m.buildContext(ctx, param.MemberId, date, mealType)
	if err != nil {
		return nil, err
	}

	m.Logger.WithFields(logrus.Fields{"date": date, "meal_type": mealType, "previous_foods": len(estimationContext.PreviousFoods)}).Info("estimating meal")
	result, err := estimate.EstimateWithRetry(ctx, m.Estimator, m.Policy, m.Logger, param.Description, estimationContext)
	if err != nil {
		m.Logger.WithError(err).Error("estimate meal failed")
		return nil, err
	}

	items, err := m.Corrections.ApplyCorrections(ctx, param.MemberId, result.FoodItems)
	if err != nil {
		return nil, err
	}
	totals := correction.RecalculateTotals(items)

	data, err := json.Marshal(mealData{
		OriginalInput:   param.Description,
		ConfidenceScore: result.ConfidenceScore,
		AITotals: structs.MacroTotals{
			Calories: result.TotalCalories,
			Protein:  result.TotalProtein,
			Carbs:    result.TotalCarbs,
			Fat:      result.TotalFat,
		},
		EstimatedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, err
	}

	meal := &models.Meal{
		UserID:   param.MemberId,
		Name:     result.MealName,
		MealType: mealType,
		Date:     date,
		MealData: string(data),
	}
	meal.SetTotals(totals)
	for i, item := range items {
		var entity models.FoodItem
		entity.ApplyStruct(item)
		if raw, err := json.Marshal(result.FoodItems[i]); err == nil {
			entity.AIData = string(raw)
		}
		meal.FoodItems = append(meal.FoodItems, entity)
	}

	if err := m.Store.CreateMeal(ctx, meal); err != nil {
		m.Logger.WithError(err).Error("save meal failed")
		return nil, err
	}
	m.Logger.WithFields(logrus.Fields{"meal_id": meal.ID, "items": len(meal.FoodItems), "calories": totals.Calories}).Info("meal logged")
	return meal, nil
}

func (m *MealService) buildContext(ctx context.Context, userID, date, mealType string) (structs.EstimationContext, error) {
	estimationContext := structs.EstimationContext{MealType: mealType, PreviousFoods: []string{}}

	goal, err := m.Store.GetActiveDailyGoal(ctx, userID, date)
	if err != nil {
		return estimationContext, err
	}
	if goal != nil {
		targets := goal.Targets()
		estimationContext.UserGoals = &targets
	}

	meals, err := m.Store.GetDailyMeals(ctx, userID, date)
	if err != nil {
		return estimationContext, err
	}
	seen := make(map[string]bool)
	for _, meal := range meals {
		for _, item := range meal.FoodItems {
			key := correction.Normalize(item.Name)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			estimationContext.PreviousFoods = append(estimationContext.PreviousFoods, strings.TrimSpace(item.Name))
		}
	}
	return estimationContext, nil
}

func (m *MealService) ownedItem(ctx context.Context, userID string, itemID int64) (*models.FoodItem, error) {
	item, err := m.Store.GetFoodItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, apperr.Validation("food_item_id", fmt.Sprintf("food item %d not found", itemID))
	}
	return item, nil
}

// CorrectFoodItem saves a correction for the item's food name and applies it
// to the item.
func (m *MealService) CorrectFoodItem(ctx context.Context, userID string, itemID int64, patch structs.MacroPatch, reason string) (*models.FoodItem, error) {
	if patch.Empty() {
		return nil, apperr.Validation("patch", "must change at least one value")
	}
	item, err := m.ownedItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	record, err := m.Corrections.SaveCorrection(ctx, userID, item.ToStruct(), patch, reason)
	if err != nil {
		return nil, err
	}
	applied, err := m.Corrections.ApplyCorrections(ctx, userID, []structs.FoodItem{item.ToStruct()})
	if err != nil {
		return nil, err
	}
	item.ApplyStruct(applied[0])
	if err := m.Store.UpdateFoodItem(ctx, item); err != nil {
		return nil, err
	}
	if _, err := m.RecomputeMealTotals(ctx, userID, item.MealID); err != nil {
		return nil, err
	}
	m.Logger.WithFields(logrus.Fields{"food_item_id": item.ID, "food_name": record.FoodName, "reason": record.CorrectionReason}).Info("food item corrected")
	return item, nil
}

// ResetFoodItem drops the correction for the item's food name and restores
// the item's original values.
func (m *MealService) ResetFoodItem(ctx context.Context, userID string, itemID int64) (*models.FoodItem, error) {
	item, err := m.ownedItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if err := m.Corrections.DeleteCorrection(ctx, userID, item.Name); err != nil {
		return nil, err
	}
	applied, err := m.Corrections.ApplyCorrections(ctx, userID, []structs.FoodItem{item.ToStruct()})
	if err != nil {
		return nil, err
	}
	item.ApplyStruct(applied[0])
	if err := m.Store.UpdateFoodItem(ctx, item); err != nil {
		return nil, err
	}
	if _, err := m.RecomputeMealTotals(ctx, userID, item.MealID); err != nil {
		return nil, err
	}
	m.Logger.WithField("food_item_id", item.ID).Info("food item reset")
	return item, nil
}

func (m *MealService) DeleteFoodItem(ctx context.Context, userID string, itemID int64) error {
	item, err := m.ownedItem(ctx, userID, itemID)
	if err != nil {
		return err
	}
	if err := m.Store.DeleteFoodItem(ctx, item.ID); err != nil {
		return err
	}
	_, err = m.RecomputeMealTotals(ctx, userID, item.MealID)
	return err
}

func (m *MealService) DeleteMeal(ctx context.Context, userID string, mealID int64) error {
	if err := m.Store.DeleteMeal(ctx, userID, mealID); err != nil {
		return err
	}
	m.Logger.WithField("meal_id", mealID).Info("meal deleted")
	return nil
}

// RecomputeMealTotals re-sums the meal's items and overwrites its cached totals.
func (m *MealService) RecomputeMealTotals(ctx context.Context, userID string, mealID int64) (structs.MacroTotals, error) {
	var totals structs.MacroTotals
	meal, err := m.Store.GetMeal(ctx, userID, mealID)
	if err != nil {
		return totals, err
	}
	if meal == nil {
		return totals, apperr.Validation("meal_id", fmt.Sprintf("meal %d not found", mealID))
	}
	totals = correction.RecalculateTotals(models.FoodItemsToStructs(meal.FoodItems))
	if err := m.Store.UpdateMealTotals(ctx, mealID, totals); err != nil {
		return totals, err
	}
	return totals, nil
}

// DailyTotals sums every item of every meal the user logged on date.
func (m *MealService) DailyTotals(ctx context.Context, userID, date string) (structs.MacroTotals, []models.Meal, error) {
	var totals structs.MacroTotals
	meals, err := m.Store.GetDailyMeals(ctx, userID, date)
	if err != nil {
		return totals, nil, err
	}
	for _, meal := range meals {
		totals = totals.Add(correction.RecalculateTotals(models.FoodItemsToStructs(meal.FoodItems)))
	}
	return totals, meals, nil
}
