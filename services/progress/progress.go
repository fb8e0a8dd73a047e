package progress

import (
	"context"
	"macrotrack-go-worker/apperr"
	"macrotrack-go-worker/enums"
	"macrotrack-go-worker/models"
	"macrotrack-go-worker/services"
	"macrotrack-go-worker/services/correction"
	"macrotrack-go-worker/services/estimate"
	"macrotrack-go-worker/services/store"
	"macrotrack-go-worker/structs"
	"time"

	"github.com/sirupsen/logrus"
)

const dateLayout = "2006-01-02"

type ProgressService struct {
	Store  store.Store
	Logger *logrus.Entry
	// Advisor writes balance recommendations; optional.
	Advisor estimate.Advisor
}

// Calculate compares the day's intake against the active goal and upserts
// the daily GoalProgress row. Without an active goal the report is returned
// with zero targets and nothing is stored.
func (p *ProgressService) Calculate(ctx context.Context, userID, date string) (structs.DailyProgressReport, error) {
	report := structs.DailyProgressReport{UserID: userID, Date: date}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return report, apperr.Validation("date", "must be YYYY-MM-DD")
	}

	// 計算當日攝取
	p.Logger.WithField("date", date).Info("計算當日攝取")
	meals, err := p.Store.GetDailyMeals(ctx, userID, date)
	if err != nil {
		return report, err
	}
	var consumed structs.MacroTotals
	for _, meal := range meals {
		consumed = consumed.Add(correction.RecalculateTotals(models.FoodItemsToStructs(meal.FoodItems)))
	}
	report.MealCount = len(meals)

	var targets structs.MacroTotals
	goal, err := p.Store.GetActiveDailyGoal(ctx, userID, date)
	if err != nil {
		return report, err
	}
	if goal != nil {
		targets = goal.Targets()
		report.GoalID = goal.ID
	}

	activities, err := p.Store.GetActivityData(ctx, userID, date)
	if err != nil {
		return report, err
	}
	for _, activity := range activities {
		report.ActivityCalories += activity.CaloriesBurned
	}

	report.Nutrients = structs.Nutrient{
		Calories: nutrientItem(consumed.Calories, targets.Calories),
		Protein:  nutrientItem(consumed.Protein, targets.Protein),
		Carbs:    nutrientItem(consumed.Carbs, targets.Carbs),
		Fat:      nutrientItem(consumed.Fat, targets.Fat),
	}

	// 沒有目標時只回報攝取, 不寫進度
	if goal == nil {
		p.Logger.WithField("date", date).Warn("no active goal, progress not stored")
		return report, nil
	}

	row := &models.GoalProgress{
		UserID:           userID,
		Date:             date,
		GoalType:         enums.DailyGoalType,
		GoalID:           report.GoalID,
		CaloriesActual:   report.Nutrients.Calories.Consumed,
		CaloriesTarget:   report.Nutrients.Calories.Goal,
		CaloriesProgress: report.Nutrients.Calories.Percent,
		ProteinActual:    report.Nutrients.Protein.Consumed,
		ProteinTarget:    report.Nutrients.Protein.Goal,
		ProteinProgress:  report.Nutrients.Protein.Percent,
		CarbsActual:      report.Nutrients.Carbs.Consumed,
		CarbsTarget:      report.Nutrients.Carbs.Goal,
		CarbsProgress:    report.Nutrients.Carbs.Percent,
		FatActual:        report.Nutrients.Fat.Consumed,
		FatTarget:        report.Nutrients.Fat.Goal,
		FatProgress:      report.Nutrients.Fat.Percent,
		ActivityCalories: report.ActivityCalories,
	}
	if err := p.Store.SaveGoalProgress(ctx, row); err != nil {
		p.Logger.WithError(err).Error("儲存進度時，錯誤")
		return report, err
	}
	p.Logger.WithFields(logrus.Fields{"date": date, "calories_progress": row.CaloriesProgress, "meals": report.MealCount}).Info("進度計算完成")
	return report, nil
}

// Analytics lists stored daily progress between start and end, inclusive.
func (p *ProgressService) Analytics(ctx context.Context, userID, start, end string) ([]models.GoalProgress, error) {
	startDate, err := time.Parse(dateLayout, start)
	if err != nil {
		return nil, apperr.Validation("start_date", "must be YYYY-MM-DD")
	}
	endDate, err := time.Parse(dateLayout, end)
	if err != nil {
		return nil, apperr.Validation("end_date", "must be YYYY-MM-DD")
	}
	if endDate.Before(startDate) {
		return nil, apperr.Validation("end_date", "must not be before start_date")
	}
	return p.Store.ListGoalProgress(ctx, userID, start, end)
}

// 計算營養素達成度, 0 when there is no target
func nutrientItem(consumed, goal float64) structs.NutrientItem {
	item := structs.NutrientItem{
		Consumed: services.RoundTo(consumed, 2),
		Goal:     services.RoundTo(goal, 2),
	}
	if goal > 0 {
		item.Percent = services.RoundTo(consumed/goal*100, 1)
	}
	return item
}
