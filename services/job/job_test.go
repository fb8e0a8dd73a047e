package job

import (
	"context"
	"encoding/json"
	"macrotrack-go-worker/models"
	"macrotrack-go-worker/services/estimate"
	"macrotrack-go-worker/services/store"
	"macrotrack-go-worker/structs"
	"macrotrack-go-worker/utils"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cannedEstimator struct{}

func (cannedEstimator) Estimate(ctx context.Context, description string, estimationContext structs.EstimationContext) (structs.EstimationResult, error) {
	return structs.EstimationResult{
		MealName: "Oatmeal",
		MealType: estimationContext.MealType,
		FoodItems: []structs.FoodItem{
			{Name: "oats", Quantity: 40, Unit: "g", Calories: 150, Protein: 5, Carbs: 27, Fat: 3},
			{Name: "blueberries", Quantity: 50, Unit: "g", Calories: 29, Protein: 0.4, Carbs: 7, Fat: 0.2},
		},
		ConfidenceScore: 0.9,
	}, nil
}

type callback struct {
	endpoint string
	payload  interface{}
}

func newRunner(t *testing.T) (*Runner, *store.MemoryStore, *[]callback) {
	previous := utils.EnvConfig
	utils.EnvConfig = &structs.EnviromentModel{}
	utils.EnvConfig.Server.AppAPI = "http://app.local"
	t.Cleanup(func() { utils.EnvConfig = previous })

	logger, _ := test.NewNullLogger()
	s := store.NewMemoryStore()
	calls := &[]callback{}
	runner := &Runner{
		Store:        s,
		Estimator:    cannedEstimator{},
		Policy:       estimate.RetryPolicy{MaxAttempts: 1, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond, Multiplier: 1},
		StoreTimeout: time.Second,
		NewLogger: func(queue, userID string, taskID uint) *logrus.Entry {
			return logrus.NewEntry(logger)
		},
		Notify: func(ctx context.Context, endpoint string, payload interface{}) error {
			*calls = append(*calls, callback{endpoint: endpoint, payload: payload})
			return nil
		},
	}
	return runner, s, calls
}

func body(t *testing.T, v interface{}) []byte {
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestHandleMismatchQueue(t *testing.T) {
	runner, s, calls := newRunner(t)
	msg := body(t, structs.MealQueueParam{TaskID: 7, MemberId: "u1", QueueType: "daily-progress", Description: "toast"})

	require.NoError(t, runner.Handle(context.Background(), "meal-estimate", msg))
	require.Len(t, *calls, 1)
	assert.Equal(t, "http://app.local/api/v1/workerCallback/mismatchQueue", (*calls)[0].endpoint)
	assert.Equal(t, structs.MismatchQueueResponse{TaskId: 7, Queue: "meal-estimate"}, (*calls)[0].payload)
	assert.Empty(t, s.ActivityLogs())
}

func TestHandleMealEstimate(t *testing.T) {
	runner, s, calls := newRunner(t)
	msg := body(t, structs.MealQueueParam{TaskID: 8, MemberId: "u1", QueueType: "meal-estimate", Description: "oatmeal with blueberries", MealType: "breakfast", Date: "2026-10-17"})

	require.NoError(t, runner.Handle(context.Background(), "meal-estimate", msg))

	meals, err := s.GetDailyMeals(context.Background(), "u1", "2026-10-17")
	require.NoError(t, err)
	require.Len(t, meals, 1)
	assert.Equal(t, 179.0, meals[0].TotalCalories)

	logs := s.ActivityLogs()
	require.Len(t, logs, 2)
	assert.Equal(t, "schedule.go.job.received", logs[0].LogName)
	assert.Equal(t, "schedule.go.meal-estimate", logs[1].LogName)
	assert.Equal(t, uint(8), logs[1].TaskID)

	require.Len(t, *calls, 1)
	assert.Equal(t, "http://app.local/api/v1/workerCallback/meal-estimate", (*calls)[0].endpoint)
	done := (*calls)[0].payload.(doneCallback)
	assert.True(t, done.Result.Result)
	assert.Equal(t, "ok", done.Result.Message)
}

func TestHandleGoalCalculateFromProfile(t *testing.T) {
	runner, s, calls := newRunner(t)
	ctx := context.Background()
	require.NoError(t, s.SaveProfile(ctx, &models.Profile{
		ID: "u1", Age: 30, Sex: "male", WeightKg: 80, HeightCm: 180,
		ActivityLevel: "sedentary", FitnessGoal: "fat_loss", BodyType: "mesomorph",
	}))
	msg := body(t, structs.GoalQueueParam{TaskID: 9, MemberId: "u1", QueueType: "goal-calculate", Date: "2026-10-17"})

	require.NoError(t, runner.Handle(ctx, "goal-calculate", msg))

	active, err := s.GetActiveDailyGoal(ctx, "u1", "2026-10-17")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, 1762.0, active.CaloriesTarget)
	done := (*calls)[0].payload.(doneCallback)
	assert.True(t, done.Result.Result)
}

func TestHandleGoalCalculateValidationFailure(t *testing.T) {
	runner, s, calls := newRunner(t)
	msg := body(t, structs.GoalQueueParam{TaskID: 10, MemberId: "u1", QueueType: "goal-calculate", Date: "2026-10-17"})

	require.NoError(t, runner.Handle(context.Background(), "goal-calculate", msg))

	done := (*calls)[0].payload.(doneCallback)
	assert.False(t, done.Result.Result)
	require.Len(t, done.Result.Messages, 1)
	assert.Equal(t, "validation", done.Result.Messages[0].ErrorKind)
	assert.Len(t, s.ActivityLogs(), 2)
}

func TestHandleGoalCalculateMonthly(t *testing.T) {
	runner, s, calls := newRunner(t)
	ctx := context.Background()
	msg := body(t, structs.GoalQueueParam{
		TaskID: 13, MemberId: "u1", QueueType: "goal-calculate", Date: "2026-10-17",
		Period: "monthly", UseBasicTargets: true,
	})

	require.NoError(t, runner.Handle(ctx, "goal-calculate", msg))

	done := (*calls)[0].payload.(doneCallback)
	require.True(t, done.Result.Result)
	data := done.Data.(map[string]interface{})
	assert.Equal(t, 2026, data["year"])
	assert.Equal(t, 10, data["month"])

	monthly, err := s.GetActiveMonthlyGoal(ctx, "u1", 2026, 10)
	require.NoError(t, err)
	require.NotNil(t, monthly)
	assert.Equal(t, 2000.0, monthly.CaloriesTarget)
	daily, err := s.GetActiveDailyGoal(ctx, "u1", "2026-10-17")
	require.NoError(t, err)
	assert.Nil(t, daily)

	require.NoError(t, runner.Handle(ctx, "goal-calculate", body(t, structs.GoalQueueParam{
		TaskID: 14, MemberId: "u1", QueueType: "goal-calculate", Period: "yearly",
	})))
	last := (*calls)[len(*calls)-1].payload.(doneCallback)
	assert.False(t, last.Result.Result)
	assert.Equal(t, "validation", last.Result.Messages[0].ErrorKind)
}

func TestHandleFoodCorrection(t *testing.T) {
	runner, s, calls := newRunner(t)
	ctx := context.Background()
	require.NoError(t, runner.Handle(ctx, "meal-estimate", body(t, structs.MealQueueParam{
		TaskID: 1, MemberId: "u1", QueueType: "meal-estimate", Description: "oatmeal", Date: "2026-10-17",
	})))
	meals, err := s.GetDailyMeals(ctx, "u1", "2026-10-17")
	require.NoError(t, err)
	oats := meals[0].FoodItems[0]

	calories := 200.0
	require.NoError(t, runner.Handle(ctx, "food-correction", body(t, structs.CorrectionQueueParam{
		TaskID: 2, MemberId: "u1", QueueType: "food-correction", Action: "save", FoodItemID: oats.ID,
		Patch: structs.MacroPatch{Calories: &calories},
	})))
	meal, err := s.GetMeal(ctx, "u1", meals[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 229.0, meal.TotalCalories)

	require.NoError(t, runner.Handle(ctx, "food-correction", body(t, structs.CorrectionQueueParam{
		TaskID: 3, MemberId: "u1", QueueType: "food-correction", Action: "delete_meal", MealID: meals[0].ID,
	})))
	meals, err = s.GetDailyMeals(ctx, "u1", "2026-10-17")
	require.NoError(t, err)
	assert.Empty(t, meals)

	require.NoError(t, runner.Handle(ctx, "food-correction", body(t, structs.CorrectionQueueParam{
		TaskID: 4, MemberId: "u1", QueueType: "food-correction", Action: "explode", FoodItemID: 1,
	})))
	last := (*calls)[len(*calls)-1].payload.(doneCallback)
	assert.False(t, last.Result.Result)
	assert.Equal(t, "validation", last.Result.Messages[0].ErrorKind)
}

func TestHandleDailyProgress(t *testing.T) {
	runner, s, calls := newRunner(t)
	ctx := context.Background()

	// no active goal yet: reported, not stored
	require.NoError(t, runner.Handle(ctx, "daily-progress", body(t, structs.ProgressQueueParam{
		TaskID: 4, MemberId: "u1", QueueType: "daily-progress", Date: "2026-10-17",
	})))
	rows, err := s.ListGoalProgress(ctx, "u1", "2026-10-17", "2026-10-17")
	require.NoError(t, err)
	assert.Empty(t, rows)

	require.NoError(t, s.SaveActiveDailyGoal(ctx, &models.DailyGoal{UserID: "u1", Date: "2026-10-17", CaloriesTarget: 2000}))
	require.NoError(t, runner.Handle(ctx, "daily-progress", body(t, structs.ProgressQueueParam{
		TaskID: 5, MemberId: "u1", QueueType: "daily-progress", Date: "2026-10-17",
	})))
	rows, err = s.ListGoalProgress(ctx, "u1", "2026-10-17", "2026-10-17")
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	require.NoError(t, runner.Handle(ctx, "daily-progress", body(t, structs.ProgressQueueParam{
		TaskID: 6, MemberId: "u1", QueueType: "daily-progress", StartDate: "2026-10-01", EndDate: "2026-10-31",
	})))
	last := (*calls)[len(*calls)-1].payload.(doneCallback)
	assert.True(t, last.Result.Result)
	assert.Len(t, last.Data, 1)
}

type cannedAdvisor struct{}

func (cannedAdvisor) AdviseBalance(ctx context.Context, consumed, targets structs.MacroTotals, analysis structs.BalanceAnalysis) ([]string, error) {
	return []string{"Add a lean protein at dinner"}, nil
}

func TestHandleDailyProgressBalance(t *testing.T) {
	runner, s, calls := newRunner(t)
	runner.Advisor = cannedAdvisor{}
	ctx := context.Background()
	require.NoError(t, s.SaveActiveDailyGoal(ctx, &models.DailyGoal{UserID: "u1", Date: "2026-10-17", CaloriesTarget: 2000, ProteinTarget: 150}))

	require.NoError(t, runner.Handle(ctx, "daily-progress", body(t, structs.ProgressQueueParam{
		TaskID: 8, MemberId: "u1", QueueType: "daily-progress", Date: "2026-10-17", Balance: true,
	})))
	done := (*calls)[0].payload.(doneCallback)
	require.True(t, done.Result.Result)
	report := done.Data.(structs.DailyProgressReport)
	require.NotNil(t, report.Balance)
	assert.Equal(t, "under", report.Balance.Analysis.CalorieBalance)
	assert.Equal(t, []string{"Add a lean protein at dinner"}, report.Balance.Recommendations)
	assert.Equal(t, 2000.0, report.Balance.RemainingTargets.Calories)
}

func TestHandleRejectsGarbage(t *testing.T) {
	runner, _, calls := newRunner(t)
	assert.Error(t, runner.Handle(context.Background(), "meal-estimate", []byte("not json")))
	assert.Empty(t, *calls)
}

func TestHandleQueuesProgressFollowUp(t *testing.T) {
	runner, _, _ := newRunner(t)
	var queued []structs.ProgressQueueParam
	runner.Enqueue = func(queue string, payload interface{}) error {
		assert.Equal(t, "daily-progress", queue)
		queued = append(queued, payload.(structs.ProgressQueueParam))
		return nil
	}

	require.NoError(t, runner.Handle(context.Background(), "meal-estimate", body(t, structs.MealQueueParam{
		TaskID: 11, MemberId: "u1", QueueType: "meal-estimate", Description: "oatmeal", Date: "2026-10-17",
	})))
	require.Len(t, queued, 1)
	assert.Equal(t, "2026-10-17", queued[0].Date)
	assert.Equal(t, "daily-progress", queued[0].QueueType)
	assert.Equal(t, "u1", queued[0].MemberId)

	// failed jobs queue nothing
	require.NoError(t, runner.Handle(context.Background(), "goal-calculate", body(t, structs.GoalQueueParam{
		TaskID: 12, MemberId: "u1", QueueType: "goal-calculate",
	})))
	assert.Len(t, queued, 1)
}
