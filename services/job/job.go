package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"macrotrack-go-worker/apperr"
	"macrotrack-go-worker/enums"
	"macrotrack-go-worker/models"
	"macrotrack-go-worker/services"
	"macrotrack-go-worker/services/estimate"
	"macrotrack-go-worker/services/goal"
	logLib "macrotrack-go-worker/services/log"
	"macrotrack-go-worker/services/meal"
	"macrotrack-go-worker/services/progress"
	"macrotrack-go-worker/services/store"
	"macrotrack-go-worker/services/trackLog"
	"macrotrack-go-worker/structs"
	"macrotrack-go-worker/utils"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Queues lists every queue the worker consumes.
var Queues = []string{enums.MealEstimateQueue, enums.FoodCorrectionQueue, enums.GoalCalculateQueue, enums.DailyProgressQueue}

// envelope holds the fields every job message carries.
type envelope struct {
	TaskID    uint   `json:"task_id"`
	MemberId  string `json:"member_id"`
	Type      string `json:"type"`
	QueueType string `json:"queue_type"`
	IsDie     bool   `json:"is_die"`
}

type Runner struct {
	Store     store.Store
	Estimator estimate.Estimator
	// Advisor writes meal balance recommendations; nil falls back to a fixed message.
	Advisor      estimate.Advisor
	Policy       estimate.RetryPolicy
	StoreTimeout time.Duration
	// NewLogger builds the per-job logger; LogService.TaskLogger when nil.
	NewLogger func(queue, userID string, taskID uint) *logrus.Entry
	// Notify posts a callback to the app API; nil disables callbacks.
	Notify func(ctx context.Context, endpoint string, payload interface{}) error
	// Enqueue publishes a follow-up job; nil disables follow-ups.
	Enqueue func(queue string, payload interface{}) error
}

// NewRunner wires a runner from the loaded configuration.
func NewRunner(s store.Store, estimator estimate.Estimator) *Runner {
	runner := &Runner{
		Store:        s,
		Estimator:    estimator,
		Policy:       estimate.PolicyFromConfig(),
		StoreTimeout: utils.ParseDuration(utils.EnvConfig.Store.Timeout, 30*time.Second),
		Notify:       postCallback,
	}
	if advisor, ok := estimator.(estimate.Advisor); ok {
		runner.Advisor = advisor
	}
	return runner
}

func postCallback(ctx context.Context, endpoint string, payload interface{}) error {
	_, err := services.HttpRequest(ctx, http.MethodPost, endpoint, nil, payload)
	return err
}

func (r *Runner) logger(queue, userID string, taskID uint) *logrus.Entry {
	if r.NewLogger != nil {
		return r.NewLogger(queue, userID, taskID)
	}
	var logService logLib.LogService
	return logService.TaskLogger(queue, userID, taskID)
}

// Handle runs one delivery of queue. It returns an error only when body is
// not a job message at all; job failures are recorded and reported through
// the callback instead.
func (r *Runner) Handle(ctx context.Context, queue string, body []byte) error {
	var head envelope
	if err := json.Unmarshal(body, &head); err != nil {
		trackLog.Error(fmt.Sprintf("Queue[%s] 無法解析資料: %s", queue, err.Error()), true)
		return err
	}
	// 檢查queue是否正確
	if head.QueueType != queue {
		r.notifyMismatchQueue(ctx, head.TaskID, queue, head.QueueType)
		return nil
	}
	if head.IsDie {
		panic(fmt.Sprintf("task %d asked the worker to die", head.TaskID))
	}

	correlationID := uuid.NewString()
	logger := r.logger(queue, head.MemberId, head.TaskID).WithField("correlation_id", correlationID)
	_ = r.insertActivityLog(ctx, "schedule.go.job.received", head.MemberId, head.TaskID,
		fmt.Sprintf("(%d), queue name: %s, start...", head.TaskID, queue))

	started := time.Now()
	var result interface{}
	var param interface{}
	var err error
	switch queue {
	case enums.MealEstimateQueue:
		var p structs.MealQueueParam
		if err = json.Unmarshal(body, &p); err == nil {
			result, err = r.mealEstimate(ctx, logger, p)
		}
		param = &p
	case enums.FoodCorrectionQueue:
		var p structs.CorrectionQueueParam
		if err = json.Unmarshal(body, &p); err == nil {
			result, err = r.foodCorrection(ctx, logger, p)
		}
		param = &p
	case enums.GoalCalculateQueue:
		var p structs.GoalQueueParam
		if err = json.Unmarshal(body, &p); err == nil {
			result, err = r.goalCalculate(ctx, logger, p)
		}
		param = &p
	case enums.DailyProgressQueue:
		var p structs.ProgressQueueParam
		if err = json.Unmarshal(body, &p); err == nil {
			result, err = r.dailyProgress(ctx, logger, p)
		}
		param = &p
	default:
		err = apperr.Validation("queue", "unknown queue "+queue)
	}

	record := structs.ActivityLogJsonModel{
		Type:      head.Type,
		MemberID:  head.MemberId,
		Queue:     queue,
		TaskID:    head.TaskID,
		Result:    err == nil,
		Message:   "ok",
		ElapsedMs: time.Since(started).Milliseconds(),
	}
	if err != nil {
		record.Message = err.Error()
		record.Messages = append(record.Messages, structs.ErrorModel{MemberID: head.MemberId, ErrorKind: errorKind(err), ErrorMessage: err.Error()})
		logger.WithError(err).WithField("error_kind", errorKind(err)).Error("job failed")
	} else {
		logger.WithField("elapsed_ms", record.ElapsedMs).Info("job done")
		r.followUp(logger, queue, head, param)
	}

	if logErr := r.insertActivityLog(ctx, "schedule.go."+queue, head.MemberId, head.TaskID, record); logErr != nil {
		trackLog.Error(logErr.Error(), true)
	}
	r.jobDoneNotify(ctx, queue, head.TaskID, param, record, result)
	return nil
}

func (r *Runner) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.StoreTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.StoreTimeout)
}

func (r *Runner) mealService(logger *logrus.Entry) *meal.MealService {
	return meal.NewMealService(r.Store, r.Estimator, r.Policy, logger)
}

func (r *Runner) mealEstimate(ctx context.Context, logger *logrus.Entry, p structs.MealQueueParam) (interface{}, error) {
	return r.mealService(logger).LogMeal(ctx, p)
}

func (r *Runner) foodCorrection(ctx context.Context, logger *logrus.Entry, p structs.CorrectionQueueParam) (interface{}, error) {
	if err := utils.ValidateStruct(p); err != nil {
		return nil, err
	}
	ctx, cancel := r.storeContext(ctx)
	defer cancel()

	service := r.mealService(logger)
	switch p.Action {
	case enums.CorrectionSave:
		return service.CorrectFoodItem(ctx, p.MemberId, p.FoodItemID, p.Patch, p.Reason)
	case enums.CorrectionReset:
		return service.ResetFoodItem(ctx, p.MemberId, p.FoodItemID)
	case enums.CorrectionDelete:
		return nil, service.DeleteFoodItem(ctx, p.MemberId, p.FoodItemID)
	default:
		return nil, service.DeleteMeal(ctx, p.MemberId, p.MealID)
	}
}

func (r *Runner) goalCalculate(ctx context.Context, logger *logrus.Entry, p structs.GoalQueueParam) (interface{}, error) {
	if err := utils.ValidateStruct(p); err != nil {
		return nil, err
	}
	ctx, cancel := r.storeContext(ctx)
	defer cancel()

	date := p.Date
	if date == "" {
		date = utils.Today()
	}
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, apperr.Validation("date", "must be YYYY-MM-DD")
	}
	year, month := p.Year, p.Month
	if year == 0 {
		year = day.Year()
	}
	if month == 0 {
		month = int(day.Month())
	}
	monthly := p.Period == enums.MonthlyGoalType
	service := goal.GoalService{Store: r.Store, Logger: logger}

	var config structs.GoalConfiguration
	if p.Config != nil {
		config = *p.Config
	} else {
		profile, err := r.Store.GetProfile(ctx, p.MemberId)
		if err != nil {
			return nil, err
		}
		// 沿用目前目標的設定
		var stored string
		if monthly {
			existing, err := service.ActiveMonthlyGoal(ctx, p.MemberId, year, month)
			if err != nil {
				return nil, err
			}
			if existing != nil {
				stored = existing.GoalConfig
			}
		} else {
			existing, err := service.ActiveGoal(ctx, p.MemberId, date)
			if err != nil {
				return nil, err
			}
			if existing != nil {
				stored = existing.GoalConfig
			}
		}
		config = goal.MergeProfileDefaults(profile, stored)
	}

	if monthly {
		saved, targets, err := service.SetMonthlyGoal(ctx, p.MemberId, year, month, config, p.UseBasicTargets)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"goal_id": saved.ID, "period": enums.MonthlyGoalType, "year": year, "month": month, "calculated_targets": targets}, nil
	}
	saved, targets, err := service.SetActiveGoal(ctx, p.MemberId, date, config, p.UseBasicTargets)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"goal_id": saved.ID, "date": date, "calculated_targets": targets}, nil
}

func (r *Runner) dailyProgress(ctx context.Context, logger *logrus.Entry, p structs.ProgressQueueParam) (interface{}, error) {
	if err := utils.ValidateStruct(p); err != nil {
		return nil, err
	}
	ctx, cancel := r.storeContext(ctx)
	defer cancel()

	service := progress.ProgressService{Store: r.Store, Logger: logger, Advisor: r.Advisor}
	if p.StartDate != "" || p.EndDate != "" {
		return service.Analytics(ctx, p.MemberId, p.StartDate, p.EndDate)
	}
	date := p.Date
	if date == "" {
		date = utils.Today()
	}
	report, err := service.Calculate(ctx, p.MemberId, date)
	if err != nil || !p.Balance {
		return report, err
	}
	balance := service.Balance(ctx, report)
	report.Balance = &balance
	return report, nil
}

// followUp queues a progress refresh after the day's intake changed.
func (r *Runner) followUp(logger *logrus.Entry, queue string, head envelope, param interface{}) {
	if r.Enqueue == nil {
		return
	}
	var date string
	switch p := param.(type) {
	case *structs.MealQueueParam:
		date = p.Date
	case *structs.CorrectionQueueParam:
		// the meal's day is only known when the caller sends it
		if p.Date == "" {
			return
		}
		date = p.Date
	default:
		return
	}
	if date == "" {
		date = utils.Today()
	}
	next := structs.ProgressQueueParam{
		TaskID:    head.TaskID,
		MemberId:  head.MemberId,
		Type:      head.Type,
		QueueType: enums.DailyProgressQueue,
		Date:      date,
	}
	if err := r.Enqueue(enums.DailyProgressQueue, next); err != nil {
		logger.WithError(err).WithField("from_queue", queue).Warn("follow-up progress job not queued")
	}
}

func errorKind(err error) string {
	switch {
	case apperr.IsValidation(err):
		return "validation"
	case apperr.IsComputation(err):
		return "computation"
	case apperr.IsEstimation(err):
		return "estimation"
	case apperr.IsPersistence(err):
		return "persistence"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "unknown"
	}
}

// 塞入執行紀錄的 log table
func (r *Runner) insertActivityLog(ctx context.Context, jobName, userID string, taskID uint, data interface{}) error {
	properties, _ := json.Marshal(data)
	insertTime := time.Now().In(utils.Location())
	entity := models.ActivityLog{
		CauserID:    userID,
		CauserType:  "user",
		CreatedAt:   &insertTime,
		UpdatedAt:   &insertTime,
		LogName:     jobName,
		Description: "golang-worker log",
		Properties:  string(properties),
		TaskID:      taskID,
	}
	ctx, cancel := r.storeContext(ctx)
	defer cancel()
	return r.Store.InsertActivityLog(ctx, &entity)
}

type doneCallback struct {
	TaskID uint                         `json:"task_id"`
	Queue  string                       `json:"queue"`
	Param  interface{}                  `json:"param"`
	Result structs.ActivityLogJsonModel `json:"result"`
	Data   interface{}                  `json:"data,omitempty"`
}

func (r *Runner) jobDoneNotify(ctx context.Context, queue string, taskID uint, param interface{}, record structs.ActivityLogJsonModel, data interface{}) {
	if r.Notify == nil || utils.EnvConfig == nil || utils.EnvConfig.Server.AppAPI == "" {
		return
	}
	endpoint := utils.EnvConfig.Server.AppAPI + "/api/v1/workerCallback/" + queue
	trackLog.Info(fmt.Sprintf("callback url %s task_id %d", endpoint, taskID), false)
	payload := doneCallback{TaskID: taskID, Queue: queue, Param: param, Result: record, Data: data}
	if err := r.Notify(ctx, endpoint, payload); err != nil {
		trackLog.Error(err.Error(), true)
	}
}

func (r *Runner) notifyMismatchQueue(ctx context.Context, taskID uint, queue, queueType string) {
	trackLog.Warn(fmt.Sprintf("[MismatchQueue]queue發生錯誤, task_id: %d, mismatch queue: %s, queue_type: %s", taskID, queue, queueType), true)
	if r.Notify == nil || utils.EnvConfig == nil || utils.EnvConfig.Server.AppAPI == "" {
		return
	}
	endpoint := utils.EnvConfig.Server.AppAPI + "/api/v1/workerCallback/mismatchQueue"
	body := structs.MismatchQueueResponse{TaskId: taskID, Queue: queue}
	if err := r.Notify(ctx, endpoint, body); err != nil {
		trackLog.Error(err.Error(), true)
	}
}
