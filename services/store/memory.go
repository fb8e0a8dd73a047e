package store

import (
	"context"
	"fmt"
	"macrotrack-go-worker/apperr"
	"macrotrack-go-worker/models"
	"macrotrack-go-worker/structs"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps every collection in process memory. Records are copied
// on the way in and out so callers never share state with the store.
type MemoryStore struct {
	sync.RWMutex
	profiles    map[string]models.Profile
	meals       map[int64]models.Meal
	foodItems   map[int64]models.FoodItem
	goals       map[int64]models.DailyGoal
	monthly     map[int64]models.MonthlyGoal
	corrections map[string]models.FoodCorrection
	activities  []models.ActivityData
	progress    map[string]models.GoalProgress
	logs        []models.ActivityLog
	nextID      int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles:    make(map[string]models.Profile),
		meals:       make(map[int64]models.Meal),
		foodItems:   make(map[int64]models.FoodItem),
		goals:       make(map[int64]models.DailyGoal),
		monthly:     make(map[int64]models.MonthlyGoal),
		corrections: make(map[string]models.FoodCorrection),
		progress:    make(map[string]models.GoalProgress),
	}
}

func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) id() int64 {
	s.nextID++
	return s.nextID
}

func correctionKey(userID, foodName string) string {
	return userID + "\x00" + foodName
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyFoodItem(item models.FoodItem) models.FoodItem {
	item.OriginalCalories = copyFloat(item.OriginalCalories)
	item.OriginalProtein = copyFloat(item.OriginalProtein)
	item.OriginalCarbs = copyFloat(item.OriginalCarbs)
	item.OriginalFat = copyFloat(item.OriginalFat)
	return item
}

// mealWithItems must be called with the lock held.
func (s *MemoryStore) mealWithItems(meal models.Meal) models.Meal {
	meal.FoodItems = nil
	for _, item := range s.foodItems {
		if item.MealID == meal.ID {
			meal.FoodItems = append(meal.FoodItems, copyFoodItem(item))
		}
	}
	sort.Slice(meal.FoodItems, func(i, j int) bool { return meal.FoodItems[i].ID < meal.FoodItems[j].ID })
	return meal
}

func (s *MemoryStore) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Persistence("read", ProfilesCollection, userID, err)
	}
	s.RLock()
	defer s.RUnlock()
	profile, ok := s.profiles[userID]
	if !ok {
		return nil, nil
	}
	return &profile, nil
}

func (s *MemoryStore) SaveProfile(ctx context.Context, profile *models.Profile) error {
	if err := ctx.Err(); err != nil {
		return apperr.Persistence("save", ProfilesCollection, profile.ID, err)
	}
	s.Lock()
	defer s.Unlock()
	now := time.Now()
	if profile.CreatedAt == nil {
		profile.CreatedAt = &now
	}
	profile.UpdatedAt = &now
	s.profiles[profile.ID] = *profile
	return nil
}

func (s *MemoryStore) CreateMeal(ctx context.Context, meal *models.Meal) error {
	if err := ctx.Err(); err != nil {
		return apperr.Persistence("create", MealsCollection, fmt.Sprintf("%s/%s", meal.UserID, meal.Date), err)
	}
	s.Lock()
	defer s.Unlock()
	now := time.Now()
	meal.ID = s.id()
	meal.CreatedAt = &now
	meal.UpdatedAt = &now
	for i := range meal.FoodItems {
		meal.FoodItems[i].ID = s.id()
		meal.FoodItems[i].MealID = meal.ID
		meal.FoodItems[i].CreatedAt = &now
		meal.FoodItems[i].UpdatedAt = &now
		s.foodItems[meal.FoodItems[i].ID] = copyFoodItem(meal.FoodItems[i])
	}
	stored := *meal
	stored.FoodItems = nil
	s.meals[meal.ID] = stored
	return nil
}

func (s *MemoryStore) GetDailyMeals(ctx context.Context, userID, date string) ([]models.Meal, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Persistence("read", MealsCollection, fmt.Sprintf("%s/%s", userID, date), err)
	}
	s.RLock()
	defer s.RUnlock()
	var meals []models.Meal
	for _, meal := range s.meals {
		if meal.UserID == userID && meal.Date == date {
			meals = append(meals, s.mealWithItems(meal))
		}
	}
	sort.Slice(meals, func(i, j int) bool { return meals[i].ID < meals[j].ID })
	return meals, nil
}

func (s *MemoryStore) GetMeal(ctx context.Context, userID string, mealID int64) (*models.Meal, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Persistence("read", MealsCollection, fmt.Sprintf("%s/%d", userID, mealID), err)
	}
	s.RLock()
	defer s.RUnlock()
	meal, ok := s.meals[mealID]
	if !ok || meal.UserID != userID {
		return nil, nil
	}
	meal = s.mealWithItems(meal)
	return &meal, nil
}

func (s *MemoryStore) GetFoodItem(ctx context.Context, userID string, itemID int64) (*models.FoodItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Persistence("read", FoodItemsCollection, fmt.Sprintf("%s/%d", userID, itemID), err)
	}
	s.RLock()
	defer s.RUnlock()
	item, ok := s.foodItems[itemID]
	if !ok {
		return nil, nil
	}
	if meal, ok := s.meals[item.MealID]; !ok || meal.UserID != userID {
		return nil, nil
	}
	item = copyFoodItem(item)
	return &item, nil
}

func (s *MemoryStore) UpdateFoodItem(ctx context.Context, item *models.FoodItem) error {
	key := fmt.Sprintf("%d", item.ID)
	if err := ctx.Err(); err != nil {
		return apperr.Persistence("update", FoodItemsCollection, key, err)
	}
	s.Lock()
	defer s.Unlock()
	if _, ok := s.foodItems[item.ID]; !ok {
		return apperr.Persistence("update", FoodItemsCollection, key, fmt.Errorf("record not found"))
	}
	now := time.Now()
	item.UpdatedAt = &now
	s.foodItems[item.ID] = copyFoodItem(*item)
	return nil
}

func (s *MemoryStore) DeleteFoodItem(ctx context.Context, itemID int64) error {
	if err := ctx.Err(); err != nil {
		return apperr.Persistence("delete", FoodItemsCollection, fmt.Sprintf("%d", itemID), err)
	}
	s.Lock()
	defer s.Unlock()
	delete(s.foodItems, itemID)
	return nil
}

func (s *MemoryStore) UpdateMealTotals(ctx context.Context, mealID int64, totals structs.MacroTotals) error {
	key := fmt.Sprintf("%d", mealID)
	if err := ctx.Err(); err != nil {
		return apperr.Persistence("update", MealsCollection, key, err)
	}
	s.Lock()
	defer s.Unlock()
	meal, ok := s.meals[mealID]
	if !ok {
		return apperr.Persistence("update", MealsCollection, key, fmt.Errorf("record not found"))
	}
	now := time.Now()
	meal.SetTotals(totals)
	meal.UpdatedAt = &now
	s.meals[mealID] = meal
	return nil
}

func (s *MemoryStore) DeleteMeal(ctx context.Context, userID string, mealID int64) error {
	if err := ctx.Err(); err != nil {
		return apperr.Persistence("delete", MealsCollection, fmt.Sprintf("%s/%d", userID, mealID), err)
	}
	s.Lock()
	defer s.Unlock()
	meal, ok := s.meals[mealID]
	if !ok || meal.UserID != userID {
		return nil
	}
	for id, item := range s.foodItems {
		if item.MealID == mealID {
			delete(s.foodItems, id)
		}
	}
	delete(s.meals, mealID)
	return nil
}

func (s *MemoryStore) GetActiveDailyGoal(ctx context.Context, userID, date string) (*models.DailyGoal, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Persistence("read", DailyGoalsCollection, fmt.Sprintf("%s/%s", userID, date), err)
	}
	s.RLock()
	defer s.RUnlock()
	var found *models.DailyGoal
	for _, goal := range s.goals {
		if goal.UserID == userID && goal.Date == date && goal.IsActive {
			if found == nil || goal.ID > found.ID {
				g := goal
				found = &g
			}
		}
	}
	return found, nil
}

func (s *MemoryStore) SaveActiveDailyGoal(ctx context.Context, goal *models.DailyGoal) error {
	if err := ctx.Err(); err != nil {
		return apperr.Persistence("save", DailyGoalsCollection, fmt.Sprintf("%s/%s", goal.UserID, goal.Date), err)
	}
	s.Lock()
	defer s.Unlock()

	var existing *models.DailyGoal
	for _, g := range s.goals {
		if g.UserID == goal.UserID && g.Date == goal.Date && g.IsActive {
			if existing == nil || g.ID > existing.ID {
				c := g
				existing = &c
			}
		}
	}

	now := time.Now()
	goal.IsActive = true
	goal.UpdatedAt = &now
	if existing != nil {
		goal.ID = existing.ID
		goal.CreatedAt = existing.CreatedAt
	} else {
		goal.ID = s.id()
		goal.CreatedAt = &now
	}
	for id, g := range s.goals {
		if g.UserID == goal.UserID && g.Date == goal.Date && id != goal.ID {
			g.IsActive = false
			s.goals[id] = g
		}
	}
	s.goals[goal.ID] = *goal
	return nil
}

func (s *MemoryStore) GetActiveMonthlyGoal(ctx context.Context, userID string, year, month int) (*models.MonthlyGoal, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Persistence("read", MonthlyGoalsCollection, fmt.Sprintf("%s/%d-%02d", userID, year, month), err)
	}
	s.RLock()
	defer s.RUnlock()
	var found *models.MonthlyGoal
	for _, goal := range s.monthly {
		if goal.UserID == userID && goal.Year == year && goal.Month == month && goal.IsActive {
			if found == nil || goal.ID > found.ID {
				g := goal
				found = &g
			}
		}
	}
	return found, nil
}

func (s *MemoryStore) SaveActiveMonthlyGoal(ctx context.Context, goal *models.MonthlyGoal) error {
	if err := ctx.Err(); err != nil {
		return apperr.Persistence("save", MonthlyGoalsCollection, fmt.Sprintf("%s/%d-%02d", goal.UserID, goal.Year, goal.Month), err)
	}
	s.Lock()
	defer s.Unlock()

	now := time.Now()
	goal.IsActive = true
	goal.UpdatedAt = &now
	goal.ID = 0
	for _, g := range s.monthly {
		if g.UserID == goal.UserID && g.Year == goal.Year && g.Month == goal.Month && g.IsActive && g.ID > goal.ID {
			goal.ID = g.ID
			goal.CreatedAt = g.CreatedAt
		}
	}
	if goal.ID == 0 {
		goal.ID = s.id()
		goal.CreatedAt = &now
	}
	for id, g := range s.monthly {
		if g.UserID == goal.UserID && g.Year == goal.Year && g.Month == goal.Month && id != goal.ID {
			g.IsActive = false
			s.monthly[id] = g
		}
	}
	s.monthly[goal.ID] = *goal
	return nil
}

func (s *MemoryStore) GetFoodCorrections(ctx context.Context, userID, foodName string) ([]models.FoodCorrection, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Persistence("read", CorrectionsCollection, userID, err)
	}
	s.RLock()
	defer s.RUnlock()
	var corrections []models.FoodCorrection
	for _, c := range s.corrections {
		if c.UserID == userID && (foodName == "" || c.FoodName == foodName) {
			corrections = append(corrections, c)
		}
	}
	sort.Slice(corrections, func(i, j int) bool { return corrections[i].FoodName < corrections[j].FoodName })
	return corrections, nil
}

func (s *MemoryStore) UpsertFoodCorrection(ctx context.Context, correction *models.FoodCorrection) error {
	key := correctionKey(correction.UserID, correction.FoodName)
	if err := ctx.Err(); err != nil {
		return apperr.Persistence("upsert", CorrectionsCollection, correction.UserID+"/"+correction.FoodName, err)
	}
	s.Lock()
	defer s.Unlock()
	now := time.Now()
	correction.UpdatedAt = &now
	if existing, ok := s.corrections[key]; ok {
		correction.ID = existing.ID
		correction.CreatedAt = existing.CreatedAt
		correction.OriginalCalories = existing.OriginalCalories
		correction.OriginalProtein = existing.OriginalProtein
		correction.OriginalCarbs = existing.OriginalCarbs
		correction.OriginalFat = existing.OriginalFat
	} else {
		if correction.ID == "" {
			correction.ID = uuid.NewString()
		}
		correction.CreatedAt = &now
	}
	s.corrections[key] = *correction
	return nil
}

func (s *MemoryStore) DeleteFoodCorrection(ctx context.Context, userID, foodName string) error {
	if err := ctx.Err(); err != nil {
		return apperr.Persistence("delete", CorrectionsCollection, userID+"/"+foodName, err)
	}
	s.Lock()
	defer s.Unlock()
	delete(s.corrections, correctionKey(userID, foodName))
	return nil
}

func (s *MemoryStore) GetActivityData(ctx context.Context, userID, date string) ([]models.ActivityData, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Persistence("read", ActivityCollection, fmt.Sprintf("%s/%s", userID, date), err)
	}
	s.RLock()
	defer s.RUnlock()
	var activities []models.ActivityData
	for _, a := range s.activities {
		if a.UserID == userID && a.Date == date {
			activities = append(activities, a)
		}
	}
	return activities, nil
}

func (s *MemoryStore) CreateActivityData(ctx context.Context, activity *models.ActivityData) error {
	if err := ctx.Err(); err != nil {
		return apperr.Persistence("create", ActivityCollection, fmt.Sprintf("%s/%s", activity.UserID, activity.Date), err)
	}
	s.Lock()
	defer s.Unlock()
	now := time.Now()
	activity.ID = s.id()
	activity.CreatedAt = &now
	s.activities = append(s.activities, *activity)
	return nil
}

func (s *MemoryStore) SaveGoalProgress(ctx context.Context, progress *models.GoalProgress) error {
	key := fmt.Sprintf("%s/%s/%s", progress.UserID, progress.Date, progress.GoalType)
	if err := ctx.Err(); err != nil {
		return apperr.Persistence("upsert", ProgressCollection, key, err)
	}
	s.Lock()
	defer s.Unlock()
	now := time.Now()
	progress.UpdatedAt = &now
	if existing, ok := s.progress[key]; ok {
		progress.ID = existing.ID
		progress.CreatedAt = existing.CreatedAt
	} else {
		progress.ID = uuid.NewString()
		progress.CreatedAt = &now
	}
	s.progress[key] = *progress
	return nil
}

func (s *MemoryStore) ListGoalProgress(ctx context.Context, userID, startDate, endDate string) ([]models.GoalProgress, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Persistence("read", ProgressCollection, userID, err)
	}
	s.RLock()
	defer s.RUnlock()
	var rows []models.GoalProgress
	for _, p := range s.progress {
		if p.UserID == userID && p.Date >= startDate && p.Date <= endDate {
			rows = append(rows, p)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Date == rows[j].Date {
			return rows[i].GoalType < rows[j].GoalType
		}
		return rows[i].Date < rows[j].Date
	})
	return rows, nil
}

func (s *MemoryStore) InsertActivityLog(ctx context.Context, log *models.ActivityLog) error {
	if err := ctx.Err(); err != nil {
		return apperr.Persistence("create", ActivityLogCollection, log.LogName, err)
	}
	s.Lock()
	defer s.Unlock()
	log.ID = s.id()
	s.logs = append(s.logs, *log)
	return nil
}

// ActivityLogs returns the recorded job audit entries.
func (s *MemoryStore) ActivityLogs() []models.ActivityLog {
	s.RLock()
	defer s.RUnlock()
	return append([]models.ActivityLog(nil), s.logs...)
}
