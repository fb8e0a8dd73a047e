package store

import (
	"context"
	"fmt"
	"macrotrack-go-worker/apperr"
	"macrotrack-go-worker/models"
	"macrotrack-go-worker/structs"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/gorm"
	gormbulk "github.com/t-tiger/gorm-bulk-insert/v2"
)

const bulkChunkSize = 200

// MysqlStore is the gorm-backed Store. gorm v1 has no context support, so
// contexts are checked before each statement.
type MysqlStore struct {
	db *gorm.DB
}

func NewMysqlStore(db *gorm.DB) *MysqlStore {
	return &MysqlStore{db: db}
}

func (s *MysqlStore) Close() error {
	return s.db.Close()
}

func (s *MysqlStore) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Persistence("read", ProfilesCollection, userID, err)
	}
	var profile models.Profile
	if err := s.db.Where("id = ?", userID).First(&profile).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, nil
		}
		return nil, apperr.Persistence("read", ProfilesCollection, userID, err)
	}
	return &profile, nil
}

func (s *MysqlStore) SaveProfile(ctx context.Context, profile *models.Profile) error {
	if err := ctx.Err(); err != nil {
		return apperr.Persistence("save", ProfilesCollection, profile.ID, err)
	}
	now := time.Now()
	if profile.CreatedAt == nil {
		profile.CreatedAt = &now
	}
	profile.UpdatedAt = &now
	if err := s.db.Save(profile).Error; err != nil {
		return apperr.Persistence("save", ProfilesCollection, profile.ID, err)
	}
	return nil
}

func (s *MysqlStore) CreateMeal(ctx context.Context, meal *models.Meal) error {
	key := fmt.Sprintf("%s/%s", meal.UserID, meal.Date)
	if err := ctx.Err(); err != nil {
		return apperr.Persistence("create", MealsCollection, key, err)
	}

	items := meal.FoodItems
	meal.FoodItems = nil
	now := time.Now()
	meal.CreatedAt = &now
	meal.UpdatedAt = &now

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(meal).Error; err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		var records []interface{}
		for i := range items {
			items[i].MealID = meal.ID
			items[i].CreatedAt = &now
			items[i].UpdatedAt = &now
			records = append(records, items[i])
		}
		if len(records) > 0 {
			if err := gormbulk.BulkInsert(tx, records, bulkChunkSize); err != nil {
				return err
			}
		}

		// bulk insert does not report ids
		return tx.Where("meal_id = ?", meal.ID).Order("id asc").Find(&meal.FoodItems).Error
	})
	if err != nil {
		meal.FoodItems = items
		return apperr.Persistence("create", MealsCollection, key, err)
	}
	return nil
}

func (s *MysqlStore) GetDailyMeals(ctx context.Context, userID, date string) ([]models.Meal, error) {
	key := fmt.Sprintf("%s/%s", userID, date)
	if err := ctx.Err(); err != nil {
		return nil, apperr.Persistence("read", MealsCollection, key, err)
	}
	var meals []models.Meal
	err := s.db.
		Preload("FoodItems", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Where("user_id = ? AND date = ?", userID, date).
		Order("created_at asc, id asc").
		Find(&meals).Error
	if err != nil {
		return nil, apperr.Persistence("read", MealsCollection, key, err)
	}
	return meals, nil
}

func (s *MysqlStore) GetMeal(ctx context.Context, userID string, mealID int64) (*models.Meal, error) {
	key := fmt.Sprintf("%s/%d", userID, mealID)
	if err := ctx.Err(); err != nil {
		return nil, apperr.Persistence("read", MealsCollection, key, err)
	}
	var meal models.Meal
	err := s.db.
		Preload("FoodItems", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Where("id = ? AND user_id = ?", mealID, userID).
		First(&meal).Error
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, nil
		}
		return nil, apperr.Persistence("read", MealsCollection, key, err)
	}
	return &meal, nil
}

func (s *MysqlStore) GetFoodItem(ctx context.Context, userID string, itemID int64) (*models.FoodItem, error) {
	key := fmt.Sprintf("%s/%d", userID, itemID)
	if err := ctx.Err(); err != nil {
		return nil, apperr.Persistence("read", FoodItemsCollection, key, err)
	}
	var item models.FoodItem
	err := s.db.
		Select("food_items.*").
		Joins("join meals on meals.id = food_items.meal_id").
		Where("food_items.id = ? AND meals.user_id = ?", itemID, userID).
		First(&item).Error
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, nil
		}
		return nil, apperr.Persistence("read", FoodItemsCollection, key, err)
	}
	return &item, nil
}

func (s *MysqlStore) UpdateFoodItem(ctx context.Context, item *models.FoodItem) error {
	key := fmt.Sprintf("%d", item.ID)
	if err := ctx.Err(); err != nil {
		return apperr.Persistence("update", FoodItemsCollection, key, err)
	}
	now := time.Now()
	item.UpdatedAt = &now
	if err := s.db.Save(item).Error; err != nil {
		return apperr.Persistence("update", FoodItemsCollection, key, err)
	}
	return nil
}

func (s *MysqlStore) DeleteFoodItem(ctx context.Context, itemID int64) error {
	key := fmt.Sprintf("%d", itemID)
	if err := ctx.Err(); err != nil {
		return apperr.Persistence("delete", FoodItemsCollection, key, err)
	}
	if err := s.db.Where("id = ?", itemID).Delete(&models.FoodItem{}).Error; err != nil {
		return apperr.Persistence("delete", FoodItemsCollection, key, err)
	}
	return nil
}

func (s *MysqlStore) UpdateMealTotals(ctx context.Context, mealID int64, totals structs.MacroTotals) error {
	key := fmt.Sprintf("%d", mealID)
	if err := ctx.Err(); err != nil {
		return apperr.Persistence("update", MealsCollection, key, err)
	}
	err := s.db.Model(&models.Meal{}).Where("id = ?", mealID).Updates(map[string]interface{}{
		"total_calories": totals.Calories,
		"total_protein":  totals.Protein,
		"total_carbs":    totals.Carbs,
		"total_fat":      totals.Fat,
		"updated_at":     time.Now(),
	}).Error
	if err != nil {
		return apperr.Persistence("update", MealsCollection, key, err)
	}
	return nil
}

func (s *MysqlStore) DeleteMeal(ctx context.Context, userID string, mealID int64) error {
	key := fmt.Sprintf("%s/%d", userID, mealID)
	if err := ctx.Err(); err != nil {
		return apperr.Persistence("delete", MealsCollection, key, err)
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var meal models.Meal
		if err := tx.Where("id = ? AND user_id = ?", mealID, userID).First(&meal).Error; err != nil {
			if gorm.IsRecordNotFoundError(err) {
				return nil
			}
			return err
		}
		if err := tx.Where("meal_id = ?", meal.ID).Delete(&models.FoodItem{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", meal.ID).Delete(&models.Meal{}).Error
	})
	if err != nil {
		return apperr.Persistence("delete", MealsCollection, key, err)
	}
	return nil
}

func (s *MysqlStore) GetActiveDailyGoal(ctx context.Context, userID, date string) (*models.DailyGoal, error) {
	key := fmt.Sprintf("%s/%s", userID, date)
	if err := ctx.Err(); err != nil {
		return nil, apperr.Persistence("read", DailyGoalsCollection, key, err)
	}
	var goal models.DailyGoal
	err := s.db.Where("user_id = ? AND date = ? AND is_active = ?", userID, date, true).
		Order("id desc").
		First(&goal).Error
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, nil
		}
		return nil, apperr.Persistence("read", DailyGoalsCollection, key, err)
	}
	return &goal, nil
}

func (s *MysqlStore) SaveActiveDailyGoal(ctx context.Context, goal *models.DailyGoal) error {
	key := fmt.Sprintf("%s/%s", goal.UserID, goal.Date)
	if err := ctx.Err(); err != nil {
		return apperr.Persistence("save", DailyGoalsCollection, key, err)
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.DailyGoal
		err := tx.Where("user_id = ? AND date = ? AND is_active = ?", goal.UserID, goal.Date, true).
			Order("id desc").
			First(&existing).Error
		if err != nil && !gorm.IsRecordNotFoundError(err) {
			return err
		}

		now := time.Now()
		goal.IsActive = true
		goal.UpdatedAt = &now
		if err == nil {
			goal.ID = existing.ID
			goal.CreatedAt = existing.CreatedAt
		} else {
			goal.ID = 0
			goal.CreatedAt = &now
		}

		if err := tx.Model(&models.DailyGoal{}).
			Where("user_id = ? AND date = ? AND is_active = ? AND id <> ?", goal.UserID, goal.Date, true, goal.ID).
			Update("is_active", false).Error; err != nil {
			return err
		}
		if goal.ID == 0 {
			return tx.Create(goal).Error
		}
		return tx.Save(goal).Error
	})
	if err != nil {
		return apperr.Persistence("save", DailyGoalsCollection, key, err)
	}
	return nil
}

func (s *MysqlStore) GetActiveMonthlyGoal(ctx context.Context, userID string, year, month int) (*models.MonthlyGoal, error) {
	key := fmt.Sprintf("%s/%d-%02d", userID, year, month)
	if err := ctx.Err(); err != nil {
		return nil, apperr.Persistence("read", MonthlyGoalsCollection, key, err)
	}
	var goal models.MonthlyGoal
	err := s.db.Where("user_id = ? AND year = ? AND month = ? AND is_active = ?", userID, year, month, true).
		Order("id desc").
		First(&goal).Error
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, nil
		}
		return nil, apperr.Persistence("read", MonthlyGoalsCollection, key, err)
	}
	return &goal, nil
}

func (s *MysqlStore) SaveActiveMonthlyGoal(ctx context.Context, goal *models.MonthlyGoal) error {
	key := fmt.Sprintf("%s/%d-%02d", goal.UserID, goal.Year, goal.Month)
	if err := ctx.Err(); err != nil {
		return apperr.Persistence("save", MonthlyGoalsCollection, key, err)
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.MonthlyGoal
		err := tx.Where("user_id = ? AND year = ? AND month = ? AND is_active = ?", goal.UserID, goal.Year, goal.Month, true).
			Order("id desc").
			First(&existing).Error
		if err != nil && !gorm.IsRecordNotFoundError(err) {
			return err
		}

		now := time.Now()
		goal.IsActive = true
		goal.UpdatedAt = &now
		if err == nil {
			goal.ID = existing.ID
			goal.CreatedAt = existing.CreatedAt
		} else {
			goal.ID = 0
			goal.CreatedAt = &now
		}

		if err := tx.Model(&models.MonthlyGoal{}).
			Where("user_id = ? AND year = ? AND month = ? AND is_active = ? AND id <> ?", goal.UserID, goal.Year, goal.Month, true, goal.ID).
			Update("is_active", false).Error; err != nil {
			return err
		}
		if goal.ID == 0 {
			return tx.Create(goal).Error
		}
		return tx.Save(goal).Error
	})
	if err != nil {
		return apperr.Persistence("save", MonthlyGoalsCollection, key, err)
	}
	return nil
}

func (s *MysqlStore) GetFoodCorrections(ctx context.Context, userID, foodName string) ([]models.FoodCorrection, error) {
	key := userID
	if foodName != "" {
		key = userID + "/" + foodName
	}
	if err := ctx.Err(); err != nil {
		return nil, apperr.Persistence("read", CorrectionsCollection, key, err)
	}
	query := s.db.Where("user_id = ?", userID)
	if foodName != "" {
		query = query.Where("food_name = ?", foodName)
	}
	var corrections []models.FoodCorrection
	if err := query.Order("food_name asc").Find(&corrections).Error; err != nil {
		return nil, apperr.Persistence("read", CorrectionsCollection, key, err)
	}
	return corrections, nil
}

// upsertCorrectionSQL leaves id, created_at and the original_* columns of an
// existing row untouched.
const upsertCorrectionSQL = "INSERT INTO food_corrections (id, user_id, food_name, " +
	"original_calories, original_protein, original_carbs, original_fat, " +
	"corrected_calories, corrected_protein, corrected_carbs, corrected_fat, " +
	"correction_reason, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) " +
	"ON DUPLICATE KEY UPDATE corrected_calories = VALUES(corrected_calories), " +
	"corrected_protein = VALUES(corrected_protein), corrected_carbs = VALUES(corrected_carbs), " +
	"corrected_fat = VALUES(corrected_fat), correction_reason = VALUES(correction_reason), " +
	"updated_at = VALUES(updated_at)"

func (s *MysqlStore) UpsertFoodCorrection(ctx context.Context, correction *models.FoodCorrection) error {
	key := correction.UserID + "/" + correction.FoodName
	if err := ctx.Err(); err != nil {
		return apperr.Persistence("upsert", CorrectionsCollection, key, err)
	}
	now := time.Now()
	id := correction.ID
	if id == "" {
		id = uuid.NewString()
	}
	err := s.db.Exec(upsertCorrectionSQL,
		id, correction.UserID, correction.FoodName,
		correction.OriginalCalories, correction.OriginalProtein, correction.OriginalCarbs, correction.OriginalFat,
		correction.CorrectedCalories, correction.CorrectedProtein, correction.CorrectedCarbs, correction.CorrectedFat,
		correction.CorrectionReason, now, now,
	).Error
	if err != nil {
		return apperr.Persistence("upsert", CorrectionsCollection, key, err)
	}

	// 讀回實際存下的紀錄 (id, created_at, original_*)
	var stored models.FoodCorrection
	if err := s.db.Where("user_id = ? AND food_name = ?", correction.UserID, correction.FoodName).First(&stored).Error; err != nil {
		return apperr.Persistence("read", CorrectionsCollection, key, err)
	}
	*correction = stored
	return nil
}

func (s *MysqlStore) DeleteFoodCorrection(ctx context.Context, userID, foodName string) error {
	key := userID + "/" + foodName
	if err := ctx.Err(); err != nil {
		return apperr.Persistence("delete", CorrectionsCollection, key, err)
	}
	if err := s.db.Where("user_id = ? AND food_name = ?", userID, foodName).Delete(&models.FoodCorrection{}).Error; err != nil {
		return apperr.Persistence("delete", CorrectionsCollection, key, err)
	}
	return nil
}

func (s *MysqlStore) GetActivityData(ctx context.Context, userID, date string) ([]models.ActivityData, error) {
	key := fmt.Sprintf("%s/%s", userID, date)
	if err := ctx.Err(); err != nil {
		return nil, apperr.Persistence("read", ActivityCollection, key, err)
	}
	var activities []models.ActivityData
	if err := s.db.Where("user_id = ? AND date = ?", userID, date).Order("id asc").Find(&activities).Error; err != nil {
		return nil, apperr.Persistence("read", ActivityCollection, key, err)
	}
	return activities, nil
}

func (s *MysqlStore) CreateActivityData(ctx context.Context, activity *models.ActivityData) error {
	key := fmt.Sprintf("%s/%s", activity.UserID, activity.Date)
	if err := ctx.Err(); err != nil {
		return apperr.Persistence("create", ActivityCollection, key, err)
	}
	now := time.Now()
	activity.CreatedAt = &now
	if err := s.db.Create(activity).Error; err != nil {
		return apperr.Persistence("create", ActivityCollection, key, err)
	}
	return nil
}

func (s *MysqlStore) SaveGoalProgress(ctx context.Context, progress *models.GoalProgress) error {
	key := fmt.Sprintf("%s/%s/%s", progress.UserID, progress.Date, progress.GoalType)
	if err := ctx.Err(); err != nil {
		return apperr.Persistence("upsert", ProgressCollection, key, err)
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.GoalProgress
		err := tx.Where("user_id = ? AND date = ? AND goal_type = ?", progress.UserID, progress.Date, progress.GoalType).
			First(&existing).Error
		if err != nil && !gorm.IsRecordNotFoundError(err) {
			return err
		}
		now := time.Now()
		progress.UpdatedAt = &now
		if err == nil {
			progress.ID = existing.ID
			progress.CreatedAt = existing.CreatedAt
			return tx.Save(progress).Error
		}
		progress.ID = uuid.NewString()
		progress.CreatedAt = &now
		return tx.Create(progress).Error
	})
	if err != nil {
		return apperr.Persistence("upsert", ProgressCollection, key, err)
	}
	return nil
}

func (s *MysqlStore) ListGoalProgress(ctx context.Context, userID, startDate, endDate string) ([]models.GoalProgress, error) {
	key := fmt.Sprintf("%s/%s..%s", userID, startDate, endDate)
	if err := ctx.Err(); err != nil {
		return nil, apperr.Persistence("read", ProgressCollection, key, err)
	}
	var rows []models.GoalProgress
	err := s.db.Where("user_id = ? AND date >= ? AND date <= ?", userID, startDate, endDate).
		Order("date asc").
		Find(&rows).Error
	if err != nil {
		return nil, apperr.Persistence("read", ProgressCollection, key, err)
	}
	return rows, nil
}

func (s *MysqlStore) InsertActivityLog(ctx context.Context, log *models.ActivityLog) error {
	if err := ctx.Err(); err != nil {
		return apperr.Persistence("create", ActivityLogCollection, log.LogName, err)
	}
	if err := s.db.Create(log).Error; err != nil {
		return apperr.Persistence("create", ActivityLogCollection, log.LogName, err)
	}
	return nil
}
