package models

import "time"

type ActivityData struct {
	ID             int64      `gorm:"column:id;primary_key" json:"id"`
	UserID         string     `gorm:"column:user_id;index:idx_activity_user_date" json:"user_id"`
	Date           string     `gorm:"column:date;index:idx_activity_user_date" json:"date"`
	ActivityType   string     `gorm:"column:activity_type" json:"activity_type"`
	DurationMin    float64    `gorm:"column:duration_min" json:"duration_min"`
	Steps          int        `gorm:"column:steps" json:"steps"`
	CaloriesBurned float64    `gorm:"column:calories_burned" json:"calories_burned"`
	CreatedAt      *time.Time `gorm:"column:created_at" json:"created_at"`
}

// TableName sets the insert table name for this struct type
func (a *ActivityData) TableName() string {
	return "activity_data"
}
