package models

import "time"

type DailyGoal struct {
	ID             int64      `gorm:"column:id;primary_key" json:"id"`
	UserID         string     `gorm:"column:user_id;index:idx_daily_goals_user_date" json:"user_id"`
	Date           string     `gorm:"column:date;index:idx_daily_goals_user_date" json:"date"`
	CaloriesTarget float64    `gorm:"column:calories_target" json:"calories_target"`
	ProteinTarget  float64    `gorm:"column:protein_target" json:"protein_target"`
	CarbsTarget    float64    `gorm:"column:carbs_target" json:"carbs_target"`
	FatTarget      float64    `gorm:"column:fat_target" json:"fat_target"`
	GoalConfig     string     `gorm:"column:goal_config;type:text" json:"goal_config"`
	IsActive       bool       `gorm:"column:is_active" json:"is_active"`
	CreatedAt      *time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      *time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName sets the insert table name for this struct type
func (d *DailyGoal) TableName() string {
	return "daily_goals"
}
