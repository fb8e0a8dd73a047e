package models

import "time"

type GoalProgress struct {
	ID               string     `gorm:"column:id;primary_key" json:"id"`
	UserID           string     `gorm:"column:user_id;unique_index:uix_goal_progress" json:"user_id"`
	Date             string     `gorm:"column:date;unique_index:uix_goal_progress" json:"date"`
	GoalType         string     `gorm:"column:goal_type;unique_index:uix_goal_progress" json:"goal_type"`
	GoalID           int64      `gorm:"column:goal_id" json:"goal_id"`
	CaloriesActual   float64    `gorm:"column:calories_actual" json:"calories_actual"`
	CaloriesTarget   float64    `gorm:"column:calories_target" json:"calories_target"`
	CaloriesProgress float64    `gorm:"column:calories_progress" json:"calories_progress"`
	ProteinActual    float64    `gorm:"column:protein_actual" json:"protein_actual"`
	ProteinTarget    float64    `gorm:"column:protein_target" json:"protein_target"`
	ProteinProgress  float64    `gorm:"column:protein_progress" json:"protein_progress"`
	CarbsActual      float64    `gorm:"column:carbs_actual" json:"carbs_actual"`
	CarbsTarget      float64    `gorm:"column:carbs_target" json:"carbs_target"`
	CarbsProgress    float64    `gorm:"column:carbs_progress" json:"carbs_progress"`
	FatActual        float64    `gorm:"column:fat_actual" json:"fat_actual"`
	FatTarget        float64    `gorm:"column:fat_target" json:"fat_target"`
	FatProgress      float64    `gorm:"column:fat_progress" json:"fat_progress"`
	ActivityCalories float64    `gorm:"column:activity_calories" json:"activity_calories"`
	CreatedAt        *time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt        *time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName sets the insert table name for this struct type
func (g *GoalProgress) TableName() string {
	return "goal_progress"
}
