package models

import "time"

// FoodCorrection is unique per (user_id, food_name); food_name is stored normalized.
type FoodCorrection struct {
	ID                string     `gorm:"column:id;primary_key" json:"id"`
	UserID            string     `gorm:"column:user_id;unique_index:uix_food_corrections_user_food" json:"user_id"`
	FoodName          string     `gorm:"column:food_name;unique_index:uix_food_corrections_user_food" json:"food_name"`
	OriginalCalories  float64    `gorm:"column:original_calories" json:"original_calories"`
	OriginalProtein   float64    `gorm:"column:original_protein" json:"original_protein"`
	OriginalCarbs     float64    `gorm:"column:original_carbs" json:"original_carbs"`
	OriginalFat       float64    `gorm:"column:original_fat" json:"original_fat"`
	CorrectedCalories float64    `gorm:"column:corrected_calories" json:"corrected_calories"`
	CorrectedProtein  float64    `gorm:"column:corrected_protein" json:"corrected_protein"`
	CorrectedCarbs    float64    `gorm:"column:corrected_carbs" json:"corrected_carbs"`
	CorrectedFat      float64    `gorm:"column:corrected_fat" json:"corrected_fat"`
	CorrectionReason  string     `gorm:"column:correction_reason" json:"correction_reason"`
	CreatedAt         *time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt         *time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName sets the insert table name for this struct type
func (f *FoodCorrection) TableName() string {
	return "food_corrections"
}
