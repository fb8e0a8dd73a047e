package models

import "time"

type FoodItem struct {
	ID               int64      `gorm:"column:id;primary_key" json:"id"`
	MealID           int64      `gorm:"column:meal_id;index" json:"meal_id"`
	Name             string     `gorm:"column:name" json:"name"`
	Quantity         float64    `gorm:"column:quantity" json:"quantity"`
	Unit             string     `gorm:"column:unit" json:"unit"`
	Calories         float64    `gorm:"column:calories" json:"calories"`
	Protein          float64    `gorm:"column:protein" json:"protein"`
	Carbs            float64    `gorm:"column:carbs" json:"carbs"`
	Fat              float64    `gorm:"column:fat" json:"fat"`
	HasCorrection    bool       `gorm:"column:has_correction" json:"has_correction"`
	OriginalCalories *float64   `gorm:"column:original_calories" json:"original_calories"`
	OriginalProtein  *float64   `gorm:"column:original_protein" json:"original_protein"`
	OriginalCarbs    *float64   `gorm:"column:original_carbs" json:"original_carbs"`
	OriginalFat      *float64   `gorm:"column:original_fat" json:"original_fat"`
	AIData           string     `gorm:"column:ai_data;type:text" json:"ai_data"`
	CreatedAt        *time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt        *time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName sets the insert table name for this struct type
func (f *FoodItem) TableName() string {
	return "food_items"
}
