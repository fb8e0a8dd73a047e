package models

import "time"

type Meal struct {
	ID            int64      `gorm:"column:id;primary_key" json:"id"`
	UserID        string     `gorm:"column:user_id;index:idx_meals_user_date" json:"user_id"`
	Name          string     `gorm:"column:name" json:"name"`
	MealType      string     `gorm:"column:meal_type" json:"meal_type"`
	Date          string     `gorm:"column:date;index:idx_meals_user_date" json:"date"`
	TotalCalories float64    `gorm:"column:total_calories" json:"total_calories"`
	TotalProtein  float64    `gorm:"column:total_protein" json:"total_protein"`
	TotalCarbs    float64    `gorm:"column:total_carbs" json:"total_carbs"`
	TotalFat      float64    `gorm:"column:total_fat" json:"total_fat"`
	MealData      string     `gorm:"column:meal_data;type:text" json:"meal_data"`
	FoodItems     []FoodItem `gorm:"foreignkey:MealID" json:"food_items"`
	CreatedAt     *time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     *time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName sets the insert table name for this struct type
func (m *Meal) TableName() string {
	return "meals"
}
