package models

import "time"

type Profile struct {
	ID            string     `gorm:"column:id;primary_key" json:"id"`
	Email         string     `gorm:"column:email" json:"email"`
	FullName      string     `gorm:"column:full_name" json:"full_name"`
	Age           int        `gorm:"column:age" json:"age"`
	Sex           string     `gorm:"column:sex" json:"sex"`
	WeightKg      float64    `gorm:"column:weight_kg" json:"weight_kg"`
	HeightCm      float64    `gorm:"column:height_cm" json:"height_cm"`
	ActivityLevel string     `gorm:"column:activity_level" json:"activity_level"`
	FitnessGoal   string     `gorm:"column:fitness_goal" json:"fitness_goal"`
	BodyType      string     `gorm:"column:body_type" json:"body_type"`
	CreatedAt     *time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     *time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName sets the insert table name for this struct type
func (p *Profile) TableName() string {
	return "profiles"
}
