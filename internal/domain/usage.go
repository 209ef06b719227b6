package domain

import "time"

// UserUsage tracks how many meal plans a user has generated. It is updated
// best-effort after a plan is committed and is never part of that transaction.
type UserUsage struct {
	UserID          string    `json:"userId"          gorm:"type:varchar(255);primaryKey"`
	GenerationCount int64     `json:"generationCount" gorm:"not null;default:0"`
	LastGeneratedAt time.Time `json:"lastGeneratedAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// TableName implements the GORM tabler interface.
func (UserUsage) TableName() string { return "user_usage" }

// UserAnalytics holds per-user aggregates derived from stored meal plans.
type UserAnalytics struct {
	UserID           string    `json:"userId"           gorm:"type:varchar(255);primaryKey"`
	TotalMealsCooked int64     `json:"totalMealsCooked" gorm:"not null;default:0"`
	UniqueRecipes    int64     `json:"uniqueRecipes"    gorm:"not null;default:0"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// TableName implements the GORM tabler interface.
func (UserAnalytics) TableName() string { return "user_analytics" }
