// Package domain defines the persistence models for meal plans, their days
// and meals. These types are mapped with GORM and form the core data layer
// of the meal-planning backend.
package domain

import (
	"time"

	"gorm.io/datatypes"
)

// MaxUserIDLen is the longest owner id the user_id columns hold.
const MaxUserIDLen = 255

// MealType classifies a meal within a day.
type MealType string

const (
	MealTypeBreakfast MealType = "breakfast"
	MealTypeLunch     MealType = "lunch"
	MealTypeDinner    MealType = "dinner"
	MealTypeSnack     MealType = "snack"
)

// ParseMealType reports whether s names a known meal type.
func ParseMealType(s string) (MealType, bool) {
	switch MealType(s) {
	case MealTypeBreakfast, MealTypeLunch, MealTypeDinner, MealTypeSnack:
		return MealType(s), true
	}
	return "", false
}

// MealTypeForPosition returns the fallback type for the meal at index i of a
// day when the generator did not provide one.
func MealTypeForPosition(i int) MealType {
	switch i {
	case 0:
		return MealTypeBreakfast
	case 1:
		return MealTypeLunch
	case 2:
		return MealTypeDinner
	default:
		return MealTypeSnack
	}
}

// Ordinal orders meal types within a day (breakfast first, snack last).
func (t MealType) Ordinal() int {
	switch t {
	case MealTypeBreakfast:
		return 0
	case MealTypeLunch:
		return 1
	case MealTypeDinner:
		return 2
	default:
		return 3
	}
}

// MealPlan is a user's multi-day plan. The tuple (UserID, Title, Duration,
// MealsPerDay) is its natural key and is unique.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - UserID: owner of the plan.
//   - Title: trimmed plan title (max 200 chars).
//   - Duration: number of days, always equal to len(Days) once created.
//   - MealsPerDay: requested meals per day (1–5).
//   - CreatedAt / UpdatedAt: timestamps.
type MealPlan struct {
	ID          string    `json:"id"          gorm:"type:char(36);primaryKey"`
	UserID      string    `json:"userId"      gorm:"type:varchar(255);not null;index:idx_user_meal_plans;uniqueIndex:ux_meal_plans_natural_key,priority:1"`
	Title       string    `json:"title"       gorm:"type:varchar(200);not null;uniqueIndex:ux_meal_plans_natural_key,priority:2"`
	Duration    int       `json:"duration"    gorm:"not null;uniqueIndex:ux_meal_plans_natural_key,priority:3"`
	MealsPerDay int       `json:"mealsPerDay" gorm:"not null;uniqueIndex:ux_meal_plans_natural_key,priority:4"`
	CreatedAt   time.Time `json:"createdAt"   gorm:"index:idx_user_meal_plans"`
	UpdatedAt   time.Time `json:"updatedAt"`

	Days []Day `json:"days" gorm:"foreignKey:MealPlanID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for MealPlan.
func (MealPlan) TableName() string { return "meal_plans" }

// Day is one calendar day of a plan, owned exclusively by its MealPlan.
type Day struct {
	ID         string    `json:"id"         gorm:"type:char(36);primaryKey"`
	MealPlanID string    `json:"mealPlanId" gorm:"type:char(36);not null;uniqueIndex:ux_days_plan_date,priority:1"`
	Date       time.Time `json:"date"       gorm:"not null;uniqueIndex:ux_days_plan_date,priority:2"`

	Meals []Meal `json:"meals" gorm:"foreignKey:DayID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Day.
func (Day) TableName() string { return "days" }

// Meal is a single dish within a day. Position is the meal's index in the
// submitted day and keeps ordering stable among meals of the same type.
type Meal struct {
	ID           string                      `json:"id"           gorm:"type:char(36);primaryKey"`
	DayID        string                      `json:"dayId"        gorm:"type:char(36);not null;index:idx_day_meals,priority:1"`
	Position     int                         `json:"position"     gorm:"not null;index:idx_day_meals,priority:2"`
	Name         string                      `json:"name"         gorm:"type:varchar(200);not null"`
	Type         MealType                    `json:"type"         gorm:"type:varchar(16);not null;check:type IN ('breakfast','lunch','dinner','snack')"`
	Description  string                      `json:"description"  gorm:"type:text;not null"`
	Calories     float64                     `json:"calories"     gorm:"not null;default:0"`
	Ingredients  datatypes.JSONSlice[string] `json:"ingredients"`
	Instructions string                      `json:"instructions" gorm:"type:text;not null"`
	ImageURL     *string                     `json:"imageUrl,omitempty" gorm:"type:varchar(500)"`
}

// TableName returns the database table name for Meal.
func (Meal) TableName() string { return "meals" }

// MealCount returns the number of meals across all days of the plan.
func (p *MealPlan) MealCount() int {
	n := 0
	for _, d := range p.Days {
		n += len(d.Meals)
	}
	return n
}
