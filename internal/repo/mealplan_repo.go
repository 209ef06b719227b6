// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the meal plan
// graph (plan → days → meals).
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions. They follow the "thin repository"
// approach: no business logic, only persistence and query composition.
//
// Error semantics:
//   - When a plan is not found, functions return ErrNotFound.
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated; use IsDuplicate / IsForeignKey to
//     classify it.
//
// Reads of a full graph always come back in the same order: days by date
// ascending, meals by meal type (breakfast, lunch, dinner, snack) and then
// by their submitted position.
package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-mealplan-backend/internal/domain"
)

// mealOrder sorts meals by type ordinal (not alphabetically) then position.
const mealOrder = "CASE type WHEN 'breakfast' THEN 0 WHEN 'lunch' THEN 1 WHEN 'dinner' THEN 2 ELSE 3 END ASC, position ASC"

// withGraph preloads days and meals in display order.
func withGraph(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Days", func(tx *gorm.DB) *gorm.DB { return tx.Order("date ASC") }).
		Preload("Days.Meals", func(tx *gorm.DB) *gorm.DB { return tx.Order(mealOrder) })
}

// CreateMealPlan inserts the plan row only; days and meals are inserted
// separately so each child insert can fail (and roll back) on its own.
// An empty ID is replaced with a new UUID.
func CreateMealPlan(ctx context.Context, db *gorm.DB, p *domain.MealPlan) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return db.WithContext(ctx).Omit(clause.Associations).Create(p).Error
}

// CreateDay inserts a Day row linked to its plan.
func CreateDay(ctx context.Context, db *gorm.DB, d *domain.Day) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return db.WithContext(ctx).Omit(clause.Associations).Create(d).Error
}

// CreateMeal inserts a Meal row linked to its day.
func CreateMeal(ctx context.Context, db *gorm.DB, m *domain.Meal) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return db.WithContext(ctx).Create(m).Error
}

// GetMealPlanGraph loads a plan with all of its days and meals.
func GetMealPlanGraph(ctx context.Context, db *gorm.DB, id string) (*domain.MealPlan, error) {
	var p domain.MealPlan
	if err := withGraph(db.WithContext(ctx)).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// GetMealPlanForUser loads a plan graph only if it is owned by userID.
func GetMealPlanForUser(ctx context.Context, db *gorm.DB, id, userID string) (*domain.MealPlan, error) {
	var p domain.MealPlan
	err := withGraph(db.WithContext(ctx)).
		Where("id = ? AND user_id = ?", id, userID).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// FindMealPlanByNaturalKey returns the plan matching (userID, title,
// duration, mealsPerDay) with its graph eagerly loaded, or ErrNotFound.
// The title comparison is exact and case-sensitive; callers pass the
// trimmed title.
func FindMealPlanByNaturalKey(ctx context.Context, db *gorm.DB, userID, title string, duration, mealsPerDay int) (*domain.MealPlan, error) {
	var p domain.MealPlan
	err := withGraph(db.WithContext(ctx)).
		Where("user_id = ? AND title = ? AND duration = ? AND meals_per_day = ?", userID, title, duration, mealsPerDay).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CountMealPlans returns the number of plans owned by userID.
func CountMealPlans(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.MealPlan{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

// ListMealPlansPage returns plan rows (without children) for userID, newest
// first. The caller computes offset and limit.
func ListMealPlansPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.MealPlan, error) {
	var out []domain.MealPlan
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Order("id asc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListMealNames returns the names of every meal across the user's plans.
func ListMealNames(ctx context.Context, db *gorm.DB, userID string) ([]string, error) {
	var names []string
	err := db.WithContext(ctx).
		Model(&domain.Meal{}).
		Joins("JOIN days ON days.id = meals.day_id").
		Joins("JOIN meal_plans ON meal_plans.id = days.meal_plan_id").
		Where("meal_plans.user_id = ?", userID).
		Pluck("meals.name", &names).Error
	return names, err
}
