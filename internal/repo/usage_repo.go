// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the upserts behind the per-user
// generation counter and analytics aggregates.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-mealplan-backend/internal/domain"
)

// IncrementGenerationCount adds one to the user's generation counter,
// creating the row on first use.
func IncrementGenerationCount(ctx context.Context, db *gorm.DB, userID string, now time.Time) error {
	row := &domain.UserUsage{
		UserID:          userID,
		GenerationCount: 1,
		LastGeneratedAt: now,
		UpdatedAt:       now,
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"generation_count":  gorm.Expr("user_usage.generation_count + 1"),
			"last_generated_at": now,
			"updated_at":        now,
		}),
	}).Create(row).Error
}

// UpsertAnalytics adds mealsAdded to the user's total and replaces the
// unique recipe count with the freshly computed value.
func UpsertAnalytics(ctx context.Context, db *gorm.DB, userID string, mealsAdded, uniqueRecipes int64, now time.Time) error {
	row := &domain.UserAnalytics{
		UserID:           userID,
		TotalMealsCooked: mealsAdded,
		UniqueRecipes:    uniqueRecipes,
		UpdatedAt:        now,
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"total_meals_cooked": gorm.Expr("user_analytics.total_meals_cooked + ?", mealsAdded),
			"unique_recipes":     uniqueRecipes,
			"updated_at":         now,
		}),
	}).Create(row).Error
}

// GetUsage returns the user's generation counter, or ErrNotFound.
func GetUsage(ctx context.Context, db *gorm.DB, userID string) (*domain.UserUsage, error) {
	var u domain.UserUsage
	if err := db.WithContext(ctx).Where("user_id = ?", userID).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetAnalytics returns the user's analytics aggregate, or ErrNotFound.
func GetAnalytics(ctx context.Context, db *gorm.DB, userID string) (*domain.UserAnalytics, error) {
	var a domain.UserAnalytics
	if err := db.WithContext(ctx).Where("user_id = ?", userID).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}
