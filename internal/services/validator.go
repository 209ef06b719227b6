// Package services – meal plan validation
//
// Validate checks a submission before any I/O happens. It is pure and
// deterministic and never panics. Every violated rule adds one message, so a
// caller can report all problems at once. Meal-level messages carry a
// "Day N, Meal M: " prefix so each one can be located independently.
package services

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tbourn/go-mealplan-backend/internal/domain"
)

// Submission limits.
const (
	MaxTitleLen        = 200
	MinDuration        = 1
	MaxDuration        = 30
	MinMealsPerDay     = 1
	MaxMealsPerDay     = 5
	MaxMealNameLen     = 200
	MaxDescriptionLen  = 1000
	MaxInstructionsLen = 5000
	MaxImageURLLen     = 500
)

// createdAtLayouts are tried in order when parsing a submission's createdAt.
var createdAtLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ValidationResult lists every violation found in a submission.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// Validate checks the structural and semantic rules of a submission.
func Validate(sub domain.MealPlanSubmission) ValidationResult {
	var errs []string
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	title := strings.TrimSpace(sub.Title)
	switch {
	case title == "":
		add("title is required")
	case utf8.RuneCountInString(title) > MaxTitleLen:
		add("title must be at most %d characters", MaxTitleLen)
	}

	durationOK := sub.Duration >= MinDuration && sub.Duration <= MaxDuration
	if !durationOK {
		add("duration must be between %d and %d days", MinDuration, MaxDuration)
	}
	if sub.MealsPerDay < MinMealsPerDay || sub.MealsPerDay > MaxMealsPerDay {
		add("mealsPerDay must be between %d and %d", MinMealsPerDay, MaxMealsPerDay)
	}
	// An omitted createdAt defaults to the save time.
	if strings.TrimSpace(sub.CreatedAt) != "" {
		if _, ok := ParseCreatedAt(sub.CreatedAt); !ok {
			add("createdAt must be a valid date")
		}
	}

	if sub.Days == nil {
		add("days must be an array")
	} else if len(sub.Days) != sub.Duration {
		add("days must contain exactly %d entries, got %d", sub.Duration, len(sub.Days))
	}

	seen := make(map[int]int, len(sub.Days))
	for i, day := range sub.Days {
		if day.Day < 1 || day.Day > sub.Duration {
			add("Day %d (index %d): day number must be between 1 and %d", day.Day, i, sub.Duration)
		}
		if prev, dup := seen[day.Day]; dup {
			add("Day %d (index %d): duplicates the day at index %d", day.Day, i, prev)
		} else {
			seen[day.Day] = i
		}
		if len(day.Meals) == 0 {
			add("Day %d: meals must be a non-empty array", day.Day)
			continue
		}
		for j, meal := range day.Meals {
			for _, msg := range validateMeal(meal) {
				add("Day %d, Meal %d: %s", day.Day, j+1, msg)
			}
		}
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

func validateMeal(m domain.MealSubmission) []string {
	var out []string
	text := func(field, v string, max int) {
		switch {
		case strings.TrimSpace(v) == "":
			out = append(out, field+" is required")
		case utf8.RuneCountInString(v) > max:
			out = append(out, fmt.Sprintf("%s must be at most %d characters", field, max))
		}
	}

	text("name", m.Name, MaxMealNameLen)
	text("description", m.Description, MaxDescriptionLen)

	if m.Ingredients == nil {
		out = append(out, "ingredients must be an array")
	}
	for k, ing := range m.Ingredients {
		if strings.TrimSpace(ing) == "" {
			out = append(out, fmt.Sprintf("ingredient %d must be a non-empty string", k+1))
		}
	}

	text("instructions", m.Instructions, MaxInstructionsLen)

	if m.ImageURL != nil && utf8.RuneCountInString(*m.ImageURL) > MaxImageURLLen {
		out = append(out, fmt.Sprintf("imageUrl must be at most %d characters", MaxImageURLLen))
	}
	if m.Calories != nil && *m.Calories < 0 {
		out = append(out, "calories must be non-negative")
	}
	if m.MealType != nil {
		if _, ok := domain.ParseMealType(*m.MealType); !ok {
			out = append(out, fmt.Sprintf("mealType %q must be one of breakfast, lunch, dinner, snack", *m.MealType))
		}
	}
	return out
}

// ParseCreatedAt parses a submission timestamp using the accepted layouts.
func ParseCreatedAt(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
