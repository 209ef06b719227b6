package domain

// MealPlanSubmission is the payload produced by the plan generator and sent
// by clients to be persisted. It is validated before anything is stored and
// never persisted as-is.
type MealPlanSubmission struct {
	Title       string          `json:"title"       example:"Keto Week"`
	Duration    int             `json:"duration"    example:"7"`
	MealsPerDay int             `json:"mealsPerDay" example:"3"`
	CreatedAt   string          `json:"createdAt,omitempty" example:"2025-01-06T08:00:00Z"` // optional, defaults to save time
	Days        []DaySubmission `json:"days"`
}

// DaySubmission is one day of a submission. Day is 1-based.
type DaySubmission struct {
	Day   int              `json:"day" example:"1"`
	Meals []MealSubmission `json:"meals"`
}

// MealSubmission is one meal of a submitted day. Pointer fields are optional
// and fall back to derived values when nil.
type MealSubmission struct {
	Name         string   `json:"name"         example:"Scrambled eggs"`
	Description  string   `json:"description"  example:"Soft eggs with chives"`
	Ingredients  []string `json:"ingredients"`
	Instructions string   `json:"instructions" example:"Whisk, then cook gently."`
	ImageURL     *string  `json:"imageUrl,omitempty"`
	Calories     *float64 `json:"calories,omitempty"`
	MealType     *string  `json:"mealType,omitempty" example:"breakfast"`
}
