// Package services – MealPlanService
//
// MealPlanService is the composition root for saving generated meal plans.
// A Save runs validation, then the natural-key lookup, then the atomic
// plan → days → meals insert, and finally the post-commit side effects. Every
// failure is reported as a *SaveError carrying one of the Code* values; a
// caller never sees a partially persisted plan.
//
// Saving is idempotent on (user, title, duration, mealsPerDay). The lookup
// and the insert are not one serializable unit, so two concurrent saves can
// both miss the lookup; the unique index rejects the loser, which then
// re-reads and returns the winner's plan.
//
// Observability: public methods are OpenTelemetry-instrumented and every
// Save outcome is counted in mealplan_saves_total.
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-mealplan-backend/internal/domain"
	"github.com/tbourn/go-mealplan-backend/internal/observability"
	"github.com/tbourn/go-mealplan-backend/internal/repo"
	"github.com/tbourn/go-mealplan-backend/internal/utils"
)

// caloriesPerIngredient estimates calories for meals that arrive without a
// value.
const caloriesPerIngredient = 100

// MealPlanRepo defines the repository contract required by MealPlanService.
type MealPlanRepo interface {
	// FindMealPlanByNaturalKey returns the plan graph for the natural key.
	FindMealPlanByNaturalKey(ctx context.Context, db *gorm.DB, userID, title string, duration, mealsPerDay int) (*domain.MealPlan, error)

	// CreateMealPlan inserts the plan row only.
	CreateMealPlan(ctx context.Context, db *gorm.DB, p *domain.MealPlan) error

	// CreateDay inserts a day row.
	CreateDay(ctx context.Context, db *gorm.DB, d *domain.Day) error

	// CreateMeal inserts a meal row.
	CreateMeal(ctx context.Context, db *gorm.DB, m *domain.Meal) error

	// GetMealPlanGraph loads a plan with its days and meals.
	GetMealPlanGraph(ctx context.Context, db *gorm.DB, id string) (*domain.MealPlan, error)

	// GetMealPlanForUser loads a plan graph owned by userID.
	GetMealPlanForUser(ctx context.Context, db *gorm.DB, id, userID string) (*domain.MealPlan, error)

	// CountMealPlans returns the number of plans for pagination.
	CountMealPlans(ctx context.Context, db *gorm.DB, userID string) (int64, error)

	// ListMealPlansPage returns a page of plan rows.
	ListMealPlansPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.MealPlan, error)

	// MealPlansStats returns the plan count and latest UpdatedAt for userID.
	MealPlansStats(ctx context.Context, db *gorm.DB, userID string) (int64, *time.Time, error)
}

// MealPlanService saves and reads meal plans.
type MealPlanService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the meal plan repository.
	Repo MealPlanRepo
	// Effects receives MealPlanCreated after each commit. Nil disables them.
	Effects *Dispatcher

	// Location anchors day dates to local midnight. Defaults to UTC.
	Location *time.Location
	// Now is the clock used for day dates and event timestamps.
	Now func() time.Time
}

// NewMealPlanService constructs a MealPlanService with a UTC wall clock.
func NewMealPlanService(db *gorm.DB, r MealPlanRepo, effects *Dispatcher) *MealPlanService {
	return &MealPlanService{
		DB:       db,
		Repo:     r,
		Effects:  effects,
		Location: time.UTC,
		Now:      time.Now,
	}
}

// Save persists sub for userID, or returns the plan already stored under the
// same natural key. The error, when non-nil, is always a *SaveError.
func (s *MealPlanService) Save(ctx context.Context, sub domain.MealPlanSubmission, userID string) (*domain.MealPlan, error) {
	plan, _, err := s.SaveWithOutcome(ctx, sub, userID)
	return plan, err
}

// SaveWithOutcome is Save that also reports how the plan was obtained:
// observability.SaveCreated, SaveExisting or SaveRecovered.
func (s *MealPlanService) SaveWithOutcome(ctx context.Context, sub domain.MealPlanSubmission, userID string) (*domain.MealPlan, string, error) {
	ctx, span := observability.Tracer("services/MealPlanService").Start(ctx, "Save",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("meal_plan.duration", sub.Duration),
			attribute.Int("meal_plan.meals_per_day", sub.MealsPerDay),
		),
	)
	defer span.End()

	plan, result, err := s.save(ctx, sub, userID)
	observability.MealPlanSaves.WithLabelValues(result).Inc()
	span.SetAttributes(attribute.String("meal_plan.result", result))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, CodeOf(err))
		return nil, result, err
	}
	span.SetAttributes(attribute.String("meal_plan.id", plan.ID))
	return plan, result, nil
}

func (s *MealPlanService) save(ctx context.Context, sub domain.MealPlanSubmission, userID string) (*domain.MealPlan, string, error) {
	log := zerolog.Ctx(ctx)

	if strings.TrimSpace(userID) == "" {
		return nil, resultOf(CodeValidation), &SaveError{Code: CodeValidation, Message: ErrMissingUser.Error(), Err: ErrMissingUser}
	}
	if utf8.RuneCountInString(userID) > domain.MaxUserIDLen {
		return nil, resultOf(CodeValidation), &SaveError{Code: CodeValidation, Message: ErrUserIDTooLong.Error(), Err: ErrUserIDTooLong}
	}
	if res := Validate(sub); !res.Valid {
		return nil, resultOf(CodeValidation), &SaveError{Code: CodeValidation, Message: strings.Join(res.Errors, "; ")}
	}
	title := strings.TrimSpace(sub.Title)

	existing, err := s.Repo.FindMealPlanByNaturalKey(ctx, s.DB, userID, title, sub.Duration, sub.MealsPerDay)
	switch {
	case err == nil:
		log.Debug().Str("meal_plan_id", existing.ID).Msg("meal plan already exists")
		return existing, observability.SaveExisting, nil
	case !repo.IsNotFound(err):
		se := s.classify(err)
		log.Error().Err(err).Str("code", se.Code).Msg("meal plan lookup failed")
		return nil, resultOf(se.Code), se
	}

	plan, err := s.createGraph(ctx, sub, title, userID)
	if err != nil {
		if repo.IsDuplicate(err) {
			winner, ferr := s.Repo.FindMealPlanByNaturalKey(ctx, s.DB, userID, title, sub.Duration, sub.MealsPerDay)
			if ferr == nil {
				log.Info().Str("meal_plan_id", winner.ID).Msg("concurrent save won; returning existing meal plan")
				return winner, observability.SaveRecovered, nil
			}
			log.Warn().Err(err).AnErr("requery_error", ferr).Msg("duplicate meal plan could not be re-read")
			return nil, resultOf(CodeDuplicate), &SaveError{Code: CodeDuplicate, Message: "meal plan already exists", Err: err}
		}
		se := s.classify(err)
		log.Error().Err(err).Str("code", se.Code).Msg("meal plan save failed")
		return nil, resultOf(se.Code), se
	}

	s.Effects.Dispatch(ctx, MealPlanCreated{Plan: plan, UserID: userID, At: s.now()})
	return plan, observability.SaveCreated, nil
}

// createGraph inserts the plan, its days and their meals in one transaction
// and returns the re-read graph. Any error rolls everything back.
func (s *MealPlanService) createGraph(ctx context.Context, sub domain.MealPlanSubmission, title, userID string) (*domain.MealPlan, error) {
	createdAt, ok := ParseCreatedAt(sub.CreatedAt)
	if !ok {
		createdAt = s.now()
	}
	today := midnight(s.now(), s.location())

	days := make([]domain.DaySubmission, len(sub.Days))
	copy(days, sub.Days)
	sort.SliceStable(days, func(i, j int) bool { return days[i].Day < days[j].Day })

	var out *domain.MealPlan
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		plan := &domain.MealPlan{
			UserID:      userID,
			Title:       title,
			Duration:    sub.Duration,
			MealsPerDay: sub.MealsPerDay,
			CreatedAt:   createdAt,
		}
		if err := s.Repo.CreateMealPlan(ctx, tx, plan); err != nil {
			return err
		}

		for _, ds := range days {
			day := &domain.Day{
				MealPlanID: plan.ID,
				Date:       today.AddDate(0, 0, ds.Day-1),
			}
			if err := s.Repo.CreateDay(ctx, tx, day); err != nil {
				return err
			}
			for i, ms := range ds.Meals {
				if err := s.Repo.CreateMeal(ctx, tx, buildMeal(day.ID, i, ms)); err != nil {
					return err
				}
			}
		}

		g, err := s.Repo.GetMealPlanGraph(ctx, tx, plan.ID)
		if err != nil {
			return err
		}
		out = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// buildMeal resolves the derived fields of the meal at index i.
func buildMeal(dayID string, i int, ms domain.MealSubmission) *domain.Meal {
	typ := domain.MealTypeForPosition(i)
	if ms.MealType != nil {
		if t, ok := domain.ParseMealType(*ms.MealType); ok {
			typ = t
		}
	}
	calories := float64(len(ms.Ingredients) * caloriesPerIngredient)
	if ms.Calories != nil {
		calories = *ms.Calories
	}
	ingredients := make([]string, len(ms.Ingredients))
	for k, ing := range ms.Ingredients {
		ingredients[k] = strings.TrimSpace(ing)
	}
	return &domain.Meal{
		DayID:        dayID,
		Position:     i,
		Name:         strings.TrimSpace(ms.Name),
		Type:         typ,
		Description:  ms.Description,
		Calories:     calories,
		Ingredients:  ingredients,
		Instructions: ms.Instructions,
		ImageURL:     ms.ImageURL,
	}
}

// Get returns a plan graph owned by userID.
func (s *MealPlanService) Get(ctx context.Context, userID, id string) (*domain.MealPlan, error) {
	ctx, span := observability.Tracer("services/MealPlanService").Start(ctx, "Get",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("meal_plan.id", id),
		),
	)
	defer span.End()

	p, err := s.Repo.GetMealPlanForUser(ctx, s.DB, id, userID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrMealPlanNotFound
		}
		return nil, err
	}
	return p, nil
}

// ListPage returns a page of the user's plans (without days) and the total.
// Page values are bounded by utils.NormalizePage.
func (s *MealPlanService) ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.MealPlan, int64, error) {
	ctx, span := observability.Tracer("services/MealPlanService").Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	page, pageSize = utils.NormalizePage(page, pageSize)
	offset := utils.Offset(page, pageSize)

	total, err := s.Repo.CountMealPlans(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.MealPlan{}, 0, nil
	}

	items, err := s.Repo.ListMealPlansPage(ctx, s.DB, userID, offset, pageSize)
	return items, total, err
}

// ListVersion returns a token that changes whenever the user's set of plans
// changes. Handlers use it to build list ETags.
func (s *MealPlanService) ListVersion(ctx context.Context, userID string) (string, error) {
	count, maxTS, err := s.Repo.MealPlansStats(ctx, s.DB, userID)
	if err != nil {
		return "", err
	}
	var ts int64
	if maxTS != nil {
		ts = maxTS.UnixNano()
	}
	return fmt.Sprintf("%d:%d", count, ts), nil
}

// classify maps a storage error to a SaveError. Duplicates are handled by
// the caller because they trigger a re-read.
func (s *MealPlanService) classify(err error) *SaveError {
	switch {
	case repo.IsNotFound(err), repo.IsForeignKey(err):
		return &SaveError{Code: CodeNotFound, Message: "related record not found", Err: err}
	case repo.IsDuplicate(err):
		return &SaveError{Code: CodeDuplicate, Message: "meal plan already exists", Err: err}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &SaveError{Code: CodeUnknown, Message: "request cancelled", Err: err}
	default:
		return &SaveError{Code: CodeUnknown, Message: "failed to save meal plan", Err: err}
	}
}

func (s *MealPlanService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *MealPlanService) location() *time.Location {
	if s.Location != nil {
		return s.Location
	}
	return time.UTC
}

// midnight returns the start of t's calendar day in loc.
func midnight(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// resultOf turns a SaveError code into a metric label.
func resultOf(code string) string {
	return strings.ToLower(code)
}
