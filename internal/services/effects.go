// Package services – post-commit side effects
//
// After a meal plan commits, the service emits a MealPlanCreated event to a
// Dispatcher. Each registered EffectHandler runs in its own goroutine and
// failure boundary: an error or panic is logged, counted and dropped. The
// saved plan is already durable, so none of this can fail or delay a Save.
// Wait blocks until in-flight handlers finish; the server calls it on
// shutdown.
package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"gorm.io/gorm"

	"github.com/tbourn/go-mealplan-backend/internal/domain"
	"github.com/tbourn/go-mealplan-backend/internal/observability"
	"github.com/tbourn/go-mealplan-backend/internal/repo"
)

// DefaultEffectTimeout bounds each handler when Dispatcher.Timeout is unset.
const DefaultEffectTimeout = 5 * time.Second

// MealPlanCreated is emitted once a new plan graph has committed.
type MealPlanCreated struct {
	Plan   *domain.MealPlan
	UserID string
	At     time.Time
}

// EffectHandler consumes MealPlanCreated events.
type EffectHandler interface {
	Name() string
	Handle(ctx context.Context, ev MealPlanCreated) error
}

// Dispatcher fans an event out to its handlers.
type Dispatcher struct {
	Handlers []EffectHandler
	Timeout  time.Duration

	inflight sync.WaitGroup
}

// NewDispatcher returns a dispatcher for the given handlers. Nil handlers
// are skipped so optional effects can be passed unconditionally.
func NewDispatcher(timeout time.Duration, hs ...EffectHandler) *Dispatcher {
	d := &Dispatcher{Timeout: timeout}
	for _, h := range hs {
		if h != nil {
			d.Handlers = append(d.Handlers, h)
		}
	}
	return d
}

// Dispatch starts every handler in the background and returns immediately.
// Handlers are detached from ctx cancellation so a client hanging up after
// the commit does not abort the counters, but each is bounded by Timeout.
func (d *Dispatcher) Dispatch(ctx context.Context, ev MealPlanCreated) {
	if d == nil || len(d.Handlers) == 0 {
		return
	}
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = DefaultEffectTimeout
	}
	base := context.WithoutCancel(ctx)

	logger := zerolog.Ctx(ctx)
	for _, h := range d.Handlers {
		d.inflight.Add(1)
		go func(h EffectHandler) {
			defer d.inflight.Done()
			hctx, cancel := context.WithTimeout(base, timeout)
			defer cancel()
			if err := runEffect(hctx, h, ev); err != nil {
				observability.SideEffectFailures.WithLabelValues(h.Name()).Inc()
				logger.Warn().
					Err(err).
					Str("effect", h.Name()).
					Str("user_id", ev.UserID).
					Str("meal_plan_id", ev.Plan.ID).
					Msg("side effect failed")
			}
		}(h)
	}
}

// Wait blocks until every dispatched handler has returned.
func (d *Dispatcher) Wait() {
	if d == nil {
		return
	}
	d.inflight.Wait()
}

// runEffect converts a handler panic into an error.
func runEffect(ctx context.Context, h EffectHandler, ev MealPlanCreated) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h.Handle(ctx, ev)
}

// GenerationCounter increments the user's generation count.
type GenerationCounter struct {
	DB *gorm.DB
}

func (GenerationCounter) Name() string { return "generation_counter" }

func (g GenerationCounter) Handle(ctx context.Context, ev MealPlanCreated) error {
	return repo.IncrementGenerationCount(ctx, g.DB, ev.UserID, ev.At)
}

// AnalyticsAggregator adds the plan's meals to the user's total and
// recomputes the number of distinct recipes, compared case-insensitively.
type AnalyticsAggregator struct {
	DB *gorm.DB
}

func (AnalyticsAggregator) Name() string { return "analytics_aggregator" }

func (a AnalyticsAggregator) Handle(ctx context.Context, ev MealPlanCreated) error {
	names, err := repo.ListMealNames(ctx, a.DB, ev.UserID)
	if err != nil {
		return fmt.Errorf("list meal names: %w", err)
	}
	return repo.UpsertAnalytics(ctx, a.DB, ev.UserID, int64(ev.Plan.MealCount()), CountUniqueRecipes(names), ev.At)
}

// CountUniqueRecipes counts distinct names after trimming and case folding.
func CountUniqueRecipes(names []string) int64 {
	fold := cases.Fold()
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		k := fold.String(strings.Join(strings.Fields(n), " "))
		if k == "" {
			continue
		}
		seen[k] = struct{}{}
	}
	return int64(len(seen))
}

// RedisUsageMirror copies usage counters to Redis. A nil Usage disables it.
type RedisUsageMirror struct {
	Usage *repo.RedisUsage
}

func (RedisUsageMirror) Name() string { return "redis_usage_mirror" }

func (m RedisUsageMirror) Handle(ctx context.Context, ev MealPlanCreated) error {
	return m.Usage.Record(ctx, ev.UserID, int64(ev.Plan.MealCount()), ev.At)
}
