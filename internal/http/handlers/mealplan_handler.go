// Meal plan HTTP handlers.
//
// This file exposes REST endpoints for meal plan resources:
//   - POST   /meal-plans        (save, idempotent on the natural key)
//   - GET    /meal-plans        (list, paginated, ETag support)
//   - GET    /meal-plans/{id}   (fetch a full plan graph)
//
// Handlers are transport-thin: they decode input, call the application
// service, and translate results into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-mealplan-backend/internal/domain"
	"github.com/tbourn/go-mealplan-backend/internal/http/middleware"
	"github.com/tbourn/go-mealplan-backend/internal/observability"
	"github.com/tbourn/go-mealplan-backend/internal/services"
	"github.com/tbourn/go-mealplan-backend/internal/utils"
)

// MealPlanService defines the meal plan operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type MealPlanService interface {
	// SaveWithOutcome validates and persists a submission for userID, or
	// returns the existing plan with the same natural key. The outcome is
	// one of observability.SaveCreated, SaveExisting or SaveRecovered.
	SaveWithOutcome(ctx context.Context, sub domain.MealPlanSubmission, userID string) (*domain.MealPlan, string, error)
	// Get returns a plan graph owned by userID.
	Get(ctx context.Context, userID, id string) (*domain.MealPlan, error)
	// ListPage returns a page of the user's plans and the total count.
	ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.MealPlan, int64, error)
	// ListVersion returns a token that changes whenever the user's plans do.
	ListVersion(ctx context.Context, userID string) (string, error)
}

// Handlers groups the HTTP endpoints for meal plans.
type Handlers struct {
	plans MealPlanService
}

// New constructs and returns a Handlers instance bound to the given service.
func New(plans MealPlanService) *Handlers {
	return &Handlers{plans: plans}
}

//
// DTOs
//

// SaveMealPlanResponse is returned by a successful save.
type SaveMealPlanResponse struct {
	Success  bool             `json:"success" example:"true"`
	MealPlan *domain.MealPlan `json:"mealPlan"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListMealPlansResponse wraps a page of plans and pagination information.
// Plans in a listing carry no days; fetch one by id for the full graph.
type ListMealPlansResponse struct {
	MealPlans  []domain.MealPlan `json:"mealPlans"`
	Pagination Pagination        `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	page = utils.AtoiDefault(c.Query("page"), 1)
	pageSize = utils.AtoiDefault(c.Query("page_size"), utils.DefaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	return utils.NormalizePage(page, pageSize)
}

func newPagination(page, pageSize int, total int64) Pagination {
	totalPages := utils.TotalPages(total, pageSize)
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

//
// Handlers
//

// SaveMealPlan godoc
// @ID          saveMealPlan
// @Summary     Save a generated meal plan
// @Description Validates and persists a meal plan with its days and meals in one transaction.
// @Description Saving is idempotent on (user, title, duration, mealsPerDay): a repeat returns the stored plan with 200.
// @Tags        MealPlans
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false  "User ID (when no JWT secret is configured)"  example(user123)
// @Param       body       body    domain.MealPlanSubmission  true  "Meal plan submission"
//
// @Success     201  {object}  handlers.SaveMealPlanResponse  "Created"
// @Success     200  {object}  handlers.SaveMealPlanResponse  "Existing plan returned"
// @Failure     400  {object}  handlers.SaveErrorResponse     "VALIDATION_ERROR"
// @Failure     401  {object}  handlers.ErrorResponse         "Unauthorized"
// @Failure     404  {object}  handlers.SaveErrorResponse     "NOT_FOUND"
// @Failure     409  {object}  handlers.SaveErrorResponse     "DUPLICATE_ERROR"
// @Failure     429  {object}  handlers.ErrorResponse         "Rate limited"
// @Failure     500  {object}  handlers.SaveErrorResponse     "UNKNOWN_ERROR"
// @Router      /meal-plans [post]
func (h *Handlers) SaveMealPlan(c *gin.Context) {
	var sub domain.MealPlanSubmission
	if err := c.ShouldBindJSON(&sub); err != nil {
		failSave(c, &services.SaveError{Code: services.CodeValidation, Message: "invalid JSON body", Err: err})
		return
	}

	plan, outcome, err := h.plans.SaveWithOutcome(c.Request.Context(), sub, middleware.UserID(c))
	if err != nil {
		failSave(c, err)
		return
	}

	status := http.StatusOK
	if outcome == observability.SaveCreated {
		status = http.StatusCreated
	}
	ok(c, status, SaveMealPlanResponse{Success: true, MealPlan: plan})
}

// ListMealPlans godoc
// @ID          listMealPlans
// @Summary     List meal plans (paginated)
// @Description Returns a page of the user's meal plans, newest first, without days. Supports weak ETag via If-None-Match and may return 304.
// @Tags        MealPlans
// @Produce     json
//
// @Param       X-User-ID      header  string  false  "User ID (when no JWT secret is configured)"  example(user123)
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
// @Param       page           query   int     false  "Page number (1-based)"  minimum(1) default(1)
// @Param       page_size      query   int     false  "Items per page"         minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListMealPlansResponse
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /meal-plans [get]
func (h *Handlers) ListMealPlans(c *gin.Context) {
	ctx := c.Request.Context()
	uid := middleware.UserID(c)
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	if v, err := h.plans.ListVersion(ctx, uid); err == nil {
		etag := fmt.Sprintf(`W/"meal-plans:%s:%d:%d:%s"`, uid, page, pageSize, v)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	items, total, err := h.plans.ListPage(ctx, uid, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "failed to list meal plans")
		return
	}
	if items == nil {
		items = []domain.MealPlan{}
	}
	ok(c, http.StatusOK, ListMealPlansResponse{
		MealPlans:  items,
		Pagination: newPagination(page, pageSize, total),
	})
}

// GetMealPlan godoc
// @ID          getMealPlan
// @Summary     Get a meal plan
// @Description Returns the plan with its days (by date) and meals (breakfast, lunch, dinner, snack).
// @Tags        MealPlans
// @Produce     json
//
// @Param       X-User-ID  header  string  false  "User ID (when no JWT secret is configured)"  example(user123)
// @Param       id         path    string  true   "Meal plan ID"
//
// @Success     200  {object}  domain.MealPlan
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /meal-plans/{id} [get]
func (h *Handlers) GetMealPlan(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "id is required")
		return
	}

	plan, err := h.plans.Get(c.Request.Context(), middleware.UserID(c), id)
	switch {
	case errors.Is(err, services.ErrMealPlanNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "meal plan not found")
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "failed to load meal plan")
	default:
		ok(c, http.StatusOK, plan)
	}
}
