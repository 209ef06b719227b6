package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/go-mealplan-backend/internal/domain"
	"github.com/tbourn/go-mealplan-backend/internal/http/middleware"
	"github.com/tbourn/go-mealplan-backend/internal/observability"
	"github.com/tbourn/go-mealplan-backend/internal/services"
)

// stubPlans is a flexible MealPlanService for handler tests.
type stubPlans struct {
	save     func(context.Context, domain.MealPlanSubmission, string) (*domain.MealPlan, string, error)
	get      func(context.Context, string, string) (*domain.MealPlan, error)
	listPage func(context.Context, string, int, int) ([]domain.MealPlan, int64, error)
	version  func(context.Context, string) (string, error)
}

func (s stubPlans) SaveWithOutcome(ctx context.Context, sub domain.MealPlanSubmission, uid string) (*domain.MealPlan, string, error) {
	return s.save(ctx, sub, uid)
}

func (s stubPlans) Get(ctx context.Context, uid, id string) (*domain.MealPlan, error) {
	return s.get(ctx, uid, id)
}

func (s stubPlans) ListPage(ctx context.Context, uid string, page, size int) ([]domain.MealPlan, int64, error) {
	return s.listPage(ctx, uid, page, size)
}

func (s stubPlans) ListVersion(ctx context.Context, uid string) (string, error) {
	if s.version == nil {
		return "", errors.New("no version")
	}
	return s.version(ctx, uid)
}

func newPlanRouter(svc MealPlanService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Identity(""))
	h := New(svc)
	r.POST("/meal-plans", h.SaveMealPlan)
	r.GET("/meal-plans", h.ListMealPlans)
	r.GET("/meal-plans/:id", h.GetMealPlan)
	return r
}

func do(r http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.HeaderUserID, "chef-1")
	r.ServeHTTP(w, req)
	return w
}

func ketoJSON(t *testing.T) []byte {
	t.Helper()
	b, err := json.Marshal(domain.MealPlanSubmission{
		Title: "Keto Week", Duration: 1, MealsPerDay: 1, CreatedAt: "2026-03-10T08:30:00Z",
		Days: []domain.DaySubmission{{Day: 1, Meals: []domain.MealSubmission{{
			Name: "Eggs", Description: "d", Ingredients: []string{"egg", "salt"}, Instructions: "i",
		}}}},
	})
	require.NoError(t, err)
	return b
}

func TestSaveMealPlan_StatusByOutcome(t *testing.T) {
	cases := map[string]int{
		observability.SaveCreated:   http.StatusCreated,
		observability.SaveExisting:  http.StatusOK,
		observability.SaveRecovered: http.StatusOK,
	}
	for outcome, want := range cases {
		t.Run(outcome, func(t *testing.T) {
			var gotUser string
			var gotSub domain.MealPlanSubmission
			r := newPlanRouter(stubPlans{save: func(_ context.Context, sub domain.MealPlanSubmission, uid string) (*domain.MealPlan, string, error) {
				gotUser, gotSub = uid, sub
				return &domain.MealPlan{ID: "p1", UserID: uid, Title: sub.Title}, outcome, nil
			}})

			w := do(r, http.MethodPost, "/meal-plans", ketoJSON(t))
			require.Equal(t, want, w.Code)

			var body SaveMealPlanResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.True(t, body.Success)
			require.NotNil(t, body.MealPlan)
			assert.Equal(t, "p1", body.MealPlan.ID)
			assert.Equal(t, "chef-1", gotUser)
			assert.Equal(t, "Keto Week", gotSub.Title)
			require.Len(t, gotSub.Days, 1)
			assert.Equal(t, []string{"egg", "salt"}, gotSub.Days[0].Meals[0].Ingredients)
		})
	}
}

func TestSaveMealPlan_MalformedJSONIsValidationError(t *testing.T) {
	called := false
	r := newPlanRouter(stubPlans{save: func(context.Context, domain.MealPlanSubmission, string) (*domain.MealPlan, string, error) {
		called = true
		return nil, "", nil
	}})

	for _, body := range []string{`{"title":`, `{"duration":"seven"}`, `[]`} {
		w := do(r, http.MethodPost, "/meal-plans", []byte(body))
		require.Equal(t, http.StatusBadRequest, w.Code, body)

		var resp SaveErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.Equal(t, services.CodeValidation, resp.Code)
		assert.Equal(t, "invalid JSON body", resp.Error)
		assert.NotEmpty(t, resp.RequestID)
	}
	assert.False(t, called, "service must not be called for undecodable bodies")
}

func TestSaveMealPlan_ServiceErrors(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{&services.SaveError{Code: services.CodeValidation, Message: "title is required"}, http.StatusBadRequest},
		{&services.SaveError{Code: services.CodeDuplicate, Message: "meal plan already exists"}, http.StatusConflict},
		{&services.SaveError{Code: services.CodeNotFound, Message: "related record not found"}, http.StatusNotFound},
		{&services.SaveError{Code: services.CodeUnknown, Message: "failed to save meal plan"}, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		r := newPlanRouter(stubPlans{save: func(context.Context, domain.MealPlanSubmission, string) (*domain.MealPlan, string, error) {
			return nil, "ignored", tc.err
		}})
		w := do(r, http.MethodPost, "/meal-plans", ketoJSON(t))
		assert.Equal(t, tc.want, w.Code, tc.err.Error())

		var resp SaveErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, services.CodeOf(tc.err), resp.Code)
	}
}

func TestListMealPlans_PaginationClampAndEmpty(t *testing.T) {
	var gotPage, gotSize int
	r := newPlanRouter(stubPlans{listPage: func(_ context.Context, uid string, page, size int) ([]domain.MealPlan, int64, error) {
		gotPage, gotSize = page, size
		if uid != "chef-1" {
			return nil, 0, errors.New("wrong user")
		}
		return nil, 0, nil
	}})

	w := do(r, http.MethodGet, "/meal-plans?page=0&page_size=1000", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, gotPage)
	assert.Equal(t, 100, gotSize)

	var resp ListMealPlansResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotNil(t, resp.MealPlans)
	assert.Empty(t, resp.MealPlans)
	assert.Equal(t, Pagination{Page: 1, PageSize: 100}, resp.Pagination)
	assert.Contains(t, w.Body.String(), `"mealPlans":[]`)
}

func TestListMealPlans_PageMath(t *testing.T) {
	r := newPlanRouter(stubPlans{listPage: func(context.Context, string, int, int) ([]domain.MealPlan, int64, error) {
		return []domain.MealPlan{{ID: "a"}, {ID: "b"}}, 5, nil
	}})

	w := do(r, http.MethodGet, "/meal-plans?page=2&page_size=2", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp ListMealPlansResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.MealPlans, 2)
	assert.Equal(t, Pagination{Page: 2, PageSize: 2, Total: 5, TotalPages: 3, HasNext: true}, resp.Pagination)
}

func TestListMealPlans_Error(t *testing.T) {
	r := newPlanRouter(stubPlans{listPage: func(context.Context, string, int, int) ([]domain.MealPlan, int64, error) {
		return nil, 0, errors.New("db down")
	}})

	w := do(r, http.MethodGet, "/meal-plans", nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, ErrCodeListFailed, resp.Code)
	assert.NotContains(t, w.Body.String(), "db down")
}

func TestGetMealPlan(t *testing.T) {
	r := newPlanRouter(stubPlans{get: func(_ context.Context, uid, id string) (*domain.MealPlan, error) {
		switch id {
		case "p1":
			return &domain.MealPlan{ID: id, UserID: uid, Title: "Keto Week"}, nil
		case "boom":
			return nil, errors.New("db down")
		default:
			return nil, services.ErrMealPlanNotFound
		}
	}})

	w := do(r, http.MethodGet, "/meal-plans/p1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var plan domain.MealPlan
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &plan))
	assert.Equal(t, "chef-1", plan.UserID)
	assert.Equal(t, "Keto Week", plan.Title)

	w = do(r, http.MethodGet, "/meal-plans/nope", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), ErrCodeNotFound)

	w = do(r, http.MethodGet, "/meal-plans/boom", nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), ErrCodeInternal)

	w = do(r, http.MethodGet, "/meal-plans/%20", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListMealPlans_ETag(t *testing.T) {
	version := "1:100"
	listed := 0
	r := newPlanRouter(stubPlans{
		version: func(context.Context, string) (string, error) { return version, nil },
		listPage: func(context.Context, string, int, int) ([]domain.MealPlan, int64, error) {
			listed++
			return []domain.MealPlan{{ID: "a"}}, 1, nil
		},
	})

	w := do(r, http.MethodGet, "/meal-plans", nil)
	require.Equal(t, http.StatusOK, w.Code)
	etag := w.Header().Get("ETag")
	assert.Equal(t, `W/"meal-plans:chef-1:1:20:1:100"`, etag)

	get := func(inm string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/meal-plans", nil)
		req.Header.Set(middleware.HeaderUserID, "chef-1")
		req.Header.Set("If-None-Match", inm)
		r.ServeHTTP(w, req)
		return w
	}

	w = get(etag)
	assert.Equal(t, http.StatusNotModified, w.Code)
	assert.Equal(t, 1, listed, "304 must not load the page")

	version = "2:200"
	w = get(etag)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEqual(t, etag, w.Header().Get("ETag"))
	assert.Equal(t, 2, listed)
}
