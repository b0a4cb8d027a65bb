package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mealmatchy/backend/internal/session"
	"github.com/mealmatchy/backend/internal/testhelpers"
)

func setupTestAPI(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testhelpers.SetupTestDB(t)
	router := gin.New()
	SetupAPI(router, db, session.NewMemoryStore(), "test-secret-at-least-16-chars")
	return router, db
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func registerUser(t *testing.T, router *gin.Engine) string {
	t.Helper()

	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name":     "Alex",
		"email":    "alex@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestHealthCheck(t *testing.T) {
	router, _ := setupTestAPI(t)

	w := doJSON(t, router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestAuthFlow(t *testing.T) {
	router, _ := setupTestAPI(t)
	registerUser(t, router)

	// Duplicate registration conflicts.
	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name":     "Alex",
		"email":    "alex@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    "alex@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    "alex@example.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBudgetEndpointsRequireAuth(t *testing.T) {
	router, _ := setupTestAPI(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/budget/table", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/budget/table", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBudgetDayFlow(t *testing.T) {
	router, _ := setupTestAPI(t)
	token := registerUser(t, router)

	w := doJSON(t, router, http.MethodPost, "/api/v1/budget/day", token, gin.H{
		"date":   "2026-03-02",
		"amount": 100,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodPost, "/api/v1/budget/spend", token, gin.H{
		"date":   "2026-03-02",
		"amount": 130,
		"note":   "lunch",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodGet, "/api/v1/budget/day/2026-03-02", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var detail struct {
		BudgetAmount int    `json:"budget_amount"`
		SpentAmount  int    `json:"spent_amount"`
		RemainAmount int    `json:"remain_amount"`
		Advice       string `json:"advice"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Equal(t, 100, detail.BudgetAmount)
	assert.Equal(t, 130, detail.SpentAmount)
	assert.Equal(t, "over budget by 30", detail.Advice)
}

func TestBudgetDayValidation(t *testing.T) {
	router, _ := setupTestAPI(t)
	token := registerUser(t, router)

	// Malformed date fails the binding rule.
	w := doJSON(t, router, http.MethodPost, "/api/v1/budget/day", token, gin.H{
		"date":   "03/02/2026",
		"amount": 100,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/budget/day/yesterday", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Non-positive spend amounts fail binding.
	w = doJSON(t, router, http.MethodPost, "/api/v1/budget/spend", token, gin.H{
		"date":   "2026-03-02",
		"amount": -5,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteSpendNotFound(t *testing.T) {
	router, _ := setupTestAPI(t)
	token := registerUser(t, router)

	w := doJSON(t, router, http.MethodDelete, "/api/v1/budget/spends/12345", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPlanFlow(t *testing.T) {
	router, db := setupTestAPI(t)
	token := registerUser(t, router)

	testhelpers.CreateTestMenu(t, db, "Pork belly stir-fry", 55)
	chickenMenu := testhelpers.CreateTestMenu(t, db, "Chicken stir-fry", 50)

	w := doJSON(t, router, http.MethodPost, "/api/v1/plan/start", token, gin.H{
		"start_date":   "2026-03-02",
		"days":         3,
		"total_budget": 300,
		"title":        "March trial",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodPost, "/api/v1/plan/diet", token, gin.H{
		"allergies": []string{"pork"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodGet, "/api/v1/plan/summary", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := w.Body.String()
	assert.Contains(t, body, "Chicken stir-fry")
	assert.NotContains(t, body, "Pork belly")

	w = doJSON(t, router, http.MethodPost, "/api/v1/plan/save", token, gin.H{
		"items": []gin.H{
			{"menu_id": chickenMenu.ID.String(), "day_offset": 0, "meal": "lunch"},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// The plan-scoped table now covers the full period.
	w = doJSON(t, router, http.MethodGet, "/api/v1/budget/table?from_plan=1", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var table struct {
		Start   string `json:"start"`
		End     string `json:"end"`
		Summary struct {
			TotalBudget int `json:"total_budget"`
			TotalSpent  int `json:"total_spent"`
		} `json:"summary"`
		MatchScore int `json:"match_score"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &table))
	assert.Equal(t, "2026-03-02", table.Start)
	assert.Equal(t, "2026-03-04", table.End)
	assert.Equal(t, 300, table.Summary.TotalBudget)
	assert.Equal(t, 50, table.Summary.TotalSpent)
}

func TestPlanSaveOverBudget(t *testing.T) {
	router, db := setupTestAPI(t)
	token := registerUser(t, router)
	menu := testhelpers.CreateTestMenu(t, db, "Feast platter", 80)

	w := doJSON(t, router, http.MethodPost, "/api/v1/plan/start", token, gin.H{
		"start_date":   "2026-03-02",
		"days":         2,
		"total_budget": 200,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/plan/save", token, gin.H{
		"items": []gin.H{
			{"menu_id": menu.ID.String(), "day_offset": 0, "meal": "lunch"},
			{"menu_id": menu.ID.String(), "day_offset": 0, "meal": "dinner"},
		},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "exceed the daily budget")
}

// A malformed selection payload degrades to an empty selection, so the save
// fails the select-something precondition rather than a generic bind error.
func TestPlanSaveMalformedSelection(t *testing.T) {
	router, _ := setupTestAPI(t)
	token := registerUser(t, router)

	w := doJSON(t, router, http.MethodPost, "/api/v1/plan/start", token, gin.H{
		"start_date":   "2026-03-02",
		"days":         3,
		"total_budget": 300,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	for _, body := range []string{
		`{"items": garbage`,
		`{"items": 5}`,
		`{"items": [{"menu_id": "not-a-uuid"}]}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/plan/save", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Contains(t, rec.Body.String(), "select at least one menu", body)
	}
}

func TestPlanSummaryWithoutDraft(t *testing.T) {
	router, _ := setupTestAPI(t)
	token := registerUser(t, router)

	w := doJSON(t, router, http.MethodGet, "/api/v1/plan/summary", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecipeEndpoints(t *testing.T) {
	router, db := setupTestAPI(t)
	token := registerUser(t, router)

	flour := testhelpers.CreateTestIngredient(t, db, "flour", "0.05")
	butter := testhelpers.CreateTestIngredient(t, db, "butter", "0.10")

	w := doJSON(t, router, http.MethodPost, "/api/v1/recipes", token, gin.H{
		"title":    "Shortbread",
		"servings": 4,
		"lines": []gin.H{
			{"ingredient_id": flour.ID.String(), "quantity_grams": "100"},
			{"ingredient_id": butter.ID.String(), "quantity_grams": "50"},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Recipe struct {
			ID string `json:"id"`
		} `json:"recipe"`
		Cost struct {
			IngredientsCost string `json:"ingredients_cost"`
			TotalCost       string `json:"total_cost"`
		} `json:"cost"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "10", created.Cost.IngredientsCost)

	w = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/v1/recipes/%s", created.Recipe.ID), token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// A recipe without lines fails binding outright.
	w = doJSON(t, router, http.MethodPost, "/api/v1/recipes", token, gin.H{
		"title": "Nothing",
		"lines": []gin.H{},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCookingSettingsEndpoints(t *testing.T) {
	router, _ := setupTestAPI(t)
	token := registerUser(t, router)

	w := doJSON(t, router, http.MethodGet, "/api/v1/cooking-settings", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"mode":"basic"`)

	w = doJSON(t, router, http.MethodPut, "/api/v1/cooking-settings", token, gin.H{
		"mode":             "advanced",
		"electricity_rate": "4",
		"electric_wattage": "1200",
		"default_stove":    "electric",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"mode":"advanced"`)

	w = doJSON(t, router, http.MethodPut, "/api/v1/cooking-settings", token, gin.H{
		"mode": "turbo",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
