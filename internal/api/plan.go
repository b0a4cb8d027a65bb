package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mealmatchy/backend/internal/middleware"
	"github.com/mealmatchy/backend/internal/models"
	"github.com/mealmatchy/backend/internal/service"
	"github.com/mealmatchy/backend/internal/session"
)

type PlanHandler struct {
	db          *gorm.DB
	planService *service.PlanService
	filter      *service.DietaryFilter
	sessions    session.Store
	authService *service.AuthService
}

func NewPlanHandler(db *gorm.DB, planService *service.PlanService, filter *service.DietaryFilter, sessions session.Store, authService *service.AuthService) *PlanHandler {
	return &PlanHandler{
		db:          db,
		planService: planService,
		filter:      filter,
		sessions:    sessions,
		authService: authService,
	}
}

func (h *PlanHandler) RegisterRoutes(router *gin.RouterGroup) {
	plan := router.Group("/plan")
	plan.Use(middleware.AuthMiddleware(h.authService))
	{
		plan.POST("/start", h.Start)
		plan.POST("/diet", h.SetDiet)
		plan.GET("/summary", h.Summary)
		plan.POST("/save", h.Save)
		plan.GET("/active", h.Active)
	}
}

func (h *PlanHandler) Start(c *gin.Context) {
	owner, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req StartPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	start, err := parseDate(req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date"})
		return
	}

	draft, err := h.planService.StartDraft(c.Request.Context(), owner, service.DraftPlan{
		StartDate:   start,
		Days:        req.Days,
		TotalBudget: req.TotalBudget,
		Title:       req.Title,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, draft)
}

func (h *PlanHandler) SetDiet(c *gin.Context) {
	owner, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req DietRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	draft, err := h.planService.SetRestrictions(c.Request.Context(), owner, service.RestrictionProfile{
		BudgetCeiling: req.BudgetCeiling,
		Allergies:     req.Allergies,
		Dislikes:      req.Dislikes,
		Religions:     req.Religions,
		ExtraAllergy:  req.ExtraAllergy,
		ExtraDislike:  req.ExtraDislike,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, draft)
}

// Summary returns the working draft together with the approved menus that
// survive the draft's restrictions, capped at the per-day allowance.
func (h *PlanHandler) Summary(c *gin.Context) {
	owner, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	draft, err := h.sessions.Get(c.Request.Context(), owner)
	if err != nil {
		respondError(c, err)
		return
	}
	if draft == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no plan in progress"})
		return
	}

	var menus []models.Menu
	if err := h.db.WithContext(c.Request.Context()).
		Preload("Ingredients").
		Where("status = ?", models.MenuStatusApproved).
		Order("created_at desc").
		Find(&menus).Error; err != nil {
		respondError(c, err)
		return
	}

	profile := service.RestrictionProfile{
		Allergies:    draft.Allergies,
		Dislikes:     draft.Dislikes,
		Religions:    draft.Religions,
		ExtraAllergy: draft.ExtraAllergy,
		ExtraDislike: draft.ExtraDislike,
	}
	if daily := draft.DefaultDailyBudget(); daily > 0 {
		profile.BudgetCeiling = &daily
	}

	c.JSON(http.StatusOK, gin.H{
		"draft":        draft,
		"daily_budget": draft.DefaultDailyBudget(),
		"menus":        h.filter.FilterMenus(menus, profile),
	})
}

func (h *PlanHandler) Save(c *gin.Context) {
	owner, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	// The selection payload is parsed leniently: a malformed body degrades
	// to an empty selection, which the save rejects with a clear message
	// instead of a generic bind error.
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	var req struct {
		Items json.RawMessage `json:"items"`
	}
	var items []session.SelectedItem
	if jerr := json.Unmarshal(body, &req); jerr == nil {
		items = service.ParseSelections(req.Items)
	}

	draft, err := h.sessions.Get(c.Request.Context(), owner)
	if err != nil {
		respondError(c, err)
		return
	}
	if draft == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no plan in progress"})
		return
	}

	start, err := parseDate(draft.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "draft has no valid start date"})
		return
	}

	if len(items) == 0 {
		items = draft.SelectedItems
	}

	plan, err := h.planService.SavePlan(c.Request.Context(), owner, service.DraftPlan{
		StartDate:   start,
		Days:        draft.Days,
		TotalBudget: draft.TotalBudget,
		Title:       draft.Title,
	}, items)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, plan)
}

func (h *PlanHandler) Active(c *gin.Context) {
	owner, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	plan, err := h.planService.ActivePlan(c.Request.Context(), owner)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, plan)
}
