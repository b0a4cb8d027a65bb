package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mealmatchy/backend/internal/middleware"
	"github.com/mealmatchy/backend/internal/models"
	"github.com/mealmatchy/backend/internal/service"
)

type BudgetHandler struct {
	ledger      *service.LedgerService
	planService *service.PlanService
	authService *service.AuthService
}

func NewBudgetHandler(ledger *service.LedgerService, planService *service.PlanService, authService *service.AuthService) *BudgetHandler {
	return &BudgetHandler{
		ledger:      ledger,
		planService: planService,
		authService: authService,
	}
}

func (h *BudgetHandler) RegisterRoutes(router *gin.RouterGroup) {
	budget := router.Group("/budget")
	budget.Use(middleware.AuthMiddleware(h.authService))
	{
		budget.GET("/table", h.Table)
		budget.GET("/day/:date", h.Day)
		budget.POST("/day", h.SetDay)
		budget.POST("/week", h.SetWeek)
		budget.POST("/spend", h.Spend)
		budget.POST("/menus/:id/consume", h.ConsumeMenu)
		budget.DELETE("/spends/:id", h.DeleteSpend)
	}
}

// Table renders the reconciliation table. By default it covers the week
// containing `start` (or today); with from_plan=1 it covers the active
// plan's full period and scopes rows to that plan.
func (h *BudgetHandler) Table(c *gin.Context) {
	owner, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var (
		start, end time.Time
		planID     *uuid.UUID
		plan       *models.MealPlan
	)

	if c.Query("from_plan") == "1" {
		p, err := h.planService.ActivePlan(c.Request.Context(), owner)
		if err != nil {
			respondError(c, err)
			return
		}
		plan = p
		planID = &p.ID
		start = models.DateOnly(p.StartDate)
		end = models.DateOnly(p.EndDate())
	} else {
		anchor := time.Now()
		if s := c.Query("start"); s != "" {
			parsed, err := parseDate(s)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start date"})
				return
			}
			anchor = parsed
		}
		start = service.WeekStart(anchor)
		end = start.AddDate(0, 0, 6)
	}

	summary, err := h.ledger.RangeSummary(c.Request.Context(), owner, start, end, planID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{
		"start":       start.Format(dateLayout),
		"end":         end.Format(dateLayout),
		"summary":     summary,
		"match_score": service.MatchScore(summary.TotalBudget, summary.TotalSpent),
	}
	if plan != nil {
		resp["plan"] = plan
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BudgetHandler) Day(c *gin.Context) {
	owner, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	date, err := parseDate(c.Param("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
		return
	}

	detail, err := h.ledger.DayDetail(c.Request.Context(), owner, date, nil)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

func (h *BudgetHandler) SetDay(c *gin.Context) {
	owner, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req SetDayBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
		return
	}

	budget, err := h.ledger.SetDailyBudget(c.Request.Context(), owner, date, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, budget)
}

func (h *BudgetHandler) SetWeek(c *gin.Context) {
	owner, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req SetWeekBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	start, err := parseDate(req.Start)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start date"})
		return
	}

	if err := h.ledger.SetWeek(c.Request.Context(), owner, start, req.Amount); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"start": service.WeekStart(start).Format(dateLayout), "amount": req.Amount})
}

func (h *BudgetHandler) Spend(c *gin.Context) {
	owner, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req SpendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
		return
	}

	spend, err := h.ledger.RecordSpend(c.Request.Context(), owner, date, req.Amount, req.Note)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, spend)
}

func (h *BudgetHandler) ConsumeMenu(c *gin.Context) {
	owner, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	menuID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid menu id"})
		return
	}

	var req ConsumeMenuRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
		return
	}

	spend, err := h.ledger.RecordMenuSpend(c.Request.Context(), owner, date, menuID, req.Meal)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, spend)
}

func (h *BudgetHandler) DeleteSpend(c *gin.Context) {
	owner, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid spend id"})
		return
	}

	if err := h.ledger.DeleteSpend(c.Request.Context(), owner, uint(id)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": id})
}
