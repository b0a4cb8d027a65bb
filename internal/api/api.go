package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mealmatchy/backend/internal/service"
	"github.com/mealmatchy/backend/internal/session"
)

// HealthCheck returns the health status of the API
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "MealMatchy API is running",
		"version": "v1.0.0",
	})
}

// SetupAPI wires the services and registers every route group under /api/v1.
func SetupAPI(router *gin.Engine, db *gorm.DB, sessions session.Store, jwtSecret string) {
	RegisterValidators()

	router.GET("/health", HealthCheck)
	router.GET("/api/health", HealthCheck)

	// Initialize services
	authService := service.NewAuthService(db, jwtSecret)
	ledgerService := service.NewLedgerService(db, sessions)
	planService := service.NewPlanService(db, sessions)
	recipeService := service.NewRecipeCostService(db)
	filter := service.NewDietaryFilter()

	// Initialize handlers
	authHandler := NewAuthHandler(authService)
	planHandler := NewPlanHandler(db, planService, filter, sessions, authService)
	budgetHandler := NewBudgetHandler(ledgerService, planService, authService)
	recipeHandler := NewRecipeHandler(recipeService, authService)

	// Register routes
	v1 := router.Group("/api/v1")
	{
		authHandler.RegisterRoutes(v1)
		planHandler.RegisterRoutes(v1)
		budgetHandler.RegisterRoutes(v1)
		recipeHandler.RegisterRoutes(v1)
	}
}
