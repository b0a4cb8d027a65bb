package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mealmatchy/backend/internal/api"
	"github.com/mealmatchy/backend/internal/session"
)

// SetupRouter configures the application routes
func SetupRouter(db *gorm.DB, sessions session.Store, jwtSecret string) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://frontend:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "Accept", "Origin", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	}))

	api.SetupAPI(router, db, sessions, jwtSecret)

	return router
}
