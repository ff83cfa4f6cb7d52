package api

import (
	"net/http"

	"fitarc/backend/internal/service"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	planService service.PlanService,
	mealService service.MealService,
	templateService service.TemplateService,
	checkinService service.CheckinService,
) {
	authHandler := NewAuthHandler(authService)
	planHandler := NewPlanHandler(planService)
	mealHandler := NewMealHandler(mealService)
	templateHandler := NewTemplateHandler(templateService)
	checkinHandler := NewCheckinHandler(checkinService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		// --- Profile Routes ---
		protected.GET("/me", authHandler.GetProfile)
		protected.PUT("/me", authHandler.UpdateProfile)

		// --- Template Routes ---
		templateGroup := protected.Group("/templates")
		{
			templateGroup.POST("", templateHandler.CreateTemplate)
			templateGroup.GET("", templateHandler.ListTemplates)
			templateGroup.GET("/:templateId", templateHandler.GetTemplate)
		}

		// --- Workout Plan Routes ---
		planGroup := protected.Group("/plans")
		{
			planGroup.POST("", planHandler.CreatePlan)
			planGroup.GET("", planHandler.GetPlans)
			planGroup.GET("/:planId/range", planHandler.GetPlanRange)
			planGroup.GET("/:planId/days/:date", planHandler.GetDay)
			planGroup.POST("/:planId/days/:date/ensure", planHandler.EnsureDay)
			planGroup.PUT("/:planId/days/:date", planHandler.CommitDay)
			planGroup.POST("/:planId/pin", planHandler.PinTemplates)
		}

		// --- Meal Plan Routes ---
		mealGroup := protected.Group("/meal-plans")
		{
			mealGroup.POST("", mealHandler.CreateMealPlan)
			mealGroup.GET("", mealHandler.GetMealPlans)
			mealGroup.GET("/:planId/range", mealHandler.GetMealRange)
			mealGroup.GET("/:planId/days/:date", mealHandler.GetMealDay)
			mealGroup.PUT("/:planId/days/:date", mealHandler.CommitMealDay)
			mealGroup.POST("/:planId/pin", mealHandler.PinMealTemplate)
		}

		// The encoded element id carries its own plan or override scope, so
		// element deletion is a top-level route shared by both plan kinds.
		protected.DELETE("/elements/:elementId", planHandler.RemoveElement)

		// --- Check-in Routes ---
		checkinGroup := protected.Group("/checkins")
		{
			checkinGroup.POST("/upload-url", checkinHandler.RequestUploadURL)
			checkinGroup.POST("", checkinHandler.ConfirmCheckin)
			checkinGroup.GET("", checkinHandler.ListCheckins)
		}
	}
}
