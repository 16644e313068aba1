package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/projectpilot-dev/projectpilot/internal/handlers"
	"github.com/projectpilot-dev/projectpilot/internal/middleware"
	"github.com/projectpilot-dev/projectpilot/internal/types"
)

func NewRouter() *gin.Engine {
	r := gin.Default()

	// Add CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     types.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)

		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.RegisterUser)
			auth.POST("/login", handlers.LoginUser)
			auth.POST("/logout", handlers.LogoutUser)
			auth.GET("/me", middleware.AuthMiddleware(), handlers.Me)
			auth.PATCH("/me", middleware.AuthMiddleware(), handlers.UpdateUser)
			auth.POST("/me/passcode", middleware.AuthMiddleware(), handlers.RegeneratePasscode)
		}

		api.GET("/tasks", middleware.AuthMiddleware(), handlers.ListTasks)

		projects := api.Group("/projects", middleware.AuthMiddleware())
		{
			projects.POST("", handlers.CreateProject)
			projects.GET("", handlers.ListProjects)
			projects.GET("/:project_id", handlers.GetProject)
			projects.PATCH("/:project_id", handlers.UpdateProject)
			projects.DELETE("/:project_id", handlers.DeleteProject)

			// Membership endpoints
			projects.GET("/:project_id/members", handlers.ListMembers)
			projects.POST("/:project_id/members", handlers.AddMember)
			projects.DELETE("/:project_id/members/:user_id", handlers.RemoveMember)

			// Task endpoints
			projects.GET("/:project_id/tasks", handlers.ListProjectTasks)
			projects.POST("/:project_id/tasks", handlers.CreateTask)
			projects.PATCH("/:project_id/tasks/:task_id", handlers.UpdateTask)
			projects.DELETE("/:project_id/tasks/:task_id", handlers.DeleteTask)
		}
	}

	return r
}
