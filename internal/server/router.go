package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/testtrackhq/testtrack-backend/internal/handlers"
	"github.com/testtrackhq/testtrack-backend/internal/middleware"
)

type RouterConfig struct {
	AuthHandler      *handlers.AuthHandler
	AuthMiddleware   *middleware.AuthMiddleware
	UserHandler      *handlers.UserHandler
	TeamHandler      *handlers.TeamHandler
	ProductHandler   *handlers.ProductHandler
	ProjectHandler   *handlers.ProjectHandler
	TaskHandler      *handlers.TaskHandler
	TestCaseHandler  *handlers.TestCaseHandler
	TestRunHandler   *handlers.TestRunHandler
	ExecutionHandler *handlers.ExecutionHandler
	DefectHandler    *handlers.DefectHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))
	router.Use(otelgin.Middleware("testtrack-backend"))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	router.POST("/register", cfg.AuthHandler.Register)
	router.POST("/login", cfg.AuthHandler.Login)

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// Auth
	protected.POST("/refresh", cfg.AuthHandler.Refresh)
	protected.POST("/logout", cfg.AuthHandler.Logout)
	// User
	protected.GET("/user", cfg.UserHandler.GetMe)
	protected.GET("/user/avatar", cfg.UserHandler.GetAvatar)
	// Teams
	protected.POST("/teams", cfg.TeamHandler.Create)
	protected.GET("/teams", cfg.TeamHandler.List)
	protected.GET("/teams/:teamId/members", cfg.TeamHandler.ListMembers)
	protected.POST("/teams/:teamId/members", cfg.TeamHandler.AddMember)
	protected.DELETE("/teams/:teamId/members/:userId", cfg.TeamHandler.RemoveMember)
	protected.DELETE("/teams/:teamId", cfg.TeamHandler.Delete)
	// Products
	protected.POST("/products", cfg.ProductHandler.Create)
	protected.GET("/products", cfg.ProductHandler.List)
	protected.PUT("/products/:productId", cfg.ProductHandler.Update)
	protected.DELETE("/products/:productId", cfg.ProductHandler.Delete)
	// Projects
	protected.POST("/projects", cfg.ProjectHandler.Create)
	protected.GET("/products/:productId/projects", cfg.ProjectHandler.ListByProduct)
	protected.PUT("/projects/:projectId", cfg.ProjectHandler.Update)
	protected.DELETE("/projects/:projectId", cfg.ProjectHandler.Delete)
	// Tasks
	protected.POST("/tasks", cfg.TaskHandler.Create)
	protected.GET("/projects/:projectId/tasks", cfg.TaskHandler.ListByProject)
	protected.PUT("/tasks/:taskId", cfg.TaskHandler.Update)
	protected.DELETE("/tasks/:taskId", cfg.TaskHandler.Delete)
	// Test cases
	protected.POST("/test-cases", cfg.TestCaseHandler.Create)
	protected.GET("/tasks/:taskId/test-cases", cfg.TestCaseHandler.ListByTask)
	protected.PUT("/test-cases/:caseId", cfg.TestCaseHandler.Update)
	protected.DELETE("/test-cases/:caseId", cfg.TestCaseHandler.Delete)
	// Test runs
	protected.POST("/test-runs", cfg.TestRunHandler.Create)
	protected.GET("/tasks/:taskId/test-runs", cfg.TestRunHandler.ListByTask)
	protected.PUT("/test-runs/:runId/status", cfg.TestRunHandler.UpdateStatus)
	protected.DELETE("/test-runs/:runId", cfg.TestRunHandler.Delete)
	// Executions
	protected.POST("/test-runs/:runId/executions", cfg.ExecutionHandler.RecordResult)
	protected.GET("/test-runs/:runId/executions", cfg.ExecutionHandler.RunHistory)
	// Defects
	protected.POST("/defects", cfg.DefectHandler.Create)
	protected.GET("/defects/:defectId", cfg.DefectHandler.Get)
	protected.GET("/test-runs/:runId/defects", cfg.DefectHandler.ListByRun)
	protected.PUT("/defects/:defectId", cfg.DefectHandler.Update)
	protected.POST("/defects/:defectId/resolve", cfg.DefectHandler.Resolve)
	protected.DELETE("/defects/:defectId", cfg.DefectHandler.Delete)

	return router
}
