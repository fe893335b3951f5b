package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/testtrackhq/testtrack-backend/internal/clients/redis"
	"github.com/testtrackhq/testtrack-backend/internal/db"
	"github.com/testtrackhq/testtrack-backend/internal/handlers"
	"github.com/testtrackhq/testtrack-backend/internal/logger"
	"github.com/testtrackhq/testtrack-backend/internal/middleware"
	"github.com/testtrackhq/testtrack-backend/internal/observability"
	"github.com/testtrackhq/testtrack-backend/internal/repos"
	"github.com/testtrackhq/testtrack-backend/internal/server"
	"github.com/testtrackhq/testtrack-backend/internal/services"
	"github.com/testtrackhq/testtrack-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)
	dedupOpenDefects := utils.GetEnvAsBool("DEFECT_DEDUP_OPEN", false, log)
	port := utils.GetEnv("PORT", "8080", log)

	// Tracing
	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "testtrack-backend",
		Environment: logMode,
	})
	defer otelShutdown(context.Background())

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()
	if err = db.SeedStatusCodes(thePG, log); err != nil {
		log.Error("Status catalog seeding failed", "error", err)
		os.Exit(1)
	}

	// Redis roles cache; authorization falls back to postgres without it.
	rolesCache, err := redis.NewRolesCache(log)
	if err != nil {
		log.Warn("Redis roles cache unavailable, role lookups hit postgres", "error", err)
		rolesCache = nil
	}

	// Repos
	log.Info("Setting up Repos from main...")
	statusCodeRepo := repos.NewStatusCodeRepo(thePG, log)
	userRepo := repos.NewUserRepo(thePG, log)
	userTokenRepo := repos.NewUserTokenRepo(thePG, log)
	teamRepo := repos.NewTeamRepo(thePG, log)
	teamMemberRepo := repos.NewTeamMemberRepo(thePG, log)
	productRepo := repos.NewProductRepo(thePG, log)
	projectRepo := repos.NewProjectRepo(thePG, log)
	taskRepo := repos.NewTaskRepo(thePG, log)
	testCaseRepo := repos.NewTestCaseRepo(thePG, log)
	testRunRepo := repos.NewTestRunRepo(thePG, log)
	executionRepo := repos.NewTestExecutionRepo(thePG, log)
	defectRepo := repos.NewDefectRepo(thePG, log)

	// Services
	log.Info("Setting up Services from main...")
	catalogService := services.NewCatalogService(log, statusCodeRepo)
	if err = catalogService.Load(context.Background()); err != nil {
		log.Error("Could not load status catalog", "error", err)
		os.Exit(1)
	}
	authzService := services.NewAuthzService(thePG, log, teamMemberRepo, rolesCache)
	avatarService, err := services.NewAvatarService(log)
	if err != nil {
		log.Error("Could not init AvatarService", "error", err)
		os.Exit(1)
	}
	authService := services.NewAuthService(thePG, log, userRepo, userTokenRepo, avatarService, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second)
	userService := services.NewUserService(thePG, log, authzService, userRepo)
	teamService := services.NewTeamService(thePG, log, authzService, teamRepo, teamMemberRepo, userRepo)
	productService := services.NewProductService(thePG, log, authzService, productRepo)
	projectService := services.NewProjectService(thePG, log, authzService, projectRepo, productRepo)
	taskService := services.NewTaskService(thePG, log, authzService, taskRepo, projectRepo)
	testCaseService := services.NewTestCaseService(thePG, log, authzService, catalogService, testCaseRepo, taskRepo, executionRepo)
	testRunService := services.NewTestRunService(thePG, log, authzService, catalogService, testRunRepo, taskRepo, teamRepo)
	executionService := services.NewExecutionService(thePG, log, authzService, catalogService, executionRepo, testRunRepo, testCaseRepo, defectRepo, dedupOpenDefects)
	defectService := services.NewDefectService(thePG, log, authzService, catalogService, defectRepo, executionRepo, teamMemberRepo)

	// Handlers
	log.Info("Setting up Handlers from main...")
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	teamHandler := handlers.NewTeamHandler(teamService)
	productHandler := handlers.NewProductHandler(productService)
	projectHandler := handlers.NewProjectHandler(projectService)
	taskHandler := handlers.NewTaskHandler(taskService)
	testCaseHandler := handlers.NewTestCaseHandler(testCaseService)
	testRunHandler := handlers.NewTestRunHandler(testRunService)
	executionHandler := handlers.NewExecutionHandler(executionService)
	defectHandler := handlers.NewDefectHandler(defectService)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	router := server.NewRouter(server.RouterConfig{
		AuthHandler:      authHandler,
		AuthMiddleware:   authMiddleware,
		UserHandler:      userHandler,
		TeamHandler:      teamHandler,
		ProductHandler:   productHandler,
		ProjectHandler:   projectHandler,
		TaskHandler:      taskHandler,
		TestCaseHandler:  testCaseHandler,
		TestRunHandler:   testRunHandler,
		ExecutionHandler: executionHandler,
		DefectHandler:    defectHandler,
	})

	log.Info("Starting server", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Server exited", "error", err)
	}
}
