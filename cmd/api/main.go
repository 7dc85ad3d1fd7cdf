package main

import (
	"fmt"
	"net/http"
	"os"

	"dealdesk/internal/ai"
	"dealdesk/internal/config"
	"dealdesk/internal/database"
	"dealdesk/internal/handlers"
	"dealdesk/internal/logger"
	"dealdesk/internal/middleware"
	"dealdesk/internal/scheduler"
	"dealdesk/internal/services"
	"dealdesk/internal/validator"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "dealdesk/internal/docs" // Import swagger docs
)

// @title           Dealdesk API
// @version         1.0
// @description     Dealdesk coordinates real-estate transactions between agents, transaction coordinators, and brokers: document verification, task tracking, complaints, and the closure handoff.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Register custom validators
	validator.Register()

	// Document verification is advisory and optional
	var verifier ai.Verifier = ai.Disabled{}
	if appConfig.VerifierURL != "" {
		verifier = ai.NewHTTPVerifier(appConfig.VerifierURL, appConfig.VerifierTimeout)
	}

	// Initialize services
	db := dbManager.DB()
	auditService := services.NewAuditService(db)
	userService := services.NewUserService(db)
	transactionService := services.NewTransactionService(db, auditService)
	documentService := services.NewDocumentService(db, verifier, auditService)
	taskService := services.NewTaskService(db, auditService)
	complaintService := services.NewComplaintService(db, auditService)
	closureService := services.NewClosureService(db, auditService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	documentHandler := handlers.NewDocumentHandler(documentService)
	taskHandler := handlers.NewTaskHandler(taskService)
	complaintHandler := handlers.NewComplaintHandler(complaintService)
	closureHandler := handlers.NewClosureHandler(closureService)

	// Start the reminder sweep
	reminderScheduler := scheduler.New(db, appConfig, auditService)
	if err := reminderScheduler.Start(); err != nil {
		return fmt.Errorf("failed to start reminder scheduler: %w", err)
	}
	defer reminderScheduler.Stop()

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// User profile
	protected.GET("/profile", authHandler.GetProfile)

	// Transaction routes
	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.ListTransactions)
	transactions.GET("/:id", transactionHandler.GetTransaction)
	transactions.PUT("/:id/status", transactionHandler.AdvanceStatus)
	transactions.POST("/:id/cancel", transactionHandler.CancelTransaction)

	// Closure coordinator routes
	transactions.GET("/:id/readiness", closureHandler.EvaluateReadiness)
	transactions.POST("/:id/forward", closureHandler.ForwardToBroker)
	transactions.POST("/:id/close", closureHandler.CloseTransaction)

	// Document routes
	transactions.POST("/:id/documents", documentHandler.UploadDocument)
	transactions.GET("/:id/documents", documentHandler.ListDocuments)
	documents := protected.Group("/documents")
	documents.PUT("/:id/decision", documentHandler.DecideDocument)

	// Task routes
	transactions.POST("/:id/tasks", taskHandler.AssignTask)
	transactions.GET("/:id/tasks", taskHandler.ListTasksForTransaction)
	tasks := protected.Group("/tasks")
	tasks.PUT("/:id/status", taskHandler.UpdateTaskStatus)
	protected.GET("/agents/:id/tasks", taskHandler.ListTasksForAgent)

	// Complaint routes
	complaints := protected.Group("/complaints")
	complaints.POST("", complaintHandler.FileComplaint)
	complaints.GET("", complaintHandler.ListComplaints)
	complaints.POST("/:id/respond", complaintHandler.Respond)
	complaints.POST("/:id/escalate", complaintHandler.Escalate)
	complaints.POST("/:id/resolve", complaintHandler.Resolve)

	log.Infof("Starting Dealdesk backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
