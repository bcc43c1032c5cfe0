package main

import (
	"context"
	"os"

	"backend/internal/database"
	"backend/internal/handler"
	"backend/internal/middleware"
	"backend/internal/notification"
	"backend/internal/numbering"
	"backend/internal/repository"
	"backend/internal/service"
	"backend/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// @title           Returns Back Office API
// @version         1.0
// @description     API for the returns-logistics back office: return records, collection orders, shipments, NCR reports.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		logrus.Info("No configs/.env file found or error loading it")
	}

	dbHost := envOr("DB_HOST", "localhost")
	dbPort := envOr("DB_PORT", "5432")
	dbUser := envOr("DB_USER", "postgres")
	dbPassword := envOr("DB_PASSWORD", "postgres")
	dbName := envOr("DB_NAME", "postgres")
	dbSslMode := envOr("DB_SSLMODE", "disable")

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		logrus.Fatalf("Database connection failed: %v", err)
	}
	logrus.Info("Connected to PostgreSQL successfully.")

	middleware.InitPermissionMiddleware(db)

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Outbound notifications: best-effort Telegram, noop when unconfigured
	var notifier service.Notifier = notification.NoopNotifier{}
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		notifier = notification.NewTelegramNotifier(token, os.Getenv("TELEGRAM_CHAT_ID"))
	}

	// Set up dependencies (Repository -> Service -> Handler)
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	counterRepo := repository.NewCounterRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)
	returnRepo := repository.NewReturnRepository(db)
	collectionRepo := repository.NewCollectionOrderRepository(db)
	shipmentRepo := repository.NewShipmentRepository(db)
	ncrRepo := repository.NewNCRRepository(db)
	txManager := repository.NewTransactionManager(db)

	numbers := numbering.NewService(counterRepo)

	userService := service.NewUserService(userRepo)
	roleService := service.NewRoleService(db)
	auditService := service.NewAuditService(db)
	returnService := service.NewReturnService(returnRepo, collectionRepo, ncrRepo, auditRepo, txManager, numbers, wsHub, notifier)
	collectionService := service.NewCollectionService(collectionRepo, returnRepo, auditRepo, idempotencyRepo, txManager, numbers, wsHub)
	shipmentService := service.NewShipmentService(shipmentRepo, collectionRepo, returnRepo, auditRepo, idempotencyRepo, txManager, numbers, wsHub)
	ncrService := service.NewNCRService(ncrRepo)
	exportService := service.NewExportService(returnRepo)
	reportService := service.NewReportService(db)

	if err := roleService.SeedDefaultRolesAndPermissions(context.Background()); err != nil {
		logrus.WithError(err).Warn("Failed to seed default roles and permissions")
	}

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService)
	roleHandler := handler.NewRoleHandler(roleService)
	auditHandler := handler.NewAuditHandler(auditService)
	returnHandler := handler.NewReturnHandler(returnService, exportService)
	collectionHandler := handler.NewCollectionHandler(collectionService)
	shipmentHandler := handler.NewShipmentHandler(shipmentService)
	ncrHandler := handler.NewNCRHandler(ncrService)
	reportHandler := handler.NewReportHandler(reportService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:5174"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	userHandler.RegisterRoutes(router.Group(""))
	roleHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))
	returnHandler.RegisterRoutes(router.Group(""))
	collectionHandler.RegisterRoutes(router.Group(""))
	shipmentHandler.RegisterRoutes(router.Group(""))
	ncrHandler.RegisterRoutes(router.Group(""))
	reportHandler.RegisterRoutes(router.Group(""))

	port := envOr("PORT", "8080")

	logrus.Infof("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		logrus.Fatalf("Server failed: %v", err)
	}
}
