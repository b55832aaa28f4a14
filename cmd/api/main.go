package main

import (
	"context"
	"log"
	"os"
	"strings"

	_ "github.com/Robertishimwe/inveprobackend-sub001/api/swagger" // swagger docs

	"github.com/Robertishimwe/inveprobackend-sub001/internal/database"
	"github.com/Robertishimwe/inveprobackend-sub001/internal/handler"
	"github.com/Robertishimwe/inveprobackend-sub001/internal/middleware"
	"github.com/Robertishimwe/inveprobackend-sub001/internal/repository"
	"github.com/Robertishimwe/inveprobackend-sub001/internal/service"
	"github.com/Robertishimwe/inveprobackend-sub001/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Inventory Movement & Reconciliation API
// @version         1.0
// @description     Multi-tenant inventory back end: stock ledger, adjustments, transfers, stock counts and POS cash sessions.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbSslMode := os.Getenv("DB_SSLMODE")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "5432"
	}
	if dbUser == "" {
		dbUser = "postgres"
	}
	if dbPassword == "" {
		dbPassword = "postgres"
	}
	if dbName == "" {
		dbName = "postgres"
	}
	if dbSslMode == "" {
		dbSslMode = "disable"
	}

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	// Permission middleware needs the DB for role -> permission lookups
	middleware.InitPermissionMiddleware(db)

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Repositories
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	productRepo := repository.NewProductRepository(db)
	locationRepo := repository.NewLocationRepository(db)
	uomRepo := repository.NewUomRepository(db)
	itemRepo := repository.NewItemRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	adjustmentRepo := repository.NewAdjustmentRepository(db)
	transferRepo := repository.NewTransferRepository(db)
	countRepo := repository.NewStockCountRepository(db)
	sessionRepo := repository.NewPosSessionRepository(db)

	// Services
	roleService := service.NewRoleService(db)
	if err := roleService.SeedDefaultRolesAndPermissions(context.Background()); err != nil {
		log.Printf("WARNING: Failed to seed roles and permissions: %v", err)
	}

	userService := service.NewUserService(userRepo)
	auditService := service.NewAuditService(auditRepo)
	catalogService := service.NewCatalogService(productRepo, locationRepo, uomRepo, auditRepo, txManager)
	stockService := service.NewStockService(itemRepo, ledgerRepo, txManager, wsHub)
	inventoryService := service.NewInventoryService(itemRepo, ledgerRepo)
	adjustmentService := service.NewAdjustmentService(adjustmentRepo, productRepo, locationRepo, auditRepo, stockService, txManager)
	transferService := service.NewTransferService(transferRepo, productRepo, locationRepo, uomRepo, ledgerRepo, auditRepo, stockService, txManager)
	countService := service.NewStockCountService(countRepo, productRepo, locationRepo, itemRepo, auditRepo, stockService, txManager)
	sessionService := service.NewPosSessionService(sessionRepo, locationRepo, auditRepo, txManager)

	// Handlers
	userHandler := handler.NewUserHandler(userService)
	roleHandler := handler.NewRoleHandler(roleService)
	auditHandler := handler.NewAuditHandler(auditService)
	catalogHandler := handler.NewCatalogHandler(catalogService)
	inventoryHandler := handler.NewInventoryHandler(inventoryService, stockService)
	adjustmentHandler := handler.NewAdjustmentHandler(adjustmentService)
	transferHandler := handler.NewTransferHandler(transferService)
	countHandler := handler.NewStockCountHandler(countService)
	sessionHandler := handler.NewPosSessionHandler(sessionService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:5173,http://127.0.0.1:5173"
	}
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(allowedOrigins, ",")
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
	root := router.Group("")
	userHandler.RegisterRoutes(root)
	roleHandler.RegisterRoutes(root)
	auditHandler.RegisterRoutes(root)
	catalogHandler.RegisterRoutes(root)
	inventoryHandler.RegisterRoutes(root)
	adjustmentHandler.RegisterRoutes(root)
	transferHandler.RegisterRoutes(root)
	countHandler.RegisterRoutes(root)
	sessionHandler.RegisterRoutes(root)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
