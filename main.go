package main

import (
	"log"
	"os"

	"cricketauction/config"
	"cricketauction/handlers"
	"cricketauction/middleware"
	"cricketauction/models"
	"cricketauction/routes"
	"cricketauction/services"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database models
	err = db.AutoMigrate(
		&models.User{},
		&models.Player{},
		&models.AuctionEvent{},
		&models.TeamRegistration{},
		&models.EventPlayer{},
		&models.Bid{},
	)
	if err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize Redis
	redisClient := config.InitRedis(cfg)

	// Initialize services
	store := services.NewCatalogStore(db, redisClient)
	authService := services.NewAuthService(db, cfg.JWTSecret)
	playerService := services.NewPlayerService(db)
	eventService := services.NewEventService(db)
	auctionService := services.NewAuctionService(store)

	// Initialize WebSocket hub and wire it as the broadcast layer
	hub := services.NewHub(auctionService)
	auctionService.SetBroadcaster(hub)
	go hub.Run()

	// Pick up a live event left over from a previous run
	auctionService.Resume()

	// Seed the admin account on first boot
	if err := authService.EnsureAdmin(
		getEnv("ADMIN_USERNAME", "admin"),
		getEnv("ADMIN_EMAIL", "admin@example.com"),
		getEnv("ADMIN_PASSWORD", "change-me"),
	); err != nil {
		log.Fatal("Failed to ensure admin account:", err)
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	playerHandler := handlers.NewPlayerHandler(playerService, auctionService, cfg.UploadDir)
	eventHandler := handlers.NewEventHandler(eventService, auctionService, cfg.UploadDir)

	// Setup Gin router
	router := gin.Default()

	// Add CORS middleware
	router.Use(middleware.CORS())

	// Uploaded player and team images
	router.Static("/uploads", cfg.UploadDir)

	// Setup routes
	routes.SetupRoutes(router, authHandler, playerHandler, eventHandler, hub, authService)

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
