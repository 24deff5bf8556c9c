package routes

import (
	"log"
	"net/http"

	"cricketauction/handlers"
	"cricketauction/middleware"
	"cricketauction/models"
	"cricketauction/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

func SetupRoutes(
	router *gin.Engine,
	authHandler *handlers.AuthHandler,
	playerHandler *handlers.PlayerHandler,
	eventHandler *handlers.EventHandler,
	hub *services.Hub,
	authService *services.AuthService,
) {
	// API routes
	api := router.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		// Protected routes
		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware(authService))
		{
			// User profile
			protected.GET("/auth/profile", authHandler.GetProfile)

			// Player catalog
			players := protected.Group("/players")
			{
				players.GET("", playerHandler.ListPlayers)
				players.GET("/:id", playerHandler.GetPlayer)

				adminPlayers := players.Group("")
				adminPlayers.Use(middleware.RequireRole(models.RoleAdmin))
				{
					adminPlayers.POST("", playerHandler.CreatePlayer)
					adminPlayers.PUT("/:id", playerHandler.UpdatePlayer)
					adminPlayers.DELETE("/:id", playerHandler.DeletePlayer)
				}
			}

			// Auction results over the whole catalog
			auction := protected.Group("/auction")
			{
				auction.GET("/stats", playerHandler.AuctionStats)
				auction.GET("/sold", playerHandler.SoldPlayers)
				auction.GET("/unsold", playerHandler.UnsoldPlayers)
				auction.POST("/reset", middleware.RequireRole(models.RoleAdmin), playerHandler.ResetAuction)
			}

			// Auction events
			events := protected.Group("/auction-event")
			{
				events.GET("", eventHandler.ListEvents)
				events.GET("/live", eventHandler.LiveEvent)
				events.POST("/register", eventHandler.RegisterBidder)
				events.GET("/:id", eventHandler.GetEvent)
				events.GET("/:id/stats", eventHandler.EventStats)

				adminEvents := events.Group("")
				adminEvents.Use(middleware.RequireRole(models.RoleAdmin))
				{
					adminEvents.POST("", eventHandler.CreateEvent)
					adminEvents.PUT("/:id", eventHandler.UpdateEvent)
					adminEvents.DELETE("/:id", eventHandler.DeleteEvent)
					adminEvents.POST("/:id/activate", eventHandler.ActivateEvent)
					adminEvents.POST("/:id/deactivate", eventHandler.DeactivateEvent)
					adminEvents.PATCH("/bidder/:bidderId/purse", eventHandler.UpdatePurse)
					adminEvents.PATCH("/bidder/:bidderId/status", eventHandler.UpdateRegistrationStatus)
				}
			}
		}
	}

	// WebSocket endpoint for real-time auction communication. The token is
	// mandatory; a socket with no verifiable identity is never registered.
	router.GET("/ws", func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token required"})
			return
		}

		identity, err := authService.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed for %s: %v", identity.Username, err)
			return
		}

		log.Printf("WebSocket connection established for %s (%s)", identity.Username, identity.Role)

		// Register client with hub - this will handle all message processing
		hub.RegisterClient(conn, identity)
	})

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
