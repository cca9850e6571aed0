package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"mines-miniapp-backend/internal/config"
	"mines-miniapp-backend/internal/handlers"
	"mines-miniapp-backend/internal/middleware"
	"mines-miniapp-backend/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	redisService, err := services.NewRedisService(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisService.Close()

	jwtService := services.NewJWTService(cfg)

	engine := services.NewEngine()
	gameService := services.NewGameService(engine, redisService, redisService, redisService)

	hub := handlers.NewWebSocketHub()
	wsHandler := handlers.NewWebSocketHandler(hub)

	authHandler := handlers.NewAuthHandler(redisService, jwtService)
	userHandler := handlers.NewUserHandler(redisService)
	gameHandler := handlers.NewGameHandler(gameService, redisService, hub)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.POST("/auth/register", authHandler.Register)
	router.POST("/auth/login", authHandler.Login)

	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(jwtService))
	{
		protected.GET("/me", userHandler.GetCurrentUser)
		protected.POST("/logout", userHandler.Logout)

		protected.GET("/ws", wsHandler.HandleWebSocket)

		protected.GET("/balance", gameHandler.GetBalance)
		protected.GET("/transactions", gameHandler.GetTransactions)

		mines := protected.Group("/mines")
		{
			mines.POST("/start", gameHandler.StartRound)
			mines.POST("/reveal", gameHandler.RevealTile)
			mines.POST("/cashout", gameHandler.CashoutRound)
			mines.GET("/round", gameHandler.GetRound)
		}
	}

	log.Printf("Server starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
