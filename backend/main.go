package main

import (
	"log"

	"github.com/MohamedElaraby99/the-good-analyst-sub000/backend/config"
	"github.com/MohamedElaraby99/the-good-analyst-sub000/backend/middleware"
	"github.com/MohamedElaraby99/the-good-analyst-sub000/backend/routes"
	"github.com/MohamedElaraby99/the-good-analyst-sub000/backend/services"
	"github.com/MohamedElaraby99/the-good-analyst-sub000/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Initialize database
	db, err := utils.InitDB(cfg)
	if err != nil {
		log.Fatalf("Error initializing database: %v", err)
	}

	// Initialize logger
	logger := utils.InitLogger()

	// Create Fiber app
	app := fiber.New()

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(middleware.LoggingMiddleware(logger))

	// Background aggregate recompute for the admin dashboard
	stats := services.NewStatsService(db, logger)
	stats.StartScheduler(cfg.StatsInterval)

	// Setup routes
	routes.SetupRoutes(app, db, cfg, stats)

	// Start server
	log.Fatal(app.Listen(":" + cfg.ServerPort))
}
