package main

import (
	"log"

	"github.com/devkrol/sociogram/internal/router"
	"github.com/devkrol/sociogram/pkg/config"
	"github.com/devkrol/sociogram/pkg/validators"
	"github.com/labstack/echo/v4"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB()

	// Create Echo instance
	e := echo.New()

	// Setup global middleware
	router.SetupMiddleware(e)

	// Validator
	e.Validator = validators.NewValidator()

	// Setup routes and dependencies
	router.SetupRoutes(e, cfg, db)

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
