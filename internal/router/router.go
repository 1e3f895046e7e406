package router

import (
	"log"

	"github.com/devkrol/sociogram/internal/handlers"
	"github.com/devkrol/sociogram/internal/middleware"
	"github.com/devkrol/sociogram/internal/models"
	"github.com/devkrol/sociogram/internal/notify"
	"github.com/devkrol/sociogram/internal/repositories"
	"github.com/devkrol/sociogram/internal/services"
	"github.com/devkrol/sociogram/internal/storage"
	"github.com/devkrol/sociogram/pkg/config"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	log.Println("Global middleware configured.")
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, cfg *config.Config, db *config.DB) {
	// Notifications live in PostgreSQL; everything else in MongoDB
	if err := db.Postgres.AutoMigrate(&models.Notification{}); err != nil {
		log.Fatalf("Failed to auto migrate models: %v", err)
	}
	log.Println("PostgreSQL auto-migrations completed.")

	mongoDB := db.Mongo.Database(cfg.MongoDatabase)

	// --- Initialize repositories and services ---
	userRepo := repositories.NewMongoUserRepository(mongoDB)
	postRepo := repositories.NewMongoPostRepository(mongoDB)
	commentRepo := repositories.NewMongoCommentRepository(mongoDB)
	notificationRepo := repositories.NewPostgresNotificationRepository(db.Postgres)

	images := storage.NewImageStore(cfg.UploadDir, cfg.MaxImageSize)
	engine := notify.NewEngine(notificationRepo, userRepo)
	cascade := services.NewCascade(userRepo, postRepo, commentRepo, notificationRepo, images)

	auth := middleware.JWTAuthMiddleware(cfg.JWTSecret)

	// Health check and the statically served upload directory
	e.GET("/health", handlers.HealthCheck)
	e.Static("/uploads", cfg.UploadDir)

	// User routes
	authHandler := handlers.NewAuthHandler(userRepo, cfg.JWTSecret)
	userHandler := handlers.NewUserHandler(userRepo, engine, cascade, images)
	userGroup := e.Group("/user")
	authHandler.RegisterAuthRoutes(userGroup)
	userHandler.RegisterUserRoutes(userGroup, auth)
	log.Println("User routes configured.")

	// Post routes
	postHandler := handlers.NewPostHandler(postRepo, commentRepo, userRepo, engine, cascade, images)
	postHandler.RegisterPostRoutes(e.Group("/post"), auth)
	log.Println("Post routes configured.")

	// Comment routes
	commentHandler := handlers.NewCommentHandler(commentRepo, postRepo, engine)
	commentHandler.RegisterCommentRoutes(e.Group("/comment"), auth)
	log.Println("Comment routes configured.")

	// Notification routes
	notificationHandler := handlers.NewNotificationHandler(engine)
	notificationHandler.RegisterNotificationRoutes(e.Group("/notification"), auth)
	log.Println("Notification routes configured.")

	log.Println("All routes configured.")
}
