package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"qaforum/internal/config"
	"qaforum/internal/database"
	"qaforum/internal/domain"
	"qaforum/internal/middleware"
	"qaforum/internal/modules/auth"
	"qaforum/internal/modules/notification"
	jwtsvc "qaforum/internal/pkg/jwt"
	"qaforum/internal/repository"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadRuntimeConfig()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}

	if err := db.AutoMigrate(
		&domain.User{},
		&domain.Notification{},
	); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	userRepo := repository.NewUserRepository(db)
	notifRepo := repository.NewNotificationRepository(db)

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTAccessTTL)

	authService := auth.NewService(userRepo, j)
	authHandler := auth.NewHandler(authService)

	hub := notification.NewHub()
	defer hub.Close()

	notifService := notification.NewService(notifRepo, hub)
	notifHandler := notification.NewHandler(notifService)
	streamHandler := notification.NewStreamHandler(hub, j, notifService, cfg.StreamHeartbeat)

	r := gin.Default()
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorLogger())

	v1 := r.Group("/api/v1")
	{
		// public
		authHandler.RegisterRoutes(v1)

		// the stream authenticates itself via ?token= (EventSource cannot
		// set an Authorization header)
		streamHandler.RegisterRoutes(v1)

		// protected
		protected := v1.Group("/")
		protected.Use(middleware.Auth(j))
		{
			notifHandler.RegisterRoutes(protected)
		}
	}

	if err := r.Run(cfg.Addr); err != nil {
		log.Fatal(err)
	}
}
