package main

import (
	"context"
	"net/http"
	"os"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"campusmarket/internal/adapter/api"
	"campusmarket/internal/adapter/api/handler"
	"campusmarket/internal/adapter/api/middleware"
	"campusmarket/internal/adapter/api/router"
	"campusmarket/internal/adapter/repository"
	"campusmarket/internal/infrastructure/auth"
	"campusmarket/internal/infrastructure/push"
	"campusmarket/internal/infrastructure/storage"
	ws "campusmarket/internal/infrastructure/websocket"
	"campusmarket/internal/usecase"
	"campusmarket/pkg/config"
	"campusmarket/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load config: %v", err)
		os.Exit(1)
	}

	ctx := context.Background()

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirestoreProject)
	if err != nil {
		logger.Error("Failed to create Firestore client: %v", err)
		os.Exit(1)
	}
	defer firestoreClient.Close()

	var uploader usecase.FileUploader
	if cfg.StorageBucket != "" {
		storageClient, err := storage.NewCloudStorageClient(ctx, cfg.StorageBucket, os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
		if err != nil {
			logger.Error("Failed to create storage client: %v", err)
			os.Exit(1)
		}
		defer storageClient.Close()
		uploader = storageClient
	}

	// Repositories
	userRepo := repository.NewFirestoreUserRepository(firestoreClient)
	itemRepo := repository.NewFirestoreItemRepository(firestoreClient)
	adRepo := repository.NewFirestoreAdRepository(firestoreClient)
	convRepo := repository.NewFirestoreConversationRepository(firestoreClient)

	// Infrastructure
	jwtClient := auth.NewJWTClient(cfg.JWTSecret, cfg.JWTExpiry)
	pushSender := push.NewSender(userRepo, cfg.VAPIDSubject, cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey)

	wsManager := ws.NewManager()
	wsManager.Start(ctx)

	// Use cases
	authUseCase := usecase.NewAuthUseCase(userRepo, jwtClient)
	itemUseCase := usecase.NewItemUseCase(itemRepo, userRepo, uploader)
	adUseCase := usecase.NewAdUseCase(adRepo)
	pushUseCase := usecase.NewPushUseCase(userRepo)
	chatUseCase := usecase.NewChatUseCase(convRepo, userRepo, itemRepo, wsManager, pushSender)

	// Handlers
	healthHandler := handler.NewHealthHandler()
	authHandler := handler.NewAuthHandler(authUseCase)
	itemHandler := handler.NewItemHandler(itemUseCase)
	chatHandler := handler.NewChatHandler(chatUseCase, wsManager)
	adHandler := handler.NewAdHandler(adUseCase)
	pushHandler := handler.NewPushHandler(pushUseCase, cfg.VAPIDPublicKey)
	wsHandler := handler.NewWebSocketHandler(wsManager)

	authMiddleware := middleware.NewAuthMiddleware(jwtClient)

	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()

	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{cfg.FrontendURL, "http://localhost:5173", "http://localhost:3000"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization},
	}))

	router.Setup(e, authMiddleware, healthHandler, authHandler, itemHandler, chatHandler, adHandler, pushHandler, wsHandler)

	logger.Info("Starting server on port %s", cfg.ServerPort)
	if err := e.Start(":" + cfg.ServerPort); err != nil && err != http.ErrServerClosed {
		logger.Error("Server stopped: %v", err)
		os.Exit(1)
	}
}
