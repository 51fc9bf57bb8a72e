package router

import (
	"github.com/labstack/echo/v4"

	"campusmarket/internal/adapter/api/handler"
	"campusmarket/internal/adapter/api/middleware"
)

// Setup mounts every route group on the echo instance.
func Setup(
	e *echo.Echo,
	authMiddleware *middleware.AuthMiddleware,
	healthHandler *handler.HealthHandler,
	authHandler *handler.AuthHandler,
	itemHandler *handler.ItemHandler,
	chatHandler *handler.ChatHandler,
	adHandler *handler.AdHandler,
	pushHandler *handler.PushHandler,
	wsHandler *handler.WebSocketHandler,
) {
	e.GET("/health", healthHandler.Check)

	setupAuthRoutes(e, authHandler, authMiddleware)
	setupItemRoutes(e, itemHandler, authMiddleware)
	setupChatRoutes(e, chatHandler, authMiddleware)
	setupAdRoutes(e, adHandler, authMiddleware)
	setupPushRoutes(e, pushHandler, authMiddleware)

	e.GET("/ws", wsHandler.Connect, authMiddleware.Authenticate)
}

func setupAuthRoutes(e *echo.Echo, h *handler.AuthHandler, auth *middleware.AuthMiddleware) {
	g := e.Group("/api/auth")
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
	g.GET("/me", h.Me, auth.Authenticate)
}

func setupItemRoutes(e *echo.Echo, h *handler.ItemHandler, auth *middleware.AuthMiddleware) {
	g := e.Group("/api/items")
	g.GET("", h.List)
	g.GET("/:id", h.Get)

	g.POST("", h.Create, auth.Authenticate)
	g.GET("/mine", h.MyListings, auth.Authenticate)
	g.PATCH("/:id/sold", h.MarkSold, auth.Authenticate)
	g.DELETE("/:id", h.Delete, auth.Authenticate)
}

func setupChatRoutes(e *echo.Echo, h *handler.ChatHandler, auth *middleware.AuthMiddleware) {
	g := e.Group("/api/chats", auth.Authenticate)
	g.POST("", h.Init)
	g.GET("/my-chats", h.MyConversations)
	g.GET("/unread-count", h.UnreadCount)
	g.GET("/is-online/:userId", h.IsOnline)
	g.GET("/:id", h.Get)
	g.POST("/:id/message", h.SendMessage)
	g.DELETE("/:id", h.Delete)
}

func setupAdRoutes(e *echo.Echo, h *handler.AdHandler, auth *middleware.AuthMiddleware) {
	g := e.Group("/api/ads")
	g.GET("", h.List)
	g.POST("", h.Create, auth.Authenticate, middleware.AdminOnly)
	g.DELETE("/:id", h.Delete, auth.Authenticate, middleware.AdminOnly)
}

func setupPushRoutes(e *echo.Echo, h *handler.PushHandler, auth *middleware.AuthMiddleware) {
	g := e.Group("/api/push")
	g.GET("/public-key", h.PublicKey)
	g.POST("/subscribe", h.Subscribe, auth.Authenticate)
	g.DELETE("/subscribe", h.Unsubscribe, auth.Authenticate)
}
