package handler

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	ws "campusmarket/internal/infrastructure/websocket"
	"campusmarket/pkg/logger"
)

type WebSocketHandler struct {
	manager  *ws.Manager
	upgrader websocket.Upgrader
}

func NewWebSocketHandler(manager *ws.Manager) *WebSocketHandler {
	return &WebSocketHandler{
		manager: manager,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Cross-origin upgrades are allowed; auth happens on the token,
			// not the Origin header.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Connect upgrades the request and registers the connection. Runs behind the
// auth middleware, which also accepts the token as a query parameter.
func (h *WebSocketHandler) Connect(c echo.Context) error {
	uid, _ := c.Get("uid").(string)

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("WebSocket: upgrade failed for user %s: %v", uid, err)
		return err
	}

	client := ws.NewClient(uid, conn)
	h.manager.Register <- client

	go client.WritePump()
	go client.ReadPump(h.manager)

	return nil
}
