package handler

import (
	"github.com/labstack/echo/v4"

	"campusmarket/internal/usecase"
	"campusmarket/pkg/errors"
	"campusmarket/pkg/response"
)

type PushHandler struct {
	pushUseCase *usecase.PushUseCase
	vapidPublic string
}

func NewPushHandler(pushUseCase *usecase.PushUseCase, vapidPublicKey string) *PushHandler {
	return &PushHandler{
		pushUseCase: pushUseCase,
		vapidPublic: vapidPublicKey,
	}
}

type SubscribeRequest struct {
	Endpoint string `json:"endpoint" validate:"required,url"`
	Keys     struct {
		P256dh string `json:"p256dh" validate:"required"`
		Auth   string `json:"auth" validate:"required"`
	} `json:"keys"`
}

// PublicKey exposes the VAPID public key the browser needs to subscribe.
func (h *PushHandler) PublicKey(c echo.Context) error {
	return response.Success(c, map[string]string{"public_key": h.vapidPublic})
}

func (h *PushHandler) Subscribe(c echo.Context) error {
	uid, _ := c.Get("uid").(string)

	var req SubscribeRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request format", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	if err := h.pushUseCase.Subscribe(c.Request().Context(), uid, usecase.SubscribeInput{
		Endpoint: req.Endpoint,
		P256dh:   req.Keys.P256dh,
		Auth:     req.Keys.Auth,
	}); err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, map[string]string{"message": "Subscribed"})
}

func (h *PushHandler) Unsubscribe(c echo.Context) error {
	uid, _ := c.Get("uid").(string)

	if err := h.pushUseCase.Unsubscribe(c.Request().Context(), uid); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"message": "Unsubscribed"})
}
