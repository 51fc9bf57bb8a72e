package handler

import (
	"github.com/labstack/echo/v4"

	"campusmarket/internal/usecase"
	"campusmarket/pkg/errors"
	"campusmarket/pkg/response"
)

type ChatHandler struct {
	chatUseCase *usecase.ChatUseCase
	notifier    usecase.ChatNotifier
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase, notifier usecase.ChatNotifier) *ChatHandler {
	return &ChatHandler{
		chatUseCase: chatUseCase,
		notifier:    notifier,
	}
}

type InitConversationRequest struct {
	ItemID   string `json:"item_id" validate:"required"`
	SellerID string `json:"seller_id" validate:"required"`
}

type SendMessageRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}

// Init returns the conversation for (item, caller, seller), creating it on
// first contact.
func (h *ChatHandler) Init(c echo.Context) error {
	uid, _ := c.Get("uid").(string)

	var req InitConversationRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request format", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	conv, err := h.chatUseCase.GetOrCreateConversation(c.Request().Context(), uid, usecase.InitConversationInput{
		ItemID:   req.ItemID,
		SellerID: req.SellerID,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, conv)
}

// Get opens a single conversation. Opening marks it read for the thread as a
// whole: the shared unread counter resets.
func (h *ChatHandler) Get(c echo.Context) error {
	uid, _ := c.Get("uid").(string)

	conv, err := h.chatUseCase.OpenConversation(c.Request().Context(), uid, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, conv)
}

func (h *ChatHandler) SendMessage(c echo.Context) error {
	uid, _ := c.Get("uid").(string)

	var req SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request format", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	if err := h.chatUseCase.SendMessage(c.Request().Context(), uid, usecase.SendMessageInput{
		ConversationID: c.Param("id"),
		Text:           req.Text,
	}); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"message": "Message sent"})
}

func (h *ChatHandler) MyConversations(c echo.Context) error {
	uid, _ := c.Get("uid").(string)

	conversations, err := h.chatUseCase.ListMyConversations(c.Request().Context(), uid)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, conversations)
}

func (h *ChatHandler) UnreadCount(c echo.Context) error {
	uid, _ := c.Get("uid").(string)

	total, err := h.chatUseCase.GetUnreadTotal(c.Request().Context(), uid)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]int{"unread_count": total})
}

// Delete hides the conversation from the caller's inbox only.
func (h *ChatHandler) Delete(c echo.Context) error {
	uid, _ := c.Get("uid").(string)

	if err := h.chatUseCase.HideConversation(c.Request().Context(), uid, c.Param("id")); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"message": "Conversation removed"})
}

// IsOnline reports whether the given user has at least one live websocket
// connection.
func (h *ChatHandler) IsOnline(c echo.Context) error {
	return response.Success(c, map[string]bool{
		"online": h.notifier.IsOnline(c.Param("userId")),
	})
}
