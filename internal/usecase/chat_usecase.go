package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"campusmarket/internal/domain/entity"
	"campusmarket/internal/domain/repository"
	"campusmarket/internal/infrastructure/ratelimit"
	ws "campusmarket/internal/infrastructure/websocket"
	"campusmarket/pkg/errors"
	"campusmarket/pkg/logger"
)

// ChatUseCase owns the conversation/inbox consistency rules: who may touch a
// thread, when the unread counter moves, and which realtime notifications go
// out after each store mutation. The store is mutated first; emission never
// fails or retries a persisted mutation.
type ChatUseCase struct {
	convRepo    repository.ConversationRepository
	userRepo    repository.UserRepository
	itemRepo    repository.ItemRepository
	notifier    ChatNotifier
	pushSender  PushSender
	rateLimiter *ratelimit.RateLimiter

	// Collapses concurrent first-contacts on the same (item, buyer,
	// seller) triple into a single check-then-create.
	createGroup singleflight.Group
}

func NewChatUseCase(
	convRepo repository.ConversationRepository,
	userRepo repository.UserRepository,
	itemRepo repository.ItemRepository,
	notifier ChatNotifier,
	pushSender PushSender,
) *ChatUseCase {
	if pushSender == nil {
		pushSender = nopPushSender{}
	}

	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine()

	return &ChatUseCase{
		convRepo:    convRepo,
		userRepo:    userRepo,
		itemRepo:    itemRepo,
		notifier:    notifier,
		pushSender:  pushSender,
		rateLimiter: rateLimiter,
	}
}

type InitConversationInput struct {
	ItemID   string
	SellerID string
}

type SendMessageInput struct {
	ConversationID string
	Text           string
}

// ConversationResponse joins a conversation with the display fields the
// client renders next to it.
type ConversationResponse struct {
	*entity.Conversation
	ItemTitle  string `json:"item_title"`
	BuyerName  string `json:"buyer_name"`
	SellerName string `json:"seller_name"`
}

// ConversationSummary is one inbox row.
type ConversationSummary struct {
	*entity.Conversation
	ItemTitle     string `json:"item_title"`
	OtherUserID   string `json:"other_user_id"`
	OtherUserName string `json:"other_user_name"`
}

type nopPushSender struct{}

func (nopPushSender) SendToUser(ctx context.Context, userID string, payload interface{}) bool {
	return false
}

type messageEventPayload struct {
	ConversationID string         `json:"conversation_id"`
	Message        entity.Message `json:"message"`
}

// GetOrCreateConversation returns the conversation for the triple, creating
// it on first contact. Idempotent: an existing thread is returned unchanged,
// with no counter reset and no flag mutation.
func (uc *ChatUseCase) GetOrCreateConversation(ctx context.Context, buyerID string, input InitConversationInput) (*ConversationResponse, error) {
	if input.ItemID == "" || input.SellerID == "" {
		return nil, errors.BadRequest("Item id and seller id are required", nil)
	}
	if buyerID == input.SellerID {
		return nil, errors.BadRequest("You cannot start a conversation about your own item", nil)
	}

	if _, err := uc.itemRepo.GetByID(ctx, input.ItemID); err != nil {
		return nil, errors.NotFound("Item", err)
	}
	if _, err := uc.userRepo.GetByID(ctx, input.SellerID); err != nil {
		return nil, errors.NotFound("Seller", err)
	}

	key := input.ItemID + "|" + buyerID + "|" + input.SellerID
	result, err, _ := uc.createGroup.Do(key, func() (interface{}, error) {
		existing, err := uc.convRepo.FindByTriple(ctx, input.ItemID, buyerID, input.SellerID)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, "NOT_FOUND") {
			return nil, err
		}

		conv := &entity.Conversation{
			ItemID:   input.ItemID,
			BuyerID:  buyerID,
			SellerID: input.SellerID,
			Messages: []entity.Message{},
		}
		if err := uc.convRepo.Create(ctx, conv); err != nil {
			return nil, err
		}
		return conv, nil
	})
	if err != nil {
		return nil, err
	}

	conv := result.(*entity.Conversation)
	return uc.toResponse(ctx, conv), nil
}

// OpenConversation returns the full message log and resets the unread
// counter unconditionally: opening the thread marks everything read, no
// matter who sent the latest messages.
func (uc *ChatUseCase) OpenConversation(ctx context.Context, requesterID, conversationID string) (*ConversationResponse, error) {
	conv, err := uc.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.IsParticipant(requesterID) {
		return nil, errors.Forbidden("You are not a participant in this conversation", nil)
	}

	if err := uc.convRepo.ResetUnread(ctx, conversationID); err != nil {
		return nil, err
	}
	conv.UnreadCount = 0

	// Scoped to the requester's own sessions only; the other side's badge
	// is unaffected by someone else reading.
	uc.notifier.NotifyUser(requesterID, ws.EventUnreadUpdate, ws.UnreadUpdateData{
		ConversationID: conversationID,
		Action:         "reset",
	})

	return uc.toResponse(ctx, conv), nil
}

// SendMessage appends a message to the thread. The append, the counter
// increment and the clearing of both hidden flags land in one atomic store
// update; only after the write is confirmed do the realtime notifications go
// out.
func (uc *ChatUseCase) SendMessage(ctx context.Context, senderID string, input SendMessageInput) error {
	if allowed, wait := uc.rateLimiter.Allow(senderID, "send_message"); !allowed {
		logger.Warn("SendMessage: user %s rate limited for %v", senderID, wait)
		return errors.TooManyRequests("You are sending messages too quickly. Please slow down.")
	}

	text := strings.TrimSpace(input.Text)
	if text == "" {
		return errors.BadRequest("Message text is required", nil)
	}

	conv, err := uc.convRepo.GetByID(ctx, input.ConversationID)
	if err != nil {
		return err
	}
	if !conv.IsParticipant(senderID) {
		return errors.Forbidden("You are not a participant in this conversation", nil)
	}

	msg := entity.Message{
		ID:        uuid.New().String(),
		SenderID:  senderID,
		Text:      text,
		CreatedAt: time.Now(),
	}

	if err := uc.convRepo.AppendMessage(ctx, conv.ID, msg); err != nil {
		return err
	}

	recipientID := conv.OtherParticipant(senderID)

	uc.notifier.NotifyConversation(conv.ID, ws.EventReceiveMessage, messageEventPayload{
		ConversationID: conv.ID,
		Message:        msg,
	})
	uc.notifier.NotifyUser(recipientID, ws.EventUnreadUpdate, ws.UnreadUpdateData{
		ConversationID: conv.ID,
		Action:         "increment",
	})

	if !uc.notifier.IsOnline(recipientID) {
		go uc.pushNewMessage(recipientID, senderID, conv.ItemID, text)
	}

	return nil
}

func (uc *ChatUseCase) pushNewMessage(recipientID, senderID, itemID, text string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	senderName := "Someone"
	if sender, err := uc.userRepo.GetByID(ctx, senderID); err == nil {
		senderName = sender.Name
	}
	itemTitle := ""
	if item, err := uc.itemRepo.GetByID(ctx, itemID); err == nil {
		itemTitle = item.Title
	}

	uc.pushSender.SendToUser(ctx, recipientID, map[string]string{
		"title": senderName + " sent you a message",
		"body":  text,
		"item":  itemTitle,
	})
}

// ListMyConversations returns the caller's inbox: every conversation they
// take part in and have not hidden, newest activity first.
func (uc *ChatUseCase) ListMyConversations(ctx context.Context, userID string) ([]*ConversationSummary, error) {
	conversations, err := uc.convRepo.ListByParticipant(ctx, userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]*ConversationSummary, 0, len(conversations))
	for _, conv := range conversations {
		if conv.HiddenFor(userID) {
			continue
		}

		otherID := conv.OtherParticipant(userID)
		summaries = append(summaries, &ConversationSummary{
			Conversation:  conv,
			ItemTitle:     uc.itemTitle(ctx, conv.ItemID),
			OtherUserID:   otherID,
			OtherUserName: uc.displayName(ctx, otherID),
		})
	}

	return summaries, nil
}

// GetUnreadTotal sums the shared unread counter across every conversation
// the user participates in, hidden or not. The counter does not distinguish
// sender from recipient, so a user's own sends are reflected in their own
// total; that asymmetry is the recorded policy, not an accident.
func (uc *ChatUseCase) GetUnreadTotal(ctx context.Context, userID string) (int, error) {
	conversations, err := uc.convRepo.ListByParticipant(ctx, userID)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, conv := range conversations {
		total += conv.UnreadCount
	}

	return total, nil
}

// HideConversation removes the thread from the caller's inbox only. The
// message log, the counter and the other side's view are untouched; any
// later message resurfaces the thread for both parties.
func (uc *ChatUseCase) HideConversation(ctx context.Context, requesterID, conversationID string) error {
	conv, err := uc.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}
	if !conv.IsParticipant(requesterID) {
		return errors.Forbidden("You are not a participant in this conversation", nil)
	}

	if err := uc.convRepo.Hide(ctx, conversationID, requesterID == conv.BuyerID); err != nil {
		return err
	}

	uc.notifier.NotifyUser(requesterID, ws.EventUnreadUpdate, ws.UnreadUpdateData{
		ConversationID: conversationID,
		Action:         "delete",
	})

	return nil
}

func (uc *ChatUseCase) toResponse(ctx context.Context, conv *entity.Conversation) *ConversationResponse {
	return &ConversationResponse{
		Conversation: conv,
		ItemTitle:    uc.itemTitle(ctx, conv.ItemID),
		BuyerName:    uc.displayName(ctx, conv.BuyerID),
		SellerName:   uc.displayName(ctx, conv.SellerID),
	}
}

// displayName degrades to a placeholder when the directory lookup fails;
// identity resolution is never fatal for a conversation read.
func (uc *ChatUseCase) displayName(ctx context.Context, userID string) string {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "Unknown user"
	}
	return user.Name
}

func (uc *ChatUseCase) itemTitle(ctx context.Context, itemID string) string {
	item, err := uc.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return ""
	}
	return item.Title
}
