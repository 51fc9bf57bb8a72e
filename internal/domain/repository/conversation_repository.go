package repository

import (
	"context"

	"campusmarket/internal/domain/entity"
)

// ConversationRepository is the system of record for conversations. The
// realtime layer is only an acceleration on top of it.
type ConversationRepository interface {
	Create(ctx context.Context, conv *entity.Conversation) error
	GetByID(ctx context.Context, id string) (*entity.Conversation, error)

	// FindByTriple looks up the conversation for an exact (item, buyer,
	// seller) combination. Returns NOT_FOUND when no such thread exists.
	FindByTriple(ctx context.Context, itemID, buyerID, sellerID string) (*entity.Conversation, error)

	// AppendMessage appends the message, increments the unread counter and
	// clears both hidden flags in one atomic document update. Concurrent
	// senders must never lose each other's messages.
	AppendMessage(ctx context.Context, conversationID string, msg entity.Message) error

	// ResetUnread sets the unread counter back to zero.
	ResetUnread(ctx context.Context, conversationID string) error

	// Hide sets the buyer's or the seller's hidden flag, leaving the other
	// side untouched.
	Hide(ctx context.Context, conversationID string, asBuyer bool) error

	// ListByParticipant returns every conversation the user takes part in,
	// hidden or not, newest activity first.
	ListByParticipant(ctx context.Context, userID string) ([]*entity.Conversation, error)
}
