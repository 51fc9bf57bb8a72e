package repository

import (
	"context"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"campusmarket/internal/domain/entity"
	"campusmarket/internal/domain/repository"
	"campusmarket/pkg/errors"
)

type firestoreConversationRepository struct {
	client *firestore.Client
}

func NewFirestoreConversationRepository(client *firestore.Client) repository.ConversationRepository {
	return &firestoreConversationRepository{
		client: client,
	}
}

func (r *firestoreConversationRepository) Create(ctx context.Context, conv *entity.Conversation) error {
	if conv.ID == "" {
		conv.ID = uuid.New().String()
	}
	if conv.Messages == nil {
		conv.Messages = []entity.Message{}
	}

	now := time.Now()
	conv.CreatedAt = now
	conv.UpdatedAt = now

	_, err := r.client.Collection("conversations").Doc(conv.ID).Set(ctx, conv)
	if err != nil {
		return errors.Internal("Failed to create conversation", err)
	}

	return nil
}

func (r *firestoreConversationRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	doc, err := r.client.Collection("conversations").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Conversation", err)
		}
		return nil, errors.Internal("Failed to get conversation", err)
	}

	var conv entity.Conversation
	if err := doc.DataTo(&conv); err != nil {
		return nil, errors.Internal("Failed to parse conversation data", err)
	}

	return &conv, nil
}

func (r *firestoreConversationRepository) FindByTriple(ctx context.Context, itemID, buyerID, sellerID string) (*entity.Conversation, error) {
	query := r.client.Collection("conversations").
		Where("itemId", "==", itemID).
		Where("buyerId", "==", buyerID).
		Where("sellerId", "==", sellerID).
		Limit(1)

	iter := query.Documents(ctx)
	doc, err := iter.Next()
	if err != nil {
		if err == iterator.Done {
			return nil, errors.NotFound("Conversation", nil)
		}
		return nil, errors.Internal("Failed to query conversation", err)
	}

	var conv entity.Conversation
	if err := doc.DataTo(&conv); err != nil {
		return nil, errors.Internal("Failed to parse conversation data", err)
	}

	return &conv, nil
}

// AppendMessage performs the whole send as one document update so two
// concurrent senders cannot lose each other's message or counter bump.
func (r *firestoreConversationRepository) AppendMessage(ctx context.Context, conversationID string, msg entity.Message) error {
	_, err := r.client.Collection("conversations").Doc(conversationID).Update(ctx, []firestore.Update{
		{Path: "messages", Value: firestore.ArrayUnion(msg)},
		{Path: "unreadCount", Value: firestore.Increment(1)},
		{Path: "hiddenByBuyer", Value: false},
		{Path: "hiddenBySeller", Value: false},
		{Path: "updatedAt", Value: msg.CreatedAt},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Conversation", err)
		}
		return errors.Internal("Failed to append message", err)
	}

	return nil
}

func (r *firestoreConversationRepository) ResetUnread(ctx context.Context, conversationID string) error {
	_, err := r.client.Collection("conversations").Doc(conversationID).Update(ctx, []firestore.Update{
		{Path: "unreadCount", Value: 0},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Conversation", err)
		}
		return errors.Internal("Failed to reset unread counter", err)
	}

	return nil
}

func (r *firestoreConversationRepository) Hide(ctx context.Context, conversationID string, asBuyer bool) error {
	field := "hiddenBySeller"
	if asBuyer {
		field = "hiddenByBuyer"
	}

	_, err := r.client.Collection("conversations").Doc(conversationID).Update(ctx, []firestore.Update{
		{Path: field, Value: true},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Conversation", err)
		}
		return errors.Internal("Failed to hide conversation", err)
	}

	return nil
}

func (r *firestoreConversationRepository) ListByParticipant(ctx context.Context, userID string) ([]*entity.Conversation, error) {
	var conversations []*entity.Conversation
	seen := make(map[string]bool)

	// Firestore has no OR queries on different fields, so the buyer and
	// seller sides are fetched separately and merged.
	for _, field := range []string{"buyerId", "sellerId"} {
		iter := r.client.Collection("conversations").Where(field, "==", userID).Documents(ctx)
		for {
			doc, err := iter.Next()
			if err == iterator.Done {
				break
			}
			if err != nil {
				return nil, errors.Internal("Failed to iterate conversations", err)
			}

			var conv entity.Conversation
			if err := doc.DataTo(&conv); err != nil {
				continue
			}
			if seen[conv.ID] {
				continue
			}
			seen[conv.ID] = true
			conversations = append(conversations, &conv)
		}
	}

	sort.Slice(conversations, func(i, j int) bool {
		return conversations[i].UpdatedAt.After(conversations[j].UpdatedAt)
	})

	return conversations, nil
}
