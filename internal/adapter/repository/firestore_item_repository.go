package repository

import (
	"context"
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

type firestoreItemRepository struct {
	client *firestore.Client
}

func NewFirestoreItemRepository(client *firestore.Client) repository.ItemRepository {
	return &firestoreItemRepository{
		client: client,
	}
}

func (r *firestoreItemRepository) Create(ctx context.Context, item *entity.Item) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}

	now := time.Now()
	item.CreatedAt = now
	item.UpdatedAt = now

	_, err := r.client.Collection("items").Doc(item.ID).Set(ctx, item)
	if err != nil {
		return errors.Internal("Failed to create item", err)
	}

	return nil
}

func (r *firestoreItemRepository) GetByID(ctx context.Context, id string) (*entity.Item, error) {
	doc, err := r.client.Collection("items").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Item", err)
		}
		return nil, errors.Internal("Failed to get item", err)
	}

	var item entity.Item
	if err := doc.DataTo(&item); err != nil {
		return nil, errors.Internal("Failed to parse item data", err)
	}

	return &item, nil
}

func (r *firestoreItemRepository) ListUnsold(ctx context.Context) ([]*entity.Item, error) {
	query := r.client.Collection("items").Where("sold", "==", false).OrderBy("createdAt", firestore.Desc)

	iter := query.Documents(ctx)
	var items []*entity.Item

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to iterate items", err)
		}

		var item entity.Item
		if err := doc.DataTo(&item); err != nil {
			continue
		}
		items = append(items, &item)
	}

	return items, nil
}

func (r *firestoreItemRepository) ListBySeller(ctx context.Context, sellerID string) ([]*entity.Item, error) {
	query := r.client.Collection("items").Where("sellerId", "==", sellerID).OrderBy("createdAt", firestore.Desc)

	iter := query.Documents(ctx)
	var items []*entity.Item

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to iterate items", err)
		}

		var item entity.Item
		if err := doc.DataTo(&item); err != nil {
			continue
		}
		items = append(items, &item)
	}

	return items, nil
}

func (r *firestoreItemRepository) MarkSold(ctx context.Context, id string) error {
	_, err := r.client.Collection("items").Doc(id).Update(ctx, []firestore.Update{
		{Path: "sold", Value: true},
		{Path: "updatedAt", Value: time.Now()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Item", err)
		}
		return errors.Internal("Failed to mark item as sold", err)
	}

	return nil
}

func (r *firestoreItemRepository) Delete(ctx context.Context, id string) error {
	_, err := r.client.Collection("items").Doc(id).Delete(ctx)
	if err != nil {
		return errors.Internal("Failed to delete item", err)
	}

	return nil
}
