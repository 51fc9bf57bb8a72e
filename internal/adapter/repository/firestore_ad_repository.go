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

type firestoreAdRepository struct {
	client *firestore.Client
}

func NewFirestoreAdRepository(client *firestore.Client) repository.AdRepository {
	return &firestoreAdRepository{
		client: client,
	}
}

func (r *firestoreAdRepository) Create(ctx context.Context, ad *entity.Ad) error {
	if ad.ID == "" {
		ad.ID = uuid.New().String()
	}

	now := time.Now()
	ad.CreatedAt = now
	ad.UpdatedAt = now

	_, err := r.client.Collection("ads").Doc(ad.ID).Set(ctx, ad)
	if err != nil {
		return errors.Internal("Failed to create ad", err)
	}

	return nil
}

func (r *firestoreAdRepository) GetByID(ctx context.Context, id string) (*entity.Ad, error) {
	doc, err := r.client.Collection("ads").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Ad", err)
		}
		return nil, errors.Internal("Failed to get ad", err)
	}

	var ad entity.Ad
	if err := doc.DataTo(&ad); err != nil {
		return nil, errors.Internal("Failed to parse ad data", err)
	}

	return &ad, nil
}

func (r *firestoreAdRepository) List(ctx context.Context) ([]*entity.Ad, error) {
	query := r.client.Collection("ads").OrderBy("createdAt", firestore.Desc)

	iter := query.Documents(ctx)
	var ads []*entity.Ad

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to iterate ads", err)
		}

		var ad entity.Ad
		if err := doc.DataTo(&ad); err != nil {
			continue
		}
		ads = append(ads, &ad)
	}

	return ads, nil
}

func (r *firestoreAdRepository) Delete(ctx context.Context, id string) error {
	_, err := r.client.Collection("ads").Doc(id).Delete(ctx)
	if err != nil {
		return errors.Internal("Failed to delete ad", err)
	}

	return nil
}
