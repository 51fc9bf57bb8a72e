package repository

import (
	"context"

	"campusmarket/internal/domain/entity"
)

type ItemRepository interface {
	Create(ctx context.Context, item *entity.Item) error
	GetByID(ctx context.Context, id string) (*entity.Item, error)
	ListUnsold(ctx context.Context) ([]*entity.Item, error)
	ListBySeller(ctx context.Context, sellerID string) ([]*entity.Item, error)
	MarkSold(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}
