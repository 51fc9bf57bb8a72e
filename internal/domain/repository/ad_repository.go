package repository

import (
	"context"

	"campusmarket/internal/domain/entity"
)

type AdRepository interface {
	Create(ctx context.Context, ad *entity.Ad) error
	GetByID(ctx context.Context, id string) (*entity.Ad, error)
	List(ctx context.Context) ([]*entity.Ad, error)
	Delete(ctx context.Context, id string) error
}
