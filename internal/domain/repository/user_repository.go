package repository

import (
	"context"

	"campusmarket/internal/domain/entity"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)

	// SetPushSubscription stores the user's web-push subscription; a nil
	// subscription clears it.
	SetPushSubscription(ctx context.Context, userID string, sub *entity.PushSubscription) error
}
