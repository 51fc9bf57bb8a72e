package usecase

import (
	"context"

	"campusmarket/internal/domain/entity"
	"campusmarket/internal/domain/repository"
	"campusmarket/pkg/errors"
)

// PushUseCase stores browser push subscriptions against the user record.
// Each user keeps at most one subscription; registering from a new browser
// replaces the previous one.
type PushUseCase struct {
	userRepo repository.UserRepository
}

func NewPushUseCase(userRepo repository.UserRepository) *PushUseCase {
	return &PushUseCase{userRepo: userRepo}
}

type SubscribeInput struct {
	Endpoint string
	P256dh   string
	Auth     string
}

func (uc *PushUseCase) Subscribe(ctx context.Context, userID string, input SubscribeInput) error {
	if input.Endpoint == "" || input.P256dh == "" || input.Auth == "" {
		return errors.BadRequest("Endpoint, p256dh and auth keys are required", nil)
	}

	return uc.userRepo.SetPushSubscription(ctx, userID, &entity.PushSubscription{
		Endpoint: input.Endpoint,
		P256dh:   input.P256dh,
		Auth:     input.Auth,
	})
}

func (uc *PushUseCase) Unsubscribe(ctx context.Context, userID string) error {
	return uc.userRepo.SetPushSubscription(ctx, userID, nil)
}
