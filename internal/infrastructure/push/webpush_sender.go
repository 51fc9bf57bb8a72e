package push

import (
	"context"
	"encoding/json"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"

	"campusmarket/internal/domain/repository"
	"campusmarket/pkg/logger"
)

// Sender delivers web-push notifications. Delivery is best-effort with a
// plain success/failure outcome; the only bookkeeping is dropping a
// subscription the push service reports as gone.
type Sender struct {
	userRepo   repository.UserRepository
	subscriber string
	publicKey  string
	privateKey string
}

func NewSender(userRepo repository.UserRepository, subscriber, publicKey, privateKey string) *Sender {
	return &Sender{
		userRepo:   userRepo,
		subscriber: subscriber,
		publicKey:  publicKey,
		privateKey: privateKey,
	}
}

// SendToUser pushes the payload to the user's registered subscription.
// Returns false when the user has no subscription or delivery failed.
func (s *Sender) SendToUser(ctx context.Context, userID string, payload interface{}) bool {
	if s.publicKey == "" || s.privateKey == "" {
		return false
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil || user.PushSubscription == nil || user.PushSubscription.Endpoint == "" {
		return false
	}

	body, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Push: failed to marshal payload for user %s: %v", userID, err)
		return false
	}

	sub := &webpush.Subscription{
		Endpoint: user.PushSubscription.Endpoint,
		Keys: webpush.Keys{
			P256dh: user.PushSubscription.P256dh,
			Auth:   user.PushSubscription.Auth,
		},
	}

	resp, err := webpush.SendNotificationWithContext(ctx, body, sub, &webpush.Options{
		Subscriber:      s.subscriber,
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
		TTL:             60,
	})
	if err != nil {
		logger.Error("Push: delivery to user %s failed: %v", userID, err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound {
		if err := s.userRepo.SetPushSubscription(ctx, userID, nil); err != nil {
			logger.Warn("Push: failed to drop dead subscription for user %s: %v", userID, err)
		} else {
			logger.Info("Push: removed dead subscription for user %s", userID)
		}
		return false
	}

	if resp.StatusCode >= 400 {
		logger.Warn("Push: push service returned %d for user %s", resp.StatusCode, userID)
		return false
	}

	return true
}
