package usecase

import (
	"context"
	"io"
)

// TokenService issues bearer tokens for authenticated users.
type TokenService interface {
	GenerateToken(userID, role string) (string, error)
}

// ChatNotifier is the realtime side channel of the conversation service.
// Notifications are fire-and-forget: implementations log delivery failures
// and never report them back, because persistence success is the operation's
// actual success criterion.
type ChatNotifier interface {
	NotifyUser(userID string, event string, payload interface{})
	NotifyConversation(conversationID string, event string, payload interface{})
	IsOnline(userID string) bool
}

// PushSender delivers a notification to a user's registered push
// subscription, reporting plain success or failure.
type PushSender interface {
	SendToUser(ctx context.Context, userID string, payload interface{}) bool
}

// FileUploader stores an uploaded file and returns its public URL.
type FileUploader interface {
	UploadFile(ctx context.Context, file io.Reader, contentType, folder string) (string, error)
}
