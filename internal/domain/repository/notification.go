package repository

import (
	"context"
	"time"

	"github.com/tilvo/tasko/internal/domain/model"
)

// NotificationRepository gives the outbox worker access to pending notifications.
type NotificationRepository interface {
	ClaimPending(ctx context.Context, limit int) ([]model.Notification, error)
	MarkSent(ctx context.Context, id string, at time.Time) error
	MarkFailed(ctx context.Context, id string, reason string, maxAttempts int) error
}
