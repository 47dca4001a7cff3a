package handlers

import (
	"context"

	"github.com/tilvo/tasko/internal/domain/model"
)

// WebhookFacade verifies and dispatches processor events.
type WebhookFacade interface {
	ParseEvent(payload []byte, signature string) (model.PaymentEvent, error)
	HandleEvent(ctx context.Context, event model.PaymentEvent) error
}

// HealthFacade reports whether backing services are reachable.
type HealthFacade interface {
	HealthCheck(ctx context.Context) error
}

// PaymentsFacade aggregates the full set of operations used across handlers.
type PaymentsFacade interface {
	WebhookFacade
	HealthFacade
}
