package app

import (
	"context"
	"log/slog"

	"github.com/tilvo/tasko/internal/domain/model"
	"github.com/tilvo/tasko/internal/usecase"
)

// EventParser verifies and decodes raw processor payloads.
type EventParser interface {
	ParseEvent(payload []byte, signature string) (model.PaymentEvent, error)
}

// HealthChecker reports whether the store is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// PaymentsFacade routes verified events to their use cases and serves the outbox worker.
type PaymentsFacade struct {
	parser         EventParser
	health         HealthChecker
	conversion     *usecase.ConversionUseCase
	paymentMethods *usecase.PaymentMethodUseCase
	accounts       *usecase.AccountStatusUseCase
	notifications  *usecase.NotificationUseCase
	logger         *slog.Logger
}

// NewPaymentsFacade constructs PaymentsFacade.
func NewPaymentsFacade(
	parser EventParser,
	health HealthChecker,
	conversion *usecase.ConversionUseCase,
	paymentMethods *usecase.PaymentMethodUseCase,
	accounts *usecase.AccountStatusUseCase,
	notifications *usecase.NotificationUseCase,
	logger *slog.Logger,
) *PaymentsFacade {
	return &PaymentsFacade{
		parser:         parser,
		health:         health,
		conversion:     conversion,
		paymentMethods: paymentMethods,
		accounts:       accounts,
		notifications:  notifications,
		logger:         logger,
	}
}

func (f *PaymentsFacade) ParseEvent(payload []byte, signature string) (model.PaymentEvent, error) {
	return f.parser.ParseEvent(payload, signature)
}

// HandleEvent dispatches by event type. Only a failed order conversion is returned as an error;
// mirror outcomes are logged and acknowledged.
func (f *PaymentsFacade) HandleEvent(ctx context.Context, event model.PaymentEvent) error {
	switch e := event.(type) {
	case model.PaymentIntentSucceeded:
		outcome, err := f.conversion.Convert(ctx, e)
		f.logOutcome(ctx, event, outcome)
		return err
	case model.SetupIntentSucceeded:
		f.logOutcome(ctx, event, f.paymentMethods.Mirror(ctx, e))
	case model.AccountUpdated:
		f.logOutcome(ctx, event, f.accounts.Mirror(ctx, e))
	default:
		f.logger.InfoContext(ctx, "unhandled event type",
			slog.String("event_id", event.EventID()),
			slog.String("event_type", string(event.Type())),
		)
	}
	return nil
}

func (f *PaymentsFacade) HealthCheck(ctx context.Context) error {
	return f.health.HealthCheck(ctx)
}

func (f *PaymentsFacade) NotificationsForDelivery(ctx context.Context, limit int) ([]model.Notification, error) {
	return f.notifications.Pending(ctx, limit)
}

func (f *PaymentsFacade) DeliverNotification(ctx context.Context, n model.Notification) error {
	return f.notifications.Deliver(ctx, n)
}

func (f *PaymentsFacade) logOutcome(ctx context.Context, event model.PaymentEvent, outcome usecase.Outcome) {
	attrs := append([]any{
		slog.String("event_id", event.EventID()),
		slog.String("event_type", string(event.Type())),
	}, outcome.LogAttrs()...)
	f.logger.Log(ctx, outcome.Level(), "event handled", attrs...)
}
