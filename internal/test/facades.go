package test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tilvo/tasko/internal/domain/model"
)

// WebhookFacadeStub provides controllable behaviour for webhook and health endpoints.
type WebhookFacadeStub struct {
	ParseFn  func([]byte, string) (model.PaymentEvent, error)
	HandleFn func(context.Context, model.PaymentEvent) error
	HealthFn func(context.Context) error
}

// ParseEvent delegates to provided function or returns an unhandled event.
func (s WebhookFacadeStub) ParseEvent(payload []byte, signature string) (model.PaymentEvent, error) {
	if s.ParseFn != nil {
		return s.ParseFn(payload, signature)
	}
	return model.UnhandledEvent{ID: "evt_stub", RawType: "charge.succeeded"}, nil
}

// HandleEvent delegates to provided function or acknowledges the event.
func (s WebhookFacadeStub) HandleEvent(ctx context.Context, event model.PaymentEvent) error {
	if s.HandleFn != nil {
		return s.HandleFn(ctx, event)
	}
	return nil
}

// HealthCheck delegates to provided function or reports healthy.
func (s WebhookFacadeStub) HealthCheck(ctx context.Context) error {
	if s.HealthFn != nil {
		return s.HealthFn(ctx)
	}
	return nil
}

// WorkerFacadeStub mimics worker interactions with the notification outbox.
type WorkerFacadeStub struct {
	Batches   [][]model.Notification
	ClaimFn   func(context.Context, int) ([]model.Notification, error)
	DeliverFn func(context.Context, model.Notification) error
	Delivered []model.Notification
	mu        sync.Mutex
	claims    int32
}

// Lock exposes internal mutex for external synchronization.
func (s *WorkerFacadeStub) Lock() { s.mu.Lock() }

// Unlock releases previously acquired lock.
func (s *WorkerFacadeStub) Unlock() { s.mu.Unlock() }

// NotificationsForDelivery returns batches from configured queue.
func (s *WorkerFacadeStub) NotificationsForDelivery(ctx context.Context, limit int) ([]model.Notification, error) {
	if s.ClaimFn != nil {
		return s.ClaimFn(ctx, limit)
	}
	call := atomic.AddInt32(&s.claims, 1)
	if int(call) <= len(s.Batches) {
		return s.Batches[call-1], nil
	}
	time.Sleep(10 * time.Millisecond)
	return nil, nil
}

// DeliverNotification records deliveries after the optional override succeeds.
func (s *WorkerFacadeStub) DeliverNotification(ctx context.Context, n model.Notification) error {
	if s.DeliverFn != nil {
		if err := s.DeliverFn(ctx, n); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Delivered = append(s.Delivered, n)
	return nil
}
