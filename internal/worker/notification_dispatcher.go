package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/tilvo/tasko/internal/adapter/mail"
	"github.com/tilvo/tasko/internal/domain/model"
)

// NotificationFacade exposes the subset of application functionality required by the worker.
type NotificationFacade interface {
	NotificationsForDelivery(ctx context.Context, limit int) ([]model.Notification, error)
	DeliverNotification(ctx context.Context, n model.Notification) error
}

// NotificationDispatcher drains the notification outbox with a pool of senders.
type NotificationDispatcher struct {
	facade       NotificationFacade
	pollInterval time.Duration
	batchSize    int
	workers      int
	logger       *slog.Logger

	jobs   chan model.Notification
	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewNotificationDispatcher constructs the dispatcher worker pool.
func NewNotificationDispatcher(facade NotificationFacade, pollInterval time.Duration, batchSize, workers int, logger *slog.Logger) *NotificationDispatcher {
	if workers <= 0 {
		workers = 1
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	return &NotificationDispatcher{
		facade:       facade,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		workers:      workers,
		logger:       logger,
		jobs:         make(chan model.Notification, batchSize*workers),
	}
}

// Start launches background processing.
func (d *NotificationDispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(runCtx)
	}

	d.wg.Add(1)
	go d.dispatch(runCtx)
}

// Stop waits for all workers to finish.
func (d *NotificationDispatcher) Stop() {
	d.mu.Lock()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *NotificationDispatcher) dispatch(ctx context.Context) {
	defer d.wg.Done()
	defer close(d.jobs)
	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.fetchAndDispatch(ctx)
		}
	}
}

func (d *NotificationDispatcher) fetchAndDispatch(ctx context.Context) {
	notifications, err := d.facade.NotificationsForDelivery(ctx, d.batchSize)
	if err != nil {
		d.logger.Error("claim notifications failed", slog.String("error", err.Error()))
		return
	}
	for _, n := range notifications {
		select {
		case <-ctx.Done():
			return
		case d.jobs <- n:
		}
	}
}

func (d *NotificationDispatcher) worker(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-d.jobs:
			if !ok {
				return
			}
			d.handle(ctx, n)
		}
	}
}

func (d *NotificationDispatcher) handle(ctx context.Context, n model.Notification) {
	err := d.facade.DeliverNotification(ctx, n)
	if err == nil {
		d.logger.Info("notification sent", slog.String("notification_id", n.ID), slog.String("kind", string(n.Kind)))
		return
	}

	var tooMany mail.TooManyRequestsError
	if errors.As(err, &tooMany) {
		d.logger.Warn("mail rate limited", slog.String("notification_id", n.ID), slog.Duration("retry_after", tooMany.RetryAfter))
		sleep(ctx, tooMany.RetryAfter)
		return
	}

	d.logger.Error("notification delivery failed",
		slog.String("notification_id", n.ID),
		slog.Int("attempt", n.Attempts+1),
		slog.String("error", err.Error()),
	)
}

func sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
