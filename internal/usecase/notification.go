package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tilvo/tasko/internal/adapter/mail"
	"github.com/tilvo/tasko/internal/config"
	"github.com/tilvo/tasko/internal/domain/model"
	"github.com/tilvo/tasko/internal/domain/repository"
)

// NotificationUseCase delivers outbox notifications.
type NotificationUseCase struct {
	notifications repository.NotificationRepository
	sender        mail.Sender
	maxAttempts   int
	now           func() time.Time
}

// NewNotificationUseCase constructs NotificationUseCase.
func NewNotificationUseCase(notifications repository.NotificationRepository, sender mail.Sender, maxAttempts int) *NotificationUseCase {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &NotificationUseCase{
		notifications: notifications,
		sender:        sender,
		maxAttempts:   maxAttempts,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Pending claims up to limit notifications for delivery.
func (u *NotificationUseCase) Pending(ctx context.Context, limit int) ([]model.Notification, error) {
	return u.notifications.ClaimPending(ctx, limit)
}

// Deliver sends a claimed notification and records the result.
func (u *NotificationUseCase) Deliver(ctx context.Context, n model.Notification) error {
	err := u.sender.Send(ctx, mail.Message{To: n.Recipient, Subject: n.Subject, Body: n.Body})
	if err != nil {
		if markErr := u.notifications.MarkFailed(ctx, n.ID, err.Error(), u.maxAttempts); markErr != nil {
			return fmt.Errorf("send notification %s: %w (mark failed: %v)", n.ID, err, markErr)
		}
		return fmt.Errorf("send notification %s: %w", n.ID, err)
	}
	return u.notifications.MarkSent(ctx, n.ID, u.now())
}

func orderConfirmation(id string, order *model.Order, recipient, name string) *model.Notification {
	greeting := "Hallo"
	if name != "" {
		greeting = "Hallo " + name
	}

	var body strings.Builder
	fmt.Fprintf(&body, "%s,\n\n", greeting)
	fmt.Fprintf(&body, "wir haben deine Zahlung von %s erhalten. Dein Auftrag %s ist jetzt aktiv.\n",
		formatAmount(order.AmountPaidInCents, order.Currency), order.ID)
	if order.Subcategory != "" {
		fmt.Fprintf(&body, "Leistung: %s\n", order.Subcategory)
	}
	fmt.Fprintf(&body, "Die Zahlung bleibt bis %s in der Clearing-Phase.\n", order.ClearingPeriodEndsAt.Format("02.01.2006"))
	body.WriteString("\nDein Tasko-Team\n")

	return &model.Notification{
		ID:        id,
		Kind:      model.NotificationKindOrderConfirmation,
		Recipient: recipient,
		Subject:   "Zahlung erhalten: Auftrag " + order.ID,
		Body:      body.String(),
		Status:    model.NotificationStatusPending,
		CreatedAt: order.CreatedAt,
	}
}

// formatAmount renders minor currency units, e.g. 5000 eur as "50.00 EUR".
func formatAmount(minorUnits int64, currency string) string {
	amount := decimal.New(minorUnits, -2).StringFixed(2)
	if currency == "" {
		return amount
	}
	return amount + " " + strings.ToUpper(currency)
}

func newNotificationUseCase(notifications repository.NotificationRepository, sender mail.Sender, cfg *config.Config) *NotificationUseCase {
	return NewNotificationUseCase(notifications, sender, cfg.OutboxMaxAttempts)
}
