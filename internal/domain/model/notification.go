package model

import "time"

// NotificationKind identifies the template of an outgoing message.
type NotificationKind string

const NotificationKindOrderConfirmation NotificationKind = "order_confirmation"

// NotificationStatus tracks outbox delivery.
type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSending NotificationStatus = "sending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)

// Notification is an outbox row written in the same transaction as the change it announces.
type Notification struct {
	ID        string
	Kind      NotificationKind
	Recipient string
	Subject   string
	Body      string
	Status    NotificationStatus
	Attempts  int
	LastError *string
	CreatedAt time.Time
	SentAt    *time.Time
}
