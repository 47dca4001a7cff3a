package repository

import (
	"context"
	"time"

	"github.com/tilvo/tasko/internal/domain/model"
)

// ConversionTx exposes the reads and writes of a single draft-to-order conversion.
// All calls share one store transaction; nothing is visible to others before it commits.
type ConversionTx interface {
	DraftForUpdate(ctx context.Context, draftID string) (*model.Draft, error)
	UserForUpdate(ctx context.Context, userID string) (*model.User, error)
	InsertOrder(ctx context.Context, order *model.Order) error
	MarkDraftConverted(ctx context.Context, draftID, orderID string, at time.Time) error
	SaveAddressBook(ctx context.Context, userID string, addresses []model.Address, personal model.PersonalDetails, at time.Time) error
	EnqueueNotification(ctx context.Context, n *model.Notification) error
	// Savepoint runs fn so that its writes can be discarded without aborting the enclosing transaction.
	Savepoint(ctx context.Context, name string, fn func() error) error
}

// OrderRepository describes persistence operations with orders.
type OrderRepository interface {
	// RunConversion executes fn atomically, retrying it on serialization conflicts.
	RunConversion(ctx context.Context, fn func(tx ConversionTx) error) error
}
