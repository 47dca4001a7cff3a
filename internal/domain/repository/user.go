package repository

import (
	"context"
	"time"

	"github.com/tilvo/tasko/internal/domain/model"
)

// UserRepository describes persistence operations for user profiles.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	FindByStripeAccountID(ctx context.Context, accountID string) (*model.User, error)
	UpdatePaymentMethods(ctx context.Context, userID string, methods []model.SavedPaymentMethod, at time.Time) error
	UpdateAccountStatus(ctx context.Context, userID string, status model.AccountStatus) error
}
