package usecase

import (
	"context"

	"github.com/tilvo/tasko/internal/domain/model"
)

// PaymentProcessor is the subset of the payment processor API the mirrors depend on.
type PaymentProcessor interface {
	PaymentMethod(ctx context.Context, id string) (*model.PaymentMethodDetails, error)
	Customer(ctx context.Context, id string) (*model.Customer, error)
}
