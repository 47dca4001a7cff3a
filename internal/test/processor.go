package test

import (
	"context"
	"sync"

	domainErrors "github.com/tilvo/tasko/internal/domain/errors"
	"github.com/tilvo/tasko/internal/domain/model"
)

// ProcessorStub serves payment methods and customers from memory.
type ProcessorStub struct {
	PaymentMethodFn func(context.Context, string) (*model.PaymentMethodDetails, error)
	CustomerFn      func(context.Context, string) (*model.Customer, error)
	PaymentMethods  map[string]*model.PaymentMethodDetails
	Customers       map[string]*model.Customer

	mu    sync.Mutex
	Calls []string
}

// PaymentMethod returns the configured payment method or not found.
func (s *ProcessorStub) PaymentMethod(ctx context.Context, id string) (*model.PaymentMethodDetails, error) {
	s.record("payment_method:" + id)
	if s.PaymentMethodFn != nil {
		return s.PaymentMethodFn(ctx, id)
	}
	if pm, ok := s.PaymentMethods[id]; ok {
		copied := *pm
		return &copied, nil
	}
	return nil, domainErrors.ErrNotFound
}

// Customer returns the configured customer or not found.
func (s *ProcessorStub) Customer(ctx context.Context, id string) (*model.Customer, error) {
	s.record("customer:" + id)
	if s.CustomerFn != nil {
		return s.CustomerFn(ctx, id)
	}
	if c, ok := s.Customers[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, domainErrors.ErrNotFound
}

func (s *ProcessorStub) record(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, call)
}
