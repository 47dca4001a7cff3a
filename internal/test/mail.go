package test

import (
	"context"
	"sync"

	"github.com/tilvo/tasko/internal/adapter/mail"
)

// SenderStub records outgoing email.
type SenderStub struct {
	SendFn func(context.Context, mail.Message) error

	mu   sync.Mutex
	Sent []mail.Message
}

// Send delegates to the override, recording the message when it succeeds.
func (s *SenderStub) Send(ctx context.Context, msg mail.Message) error {
	if s.SendFn != nil {
		if err := s.SendFn(ctx, msg); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Sent = append(s.Sent, msg)
	return nil
}
