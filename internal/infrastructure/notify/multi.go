package notify

import (
	"context"
	"errors"

	"auction-marketplace/internal/domain"
)

// MultiDispatcher fans one message out to every configured channel. Every
// channel is attempted even when an earlier one fails.
type MultiDispatcher struct {
	dispatchers []domain.Dispatcher
}

func NewMultiDispatcher(dispatchers ...domain.Dispatcher) *MultiDispatcher {
	return &MultiDispatcher{dispatchers: dispatchers}
}

func (m *MultiDispatcher) Send(ctx context.Context, msg domain.OutboundMessage) error {
	var errs []error
	for _, d := range m.dispatchers {
		if err := d.Send(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
