package notify

import (
	"context"
	"errors"
	"testing"

	"auction-marketplace/internal/domain"

	"github.com/stretchr/testify/require"
)

type recordingDispatcher struct {
	sent int
	err  error
}

func (d *recordingDispatcher) Send(ctx context.Context, msg domain.OutboundMessage) error {
	d.sent++
	return d.err
}

func TestMultiDispatcher_AttemptsEveryChannel(t *testing.T) {
	first := &recordingDispatcher{err: errors.New("boom")}
	second := &recordingDispatcher{}

	m := NewMultiDispatcher(first, second)
	err := m.Send(context.Background(), domain.OutboundMessage{UserID: "usr_1", Message: "hi"})

	require.Error(t, err)
	require.Equal(t, 1, first.sent)
	require.Equal(t, 1, second.sent)
}

func TestMultiDispatcher_NilWhenAllSucceed(t *testing.T) {
	first := &recordingDispatcher{}
	second := &recordingDispatcher{}

	m := NewMultiDispatcher(first, second)
	require.NoError(t, m.Send(context.Background(), domain.OutboundMessage{UserID: "usr_1"}))
}
