package websocket

import (
	"context"

	"auction-marketplace/internal/domain"
)

// Notifier adapts the connection manager to the dispatch interface, so a
// connected user sees their notification without polling.
type Notifier struct {
	connManager *ConnectionManager
}

func NewNotifier(connManager *ConnectionManager) *Notifier {
	return &Notifier{connManager: connManager}
}

func (n *Notifier) Send(ctx context.Context, msg domain.OutboundMessage) error {
	return n.connManager.NotifyUser(msg.UserID, map[string]string{
		"type":    "notification",
		"message": msg.Message,
	})
}
