package websocket

import (
	"sync"

	"auction-marketplace/pkg/logger"
)

// ConnectionManager tracks live websocket connections keyed by user. A
// user may hold several connections (multiple tabs, devices).
type ConnectionManager struct {
	userConns map[string][]*Connection
	mutex     sync.RWMutex
	log       logger.Logger
}

func NewConnectionManager(log logger.Logger) *ConnectionManager {
	return &ConnectionManager{
		userConns: make(map[string][]*Connection),
		log:       log,
	}
}

func (cm *ConnectionManager) Register(conn *Connection) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	cm.userConns[conn.UserID()] = append(cm.userConns[conn.UserID()], conn)
	cm.log.Info("Connection registered", "user_id", conn.UserID())
}

func (cm *ConnectionManager) Unregister(conn *Connection) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	conns := cm.userConns[conn.UserID()]
	var remaining []*Connection
	for _, existing := range conns {
		if existing != conn {
			remaining = append(remaining, existing)
		}
	}

	if len(remaining) == 0 {
		delete(cm.userConns, conn.UserID())
	} else {
		cm.userConns[conn.UserID()] = remaining
	}

	cm.log.Info("Connection unregistered", "user_id", conn.UserID())
}

func (cm *ConnectionManager) connectionsForUser(userID string) []*Connection {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()
	return append([]*Connection(nil), cm.userConns[userID]...)
}

func (cm *ConnectionManager) allConnections() []*Connection {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	var conns []*Connection
	for _, userConns := range cm.userConns {
		conns = append(conns, userConns...)
	}
	return conns
}

// NotifyUser sends a message to every connection of one user. Dead
// connections are skipped; the read loop cleans them up.
func (cm *ConnectionManager) NotifyUser(userID string, message interface{}) error {
	for _, conn := range cm.connectionsForUser(userID) {
		if err := conn.Send(message); err != nil {
			cm.log.Error("Failed to send message", "user_id", userID, "error", err)
		}
	}
	return nil
}

// BroadcastAll pushes a message to every connected user, used for live
// market events.
func (cm *ConnectionManager) BroadcastAll(message interface{}) error {
	for _, conn := range cm.allConnections() {
		if err := conn.Send(message); err != nil {
			cm.log.Error("Failed to send message", "user_id", conn.UserID(), "error", err)
		}
	}
	return nil
}
