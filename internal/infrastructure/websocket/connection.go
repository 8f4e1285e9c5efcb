package websocket

import (
	"encoding/json"
	"sync"

	"auction-marketplace/pkg/logger"

	"github.com/gorilla/websocket"
)

// Connection wraps a single user's websocket. Writes are serialized;
// gorilla connections do not allow concurrent writers.
type Connection struct {
	conn      *websocket.Conn
	userID    string
	writeLock sync.Mutex
	log       logger.Logger
}

func NewConnection(conn *websocket.Conn, userID string, log logger.Logger) *Connection {
	return &Connection{
		conn:   conn,
		userID: userID,
		log:    log,
	}
}

func (c *Connection) UserID() string {
	return c.userID
}

func (c *Connection) Send(message interface{}) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}

	c.writeLock.Lock()
	defer c.writeLock.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

func (c *Connection) Close() error {
	return c.conn.Close()
}
