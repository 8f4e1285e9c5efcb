package websocket

import (
	"net/http"

	"auction-marketplace/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler upgrades HTTP requests into the per-user notification stream.
type Handler struct {
	connManager *ConnectionManager
	log         logger.Logger
}

func NewHandler(connManager *ConnectionManager, log logger.Logger) *Handler {
	return &Handler{
		connManager: connManager,
		log:         log,
	}
}

func (h *Handler) HandleConnection(c echo.Context) error {
	userID := c.QueryParam("user_id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "user_id required"})
	}

	wsConn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.log.Error("Failed to upgrade connection", "error", err)
		return nil
	}

	conn := NewConnection(wsConn, userID, h.log)
	h.connManager.Register(conn)

	go h.readLoop(conn)
	return nil
}

// readLoop drains client frames until the peer goes away, answering pings
// so intermediaries keep the connection open.
func (h *Handler) readLoop(conn *Connection) {
	defer func() {
		h.connManager.Unregister(conn)
		conn.Close()
	}()

	for {
		var msg map[string]interface{}
		if err := conn.conn.ReadJSON(&msg); err != nil {
			h.log.Debug("Connection closed", "user_id", conn.UserID(), "error", err)
			return
		}

		if msgType, ok := msg["type"].(string); ok && msgType == "ping" {
			conn.Send(map[string]string{"type": "pong"})
		}
	}
}
