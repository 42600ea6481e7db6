package eventbus

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/avelkins10/kin-communications-platform-sub002/internal/auth"
	"github.com/avelkins10/kin-communications-platform-sub002/internal/config"
	"github.com/avelkins10/kin-communications-platform-sub002/internal/types"
)

// Client is a middleman between one websocket connection and the bus
type Client struct {
	// The bus this client belongs to
	bus *Bus

	// The websocket connection
	conn *websocket.Conn

	// Buffered channel of outbound messages
	send chan []byte

	session *types.Session
	claims  *auth.Claims

	config *config.Config
	logger zerolog.Logger

	// closeOnce ensures the send channel is closed only once
	closeOnce sync.Once
}

// NewClient creates a new Client for verified claims
func NewClient(bus *Bus, conn *websocket.Conn, cfg *config.Config, logger zerolog.Logger, claims *auth.Claims) *Client {
	sessionID := uuid.New().String()
	return &Client{
		bus:     bus,
		conn:    conn,
		send:    make(chan []byte, 256),
		session: newSession(sessionID, claims),
		claims:  claims,
		config:  cfg,
		logger: logger.With().
			Str("session_id", sessionID).
			Str("user_id", claims.UserID).
			Logger(),
	}
}

// Start starts the client's read and write pumps
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

// close closes the send channel exactly once
func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// enqueueJSON marshals and queues a message for this client only
func (c *Client) enqueueJSON(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Error().Err(err).Msg("failed to marshal client message")
		return
	}
	select {
	case c.send <- data:
	default:
		c.logger.Warn().Msg("dropping message for slow client")
	}
}

// readPump pumps messages from the websocket connection to the bus
//
// The application runs readPump in a per-connection goroutine. The
// application ensures that there is at most one reader on a connection by
// executing all reads from this goroutine.
func (c *Client) readPump() {
	defer func() {
		c.bus.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
		c.bus.registry.Touch(c.session.ID)
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error().Err(err).Msg("websocket read error")
			}
			break
		}
		c.bus.handleMessage(c, message)
	}
}

// writePump pumps messages from the bus to the websocket connection
//
// A goroutine running writePump is started for each connection. The
// application ensures that there is at most one writer to a connection by
// executing all writes from this goroutine.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.config.PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if !ok {
				// The bus closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
