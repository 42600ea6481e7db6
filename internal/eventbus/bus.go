package eventbus

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/avelkins10/kin-communications-platform-sub002/internal/auth"
	"github.com/avelkins10/kin-communications-platform-sub002/internal/metrics"
	"github.com/avelkins10/kin-communications-platform-sub002/internal/presence"
	"github.com/avelkins10/kin-communications-platform-sub002/internal/types"
)

// Bus is the real-time fan-out server. It owns the set of connected
// clients and pushes typed domain events into topic rooms. The session
// registry is mutated only from bus handlers; other components query it.
//
// Broadcast on a nil *Bus is a safe no-op, so webhook handlers never fail
// a request because no dashboard happened to be listening.
type Bus struct {
	// Registered clients by session ID
	clients map[string]*Client

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Outbound domain events awaiting fan-out
	broadcast chan types.Event

	registry *presence.Registry

	// Mutex to protect clients map
	mu sync.RWMutex

	logger zerolog.Logger
}

var (
	busOnce     sync.Once
	busInstance *Bus
)

// Init creates the process-wide bus on first call and returns the existing
// instance on every later call.
func Init(registry *presence.Registry, logger zerolog.Logger) *Bus {
	busOnce.Do(func() {
		busInstance = NewBus(registry, logger)
	})
	return busInstance
}

// NewBus creates an independent bus (tests construct their own rather
// than sharing the process singleton)
func NewBus(registry *presence.Registry, logger zerolog.Logger) *Bus {
	return &Bus{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan types.Event, 256),
		registry:   registry,
		logger:     logger,
	}
}

// Run starts the bus's main loop
func (b *Bus) Run() {
	m := metrics.Get()

	for {
		select {
		case client := <-b.register:
			b.mu.Lock()
			b.clients[client.session.ID] = client
			b.mu.Unlock()

			b.registry.Register(client.session)
			m.RecordSessionConnect()

			b.logger.Info().
				Str("session_id", client.session.ID).
				Str("user_id", client.session.UserID).
				Int("total_clients", b.ClientCount()).
				Msg("client connected")

			client.enqueueJSON(types.Event{
				Name:      types.EventOnlineUsersList,
				Timestamp: time.Now(),
				Data:      map[string]any{"users": b.registry.Snapshot()},
			})

			b.deliver(types.Event{
				Name:      types.EventUserOnline,
				UserID:    client.session.UserID,
				Timestamp: time.Now(),
				Data: map[string]any{
					"userId":     client.session.UserID,
					"role":       client.session.Role,
					"department": client.session.Department,
				},
			})

		case client := <-b.unregister:
			b.mu.Lock()
			existing, ok := b.clients[client.session.ID]
			if ok && existing == client {
				delete(b.clients, client.session.ID)
				client.close()
			}
			b.mu.Unlock()

			if ok && existing == client {
				b.registry.Remove(client.session.ID)
				m.RecordSessionDisconnect()

				b.logger.Info().
					Str("session_id", client.session.ID).
					Str("user_id", client.session.UserID).
					Int("total_clients", b.ClientCount()).
					Msg("client disconnected")

				// Graceful/transport disconnect broadcasts offline;
				// sweep eviction stays silent.
				if !b.registry.IsOnline(client.session.UserID) {
					b.deliver(types.Event{
						Name:      types.EventUserOffline,
						UserID:    client.session.UserID,
						Timestamp: time.Now(),
						Data:      map[string]any{"userId": client.session.UserID},
					})
				}
			}

		case evt := <-b.broadcast:
			b.deliver(evt)
		}
	}
}

// Broadcast queues a domain event for fan-out. Safe on a nil bus.
func (b *Bus) Broadcast(evt types.Event) {
	if b == nil {
		return
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	select {
	case b.broadcast <- evt:
	default:
		b.logger.Warn().Str("event", evt.Name).Msg("broadcast queue full, event dropped")
	}
}

// ClientCount returns the number of connected clients
func (b *Bus) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Registry exposes the session registry for read-only presence queries
func (b *Bus) Registry() *presence.Registry {
	if b == nil {
		return nil
	}
	return b.registry
}

// deliver fans an event out to every client in its target rooms. A client
// in several target rooms receives the payload once per delivery; sending
// the same event twice produces two deliveries (no dedup across calls).
func (b *Bus) deliver(evt types.Event) {
	rooms := TargetRooms(evt)
	sessionIDs := b.registry.SessionsInRooms(rooms)

	data, err := json.Marshal(evt)
	if err != nil {
		b.logger.Error().Err(err).Str("event", evt.Name).Msg("failed to marshal event")
		return
	}

	m := metrics.Get()
	m.RecordBroadcast()

	delivered := 0
	var dropped []string
	b.mu.Lock()
	for _, id := range sessionIDs {
		client, ok := b.clients[id]
		if !ok {
			continue
		}
		select {
		case client.send <- data:
			delivered++
		default:
			// Client's send buffer is full, close and remove it
			delete(b.clients, id)
			client.close()
			dropped = append(dropped, id)
			b.logger.Warn().
				Str("session_id", id).
				Msg("client send buffer full, closing connection")
		}
	}
	b.mu.Unlock()

	for _, id := range dropped {
		b.registry.Remove(id)
		m.RecordSessionDisconnect()
	}

	m.RecordDeliveries(delivered)

	b.logger.Debug().
		Str("event", evt.Name).
		Strs("rooms", rooms).
		Int("delivered", delivered).
		Msg("event broadcast")
}

// handleMessage processes one client-initiated message. Handlers for a
// single connection never interleave (they run on its read pump), but
// handlers for different connections run concurrently.
func (b *Bus) handleMessage(c *Client, raw []byte) {
	var msg clientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.logger.Debug().Err(err).Msg("ignoring malformed client message")
		return
	}

	b.registry.Touch(c.session.ID)

	switch msg.Action {
	case ActionHeartbeat:
		// Touch above is the whole contract

	case ActionJoinRoom:
		if msg.Room == "" {
			return
		}
		if !CanJoin(c.claims, msg.Room) {
			// Unauthorized joins are silently rejected
			c.logger.Debug().Str("room", msg.Room).Msg("join rejected")
			return
		}
		b.registry.Join(c.session.ID, msg.Room)
		c.logger.Debug().Str("room", msg.Room).Msg("joined room")

	case ActionLeaveRoom:
		if msg.Room == "" {
			return
		}
		b.registry.Leave(c.session.ID, msg.Room)
		c.logger.Debug().Str("room", msg.Room).Msg("left room")

	case ActionUpdatePresence:
		status := msg.Status
		switch status {
		case types.PresenceOnline, types.PresenceAway, types.PresenceBusy, types.PresenceOffline:
		default:
			return
		}
		if !b.registry.UpdatePresence(c.session.ID, status, msg.CurrentActivity, msg.Location) {
			return
		}
		b.deliver(types.Event{
			Name:      types.EventUserPresenceUpdated,
			UserID:    c.session.UserID,
			Timestamp: time.Now(),
			Data: map[string]any{
				"userId":          c.session.UserID,
				"status":          status,
				"currentActivity": msg.CurrentActivity,
			},
		})

	case ActionMarkVoicemailRead:
		if msg.ID == "" {
			return
		}
		evt := types.NewEntityEvent(types.EventVoicemailStatusChanged, types.EntityVoicemail, msg.ID)
		evt.Data = map[string]any{"read": true, "readBy": c.session.UserID}
		b.deliver(evt)

	case ActionAcceptTask:
		if msg.ID == "" {
			return
		}
		evt := types.NewEntityEvent(types.EventTaskAccepted, types.EntityTask, msg.ID)
		evt.AssignedTo = c.session.UserID
		evt.Data = map[string]any{"acceptedBy": c.session.UserID}
		b.deliver(evt)

	case ActionRejectTask:
		if msg.ID == "" {
			return
		}
		evt := types.NewEntityEvent(types.EventTaskRejected, types.EntityTask, msg.ID)
		evt.Data = map[string]any{"rejectedBy": c.session.UserID}
		b.deliver(evt)

	default:
		c.logger.Debug().Str("action", msg.Action).Msg("unknown client action")
	}
}

// newSession builds the session for verified claims with its four
// automatic rooms: global, role, department, user
func newSession(id string, claims *auth.Claims) *types.Session {
	now := time.Now()
	rooms := map[string]bool{
		types.RoomGlobal:              true,
		types.RoleRoom(claims.Role):   true,
		types.UserRoom(claims.UserID): true,
	}
	if claims.Department != "" {
		rooms[types.DepartmentRoom(claims.Department)] = true
	}
	return &types.Session{
		ID:           id,
		UserID:       claims.UserID,
		Name:         claims.Name,
		Role:         claims.Role,
		Department:   claims.Department,
		ConnectedAt:  now,
		LastActivity: now,
		Rooms:        rooms,
		Status:       types.PresenceOnline,
	}
}
