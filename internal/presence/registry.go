package presence

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/avelkins10/kin-communications-platform-sub002/internal/types"
)

// Registry maintains the in-memory table of connected sessions and the
// reverse index from room name to session set. It is the only mutable
// shared resource of the event bus: bus-internal handlers mutate it,
// everything else may only query.
type Registry struct {
	sessions map[string]*types.Session  // sessionID -> session
	rooms    map[string]map[string]bool // room -> set of sessionIDs
	timeout  time.Duration
	mu       sync.RWMutex
	logger   zerolog.Logger
}

// NewRegistry creates a new session registry. Sessions whose last activity
// exceeds timeout are evicted by the periodic sweep.
func NewRegistry(timeout time.Duration, logger zerolog.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]*types.Session),
		rooms:    make(map[string]map[string]bool),
		timeout:  timeout,
		logger:   logger,
	}
}

// Register adds a session and indexes its initial rooms
func (r *Registry) Register(session *types.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session.Rooms == nil {
		session.Rooms = make(map[string]bool)
	}
	r.sessions[session.ID] = session
	for room := range session.Rooms {
		r.indexRoom(session.ID, room)
	}
}

// Touch refreshes a session's last-activity timestamp
func (r *Registry) Touch(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session, ok := r.sessions[sessionID]; ok {
		session.LastActivity = time.Now()
	}
}

// Remove deletes a session and all of its room memberships
func (r *Registry) Remove(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(sessionID)
}

func (r *Registry) removeLocked(sessionID string) {
	session, ok := r.sessions[sessionID]
	if !ok {
		return
	}
	for room := range session.Rooms {
		r.unindexRoom(sessionID, room)
	}
	delete(r.sessions, sessionID)
}

// Join adds a session to a room. Membership is derived state: the room
// index mirrors the session's own room set.
func (r *Registry) Join(sessionID, room string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[sessionID]
	if !ok {
		return false
	}
	session.Rooms[room] = true
	session.LastActivity = time.Now()
	r.indexRoom(sessionID, room)
	return true
}

// Leave removes a session from a room
func (r *Registry) Leave(sessionID, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[sessionID]
	if !ok {
		return
	}
	delete(session.Rooms, room)
	session.LastActivity = time.Now()
	r.unindexRoom(sessionID, room)
}

// ListByRoom returns the IDs of all sessions in a room
func (r *Registry) ListByRoom(room string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.rooms[room]
	ids := make([]string, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	return ids
}

// SessionsInRooms returns the deduplicated session IDs across a set of
// rooms, so one broadcast delivers at most once per session
func (r *Registry) SessionsInRooms(rooms []string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var ids []string
	for _, room := range rooms {
		for id := range r.rooms[room] {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// IsOnline reports whether any session exists for the user
func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, session := range r.sessions {
		if session.UserID == userID {
			return true
		}
	}
	return false
}

// GetPresence returns the presence of a user, offline when not connected
func (r *Registry) GetPresence(userID string) (types.PresenceStatus, string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, session := range r.sessions {
		if session.UserID == userID {
			return session.Status, session.Activity
		}
	}
	return types.PresenceOffline, ""
}

// UpdatePresence sets a session's presence status and activity label
func (r *Registry) UpdatePresence(sessionID string, status types.PresenceStatus, activity, location string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[sessionID]
	if !ok {
		return false
	}
	session.Status = status
	session.Activity = activity
	if location != "" {
		session.Location = location
	}
	session.LastActivity = time.Now()
	return true
}

// Get returns a copy of the session, if present
func (r *Registry) Get(sessionID string) (types.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[sessionID]
	if !ok {
		return types.Session{}, false
	}
	return *session, true
}

// Snapshot returns the currently-online users, sorted by user ID
func (r *Registry) Snapshot() []types.OnlineUser {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byUser := make(map[string]types.OnlineUser, len(r.sessions))
	for _, s := range r.sessions {
		byUser[s.UserID] = types.OnlineUser{
			UserID:     s.UserID,
			Name:       s.Name,
			Role:       s.Role,
			Department: s.Department,
			Status:     s.Status,
			Activity:   s.Activity,
		}
	}

	users := make([]types.OnlineUser, 0, len(byUser))
	for _, u := range byUser {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].UserID < users[j].UserID })
	return users
}

// Count returns the number of tracked sessions
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep evicts sessions whose last activity exceeds the timeout and
// returns how many were removed. Eviction is silent bookkeeping cleanup:
// offline broadcasts happen only on explicit transport disconnect.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	threshold := time.Now().Add(-r.timeout)
	removed := 0
	for id, session := range r.sessions {
		if session.LastActivity.Before(threshold) {
			r.removeLocked(id)
			removed++
		}
	}
	return removed
}

// StartSweeper runs the periodic sweep until the context is cancelled
func (r *Registry) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.logger.Info().Dur("interval", interval).Dur("timeout", r.timeout).Msg("presence sweeper started")

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("presence sweeper stopped")
			return
		case <-ticker.C:
			if removed := r.Sweep(); removed > 0 {
				r.logger.Debug().Int("evicted", removed).Msg("swept inactive sessions")
			}
		}
	}
}

// indexRoom and unindexRoom maintain the reverse index; callers hold the lock
func (r *Registry) indexRoom(sessionID, room string) {
	members, ok := r.rooms[room]
	if !ok {
		members = make(map[string]bool)
		r.rooms[room] = members
	}
	members[sessionID] = true
}

func (r *Registry) unindexRoom(sessionID, room string) {
	members, ok := r.rooms[room]
	if !ok {
		return
	}
	delete(members, sessionID)
	if len(members) == 0 {
		delete(r.rooms, room)
	}
}
