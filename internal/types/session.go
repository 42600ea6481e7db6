package types

import "time"

// PresenceStatus represents a user's availability on the dashboard
type PresenceStatus string

const (
	PresenceOnline  PresenceStatus = "online"
	PresenceAway    PresenceStatus = "away"
	PresenceBusy    PresenceStatus = "busy"
	PresenceOffline PresenceStatus = "offline"
)

// Role represents a user role carried in the auth token
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleSupervisor  Role = "supervisor"
	RoleAgent       Role = "agent"
	RoleCoordinator Role = "coordinator"
)

// Well-known room names and prefixes.
// Room membership is derived from sessions, never stored independently.
const (
	RoomGlobal           = "global"
	RoomPrefixRole       = "role:"
	RoomPrefixDepartment = "department:"
	RoomPrefixUser       = "user:"
)

// RoleRoom returns the broadcast room for a role
func RoleRoom(role Role) string {
	return RoomPrefixRole + string(role)
}

// DepartmentRoom returns the broadcast room for a department
func DepartmentRoom(dept string) string {
	return RoomPrefixDepartment + dept
}

// UserRoom returns the per-user broadcast room
func UserRoom(userID string) string {
	return RoomPrefixUser + userID
}

// EntityRoom returns the room for an entity-scoped topic, e.g. task:T123
func EntityRoom(entityType, entityID string) string {
	return entityType + ":" + entityID
}

// Session is the ephemeral record of one authenticated connection.
// Owned exclusively by the event bus; never persisted.
type Session struct {
	ID           string          `json:"sessionId"`
	UserID       string          `json:"userId"`
	Name         string          `json:"name,omitempty"`
	Role         Role            `json:"role"`
	Department   string          `json:"department"`
	ConnectedAt  time.Time       `json:"connectedAt"`
	LastActivity time.Time       `json:"lastActivity"`
	Rooms        map[string]bool `json:"-"`
	Status       PresenceStatus  `json:"status"`
	Activity     string          `json:"currentActivity,omitempty"`
	Location     string          `json:"location,omitempty"`
}

// InRoom reports whether the session belongs to the given room
func (s *Session) InRoom(room string) bool {
	return s.Rooms[room]
}

// OnlineUser is the per-user entry of the online_users_list payload
type OnlineUser struct {
	UserID     string         `json:"userId"`
	Name       string         `json:"name,omitempty"`
	Role       Role           `json:"role"`
	Department string         `json:"department"`
	Status     PresenceStatus `json:"status"`
	Activity   string         `json:"currentActivity,omitempty"`
}
