package eventbus

import (
	"strings"

	"github.com/avelkins10/kin-communications-platform-sub002/internal/auth"
	"github.com/avelkins10/kin-communications-platform-sub002/internal/types"
)

// TargetRooms computes the rooms an event is delivered to. The rules are
// deterministic per event class:
//
//   - entity events fan out to every applicable room: global, the
//     department room, the assignee's user room, and the entity room;
//   - notifications target the single most specific audience;
//   - system alerts walk their scoping fields in priority order;
//   - task-queue events fan out like entity events and always include
//     the admin role room.
func TargetRooms(evt types.Event) []string {
	switch evt.Name {
	case types.EventNotification:
		return notificationRooms(evt)
	case types.EventSystemAlert:
		return systemAlertRooms(evt)
	}

	if evt.EntityType == types.EntityTaskQueue {
		return append(entityRooms(evt), types.RoleRoom(types.RoleAdmin))
	}
	if evt.EntityType != "" {
		return entityRooms(evt)
	}

	// Presence and other unscoped events go global
	return []string{types.RoomGlobal}
}

// entityRooms is the fan-out set for voicemail/call/message/conversation/
// task/worker events
func entityRooms(evt types.Event) []string {
	rooms := []string{types.RoomGlobal}
	if evt.Department != "" {
		rooms = append(rooms, types.DepartmentRoom(evt.Department))
	}
	if evt.AssignedTo != "" {
		rooms = append(rooms, types.UserRoom(evt.AssignedTo))
	}
	if evt.EntityID != "" {
		rooms = append(rooms, types.EntityRoom(evt.EntityType, evt.EntityID))
	}
	return rooms
}

// notificationRooms picks exactly one audience: user, else department,
// else role, else global
func notificationRooms(evt types.Event) []string {
	switch {
	case evt.UserID != "":
		return []string{types.UserRoom(evt.UserID)}
	case evt.Department != "":
		return []string{types.DepartmentRoom(evt.Department)}
	case evt.Role != "":
		return []string{types.RoleRoom(evt.Role)}
	default:
		return []string{types.RoomGlobal}
	}
}

// systemAlertRooms scopes an alert: affected users, else affected
// departments, else global when critical, else admins only
func systemAlertRooms(evt types.Event) []string {
	if len(evt.AffectedUsers) > 0 {
		rooms := make([]string, 0, len(evt.AffectedUsers))
		for _, userID := range evt.AffectedUsers {
			rooms = append(rooms, types.UserRoom(userID))
		}
		return rooms
	}
	if len(evt.AffectedDepartments) > 0 {
		rooms := make([]string, 0, len(evt.AffectedDepartments))
		for _, dept := range evt.AffectedDepartments {
			rooms = append(rooms, types.DepartmentRoom(dept))
		}
		return rooms
	}
	if evt.Severity == types.SeverityCritical {
		return []string{types.RoomGlobal}
	}
	return []string{types.RoleRoom(types.RoleAdmin)}
}

// CanJoin decides whether a session may join a room: global always, the
// session's own user/role/department rooms, anything for admins. Every
// other request is rejected (the caller ignores it silently).
func CanJoin(claims *auth.Claims, room string) bool {
	if claims.IsAdmin() {
		return true
	}
	switch {
	case room == types.RoomGlobal:
		return true
	case strings.HasPrefix(room, types.RoomPrefixUser):
		return room == types.UserRoom(claims.UserID)
	case strings.HasPrefix(room, types.RoomPrefixRole):
		return room == types.RoleRoom(claims.Role)
	case strings.HasPrefix(room, types.RoomPrefixDepartment):
		return claims.Department != "" && room == types.DepartmentRoom(claims.Department)
	default:
		return false
	}
}
