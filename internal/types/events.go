package types

import "time"

// AlertSeverity represents the severity of a system alert
type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "info"
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

// Server-initiated event names
const (
	EventVoicemailCreated       = "voicemail_created"
	EventVoicemailUpdated       = "voicemail_updated"
	EventVoicemailAssigned      = "voicemail_assigned"
	EventVoicemailStatusChanged = "voicemail_status_changed"

	EventCallIncoming           = "call_incoming"
	EventCallStatusChanged      = "call_status_changed"
	EventCallCompleted          = "call_completed"
	EventCallRecordingAvailable = "call_recording_available"

	EventMessageReceived      = "message_received"
	EventMessageSent          = "message_sent"
	EventMessageStatusChanged = "message_status_changed"

	EventConversationUpdated = "conversation_updated"

	EventTaskAssigned  = "task_assigned"
	EventTaskAccepted  = "task_accepted"
	EventTaskRejected  = "task_rejected"
	EventTaskCompleted = "task_completed"

	EventWorkerStatusChanged   = "worker_status_changed"
	EventWorkerActivityChanged = "worker_activity_changed"

	EventNotification = "notification"
	EventSystemAlert  = "system_alert"
	EventQueueUpdated = "queue_updated"

	EventUserOnline          = "user_online"
	EventUserOffline         = "user_offline"
	EventUserJoined          = "user_joined"
	EventUserLeft            = "user_left"
	EventUserPresenceUpdated = "user_presence_updated"
	EventOnlineUsersList     = "online_users_list"

	EventAuthenticated = "authenticated"
)

// Entity type names used for entity-scoped rooms (e.g. "task:T123")
const (
	EntityVoicemail    = "voicemail"
	EntityCall         = "call"
	EntityMessage      = "message"
	EntityConversation = "conversation"
	EntityTask         = "task"
	EntityTaskQueue    = "taskqueue"
	EntityWorker       = "worker"
)

// Event is an immutable typed payload pushed to connected dashboards.
// The envelope carries enough routing metadata for the bus to pick target
// rooms without a secondary lookup. Fire-and-forget: no ack, no replay.
type Event struct {
	Name       string `json:"event"`
	EntityType string `json:"entityType,omitempty"`
	EntityID   string `json:"entityId,omitempty"`
	Department string `json:"department,omitempty"`
	AssignedTo string `json:"assignedTo,omitempty"`

	// Notification targeting (most specific audience wins)
	UserID string `json:"userId,omitempty"`
	Role   Role   `json:"role,omitempty"`

	// System alert scoping
	Severity            AlertSeverity `json:"severity,omitempty"`
	AffectedUsers       []string      `json:"affectedUsers,omitempty"`
	AffectedDepartments []string      `json:"affectedDepartments,omitempty"`

	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// NewEntityEvent builds an entity-scoped event envelope
func NewEntityEvent(name, entityType, entityID string) Event {
	return Event{
		Name:       name,
		EntityType: entityType,
		EntityID:   entityID,
		Timestamp:  time.Now(),
	}
}

// NewNotification builds a notification event. Leave the targeting fields
// empty for a global notification.
func NewNotification(userID string, dept string, role Role) Event {
	return Event{
		Name:       EventNotification,
		UserID:     userID,
		Department: dept,
		Role:       role,
		Timestamp:  time.Now(),
	}
}

// NewSystemAlert builds a system_alert event
func NewSystemAlert(severity AlertSeverity, message string) Event {
	return Event{
		Name:      EventSystemAlert,
		Severity:  severity,
		Timestamp: time.Now(),
		Data:      map[string]any{"message": message},
	}
}
