package eventbus

import "github.com/avelkins10/kin-communications-platform-sub002/internal/types"

// Client-initiated actions
const (
	ActionJoinRoom          = "join_room"
	ActionLeaveRoom         = "leave_room"
	ActionUpdatePresence    = "update_presence"
	ActionHeartbeat         = "heartbeat"
	ActionMarkVoicemailRead = "mark_voicemail_read"
	ActionAcceptTask        = "accept_task"
	ActionRejectTask        = "reject_task"
)

// clientMessage is the envelope of every client-initiated message
type clientMessage struct {
	Action string `json:"action"`
	Room   string `json:"room,omitempty"`
	ID     string `json:"id,omitempty"` // entity id for convenience actions

	// update_presence fields
	Status          types.PresenceStatus `json:"status,omitempty"`
	CurrentActivity string               `json:"currentActivity,omitempty"`
	Location        string               `json:"location,omitempty"`
}

// ackMessage is sent after a successful handshake
type ackMessage struct {
	Event     string `json:"event"`
	SessionID string `json:"sessionId"`
	UserID    string `json:"userId"`
}
