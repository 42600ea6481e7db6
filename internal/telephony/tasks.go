// Package telephony defines the task-queue collaborator. The external
// provider (Twilio TaskRouter) lives behind this interface; the router
// never fails a contact because task creation failed.
package telephony

import (
	"context"
	"errors"

	"github.com/avelkins10/kin-communications-platform-sub002/internal/types"
)

// ErrDisabled is returned by the stand-in when no provider is configured
var ErrDisabled = errors.New("telephony: task service disabled")

// TaskRequest is the commit payload for a routed contact
type TaskRequest struct {
	TaskQueueSid string
	WorkflowSid  string
	Priority     int
	Attributes   types.TaskAttributes
}

// TaskResult identifies the created task
type TaskResult struct {
	TaskSid string
	TaskID  string
}

// TaskService commits routed contacts to the external task queue
type TaskService interface {
	CreateTask(ctx context.Context, req TaskRequest) (*TaskResult, error)
}

// Disabled is the stand-in when no telephony provider is configured
type Disabled struct{}

func NewDisabled() *Disabled { return &Disabled{} }

func (*Disabled) CreateTask(_ context.Context, _ TaskRequest) (*TaskResult, error) {
	return nil, ErrDisabled
}
