package types

import "time"

// Priority is the symbolic priority of a contact
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Score maps a symbolic priority to its numeric task priority
func (p Priority) Score() int {
	switch p {
	case PriorityUrgent:
		return 100
	case PriorityHigh:
		return 75
	case PriorityLow:
		return 25
	default:
		return 50
	}
}

// MaxPriority returns the higher-scoring of two priorities
func MaxPriority(a, b Priority) Priority {
	if b.Score() > a.Score() {
		return b
	}
	return a
}

// TaskAttributes is the attribute set of a routable contact: a small closed
// set of recognized fields plus an open extension map for everything else.
type TaskAttributes struct {
	Type       string         `json:"type,omitempty"`
	Priority   Priority       `json:"priority,omitempty"`
	CustomerID string         `json:"customer_id,omitempty"`
	Department string         `json:"department,omitempty"`
	Skills     []string       `json:"skills,omitempty"`
	Extra      map[string]any `json:"extra,omitempty"`
}

// Field resolves an attribute by name, recognized keys first, then Extra
func (a TaskAttributes) Field(name string) (any, bool) {
	switch name {
	case "type":
		return a.Type, a.Type != ""
	case "priority":
		return string(a.Priority), a.Priority != ""
	case "customer_id":
		return a.CustomerID, a.CustomerID != ""
	case "department":
		return a.Department, a.Department != ""
	case "skills":
		return a.Skills, len(a.Skills) > 0
	}
	v, ok := a.Extra[name]
	return v, ok
}

// SetExtra records a free-form attribute
func (a *TaskAttributes) SetExtra(key string, value any) {
	if a.Extra == nil {
		a.Extra = make(map[string]any)
	}
	a.Extra[key] = value
}

// Clone returns a deep-enough copy so pipeline enrichment never mutates
// the caller's attributes
func (a TaskAttributes) Clone() TaskAttributes {
	c := a
	if a.Skills != nil {
		c.Skills = append([]string(nil), a.Skills...)
	}
	if a.Extra != nil {
		c.Extra = make(map[string]any, len(a.Extra))
		for k, v := range a.Extra {
			c.Extra[k] = v
		}
	}
	return c
}

// ContactContext describes the inbound contact being routed
type ContactContext struct {
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Text        string `json:"text,omitempty"`
	CallSid     string `json:"callSid,omitempty"`
	MessageSid  string `json:"messageSid,omitempty"`
	CallID      string `json:"callId,omitempty"`
	MessageID   string `json:"messageId,omitempty"`
}

// RoutingDecision is the terminal output of the task router. A decision is
// always produced; TaskSid is empty when the external commit failed.
type RoutingDecision struct {
	TaskQueueSid string         `json:"taskQueueSid"`
	WorkflowSid  string         `json:"workflowSid,omitempty"`
	Priority     int            `json:"priority"`
	Attributes   TaskAttributes `json:"attributes"`
	TaskSid      string         `json:"taskSid,omitempty"`
	TaskID       string         `json:"taskId,omitempty"`
}

// Worker is a routable agent profile as read from the persistence service
type Worker struct {
	ID         string   `json:"workerId" dynamodbav:"WorkerID"`
	Name       string   `json:"name" dynamodbav:"Name"`
	Department string   `json:"department" dynamodbav:"Department"`
	Skills     []string `json:"skills" dynamodbav:"Skills"`
	Available  bool     `json:"available" dynamodbav:"Available"`
	Activity   string   `json:"activity,omitempty" dynamodbav:"Activity"`
}

// RoutingRecord is the persisted audit trail of one routing decision
type RoutingRecord struct {
	DateKey      string `json:"dateKey" dynamodbav:"DateKey"`
	ContactID    string `json:"contactId" dynamodbav:"ContactID"`
	Channel      string `json:"channel" dynamodbav:"Channel"`
	PhoneNumber  string `json:"phoneNumber,omitempty" dynamodbav:"PhoneNumber"`
	Department   string `json:"department,omitempty" dynamodbav:"Department"`
	TaskQueueSid string `json:"taskQueueSid" dynamodbav:"TaskQueueSid"`
	Priority     int    `json:"priority" dynamodbav:"Priority"`
	MatchedRule  string `json:"matchedRule,omitempty" dynamodbav:"MatchedRule"`
	TaskSid      string `json:"taskSid,omitempty" dynamodbav:"TaskSid"`
	RoutedAt     string `json:"routedAt" dynamodbav:"RoutedAt"`
}

// Customer is the CRM lookup result for a phone number
type Customer struct {
	ID                 string         `json:"customerId"`
	Name               string         `json:"name,omitempty"`
	Type               string         `json:"type,omitempty"` // e.g. Standard, VIP, Premium, Emergency
	Department         string         `json:"department,omitempty"`
	ProjectCoordinator string         `json:"projectCoordinator,omitempty"`
	Notes              string         `json:"notes,omitempty"`
	Attributes         map[string]any `json:"attributes,omitempty"`
}

// RoutedAtFormat is the timestamp layout of RoutingRecord fields
const RoutedAtFormat = time.RFC3339
