package eventbus

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/avelkins10/kin-communications-platform-sub002/internal/auth"
	"github.com/avelkins10/kin-communications-platform-sub002/internal/presence"
	"github.com/avelkins10/kin-communications-platform-sub002/internal/types"
)

func testBus() *Bus {
	registry := presence.NewRegistry(time.Minute, zerolog.Nop())
	return NewBus(registry, zerolog.Nop())
}

// testClient builds a client without pumps; the buffered send channel
// stands in for the connection
func testClient(b *Bus, userID string, role types.Role, dept string) *Client {
	claims := &auth.Claims{UserID: userID, Role: role, Department: dept}
	c := &Client{
		bus:     b,
		send:    make(chan []byte, 16),
		session: newSession("session-"+userID, claims),
		claims:  claims,
		logger:  zerolog.Nop(),
	}
	b.mu.Lock()
	b.clients[c.session.ID] = c
	b.mu.Unlock()
	b.registry.Register(c.session)
	return c
}

func drainEvent(t *testing.T, c *Client) types.Event {
	t.Helper()
	select {
	case data := <-c.send:
		var evt types.Event
		if err := json.Unmarshal(data, &evt); err != nil {
			t.Fatalf("failed to unmarshal event: %v", err)
		}
		return evt
	case <-time.After(100 * time.Millisecond):
		t.Fatal("expected an event, got none")
		return types.Event{}
	}
}

func assertNoEvent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.send:
		t.Fatalf("expected no event, got %s", data)
	default:
	}
}

func TestBroadcastNilBusIsNoop(t *testing.T) {
	var b *Bus
	// Must not panic
	b.Broadcast(types.NewSystemAlert(types.SeverityCritical, "x"))
}

func TestInitIdempotent(t *testing.T) {
	registry := presence.NewRegistry(time.Minute, zerolog.Nop())
	b1 := Init(registry, zerolog.Nop())
	b2 := Init(presence.NewRegistry(time.Minute, zerolog.Nop()), zerolog.Nop())
	if b1 != b2 {
		t.Error("expected Init to return the existing bus instance")
	}
}

func TestDeliverEntityEventFanOut(t *testing.T) {
	b := testBus()
	supportAgent := testClient(b, "u1", types.RoleAgent, "support")
	salesAgent := testClient(b, "u2", types.RoleAgent, "sales")
	assignee := testClient(b, "u3", types.RoleAgent, "billing")

	evt := types.NewEntityEvent(types.EventVoicemailCreated, types.EntityVoicemail, "VM1")
	evt.Department = "support"
	evt.AssignedTo = "u3"
	b.deliver(evt)

	// Everyone is in global, so all three receive it exactly once
	for _, c := range []*Client{supportAgent, salesAgent, assignee} {
		got := drainEvent(t, c)
		if got.Name != types.EventVoicemailCreated {
			t.Errorf("expected voicemail_created, got %s", got.Name)
		}
		assertNoEvent(t, c)
	}
}

func TestDeliverTwiceDeliversTwice(t *testing.T) {
	b := testBus()
	c := testClient(b, "u1", types.RoleAgent, "support")

	evt := types.NewEntityEvent(types.EventTaskAssigned, types.EntityTask, "T1")
	evt.Department = "support"
	evt.AssignedTo = "u1"

	b.deliver(evt)
	b.deliver(evt)

	drainEvent(t, c)
	drainEvent(t, c)
	assertNoEvent(t, c)
}

func TestDeliverWarningAlertReachesAdminsOnly(t *testing.T) {
	b := testBus()
	agent := testClient(b, "u1", types.RoleAgent, "support")
	admin := testClient(b, "u9", types.RoleAdmin, "ops")

	b.deliver(types.NewSystemAlert(types.SeverityWarning, "queue backlog"))

	got := drainEvent(t, admin)
	if got.Name != types.EventSystemAlert {
		t.Errorf("expected system_alert, got %s", got.Name)
	}
	assertNoEvent(t, agent)
}

func TestDeliverCriticalAlertReachesEveryone(t *testing.T) {
	b := testBus()
	agent := testClient(b, "u1", types.RoleAgent, "support")
	admin := testClient(b, "u9", types.RoleAdmin, "ops")

	b.deliver(types.NewSystemAlert(types.SeverityCritical, "provider outage"))

	drainEvent(t, agent)
	drainEvent(t, admin)
}

func TestHandleMessageJoinAuthorization(t *testing.T) {
	b := testBus()
	agent := testClient(b, "u1", types.RoleAgent, "support")
	admin := testClient(b, "u9", types.RoleAdmin, "ops")

	// Non-admin cross-department join is silently rejected
	b.handleMessage(agent, []byte(`{"action":"join_room","room":"department:sales"}`))
	if ids := b.registry.ListByRoom("department:sales"); len(ids) != 0 {
		t.Errorf("expected department:sales empty, got %v", ids)
	}

	// Admin may join any room
	b.handleMessage(admin, []byte(`{"action":"join_room","room":"department:sales"}`))
	if ids := b.registry.ListByRoom("department:sales"); len(ids) != 1 {
		t.Errorf("expected admin in department:sales, got %v", ids)
	}

	// Entity rooms are admin-only under the join contract
	b.handleMessage(agent, []byte(`{"action":"join_room","room":"task:T1"}`))
	if ids := b.registry.ListByRoom("task:T1"); len(ids) != 0 {
		t.Errorf("expected task:T1 empty for non-admin, got %v", ids)
	}
}

func TestHandleMessageLeaveRoom(t *testing.T) {
	b := testBus()
	agent := testClient(b, "u1", types.RoleAgent, "support")

	if got := len(b.registry.ListByRoom("department:support")); got != 1 {
		t.Fatalf("expected initial membership, got %d", got)
	}
	b.handleMessage(agent, []byte(`{"action":"leave_room","room":"department:support"}`))
	if got := len(b.registry.ListByRoom("department:support")); got != 0 {
		t.Errorf("expected empty room after leave, got %d", got)
	}
}

func TestHandleMessagePresenceUpdate(t *testing.T) {
	b := testBus()
	agent := testClient(b, "u1", types.RoleAgent, "support")
	watcher := testClient(b, "u2", types.RoleAgent, "support")

	b.handleMessage(agent, []byte(`{"action":"update_presence","status":"busy","currentActivity":"on a call"}`))

	status, activity := b.registry.GetPresence("u1")
	if status != types.PresenceBusy {
		t.Errorf("expected busy, got %s", status)
	}
	if activity != "on a call" {
		t.Errorf("unexpected activity %q", activity)
	}

	got := drainEvent(t, watcher)
	if got.Name != types.EventUserPresenceUpdated {
		t.Errorf("expected user_presence_updated, got %s", got.Name)
	}
}

func TestHandleMessageInvalidPresenceIgnored(t *testing.T) {
	b := testBus()
	agent := testClient(b, "u1", types.RoleAgent, "support")

	b.handleMessage(agent, []byte(`{"action":"update_presence","status":"gone_fishing"}`))

	status, _ := b.registry.GetPresence("u1")
	if status != types.PresenceOnline {
		t.Errorf("expected status unchanged, got %s", status)
	}
	assertNoEvent(t, agent)
}

func TestHandleMessageHeartbeatTouchesSession(t *testing.T) {
	b := testBus()
	agent := testClient(b, "u1", types.RoleAgent, "support")

	// Backdate activity, heartbeat must refresh it
	b.registry.UpdatePresence(agent.session.ID, types.PresenceOnline, "", "")
	before, _ := b.registry.Get(agent.session.ID)

	time.Sleep(5 * time.Millisecond)
	b.handleMessage(agent, []byte(`{"action":"heartbeat"}`))

	after, _ := b.registry.Get(agent.session.ID)
	if !after.LastActivity.After(before.LastActivity) {
		t.Error("expected heartbeat to refresh last activity")
	}
}

func TestHandleMessageAcceptTask(t *testing.T) {
	b := testBus()
	agent := testClient(b, "u1", types.RoleAgent, "support")

	b.handleMessage(agent, []byte(`{"action":"accept_task","id":"T42"}`))

	got := drainEvent(t, agent) // agent is in global, receives the fan-out
	if got.Name != types.EventTaskAccepted {
		t.Errorf("expected task_accepted, got %s", got.Name)
	}
	if got.EntityID != "T42" {
		t.Errorf("expected entity T42, got %s", got.EntityID)
	}
	if got.AssignedTo != "u1" {
		t.Errorf("expected assignee u1, got %s", got.AssignedTo)
	}
}

func TestHandleMessageMalformedIgnored(t *testing.T) {
	b := testBus()
	agent := testClient(b, "u1", types.RoleAgent, "support")

	b.handleMessage(agent, []byte(`{not json`))
	b.handleMessage(agent, []byte(`{"action":"join_room"}`))
	assertNoEvent(t, agent)
}

func TestRunRegisterUnregister(t *testing.T) {
	b := testBus()
	go b.Run()

	claims := &auth.Claims{UserID: "u1", Role: types.RoleAgent, Department: "support"}
	c := &Client{
		bus:     b,
		send:    make(chan []byte, 16),
		session: newSession("s1", claims),
		claims:  claims,
		logger:  zerolog.Nop(),
	}

	b.register <- c
	time.Sleep(10 * time.Millisecond)

	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client after register, got %d", b.ClientCount())
	}
	if !b.registry.IsOnline("u1") {
		t.Error("expected u1 online after register")
	}

	// Registration pushes the online users list to the new client
	got := drainEvent(t, c)
	if got.Name != types.EventOnlineUsersList {
		t.Errorf("expected online_users_list first, got %s", got.Name)
	}

	b.unregister <- c
	time.Sleep(10 * time.Millisecond)

	if b.ClientCount() != 0 {
		t.Errorf("expected 0 clients after unregister, got %d", b.ClientCount())
	}
	if b.registry.IsOnline("u1") {
		t.Error("expected u1 offline after unregister")
	}
}
