package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Metrics holds all application metrics
type Metrics struct {
	mu sync.RWMutex

	// Session metrics
	SessionConnectsTotal    int64
	SessionDisconnectsTotal int64
	activeSessions          int64

	// Broadcast metrics
	BroadcastsTotal int64
	DeliveriesTotal int64

	// Routing metrics
	RoutingDecisionsTotal int64
	RuleMatchesTotal      int64
	CRMTimeoutsTotal      int64
	TaskCommitFailures    int64
	RoutingFallbacksTotal int64

	// Timing
	startTime time.Time
}

// Global metrics instance
var instance *Metrics
var once sync.Once

// Get returns the singleton metrics instance
func Get() *Metrics {
	once.Do(func() {
		instance = &Metrics{startTime: time.Now()}
	})
	return instance
}

// RecordSessionConnect increments session connect counters
func (m *Metrics) RecordSessionConnect() {
	m.mu.Lock()
	m.SessionConnectsTotal++
	m.activeSessions++
	m.mu.Unlock()
}

// RecordSessionDisconnect increments the disconnect counter
func (m *Metrics) RecordSessionDisconnect() {
	m.mu.Lock()
	m.SessionDisconnectsTotal++
	m.activeSessions--
	m.mu.Unlock()
}

// RecordBroadcast increments the broadcast counter
func (m *Metrics) RecordBroadcast() {
	m.mu.Lock()
	m.BroadcastsTotal++
	m.mu.Unlock()
}

// RecordDeliveries adds per-client deliveries of one broadcast
func (m *Metrics) RecordDeliveries(n int) {
	m.mu.Lock()
	m.DeliveriesTotal += int64(n)
	m.mu.Unlock()
}

// RecordRoutingDecision increments the routing decision counter
func (m *Metrics) RecordRoutingDecision() {
	m.mu.Lock()
	m.RoutingDecisionsTotal++
	m.mu.Unlock()
}

// RecordRuleMatch increments the rule match counter
func (m *Metrics) RecordRuleMatch() {
	m.mu.Lock()
	m.RuleMatchesTotal++
	m.mu.Unlock()
}

// RecordCRMTimeout increments the CRM timeout counter
func (m *Metrics) RecordCRMTimeout() {
	m.mu.Lock()
	m.CRMTimeoutsTotal++
	m.mu.Unlock()
}

// RecordTaskCommitFailure increments the task commit failure counter
func (m *Metrics) RecordTaskCommitFailure() {
	m.mu.Lock()
	m.TaskCommitFailures++
	m.mu.Unlock()
}

// RecordRoutingFallback increments the total-pipeline-fallback counter
func (m *Metrics) RecordRoutingFallback() {
	m.mu.Lock()
	m.RoutingFallbacksTotal++
	m.mu.Unlock()
}

// ActiveSessions returns the current connected session count
func (m *Metrics) ActiveSessions() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeSessions
}

// Handler returns an HTTP handler for the /metrics endpoint
func (m *Metrics) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.mu.RLock()
		defer m.mu.RUnlock()

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		write := func(name string, value int64) {
			w.Write([]byte(name + " " + strconv.FormatInt(value, 10) + "\n"))
		}

		w.Write([]byte("kin_uptime_seconds " + strconv.FormatFloat(time.Since(m.startTime).Seconds(), 'f', 6, 64) + "\n"))

		write("kin_session_connects_total", m.SessionConnectsTotal)
		write("kin_session_disconnects_total", m.SessionDisconnectsTotal)
		write("kin_sessions_active", m.activeSessions)

		write("kin_broadcasts_total", m.BroadcastsTotal)
		write("kin_deliveries_total", m.DeliveriesTotal)

		write("kin_routing_decisions_total", m.RoutingDecisionsTotal)
		write("kin_rule_matches_total", m.RuleMatchesTotal)
		write("kin_crm_timeouts_total", m.CRMTimeoutsTotal)
		write("kin_task_commit_failures_total", m.TaskCommitFailures)
		write("kin_routing_fallbacks_total", m.RoutingFallbacksTotal)
	}
}
