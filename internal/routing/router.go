package routing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/avelkins10/kin-communications-platform-sub002/internal/config"
	"github.com/avelkins10/kin-communications-platform-sub002/internal/metrics"
	"github.com/avelkins10/kin-communications-platform-sub002/internal/telephony"
	"github.com/avelkins10/kin-communications-platform-sub002/internal/types"
)

// Priority floors applied by the orchestrator on top of the symbolic
// priority score.
const (
	coordinatorPriorityFloor = 85
	afterHoursPriorityFloor  = 75
)

// RecordStore persists the audit trail of routing decisions
type RecordStore interface {
	SaveRoutingRecord(ctx context.Context, record types.RoutingRecord) error
}

// Router runs the routing pipeline for inbound contacts. Every stage
// degrades on failure; a decision is always produced.
type Router struct {
	cfg       *config.Config
	customers *CustomerAdapter
	hours     *HoursEvaluator
	skills    *SkillsMatcher
	rules     *RuleEngine
	tasks     telephony.TaskService
	records   RecordStore
	logger    zerolog.Logger
	now       func() time.Time
}

func NewRouter(
	cfg *config.Config,
	customers *CustomerAdapter,
	hours *HoursEvaluator,
	skills *SkillsMatcher,
	rules *RuleEngine,
	tasks telephony.TaskService,
	records RecordStore,
	logger zerolog.Logger,
) *Router {
	return &Router{
		cfg:       cfg,
		customers: customers,
		hours:     hours,
		skills:    skills,
		rules:     rules,
		tasks:     tasks,
		records:   records,
		logger:    logger.With().Str("component", "router").Logger(),
		now:       time.Now,
	}
}

// RouteTask takes an inbound contact through classification, enrichment,
// queue selection, calendar and rule evaluation, then commits the task.
// It never returns an error: if the whole pipeline blows up, the contact
// goes to the default queue at priority 50 with its original attributes.
func (r *Router) RouteTask(ctx context.Context, attrs types.TaskAttributes, contact types.ContactContext) (decision types.RoutingDecision) {
	original := attrs.Clone()
	defer func() {
		if rec := recover(); rec != nil {
			metrics.Get().RecordRoutingFallback()
			r.logger.Error().Interface("panic", rec).Msg("routing pipeline panicked, using default queue")
			decision = types.RoutingDecision{
				TaskQueueSid: r.cfg.DefaultQueueSid,
				WorkflowSid:  r.cfg.DefaultWorkflowSid,
				Priority:     types.PriorityNormal.Score(),
				Attributes:   original,
			}
		}
	}()

	attrs = attrs.Clone()
	now := r.now()

	// Keyword classification runs first so its department seeds the
	// later stages. It never overwrites a department the caller set.
	classified := ClassifyText(contact.Text)
	if len(classified.Keywords) > 0 {
		attrs.SetExtra("detected_keywords", classified.Keywords)
		attrs.SetExtra("keyword_confidence", classified.Confidence)
		if attrs.Department == "" {
			attrs.Department = classified.Department
		}
		attrs.Priority = types.MaxPriority(attrs.Priority, classified.Priority)
	}

	// CRM enrichment fills only fields still empty.
	var customer CustomerResult
	if r.customers != nil {
		customer = r.customers.Lookup(ctx, contact.PhoneNumber)
	}
	if customer.Found {
		if attrs.CustomerID == "" {
			attrs.CustomerID = customer.CustomerID
		}
		if attrs.Department == "" {
			attrs.Department = customer.Department
		}
		if customer.Name != "" {
			attrs.SetExtra("customer_name", customer.Name)
		}
		attrs.Priority = types.MaxPriority(attrs.Priority, customer.Priority)
	}

	// Suggested worker from the skills matcher, advisory only.
	if r.skills != nil && len(attrs.Skills) > 0 {
		match := r.skills.Match(ctx, attrs.Skills)
		if match.BestMatch != nil {
			attrs.SetExtra("suggested_worker", match.BestMatch.ID)
			attrs.SetExtra("skills_confidence", match.Confidence)
		}
	}

	priority := attrs.Priority.Score()

	if customer.Found && customer.ProjectCoordinator != "" {
		if priority < coordinatorPriorityFloor {
			priority = coordinatorPriorityFloor
		}
		attrs.SetExtra("routing_type", "project_coordinator")
		attrs.SetExtra("project_coordinator", customer.ProjectCoordinator)
	}

	queueSid := r.cfg.DefaultQueueSid
	if sid, ok := r.cfg.QueueMap[attrs.Department]; ok {
		queueSid = sid
	}

	var verdict TimeVerdict
	if r.hours != nil {
		verdict = r.hours.Evaluate(now)
		if !verdict.InHours() {
			if priority < afterHoursPriorityFloor {
				priority = afterHoursPriorityFloor
			}
			attrs.SetExtra("after_hours", true)
			attrs.SetExtra("after_hours_action", string(verdict.Action))
			if verdict.TransferTarget != "" {
				attrs.SetExtra("after_hours_transfer", verdict.TransferTarget)
			}
		}
	}

	// Rules override everything computed so far. Only the first action
	// of the winning rule applies.
	matchedRule := ""
	if r.rules != nil {
		ruleNow := now
		if r.hours != nil {
			ruleNow = now.In(r.hours.location)
		}
		outcome := r.rules.Evaluate(ctx, attrs, RuleContext{
			Keywords:    classified.Keywords,
			Customer:    customer,
			PhoneNumber: contact.PhoneNumber,
			Now:         ruleNow,
		})
		if outcome.Matched && len(outcome.Rule.Actions) > 0 {
			action := outcome.Rule.Actions[0]
			matchedRule = outcome.Rule.ID
			if action.Queue != "" {
				queueSid = action.Queue
			}
			if action.Priority != nil {
				priority = *action.Priority
			}
			for k, v := range action.Attributes {
				attrs.SetExtra(k, v)
			}
			attrs.SetExtra("matched_rule", matchedRule)
		}
	}

	decision = types.RoutingDecision{
		TaskQueueSid: queueSid,
		WorkflowSid:  r.cfg.DefaultWorkflowSid,
		Priority:     priority,
		Attributes:   attrs,
	}

	r.commitTask(ctx, &decision)
	r.saveRecord(contact, decision, matchedRule, now)

	metrics.Get().RecordRoutingDecision()
	r.logger.Info().
		Str("queue", decision.TaskQueueSid).
		Int("priority", decision.Priority).
		Str("department", attrs.Department).
		Str("matched_rule", matchedRule).
		Str("task_sid", decision.TaskSid).
		Msg("routing decision")

	return decision
}

// commitTask pushes the decision to the task queue provider with a hard
// deadline. Commit failure leaves TaskSid empty; the decision stands.
func (r *Router) commitTask(ctx context.Context, decision *types.RoutingDecision) {
	if r.tasks == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.TaskTimeout)
	defer cancel()

	result, err := r.tasks.CreateTask(ctx, telephony.TaskRequest{
		TaskQueueSid: decision.TaskQueueSid,
		WorkflowSid:  decision.WorkflowSid,
		Priority:     decision.Priority,
		Attributes:   decision.Attributes,
	})
	if err != nil {
		metrics.Get().RecordTaskCommitFailure()
		r.logger.Error().Err(err).Str("queue", decision.TaskQueueSid).Msg("task commit failed")
		return
	}
	decision.TaskSid = result.TaskSid
	decision.TaskID = result.TaskID
}

// saveRecord persists the audit trail without blocking the caller
func (r *Router) saveRecord(contact types.ContactContext, decision types.RoutingDecision, matchedRule string, now time.Time) {
	if r.records == nil {
		return
	}

	record := types.RoutingRecord{
		DateKey:      now.UTC().Format("2006-01-02"),
		ContactID:    contactID(contact),
		Channel:      contactChannel(contact),
		PhoneNumber:  contact.PhoneNumber,
		Department:   decision.Attributes.Department,
		TaskQueueSid: decision.TaskQueueSid,
		Priority:     decision.Priority,
		MatchedRule:  matchedRule,
		TaskSid:      decision.TaskSid,
		RoutedAt:     now.UTC().Format(types.RoutedAtFormat),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.records.SaveRoutingRecord(ctx, record); err != nil {
			r.logger.Error().Err(err).Str("contact_id", record.ContactID).Msg("failed to save routing record")
		}
	}()
}

func contactID(contact types.ContactContext) string {
	switch {
	case contact.CallID != "":
		return contact.CallID
	case contact.MessageID != "":
		return contact.MessageID
	case contact.CallSid != "":
		return contact.CallSid
	case contact.MessageSid != "":
		return contact.MessageSid
	}
	return uuid.New().String()
}

func contactChannel(contact types.ContactContext) string {
	if contact.CallSid != "" || contact.CallID != "" {
		return "voice"
	}
	if contact.MessageSid != "" || contact.MessageID != "" {
		return "sms"
	}
	return "unknown"
}
