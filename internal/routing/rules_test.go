package routing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/avelkins10/kin-communications-platform-sub002/internal/types"
)

type fakeRuleSource struct {
	rules []types.RoutingRule
	err   error
}

func (f *fakeRuleSource) GetEnabledRules(ctx context.Context) ([]types.RoutingRule, error) {
	return f.rules, f.err
}

func evalRules(t *testing.T, rules []types.RoutingRule, attrs types.TaskAttributes, rctx RuleContext) RuleOutcome {
	t.Helper()
	engine := NewRuleEngine(&fakeRuleSource{rules: rules}, zerolog.Nop())
	return engine.Evaluate(context.Background(), attrs, rctx)
}

func TestEvaluateSourceError(t *testing.T) {
	engine := NewRuleEngine(&fakeRuleSource{err: errors.New("down")}, zerolog.Nop())
	outcome := engine.Evaluate(context.Background(), types.TaskAttributes{}, RuleContext{})
	if outcome.Matched {
		t.Error("expected no match when rule source fails")
	}
}

func TestEvaluateHighestPriorityWins(t *testing.T) {
	keywordCond := types.RuleCondition{
		Type:     types.ConditionKeyword,
		Operator: types.OpContains,
		Value:    "gas",
	}
	rules := []types.RoutingRule{
		{ID: "low", Priority: 1, Enabled: true, Conditions: []types.RuleCondition{keywordCond}},
		{ID: "high", Priority: 10, Enabled: true, Conditions: []types.RuleCondition{keywordCond}},
		{ID: "mid", Priority: 5, Enabled: true, Conditions: []types.RuleCondition{keywordCond}},
	}

	outcome := evalRules(t, rules, types.TaskAttributes{}, RuleContext{Keywords: []string{"gas"}})
	if !outcome.Matched || outcome.Rule.ID != "high" {
		t.Fatalf("outcome = %+v, want rule high", outcome)
	}
}

func TestEvaluateSkipsDisabled(t *testing.T) {
	rules := []types.RoutingRule{
		{ID: "off", Priority: 10, Enabled: false, Conditions: []types.RuleCondition{
			{Type: types.ConditionPhone, Operator: types.OpEquals, Value: "+15551234567"},
		}},
	}
	outcome := evalRules(t, rules, types.TaskAttributes{}, RuleContext{PhoneNumber: "+15551234567"})
	if outcome.Matched {
		t.Error("disabled rule must not match")
	}
}

func TestEvaluateAllConditionsMustHold(t *testing.T) {
	rule := types.RoutingRule{ID: "r1", Priority: 1, Enabled: true, Conditions: []types.RuleCondition{
		{Type: types.ConditionDepartment, Operator: types.OpEquals, Value: "billing"},
		{Type: types.ConditionPriority, Operator: types.OpEquals, Value: "urgent"},
	}}

	attrs := types.TaskAttributes{Department: "billing", Priority: types.PriorityNormal}
	if evalRules(t, []types.RoutingRule{rule}, attrs, RuleContext{}).Matched {
		t.Error("rule matched with one failing condition")
	}

	attrs.Priority = types.PriorityUrgent
	if !evalRules(t, []types.RoutingRule{rule}, attrs, RuleContext{}).Matched {
		t.Error("rule should match when all conditions hold")
	}
}

func TestEvaluateNoConditionsNeverMatches(t *testing.T) {
	rule := types.RoutingRule{ID: "empty", Priority: 1, Enabled: true}
	if evalRules(t, []types.RoutingRule{rule}, types.TaskAttributes{}, RuleContext{}).Matched {
		t.Error("rule without conditions must not match")
	}
}

func TestConditionTypes(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	rctx := RuleContext{
		Keywords:    []string{"gas", "emergency"},
		PhoneNumber: "+15551234567",
		Now:         now,
		Customer: CustomerResult{
			Found:              true,
			CustomerID:         "C1",
			ProjectCoordinator: "worker-7",
			Attributes:         map[string]any{"region": "west"},
		},
	}
	attrs := types.TaskAttributes{
		Department: "utilities",
		Priority:   types.PriorityHigh,
		Extra:      map[string]any{"channel": "voice"},
	}

	tests := []struct {
		name string
		cond types.RuleCondition
		want bool
	}{
		{"keyword contains", types.RuleCondition{Type: types.ConditionKeyword, Operator: types.OpContains, Value: "gas"}, true},
		{"keyword missing", types.RuleCondition{Type: types.ConditionKeyword, Operator: types.OpContains, Value: "billing"}, false},
		{"time between", types.RuleCondition{Type: types.ConditionTime, Operator: types.OpBetween, Value: []any{"09:00", "17:00"}}, true},
		{"time greater than", types.RuleCondition{Type: types.ConditionTime, Operator: types.OpGreaterThan, Value: "15:00"}, false},
		{"customer id equals", types.RuleCondition{Type: types.ConditionCustomer, Operator: types.OpEquals, Value: "C1"}, true},
		{"customer coordinator field", types.RuleCondition{Type: types.ConditionCustomer, Operator: types.OpEquals, Field: "project_coordinator", Value: "worker-7"}, true},
		{"customer attribute field", types.RuleCondition{Type: types.ConditionCustomer, Operator: types.OpEquals, Field: "region", Value: "west"}, true},
		{"phone starts with", types.RuleCondition{Type: types.ConditionPhone, Operator: types.OpStartsWith, Value: "+1555"}, true},
		{"phone regex", types.RuleCondition{Type: types.ConditionPhone, Operator: types.OpRegex, Value: `^\+1555\d{7}$`}, true},
		{"bad regex is false", types.RuleCondition{Type: types.ConditionPhone, Operator: types.OpRegex, Value: "("}, false},
		{"department in", types.RuleCondition{Type: types.ConditionDepartment, Operator: types.OpIn, Value: []any{"utilities", "emergency"}}, true},
		{"department not in", types.RuleCondition{Type: types.ConditionDepartment, Operator: types.OpNotIn, Value: []any{"billing"}}, true},
		{"priority equals", types.RuleCondition{Type: types.ConditionPriority, Operator: types.OpEquals, Value: "high"}, true},
		{"attribute equals", types.RuleCondition{Type: types.ConditionAttribute, Operator: types.OpEquals, Field: "channel", Value: "voice"}, true},
		{"attribute missing", types.RuleCondition{Type: types.ConditionAttribute, Operator: types.OpEquals, Field: "missing", Value: "x"}, false},
		{"attribute ends with", types.RuleCondition{Type: types.ConditionAttribute, Operator: types.OpEndsWith, Field: "channel", Value: "ice"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := types.RoutingRule{ID: "r", Priority: 1, Enabled: true, Conditions: []types.RuleCondition{tt.cond}}
			got := evalRules(t, []types.RoutingRule{rule}, attrs, rctx).Matched
			if got != tt.want {
				t.Errorf("matched = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNumericComparison(t *testing.T) {
	attrs := types.TaskAttributes{Extra: map[string]any{"wait_minutes": 12.0}}
	rule := func(op types.RuleOperator, value any) types.RoutingRule {
		return types.RoutingRule{ID: "r", Priority: 1, Enabled: true, Conditions: []types.RuleCondition{
			{Type: types.ConditionAttribute, Operator: op, Field: "wait_minutes", Value: value},
		}}
	}

	if !evalRules(t, []types.RoutingRule{rule(types.OpGreaterThan, 10)}, attrs, RuleContext{}).Matched {
		t.Error("12 > 10 should match")
	}
	if evalRules(t, []types.RoutingRule{rule(types.OpLessThan, 10)}, attrs, RuleContext{}).Matched {
		t.Error("12 < 10 should not match")
	}
	if !evalRules(t, []types.RoutingRule{rule(types.OpBetween, []any{10, 15})}, attrs, RuleContext{}).Matched {
		t.Error("12 between 10 and 15 should match")
	}
}
