package routing

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/avelkins10/kin-communications-platform-sub002/internal/metrics"
	"github.com/avelkins10/kin-communications-platform-sub002/internal/types"
)

// RuleSource provides the enabled routing rules, freshly loaded per
// evaluation so rule changes take effect without restarts.
type RuleSource interface {
	GetEnabledRules(ctx context.Context) ([]types.RoutingRule, error)
}

// RuleContext carries the evaluation inputs gathered by the earlier
// pipeline stages.
type RuleContext struct {
	Keywords    []string
	Customer    CustomerResult
	PhoneNumber string
	Now         time.Time
}

// RuleOutcome reports the first matching rule, if any
type RuleOutcome struct {
	Matched bool
	Rule    *types.RoutingRule
}

// RuleEngine evaluates routing rules against a contact. Rules sort by
// descending priority; the first rule whose conditions all hold wins.
type RuleEngine struct {
	source RuleSource
	logger zerolog.Logger
}

func NewRuleEngine(source RuleSource, logger zerolog.Logger) *RuleEngine {
	return &RuleEngine{
		source: source,
		logger: logger.With().Str("component", "rule_engine").Logger(),
	}
}

// Evaluate finds the highest-priority matching rule. A failing rule
// source is treated as an empty rule set; rules never break routing.
func (e *RuleEngine) Evaluate(ctx context.Context, attrs types.TaskAttributes, rctx RuleContext) RuleOutcome {
	if e.source == nil {
		return RuleOutcome{}
	}

	rules, err := e.source.GetEnabledRules(ctx)
	if err != nil {
		e.logger.Error().Err(err).Msg("rule load failed, routing without rules")
		return RuleOutcome{}
	}

	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority > rules[j].Priority
	})

	for i := range rules {
		rule := &rules[i]
		if !rule.Enabled {
			continue
		}
		if e.matches(rule, attrs, rctx) {
			metrics.Get().RecordRuleMatch()
			e.logger.Debug().Str("rule_id", rule.ID).Str("rule_name", rule.Name).Msg("rule matched")
			return RuleOutcome{Matched: true, Rule: rule}
		}
	}
	return RuleOutcome{}
}

// matches requires every condition of the rule to hold
func (e *RuleEngine) matches(rule *types.RoutingRule, attrs types.TaskAttributes, rctx RuleContext) bool {
	if len(rule.Conditions) == 0 {
		return false
	}
	for _, cond := range rule.Conditions {
		if !e.evalCondition(cond, attrs, rctx) {
			return false
		}
	}
	return true
}

func (e *RuleEngine) evalCondition(cond types.RuleCondition, attrs types.TaskAttributes, rctx RuleContext) bool {
	var resolved any
	switch cond.Type {
	case types.ConditionKeyword:
		resolved = rctx.Keywords
	case types.ConditionTime:
		resolved = rctx.Now.Format("15:04")
	case types.ConditionCustomer:
		resolved = resolveCustomerField(rctx.Customer, cond.Field)
	case types.ConditionPhone:
		resolved = rctx.PhoneNumber
	case types.ConditionDepartment:
		resolved = attrs.Department
	case types.ConditionPriority:
		resolved = string(attrs.Priority)
	case types.ConditionAttribute:
		v, ok := attrs.Field(cond.Field)
		if !ok {
			return false
		}
		resolved = v
	default:
		e.logger.Warn().Str("type", string(cond.Type)).Msg("unknown condition type")
		return false
	}
	return evalOperator(cond.Operator, resolved, cond.Value)
}

func resolveCustomerField(customer CustomerResult, field string) any {
	switch field {
	case "", "customer_id", "id":
		return customer.CustomerID
	case "name":
		return customer.Name
	case "department":
		return customer.Department
	case "project_coordinator":
		return customer.ProjectCoordinator
	case "priority":
		return string(customer.Priority)
	}
	if customer.Attributes != nil {
		return customer.Attributes[field]
	}
	return nil
}

func evalOperator(op types.RuleOperator, resolved, expected any) bool {
	switch op {
	case types.OpEquals:
		return stringify(resolved) == stringify(expected)
	case types.OpContains:
		if list, ok := asStringList(resolved); ok {
			want := stringify(expected)
			for _, item := range list {
				if item == want {
					return true
				}
			}
			return false
		}
		return strings.Contains(stringify(resolved), stringify(expected))
	case types.OpStartsWith:
		return strings.HasPrefix(stringify(resolved), stringify(expected))
	case types.OpEndsWith:
		return strings.HasSuffix(stringify(resolved), stringify(expected))
	case types.OpRegex:
		re, err := regexp.Compile(stringify(expected))
		if err != nil {
			return false
		}
		return re.MatchString(stringify(resolved))
	case types.OpIn:
		return valueIn(resolved, expected)
	case types.OpNotIn:
		return !valueIn(resolved, expected)
	case types.OpGreaterThan:
		return compare(resolved, expected) > 0
	case types.OpLessThan:
		return compare(resolved, expected) < 0
	case types.OpBetween:
		bounds, ok := asList(expected)
		if !ok || len(bounds) != 2 {
			return false
		}
		return compare(resolved, bounds[0]) >= 0 && compare(resolved, bounds[1]) <= 0
	}
	return false
}

// valueIn checks membership of resolved (or any element of it) in the
// expected list
func valueIn(resolved, expected any) bool {
	list, ok := asList(expected)
	if !ok {
		return false
	}
	candidates, isList := asStringList(resolved)
	if !isList {
		candidates = []string{stringify(resolved)}
	}
	for _, item := range list {
		want := stringify(item)
		for _, candidate := range candidates {
			if candidate == want {
				return true
			}
		}
	}
	return false
}

// compare orders two values numerically when both parse as numbers,
// lexicographically otherwise. Lexicographic order is what makes
// zero-padded "HH:MM" time comparisons work.
func compare(a, b any) int {
	fa, aok := asFloat(a)
	fb, bok := asFloat(b)
	if aok && bok {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(stringify(a), stringify(b))
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

func asList(v any) ([]any, bool) {
	switch list := v.(type) {
	case []any:
		return list, true
	case []string:
		out := make([]any, len(list))
		for i, s := range list {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

func asStringList(v any) ([]string, bool) {
	switch list := v.(type) {
	case []string:
		return list, true
	case []any:
		out := make([]string, len(list))
		for i, item := range list {
			out[i] = stringify(item)
		}
		return out, true
	}
	return nil, false
}

func stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	}
	return fmt.Sprintf("%v", v)
}
