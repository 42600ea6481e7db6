package types

// RuleConditionType selects what a routing-rule condition is evaluated against
type RuleConditionType string

const (
	ConditionKeyword    RuleConditionType = "keyword"
	ConditionTime       RuleConditionType = "time"
	ConditionCustomer   RuleConditionType = "customer"
	ConditionPhone      RuleConditionType = "phone"
	ConditionDepartment RuleConditionType = "department"
	ConditionPriority   RuleConditionType = "priority"
	ConditionAttribute  RuleConditionType = "attribute"
)

// RuleOperator is the comparison applied by a condition
type RuleOperator string

const (
	OpEquals      RuleOperator = "equals"
	OpContains    RuleOperator = "contains"
	OpStartsWith  RuleOperator = "starts_with"
	OpEndsWith    RuleOperator = "ends_with"
	OpRegex       RuleOperator = "regex"
	OpIn          RuleOperator = "in"
	OpNotIn       RuleOperator = "not_in"
	OpGreaterThan RuleOperator = "greater_than"
	OpLessThan    RuleOperator = "less_than"
	OpBetween     RuleOperator = "between"
)

// RuleCondition is one condition of a routing rule. All conditions of a
// rule must match (AND semantics).
type RuleCondition struct {
	Type     RuleConditionType `json:"type" dynamodbav:"Type"`
	Operator RuleOperator      `json:"operator" dynamodbav:"Operator"`
	Value    any               `json:"value" dynamodbav:"Value"`
	Field    string            `json:"field,omitempty" dynamodbav:"Field"`
}

// RuleAction describes what a matched rule does. Only the first action of
// a matched rule is ever applied by the router.
type RuleAction struct {
	Type       string         `json:"type,omitempty" dynamodbav:"Type"`
	Queue      string         `json:"queue,omitempty" dynamodbav:"Queue"`
	Priority   *int           `json:"priority,omitempty" dynamodbav:"Priority"`
	Attributes map[string]any `json:"attributes,omitempty" dynamodbav:"Attributes"`
}

// RoutingRule is a persisted admin-configured condition→action rule.
// Rules are read-only from the router's perspective and loaded fresh on
// every routing call, so edits take effect on the next inbound contact.
type RoutingRule struct {
	ID         string          `json:"ruleId" dynamodbav:"RuleID"`
	Name       string          `json:"name" dynamodbav:"Name"`
	Priority   int             `json:"priority" dynamodbav:"Priority"`
	Enabled    bool            `json:"enabled" dynamodbav:"Enabled"`
	Conditions []RuleCondition `json:"conditions" dynamodbav:"Conditions"`
	Actions    []RuleAction    `json:"actions" dynamodbav:"Actions"`
}
