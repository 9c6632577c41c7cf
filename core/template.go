package core

import "github.com/google/uuid"

// Condition supplies a rule predicate.
type Condition[F any] interface {
	GetCondition() func(F) bool
}

// Consequence supplies a rule output producer.
type Consequence[F, O any] interface {
	GetConsequence() func(F) O
}

// PriorityProvider is implemented by conditions whose template data carries
// a rule priority. NewTemplate uses it when present.
type PriorityProvider interface {
	Priority() int
}

// ConditionFunc adapts a predicate to the Condition interface.
type ConditionFunc[F any] func(F) bool

// GetCondition returns f.
func (f ConditionFunc[F]) GetCondition() func(F) bool { return f }

// ConsequenceFunc adapts a function to the Consequence interface.
type ConsequenceFunc[F, O any] func(F) O

// GetConsequence returns f.
func (f ConsequenceFunc[F, O]) GetConsequence() func(F) O { return f }

// TemplateFactory turns a (template type, template data) pair into a
// condition or consequence. The type selects the algorithm and the data is
// interpreted only by that algorithm.
type TemplateFactory[F, O any] interface {
	CreateCondition(templateType int32, templateData string) (Condition[F], error)
	CreateConsequence(templateType int32, templateData string) (Consequence[F, O], error)
}

// Template binds a condition and a consequence into one immutable rule.
type Template[F, O any] struct {
	condition   Condition[F]
	consequence Consequence[F, O]
	rule        Rule[F, O]
}

// NewTemplate builds a template with priority 0, or the condition's own
// priority when it implements PriorityProvider.
func NewTemplate[F, O any](condition Condition[F], consequence Consequence[F, O]) *Template[F, O] {
	priority := 0
	if p, ok := condition.(PriorityProvider); ok {
		priority = p.Priority()
	}
	return NewTemplateWithPriority(condition, consequence, priority)
}

// NewTemplateWithPriority builds a template with an explicit priority.
func NewTemplateWithPriority[F, O any](condition Condition[F], consequence Consequence[F, O], priority int) *Template[F, O] {
	var cond func(F) bool
	if condition != nil {
		cond = condition.GetCondition()
	}
	var cons func(F) O
	if consequence != nil {
		cons = consequence.GetConsequence()
	}
	return &Template[F, O]{
		condition:   condition,
		consequence: consequence,
		rule:        NewRuleWithPriority(cond, cons, priority),
	}
}

// Condition returns the bound condition capability.
func (t *Template[F, O]) Condition() Condition[F] { return t.condition }

// Consequence returns the bound consequence capability.
func (t *Template[F, O]) Consequence() Consequence[F, O] { return t.consequence }

// Rule returns the rule built at construction time.
func (t *Template[F, O]) Rule() Rule[F, O] { return t.rule }

// buildTemplate resolves both capabilities through factory. ruleID is only
// used to annotate errors and may be uuid.Nil.
func buildTemplate[F, O any](factory TemplateFactory[F, O], ruleID uuid.UUID, conditionType int32, conditionData string, consequenceType int32, consequenceData string) (*Template[F, O], error) {
	condition, err := factory.CreateCondition(conditionType, conditionData)
	if err != nil {
		return nil, &TemplateError{Part: "condition", TemplateType: conditionType, RuleID: ruleID, Err: err}
	}
	consequence, err := factory.CreateConsequence(consequenceType, consequenceData)
	if err != nil {
		return nil, &TemplateError{Part: "consequence", TemplateType: consequenceType, RuleID: ruleID, Err: err}
	}
	return NewTemplate(condition, consequence), nil
}
