package core

// Rule is a condition over a fact, a consequence producing an output and a
// priority used when several rules match the same fact.
// Rules are immutable once created; a different priority requires a new rule.
type Rule[F, O any] struct {
	condition   func(F) bool
	consequence func(F) O
	priority    int
}

// NewRule creates a rule with priority 0.
func NewRule[F, O any](condition func(F) bool, consequence func(F) O) Rule[F, O] {
	return NewRuleWithPriority(condition, consequence, 0)
}

// NewRuleWithPriority creates a rule with an explicit priority.
// Higher values win when several rules match.
func NewRuleWithPriority[F, O any](condition func(F) bool, consequence func(F) O, priority int) Rule[F, O] {
	return Rule[F, O]{
		condition:   condition,
		consequence: consequence,
		priority:    priority,
	}
}

// Condition returns the rule's predicate.
func (r Rule[F, O]) Condition() func(F) bool { return r.condition }

// Consequence returns the rule's output producer.
func (r Rule[F, O]) Consequence() func(F) O { return r.consequence }

// Priority returns the rule's priority.
func (r Rule[F, O]) Priority() int { return r.priority }

// Matches reports whether the condition holds for fact.
// A rule without a condition never matches.
func (r Rule[F, O]) Matches(fact F) bool {
	if r.condition == nil {
		return false
	}
	return r.condition(fact)
}

// Apply invokes the consequence against fact.
func (r Rule[F, O]) Apply(fact F) O {
	if r.consequence == nil {
		var zero O
		return zero
	}
	return r.consequence(fact)
}
