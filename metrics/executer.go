package metrics

import (
	"time"

	"github.com/google/uuid"

	"rulekit/core"
)

// Executer decorates a core.RuleExecuter with evaluation metrics and keeps
// the rule gauge current.
type Executer[F, O any] struct {
	next    core.RuleExecuter[F, O]
	metrics *Metrics
}

// InstrumentExecuter wraps next and sets the rule gauge to its current size.
func InstrumentExecuter[F, O any](next core.RuleExecuter[F, O], m *Metrics) *Executer[F, O] {
	m.SetRuleCount(next.RuleCount())
	return &Executer[F, O]{next: next, metrics: m}
}

func (e *Executer[F, O]) RuleCount() int { return e.next.RuleCount() }

func (e *Executer[F, O]) AddRule(rule core.Rule[F, O]) uuid.UUID {
	id := e.next.AddRule(rule)
	e.metrics.SetRuleCount(e.next.RuleCount())
	return id
}

func (e *Executer[F, O]) AddRuleWithID(id uuid.UUID, rule core.Rule[F, O]) uuid.UUID {
	id = e.next.AddRuleWithID(id, rule)
	e.metrics.SetRuleCount(e.next.RuleCount())
	return id
}

func (e *Executer[F, O]) GetRule(id uuid.UUID) (core.Rule[F, O], error) {
	return e.next.GetRule(id)
}

func (e *Executer[F, O]) DeleteRule(id uuid.UUID) {
	e.next.DeleteRule(id)
	e.metrics.SetRuleCount(e.next.RuleCount())
}

func (e *Executer[F, O]) ExecuteFact(fact F) (O, bool) {
	start := time.Now()
	out, matched := e.next.ExecuteFact(fact)
	e.metrics.RecordEvaluation(matched, time.Since(start))
	return out, matched
}

var _ core.RuleExecuter[struct{}, struct{}] = (*Executer[struct{}, struct{}])(nil)
