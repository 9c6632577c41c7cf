package metrics

import (
	"context"
	"time"

	"github.com/google/uuid"

	"rulekit/core"
)

// Operation label values for repository calls.
const (
	OpGetRulesByContext = "get_rules_by_context"
	OpAddContext        = "add_context"
	OpAddRule           = "add_rule"
	OpDeleteRule        = "delete_rule"
)

// Repository decorates a core.Repository with call metrics.
type Repository struct {
	next    core.Repository
	metrics *Metrics
}

// InstrumentRepository wraps next.
func InstrumentRepository(next core.Repository, m *Metrics) *Repository {
	return &Repository{next: next, metrics: m}
}

func (r *Repository) GetRulesByContext(ctx context.Context, contextID uuid.UUID) ([]core.RuleData, error) {
	start := time.Now()
	rules, err := r.next.GetRulesByContext(ctx, contextID)
	r.metrics.RecordRepositoryCall(OpGetRulesByContext, err, time.Since(start))
	return rules, err
}

func (r *Repository) AddContext(ctx context.Context, contextID uuid.UUID) error {
	start := time.Now()
	err := r.next.AddContext(ctx, contextID)
	r.metrics.RecordRepositoryCall(OpAddContext, err, time.Since(start))
	return err
}

func (r *Repository) AddRule(ctx context.Context, rule core.RuleData) error {
	start := time.Now()
	err := r.next.AddRule(ctx, rule)
	r.metrics.RecordRepositoryCall(OpAddRule, err, time.Since(start))
	return err
}

func (r *Repository) DeleteRule(ctx context.Context, ruleID uuid.UUID) error {
	start := time.Now()
	err := r.next.DeleteRule(ctx, ruleID)
	r.metrics.RecordRepositoryCall(OpDeleteRule, err, time.Since(start))
	return err
}

var _ core.Repository = (*Repository)(nil)
