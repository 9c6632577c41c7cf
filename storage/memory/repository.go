// Package memory provides an in-memory rule repository.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"rulekit/core"
)

// Repository keeps contexts and rules in process memory.
// Thread-safe for concurrent use across multiple goroutines.
type Repository struct {
	contexts map[uuid.UUID][]uuid.UUID // context id -> rule ids in insertion order
	rules    map[uuid.UUID]core.RuleData
	mu       sync.RWMutex
}

// New creates an empty Repository.
func New() *Repository {
	return &Repository{
		contexts: make(map[uuid.UUID][]uuid.UUID),
		rules:    make(map[uuid.UUID]core.RuleData),
	}
}

// GetRulesByContext returns the context's rules in insertion order.
func (r *Repository) GetRulesByContext(ctx context.Context, contextID uuid.UUID) ([]core.RuleData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	ids, ok := r.contexts[contextID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrContextNotFound, contextID)
	}
	rules := make([]core.RuleData, 0, len(ids))
	for _, id := range ids {
		rules = append(rules, r.rules[id])
	}
	return rules, nil
}

// AddContext registers an empty context.
func (r *Repository) AddContext(ctx context.Context, contextID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := core.ValidateContextID(contextID); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.contexts[contextID]; ok {
		return fmt.Errorf("%w: %s", core.ErrContextExists, contextID)
	}
	r.contexts[contextID] = []uuid.UUID{}
	return nil
}

// AddRule stores a rule in an existing context.
func (r *Repository) AddRule(ctx context.Context, rule core.RuleData) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := core.ValidateRuleData(rule); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ids, ok := r.contexts[rule.ContextID]
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrContextNotFound, rule.ContextID)
	}
	if _, exists := r.rules[rule.ID]; exists {
		return fmt.Errorf("%w: %s", core.ErrRuleExists, rule.ID)
	}
	r.rules[rule.ID] = rule
	r.contexts[rule.ContextID] = append(ids, rule.ID)
	return nil
}

// DeleteRule removes a rule. Absent ids are ignored.
func (r *Repository) DeleteRule(ctx context.Context, ruleID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rule, ok := r.rules[ruleID]
	if !ok {
		return nil
	}
	delete(r.rules, ruleID)

	ids := r.contexts[rule.ContextID]
	for i, id := range ids {
		if id == ruleID {
			r.contexts[rule.ContextID] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

// RuleCount returns the number of stored rules across all contexts.
func (r *Repository) RuleCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rules)
}

var _ core.Repository = (*Repository)(nil)
