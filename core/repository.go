package core

import (
	"context"

	"github.com/google/uuid"
)

// RuleData is the persisted form of a rule: the template selectors and
// payloads needed to rebuild it through a TemplateFactory.
type RuleData struct {
	ID              uuid.UUID `json:"id" yaml:"id"`
	ContextID       uuid.UUID `json:"context_id" yaml:"context_id"`
	ConditionType   int32     `json:"condition_type" yaml:"condition_type"`
	ConditionData   string    `json:"condition_data" yaml:"condition_data"`
	ConsequenceType int32     `json:"consequence_type" yaml:"consequence_type"`
	ConsequenceData string    `json:"consequence_data" yaml:"consequence_data"`
}

// Repository persists rule contexts and their rules.
// GetRulesByContext must return records in the order they were added so
// that tie-breaks survive a reload.
type Repository interface {
	GetRulesByContext(ctx context.Context, contextID uuid.UUID) ([]RuleData, error)
	AddContext(ctx context.Context, contextID uuid.UUID) error
	AddRule(ctx context.Context, rule RuleData) error
	DeleteRule(ctx context.Context, ruleID uuid.UUID) error
}
