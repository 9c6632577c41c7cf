package core

import (
	"fmt"

	"github.com/google/uuid"
)

// ValidateRuleData checks that a persisted record carries both identifiers.
// Template types and payloads are owned by the factory and are not inspected.
func ValidateRuleData(rule RuleData) error {
	if rule.ID == uuid.Nil {
		return newValidationError("id", "rule id is required", ErrInvalidRecord)
	}
	if rule.ContextID == uuid.Nil {
		return newValidationError("context_id", "context id is required", ErrInvalidRecord)
	}
	return nil
}

// validateLoadedRule also requires the record to belong to contextID.
func validateLoadedRule(rule RuleData, contextID uuid.UUID) error {
	if err := ValidateRuleData(rule); err != nil {
		return err
	}
	if rule.ContextID != contextID {
		return newValidationError(
			"context_id",
			fmt.Sprintf("rule %s belongs to context %s, not %s", rule.ID, rule.ContextID, contextID),
			ErrInvalidRecord,
		)
	}
	return nil
}

// ValidateContextID rejects the nil uuid as a context id.
func ValidateContextID(contextID uuid.UUID) error {
	if contextID == uuid.Nil {
		return newValidationError("context_id", "context id is required", ErrInvalidRecord)
	}
	return nil
}
