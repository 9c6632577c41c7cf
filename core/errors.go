// Package core provides the rule executer, prioritizer, templating and
// persisted rule contexts.
package core

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Sentinel errors for rule operations.
var (
	// ErrRuleNotFound indicates a rule id is not present in the executer.
	ErrRuleNotFound = errors.New("rule not found")

	// ErrContextNotFound indicates a repository has no context with the given id.
	ErrContextNotFound = errors.New("rule context not found")

	// ErrContextExists indicates a repository already holds the context id.
	ErrContextExists = errors.New("rule context already exists")

	// ErrRuleExists indicates a repository already holds the rule id.
	ErrRuleExists = errors.New("rule already exists")

	// ErrUnknownTemplateType indicates a factory has no algorithm for a template type.
	ErrUnknownTemplateType = errors.New("unknown template type")

	// ErrInvalidRecord indicates a persisted rule record failed validation.
	ErrInvalidRecord = errors.New("invalid rule record")

	// ErrNilExecuter indicates a context was given a nil executer.
	ErrNilExecuter = errors.New("rule executer is nil")

	// ErrNilRepository indicates a context was given a nil repository.
	ErrNilRepository = errors.New("rule repository is nil")

	// ErrNilFactory indicates a context was given a nil template factory.
	ErrNilFactory = errors.New("template factory is nil")
)

// ValidationError provides detailed validation failure information.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("validation error on %s: %s: %v", e.Field, e.Message, e.Err)
	}
	return fmt.Sprintf("validation error on %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// RepositoryError reports a failed repository call made by a RuleContext.
// When Op is an add or delete of a rule, the executer has already been
// mutated and is not rolled back; RuleID names the affected rule so the
// caller can reconcile.
type RepositoryError struct {
	Op        string
	ContextID uuid.UUID
	RuleID    uuid.UUID
	Err       error
}

func (e *RepositoryError) Error() string {
	if e.RuleID != uuid.Nil {
		return fmt.Sprintf("repository %s failed for context %s rule %s: %v", e.Op, e.ContextID, e.RuleID, e.Err)
	}
	return fmt.Sprintf("repository %s failed for context %s: %v", e.Op, e.ContextID, e.Err)
}

func (e *RepositoryError) Unwrap() error {
	return e.Err
}

// TemplateError reports a template factory failure while building a
// condition or consequence.
type TemplateError struct {
	Part         string // "condition" or "consequence"
	TemplateType int32
	RuleID       uuid.UUID
	Err          error
}

func (e *TemplateError) Error() string {
	if e.RuleID != uuid.Nil {
		return fmt.Sprintf("create %s of type %d for rule %s: %v", e.Part, e.TemplateType, e.RuleID, e.Err)
	}
	return fmt.Sprintf("create %s of type %d: %v", e.Part, e.TemplateType, e.Err)
}

func (e *TemplateError) Unwrap() error {
	return e.Err
}

// newValidationError creates a new ValidationError.
func newValidationError(field, message string, err error) *ValidationError {
	return &ValidationError{Field: field, Message: message, Err: err}
}
