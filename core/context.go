package core

import (
	"context"

	"github.com/google/uuid"
)

// RuleContext binds one executer to a repository so that rules added or
// deleted through it are also persisted.
//
// Mutations are two-phase and not atomic: the executer is changed first,
// then the repository call is made. If the repository call fails the
// executer keeps the change and a *RepositoryError is returned; the caller
// decides how to reconcile. A rule added in memory is visible to
// ExecuteFact before it is durable.
type RuleContext[F, O any] struct {
	id       uuid.UUID
	executer RuleExecuter[F, O]
	repo     Repository
	factory  TemplateFactory[F, O]
	logger   Logger
}

// ContextOption configures a RuleContext.
type ContextOption func(*contextOptions)

type contextOptions struct {
	logger Logger
}

// WithLogger sets the logger used by the context.
func WithLogger(logger Logger) ContextOption {
	return func(o *contextOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// CreateContext registers a new context with a generated id and returns it
// with the given executer, which is expected to be empty.
func CreateContext[F, O any](ctx context.Context, executer RuleExecuter[F, O], repo Repository, factory TemplateFactory[F, O], opts ...ContextOption) (*RuleContext[F, O], error) {
	return CreateContextWithID(ctx, uuid.New(), executer, repo, factory, opts...)
}

// CreateContextWithID registers a new context under a caller-supplied id.
func CreateContextWithID[F, O any](ctx context.Context, contextID uuid.UUID, executer RuleExecuter[F, O], repo Repository, factory TemplateFactory[F, O], opts ...ContextOption) (*RuleContext[F, O], error) {
	rc, err := newRuleContext(contextID, executer, repo, factory, opts)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if n := executer.RuleCount(); n > 0 {
		rc.logger.Warn("Creating context %s over an executer that already holds %d rules", contextID, n)
	}

	if err := repo.AddContext(ctx, contextID); err != nil {
		rc.logger.Error("Adding context %s failed: %v", contextID, err)
		return nil, &RepositoryError{Op: "add context", ContextID: contextID, Err: err}
	}

	rc.logger.Info("Created context %s", contextID)
	return rc, nil
}

// LoadContext rebuilds an existing context from the repository. Every
// persisted rule is reconstructed through factory and registered under its
// original id, in the order the repository returns them.
//
// On failure the executer may already hold some of the rules; treat it as
// unusable rather than partially loaded.
func LoadContext[F, O any](ctx context.Context, contextID uuid.UUID, executer RuleExecuter[F, O], repo Repository, factory TemplateFactory[F, O], opts ...ContextOption) (*RuleContext[F, O], error) {
	rc, err := newRuleContext(contextID, executer, repo, factory, opts)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records, err := repo.GetRulesByContext(ctx, contextID)
	if err != nil {
		rc.logger.Error("Reading rules of context %s failed: %v", contextID, err)
		return nil, &RepositoryError{Op: "get rules by context", ContextID: contextID, Err: err}
	}

	for _, record := range records {
		if err := validateLoadedRule(record, contextID); err != nil {
			rc.logger.Error("Invalid rule record in context %s: %v", contextID, err)
			return nil, err
		}

		template, err := buildTemplate(factory, record.ID, record.ConditionType, record.ConditionData, record.ConsequenceType, record.ConsequenceData)
		if err != nil {
			rc.logger.Error("Rebuilding rule %s failed: %v", record.ID, err)
			return nil, err
		}

		executer.AddRuleWithID(record.ID, template.Rule())
	}

	rc.logger.Info("Loaded context %s with %d rules", contextID, len(records))
	return rc, nil
}

func newRuleContext[F, O any](contextID uuid.UUID, executer RuleExecuter[F, O], repo Repository, factory TemplateFactory[F, O], opts []ContextOption) (*RuleContext[F, O], error) {
	if err := ValidateContextID(contextID); err != nil {
		return nil, err
	}
	if executer == nil {
		return nil, ErrNilExecuter
	}
	if repo == nil {
		return nil, ErrNilRepository
	}
	if factory == nil {
		return nil, ErrNilFactory
	}

	options := contextOptions{logger: &DefaultLogger{}}
	for _, opt := range opts {
		opt(&options)
	}

	return &RuleContext[F, O]{
		id:       contextID,
		executer: executer,
		repo:     repo,
		factory:  factory,
		logger:   options.logger,
	}, nil
}

// ID returns the context id.
func (rc *RuleContext[F, O]) ID() uuid.UUID { return rc.id }

// Executer returns the executer owned by the context.
func (rc *RuleContext[F, O]) Executer() RuleExecuter[F, O] { return rc.executer }

// ExecuteFact evaluates fact against the context's rules.
func (rc *RuleContext[F, O]) ExecuteFact(fact F) (O, bool) {
	return rc.executer.ExecuteFact(fact)
}

// AddRule builds a rule through the factory, registers it in the executer
// under a new id and persists the equivalent RuleData.
//
// Factory failures leave both the executer and the repository untouched.
// A repository failure leaves the rule in the executer; the returned
// *RepositoryError carries its id.
func (rc *RuleContext[F, O]) AddRule(ctx context.Context, conditionType int32, conditionData string, consequenceType int32, consequenceData string) (uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return uuid.Nil, err
	}

	template, err := buildTemplate(rc.factory, uuid.Nil, conditionType, conditionData, consequenceType, consequenceData)
	if err != nil {
		rc.logger.Error("Building rule for context %s failed: %v", rc.id, err)
		return uuid.Nil, err
	}

	ruleID := rc.executer.AddRule(template.Rule())

	record := RuleData{
		ID:              ruleID,
		ContextID:       rc.id,
		ConditionType:   conditionType,
		ConditionData:   conditionData,
		ConsequenceType: consequenceType,
		ConsequenceData: consequenceData,
	}

	if err := rc.repo.AddRule(ctx, record); err != nil {
		rc.logger.Error("Persisting rule %s failed, executer and repository diverge: %v", ruleID, err)
		return uuid.Nil, &RepositoryError{Op: "add rule", ContextID: rc.id, RuleID: ruleID, Err: err}
	}

	rc.logger.Debug("Added rule %s to context %s", ruleID, rc.id)
	return ruleID, nil
}

// DeleteRule removes the rule from the executer, then from the repository.
// A repository failure leaves the rule removed from the executer only.
func (rc *RuleContext[F, O]) DeleteRule(ctx context.Context, ruleID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rc.executer.DeleteRule(ruleID)

	if err := rc.repo.DeleteRule(ctx, ruleID); err != nil {
		rc.logger.Error("Deleting rule %s from repository failed, executer and repository diverge: %v", ruleID, err)
		return &RepositoryError{Op: "delete rule", ContextID: rc.id, RuleID: ruleID, Err: err}
	}

	rc.logger.Debug("Deleted rule %s from context %s", ruleID, rc.id)
	return nil
}
