package core_test

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"rulekit/core"
)

type sampleFact struct {
	X int
}

type sampleOutput struct {
	Value int
}

const (
	conditionEquals  int32 = 1
	conditionGreater int32 = 2

	consequenceConstant int32 = 1
	consequenceDouble   int32 = 2
)

// sampleFactory builds integer comparisons from decimal template data.
type sampleFactory struct {
	conditionErr   error
	consequenceErr error
}

func (f *sampleFactory) CreateCondition(templateType int32, templateData string) (core.Condition[sampleFact], error) {
	if f.conditionErr != nil {
		return nil, f.conditionErr
	}
	n, err := strconv.Atoi(strings.TrimSpace(templateData))
	if err != nil {
		return nil, fmt.Errorf("parse condition data: %w", err)
	}
	switch templateType {
	case conditionEquals:
		return core.ConditionFunc[sampleFact](func(f sampleFact) bool { return f.X == n }), nil
	case conditionGreater:
		return core.ConditionFunc[sampleFact](func(f sampleFact) bool { return f.X > n }), nil
	default:
		return nil, core.ErrUnknownTemplateType
	}
}

func (f *sampleFactory) CreateConsequence(templateType int32, templateData string) (core.Consequence[sampleFact, sampleOutput], error) {
	if f.consequenceErr != nil {
		return nil, f.consequenceErr
	}
	switch templateType {
	case consequenceConstant:
		n, err := strconv.Atoi(strings.TrimSpace(templateData))
		if err != nil {
			return nil, fmt.Errorf("parse consequence data: %w", err)
		}
		return core.ConsequenceFunc[sampleFact, sampleOutput](func(sampleFact) sampleOutput {
			return sampleOutput{Value: n}
		}), nil
	case consequenceDouble:
		return core.ConsequenceFunc[sampleFact, sampleOutput](func(f sampleFact) sampleOutput {
			return sampleOutput{Value: f.X * 2}
		}), nil
	default:
		return nil, core.ErrUnknownTemplateType
	}
}

// recordingRepository keeps every call it receives and can be told to fail.
type recordingRepository struct {
	mu sync.Mutex

	contexts []uuid.UUID
	added    []core.RuleData
	deleted  []uuid.UUID
	stored   map[uuid.UUID][]core.RuleData

	addContextErr error
	addRuleErr    error
	deleteRuleErr error
	getRulesErr   error
}

func newRecordingRepository() *recordingRepository {
	return &recordingRepository{stored: make(map[uuid.UUID][]core.RuleData)}
}

func (r *recordingRepository) GetRulesByContext(ctx context.Context, contextID uuid.UUID) ([]core.RuleData, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getRulesErr != nil {
		return nil, r.getRulesErr
	}
	return append([]core.RuleData(nil), r.stored[contextID]...), nil
}

func (r *recordingRepository) AddContext(ctx context.Context, contextID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contexts = append(r.contexts, contextID)
	return r.addContextErr
}

func (r *recordingRepository) AddRule(ctx context.Context, rule core.RuleData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.added = append(r.added, rule)
	if r.addRuleErr != nil {
		return r.addRuleErr
	}
	r.stored[rule.ContextID] = append(r.stored[rule.ContextID], rule)
	return nil
}

func (r *recordingRepository) DeleteRule(ctx context.Context, ruleID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, ruleID)
	return r.deleteRuleErr
}

var errStorageDown = errors.New("storage down")

func constant(n int) func(sampleFact) sampleOutput {
	return func(sampleFact) sampleOutput { return sampleOutput{Value: n} }
}

func xEquals(n int) func(sampleFact) bool {
	return func(f sampleFact) bool { return f.X == n }
}
