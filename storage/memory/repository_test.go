package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rulekit/core"
)

func record(contextID uuid.UUID, data string) core.RuleData {
	return core.RuleData{
		ID:              uuid.New(),
		ContextID:       contextID,
		ConditionType:   1,
		ConditionData:   data,
		ConsequenceType: 2,
		ConsequenceData: data,
	}
}

func TestRepository_RoundTripKeepsOrder(t *testing.T) {
	ctx := context.Background()
	repo := New()
	contextID := uuid.New()
	require.NoError(t, repo.AddContext(ctx, contextID))

	first := record(contextID, "a")
	second := record(contextID, "b")
	third := record(contextID, "c")
	for _, r := range []core.RuleData{first, second, third} {
		require.NoError(t, repo.AddRule(ctx, r))
	}

	rules, err := repo.GetRulesByContext(ctx, contextID)
	require.NoError(t, err)
	assert.Equal(t, []core.RuleData{first, second, third}, rules)
}

func TestRepository_EmptyContext(t *testing.T) {
	ctx := context.Background()
	repo := New()
	contextID := uuid.New()
	require.NoError(t, repo.AddContext(ctx, contextID))

	rules, err := repo.GetRulesByContext(ctx, contextID)
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestRepository_UnknownContext(t *testing.T) {
	ctx := context.Background()
	repo := New()

	_, err := repo.GetRulesByContext(ctx, uuid.New())
	assert.ErrorIs(t, err, core.ErrContextNotFound)

	err = repo.AddRule(ctx, record(uuid.New(), "x"))
	assert.ErrorIs(t, err, core.ErrContextNotFound)
}

func TestRepository_Duplicates(t *testing.T) {
	ctx := context.Background()
	repo := New()
	contextID := uuid.New()
	require.NoError(t, repo.AddContext(ctx, contextID))
	assert.ErrorIs(t, repo.AddContext(ctx, contextID), core.ErrContextExists)

	r := record(contextID, "a")
	require.NoError(t, repo.AddRule(ctx, r))
	assert.ErrorIs(t, repo.AddRule(ctx, r), core.ErrRuleExists)
}

func TestRepository_RejectsInvalidRecords(t *testing.T) {
	ctx := context.Background()
	repo := New()

	assert.ErrorIs(t, repo.AddContext(ctx, uuid.Nil), core.ErrInvalidRecord)
	assert.ErrorIs(t, repo.AddRule(ctx, core.RuleData{ContextID: uuid.New()}), core.ErrInvalidRecord)
}

func TestRepository_DeleteRule(t *testing.T) {
	ctx := context.Background()
	repo := New()
	contextID := uuid.New()
	require.NoError(t, repo.AddContext(ctx, contextID))

	first := record(contextID, "a")
	second := record(contextID, "b")
	require.NoError(t, repo.AddRule(ctx, first))
	require.NoError(t, repo.AddRule(ctx, second))

	require.NoError(t, repo.DeleteRule(ctx, first.ID))
	require.NoError(t, repo.DeleteRule(ctx, uuid.New()), "deleting an absent rule is not an error")

	rules, err := repo.GetRulesByContext(ctx, contextID)
	require.NoError(t, err)
	assert.Equal(t, []core.RuleData{second}, rules)
	assert.Equal(t, 1, repo.RuleCount())
}

func TestRepository_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	repo := New()

	assert.ErrorIs(t, repo.AddContext(ctx, uuid.New()), context.Canceled)
}

func TestRepository_BacksRuleContext(t *testing.T) {
	ctx := context.Background()
	repo := New()
	factory := constFactory{}

	rc, err := core.CreateContext[int, string](ctx, core.NewExecuter[int, string](), repo, factory)
	require.NoError(t, err)
	id, err := rc.AddRule(ctx, 0, "7", 0, "seven")
	require.NoError(t, err)

	loaded, err := core.LoadContext[int, string](ctx, rc.ID(), core.NewExecuter[int, string](), repo, factory)
	require.NoError(t, err)
	_, err = loaded.Executer().GetRule(id)
	require.NoError(t, err)

	out, ok := loaded.ExecuteFact(7)
	assert.True(t, ok)
	assert.Equal(t, "seven", out)
}

// constFactory matches facts equal to the decimal condition data and returns
// the consequence data verbatim.
type constFactory struct{}

func (constFactory) CreateCondition(_ int32, data string) (core.Condition[int], error) {
	var n int
	if _, err := fmt.Sscanf(data, "%d", &n); err != nil {
		return nil, err
	}
	return core.ConditionFunc[int](func(f int) bool { return f == n }), nil
}

func (constFactory) CreateConsequence(_ int32, data string) (core.Consequence[int, string], error) {
	return core.ConsequenceFunc[int, string](func(int) string { return data }), nil
}
