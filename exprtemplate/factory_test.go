package exprtemplate

import (
	"context"
	"fmt"
	"testing"

	"github.com/expr-lang/expr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rulekit/core"
	"rulekit/storage/memory"
)

type order struct {
	Amount  int
	Country string
	Items   []int
}

type discount struct {
	Code    string `yaml:"code"`
	Percent int    `yaml:"percent"`
}

type recordingLogger struct {
	warnings []string
}

func (l *recordingLogger) Debug(string, ...interface{}) {}
func (l *recordingLogger) Info(string, ...interface{})  {}
func (l *recordingLogger) Warn(msg string, args ...interface{}) {
	l.warnings = append(l.warnings, fmt.Sprintf(msg, args...))
}
func (l *recordingLogger) Error(string, ...interface{}) {}

func TestExpressionCondition(t *testing.T) {
	factory := NewFactory[order, int]()

	condition, err := factory.CreateCondition(ConditionExpression, `Amount > 100 && Country == "NZ"`)
	require.NoError(t, err)

	predicate := condition.GetCondition()
	assert.True(t, predicate(order{Amount: 150, Country: "NZ"}))
	assert.False(t, predicate(order{Amount: 150, Country: "AU"}))
	assert.False(t, predicate(order{Amount: 50, Country: "NZ"}))
}

func TestExpressionConditionCompileErrors(t *testing.T) {
	factory := NewFactory[order, int]()

	_, err := factory.CreateCondition(ConditionExpression, `Amount >`)
	assert.Error(t, err)

	_, err = factory.CreateCondition(ConditionExpression, `Amount + 1`)
	assert.Error(t, err, "non-boolean condition must not compile")

	_, err = factory.CreateCondition(ConditionExpression, `Missing == 1`)
	assert.Error(t, err, "unknown field must not compile")
}

func TestConditionRuntimeErrorIsNoMatch(t *testing.T) {
	logger := &recordingLogger{}
	factory := NewFactory[order, int]()
	factory.SetLogger(logger)

	condition, err := factory.CreateCondition(ConditionExpression, `Items[3] > 0`)
	require.NoError(t, err)

	assert.False(t, condition.GetCondition()(order{Items: []int{1}}))
	assert.Len(t, logger.warnings, 1)
}

func TestWeightedConditionCarriesPriority(t *testing.T) {
	factory := NewFactory[order, int]()

	condition, err := factory.CreateCondition(ConditionWeighted, "when: Amount > 10\npriority: 5\n")
	require.NoError(t, err)

	provider, ok := condition.(core.PriorityProvider)
	require.True(t, ok)
	assert.Equal(t, 5, provider.Priority())
	assert.True(t, condition.GetCondition()(order{Amount: 11}))

	consequence, err := factory.CreateConsequence(ConsequenceExpression, `1`)
	require.NoError(t, err)

	template := core.NewTemplate[order, int](condition, consequence)
	assert.Equal(t, 5, template.Rule().Priority())
}

func TestWeightedConditionRequiresWhen(t *testing.T) {
	factory := NewFactory[order, int]()

	_, err := factory.CreateCondition(ConditionWeighted, "priority: 5\n")
	assert.Error(t, err)

	_, err = factory.CreateCondition(ConditionWeighted, "when: [")
	assert.Error(t, err)
}

func TestUnknownTemplateTypes(t *testing.T) {
	factory := NewFactory[order, int]()

	_, err := factory.CreateCondition(99, "true")
	assert.ErrorIs(t, err, core.ErrUnknownTemplateType)

	_, err = factory.CreateConsequence(99, "1")
	assert.ErrorIs(t, err, core.ErrUnknownTemplateType)
}

func TestExpressionConsequence(t *testing.T) {
	factory := NewFactory[order, int]()

	consequence, err := factory.CreateConsequence(ConsequenceExpression, `Amount * 2`)
	require.NoError(t, err)
	assert.Equal(t, 42, consequence.GetConsequence()(order{Amount: 21}))
}

func TestExpressionConsequenceConvertsNumbers(t *testing.T) {
	factory := NewFactory[order, float64]()

	consequence, err := factory.CreateConsequence(ConsequenceExpression, `Amount + 1`)
	require.NoError(t, err)
	assert.Equal(t, 3.0, consequence.GetConsequence()(order{Amount: 2}))
}

func TestExpressionConsequenceTypeMismatchIsZero(t *testing.T) {
	logger := &recordingLogger{}
	factory := NewFactory[order, int]()
	factory.SetLogger(logger)

	consequence, err := factory.CreateConsequence(ConsequenceExpression, `Country`)
	require.NoError(t, err)
	assert.Equal(t, 0, consequence.GetConsequence()(order{Country: "NZ"}))
	assert.Len(t, logger.warnings, 1)
}

func TestLiteralConsequence(t *testing.T) {
	factory := NewFactory[order, discount]()

	consequence, err := factory.CreateConsequence(ConsequenceLiteral, "code: SUMMER\npercent: 15\n")
	require.NoError(t, err)
	assert.Equal(t, discount{Code: "SUMMER", Percent: 15}, consequence.GetConsequence()(order{}))

	_, err = factory.CreateConsequence(ConsequenceLiteral, "code: [")
	assert.Error(t, err)
}

func TestScalarFactIsBoundToFactName(t *testing.T) {
	factory := NewFactory[int, string]()

	condition, err := factory.CreateCondition(ConditionExpression, `fact > 3`)
	require.NoError(t, err)
	consequence, err := factory.CreateConsequence(ConsequenceExpression, `"big"`)
	require.NoError(t, err)

	assert.True(t, condition.GetCondition()(4))
	assert.False(t, condition.GetCondition()(3))
	assert.Equal(t, "big", consequence.GetConsequence()(4))
}

func TestExtraOptions(t *testing.T) {
	factory := NewFactory[order, int](expr.Function("double", func(params ...any) (any, error) {
		return params[0].(int) * 2, nil
	}))

	consequence, err := factory.CreateConsequence(ConsequenceExpression, `double(Amount)`)
	require.NoError(t, err)
	assert.Equal(t, 8, consequence.GetConsequence()(order{Amount: 4}))
}

func TestFactoryBacksRuleContext(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	factory := NewFactory[order, string]()

	rc, err := core.CreateContext[order, string](ctx, core.NewExecuter[order, string](), repo, factory)
	require.NoError(t, err)

	_, err = rc.AddRule(ctx, ConditionExpression, `Amount > 0`, ConsequenceExpression, `"standard"`)
	require.NoError(t, err)
	_, err = rc.AddRule(ctx, ConditionWeighted, "when: Amount > 1000\npriority: 10\n", ConsequenceLiteral, "vip")
	require.NoError(t, err)

	out, ok := rc.ExecuteFact(order{Amount: 5000})
	require.True(t, ok)
	assert.Equal(t, "vip", out)

	loaded, err := core.LoadContext[order, string](ctx, rc.ID(), core.NewExecuter[order, string](), repo, factory)
	require.NoError(t, err)

	out, ok = loaded.ExecuteFact(order{Amount: 5})
	require.True(t, ok)
	assert.Equal(t, "standard", out)

	_, ok = loaded.ExecuteFact(order{Amount: 0})
	assert.False(t, ok)
}
