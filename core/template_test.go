package core_test

import (
	"testing"

	"rulekit/core"
)

type weightedCondition struct {
	n        int
	priority int
}

func (c weightedCondition) GetCondition() func(sampleFact) bool { return xEquals(c.n) }
func (c weightedCondition) Priority() int                      { return c.priority }

func TestTemplateBuildsRule(t *testing.T) {
	template := core.NewTemplate[sampleFact, sampleOutput](
		core.ConditionFunc[sampleFact](xEquals(2)),
		core.ConsequenceFunc[sampleFact, sampleOutput](constant(9)),
	)

	rule := template.Rule()
	if rule.Priority() != 0 {
		t.Errorf("Expected priority 0, got %d", rule.Priority())
	}
	if !rule.Matches(sampleFact{X: 2}) {
		t.Error("Expected template rule to match x == 2")
	}
	if got := rule.Apply(sampleFact{X: 2}); got.Value != 9 {
		t.Errorf("Expected 9, got %d", got.Value)
	}
	if template.Condition() == nil || template.Consequence() == nil {
		t.Error("Expected template to expose its capabilities")
	}
}

func TestTemplateWithPriority(t *testing.T) {
	template := core.NewTemplateWithPriority[sampleFact, sampleOutput](
		core.ConditionFunc[sampleFact](xEquals(2)),
		core.ConsequenceFunc[sampleFact, sampleOutput](constant(9)),
		3,
	)
	if template.Rule().Priority() != 3 {
		t.Errorf("Expected priority 3, got %d", template.Rule().Priority())
	}
}

func TestTemplateUsesPriorityProvider(t *testing.T) {
	template := core.NewTemplate[sampleFact, sampleOutput](
		weightedCondition{n: 1, priority: 6},
		core.ConsequenceFunc[sampleFact, sampleOutput](constant(9)),
	)
	if template.Rule().Priority() != 6 {
		t.Errorf("Expected priority 6 from condition, got %d", template.Rule().Priority())
	}
}

func TestTemplateRuleIsStable(t *testing.T) {
	template := core.NewTemplate[sampleFact, sampleOutput](
		core.ConditionFunc[sampleFact](xEquals(2)),
		core.ConsequenceFunc[sampleFact, sampleOutput](constant(9)),
	)
	first := template.Rule()
	second := template.Rule()
	if first.Priority() != second.Priority() || first.Apply(sampleFact{}) != second.Apply(sampleFact{}) {
		t.Error("Expected template to return the same rule every time")
	}
}
