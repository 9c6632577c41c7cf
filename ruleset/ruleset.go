// Package ruleset reads declarative YAML rule files and applies them to a
// rule context.
package ruleset

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v2"

	"rulekit/core"
)

// ErrInvalidRuleSet indicates a rule file failed validation.
var ErrInvalidRuleSet = errors.New("invalid rule set")

// RuleSet is an ordered list of rules, usually loaded from a YAML file.
// File order is insertion order, which decides ties between rules of equal
// priority.
type RuleSet struct {
	Rules []Rule `yaml:"rules" json:"rules"`
}

// Rule is the declarative form of one rule.
type Rule struct {
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Condition   Template `yaml:"condition" json:"condition"`
	Consequence Template `yaml:"consequence" json:"consequence"`
}

// Template selects a factory algorithm and its payload.
type Template struct {
	Type int32  `yaml:"type" json:"type"`
	Data string `yaml:"data" json:"data"`
}

// RuleAdder accepts new rules. *core.RuleContext satisfies it for any fact
// and output type.
type RuleAdder interface {
	AddRule(ctx context.Context, conditionType int32, conditionData string, consequenceType int32, consequenceData string) (uuid.UUID, error)
}

// Parse decodes and validates a YAML rule set.
func Parse(data []byte) (*RuleSet, error) {
	var set RuleSet
	if err := yaml.UnmarshalStrict(data, &set); err != nil {
		return nil, fmt.Errorf("decode rule set: %w", err)
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return &set, nil
}

// Load reads and parses the rule file at path.
func Load(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule set: %w", err)
	}
	set, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

// Validate requires every rule to have a unique name and condition data.
// Template types are left to the factory.
func (s *RuleSet) Validate() error {
	seen := make(map[string]int, len(s.Rules))
	for i, rule := range s.Rules {
		field := fmt.Sprintf("rules[%d]", i)
		if rule.Name == "" {
			return &core.ValidationError{Field: field + ".name", Message: "name is required", Err: ErrInvalidRuleSet}
		}
		if first, ok := seen[rule.Name]; ok {
			return &core.ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("duplicate name %q, first used by rules[%d]", rule.Name, first),
				Err:     ErrInvalidRuleSet,
			}
		}
		seen[rule.Name] = i
		if rule.Condition.Data == "" {
			return &core.ValidationError{Field: field + ".condition.data", Message: "condition data is required", Err: ErrInvalidRuleSet}
		}
	}
	return nil
}

// Apply adds every rule to target in file order and returns the new ids.
// It stops at the first failure; ids of the rules already added are
// returned with the error.
func (s *RuleSet) Apply(ctx context.Context, target RuleAdder) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(s.Rules))
	for _, rule := range s.Rules {
		id, err := target.AddRule(ctx, rule.Condition.Type, rule.Condition.Data, rule.Consequence.Type, rule.Consequence.Data)
		if err != nil {
			return ids, fmt.Errorf("apply rule %q: %w", rule.Name, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Marshal encodes the rule set as YAML.
func (s *RuleSet) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode rule set: %w", err)
	}
	return data, nil
}

// FromRecords builds a rule set from persisted records, naming each rule
// after its id.
func FromRecords(records []core.RuleData) *RuleSet {
	set := &RuleSet{Rules: make([]Rule, 0, len(records))}
	for _, record := range records {
		set.Rules = append(set.Rules, Rule{
			Name:        record.ID.String(),
			Condition:   Template{Type: record.ConditionType, Data: record.ConditionData},
			Consequence: Template{Type: record.ConsequenceType, Data: record.ConsequenceData},
		})
	}
	return set
}
