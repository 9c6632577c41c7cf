// Package exprtemplate is a data-driven core.TemplateFactory. Conditions and
// consequences are expr-lang programs or YAML literals selected by template
// type.
package exprtemplate

import (
	"fmt"
	"reflect"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"gopkg.in/yaml.v2"

	"rulekit/core"
)

// Condition template types.
const (
	// ConditionExpression is a boolean expr program evaluated against the fact.
	ConditionExpression int32 = 1
	// ConditionWeighted is a YAML document {when, priority} whose priority is
	// carried into the rule.
	ConditionWeighted int32 = 2
)

// Consequence template types.
const (
	// ConsequenceExpression is an expr program whose result becomes the output.
	// Numeric results that do not fit the output type exactly, such as 2.5
	// into an int, yield the zero output and a warning.
	ConsequenceExpression int32 = 1
	// ConsequenceLiteral is a YAML document decoded into the output type.
	// Outputs holding maps, slices or pointers are decoded anew per
	// evaluation; other outputs are decoded once.
	ConsequenceLiteral int32 = 2
)

// FactName is the identifier a non-struct, non-map fact is bound to inside
// expressions. Struct and map facts expose their fields directly.
const FactName = "fact"

// Factory compiles template data into conditions and consequences.
// Programs are compiled once at creation; evaluation errors are logged and
// treated as a non-match for conditions and a zero output for consequences.
type Factory[F, O any] struct {
	logger  core.Logger
	options []expr.Option
	wrap    bool
}

// NewFactory creates a factory. Extra expr options (functions, operators)
// are appended to every compilation.
func NewFactory[F, O any](options ...expr.Option) *Factory[F, O] {
	return &Factory[F, O]{
		logger:  &core.DefaultLogger{},
		options: options,
		wrap:    needsWrapping(reflect.TypeOf((*F)(nil)).Elem()),
	}
}

// SetLogger sets the logger used for evaluation failures.
func (f *Factory[F, O]) SetLogger(logger core.Logger) {
	if logger != nil {
		f.logger = logger
	}
}

// CreateCondition implements core.TemplateFactory.
func (f *Factory[F, O]) CreateCondition(templateType int32, templateData string) (core.Condition[F], error) {
	switch templateType {
	case ConditionExpression:
		program, err := f.compile(templateData, expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compile condition: %w", err)
		}
		return core.ConditionFunc[F](f.predicate(templateData, program)), nil

	case ConditionWeighted:
		var doc weightedDocument
		if err := yaml.Unmarshal([]byte(templateData), &doc); err != nil {
			return nil, fmt.Errorf("decode weighted condition: %w", err)
		}
		if doc.When == "" {
			return nil, fmt.Errorf("weighted condition: when is required")
		}
		program, err := f.compile(doc.When, expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compile condition: %w", err)
		}
		return &weightedCondition[F]{
			predicate: f.predicate(doc.When, program),
			priority:  doc.Priority,
		}, nil

	default:
		return nil, fmt.Errorf("%w: condition type %d", core.ErrUnknownTemplateType, templateType)
	}
}

// CreateConsequence implements core.TemplateFactory.
func (f *Factory[F, O]) CreateConsequence(templateType int32, templateData string) (core.Consequence[F, O], error) {
	switch templateType {
	case ConsequenceExpression:
		program, err := f.compile(templateData)
		if err != nil {
			return nil, fmt.Errorf("compile consequence: %w", err)
		}
		return core.ConsequenceFunc[F, O](func(fact F) O {
			result, err := expr.Run(program, f.env(fact))
			if err != nil {
				f.logger.Warn("Consequence %q failed: %v", templateData, err)
				var zero O
				return zero
			}
			out, err := convert[O](result)
			if err != nil {
				f.logger.Warn("Consequence %q: %v", templateData, err)
			}
			return out
		}), nil

	case ConsequenceLiteral:
		var out O
		if err := yaml.Unmarshal([]byte(templateData), &out); err != nil {
			return nil, fmt.Errorf("decode literal consequence: %w", err)
		}
		if !sharesMemory(reflect.TypeOf((*O)(nil)).Elem()) {
			return core.ConsequenceFunc[F, O](func(F) O { return out }), nil
		}
		// Each evaluation gets its own copy so callers may mutate results.
		return core.ConsequenceFunc[F, O](func(F) O {
			var fresh O
			if err := yaml.Unmarshal([]byte(templateData), &fresh); err != nil {
				f.logger.Warn("Consequence %q: %v", templateData, err)
			}
			return fresh
		}), nil

	default:
		return nil, fmt.Errorf("%w: consequence type %d", core.ErrUnknownTemplateType, templateType)
	}
}

func (f *Factory[F, O]) compile(source string, extra ...expr.Option) (*vm.Program, error) {
	var zero F
	options := []expr.Option{expr.Env(f.env(zero))}
	if reflect.TypeOf((*F)(nil)).Elem().Kind() == reflect.Map {
		options = append(options, expr.AllowUndefinedVariables())
	}
	options = append(options, extra...)
	options = append(options, f.options...)
	return expr.Compile(source, options...)
}

func (f *Factory[F, O]) predicate(source string, program *vm.Program) func(F) bool {
	return func(fact F) bool {
		result, err := expr.Run(program, f.env(fact))
		if err != nil {
			f.logger.Warn("Condition %q failed: %v", source, err)
			return false
		}
		matched, ok := result.(bool)
		return ok && matched
	}
}

func (f *Factory[F, O]) env(fact F) any {
	if f.wrap {
		return map[string]any{FactName: fact}
	}
	return fact
}

// sharesMemory reports whether copies of a t value can alias each other.
func sharesMemory(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Map, reflect.Slice, reflect.Pointer, reflect.Interface, reflect.Chan, reflect.Func:
		return true
	case reflect.Array:
		return sharesMemory(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if sharesMemory(t.Field(i).Type) {
				return true
			}
		}
	}
	return false
}

func needsWrapping(t reflect.Type) bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() != reflect.Struct && t.Kind() != reflect.Map
}

var _ core.TemplateFactory[struct{}, int] = (*Factory[struct{}, int])(nil)
