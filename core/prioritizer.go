package core

import "sort"

// Prioritizer picks the output among rules that matched a fact.
// matched is never empty and is ordered by insertion into the executer.
type Prioritizer[F, O any] interface {
	SelectOutput(matched []Rule[F, O], fact F) O
}

// PrioritizerFunc adapts a function to the Prioritizer interface.
type PrioritizerFunc[F, O any] func(matched []Rule[F, O], fact F) O

// SelectOutput calls f(matched, fact).
func (f PrioritizerFunc[F, O]) SelectOutput(matched []Rule[F, O], fact F) O {
	return f(matched, fact)
}

// PriorityPrioritizer selects the rule with the highest priority.
// Ties go to the rule inserted first.
type PriorityPrioritizer[F, O any] struct{}

// SelectOutput applies the winning rule's consequence to fact.
func (PriorityPrioritizer[F, O]) SelectOutput(matched []Rule[F, O], fact F) O {
	if len(matched) == 0 {
		var zero O
		return zero
	}

	ordered := make([]Rule[F, O], len(matched))
	copy(ordered, matched)
	// Stable so insertion order survives among equal priorities.
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority() > ordered[j].Priority()
	})

	return ordered[0].Apply(fact)
}
