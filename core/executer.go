package core

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// RuleExecuter holds a keyed set of rules and evaluates facts against them.
type RuleExecuter[F, O any] interface {
	RuleCount() int
	AddRule(rule Rule[F, O]) uuid.UUID
	AddRuleWithID(id uuid.UUID, rule Rule[F, O]) uuid.UUID
	GetRule(id uuid.UUID) (Rule[F, O], error)
	DeleteRule(id uuid.UUID)
	ExecuteFact(fact F) (O, bool)
}

type ruleEntry[F, O any] struct {
	rule Rule[F, O]
	seq  uint64
}

// Executer is the in-memory RuleExecuter.
// Thread-safe for concurrent use across multiple goroutines.
type Executer[F, O any] struct {
	rules       map[uuid.UUID]ruleEntry[F, O]
	nextSeq     uint64
	prioritizer Prioritizer[F, O]
	mu          sync.RWMutex
	logger      Logger
}

// NewExecuter creates an empty executer using PriorityPrioritizer.
func NewExecuter[F, O any]() *Executer[F, O] {
	return NewExecuterWithPrioritizer[F, O](PriorityPrioritizer[F, O]{})
}

// NewExecuterWithPrioritizer creates an empty executer with a custom
// prioritizer. A nil prioritizer falls back to PriorityPrioritizer.
func NewExecuterWithPrioritizer[F, O any](prioritizer Prioritizer[F, O]) *Executer[F, O] {
	if prioritizer == nil {
		prioritizer = PriorityPrioritizer[F, O]{}
	}
	return &Executer[F, O]{
		rules:       make(map[uuid.UUID]ruleEntry[F, O]),
		prioritizer: prioritizer,
		logger:      &DefaultLogger{},
	}
}

// SetLogger sets the logger for the executer.
func (e *Executer[F, O]) SetLogger(logger Logger) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.logger = logger
}

// RuleCount returns the number of stored rules.
func (e *Executer[F, O]) RuleCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.rules)
}

// AddRule stores rule under a freshly generated id and returns the id.
func (e *Executer[F, O]) AddRule(rule Rule[F, O]) uuid.UUID {
	return e.AddRuleWithID(uuid.New(), rule)
}

// AddRuleWithID stores rule under a known id, used when rehydrating
// persisted rules. An existing rule with the same id is overwritten and
// keeps its original position in the tie-break order.
func (e *Executer[F, O]) AddRuleWithID(id uuid.UUID, rule Rule[F, O]) uuid.UUID {
	e.mu.Lock()
	defer e.mu.Unlock()

	if existing, ok := e.rules[id]; ok {
		e.logger.Warn("Overwriting rule %s", id)
		e.rules[id] = ruleEntry[F, O]{rule: rule, seq: existing.seq}
		return id
	}

	e.rules[id] = ruleEntry[F, O]{rule: rule, seq: e.nextSeq}
	e.nextSeq++
	return id
}

// GetRule returns the rule stored under id.
// Returns ErrRuleNotFound if the id is absent.
func (e *Executer[F, O]) GetRule(id uuid.UUID) (Rule[F, O], error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	entry, ok := e.rules[id]
	if !ok {
		return Rule[F, O]{}, fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}
	return entry.rule, nil
}

// DeleteRule removes the rule stored under id. Absent ids are ignored.
func (e *Executer[F, O]) DeleteRule(id uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.rules, id)
}

// RuleIDs returns the stored ids in insertion order.
func (e *Executer[F, O]) RuleIDs() []uuid.UUID {
	e.mu.RLock()
	defer e.mu.RUnlock()

	entries := e.sortedEntries()
	ids := make([]uuid.UUID, len(entries))
	for i, entry := range entries {
		ids[i] = entry.id
	}
	return ids
}

// ExecuteFact evaluates every rule's condition against fact and returns the
// output chosen by the prioritizer. The boolean is false when no rule
// matched, in which case the output is the zero value and must be ignored.
// Only the winning rule's consequence is invoked.
// Conditions run without holding the lock, so a panicking condition or one
// that calls back into the executer cannot wedge it.
func (e *Executer[F, O]) ExecuteFact(fact F) (O, bool) {
	entries, prioritizer := e.snapshot()

	matched := []Rule[F, O]{}
	for _, entry := range entries {
		if entry.rule.Matches(fact) {
			matched = append(matched, entry.rule)
		}
	}

	if len(matched) == 0 {
		var zero O
		return zero, false
	}
	return prioritizer.SelectOutput(matched, fact), true
}

// snapshot copies the ordered entries and the prioritizer under the read lock.
func (e *Executer[F, O]) snapshot() ([]keyedEntry[F, O], Prioritizer[F, O]) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.sortedEntries(), e.prioritizer
}

type keyedEntry[F, O any] struct {
	id uuid.UUID
	ruleEntry[F, O]
}

// sortedEntries returns entries ordered by insertion sequence.
// Callers must hold e.mu.
func (e *Executer[F, O]) sortedEntries() []keyedEntry[F, O] {
	entries := make([]keyedEntry[F, O], 0, len(e.rules))
	for id, entry := range e.rules {
		entries = append(entries, keyedEntry[F, O]{id: id, ruleEntry: entry})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].seq < entries[j].seq
	})
	return entries
}

var _ RuleExecuter[struct{}, struct{}] = (*Executer[struct{}, struct{}])(nil)
