package exprtemplate

type weightedDocument struct {
	When     string `yaml:"when"`
	Priority int    `yaml:"priority"`
}

// weightedCondition carries its priority so core.NewTemplate can apply it.
type weightedCondition[F any] struct {
	predicate func(F) bool
	priority  int
}

func (c *weightedCondition[F]) GetCondition() func(F) bool { return c.predicate }

func (c *weightedCondition[F]) Priority() int { return c.priority }
