package badges

import (
	"fmt"
)

// RuleFailure records a rule that panicked during evaluation.
type RuleFailure struct {
	BadgeID string
	Err     error
}

// Result of one evaluation pass.
type Result struct {
	Earned   []string
	Failures []RuleFailure
}

// Evaluate runs every rule whose badge is not in held, in catalog order.
// A panicking rule counts as not earned and does not stop the others.
func (c *Catalog) Evaluate(ctx *Context, held map[string]bool) Result {
	var res Result
	for _, def := range c.defs {
		if held[def.ID] {
			continue
		}
		ok, err := runRule(def, ctx)
		if err != nil {
			res.Failures = append(res.Failures, RuleFailure{BadgeID: def.ID, Err: err})
			continue
		}
		if ok {
			res.Earned = append(res.Earned, def.ID)
		}
	}
	return res
}

func runRule(def Definition, ctx *Context) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok, err = false, fmt.Errorf("rule %s panicked: %v", def.ID, r)
		}
	}()
	return def.Rule(ctx), nil
}
