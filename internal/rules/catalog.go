// Package rules holds the automation rule catalog and the interpreter that
// turns a matched rule into scheduled work.
package rules

import (
	"fmt"

	"github.com/Veraticus/leadflow/internal/model"
)

// Catalog is a read-only set of automation rules with a fixed match order.
type Catalog struct {
	rules      map[model.RuleName]model.AutomationRule
	precedence []Precedence
	fallback   model.RuleName
}

// Precedence decides when a rule wins. The match criteria are kept apart
// from the rule's declared criteria: cold_lead is declared for low/information
// but matches any low-priority lead.
type Precedence struct {
	When model.RuleCriteria
	Rule model.RuleName
}

// NewCatalog builds a catalog from rules and a precedence list.
// Every rule named in the precedence list and the fallback must exist.
func NewCatalog(all []model.AutomationRule, precedence []Precedence, fallback model.RuleName) (*Catalog, error) {
	c := &Catalog{
		rules:      make(map[model.RuleName]model.AutomationRule, len(all)),
		precedence: precedence,
		fallback:   fallback,
	}
	for _, r := range all {
		if _, dup := c.rules[r.Name]; dup {
			return nil, fmt.Errorf("duplicate rule %q", r.Name)
		}
		c.rules[r.Name] = r
	}
	for _, p := range precedence {
		if _, ok := c.rules[p.Rule]; !ok {
			return nil, fmt.Errorf("precedence references unknown rule %q", p.Rule)
		}
	}
	if _, ok := c.rules[fallback]; !ok {
		return nil, fmt.Errorf("fallback rule %q not defined", fallback)
	}
	return c, nil
}

// Default returns the built-in catalog. It panics only if the static table is
// internally inconsistent, which the tests rule out.
func Default() *Catalog {
	c, err := NewCatalog(defaultRules(), defaultPrecedence(), model.RuleWarmLead)
	if err != nil {
		panic(err)
	}
	return c
}

// Match returns the first rule whose precedence criteria the categorization
// satisfies, or the fallback rule. It never fails.
func (c *Catalog) Match(cat model.Categorization) model.AutomationRule {
	for _, p := range c.precedence {
		if p.When.Matches(cat) {
			return c.rules[p.Rule]
		}
	}
	return c.rules[c.fallback]
}

// Lookup returns a rule by name.
func (c *Catalog) Lookup(name model.RuleName) (model.AutomationRule, bool) {
	r, ok := c.rules[name]
	return r, ok
}

// Validate reports whether a rule with that name exists.
func (c *Catalog) Validate(name model.RuleName) bool {
	_, ok := c.rules[name]
	return ok
}

// All returns every rule in match order, followed by any rule that is only
// reachable by name.
func (c *Catalog) All() []model.AutomationRule {
	seen := make(map[model.RuleName]bool, len(c.rules))
	out := make([]model.AutomationRule, 0, len(c.rules))
	for _, p := range c.precedence {
		if seen[p.Rule] {
			continue
		}
		seen[p.Rule] = true
		out = append(out, c.rules[p.Rule])
	}
	for _, name := range sortedNames(c.rules) {
		if !seen[name] {
			out = append(out, c.rules[name])
		}
	}
	return out
}

// Names returns every rule name in match order.
func (c *Catalog) Names() []model.RuleName {
	all := c.All()
	names := make([]model.RuleName, len(all))
	for i, r := range all {
		names[i] = r.Name
	}
	return names
}
