package badges

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Definition is one badge: display metadata plus the rule that awards it.
type Definition struct {
	ID          string `yaml:"id" json:"id"`
	Emoji       string `yaml:"emoji" json:"emoji"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Family      string `yaml:"family" json:"family"`
	Rarity      string `yaml:"rarity" json:"rarity"` // common, rare, epic, legendary

	Rule Rule `yaml:"-" json:"-"`
}

// Catalog is the ordered, immutable badge list.
type Catalog struct {
	defs  []Definition
	index map[string]int
}

type catalogFile struct {
	Badges []Definition `yaml:"badges"`
}

// Load parses the embedded metadata and binds every entry to its rule.
func Load() (*Catalog, error) {
	return build(catalogYAML, ruleTable())
}

// MustLoad is Load for program start-up.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

func build(raw []byte, rules map[string]Rule) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse badge catalog: %w", err)
	}

	c := &Catalog{
		defs:  make([]Definition, 0, len(f.Badges)),
		index: make(map[string]int, len(f.Badges)),
	}
	for _, d := range f.Badges {
		if d.ID == "" {
			return nil, fmt.Errorf("badge catalog: entry without id")
		}
		if _, dup := c.index[d.ID]; dup {
			return nil, fmt.Errorf("badge catalog: duplicate id %q", d.ID)
		}
		rule, ok := rules[d.ID]
		if !ok {
			return nil, fmt.Errorf("badge catalog: no rule for %q", d.ID)
		}
		d.Rule = rule
		c.index[d.ID] = len(c.defs)
		c.defs = append(c.defs, d)
	}
	for id := range rules {
		if _, ok := c.index[id]; !ok {
			return nil, fmt.Errorf("badge catalog: rule %q has no metadata", id)
		}
	}
	return c, nil
}

// All returns the definitions in evaluation order.
func (c *Catalog) All() []Definition {
	out := make([]Definition, len(c.defs))
	copy(out, c.defs)
	return out
}

func (c *Catalog) Len() int { return len(c.defs) }

// Lookup finds a definition by id.
func (c *Catalog) Lookup(id string) (Definition, bool) {
	i, ok := c.index[id]
	if !ok {
		return Definition{}, false
	}
	return c.defs[i], true
}
