package catalog

import (
	"fmt"

	"github.com/WessleyAI/cardna/engine/domain"
)

// Path is one brand, model, generation, engine code tuple reachable through
// the option tables.
type Path = domain.Selection

// Paths enumerates every tuple a visitor can build with the selectors.
func (c *Catalog) Paths() []Path {
	var out []Path
	for _, b := range c.brands {
		for _, m := range c.models[b] {
			for _, g := range c.generations[modelKey{b, m}] {
				for _, e := range c.engineCodes[generationKey{b, m, g}] {
					out = append(out, Path{Brand: b, Model: m, Generation: g, EngineCode: e})
				}
			}
		}
	}
	return out
}

// Check reports integrity problems: selector paths without a profile, and
// profiles that no selector path reaches. An empty result means every
// reachable tuple resolves to exactly one profile with the same identity.
func (c *Catalog) Check() []error {
	var errs []error
	reached := make(map[domain.Selection]bool, len(c.profiles))
	for _, path := range c.Paths() {
		p, err := c.Lookup(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("catalog check: selector path %q: %w", path, err))
			continue
		}
		if p.Key() != path {
			errs = append(errs, fmt.Errorf("catalog check: selector path %q resolved to %q", path, p.Key()))
			continue
		}
		reached[path] = true
	}
	for _, p := range c.profiles {
		if !reached[p.Key()] {
			errs = append(errs, fmt.Errorf("catalog check: profile %q is not reachable from the selectors", p.Key()))
		}
	}
	return errs
}
