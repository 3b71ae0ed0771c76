package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/WessleyAI/cardna/engine/domain"
)

//go:embed data/catalog.yaml
var defaultData []byte

// document is the on-disk shape of the dataset.
type document struct {
	Brands   []brandNode `yaml:"brands"`
	Profiles []Profile   `yaml:"profiles"`
}

type brandNode struct {
	Name   string      `yaml:"name"`
	Models []modelNode `yaml:"models"`
}

type modelNode struct {
	Name        string           `yaml:"name"`
	Generations []generationNode `yaml:"generations"`
}

type generationNode struct {
	Name        string   `yaml:"name"`
	EngineCodes []string `yaml:"engine_codes"`
}

type modelKey struct{ brand, model string }

type generationKey struct{ brand, model, generation string }

// Catalog is an immutable, concurrency-safe view of the dataset.
type Catalog struct {
	brands      []string
	models      map[string][]string
	generations map[modelKey][]string
	engineCodes map[generationKey][]string

	profiles []Profile
	byKey    map[domain.Selection]int
	byID     map[string]int
}

// Default loads the dataset compiled into the binary.
func Default() (*Catalog, error) {
	return Load(bytes.NewReader(defaultData))
}

// Load parses a YAML dataset and builds the lookup tables.
func Load(r io.Reader) (*Catalog, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	return build(doc)
}

func build(doc document) (*Catalog, error) {
	c := &Catalog{
		models:      make(map[string][]string),
		generations: make(map[modelKey][]string),
		engineCodes: make(map[generationKey][]string),
		byKey:       make(map[domain.Selection]int),
		byID:        make(map[string]int),
	}

	var errs []error
	for _, b := range doc.Brands {
		if b.Name == "" || slices.Contains(c.brands, b.Name) {
			errs = append(errs, fmt.Errorf("catalog: brand %q: empty or duplicate", b.Name))
			continue
		}
		c.brands = append(c.brands, b.Name)
		for _, m := range b.Models {
			if m.Name == "" || slices.Contains(c.models[b.Name], m.Name) {
				errs = append(errs, fmt.Errorf("catalog: model %q under %s: empty or duplicate", m.Name, b.Name))
				continue
			}
			c.models[b.Name] = append(c.models[b.Name], m.Name)
			mk := modelKey{b.Name, m.Name}
			for _, g := range m.Generations {
				if g.Name == "" || slices.Contains(c.generations[mk], g.Name) {
					errs = append(errs, fmt.Errorf("catalog: generation %q under %s %s: empty or duplicate", g.Name, b.Name, m.Name))
					continue
				}
				c.generations[mk] = append(c.generations[mk], g.Name)
				gk := generationKey{b.Name, m.Name, g.Name}
				for _, code := range g.EngineCodes {
					if code == "" || slices.Contains(c.engineCodes[gk], code) {
						errs = append(errs, fmt.Errorf("catalog: engine code %q under %s %s %s: empty or duplicate", code, b.Name, m.Name, g.Name))
						continue
					}
					c.engineCodes[gk] = append(c.engineCodes[gk], code)
				}
			}
		}
	}

	for _, p := range doc.Profiles {
		if err := validateProfile(p); err != nil {
			errs = append(errs, fmt.Errorf("catalog: profile %q: %w", p.Key(), err))
			continue
		}
		key := p.Key()
		if _, dup := c.byKey[key]; dup {
			errs = append(errs, fmt.Errorf("catalog: profile %q: %w", key, domain.ErrDuplicateProfile))
			continue
		}
		id := p.ID()
		if _, dup := c.byID[id]; dup {
			errs = append(errs, fmt.Errorf("catalog: profile id %q: %w", id, domain.ErrDuplicateProfile))
			continue
		}
		c.byKey[key] = len(c.profiles)
		c.byID[id] = len(c.profiles)
		c.profiles = append(c.profiles, p)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return c, nil
}

func validateProfile(p Profile) error {
	if err := domain.ValidateSelection(p.Key()); err != nil {
		return err
	}
	return domain.ValidateRiskRating(p.RiskRating)
}

// Brands returns the brand options in declaration order.
func (c *Catalog) Brands() []string {
	return slices.Clone(c.brands)
}

// Models returns the models of a brand. Unknown brands yield nil.
func (c *Catalog) Models(brand string) []string {
	return slices.Clone(c.models[brand])
}

// Generations returns the generations of a brand's model.
func (c *Catalog) Generations(brand, model string) []string {
	return slices.Clone(c.generations[modelKey{brand, model}])
}

// EngineCodes returns the engine codes offered for a generation.
func (c *Catalog) EngineCodes(brand, model, generation string) []string {
	return slices.Clone(c.engineCodes[generationKey{brand, model, generation}])
}

// Lookup returns the profile whose identity equals sel exactly. A miss is a
// *domain.NotFoundError; no other profile is ever substituted.
func (c *Catalog) Lookup(sel domain.Selection) (Profile, error) {
	sel = sel.Trimmed()
	if err := domain.ValidateSelection(sel); err != nil {
		return Profile{}, err
	}
	i, ok := c.byKey[sel]
	if !ok {
		return Profile{}, &domain.NotFoundError{Selection: sel}
	}
	return c.profiles[i], nil
}

// ByID returns the profile with the given slug.
func (c *Catalog) ByID(id string) (Profile, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Profile{}, false
	}
	return c.profiles[i], true
}

// Profiles returns every profile in declaration order.
func (c *Catalog) Profiles() []Profile {
	return slices.Clone(c.profiles)
}

// SameBrand returns the brand's profiles except the one keyed by exclude.
// It backs the "other profiles" list on a miss page; callers must present
// them as alternatives, not as the result.
func (c *Catalog) SameBrand(brand string, exclude domain.Selection) []Profile {
	var out []Profile
	for _, p := range c.profiles {
		if p.Brand == brand && p.Key() != exclude {
			out = append(out, p)
		}
	}
	return out
}

// Len returns the number of profiles.
func (c *Catalog) Len() int { return len(c.profiles) }
