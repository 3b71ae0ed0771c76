// Package selector implements the cascading brand, model, generation and
// engine code selection. Each level's options depend on the level above, and
// changing a level clears everything below it.
package selector

import (
	"net/url"
	"slices"
	"strings"

	"github.com/WessleyAI/cardna/engine/domain"
)

// Source supplies the option lists. *catalog.Catalog implements it.
type Source interface {
	Brands() []string
	Models(brand string) []string
	Generations(brand, model string) []string
	EngineCodes(brand, model, generation string) []string
}

// ChangedParam names the form field carrying the level the visitor changed.
const ChangedParam = "changed"

// State is the selector form state.
type State struct {
	src Source

	Brand       string   `json:"brand"`
	Model       string   `json:"model"`
	Generation  string   `json:"generation"`
	EngineCode  string   `json:"engine_code"`
	Brands      []string `json:"brands"`
	Models      []string `json:"models"`
	Generations []string `json:"generations"`
	EngineCodes []string `json:"engine_codes"`
}

// New returns an empty state offering the source's brands.
func New(src Source) *State {
	return &State{src: src, Brands: src.Brands()}
}

// SetBrand selects a brand, clears model, generation and engine code and
// repopulates the models from exactly that brand's list. An empty brand
// clears every downstream option.
func (s *State) SetBrand(brand string) error {
	brand = strings.TrimSpace(brand)
	if brand != "" && !slices.Contains(s.Brands, brand) {
		return domain.NewValidationError(domain.FieldBrand, brand, domain.ErrUnknownBrand)
	}
	s.Brand = brand
	s.resetBelow(domain.FieldBrand)
	if brand != "" {
		s.Models = s.src.Models(brand)
	}
	return nil
}

// SetModel selects a model of the current brand and clears the levels below.
func (s *State) SetModel(model string) error {
	model = strings.TrimSpace(model)
	if model != "" && !slices.Contains(s.Models, model) {
		return domain.NewValidationError(domain.FieldModel, model, domain.ErrUnknownModel)
	}
	s.Model = model
	s.resetBelow(domain.FieldModel)
	if model != "" {
		s.Generations = s.src.Generations(s.Brand, model)
	}
	return nil
}

// SetGeneration selects a generation of the current model and clears the
// engine code.
func (s *State) SetGeneration(generation string) error {
	generation = strings.TrimSpace(generation)
	if generation != "" && !slices.Contains(s.Generations, generation) {
		return domain.NewValidationError(domain.FieldGeneration, generation, domain.ErrUnknownGeneration)
	}
	s.Generation = generation
	s.resetBelow(domain.FieldGeneration)
	if generation != "" {
		s.EngineCodes = s.src.EngineCodes(s.Brand, s.Model, generation)
	}
	return nil
}

// SetEngineCode selects an engine code of the current generation.
func (s *State) SetEngineCode(code string) error {
	code = strings.TrimSpace(code)
	if code != "" && !slices.Contains(s.EngineCodes, code) {
		return domain.NewValidationError(domain.FieldEngineCode, code, domain.ErrUnknownEngineCode)
	}
	s.EngineCode = code
	return nil
}

// Set dispatches to the setter for a field name.
func (s *State) Set(field, value string) error {
	switch field {
	case domain.FieldBrand:
		return s.SetBrand(value)
	case domain.FieldModel:
		return s.SetModel(value)
	case domain.FieldGeneration:
		return s.SetGeneration(value)
	case domain.FieldEngineCode:
		return s.SetEngineCode(value)
	}
	return nil
}

// resetBelow empties the values and options of every level under field.
func (s *State) resetBelow(field string) {
	switch field {
	case domain.FieldBrand:
		s.Model, s.Models = "", nil
		fallthrough
	case domain.FieldModel:
		s.Generation, s.Generations = "", nil
		fallthrough
	case domain.FieldGeneration:
		s.EngineCode, s.EngineCodes = "", nil
	}
}

// Enabled reports whether a level can be edited: a level is enabled once the
// level above it has a value. The brand is always enabled.
func (s *State) Enabled(field string) bool {
	switch field {
	case domain.FieldBrand:
		return true
	case domain.FieldModel:
		return s.Brand != ""
	case domain.FieldGeneration:
		return s.Model != ""
	case domain.FieldEngineCode:
		return s.Generation != ""
	}
	return false
}

// Options returns the option list for a level.
func (s *State) Options(field string) []string {
	switch field {
	case domain.FieldBrand:
		return s.Brands
	case domain.FieldModel:
		return s.Models
	case domain.FieldGeneration:
		return s.Generations
	case domain.FieldEngineCode:
		return s.EngineCodes
	}
	return nil
}

// Value returns the selected value of a level.
func (s *State) Value(field string) string {
	return s.Selection().Get(field)
}

// CanSearch reports whether every level is filled in.
func (s *State) CanSearch() bool {
	return s.Selection().Complete()
}

// Selection returns the current composite key.
func (s *State) Selection() domain.Selection {
	return domain.Selection{
		Brand:      s.Brand,
		Model:      s.Model,
		Generation: s.Generation,
		EngineCode: s.EngineCode,
	}
}

// Replay rebuilds the state a visitor reached from a submitted form. Levels
// are applied top-down; levels after the one named by the "changed" field are
// dropped, so changing the brand always resets the rest. Values that are not
// valid options at their level are reported and stop the replay, leaving that
// level and everything below it empty.
func Replay(src Source, values url.Values) (*State, []error) {
	s := New(src)
	stopAfter := len(domain.Fields)
	if changed := values.Get(ChangedParam); changed != "" {
		if i := slices.Index(domain.Fields, changed); i >= 0 {
			stopAfter = i + 1
		}
	}

	var errs []error
	for i, f := range domain.Fields {
		if i >= stopAfter {
			break
		}
		v := values.Get(f)
		if v == "" {
			break
		}
		if err := s.Set(f, v); err != nil {
			errs = append(errs, err)
			break
		}
	}
	return s, errs
}
