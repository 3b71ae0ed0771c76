// Package domain defines the core selection type, sentinel errors and
// validation shared by the catalog, the selector and the search service.
package domain

import "strings"

// Level names, in cascade order.
const (
	FieldBrand      = "brand"
	FieldModel      = "model"
	FieldGeneration = "generation"
	FieldEngineCode = "engine_code"
)

// Fields lists the selection levels in the order they cascade.
var Fields = []string{FieldBrand, FieldModel, FieldGeneration, FieldEngineCode}

// Selection is the composite key of an engine profile.
type Selection struct {
	Brand      string `json:"brand"`
	Model      string `json:"model"`
	Generation string `json:"generation"`
	EngineCode string `json:"engine_code"`
}

// Complete reports whether all four levels are set.
func (s Selection) Complete() bool {
	return s.Level() == len(Fields)
}

// Level returns the number of leading levels that are set. A gap stops the
// count: a selection with brand and generation but no model has level 1.
func (s Selection) Level() int {
	n := 0
	for _, v := range s.values() {
		if strings.TrimSpace(v) == "" {
			break
		}
		n++
	}
	return n
}

// Get returns the value stored for a field name.
func (s Selection) Get(field string) string {
	switch field {
	case FieldBrand:
		return s.Brand
	case FieldModel:
		return s.Model
	case FieldGeneration:
		return s.Generation
	case FieldEngineCode:
		return s.EngineCode
	}
	return ""
}

// Trimmed returns a copy with surrounding whitespace removed from every field.
func (s Selection) Trimmed() Selection {
	return Selection{
		Brand:      strings.TrimSpace(s.Brand),
		Model:      strings.TrimSpace(s.Model),
		Generation: strings.TrimSpace(s.Generation),
		EngineCode: strings.TrimSpace(s.EngineCode),
	}
}

func (s Selection) String() string {
	parts := make([]string, 0, len(Fields))
	for _, v := range s.values() {
		if v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

func (s Selection) values() [4]string {
	return [4]string{s.Brand, s.Model, s.Generation, s.EngineCode}
}
