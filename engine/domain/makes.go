package domain

import "strings"

// brandAliases maps abbreviations and nicknames to canonical brand names.
var brandAliases = map[string]string{
	"vw":            "Volkswagen",
	"volkswagen":    "Volkswagen",
	"chevy":         "Chevrolet",
	"chevrolet":     "Chevrolet",
	"merc":          "Mercedes-Benz",
	"benz":          "Mercedes-Benz",
	"mercedes":      "Mercedes-Benz",
	"mercedes-benz": "Mercedes-Benz",
	"beemer":        "BMW",
	"bimmer":        "BMW",
	"bmw":           "BMW",
	"toyota":        "Toyota",
	"honda":         "Honda",
	"nissan":        "Nissan",
	"subaru":        "Subaru",
	"scooby":        "Subaru",
	"ford":          "Ford",
	"audi":          "Audi",
	"mazda":         "Mazda",
	"mitsubishi":    "Mitsubishi",
	"porsche":       "Porsche",
}

// CanonicalBrand resolves an alias ("vw", "chevy") to its brand name.
// The second result is false when the word is not a known alias.
func CanonicalBrand(word string) (string, bool) {
	b, ok := brandAliases[strings.ToLower(strings.TrimSpace(word))]
	return b, ok
}
