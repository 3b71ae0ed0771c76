// Package quickfind resolves free-text queries such as "vw golf mk7 gti" or
// "2jz supra" to engine profiles in the catalog.
package quickfind

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/WessleyAI/cardna/engine/catalog"
	"github.com/WessleyAI/cardna/engine/domain"
)

// Match is a profile found for a query. Profile always carries its own
// identity; Fields lists which identity fields the query hit.
type Match struct {
	Profile catalog.Profile
	Score   float64
	Fields  []string
}

// Profiles is the subset of *catalog.Catalog quickfind reads.
type Profiles interface {
	Profiles() []catalog.Profile
}

const (
	weightEngine     = 0.50
	weightFamily     = 0.35
	weightBrand      = 0.20
	weightModel      = 0.20
	weightGeneration = 0.10
	weightYear       = 0.05
)

var yearRe = regexp.MustCompile(`\b((?:19|20)\d{2})\b`)

// generic generation words that identify nothing on their own.
var stopWords = map[string]bool{"gen": true, "mk": true}

// Resolve scores every profile against the query and returns the hits,
// best first. Profiles of a brand other than one named in the query are
// never returned.
func Resolve(src Profiles, query string) []Match {
	q := parse(query)
	if len(q.tokens) == 0 {
		return nil
	}

	var out []Match
	for _, p := range src.Profiles() {
		if q.brand != "" && !strings.EqualFold(q.brand, p.Brand) {
			continue
		}
		m := Match{Profile: p}
		switch code := compact(p.EngineCode); {
		case len(code) >= 3 && strings.Contains(q.compact, code):
			m.Score += weightEngine
			m.Fields = append(m.Fields, domain.FieldEngineCode)
		case q.hasPrefixToken(code):
			m.Score += weightFamily
			m.Fields = append(m.Fields, domain.FieldEngineCode)
		}
		if q.brand != "" {
			m.Score += weightBrand
			m.Fields = append(m.Fields, domain.FieldBrand)
		}
		if q.containsPhrase(p.Model) {
			m.Score += weightModel
			m.Fields = append(m.Fields, domain.FieldModel)
		}
		if share := q.tokenShare(generationTokens(p.Generation)); share > 0 {
			m.Score += weightGeneration * share
			m.Fields = append(m.Fields, domain.FieldGeneration)
		}
		if q.year > 0 && inYearRange(q.year, p.YearRange) {
			m.Score += weightYear
		}
		// A brand alone identifies nothing.
		if slices.ContainsFunc(m.Fields, func(f string) bool { return f != domain.FieldBrand }) {
			out = append(out, m)
		}
	}

	slices.SortStableFunc(out, func(a, b Match) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	return out
}

// Best returns the top match, or nil when nothing matched.
func Best(src Profiles, query string) *Match {
	matches := Resolve(src, query)
	if len(matches) == 0 {
		return nil
	}
	return &matches[0]
}

type parsed struct {
	lower   string
	tokens  []string
	compact string
	brand   string
	year    int
}

func parse(query string) parsed {
	lower := strings.ToLower(strings.TrimSpace(query))
	tokens := tokenize(lower)
	q := parsed{
		lower:   " " + strings.Join(tokens, " ") + " ",
		tokens:  tokens,
		compact: compact(lower),
	}
	for i, tok := range q.tokens {
		if b, ok := domain.CanonicalBrand(tok); ok {
			q.brand = b
			break
		}
		if i+1 < len(q.tokens) {
			if b, ok := domain.CanonicalBrand(tok + "-" + q.tokens[i+1]); ok {
				q.brand = b
				break
			}
		}
	}
	if m := yearRe.FindStringSubmatch(lower); m != nil {
		q.year, _ = strconv.Atoi(m[1])
	}
	return q
}

// containsPhrase reports whether every word of name appears consecutively
// in the query, or whether the compacted name appears as one token
// ("s2000", "350z").
func (q parsed) containsPhrase(name string) bool {
	words := tokenize(strings.ToLower(name))
	if len(words) == 0 {
		return false
	}
	if strings.Contains(q.lower, " "+strings.Join(words, " ")+" ") {
		return true
	}
	return len(words) > 1 && slices.Contains(q.tokens, strings.Join(words, ""))
}

// tokenShare is the fraction of tokens present in the query, so "mk7"
// outranks "mk5" when both generations also say "gti".
func (q parsed) tokenShare(tokens []string) float64 {
	if len(tokens) == 0 {
		return 0
	}
	hits := 0
	for _, t := range tokens {
		if slices.Contains(q.tokens, t) {
			hits++
		}
	}
	return float64(hits) / float64(len(tokens))
}

// hasPrefixToken matches family names such as "2jz" or "ej25" against the
// compacted engine code.
func (q parsed) hasPrefixToken(code string) bool {
	for _, t := range q.tokens {
		if t = compact(t); len(t) >= 3 && hasDigitAndLetter(t) && strings.HasPrefix(code, t) {
			return true
		}
	}
	return false
}

func generationTokens(generation string) []string {
	var out []string
	for _, t := range tokenize(strings.ToLower(generation)) {
		if len(t) < 2 || stopWords[t] || isOrdinal(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
}

func compact(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func hasDigitAndLetter(s string) bool {
	return strings.ContainsFunc(s, unicode.IsDigit) && strings.ContainsFunc(s, unicode.IsLetter)
}

func isOrdinal(s string) bool {
	for _, suffix := range []string{"st", "nd", "rd", "th"} {
		if n, ok := strings.CutSuffix(s, suffix); ok {
			if _, err := strconv.Atoi(n); err == nil {
				return true
			}
		}
	}
	return false
}

// inYearRange parses "1993-2002" or "2019-present".
func inYearRange(year int, yearRange string) bool {
	from, to, ok := strings.Cut(yearRange, "-")
	if !ok {
		return false
	}
	start, err := strconv.Atoi(strings.TrimSpace(from))
	if err != nil {
		return false
	}
	end, err := strconv.Atoi(strings.TrimSpace(to))
	if err != nil {
		end = 9999
	}
	return year >= start && year <= end
}
