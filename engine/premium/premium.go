// Package premium gates the paywalled part of an engine profile and
// describes the plans offered to unlock it.
//
// Unlocking is view state only. Nothing is verified and no payment is
// taken; a visitor who adds premium=unlocked to a profile URL sees the
// premium section.
package premium

import (
	"net/url"

	"github.com/WessleyAI/cardna/engine/catalog"
)

// QueryParam and UnlockedValue form the view toggle carried in profile URLs.
const (
	QueryParam    = "premium"
	UnlockedValue = "unlocked"
)

// View is whether the premium section is shown.
type View int

const (
	Locked View = iota
	Unlocked
)

func (v View) String() string {
	if v == Unlocked {
		return UnlockedValue
	}
	return "locked"
}

// ParseView maps a query value to a View. Anything other than "unlocked"
// is Locked.
func ParseView(s string) View {
	if s == UnlockedValue {
		return Unlocked
	}
	return Locked
}

// ViewFrom reads the toggle from query values.
func ViewFrom(q url.Values) View {
	return ParseView(q.Get(QueryParam))
}

// Preview is a teaser card shown on the paywall.
type Preview struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

var previews = []Preview{
	{"Vulnerabilities", "Known failure points and prevention strategies"},
	{"Maintenance Secrets", "Optimal service intervals and procedures"},
	{"Tuning Potential", "Safe power gains by modification stage"},
}

// Previews returns the paywall teaser cards in display order.
func Previews() []Preview {
	out := make([]Preview, len(previews))
	copy(out, previews)
	return out
}

// Section is what the premium part of a profile page renders: either the
// paywall or the content, never both.
type Section struct {
	Unlocked bool             `json:"unlocked"`
	Previews []Preview        `json:"previews,omitempty"`
	Offers   []Plan           `json:"offers,omitempty"`
	Content  *catalog.Premium `json:"content,omitempty"`
}

// Gate returns the premium section of p for the given view.
func Gate(p catalog.Profile, v View) Section {
	if v == Unlocked {
		content := p.Premium
		return Section{Unlocked: true, Content: &content}
	}
	return Section{Previews: Previews(), Offers: Plans()}
}

// ProfileURL is the page of the profile with the given id.
func ProfileURL(id string, v View) string {
	u := "/profiles/" + url.PathEscape(id)
	if v == Unlocked {
		u += "?" + QueryParam + "=" + UnlockedValue
	}
	return u
}

// UnlockURL is where the paywall form posts the simulated purchase.
func UnlockURL(id string) string {
	return "/profiles/" + url.PathEscape(id) + "/unlock"
}
