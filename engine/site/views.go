package site

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"time"

	"github.com/WessleyAI/cardna/engine/catalog"
	"github.com/WessleyAI/cardna/engine/domain"
	"github.com/WessleyAI/cardna/engine/premium"
	"github.com/WessleyAI/cardna/engine/selector"
)

//go:embed templates/*.html pages/*.md static
var assets embed.FS

var viewNames = []string{"landing", "profile", "notfound", "error", "page"}

// parseViews builds one template set per view, each sharing the layout
// and partials.
func parseViews(fsys fs.FS) (map[string]*template.Template, error) {
	views := make(map[string]*template.Template, len(viewNames))
	for _, name := range viewNames {
		t, err := template.ParseFS(fsys, "templates/layout.html", "templates/partials.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("site: parsing view %s: %w", name, err)
		}
		views[name] = t
	}
	return views, nil
}

type layout struct {
	Title       string
	Description string
	Year        int
}

func newLayout(title, description string, now time.Time) layout {
	if description == "" {
		description = "Engine DNA profiles: specs, vulnerabilities, maintenance and tuning potential."
	}
	return layout{Title: title, Description: description, Year: now.Year()}
}

type formField struct {
	Name        string
	Label       string
	Placeholder string
	Value       string
	Options     []string
	Enabled     bool
}

type searchForm struct {
	Fields    []formField
	CanSearch bool
	Query     string
	Error     string
}

var formLabels = map[string][2]string{
	domain.FieldBrand:      {"Brand", "Select Brand"},
	domain.FieldModel:      {"Model", "Select Model"},
	domain.FieldGeneration: {"Generation", "Select Generation"},
	domain.FieldEngineCode: {"Engine Code", "Select Engine"},
}

func newSearchForm(st *selector.State, query, errMsg string) searchForm {
	f := searchForm{CanSearch: st.CanSearch(), Query: query, Error: errMsg}
	for _, name := range domain.Fields {
		f.Fields = append(f.Fields, formField{
			Name:        name,
			Label:       formLabels[name][0],
			Placeholder: formLabels[name][1],
			Value:       st.Value(name),
			Options:     st.Options(name),
			Enabled:     st.Enabled(name),
		})
	}
	return f
}

type feature struct {
	Title       string
	Description string
}

var features = []feature{
	{"Vulnerability Database", "Known failure points, common issues, and preventive measures for each engine variant. Stay ahead of problems."},
	{"Service Intervals", "Optimized maintenance schedules that go beyond manufacturer recommendations. Real-world tested intervals."},
	{"Tuning Potential", "Safe power gains by modification stage. Know what's achievable before you invest in upgrades."},
	{"Risk Ratings", "Aggregate reliability scores based on common failure rates and repair complexity."},
	{"Technical Specs", "Complete engine specifications including compression ratios, valve configurations, and fuel systems."},
	{"Searchable Database", "Find any engine by brand, model, generation, or engine code."},
}

type landingView struct {
	layout
	Form     searchForm
	Features []feature
	Plans    []premium.Plan
}

type spec struct {
	Label string
	Value string
}

type profileLink struct {
	Title    string
	Subtitle string
	URL      string
}

func linksTo(ps []catalog.Profile) []profileLink {
	out := make([]profileLink, 0, len(ps))
	for _, p := range ps {
		out = append(out, profileLink{
			Title:    p.Brand + " " + p.Title(),
			Subtitle: p.EngineCode,
			URL:      premium.ProfileURL(p.ID(), premium.Locked),
		})
	}
	return out
}

type profileView struct {
	layout
	Profile   catalog.Profile
	Risk      catalog.RiskLevel
	Specs     []spec
	Details   []spec
	Section   premium.Section
	UnlockURL string
	Related   []profileLink
}

func newProfileView(l layout, p catalog.Profile, v premium.View, related []catalog.Profile) profileView {
	return profileView{
		layout:  l,
		Profile: p,
		Risk:    p.Risk(),
		Specs: []spec{
			{"Power", p.Power},
			{"Torque", p.Torque},
			{"Fuel Type", p.FuelType},
			{"Configuration", fmt.Sprintf("%d cyl / %dV", p.Cylinders, p.Valves)},
		},
		Details: []spec{
			{"Displacement", p.Displacement},
			{"Compression Ratio", p.Compression},
			{"Cylinder Count", fmt.Sprintf("%d cylinders", p.Cylinders)},
			{"Valve Configuration", fmt.Sprintf("%d valves", p.Valves)},
			{"Fuel System", p.FuelType},
			{"Production Years", p.YearRange},
		},
		Section:   premium.Gate(p, v),
		UnlockURL: premium.UnlockURL(p.ID()),
		Related:   linksTo(related),
	}
}

type notFoundView struct {
	layout
	Selection           domain.Selection
	Query               string
	AlternativesHeading string
	Alternatives        []profileLink
	Form                searchForm
}

type errorView struct {
	layout
	Heading string
	Message string
}

type pageView struct {
	layout
	Content template.HTML
}
