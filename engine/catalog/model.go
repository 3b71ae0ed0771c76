// Package catalog holds the static engine profile dataset and the option
// tables that drive the cascading brand, model, generation and engine code
// selection.
package catalog

import "github.com/WessleyAI/cardna/engine/domain"

// Profile is one engine variant's specs and premium insights.
type Profile struct {
	Brand      string `yaml:"brand" json:"brand"`
	Model      string `yaml:"model" json:"model"`
	Generation string `yaml:"generation" json:"generation"`
	EngineCode string `yaml:"engine_code" json:"engine_code"`

	Power        string `yaml:"power" json:"power"`
	Torque       string `yaml:"torque" json:"torque"`
	Displacement string `yaml:"displacement" json:"displacement"`
	Compression  string `yaml:"compression" json:"compression"`
	Cylinders    int    `yaml:"cylinders" json:"cylinders"`
	Valves       int    `yaml:"valves" json:"valves"`
	FuelType     string `yaml:"fuel_type" json:"fuel_type"`
	YearRange    string `yaml:"year_range" json:"year_range"`
	RiskRating   int    `yaml:"risk_rating" json:"risk_rating"`

	Premium `yaml:",inline" json:"-"`
}

// Premium is the paywalled part of a profile.
type Premium struct {
	Vulnerabilities     []string          `yaml:"vulnerabilities" json:"vulnerabilities"`
	MaintenanceSchedule []MaintenanceItem `yaml:"maintenance_schedule" json:"maintenance_schedule"`
	TuningPotential     []TuningStage     `yaml:"tuning_potential" json:"tuning_potential"`
	CommonIssues        []string          `yaml:"common_issues" json:"common_issues"`
	RepairCostEstimate  string            `yaml:"repair_cost_estimate" json:"repair_cost_estimate"`
}

// MaintenanceItem is one entry of a maintenance schedule.
type MaintenanceItem struct {
	Interval string `yaml:"interval" json:"interval"`
	Task     string `yaml:"task" json:"task"`
}

// TuningStage is one modification stage and the power it reaches.
type TuningStage struct {
	Stage string `yaml:"stage" json:"stage"`
	Power string `yaml:"power" json:"power"`
	Notes string `yaml:"notes" json:"notes"`
}

// Key returns the composite key identifying the profile.
func (p Profile) Key() domain.Selection {
	return domain.Selection{
		Brand:      p.Brand,
		Model:      p.Model,
		Generation: p.Generation,
		EngineCode: p.EngineCode,
	}
}

// ID returns a URL-safe slug such as "toyota-supra-a80-mk4-2jz-gte".
func (p Profile) ID() string {
	return sanitizeID(p.Brand + " " + p.Model + " " + p.Generation + " " + p.EngineCode)
}

// Title is the display heading, e.g. "Supra A80 (Mk4)".
func (p Profile) Title() string {
	return p.Model + " " + p.Generation
}

// Risk classifies the profile's risk rating.
func (p Profile) Risk() RiskLevel {
	return ClassifyRisk(p.RiskRating)
}

// RiskLevel buckets a 1-10 risk rating.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// ClassifyRisk maps 1-3 to low, 4-6 to medium and anything above to high.
func ClassifyRisk(rating int) RiskLevel {
	switch {
	case rating <= 3:
		return RiskLow
	case rating <= 6:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// Label is the badge text for the level.
func (r RiskLevel) Label() string {
	switch r {
	case RiskLow:
		return "Low Risk"
	case RiskMedium:
		return "Medium Risk"
	default:
		return "High Risk"
	}
}

// sanitizeID converts a name to a lowercase dash-separated ID.
func sanitizeID(name string) string {
	b := make([]byte, 0, len(name))
	for i := range name {
		c := name[i]
		switch {
		case c >= 'A' && c <= 'Z':
			b = append(b, c+32)
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			b = append(b, c)
		default:
			if len(b) > 0 && b[len(b)-1] != '-' {
				b = append(b, '-')
			}
		}
	}
	if len(b) > 0 && b[len(b)-1] == '-' {
		b = b[:len(b)-1]
	}
	return string(b)
}
