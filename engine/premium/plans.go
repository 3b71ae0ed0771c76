package premium

import (
	"errors"
	"fmt"
)

// ErrUnknownPlan is returned for a plan id not in the pricing table.
var ErrUnknownPlan = errors.New("unknown plan")

// Plan IDs.
const (
	PlanSingle = "single"
	PlanFull   = "full"
)

// Plan is one row of the pricing table.
type Plan struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	PriceCents  int      `json:"price_cents"`
	Period      string   `json:"period"`
	Description string   `json:"description"`
	Features    []string `json:"features"`
	Action      string   `json:"action"`
	Featured    bool     `json:"featured"`
}

// Price formats the plan price in dollars, e.g. "$4.99".
func (p Plan) Price() string {
	return fmt.Sprintf("$%d.%02d", p.PriceCents/100, p.PriceCents%100)
}

// Offer is the short label used on the paywall buttons.
func (p Plan) Offer() string {
	if p.ID == PlanFull {
		return "Subscribe - " + p.Price() + "/mo"
	}
	return "Buy This Profile - " + p.Price()
}

var plans = []Plan{
	{
		ID:          PlanSingle,
		Title:       "Single Profile",
		PriceCents:  499,
		Period:      "one-time",
		Description: "Perfect for checking a specific vehicle before purchase",
		Features: []string{
			"Full engine DNA profile",
			"Vulnerability assessment",
			"Maintenance schedule",
			"Tuning potential data",
			"Risk rating",
			"Lifetime access to profile",
		},
		Action: "Buy Profile",
	},
	{
		ID:          PlanFull,
		Title:       "Full Access",
		PriceCents:  999,
		Period:      "per month",
		Description: "Unlimited access for enthusiasts and professionals",
		Features: []string{
			"Unlimited engine profiles",
			"All premium insights",
			"Priority database updates",
			"Export reports (PDF)",
			"API access",
			"Cancel anytime",
		},
		Action:   "Start Subscription",
		Featured: true,
	},
}

// Plans returns the pricing table in display order.
func Plans() []Plan {
	out := make([]Plan, len(plans))
	for i, p := range plans {
		p.Features = append([]string(nil), p.Features...)
		out[i] = p
	}
	return out
}

// PlanByID looks up a plan. An empty id selects the single profile plan.
func PlanByID(id string) (Plan, bool) {
	if id == "" {
		id = PlanSingle
	}
	for _, p := range Plans() {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}
