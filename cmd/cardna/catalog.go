package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/WessleyAI/cardna/engine/catalog"
	"github.com/WessleyAI/cardna/engine/quickfind"
)

func newCatalogCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect and verify the engine profile catalog",
		Long: `Check the catalog's integrity, list its profiles, show a single profile
or resolve a free-text query the way the quick find box does.`,
	}
	cmd.AddCommand(
		newCatalogCheckCmd(opts),
		newCatalogListCmd(opts),
		newCatalogShowCmd(opts),
		newCatalogFindCmd(opts),
	)
	return cmd
}

func (o *rootOptions) catalog() (*catalog.Catalog, error) {
	cfg, err := o.config()
	if err != nil {
		return nil, err
	}
	return loadCatalog(cfg.Catalog.Path)
}

func newCatalogCheckCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify every selector path resolves to exactly one profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := opts.catalog()
			if err != nil {
				return err
			}
			problems := cat.Check()
			for _, p := range problems {
				fmt.Fprintln(cmd.ErrOrStderr(), p)
			}
			if len(problems) > 0 {
				return fmt.Errorf("catalog check: %d problem(s)", len(problems))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "catalog ok: %d profiles, %d selector paths\n", cat.Len(), len(cat.Paths()))
			return nil
		},
	}
}

func newCatalogListCmd(opts *rootOptions) *cobra.Command {
	var brand string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := opts.catalog()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tBRAND\tMODEL\tGENERATION\tENGINE\tYEARS\tRISK")
			n := 0
			for _, p := range cat.Profiles() {
				if brand != "" && !strings.EqualFold(p.Brand, brand) {
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%d (%s)\n",
					p.ID(), p.Brand, p.Model, p.Generation, p.EngineCode, p.YearRange, p.RiskRating, p.Risk())
				n++
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if n == 0 && brand != "" {
				return fmt.Errorf("no profiles for brand %q", brand)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&brand, "brand", "", "only list profiles of this brand")
	return cmd
}

// profileDoc is the JSON form printed by catalog show.
type profileDoc struct {
	ID string `json:"id"`
	catalog.Profile
	RiskLevel catalog.RiskLevel `json:"risk_level"`
	Premium   *catalog.Premium  `json:"premium,omitempty"`
}

func newCatalogShowCmd(opts *rootOptions) *cobra.Command {
	var (
		output      string
		withPremium bool
	)
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := opts.catalog()
			if err != nil {
				return err
			}
			p, ok := cat.ByID(args[0])
			if !ok {
				return fmt.Errorf("profile %q not found", args[0])
			}
			switch output {
			case "json":
				doc := profileDoc{ID: p.ID(), Profile: p, RiskLevel: p.Risk()}
				if withPremium {
					doc.Premium = &p.Premium
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(doc)
			case "text":
				writeProfile(cmd.OutOrStdout(), p, withPremium)
				return nil
			default:
				return errors.New("--output must be text or json")
			}
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text or json")
	cmd.Flags().BoolVar(&withPremium, "premium", false, "include the premium section")
	return cmd
}

func writeProfile(out io.Writer, p catalog.Profile, withPremium bool) {
	fmt.Fprintf(out, "%s %s\n", p.Brand, p.Title())
	fmt.Fprintf(out, "Engine code: %s\n", p.EngineCode)
	fmt.Fprintf(out, "Risk: %d/10 %s\n\n", p.RiskRating, p.Risk().Label())

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, row := range [][2]string{
		{"Power", p.Power},
		{"Torque", p.Torque},
		{"Displacement", p.Displacement},
		{"Compression", p.Compression},
		{"Cylinders", fmt.Sprint(p.Cylinders)},
		{"Valves", fmt.Sprint(p.Valves)},
		{"Fuel", p.FuelType},
		{"Years", p.YearRange},
	} {
		fmt.Fprintf(w, "%s\t%s\n", row[0], row[1])
	}
	w.Flush()

	if !withPremium {
		return
	}
	list := func(heading string, items []string) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(out, "\n%s\n", heading)
		for _, it := range items {
			fmt.Fprintf(out, "  - %s\n", it)
		}
	}
	list("Vulnerabilities", p.Vulnerabilities)
	list("Common issues", p.CommonIssues)
	if len(p.MaintenanceSchedule) > 0 {
		fmt.Fprintln(out, "\nMaintenance")
		for _, m := range p.MaintenanceSchedule {
			fmt.Fprintf(out, "  - %s: %s\n", m.Interval, m.Task)
		}
	}
	if len(p.TuningPotential) > 0 {
		fmt.Fprintln(out, "\nTuning")
		for _, t := range p.TuningPotential {
			fmt.Fprintf(out, "  - %s (%s) %s\n", t.Stage, t.Power, t.Notes)
		}
	}
	if p.RepairCostEstimate != "" {
		fmt.Fprintf(out, "\nRepair cost estimate: %s\n", p.RepairCostEstimate)
	}
}

func newCatalogFindCmd(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "find <query>...",
		Short: "Resolve a free-text query such as \"vw golf mk7 gti\"",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := opts.catalog()
			if err != nil {
				return err
			}
			query := strings.Join(args, " ")
			matches := quickfind.Resolve(cat, query)
			if len(matches) == 0 {
				return fmt.Errorf("no profile matches %q", query)
			}
			if limit > 0 && len(matches) > limit {
				matches = matches[:limit]
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SCORE\tID\tMATCHED")
			for _, m := range matches {
				fmt.Fprintf(w, "%.2f\t%s\t%s\n", m.Score, m.Profile.ID(), strings.Join(m.Fields, ","))
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 5, "maximum matches to print (0 for all)")
	return cmd
}
