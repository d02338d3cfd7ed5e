package cli

import (
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/mrz1836/verdict/internal/rubric"
	"github.com/mrz1836/verdict/internal/tui"
)

// RulesFlags holds flags specific to the rules command.
type RulesFlags struct {
	// Domain limits the listing to one rubric.
	Domain string
	// Doc renders the rubric's markdown documentation instead of the table.
	Doc bool
}

var (
	glamourRenderer     *glamour.TermRenderer //nolint:gochecknoglobals // Cached renderer
	glamourRendererOnce sync.Once             //nolint:gochecknoglobals // One-time init
)

// getGlamourRenderer returns a cached glamour renderer for markdown output.
func getGlamourRenderer() *glamour.TermRenderer {
	glamourRendererOnce.Do(func() {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(80),
		)
		if err == nil {
			glamourRenderer = r
		}
	})
	return glamourRenderer
}

// newRulesCmd creates the rules command for listing rubric contents.
func newRulesCmd(global *GlobalFlags, flags *RulesFlags, registry *rubric.Registry) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules [--domain <domain>]",
		Short: "List the rubric rules per domain",
		Long: `List every registered domain with its rule count and maximum score, or the
full rule table of one domain: rule id, kind (whole-artifact or per-file),
whether it counts toward auto_score, and the requirement summary.

--doc renders the rubric's markdown documentation instead.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRules(cmd.OutOrStdout(), global, flags, registry)
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringVarP(&flags.Domain, "domain", "d", "", "limit to one domain")
	cmd.Flags().BoolVar(&flags.Doc, "doc", false, "render the rubric documentation (requires --domain)")

	return cmd
}

// AddRulesCommand adds the rules command to the root command.
func AddRulesCommand(rootCmd *cobra.Command, global *GlobalFlags, registry *rubric.Registry) {
	flags := &RulesFlags{}
	rootCmd.AddCommand(newRulesCmd(global, flags, registry))
}

// ruleListing is the JSON shape of one rule row.
type ruleListing struct {
	ID     string `json:"id"`
	Kind   string `json:"kind"`
	Scored bool   `json:"scored"`
	Title  string `json:"title"`
}

// domainListing is the JSON shape of one domain row.
type domainListing struct {
	Domain   string  `json:"domain"`
	Rules    int     `json:"rules"`
	MaxScore float64 `json:"max_score"`
}

// runRules renders the requested listing.
func runRules(w io.Writer, global *GlobalFlags, flags *RulesFlags, registry *rubric.Registry) error {
	out := tui.NewOutput(w, global.Output)

	if flags.Domain == "" {
		return listDomains(out, global, registry)
	}

	rb, err := registry.Get(flags.Domain)
	if err != nil {
		return err
	}

	if flags.Doc {
		return renderDoc(w, rb)
	}
	return listRules(out, global, rb)
}

// listDomains renders the per-domain overview table.
func listDomains(out tui.Output, global *GlobalFlags, registry *rubric.Registry) error {
	domains := registry.Domains()

	if global.Output == OutputJSON {
		listings := make([]domainListing, 0, len(domains))
		for _, d := range domains {
			rb, err := registry.Get(d)
			if err != nil {
				return err
			}
			listings = append(listings, domainListing{
				Domain:   d,
				Rules:    len(rb.Rules()),
				MaxScore: rb.MaxScore(),
			})
		}
		return out.JSON(listings)
	}

	rows := make([][]string, 0, len(domains))
	for _, d := range domains {
		rb, err := registry.Get(d)
		if err != nil {
			return err
		}
		rows = append(rows, []string{
			d,
			strconv.Itoa(len(rb.Rules())),
			rubric.FormatFloat(rb.MaxScore()),
		})
	}
	out.Table([]string{"domain", "rules", "max score"}, rows)
	return nil
}

// listRules renders one domain's rule table.
func listRules(out tui.Output, global *GlobalFlags, rb rubric.Rubric) error {
	rules := rb.Rules()

	if global.Output == OutputJSON {
		listings := make([]ruleListing, 0, len(rules))
		for _, r := range rules {
			listings = append(listings, ruleListing{
				ID:     r.ID,
				Kind:   ruleKind(r),
				Scored: !r.Manual,
				Title:  r.Title,
			})
		}
		return out.JSON(listings)
	}

	rows := make([][]string, 0, len(rules))
	for _, r := range rules {
		scored := "yes"
		if r.Manual {
			scored = "manual"
		}
		rows = append(rows, []string{r.ID, ruleKind(r), scored, r.Title})
	}
	out.Table([]string{"id", "kind", "scored", "summary"}, rows)
	out.Info(fmt.Sprintf("%s: %d rules, max auto_score %s",
		rb.Domain(), len(rules), rubric.FormatFloat(rb.MaxScore())))
	return nil
}

// ruleKind names how a rule is aggregated.
func ruleKind(r rubric.Rule) string {
	if r.PerFile {
		return "per-file"
	}
	return "artifact"
}

// renderDoc renders the rubric markdown through glamour, falling back to the
// raw markdown when no renderer is available.
func renderDoc(w io.Writer, rb rubric.Rubric) error {
	doc := rb.Doc()

	if r := getGlamourRenderer(); r != nil {
		rendered, err := r.Render(doc)
		if err == nil {
			_, _ = fmt.Fprint(w, rendered)
			return nil
		}
	}
	_, _ = fmt.Fprintln(w, doc)
	return nil
}
