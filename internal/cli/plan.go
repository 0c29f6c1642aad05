package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pageloom/pageloom/pkg/fetch"
	"github.com/pageloom/pageloom/pkg/inject"
	"github.com/pageloom/pageloom/pkg/plan"
)

// newPlanCmd creates the "plan" command: show the build plan for a URL and
// item without executing it.
func newPlanCmd(configPath *string) *cobra.Command {
	var (
		item   string
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "plan <url>",
		Short: "Show the dependency build plan for a URL",
		Long: `Plan resolves the requested item against the rules for the given URL and
prints the resulting dependency graph without fetching anything. Formats:
dot (Graphviz source) and svg (rendered via Graphviz).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			eng, err := newEngine(cfg, logger, true)
			if err != nil {
				return err
			}
			defer eng.close()

			itemType, err := eng.catalog.ItemByName(itemOrDefault(item))
			if err != nil {
				return err
			}

			req := fetch.NewRequest(args[0])
			p, err := eng.injector.Plan(req, inject.CallbackForType(itemType))
			if err != nil {
				return err
			}

			needsFetch := eng.injector.NeedsFetch(p)
			printInfo("Plan for %s", StyleHighlight.Render(args[0]))
			printDetail("nodes: %d, fetch required: %v", len(p.Nodes), needsFetch)

			switch format {
			case "dot":
				return writeOutput(output, []byte(plan.ToDOT(p)))
			case "svg":
				svg, err := plan.RenderSVG(plan.ToDOT(p))
				if err != nil {
					return err
				}
				return writeOutput(output, svg)
			default:
				return fmt.Errorf("unknown format %q (want dot or svg)", format)
			}
		},
	}

	cmd.Flags().StringVarP(&item, "item", "i", "", "item type to plan for (default: the built-in page summary)")
	cmd.Flags().StringVarP(&format, "format", "f", "dot", "output format: dot or svg")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file (- for stdout)")
	return cmd
}

func writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	printFile(path)
	return nil
}
