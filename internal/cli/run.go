package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/pageloom/pageloom/pkg/fetch"
	"github.com/pageloom/pageloom/pkg/inject"
	"github.com/pageloom/pageloom/pkg/pipeline"
)

// newRunCmd creates the "run" command: crawl a set of URLs and write one
// JSON line per extracted item.
func newRunCmd(configPath *string) *cobra.Command {
	var (
		item    string
		input   string
		output  string
		workers int
		retries int
		noCache bool
		params  []string
	)

	cmd := &cobra.Command{
		Use:   "run [urls...]",
		Short: "Extract items from a list of URLs",
		Long: `Run processes every URL through one resolution pass: plan, fetch (unless
the plan needs no page content), build, extract. Items are written as JSON
lines. URLs come from the arguments, from --input (one per line), or both.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			urls, err := collectURLs(args, input)
			if err != nil {
				return err
			}
			if len(urls) == 0 {
				return fmt.Errorf("no URLs given; pass them as arguments or via --input")
			}

			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			eng, err := newEngine(cfg, logger, noCache)
			if err != nil {
				return err
			}
			defer eng.close()

			itemType, err := eng.catalog.ItemByName(itemOrDefault(item))
			if err != nil {
				return err
			}

			pageParams, err := parseParams(params)
			if err != nil {
				return err
			}
			requests := make([]*fetch.Request, len(urls))
			for i, u := range urls {
				requests[i] = fetch.NewRequest(u)
				requests[i].PageParams = pageParams
			}

			out, closeOut, err := openOutput(output)
			if err != nil {
				return err
			}
			defer closeOut()

			spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Processing %d URLs...", len(urls)))

			var encMu sync.Mutex
			var extracted int
			enc := json.NewEncoder(out)
			sink := func(ctx context.Context, it pipeline.Item) error {
				encMu.Lock()
				defer encMu.Unlock()
				if err := enc.Encode(it.Value); err != nil {
					return err
				}
				extracted++
				spinner.SetMessage(fmt.Sprintf("Extracted %d/%d items...", extracted, len(urls)))
				return nil
			}

			runner := pipeline.NewRunner(eng.injector, inject.CallbackForType(itemType), pipeline.Options{
				Workers:    workers,
				MaxRetries: retries,
				Logger:     logger,
			})

			spinner.Start()
			stats, err := runner.Run(ctx, requests, sink)
			spinner.Stop()
			if err != nil {
				return err
			}

			printSuccess("Extracted %d items from %d URLs", stats.Items, len(urls))
			printRunStats(stats)
			return nil
		},
	}

	cmd.Flags().StringVarP(&item, "item", "i", "", "item type to extract (default: the built-in page summary)")
	cmd.Flags().StringVar(&input, "input", "", "file with one URL per line")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file (- for stdout)")
	cmd.Flags().IntVarP(&workers, "workers", "w", pipeline.DefaultWorkers, "concurrent workers")
	cmd.Flags().IntVar(&retries, "retries", pipeline.DefaultMaxRetries, "retry budget per request")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the persistent cache")
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "page parameter as key=value (repeatable)")
	return cmd
}

// itemOrDefault falls back to the built-in summary item name.
func itemOrDefault(item string) string {
	if item != "" {
		return item
	}
	return defaultItemName()
}

func collectURLs(args []string, input string) ([]string, error) {
	urls := append([]string{}, args...)
	if input == "" {
		return urls, nil
	}
	f, err := os.Open(input)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, scanner.Err()
}

func parseParams(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	params := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("bad --param %q, want key=value", p)
		}
		params[k] = v
	}
	return params, nil
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
