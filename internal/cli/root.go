package cli

import (
	"context"
	"os"
	"path/filepath"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/pageloom/pageloom/pkg/buildinfo"
)

// appName is the application name used for directories and display.
const appName = "pageloom"

// Execute runs the pageloom CLI and returns an error if any command fails.
//
// The root command wires the subcommands (run, plan, serve, cache) and
// configures logging based on the --verbose flag. The logger is attached to
// the context and accessible to all commands via loggerFromContext.
func Execute() error {
	var (
		verbose    bool
		configPath string
	)

	root := &cobra.Command{
		Use:          "pageloom",
		Short:        "Pageloom extracts structured items from web pages",
		Long:         `Pageloom is a dependency-injection engine for page extraction: it plans which page objects and providers are needed for a requested item, skips downloads nothing depends on, and caches expensive builds across runs.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			ctx := withLogger(cmd.Context(), newLogger(os.Stderr, level))
			cmd.SetContext(ctx)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to pageloom.toml")

	root.AddCommand(newRunCmd(&configPath))
	root.AddCommand(newPlanCmd(&configPath))
	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newCacheCmd(&configPath))
	root.AddCommand(newCompletionCmd())

	return root.ExecuteContext(context.Background())
}

// cacheDir returns the cache directory using XDG standard (~/.cache/pageloom/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
