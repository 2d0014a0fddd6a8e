package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/use-agent/placeharvest/config"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

// loadConfig reads env and file configuration and applies the global flags.
func (g *globalFlags) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadFile(g.configPath)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = g.logLevel
	}
	if cmd.Flags().Changed("log-format") {
		cfg.Log.Format = g.logFormat
	}
	initLogger(cfg.Log, os.Stderr)
	return cfg, nil
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	opts := &runOptions{}

	root := &cobra.Command{
		Use:   "placeharvest [search-url]",
		Short: "placeharvest extracts business listings from a Google Maps search.",
		Long: `placeharvest scrolls a Google Maps results page, visits every listed place
and writes the collected details to <name>.json, <name>.csv and <name>_clean.csv.

Without a subcommand it behaves like "placeharvest run".`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHarvest(cmd, g, opts, args)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "YAML config file (default: $PLACEHARVEST_CONFIG or ./placeharvest.yaml if present)")
	pf.StringVar(&g.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	pf.StringVar(&g.logFormat, "log-format", "text", "log format: text or json")

	bindRunFlags(root.Flags(), opts)

	root.AddCommand(newRunCmd(g), newServeCmd(g))
	return root
}

func newRunCmd(g *globalFlags) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run [search-url]",
		Short: "Harvest one search page and write the export files.",
		Example: `  placeharvest run "https://www.google.com/maps/search/coffee+shops+manila" --max 20
  placeharvest run --url "https://www.google.com/maps/search/bakeries" --headless --out ./data`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHarvest(cmd, g, opts, args)
		},
	}
	bindRunFlags(cmd.Flags(), opts)
	return cmd
}

func bindRunFlags(fs *pflag.FlagSet, o *runOptions) {
	fs.StringVar(&o.url, "url", "", "search results URL (alternative to the positional argument)")
	fs.IntVar(&o.maxItems, "max", 0, "maximum number of places to visit (0 = all)")
	fs.BoolVar(&o.headless, "headless", false, "hide the browser window")
	fs.StringVar(&o.engine, "engine", "", `page engine: "rod" (browser) or "static" (pre-rendered HTML, no scrolling)`)
	fs.StringVar(&o.outDir, "out", "", "output directory")
	fs.StringVar(&o.baseName, "name", "", "output file base name")
	fs.StringVar(&o.sqlitePath, "sqlite", "", "also write the raw records to this SQLite database")
	fs.IntVar(&o.scrollMax, "scroll-max", 0, "maximum scroll attempts on the results feed")
	fs.IntVar(&o.idleRounds, "idle-rounds", -1, "stop scrolling after this many scrolls without new places (0 = never)")
	fs.DurationVar(&o.itemDelay, "item-delay", 0, "pause between place pages")
	fs.BoolVar(&o.noSummary, "no-summary", false, "do not print the summary table")
}
