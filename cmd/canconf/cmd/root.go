package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"canconf/internal/catalog"
	"canconf/internal/config"
	"canconf/internal/dates"
	appLog "canconf/internal/log"
	"canconf/internal/scrape"
)

// options holds global flag values for one command tree.
type options struct {
	configPath  string
	logLevel    string
	logFormat   string
	catalogPath string

	// renderer replaces the headless browser in the scrape command.
	renderer scrape.Renderer
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	return newRootCommandWith(&options{})
}

func newRootCommandWith(o *options) *cobra.Command {
	serve := newServeCommand(o)

	root := &cobra.Command{
		Use:   "canconf",
		Short: "CanConf - directory of Canadian tech conferences, hackathons and meetups",
		Long: `CanConf serves a directory of Canadian tech events.

Event dates are free text ("September 12-14, 2025"); the directory reads a
calendar day out of each one to split events into upcoming and past and to
order them. Meetups can be imported from ICS feeds and new Canadian
hackathons discovered on the MLH season listing.`,
		SilenceUsage: true,
		RunE:         serve.RunE,
	}

	root.PersistentFlags().StringVar(&o.configPath, "config", "", "config file path (optional; created with defaults when missing)")
	root.PersistentFlags().StringVar(&o.logLevel, "log-level", "", "log level (debug, info, warn, error) (default: info)")
	root.PersistentFlags().StringVar(&o.logFormat, "log-format", "", "log format (json, console) (default: json)")
	root.PersistentFlags().StringVar(&o.catalogPath, "catalog", "", "events JSON file (default: built-in dataset)")

	root.AddCommand(serve)
	root.AddCommand(newListCommand(o))
	root.AddCommand(newExportICSCommand(o))
	root.AddCommand(newScrapeCommand(o))
	root.AddCommand(newVersionCommand())
	return root
}

// loadConfig resolves configuration from file, environment and flags, in
// increasing precedence, and configures logging to cmd's error stream.
func (o *options) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	if o.configPath == "" {
		cfg = config.DefaultConfig()
	} else {
		loaded, err := config.Load(o.configPath)
		if err != nil {
			return nil, fmt.Errorf("load config %s: %w", o.configPath, err)
		}
		cfg = loaded
	}
	cfg.ApplyEnv()

	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Log.Format = o.logFormat
	}
	if o.catalogPath != "" {
		cfg.CatalogPath = o.catalogPath
	}
	cfg.Normalize()

	appLog.Setup(cmd.ErrOrStderr(), cfg.Log.Format, cfg.Log.Level)
	return cfg, nil
}

// newEngine builds the date engine in the configured zone. A non-nil today
// pins the clock.
func newEngine(cfg *config.Config, today *time.Time) *dates.Engine {
	loc, err := cfg.Location()
	if err != nil {
		appLog.Warn("unknown timezone; using local time", "timezone", cfg.Timezone, "error", err.Error())
	}
	opts := []dates.Option{dates.WithLocation(loc)}
	if today != nil {
		opts = append(opts, dates.WithClock(dates.FixedClock(*today)))
	}
	return dates.New(opts...)
}

func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	appLog.Debug("catalog loaded", "path", cfg.CatalogPath, "events", cat.Len())
	return cat, nil
}
