package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"canconf/internal/catalog"
	"canconf/internal/dates"
	"canconf/internal/ics"
	appLog "canconf/internal/log"
	"canconf/internal/metrics"
	"canconf/internal/web"
)

func newServeCommand(o *options) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the directory API (default command)",
		Long: `Serve the HTTP API. ICS meetup feeds from the config are imported at
startup and again on the refresh schedule; the catalog is swapped in place.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := o.loadConfig(cmd)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}
			base, err := loadCatalog(cfg)
			if err != nil {
				return err
			}

			metrics.Init(Version)
			engine := newEngine(cfg, nil)
			srv := web.NewServer(cfg, base, engine)
			r := &refresher{
				base:     base,
				importer: ics.NewImporter(cfg),
				server:   srv,
				engine:   engine,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			appLog.Info("canconf starting",
				"version", Version,
				"listen", cfg.Listen,
				"timezone", cfg.Timezone,
				"catalog_events", base.Len(),
				"ics_count", len(r.importer.Sources),
				"refresh", cfg.RefreshCron,
			)

			r.run(ctx)

			c := cron.New(cron.WithLocation(engine.Location()))
			if _, err := c.AddFunc(cfg.RefreshCron, func() { r.run(ctx) }); err != nil {
				return fmt.Errorf("invalid refresh schedule %q: %w", cfg.RefreshCron, err)
			}
			c.Start()
			defer c.Stop()

			if err := srv.Serve(ctx); err != nil {
				return fmt.Errorf("http server: %w", err)
			}
			appLog.Info("canconf exiting")
			return nil
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config)")
	return cmd
}

// refresher re-imports ICS meetups and swaps the served catalog.
type refresher struct {
	base     *catalog.Catalog
	importer *ics.Importer
	server   *web.Server
	engine   *dates.Engine
}

func (r *refresher) run(ctx context.Context) {
	start := time.Now()
	defer func() { metrics.RefreshDuration.Observe(time.Since(start).Seconds()) }()

	if len(r.importer.Sources) == 0 {
		r.server.SetCatalog(r.base)
		return
	}

	imported, err := r.importer.Import(ctx, r.engine.Now())
	if err != nil {
		// Keep serving whatever was loaded last.
		appLog.Error("catalog refresh failed", err)
		return
	}
	merged := r.base.Merge(imported)
	r.server.SetCatalog(merged)
	appLog.Info("catalog refreshed", "imported", len(imported), "events", merged.Len())
}
