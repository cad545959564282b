package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"canconf/internal/catalog"
	"canconf/internal/scrape"
)

func newScrapeCommand(o *options) *cobra.Command {
	var (
		pageURL string
		pretty  bool
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Find Canadian MLH hackathons missing from the catalog",
		Long: `Render the MLH season listing in headless Chromium, keep the Canadian
events whose name is not already in the catalog and print them as a catalog
JSON document ({"events": [...]}) ready to be merged by hand.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := o.loadConfig(cmd)
			if err != nil {
				return err
			}
			cat, err := loadCatalog(cfg)
			if err != nil {
				return err
			}
			if pageURL == "" {
				pageURL = cfg.Scrape.URL
			}
			if timeout <= 0 {
				timeout = cfg.Scrape.Timeout()
			}

			r := o.renderer
			if r == nil {
				r = scrape.ChromeRenderer{Timeout: timeout}
			}
			events, err := scrape.Run(cmd.Context(), r, pageURL, cat)
			if err != nil {
				return err
			}

			data, err := catalog.Marshal(events, pretty)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}
	cmd.Flags().StringVar(&pageURL, "url", "", "listing URL (default: scrape.url from config)")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent the JSON output")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "render timeout (default: scrape.timeout_seconds from config)")
	return cmd
}
