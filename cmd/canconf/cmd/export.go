package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"canconf/internal/ics"
	appLog "canconf/internal/log"
)

func newExportICSCommand(o *options) *cobra.Command {
	var (
		out string
		all bool
	)

	cmd := &cobra.Command{
		Use:   "export-ics",
		Short: "Write the upcoming events as an iCalendar feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := o.loadConfig(cmd)
			if err != nil {
				return err
			}
			cat, err := loadCatalog(cfg)
			if err != nil {
				return err
			}
			engine := newEngine(cfg, nil)

			events := cat.Events()
			if all {
				events = engine.SortByDate(events, true)
			} else {
				events = engine.Upcoming(events, engine.Now())
			}
			body := ics.Export(events, engine)

			if out == "" || out == "-" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), body)
				return err
			}
			if err := os.WriteFile(out, []byte(body), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			appLog.Info("ics exported", "path", out, "events", len(events))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&all, "all", false, "include past events")
	return cmd
}
