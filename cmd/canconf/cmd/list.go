package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"canconf/internal/catalog"
	"canconf/internal/filter"
	"canconf/internal/model"
)

func newListCommand(o *options) *cobra.Command {
	var (
		past     bool
		province string
		query    string
		typ      string
		today    string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the upcoming (or past) events",
		Long: `Print one tab of the directory: upcoming events earliest first, or with
--past the finished ones most recent first. Filters are applied after sorting.`,
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

			var pinned *time.Time
			if today != "" {
				loc, _ := cfg.Location()
				t, err := time.ParseInLocation(time.DateOnly, today, loc)
				if err != nil {
					return fmt.Errorf("--today must be YYYY-MM-DD: %w", err)
				}
				pinned = &t
			}
			engine := newEngine(cfg, pinned)

			et := model.EventType(strings.ToLower(typ))
			if et != "" && !et.Valid() {
				return fmt.Errorf("unknown event type %q", typ)
			}

			now := engine.Now()
			var events []model.Event
			if past {
				events = engine.Past(cat.Events(), now)
			} else {
				events = engine.Upcoming(cat.Events(), now)
			}
			events = filter.Apply(events, filter.Criteria{Province: province, Query: query, Type: et})

			out := cmd.OutOrStdout()
			if asJSON {
				data, err := catalog.Marshal(events, true)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, string(data))
				return err
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			for _, ev := range events {
				r := engine.Resolve(ev.Date)
				day := r.Day()
				if r.IsFallback {
					day = "TBD"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", day, ev.Name, ev.Type, ev.Location, ev.Date)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&past, "past", false, "show past events instead of upcoming")
	cmd.Flags().StringVar(&province, "province", "", "two-letter province code (ALL for every province)")
	cmd.Flags().StringVarP(&query, "query", "q", "", "case-insensitive text search")
	cmd.Flags().StringVar(&typ, "type", "", "conference, hackathon or meetup")
	cmd.Flags().StringVar(&today, "today", "", "reference day YYYY-MM-DD (default: now)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the events as a catalog JSON document")
	return cmd
}
