package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mindmesh/mindmesh-client/internal/analytics/domain"
	"github.com/mindmesh/mindmesh-client/internal/analytics/service"
	"github.com/mindmesh/mindmesh-client/internal/backend"
	"github.com/spf13/cobra"
)

// chartTail is how many of the most recent entries the analytics table shows.
const chartTail = 7

func newAnalyticsCmd(a *app) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Show your health score, recent entries and forecast",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.authedClient()
			if err != nil {
				return err
			}
			dash, err := service.NewAnalyticsService().Dashboard(cmd.Context(), client, days)
			if err != nil {
				return a.check(err)
			}
			printDashboard(a.out, dash)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", domain.DefaultDays, "window in days: 7, 30, 90 or 365")
	return cmd
}

func printDashboard(w io.Writer, d *domain.Dashboard) {
	if d.Empty {
		fmt.Fprintln(w, d.Message)
		return
	}

	fmt.Fprintf(w, "Last %d days: %d entries, %d day streak\n", d.Days, d.DataPoints, d.Streak)
	if h := d.Health; h != nil {
		fmt.Fprintf(w, "Health score: %.0f (%s)", h.Score, h.Band)
		if h.Trend != "" {
			fmt.Fprintf(w, ", trend %s", h.Trend)
		}
		fmt.Fprintln(w)
	}

	if len(d.Chart) > 0 {
		rows := d.Chart
		if len(rows) > chartTail {
			rows = rows[len(rows)-chartTail:]
		}
		fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "WHEN\tMOOD\tENERGY\tSTRESS\tSLEEP")
		for _, r := range rows {
			fmt.Fprintf(tw, "%s\t%g\t%g\t%g\t%gh\n", r.Label, r.Mood, r.Energy, r.Stress, r.Sleep)
		}
		tw.Flush()
	}

	if len(d.Forecast) > 0 {
		fmt.Fprintln(w, "\nNext 7 days:")
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, f := range d.Forecast {
			fmt.Fprintf(tw, "  %s\t%.1f -> %.1f\t%s\t%s confidence\n", f.Metric, f.Current, f.Predicted, f.Trend, f.Confidence)
		}
		tw.Flush()
	}

	for _, in := range d.Insights {
		fmt.Fprintf(w, "\n* %s: %s\n", in.Title, in.Message)
	}
	for _, rec := range d.Recommendations {
		fmt.Fprintf(w, "\n> %s\n", rec.Title)
		for _, action := range rec.Actions {
			fmt.Fprintf(w, "    - %s\n", action)
		}
	}
}

func newInsightsCmd(a *app) *cobra.Command {
	var (
		filter string
		unread bool
	)
	cmd := &cobra.Command{
		Use:   "insights",
		Short: "List stored insights",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.authedClient()
			if err != nil {
				return err
			}
			list, err := service.NewAnalyticsService().Insights(cmd.Context(), client, unread, filter)
			if err != nil {
				return a.check(err)
			}

			if len(list.Insights) == 0 {
				fmt.Fprintln(a.out, "No insights yet.")
				return nil
			}
			for _, in := range list.Insights {
				when := ""
				if at, ok := parseBackendTime(in.CreatedAt); ok {
					when = " (" + humanize.Time(at) + ")"
				}
				fmt.Fprintf(a.out, "[%s] %s%s\n  %s\n", in.InsightType, in.Title, when, in.Message)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&filter, "type", domain.FilterAll, "insight type: "+strings.Join(append([]string{domain.FilterAll}, domain.InsightTypes...), ", "))
	cmd.Flags().BoolVar(&unread, "unread", false, "only unread insights")
	return cmd
}

func newHistoryCmd(a *app) *cobra.Command {
	var days, limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List your logged days",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.authedClient()
			if err != nil {
				return err
			}
			logs, err := service.NewAnalyticsService().History(cmd.Context(), client, days, limit)
			if err != nil {
				return a.check(err)
			}
			if len(logs) == 0 {
				fmt.Fprintln(a.out, domain.EmptyMessage)
				return nil
			}

			tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "WHEN\tMOOD\tENERGY\tSTRESS\tSLEEP")
			for _, e := range logs {
				fmt.Fprintf(tw, "%s\t%g\t%g\t%g\t%gh\n", entryTime(e), e.Mood, e.Energy, e.Stress, e.Sleep)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&days, "days", domain.DefaultDays, "window in days: 7, 30, 90 or 365")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum entries")
	return cmd
}

func entryTime(e backend.LogEntry) string {
	if at, ok := e.At(); ok {
		return humanize.Time(at)
	}
	return "-"
}

func parseBackendTime(raw string) (time.Time, bool) {
	return backend.LogEntry{Timestamp: raw}.At()
}
