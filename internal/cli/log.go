package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mindmesh/mindmesh-client/internal/dailylog/domain"
	"github.com/mindmesh/mindmesh-client/internal/dailylog/service"
	"github.com/mindmesh/mindmesh-client/internal/session"
	"github.com/spf13/cobra"
)

// localSession keys the terminal client's in-memory state.
const localSession = "local"

func newLogCmd(a *app) *cobra.Command {
	var (
		mood, energy, stress int
		sleep                float64
		journal              string
		analyze              bool
	)
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Log today's metrics and get your daily protocol",
		Example: `  mindmesh log --mood 4 --energy 3 --stress 2 --sleep 7.5
  mindmesh log --journal "slept badly, big deadline" --analyze`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.authedClient()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			store, err := session.NewMemoryStore(1, time.Hour)
			if err != nil {
				return err
			}
			svc := service.NewDraftService(store)

			var patch domain.Patch
			flags := cmd.Flags()
			if flags.Changed("mood") {
				patch.Mood = &mood
			}
			if flags.Changed("energy") {
				patch.Energy = &energy
			}
			if flags.Changed("stress") {
				patch.Stress = &stress
			}
			if flags.Changed("sleep") {
				patch.Sleep = &sleep
			}
			if flags.Changed("journal") {
				patch.Journal = &journal
			}

			draft, err := svc.Update(ctx, localSession, patch)
			if err != nil {
				return err
			}

			if analyze {
				draft, err = svc.AnalyzeJournal(ctx, localSession, client)
				if err != nil {
					return a.check(err)
				}
				fmt.Fprintln(a.out, "Journal analysis:")
			}
			printMetrics(a.out, draft)

			draft, err = svc.Submit(ctx, localSession, client)
			if err != nil {
				return a.check(err)
			}
			printProtocol(a.out, draft.Protocol)
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVar(&mood, "mood", domain.DefaultMetric, "mood 1-5")
	f.IntVar(&energy, "energy", domain.DefaultMetric, "energy 1-5")
	f.IntVar(&stress, "stress", domain.DefaultMetric, "stress 1-5")
	f.Float64Var(&sleep, "sleep", domain.DefaultSleep, "hours slept, half-hour steps")
	f.StringVar(&journal, "journal", "", "free-text journal entry")
	f.BoolVar(&analyze, "analyze", false, "infer mood, energy and stress from the journal before submitting")
	return cmd
}

func printMetrics(w io.Writer, d *domain.Draft) {
	fmt.Fprintf(w, "  mood    %d  %s\n", d.Mood, domain.Label("mood", d.Mood))
	fmt.Fprintf(w, "  energy  %d  %s\n", d.Energy, domain.Label("energy", d.Energy))
	fmt.Fprintf(w, "  stress  %d  %s\n", d.Stress, domain.Label("stress", d.Stress))
	fmt.Fprintf(w, "  sleep   %gh\n", d.Sleep)
}

func printProtocol(w io.Writer, p *domain.Protocol) {
	if p == nil {
		return
	}
	if p.HasSafetyAlert() {
		alert := p.SafetyAlert
		fmt.Fprintf(w, "\n!! %s\n%s\n", alert.Title, alert.Message)
		if alert.Action != "" {
			fmt.Fprintln(w, alert.Action)
		}
		if alert.Helpline != "" {
			fmt.Fprintf(w, "Helpline: %s\n", alert.Helpline)
		}
	}
	if p.Message != "" {
		fmt.Fprintf(w, "\n%s\n", p.Message)
	}
	printSection(w, "Suggestions", p.Suggestions)
	printSection(w, "Insights from the web", p.WebInsights)
	printSection(w, "Resources", p.Resources)
}

// printSection renders a pass-through section: a list prints one item per
// line, anything else prints as indented JSON.
func printSection(w io.Writer, title string, raw json.RawMessage) {
	if len(raw) == 0 || string(raw) == "null" {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", title)

	var items []any
	if err := json.Unmarshal(raw, &items); err == nil {
		for _, item := range items {
			fmt.Fprintf(w, "  - %s\n", itemText(item))
		}
		return
	}

	out, err := json.MarshalIndent(json.RawMessage(raw), "  ", "  ")
	if err != nil {
		out = raw
	}
	fmt.Fprintf(w, "  %s\n", out)
}

func itemText(item any) string {
	switch v := item.(type) {
	case string:
		return v
	case map[string]any:
		for _, key := range []string{"title", "text", "suggestion", "name", "message"} {
			if s, ok := v[key].(string); ok && s != "" {
				if desc, ok := v["description"].(string); ok && desc != "" && key == "title" {
					return s + ": " + desc
				}
				return s
			}
		}
	}
	data, _ := json.Marshal(item)
	return strings.TrimSpace(string(data))
}
