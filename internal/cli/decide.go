package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/mindmesh/mindmesh-client/internal/backend"
	"github.com/mindmesh/mindmesh-client/internal/decision/domain"
	"github.com/mindmesh/mindmesh-client/internal/decision/service"
	"github.com/mindmesh/mindmesh-client/internal/session"
	"github.com/spf13/cobra"
)

func newDecideCmd(a *app) *cobra.Command {
	var (
		form      domain.Request
		skip      bool
		threshold int
	)
	cmd := &cobra.Command{
		Use:   "decide [title]",
		Short: "Analyze a decision, answering clarifying questions as they come",
		Long: `decide submits a decision for analysis. When the backend needs more context
it asks clarifying questions; answer each one, or enter an empty line to skip
the rest and get a verdict with what you have.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.authedClient()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if len(args) == 1 {
				form.Title = args[0]
			}
			if strings.TrimSpace(form.Title) == "" {
				if form.Title, err = a.prompt("What are you deciding? "); err != nil {
					return err
				}
			}

			if !cmd.Flags().Changed("threshold") {
				threshold = a.settings.QuestionThreshold
			}
			store, err := session.NewMemoryStore(1, time.Hour)
			if err != nil {
				return err
			}
			svc := service.NewConversationService(store, domain.Policy{QuestionThreshold: threshold})

			conv, err := svc.UpdateForm(ctx, localSession, domain.FormPatch{
				Title:       &form.Title,
				Description: &form.Description,
				Category:    &form.Category,
				CostImpact:  &form.CostImpact,
				Value:       &form.Value,
				Urgency:     &form.Urgency,
			})
			if err != nil {
				return err
			}

			conv, err = a.converse(cmd, svc, client, func() (*domain.Conversation, error) {
				return svc.Submit(ctx, localSession, client)
			})
			if err != nil {
				return err
			}

			skipped := false
			for conv.State == domain.StateGathering {
				if skip {
					if skipped {
						return fmt.Errorf("backend kept asking questions after skip")
					}
					skipped = true
					conv, err = a.converse(cmd, svc, client, func() (*domain.Conversation, error) {
						return svc.Skip(ctx, localSession, client)
					})
					if err != nil {
						return err
					}
					continue
				}

				q, _ := conv.CurrentQuestion()
				answer, err := a.prompt(fmt.Sprintf("[%d/%d] %s\n> ", conv.Answered()+1, len(conv.Questions), q.Text))
				if err != nil {
					return err
				}
				if strings.TrimSpace(answer) == "" {
					skip = true
					continue
				}
				conv, err = a.converse(cmd, svc, client, func() (*domain.Conversation, error) {
					return svc.Answer(ctx, localSession, client, q.ID, answer)
				})
				if err != nil {
					return err
				}
			}

			printResult(a, conv)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&form.Title, "title", "", "the decision, e.g. \"Switch jobs?\"")
	f.StringVar(&form.Description, "description", "", "context for the decision")
	f.StringVar(&form.Category, "category", domain.DefaultCategory, "decision category")
	f.IntVar(&form.CostImpact, "cost", domain.DefaultRating, "cost impact 1-5")
	f.IntVar(&form.Value, "value", domain.DefaultRating, "expected value 1-5")
	f.IntVar(&form.Urgency, "urgency", domain.DefaultRating, "urgency 1-5")
	f.BoolVar(&skip, "skip", false, "skip clarifying questions")
	f.IntVar(&threshold, "threshold", domain.DefaultQuestionLimit, "answers collected before re-analysis")
	return cmd
}

// converse runs one analysis round and offers a retry when the backend call
// failed for a reason other than authentication.
func (a *app) converse(cmd *cobra.Command, svc *service.ConversationService, client *backend.Client,
	step func() (*domain.Conversation, error)) (*domain.Conversation, error) {

	fmt.Fprintln(a.out, "Analyzing...")
	conv, err := step()
	for err != nil {
		if domain.IsValidation(err) || backend.IsAuthError(err) || conv == nil || conv.FailedCall == nil {
			return conv, a.check(err)
		}
		fmt.Fprintf(a.out, "Analysis failed: %v\n", err)
		again, promptErr := a.prompt("Retry? [y/N] ")
		if promptErr != nil || !strings.EqualFold(strings.TrimSpace(again), "y") {
			return conv, err
		}
		fmt.Fprintln(a.out, "Analyzing...")
		conv, err = svc.Retry(cmd.Context(), localSession, client)
	}
	return conv, nil
}

func printResult(a *app, conv *domain.Conversation) {
	if conv.Result == nil {
		return
	}
	res := conv.Result
	style := domain.StyleFor(res.Verdict)

	fmt.Fprintf(a.out, "\nVerdict: %s\n", res.Verdict)
	if res.Score != nil {
		fmt.Fprintf(a.out, "Score: %.1f/10\n", *res.Score)
	}
	if res.Confidence != nil {
		fmt.Fprintf(a.out, "Confidence: %.0f%%\n", *res.Confidence)
	}
	if style.Message != "" {
		fmt.Fprintln(a.out, style.Message)
	}
	if n := len(conv.History); n > 0 {
		fmt.Fprintf(a.out, "Based on %d answer(s).\n", n)
	}
}
