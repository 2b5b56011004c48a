package admin

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/habitkeeper/internal/server/models"
	"github.com/dmitrijs2005/habitkeeper/internal/server/onboarding"
	"github.com/spf13/cobra"
)

type onboardOptions struct {
	email    string
	timezone string
	metrics  []string
}

func NewOnboardCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &onboardOptions{}

	cmd := &cobra.Command{
		Use:   "onboard",
		Short: "Walk an account through onboarding",
		Long: `Walk an account through the onboarding wizard from the terminal.

Goals are picked by number or name, activities are typed as a comma
separated list. Answering "back" on the activity step returns to goals.
Running it again for an onboarded account re-applies the activity set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withBackend(cmd.Context(), func(b *Backend) error {
				return runOnboard(cmd, b, opts)
			})
		},
	}

	cmd.Flags().StringVar(&opts.email, "email", "", "account email")
	cmd.Flags().StringVar(&opts.timezone, "timezone", "", "IANA timezone (defaults to the account's)")
	cmd.Flags().StringSliceVar(&opts.metrics, "metrics", nil, "metric names to create (defaults apply when empty)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func runOnboard(cmd *cobra.Command, b *Backend, opts *onboardOptions) error {
	ctx := cmd.Context()
	w := cmd.OutOrStdout()
	reader := bufio.NewReader(cmd.InOrStdin())

	u, err := b.Accounts.LookupByEmail(ctx, opts.email)
	if err != nil {
		return err
	}
	if u.IsOnboardingComplete {
		fmt.Fprintln(w, "Onboarding is already complete; answers will replace the activity set.")
	}

	tz := opts.timezone
	if tz == "" {
		tz = u.Timezone
	}
	wizard := onboarding.NewWizard(tz)
	if err := wizard.Start(); err != nil {
		return err
	}
	fmt.Fprintf(w, "Welcome, %s!\n", models.DisplayName(u))

	submitter := b.Onboarding.Submitter(u.ID, opts.metrics)
	for wizard.Step() != onboarding.Done {
		switch wizard.Step() {
		case onboarding.GoalSelection:
			line, err := GetSimpleText(reader, goalPrompt(), w)
			if err != nil {
				return err
			}
			if err := wizard.SelectGoals(parseGoals(line)); err != nil {
				return err
			}

		case onboarding.ActivitySelection:
			line, err := GetSimpleText(reader, "Activities to track (comma separated, \"back\" for goals)", w)
			if err != nil {
				return err
			}
			if strings.EqualFold(line, "back") {
				if err := wizard.Back(); err != nil {
					return err
				}
				continue
			}
			if err := wizard.SelectActivities(SplitList(line)); err != nil {
				if errors.Is(err, onboarding.ErrNoActivities) {
					fmt.Fprintln(w, "Pick at least one activity.")
					continue
				}
				return err
			}
			if err := wizard.Submit(ctx, submitter); err != nil {
				fmt.Fprintf(w, "Could not save onboarding: %v\n", err)
			}

		default:
			return fmt.Errorf("unexpected onboarding step %s", wizard.Step())
		}
	}

	data := wizard.Data()
	fmt.Fprintf(w, "Onboarding complete for %s: %s\n", u.Email, strings.Join(data.Activities, ", "))
	return nil
}

func goalPrompt() string {
	var sb strings.Builder
	sb.WriteString("Choose goals by number or name (comma separated, empty for none)")
	for i, g := range onboarding.Goals {
		fmt.Fprintf(&sb, "\n  %d) %s", i+1, g)
	}
	return sb.String()
}

// parseGoals maps numbered answers to the offered goals and keeps anything
// else as a custom goal.
func parseGoals(line string) []string {
	items := SplitList(line)
	goals := make([]string, 0, len(items))
	for _, item := range items {
		if n, err := strconv.Atoi(item); err == nil && n >= 1 && n <= len(onboarding.Goals) {
			goals = append(goals, onboarding.Goals[n-1])
			continue
		}
		goals = append(goals, item)
	}
	return goals
}
