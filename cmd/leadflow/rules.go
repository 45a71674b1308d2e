package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Veraticus/leadflow/internal/cli"
	"github.com/Veraticus/leadflow/internal/common"
	"github.com/Veraticus/leadflow/internal/model"
	"github.com/Veraticus/leadflow/internal/rules"
	"github.com/spf13/cobra"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rules",
		Aliases: []string{"rule"},
		Short:   "Inspect the automation rule catalog",
	}
	cmd.AddCommand(rulesListCmd(), rulesShowCmd(), rulesMatchCmd())
	return cmd
}

func rulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List rules in match order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			all := rules.Default().All()
			return emit(cmd, all, func(w io.Writer) error {
				t := cli.NewTable("NAME", "PRIORITY", "INTENT", "TYPE", "ACTIONS", "DESCRIPTION")
				for _, r := range all {
					t.Row(string(r.Name), orDash(string(r.Criteria.Priority)), orDash(string(r.Criteria.Intent)),
						orDash(string(r.Criteria.LeadType)), fmt.Sprint(len(r.Actions)), cli.Truncate(r.Description, 50))
				}
				return t.Render(w)
			})
		},
	}
}

func rulesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Show a rule and the steps it schedules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rule, ok := rules.Default().Lookup(model.RuleName(args[0]))
			if !ok {
				return common.NewUserError(fmt.Sprintf("no rule named %q", args[0]), common.ErrNotFound)
			}
			return showRule(cmd, rule)
		},
	}
}

func rulesMatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Show which rule a categorization selects",
		Example: `  leadflow rules match --priority high --intent quote_request --type architect`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			priority, _ := cmd.Flags().GetString("priority")
			intent, _ := cmd.Flags().GetString("intent")
			leadType, _ := cmd.Flags().GetString("type")
			rule := rules.Default().Match(model.Categorization{
				Priority: model.Priority(strings.ToLower(priority)),
				Intent:   model.Intent(strings.ToLower(intent)),
				LeadType: model.LeadType(strings.ToLower(leadType)),
			})
			return showRule(cmd, rule)
		},
	}
	cmd.Flags().String("priority", "", "high, medium or low")
	cmd.Flags().String("intent", "", "quote_request, information, complaint, partnership or product_info")
	cmd.Flags().String("type", "", "architect, builder, contractor or homeowner")
	return cmd
}

func showRule(cmd *cobra.Command, rule model.AutomationRule) error {
	plan, err := rules.Interpret(rule)
	if err != nil {
		return err
	}
	return emit(cmd, rule, func(w io.Writer) error {
		if err := keyValues(w, string(rule.Name),
			[2]string{"Description", rule.Description},
			[2]string{"Priority", orDash(string(rule.Criteria.Priority))},
			[2]string{"Intent", orDash(string(rule.Criteria.Intent))},
			[2]string{"Type", orDash(string(rule.Criteria.LeadType))},
		); err != nil {
			return err
		}
		t := cli.NewTable("#", "ACTION", "AFTER", "DETAIL")
		for i, s := range plan.Steps {
			t.Row(fmt.Sprint(i+1), string(s.Type), formatDelay(s.After), cli.Truncate(s.Description, 60))
		}
		return renderSection(w, "Steps", t)
	})
}

func formatDelay(d time.Duration) string {
	switch {
	case d == 0:
		return "now"
	case d%(24*time.Hour) == 0:
		return fmt.Sprintf("%dd", d/(24*time.Hour))
	case d%time.Hour == 0:
		return fmt.Sprintf("%dh", d/time.Hour)
	default:
		return d.String()
	}
}
