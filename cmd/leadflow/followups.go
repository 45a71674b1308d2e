package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Veraticus/leadflow/internal/cli"
	"github.com/Veraticus/leadflow/internal/common"
	"github.com/Veraticus/leadflow/internal/engine"
	"github.com/spf13/cobra"
)

func followUpsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "followups",
		Aliases: []string{"followup", "follow-ups"},
		Short:   "Work the follow-up queue",
	}
	cmd.AddCommand(followUpsListCmd(), followUpsDueCmd(), followUpsCompleteCmd(), followUpsSnoozeCmd(), followUpsStatsCmd())
	return cmd
}

func followUpsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List follow-ups",
		RunE: func(cmd *cobra.Command, _ []string) error {
			view, _ := cmd.Flags().GetString("view")
			return withApp(cmd.Context(), func(a *app) error {
				items, err := a.engine.ListFollowUps(cmd.Context(), engine.FollowUpView(view))
				if err != nil {
					return common.NewUserError(err.Error(), err)
				}
				return emit(cmd, items, func(w io.Writer) error {
					return printFollowUps(w, items, "No "+view+" follow-ups")
				})
			})
		},
	}
	cmd.Flags().String("view", string(engine.FollowUpsPending), "pending, snoozed or completed")
	return cmd
}

func followUpsDueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "due",
		Short: "List pending follow-ups that are due now",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				items, err := a.engine.DueFollowUps(cmd.Context(), time.Now())
				if err != nil {
					return err
				}
				return emit(cmd, items, func(w io.Writer) error {
					return printFollowUps(w, items, "Nothing due")
				})
			})
		},
	}
}

func printFollowUps(w io.Writer, items []engine.FollowUpItem, empty string) error {
	if len(items) == 0 {
		return writeLine(w, cli.FormatInfo(empty))
	}
	t := cli.NewTable("ID", "LEAD", "ACTION", "PRIORITY", "SCHEDULED", "REASON")
	for _, it := range items {
		when := fmtTime(it.FollowUp.ScheduledFor)
		if it.FollowUp.Snoozed {
			when += " (snoozed)"
		}
		t.Row(it.ID, cli.Truncate(it.LeadName, 24), string(it.FollowUp.Action),
			cli.FormatPriority(it.FollowUp.Priority), when, cli.Truncate(it.FollowUp.Reason, 40))
	}
	return t.Render(w)
}

func followUpsCompleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "complete ID",
		Short: "Mark a follow-up done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			notes, _ := cmd.Flags().GetString("notes")
			return withApp(cmd.Context(), func(a *app) error {
				act, err := a.engine.CompleteFollowUp(cmd.Context(), args[0], notes)
				if err != nil {
					return followUpError(args[0], err)
				}
				return emit(cmd, act, func(w io.Writer) error {
					return writeLine(w, cli.FormatSuccess("Completed follow-up "+act.ID))
				})
			})
		},
	}
	cmd.Flags().String("notes", "", "What happened")
	return cmd
}

func followUpsSnoozeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snooze ID",
		Short: "Push a follow-up to a later time",
		Long: `Push a pending follow-up to a later time. --until takes an RFC 3339
timestamp (2026-01-02T15:04:05Z) or a duration from now (4h, 90m).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, _ := cmd.Flags().GetString("until")
			until, err := parseUntil(raw, time.Now())
			if err != nil {
				return common.NewUserError(err.Error(), common.ErrInvalidSnooze)
			}
			return withApp(cmd.Context(), func(a *app) error {
				act, err := a.engine.SnoozeFollowUp(cmd.Context(), args[0], until)
				if err != nil {
					return followUpError(args[0], err)
				}
				return emit(cmd, act, func(w io.Writer) error {
					return writeLine(w, cli.FormatSuccess("Snoozed until "+fmtTime(until)))
				})
			})
		},
	}
	cmd.Flags().String("until", "", "New time: RFC 3339 timestamp or duration from now")
	_ = cmd.MarkFlagRequired("until")
	return cmd
}

// parseUntil reads an RFC 3339 time or a duration relative to now.
func parseUntil(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("--until is required")
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --until %q: want an RFC 3339 time or a duration like 4h", raw)
	}
	return now.Add(d).UTC(), nil
}

func followUpError(id string, err error) error {
	switch {
	case engine.IsNotFound(err):
		return notFoundHint("follow-up", id, err)
	case errors.Is(err, common.ErrAlreadyResolved),
		errors.Is(err, common.ErrWrongActivityType),
		errors.Is(err, common.ErrInvalidSnooze):
		return common.NewUserError(err.Error(), err)
	}
	return err
}

func followUpsStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count follow-ups by state and priority",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				s, err := a.engine.FollowUpStats(cmd.Context())
				if err != nil {
					return err
				}
				return emit(cmd, s, func(w io.Writer) error {
					return keyValues(w, "Follow-ups",
						[2]string{"Pending", fmt.Sprint(s.Pending)},
						[2]string{"Snoozed", fmt.Sprint(s.Snoozed)},
						[2]string{"Completed", fmt.Sprint(s.Completed)},
						[2]string{"High", fmt.Sprint(s.High)},
						[2]string{"Medium", fmt.Sprint(s.Medium)},
						[2]string{"Low", fmt.Sprint(s.Low)},
						[2]string{"Total", fmt.Sprint(s.Total)},
					)
				})
			})
		},
	}
}
