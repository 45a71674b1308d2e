package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Veraticus/leadflow/internal/cli"
	"github.com/Veraticus/leadflow/internal/common"
	"github.com/Veraticus/leadflow/internal/engine"
	"github.com/spf13/cobra"
)

func assignmentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "assignments",
		Aliases: []string{"assignment"},
		Short:   "Track owner assignments and SLA deadlines",
	}
	cmd.AddCommand(assignmentsViolationsCmd(), assignmentsCompleteCmd(), assignmentsReassignCmd())
	return cmd
}

func assignmentsViolationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "violations",
		Short: "List active assignments past their SLA deadline",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				vs, err := a.engine.SLAViolations(cmd.Context(), time.Now())
				if err != nil {
					return err
				}
				return emit(cmd, vs, func(w io.Writer) error {
					if len(vs) == 0 {
						return writeLine(w, cli.FormatSuccess("No SLA violations"))
					}
					t := cli.NewTable("ASSIGNMENT", "LEAD", "EMAIL", "OWNER", "DEADLINE", "OVERDUE")
					for _, v := range vs {
						t.Row(v.Assignment.ID, cli.Truncate(v.LeadName, 24), v.LeadEmail, v.Assignment.OwnerName,
							fmtTime(v.Assignment.SLADeadline), cli.ErrorStyle.Render(formatMinutes(v.MinutesOverdue)))
					}
					return t.Render(w)
				})
			})
		},
	}
}

func formatMinutes(m int) string {
	if m < 60 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh%02dm", m/60, m%60)
}

func assignmentsCompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete ID",
		Short: "Record the first response on an assignment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				as, err := a.engine.CompleteAssignment(cmd.Context(), args[0], time.Now())
				if err != nil {
					return assignmentError(args[0], err)
				}
				return emit(cmd, as, func(w io.Writer) error {
					msg := fmt.Sprintf("Completed in %s", formatMinutes(derefInt(as.ResponseTimeMinutes)))
					if as.SLAMet != nil && *as.SLAMet {
						return writeLine(w, cli.FormatSuccess(msg+", within SLA"))
					}
					return writeLine(w, cli.FormatWarning(msg+", SLA missed"))
				})
			})
		},
	}
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func assignmentsReassignCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reassign ID",
		Short: "Hand an active assignment to another owner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, _ := cmd.Flags().GetString("owner")
			name, _ := cmd.Flags().GetString("owner-name")
			reason, _ := cmd.Flags().GetString("reason")
			rawDeadline, _ := cmd.Flags().GetString("deadline")

			r := engine.Reassignment{OwnerID: owner, OwnerName: name, Reason: reason}
			if rawDeadline != "" {
				d, err := parseUntil(rawDeadline, time.Now())
				if err != nil {
					return common.NewUserError(err.Error(), nil)
				}
				r.Deadline = d
			}

			return withApp(cmd.Context(), func(a *app) error {
				as, err := a.engine.Reassign(cmd.Context(), args[0], r)
				if err != nil {
					return assignmentError(args[0], err)
				}
				return emit(cmd, as, func(w io.Writer) error {
					return writeLine(w, cli.FormatSuccess(fmt.Sprintf("Reassigned to %s as %s, due %s",
						as.OwnerName, as.ID, fmtTime(as.SLADeadline))))
				})
			})
		},
	}
	cmd.Flags().String("owner", "", "New owner ID")
	cmd.Flags().String("owner-name", "", "New owner display name (defaults to the ID)")
	cmd.Flags().String("reason", "", "Why the lead changes hands")
	cmd.Flags().String("deadline", "", "New SLA deadline: RFC 3339 or duration from now (keeps the old one when empty)")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func assignmentError(id string, err error) error {
	switch {
	case engine.IsNotFound(err):
		return notFoundHint("assignment", id, err)
	case errors.Is(err, common.ErrAlreadyResolved), errors.Is(err, common.ErrInvalidSubmission):
		return common.NewUserError(err.Error(), err)
	}
	return err
}
