package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Veraticus/leadflow/internal/cli"
	"github.com/Veraticus/leadflow/internal/common"
	"github.com/Veraticus/leadflow/internal/engine"
	"github.com/Veraticus/leadflow/internal/model"
	"github.com/spf13/cobra"
)

func approvalsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "approvals",
		Aliases: []string{"approval"},
		Short:   "Work the manager approval queue",
	}
	cmd.AddCommand(approvalsListCmd(), approvalsApproveCmd(), approvalsRejectCmd(), approvalsStatsCmd())
	return cmd
}

func approvalsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List approvals, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, _ := cmd.Flags().GetString("status")
			return withApp(cmd.Context(), func(a *app) error {
				items, err := a.engine.ListApprovals(cmd.Context(), model.ActivityStatus(status))
				if err != nil {
					return common.NewUserError(err.Error(), err)
				}
				return emit(cmd, items, func(w io.Writer) error {
					if len(items) == 0 {
						return writeLine(w, cli.FormatInfo("No "+status+" approvals"))
					}
					t := cli.NewTable("ID", "LEAD", "COMPANY", "REASON", "PRIORITY", "CREATED")
					for _, act := range items {
						m, _ := act.Metadata.(*model.ApprovalMetadata)
						if m == nil {
							m = &model.ApprovalMetadata{}
						}
						t.Row(act.ID, cli.Truncate(m.LeadName, 24), cli.Truncate(orDash(m.LeadCompany), 20),
							string(m.ApprovalType), cli.FormatPriority(m.Priority), fmtTime(act.CreatedAt))
					}
					return t.Render(w)
				})
			})
		},
	}
	cmd.Flags().String("status", string(model.ActivityPending), "pending, approved or rejected")
	return cmd
}

func approvalsApproveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "approve ID",
		Short: "Approve a pending request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			notes, _ := cmd.Flags().GetString("notes")
			return withApp(cmd.Context(), func(a *app) error {
				act, err := a.engine.Approve(cmd.Context(), args[0], notes, actorName(cmd))
				if err != nil {
					return approvalError(args[0], err)
				}
				return emit(cmd, act, func(w io.Writer) error {
					return writeLine(w, cli.FormatSuccess("Approved "+act.ID))
				})
			})
		},
	}
	cmd.Flags().String("notes", "", "Optional approval notes")
	actorFlag(cmd)
	return cmd
}

func approvalsRejectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reject ID",
		Short: "Reject a pending request",
		Long:  "Reject a pending request. A reason is required; without --reason you are asked for one.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reason, _ := cmd.Flags().GetString("reason")
			if strings.TrimSpace(reason) == "" {
				r := cli.NewReader(cmd.InOrStdin(), cmd.ErrOrStderr())
				var err error
				reason, err = r.Ask(cmd.Context(), "Reason for rejection")
				if err != nil {
					return common.NewUserError("a rejection reason is required", common.ErrReasonRequired)
				}
			}
			return withApp(cmd.Context(), func(a *app) error {
				act, err := a.engine.Reject(cmd.Context(), args[0], reason, actorName(cmd))
				if err != nil {
					return approvalError(args[0], err)
				}
				return emit(cmd, act, func(w io.Writer) error {
					return writeLine(w, cli.FormatWarning("Rejected "+act.ID))
				})
			})
		},
	}
	cmd.Flags().String("reason", "", "Why the request is rejected")
	actorFlag(cmd)
	return cmd
}

// approvalError explains the resolution errors an operator can fix.
func approvalError(id string, err error) error {
	switch {
	case engine.IsNotFound(err):
		return notFoundHint("approval", id, err)
	case errors.Is(err, common.ErrAlreadyResolved),
		errors.Is(err, common.ErrWrongActivityType),
		errors.Is(err, common.ErrReasonRequired):
		return common.NewUserError(err.Error(), err)
	}
	return err
}

func approvalsStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count approvals by outcome",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				s, err := a.engine.ApprovalStats(cmd.Context())
				if err != nil {
					return err
				}
				return emit(cmd, s, func(w io.Writer) error {
					return keyValues(w, "Approvals",
						[2]string{"Pending", fmt.Sprint(s.Pending)},
						[2]string{"Approved", fmt.Sprint(s.Approved)},
						[2]string{"Rejected", fmt.Sprint(s.Rejected)},
						[2]string{"Total", fmt.Sprint(s.Total)},
					)
				})
			})
		},
	}
}
