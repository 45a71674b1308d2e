package main

import (
	"fmt"
	"io"
	"time"

	"github.com/Veraticus/leadflow/internal/cli"
	"github.com/spf13/cobra"
)

func analyticsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Pipeline metrics",
	}
	cmd.AddCommand(analyticsDashboardCmd(), analyticsFunnelCmd(), analyticsSLACmd())
	return cmd
}

func analyticsDashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Headline numbers for today",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				d, err := a.engine.Dashboard(cmd.Context(), time.Now())
				if err != nil {
					return err
				}
				return emit(cmd, d, func(w io.Writer) error {
					return keyValues(w, "Dashboard",
						[2]string{"Total leads", fmt.Sprint(d.TotalLeads)},
						[2]string{"New today", fmt.Sprint(d.NewLeadsToday)},
						[2]string{"Pending follow-ups", fmt.Sprint(d.PendingFollowUps)},
						[2]string{"Pending approvals", fmt.Sprint(d.PendingApprovals)},
						[2]string{"SLA violations", fmt.Sprint(d.SLAViolations)},
						[2]string{"Avg response", fmt.Sprintf("%.1f min", d.AvgResponseTimeMinutes)},
						[2]string{"Conversion rate", fmt.Sprintf("%.1f%%", d.ConversionRate)},
					)
				})
			})
		},
	}
}

func analyticsFunnelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "funnel",
		Short: "Lead counts per pipeline stage",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				stages, err := a.engine.ConversionFunnel(cmd.Context())
				if err != nil {
					return err
				}
				return emit(cmd, stages, func(w io.Writer) error {
					t := cli.NewTable("STAGE", "COUNT")
					for _, s := range stages {
						t.Row(cli.FormatStatus(s.Status), fmt.Sprint(s.Count))
					}
					return t.Render(w)
				})
			})
		},
	}
}

func analyticsSLACmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sla",
		Short: "How often first responses meet their deadline",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				s, err := a.engine.SLAPerformance(cmd.Context())
				if err != nil {
					return err
				}
				return emit(cmd, s, func(w io.Writer) error {
					return keyValues(w, "SLA performance",
						[2]string{"Assignments", fmt.Sprint(s.TotalAssignments)},
						[2]string{"Completed", fmt.Sprint(s.Completed)},
						[2]string{"Met rate", fmt.Sprintf("%.1f%%", s.SLAMetRate)},
						[2]string{"Avg response", fmt.Sprintf("%.1f min", s.AvgResponseTimeMinutes)},
					)
				})
			})
		},
	}
}
