package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Veraticus/leadflow/internal/cli"
	"github.com/Veraticus/leadflow/internal/common"
	"github.com/Veraticus/leadflow/internal/model"
	"github.com/Veraticus/leadflow/internal/service"
	"github.com/spf13/cobra"
)

func leadsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "leads",
		Aliases: []string{"lead"},
		Short:   "Inspect and manage leads",
	}
	cmd.AddCommand(leadsListCmd(), leadsShowCmd(), leadsUpdateCmd(), leadsStatusCmd(), leadsRecategorizeCmd())
	return cmd
}

// actorFlag registers --actor on commands that record who acted.
func actorFlag(cmd *cobra.Command) {
	cmd.Flags().String("actor", "", "Who is acting (defaults to $USER)")
}

func actorName(cmd *cobra.Command) string {
	if v, _ := cmd.Flags().GetString("actor"); v != "" {
		return v
	}
	return os.Getenv("USER")
}

func leadsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List leads, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, _ := cmd.Flags().GetString("status")
			limit, _ := cmd.Flags().GetInt("limit")
			offset, _ := cmd.Flags().GetInt("offset")

			filter := service.LeadFilter{Status: model.LeadStatus(status), Limit: limit, Offset: offset}
			if filter.Status != "" && !filter.Status.Valid() {
				return common.NewUserError(fmt.Sprintf("unknown status %q", status), common.ErrInvalidStatus)
			}

			return withApp(cmd.Context(), func(a *app) error {
				leads, err := a.engine.ListLeads(cmd.Context(), filter)
				if err != nil {
					return err
				}
				return emit(cmd, leads, func(w io.Writer) error {
					if len(leads) == 0 {
						return writeLine(w, cli.FormatInfo("No leads found"))
					}
					t := cli.NewTable("ID", "NAME", "EMAIL", "COMPANY", "STATUS", "SOURCE", "CREATED")
					for _, l := range leads {
						t.Row(l.ID, cli.Truncate(l.Name, 24), l.Email, cli.Truncate(orDash(l.Company), 20),
							cli.FormatStatus(l.Status), l.Source, fmtTime(l.CreatedAt))
					}
					return t.Render(w)
				})
			})
		},
	}
	cmd.Flags().String("status", "", "Only leads in this status")
	cmd.Flags().Int("limit", 50, "Maximum leads to show (0 for all)")
	cmd.Flags().Int("offset", 0, "Skip this many leads")
	return cmd
}

func leadsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a lead with its products, activity and assignments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				d, err := a.engine.GetLeadDetails(cmd.Context(), args[0])
				if err != nil {
					return notFoundHint("lead", args[0], err)
				}
				return emit(cmd, d, func(w io.Writer) error {
					return printLeadDetails(w, d)
				})
			})
		},
	}
}

func printLeadDetails(w io.Writer, d *model.LeadDetails) error {
	l := d.Lead
	if err := keyValues(w, l.Name,
		[2]string{"ID", l.ID},
		[2]string{"Email", l.Email},
		[2]string{"Phone", orDash(l.Phone)},
		[2]string{"Company", orDash(l.Company)},
		[2]string{"Role", orDash(l.Role)},
		[2]string{"Location", orDash(l.Location)},
		[2]string{"Status", cli.FormatStatus(l.Status)},
		[2]string{"Source", l.Source},
		[2]string{"Created", fmtTime(l.CreatedAt)},
		[2]string{"Last contact", fmtTimePtr(l.LastContactAt)},
		[2]string{"Converted", fmtTimePtr(l.ConversionDate)},
	); err != nil {
		return err
	}
	if l.Message != "" {
		if err := writeLine(w, cli.SubtleStyle.Render(l.Message)+"\n"); err != nil {
			return err
		}
	}

	if len(d.Products) > 0 {
		t := cli.NewTable("CATEGORY", "PRODUCT", "QUANTITY", "NOTES")
		for _, p := range d.Products {
			t.Row(p.Category, p.Product, orDash(p.Quantity.Raw), cli.Truncate(orDash(p.Notes), 40))
		}
		if err := renderSection(w, "Products", t); err != nil {
			return err
		}
	}

	if len(d.Assignments) > 0 {
		t := cli.NewTable("ID", "OWNER", "STATUS", "DEADLINE", "COMPLETED")
		for _, a := range d.Assignments {
			t.Row(a.ID, a.OwnerName, string(a.Status), fmtTime(a.SLADeadline), fmtTimePtr(a.CompletedAt))
		}
		if err := renderSection(w, "Assignments", t); err != nil {
			return err
		}
	}

	t := cli.NewTable("WHEN", "TYPE", "STATUS", "ACTOR", "MESSAGE")
	for _, a := range d.Activities {
		t.Row(fmtTime(a.CreatedAt), string(a.Type), string(a.Status), string(a.ActorType), cli.Truncate(a.Message, 60))
	}
	return renderSection(w, "Activity", t)
}

func renderSection(w io.Writer, title string, t *cli.Table) error {
	if err := writeLine(w, cli.FormatTitle(title)); err != nil {
		return err
	}
	return t.Render(w)
}

func leadsUpdateCmd() *cobra.Command {
	fields := []string{"name", "email", "phone", "company", "role", "location", "message"}
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Correct a lead's contact details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var update model.LeadUpdate
			targets := map[string]**string{
				"name":     &update.Name,
				"email":    &update.Email,
				"phone":    &update.Phone,
				"company":  &update.Company,
				"role":     &update.Role,
				"location": &update.Location,
				"message":  &update.Message,
			}
			changed := 0
			for _, f := range fields {
				if !cmd.Flags().Changed(f) {
					continue
				}
				v, _ := cmd.Flags().GetString(f)
				*targets[f] = &v
				changed++
			}
			if changed == 0 {
				return common.NewUserError("nothing to update: pass at least one of --"+strings.Join(fields, ", --"), nil)
			}

			return withApp(cmd.Context(), func(a *app) error {
				lead, err := a.engine.UpdateLead(cmd.Context(), args[0], update)
				if err != nil {
					return notFoundHint("lead", args[0], err)
				}
				return emit(cmd, lead, func(w io.Writer) error {
					return writeLine(w, cli.FormatSuccess("Updated lead "+lead.ID))
				})
			})
		},
	}
	for _, f := range fields {
		cmd.Flags().String(f, "", "New "+f)
	}
	return cmd
}

func leadsStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "status ID STATUS",
		Short:     "Move a lead to another pipeline stage",
		Long:      "Move a lead to another pipeline stage: new, contacted, nurturing, qualified, converted or lost.",
		Args:      cobra.ExactArgs(2),
		ValidArgs: statusNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			status := model.LeadStatus(strings.ToLower(args[1]))
			if !status.Valid() {
				return common.NewUserError(
					fmt.Sprintf("unknown status %q (want one of %s)", args[1], strings.Join(statusNames(), ", ")),
					common.ErrInvalidStatus)
			}
			return withApp(cmd.Context(), func(a *app) error {
				lead, err := a.engine.UpdateStatus(cmd.Context(), args[0], status, actorName(cmd))
				if err != nil {
					return notFoundHint("lead", args[0], err)
				}
				return emit(cmd, lead, func(w io.Writer) error {
					return writeLine(w, cli.FormatSuccess(fmt.Sprintf("%s is now %s", lead.Name, cli.FormatStatus(lead.Status))))
				})
			})
		},
	}
	actorFlag(cmd)
	return cmd
}

func statusNames() []string {
	names := make([]string, 0, len(model.LeadStatuses))
	for _, s := range model.LeadStatuses {
		names = append(names, string(s))
	}
	return names
}

func leadsRecategorizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recategorize ID",
		Short: "Categorize a lead again, ignoring cached results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				r, err := a.engine.Recategorize(cmd.Context(), args[0])
				if err != nil {
					return notFoundHint("lead", args[0], err)
				}
				rule := a.engine.Catalog().Match(r.Output)
				return emit(cmd, r, func(w io.Writer) error {
					return keyValues(w, "Categorization",
						[2]string{"Priority", cli.FormatPriority(r.Output.Priority)},
						[2]string{"Intent", string(r.Output.Intent)},
						[2]string{"Type", string(r.Output.LeadType)},
						[2]string{"Method", string(r.Method)},
						[2]string{"Model", orDash(r.Model)},
						[2]string{"Rule", string(rule.Name)},
						[2]string{"Reasoning", orDash(r.Output.Reasoning)},
						[2]string{"Suggested", orDash(strings.Join(r.Output.SuggestedActions, "; "))},
					)
				})
			})
		},
	}
}
