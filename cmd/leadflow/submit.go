package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Veraticus/leadflow/internal/cli"
	"github.com/Veraticus/leadflow/internal/common"
	"github.com/Veraticus/leadflow/internal/engine"
	"github.com/Veraticus/leadflow/internal/model"
	"github.com/spf13/cobra"
)

func submitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a single lead through intake",
		Long: `Run one lead through the full intake pipeline: validation, persistence,
categorization, rule matching, assignment, acknowledgement email, approval
checks and follow-up scheduling.

The lead is read from --file (JSON, "-" for stdin) or built from flags.
Products given with --product use "category:product[:quantity]".`,
		Example: `  leadflow submit --name "Dana Reyes" --email dana@studio.example \
    --role Architect --message "Need a quote for 200 sq ft" \
    --product "tile:Carrara Marble:200 sq ft"
  leadflow submit --file lead.json`,
		RunE: runSubmit,
	}

	cmd.Flags().StringP("file", "f", "", `JSON submission file ("-" for stdin)`)
	cmd.Flags().String("name", "", "Contact name")
	cmd.Flags().String("email", "", "Contact email")
	cmd.Flags().String("phone", "", "Contact phone")
	cmd.Flags().String("company", "", "Company")
	cmd.Flags().String("role", "", "Role (architect, builder, homeowner...)")
	cmd.Flags().String("location", "", "Project location")
	cmd.Flags().String("message", "", "Free-form message")
	cmd.Flags().String("source", "", "Lead source (default website_form)")
	cmd.Flags().StringArray("product", nil, "Product interest as category:product[:quantity] (repeatable)")
	return cmd
}

func runSubmit(cmd *cobra.Command, _ []string) error {
	sub, err := submissionFromFlags(cmd)
	if err != nil {
		return err
	}

	return withApp(cmd.Context(), func(a *app) error {
		sub = a.withDefaultSource(sub)
		result, err := a.engine.Submit(cmd.Context(), sub)
		if err != nil {
			return err
		}
		return emit(cmd, result, func(w io.Writer) error {
			return printIntakeResult(w, result)
		})
	})
}

func submissionFromFlags(cmd *cobra.Command) (model.LeadSubmission, error) {
	var sub model.LeadSubmission

	file, _ := cmd.Flags().GetString("file")
	if file != "" {
		r, closeFn, err := openInput(cmd, file)
		if err != nil {
			return sub, err
		}
		defer closeFn()
		if err := json.NewDecoder(r).Decode(&sub); err != nil {
			return sub, common.NewUserError(fmt.Sprintf("could not parse submission: %v", err), err)
		}
		return sub, nil
	}

	get := func(name string) string {
		v, _ := cmd.Flags().GetString(name)
		return v
	}
	sub = model.LeadSubmission{
		Name:     get("name"),
		Email:    get("email"),
		Phone:    get("phone"),
		Company:  get("company"),
		Role:     get("role"),
		Location: get("location"),
		Message:  get("message"),
		Source:   get("source"),
	}

	raws, _ := cmd.Flags().GetStringArray("product")
	for _, raw := range raws {
		p, err := parseProduct(raw)
		if err != nil {
			return sub, err
		}
		sub.Products = append(sub.Products, p)
	}
	return sub, nil
}

// parseProduct reads "category:product[:quantity]".
func parseProduct(raw string) (model.ProductRequest, error) {
	parts := strings.SplitN(raw, ":", 3)
	if len(parts) < 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
		return model.ProductRequest{}, common.NewUserError(
			fmt.Sprintf("invalid --product %q: expected category:product[:quantity]", raw), nil)
	}
	p := model.ProductRequest{
		Category: strings.TrimSpace(parts[0]),
		Product:  strings.TrimSpace(parts[1]),
	}
	if len(parts) == 3 {
		p.Quantity = model.TextQuantity(strings.TrimSpace(parts[2]))
	}
	return p, nil
}

// openInput opens path, or stdin for "-".
func openInput(cmd *cobra.Command, path string) (io.Reader, func(), error) {
	if path == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}
	f, err := os.Open(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return nil, nil, common.NewUserError(fmt.Sprintf("could not open %s", path), err)
	}
	return f, func() { _ = f.Close() }, nil
}

func printIntakeResult(w io.Writer, r *engine.IntakeResult) error {
	owner := "-"
	if r.Assignment != nil {
		owner = fmt.Sprintf("%s (due %s)", r.Assignment.OwnerName, fmtTime(r.Assignment.SLADeadline))
	}
	followUp := "-"
	if r.FollowUp != nil {
		if m, ok := r.FollowUp.Metadata.(*model.FollowUpMetadata); ok {
			followUp = fmt.Sprintf("%s at %s", m.Action, fmtTime(m.ScheduledFor))
		}
	}
	approval := "not required"
	if r.Approval != nil {
		if m, ok := r.Approval.Metadata.(*model.ApprovalMetadata); ok {
			approval = cli.WarningStyle.Render("pending: " + string(m.ApprovalType))
		}
	}
	emailSent := cli.FormatWarning("not sent")
	if r.EmailSent {
		emailSent = cli.FormatSuccess("sent")
	}

	return keyValues(w, "Lead "+r.Lead.ID,
		[2]string{"Name", r.Lead.Name},
		[2]string{"Email", r.Lead.Email},
		[2]string{"Status", cli.FormatStatus(r.Lead.Status)},
		[2]string{"Priority", cli.FormatPriority(r.Categorization.Priority)},
		[2]string{"Intent", string(r.Categorization.Intent)},
		[2]string{"Type", string(r.Categorization.LeadType)},
		[2]string{"Method", string(r.Method)},
		[2]string{"Rule", string(r.RuleName)},
		[2]string{"Owner", owner},
		[2]string{"Follow-up", followUp},
		[2]string{"Approval", approval},
		[2]string{"Email", emailSent},
	)
}
