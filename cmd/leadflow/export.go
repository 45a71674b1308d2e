package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Veraticus/leadflow/internal/cli"
	"github.com/Veraticus/leadflow/internal/common"
	"github.com/Veraticus/leadflow/internal/config"
	"github.com/Veraticus/leadflow/internal/sheets"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const tokenFileName = "sheets-token.json"

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the lead pipeline",
	}
	cmd.AddCommand(exportSheetsCmd(), exportJSONCmd(), exportAuthCmd())
	return cmd
}

func exportSheetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sheets",
		Short: "Write the pipeline report to Google Sheets",
		Long: `Write a Summary, Leads and Funnel tab to a Google spreadsheet, replacing
what the tabs held before.

Authenticate with a service account (sheets.service_account_path or
GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH) or with OAuth: run "leadflow export auth"
once, then exports reuse the saved refresh token.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			useSavedToken()

			scfg, err := config.LoadSheetsConfig(viper.GetViper())
			if err != nil {
				return common.NewUserError(
					"Google Sheets is not configured. Set sheets.service_account_path or run 'leadflow export auth'.", err)
			}

			return withApp(ctx, func(a *app) error {
				report, err := a.engine.PipelineReport(ctx, time.Now())
				if err != nil {
					return err
				}
				w, err := sheets.NewWriter(ctx, *scfg, slog.Default())
				if err != nil {
					return err
				}
				url, err := w.Write(ctx, report)
				if err != nil {
					return fmt.Errorf("failed to export to sheets: %w", err)
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Exported %d leads", len(report.Leads))))
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), url)
				return nil
			})
		},
	}
}

// useSavedToken feeds a refresh token saved by "export auth" into the sheets
// config when none is configured.
func useSavedToken() {
	if viper.GetString("sheets.refresh_token") != "" || os.Getenv("GOOGLE_SHEETS_REFRESH_TOKEN") != "" {
		return
	}
	tok, err := sheets.LoadToken(filepath.Join(config.Dir(), tokenFileName))
	if err != nil || tok.RefreshToken == "" {
		return
	}
	viper.Set("sheets.refresh_token", tok.RefreshToken)
}

func exportJSONCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "json [FILE]",
		Short: "Write the pipeline report as JSON (stdout by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				report, err := a.engine.PipelineReport(cmd.Context(), time.Now())
				if err != nil {
					return err
				}
				if len(args) == 0 || args[0] == "-" {
					return printJSON(cmd.OutOrStdout(), report)
				}
				data, err := json.MarshalIndent(report, "", "  ")
				if err != nil {
					return err
				}
				if err := os.WriteFile(args[0], data, 0o600); err != nil {
					return fmt.Errorf("failed to write %s: %w", args[0], err)
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Wrote "+args[0]))
				return nil
			})
		},
	}
}

func exportAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize Google Sheets access with OAuth",
		Long: `Open the Google consent page, wait for the redirect on localhost and save
the refresh token for later exports. Needs sheets.client_id and
sheets.client_secret (or GOOGLE_SHEETS_CLIENT_ID/SECRET).`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			port, _ := cmd.Flags().GetInt("port")

			c := sheets.DefaultConfig()
			c.ClientID = viper.GetString("sheets.client_id")
			c.ClientSecret = viper.GetString("sheets.client_secret")
			c.LoadFromEnv()

			tokenFile := filepath.Join(config.Dir(), tokenFileName)
			if err := os.MkdirAll(filepath.Dir(tokenFile), 0o700); err != nil {
				return fmt.Errorf("failed to create config directory: %w", err)
			}

			out := cmd.OutOrStdout()
			tok, err := sheets.Authenticate(cmd.Context(), sheets.OAuth2Config{
				ClientID:     c.ClientID,
				ClientSecret: c.ClientSecret,
				TokenFile:    tokenFile,
				CallbackPort: port,
			}, func(url string) {
				_, _ = fmt.Fprintln(out, cli.FormatPrompt("Open this URL in your browser to authorize leadflow:"))
				_, _ = fmt.Fprintln(out, url)
			})
			if err != nil {
				return common.NewUserError("authorization failed: "+err.Error(), err)
			}
			return emit(cmd, map[string]string{"token_file": tokenFile}, func(w io.Writer) error {
				if tok.RefreshToken == "" {
					return writeLine(w, cli.FormatWarning("No refresh token returned; revoke access and try again"))
				}
				return writeLine(w, cli.FormatSuccess("Saved token to "+tokenFile))
			})
		},
	}
	cmd.Flags().Int("port", sheets.DefaultCallbackPort, "Local port for the OAuth redirect")
	return cmd
}
