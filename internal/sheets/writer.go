package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Veraticus/leadflow/internal/common"
	"github.com/Veraticus/leadflow/internal/engine"
	"github.com/Veraticus/leadflow/internal/service"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const dateTimeLayout = "2006-01-02 15:04"

// Writer exports pipeline reports to a Google spreadsheet.
type Writer struct {
	service *sheets.Service
	logger  *slog.Logger
	config  Config
}

// NewWriter creates a Google Sheets writer.
func NewWriter(ctx context.Context, config Config, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	srv, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Writer{
		config:  config,
		service: srv,
		logger:  logger,
	}, nil
}

// Write replaces every tab of the spreadsheet with the report and returns
// the spreadsheet ID.
func (w *Writer) Write(ctx context.Context, report *engine.PipelineReport) (string, error) {
	tabs := BuildTabs(report)
	w.logger.Info("starting pipeline export", "leads", len(report.Leads), "tabs", len(tabs))

	spreadsheetID, sheetIDs, err := w.getOrCreateSpreadsheet(ctx, tabs)
	if err != nil {
		return "", fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	retryOpts := service.RetryOptions{
		MaxAttempts:  w.config.RetryAttempts,
		InitialDelay: w.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	for _, tab := range tabs {
		err := common.WithRetry(ctx, func(int) error {
			if err := w.clearTab(ctx, spreadsheetID, tab.Title); err != nil {
				return err
			}
			return w.writeTab(ctx, spreadsheetID, tab)
		}, retryOpts)
		if err != nil {
			return "", fmt.Errorf("failed to write %s tab: %w", tab.Title, err)
		}
	}

	if w.config.EnableFormatting {
		err = common.WithRetry(ctx, func(int) error {
			return w.applyFormatting(ctx, spreadsheetID, tabs, sheetIDs)
		}, retryOpts)
		if err != nil {
			// Formatting is cosmetic; the data is already written.
			w.logger.Warn("failed to apply formatting", "error", err)
		}
	}

	w.logger.Info("pipeline export completed", "spreadsheet_id", spreadsheetID)
	return spreadsheetID, nil
}

// BuildTabs lays the report out as Summary, Leads and Funnel tabs.
func BuildTabs(report *engine.PipelineReport) []Tab {
	d := report.Dashboard
	summary := Tab{
		Title:      TabSummary,
		FrozenRows: 1,
		Rows: [][]any{
			{"Lead Pipeline", report.GeneratedAt.Format(dateTimeLayout) + " UTC"},
			{},
			{"Total leads", d.TotalLeads},
			{"New today", d.NewLeadsToday},
			{"Pending follow-ups", d.PendingFollowUps},
			{"Pending approvals", d.PendingApprovals},
			{"SLA violations", d.SLAViolations},
			{"Avg response (min)", d.AvgResponseTimeMinutes},
			{"Conversion rate (%)", d.ConversionRate},
			{},
			{"Assignments", report.SLA.TotalAssignments},
			{"Completed", report.SLA.Completed},
			{"SLA met rate (%)", report.SLA.SLAMetRate},
		},
	}

	funnel := Tab{Title: TabFunnel, FrozenRows: 1, Rows: [][]any{{"Status", "Leads"}}}
	for _, stage := range report.Funnel {
		funnel.Rows = append(funnel.Rows, []any{string(stage.Status), stage.Count})
	}

	leads := Tab{Title: TabLeads, FrozenRows: 1, Rows: make([][]any, 0, len(report.Leads)+1)}
	leads.Rows = append(leads.Rows, leadHeader)
	for _, r := range report.Leads {
		next := ""
		if r.NextFollowUp != nil {
			next = r.NextFollowUp.UTC().Format(dateTimeLayout)
		}
		leads.Rows = append(leads.Rows, []any{
			r.Lead.CreatedAt.UTC().Format(dateTimeLayout),
			r.Lead.Name,
			r.Lead.Email,
			r.Lead.Phone,
			r.Lead.Company,
			r.Lead.Role,
			string(r.Lead.Status),
			string(r.Priority),
			string(r.LeadType),
			string(r.RuleName),
			string(r.Method),
			r.Owner,
			next,
			strings.Join(r.Products, ", "),
		})
	}

	return []Tab{summary, leads, funnel}
}

func createSheetsService(ctx context.Context, config Config) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}
		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		client := oauthConfig(OAuth2Config{ClientID: config.ClientID, ClientSecret: config.ClientSecret})
		tokenSource = client.TokenSource(ctx, &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		})
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, tokenSource)))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}
	return srv, nil
}

// getOrCreateSpreadsheet returns the spreadsheet ID and the sheet ID of every
// tab, adding tabs that are missing from an existing spreadsheet.
func (w *Writer) getOrCreateSpreadsheet(ctx context.Context, tabs []Tab) (string, map[string]int64, error) {
	if w.config.SpreadsheetID == "" {
		props := make([]*sheets.Sheet, 0, len(tabs))
		for _, tab := range tabs {
			props = append(props, &sheets.Sheet{Properties: &sheets.SheetProperties{Title: tab.Title}})
		}
		created, err := w.service.Spreadsheets.Create(&sheets.Spreadsheet{
			Properties: &sheets.SpreadsheetProperties{
				Title:    w.config.SpreadsheetName,
				TimeZone: w.config.TimeZone,
			},
			Sheets: props,
		}).Context(ctx).Do()
		if err != nil {
			return "", nil, fmt.Errorf("unable to create spreadsheet: %w", err)
		}
		w.logger.Info("created new spreadsheet", "id", created.SpreadsheetId, "url", created.SpreadsheetUrl)
		return created.SpreadsheetId, sheetIDs(created), nil
	}

	existing, err := w.service.Spreadsheets.Get(w.config.SpreadsheetID).Context(ctx).Do()
	if err != nil {
		return "", nil, fmt.Errorf("unable to access spreadsheet %s: %w", w.config.SpreadsheetID, err)
	}
	ids := sheetIDs(existing)

	var add []*sheets.Request
	for _, tab := range tabs {
		if _, ok := ids[tab.Title]; !ok {
			add = append(add, &sheets.Request{AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: tab.Title},
			}})
		}
	}
	if len(add) == 0 {
		return existing.SpreadsheetId, ids, nil
	}

	resp, err := w.service.Spreadsheets.BatchUpdate(existing.SpreadsheetId,
		&sheets.BatchUpdateSpreadsheetRequest{Requests: add}).Context(ctx).Do()
	if err != nil {
		return "", nil, fmt.Errorf("unable to add tabs: %w", err)
	}
	for _, r := range resp.Replies {
		if r.AddSheet != nil && r.AddSheet.Properties != nil {
			ids[r.AddSheet.Properties.Title] = r.AddSheet.Properties.SheetId
		}
	}
	return existing.SpreadsheetId, ids, nil
}

func sheetIDs(s *sheets.Spreadsheet) map[string]int64 {
	ids := make(map[string]int64, len(s.Sheets))
	for _, sh := range s.Sheets {
		if sh.Properties != nil {
			ids[sh.Properties.Title] = sh.Properties.SheetId
		}
	}
	return ids
}

func (w *Writer) clearTab(ctx context.Context, spreadsheetID, title string) error {
	_, err := w.service.Spreadsheets.Values.Clear(spreadsheetID, quoteTitle(title)+"!A:Z", &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

// writeTab writes a tab in batches to stay under API request limits.
func (w *Writer) writeTab(ctx context.Context, spreadsheetID string, tab Tab) error {
	for i := 0; i < len(tab.Rows); i += w.config.BatchSize {
		end := min(i+w.config.BatchSize, len(tab.Rows))
		batch := tab.Rows[i:end]

		rangeStr := fmt.Sprintf("%s!A%d", quoteTitle(tab.Title), i+1)
		_, err := w.service.Spreadsheets.Values.Update(spreadsheetID, rangeStr, &sheets.ValueRange{Values: batch}).
			ValueInputOption("USER_ENTERED").
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("failed to write batch starting at row %d: %w", i+1, err)
		}

		w.logger.Debug("wrote batch", "tab", tab.Title, "start_row", i+1, "rows", len(batch))
	}
	return nil
}

// applyFormatting bolds and freezes each tab's header and resizes its columns.
func (w *Writer) applyFormatting(ctx context.Context, spreadsheetID string, tabs []Tab, ids map[string]int64) error {
	var requests []*sheets.Request
	for _, tab := range tabs {
		id, ok := ids[tab.Title]
		if !ok || len(tab.Rows) == 0 {
			continue
		}
		requests = append(requests,
			&sheets.Request{
				RepeatCell: &sheets.RepeatCellRequest{
					Range: &sheets.GridRange{
						SheetId:       id,
						StartRowIndex: 0,
						EndRowIndex:   tab.FrozenRows,
					},
					Cell: &sheets.CellData{
						UserEnteredFormat: &sheets.CellFormat{
							TextFormat: &sheets.TextFormat{Bold: true},
						},
					},
					Fields: "userEnteredFormat.textFormat",
				},
			},
			&sheets.Request{
				UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
					Properties: &sheets.SheetProperties{
						SheetId:        id,
						GridProperties: &sheets.GridProperties{FrozenRowCount: tab.FrozenRows},
					},
					Fields: "gridProperties.frozenRowCount",
				},
			},
			&sheets.Request{
				AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
					Dimensions: &sheets.DimensionRange{
						SheetId:    id,
						Dimension:  "COLUMNS",
						StartIndex: 0,
						EndIndex:   int64(len(tab.Rows[0])),
					},
				},
			},
		)
	}
	if len(requests) == 0 {
		return nil
	}

	_, err := w.service.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	return err
}

func quoteTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}
