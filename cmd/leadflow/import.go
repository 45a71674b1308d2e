package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/Veraticus/leadflow/internal/cli"
	"github.com/Veraticus/leadflow/internal/common"
	"github.com/Veraticus/leadflow/internal/engine"
	"github.com/Veraticus/leadflow/internal/model"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const defaultImportConcurrency = 4

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Run a batch of leads through intake",
		Long: `Submit many leads at once. FILE holds either a JSON array of submissions
or one JSON submission per line; "-" reads stdin.

Each lead runs the full intake pipeline. A lead that fails validation is
reported and skipped; it does not stop the batch. Ctrl-C stops accepting
new leads and waits for the in-flight ones.`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}
	cmd.Flags().IntP("concurrency", "c", defaultImportConcurrency, "Leads processed in parallel")
	cmd.Flags().Bool("stop-on-error", false, "Abort the batch at the first failed lead")
	return cmd
}

// importOutcome is one row of the import report.
type importOutcome struct {
	Error  string               `json:"error,omitempty"`
	Result *engine.IntakeResult `json:"result,omitempty"`
	Input  model.LeadSubmission `json:"input"`
	Index  int                  `json:"index"`
}

func runImport(cmd *cobra.Command, args []string) error {
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	stopOnError, _ := cmd.Flags().GetBool("stop-on-error")
	if concurrency < 1 {
		return common.NewUserError("--concurrency must be at least 1", nil)
	}

	r, closeFn, err := openInput(cmd, args[0])
	if err != nil {
		return err
	}
	subs, err := readSubmissions(r)
	closeFn()
	if err != nil {
		return common.NewUserError(fmt.Sprintf("could not parse %s: %v", args[0], err), err)
	}
	if len(subs) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("No leads to import"))
		return nil
	}

	return withApp(cmd.Context(), func(a *app) error {
		out := cmd.ErrOrStderr()
		var done atomic.Int64
		handler := cli.NewInterruptHandler(out)
		ctx, cancel := handler.HandleInterrupts(cmd.Context(), func() string {
			return fmt.Sprintf("Imported %d of %d leads", done.Load(), len(subs))
		})
		defer cancel()

		for i := range subs {
			subs[i] = a.withDefaultSource(subs[i])
		}
		bar := newImportBar(out, len(subs))
		outcomes := importAll(ctx, a.engine, subs, concurrency, stopOnError, func() {
			done.Add(1)
			_ = bar.Add(1)
		})

		if handler.WasInterrupted() {
			slog.Warn("import interrupted", "completed", done.Load(), "total", len(subs))
		}
		if err := emit(cmd, outcomes, func(w io.Writer) error {
			return printImportReport(w, outcomes)
		}); err != nil {
			return err
		}
		return importExitError(outcomes)
	})
}

func newImportBar(w io.Writer, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan]Importing leads[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprintln(w)
		}),
	)
}

// importAll submits every lead with at most limit in flight. Outcomes keep
// input order. Leads not started before ctx is canceled are reported as such.
func importAll(ctx context.Context, eng *engine.Engine, subs []model.LeadSubmission, limit int, stopOnError bool, tick func()) []importOutcome {
	outcomes := make([]importOutcome, len(subs))
	for i, sub := range subs {
		outcomes[i] = importOutcome{Index: i, Input: sub}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	var mu sync.Mutex
	for i := range subs {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			// Each lead gets the parent context so one failure never cancels
			// another lead's in-flight writes.
			result, err := eng.Submit(ctx, subs[i])
			mu.Lock()
			if err != nil {
				outcomes[i].Error = err.Error()
			} else {
				outcomes[i].Result = result
			}
			mu.Unlock()
			tick()
			if err != nil && stopOnError {
				return err
			}
			return nil
		})
	}
	_ = g.Wait()

	for i := range outcomes {
		if outcomes[i].Result == nil && outcomes[i].Error == "" {
			outcomes[i].Error = "not processed"
		}
	}
	return outcomes
}

// readSubmissions accepts a JSON array or JSON lines.
func readSubmissions(r io.Reader) ([]model.LeadSubmission, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	if data[0] == '[' {
		var subs []model.LeadSubmission
		if err := json.Unmarshal(data, &subs); err != nil {
			return nil, err
		}
		return subs, nil
	}

	var subs []model.LeadSubmission
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		var sub model.LeadSubmission
		if err := json.Unmarshal(text, &sub); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		subs = append(subs, sub)
	}
	return subs, scanner.Err()
}

func printImportReport(w io.Writer, outcomes []importOutcome) error {
	var ok, failed int
	t := cli.NewTable("#", "NAME", "EMAIL", "PRIORITY", "RULE", "RESULT")
	for _, o := range outcomes {
		if o.Result != nil {
			ok++
			t.Row(fmt.Sprint(o.Index+1), cli.Truncate(o.Result.Lead.Name, 24), o.Result.Lead.Email,
				cli.FormatPriority(o.Result.Categorization.Priority), string(o.Result.RuleName),
				cli.SuccessStyle.Render(o.Result.Lead.ID))
			continue
		}
		failed++
		t.Row(fmt.Sprint(o.Index+1), cli.Truncate(o.Input.Name, 24), o.Input.Email, "-", "-",
			cli.ErrorStyle.Render(cli.Truncate(o.Error, 48)))
	}
	if err := t.Render(w); err != nil {
		return err
	}

	summary := fmt.Sprintf("Imported %d of %d leads", ok, len(outcomes))
	if failed > 0 {
		return writeLine(w, cli.FormatWarning(fmt.Sprintf("%s, %d failed", summary, failed)))
	}
	return writeLine(w, cli.FormatSuccess(summary))
}

var errNothingImported = errors.New("no leads imported")

// importExitError fails the command when every lead failed.
func importExitError(outcomes []importOutcome) error {
	for _, o := range outcomes {
		if o.Result != nil {
			return nil
		}
	}
	return errNothingImported
}
