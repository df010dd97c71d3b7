package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"mp4get/internal/config"
	"mp4get/internal/cookies"
	"mp4get/internal/deps"
	"mp4get/internal/executor"
	"mp4get/internal/history"
	"mp4get/internal/links"
	"mp4get/internal/logging"
	"mp4get/internal/runner"
	"mp4get/internal/services/ytdlp"
)

const timeRounding = 100 * time.Millisecond

type downloadOptions struct {
	linksFile string
	noConfirm bool
	outputDir string
	workers   int
}

func runDownload(cmd *cobra.Command, cctx *commandContext, opts *downloadOptions, args []string) error {
	cfg, err := cctx.ensureConfig()
	if err != nil {
		return err
	}
	if dir := strings.TrimSpace(opts.outputDir); dir != "" {
		expanded, expandErr := config.ExpandPath(dir)
		if expandErr != nil {
			return fmt.Errorf("resolve output directory: %w", expandErr)
		}
		cfg.Paths.OutputDir = expanded
	}
	if opts.workers > 0 {
		cfg.Download.Workers = min(opts.workers, 8)
	}

	raw, err := gatherInput(cmd, opts, args)
	if err != nil {
		return err
	}
	entries := links.Parse(raw)
	if len(entries) == 0 {
		return fmt.Errorf("no links provided")
	}

	out := cmd.OutOrStdout()
	printQueuePreview(out, entries, cfg.Paths.OutputDir)

	if !opts.noConfirm && stdinInteractive() {
		ok, confirmErr := confirm(out, fmt.Sprintf("Download %d video(s) to %s?", len(links.Valid(entries)), cfg.Paths.OutputDir))
		if confirmErr != nil {
			return confirmErr
		}
		if !ok {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	if err := deps.Verify(cmd.Context(), cfg); err != nil {
		return err
	}

	outputPaths := []string{"stderr"}
	if dir := strings.TrimSpace(cfg.Paths.LogDir); dir != "" {
		outputPaths = append(outputPaths, filepath.Join(dir, "mp4get.log"))
	}
	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: outputPaths,
	})
	if err != nil {
		return fmt.Errorf("set up logging: %w", err)
	}

	client := ytdlp.New(cfg, logger)
	resolver := cookies.NewResolver(cfg, logger)

	var runnerOpts []runner.Option
	if cfg.History.Enabled {
		store, openErr := history.Open(cfg)
		if openErr != nil {
			logger.Warn("history disabled", logging.Error(openErr))
		} else {
			defer store.Close()
			runnerOpts = append(runnerOpts, runner.WithRecorder(store))
		}
	}

	r := runner.New(cfg, client, resolver, logger, runnerOpts...)
	report, err := r.Run(cmd.Context(), entries)
	if err != nil {
		return err
	}

	printReport(out, report)
	// An interrupted run is reported as canceled even though the runner
	// converts cancellation into per-item failures.
	if ctxErr := cmd.Context().Err(); ctxErr != nil {
		return ctxErr
	}
	if !report.AllSucceeded() {
		return exitCodeError{code: 1}
	}
	return nil
}

// gatherInput collects raw link text from arguments, a links file, or
// standard input, in that order of preference.
func gatherInput(cmd *cobra.Command, opts *downloadOptions, args []string) (string, error) {
	var parts []string
	if len(args) > 0 {
		parts = append(parts, strings.Join(args, " "))
	}
	if file := strings.TrimSpace(opts.linksFile); file != "" {
		expanded, err := config.ExpandPath(file)
		if err != nil {
			return "", fmt.Errorf("resolve links file: %w", err)
		}
		data, err := os.ReadFile(expanded)
		if err != nil {
			return "", fmt.Errorf("read links file: %w", err)
		}
		parts = append(parts, string(data))
	}
	if len(parts) > 0 {
		return strings.Join(parts, "\n"), nil
	}

	if stdinInteractive() {
		fmt.Fprint(cmd.OutOrStdout(), "Enter video links (separated by spaces or commas): ")
		reader := bufio.NewReader(cmd.InOrStdin())
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("read links: %w", err)
		}
		return line, nil
	}

	// Piped input: consume everything.
	scanner := bufio.NewScanner(cmd.InOrStdin())
	var sb strings.Builder
	for scanner.Scan() {
		sb.WriteString(scanner.Text())
		sb.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read links: %w", err)
	}
	return sb.String(), nil
}

func stdinInteractive() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func confirm(out interface{ Write([]byte) (int, error) }, prompt string) (bool, error) {
	fmt.Fprintf(out, "%s [Y/n] ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "", "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func printQueuePreview(out interface{ Write([]byte) (int, error) }, entries []links.Entry, outputDir string) {
	rows := make([][]string, 0, len(entries))
	for i, e := range entries {
		status := "ready"
		target := e.URL
		if !e.Valid {
			status = "invalid"
			target = e.Raw
		}
		rows = append(rows, []string{strconv.Itoa(i + 1), e.ID, target, status})
	}
	fmt.Fprintln(out, renderTable(
		[]column{colRight("#"), col("ID"), colMax("Link", 64), col("Status")},
		rows,
	))
	fmt.Fprintf(out, "Output directory: %s\n", outputDir)
}

func printReport(out interface{ Write([]byte) (int, error) }, report *runner.Report) {
	rows := make([][]string, 0, len(report.Outcomes))
	for i, o := range report.Outcomes {
		rows = append(rows, outcomeRow(i+1, o))
	}
	fmt.Fprintln(out, renderTable(reportColumns(), rows))
	fmt.Fprintf(out, "%d succeeded, %d failed in %s (run %s)\n",
		report.Succeeded(), report.Failed(), report.Elapsed.Round(timeRounding), report.RunID)
}

// reportColumns is shared with history show so past runs render like live
// ones. Long titles and error details are capped by the renderer.
func reportColumns() []column {
	return []column{
		colRight("#"),
		col("ID"),
		colMax("Title", 48),
		col("Result"),
		colMax("Detail", 64),
		colRight("Attempts"),
	}
}

func outcomeRow(position int, o executor.Outcome) []string {
	result := "ok"
	detail := filepath.Base(o.Path)
	if !o.Succeeded() {
		result = "failed"
		detail = o.Reason()
		if o.Err != nil {
			detail = fmt.Sprintf("%s: %s", o.Reason(), o.Err)
		}
	}
	return []string{
		strconv.Itoa(position),
		o.Entry.ID,
		o.Title,
		result,
		detail,
		strconv.Itoa(o.Attempts),
	}
}
