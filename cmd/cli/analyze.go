package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"bizinsight/app"
	"bizinsight/internal"
	"bizinsight/internal/config"
	"bizinsight/internal/container"
)

type analyzeOptions struct {
	previewRows int
	noAI        bool
	configFile  string
}

func newAnalyzeCmd() *cobra.Command {
	var opts analyzeOptions

	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Print metrics, chart data and an AI summary for a CSV, TXT or XLSX file",
		Long: `Run the dashboard pipeline over one file and print the report as text.

Example: bizinsight-cli analyze sales.xlsx --preview-rows 10 --no-ai`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args[0], opts)
		},
	}

	cmd.Flags().IntVar(&opts.previewRows, "preview-rows", 0, "rows to show in the preview (default PREVIEW_ROWS)")
	cmd.Flags().BoolVar(&opts.noAI, "no-ai", false, "skip the AI narrative even when a key is configured")
	cmd.Flags().StringVar(&opts.configFile, "config", "", "TOML, YAML or JSON file holding OPENAI_API_KEY (default SECRETS_FILE)")

	return cmd
}

func runAnalyze(cmd *cobra.Command, path string, opts analyzeOptions) error {
	var (
		cfg *config.Config
		err error
	)
	if opts.configFile != "" {
		cfg, err = config.LoadWithSecrets(opts.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if opts.previewRows > 0 {
		cfg.Upload.PreviewRows = opts.previewRows
	}

	logger := internal.NewLogger(internal.ParseLogLevel(os.Getenv("LOG_LEVEL")), cmd.ErrOrStderr(), false)
	c, err := container.New(cfg, logger, container.Options{DisableNarrative: opts.noAI})
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	report := c.DashboardService.Analyze(cmd.Context(), f, filepath.Base(path))
	writeReport(cmd.OutOrStdout(), report)
	if report.Failed() {
		return fmt.Errorf("analysis of %s failed", path)
	}
	return nil
}

// writeReport prints the report sections in page order
func writeReport(w io.Writer, r *app.Report) {
	if r.Failed() {
		fmt.Fprintln(w, r.FatalMessage())
		return
	}

	fmt.Fprintf(w, "File: %s (%d rows)\n", r.FileName, r.Preview.TotalRows)
	for _, warning := range r.Warnings {
		fmt.Fprintf(w, "Warning: %s\n", warning)
	}

	fmt.Fprintln(w, "\nPreview")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(r.Preview.Headers, "\t"))
	for _, row := range r.Preview.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	tw.Flush()

	if len(r.Metrics) > 0 {
		fmt.Fprintln(w, "\nMetrics")
		tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "column\ttotal\taverage\tmax\t")
		for _, m := range r.Metrics {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", m.Column, m.TotalText(), m.AverageText(), m.MaxText())
		}
		tw.Flush()
	}

	if r.Line != nil {
		fmt.Fprintf(w, "\n%s\n", r.Line.Title)
		fmt.Fprintf(w, "  %d points, trend %s", len(r.Line.Points), r.Line.Trend)
		if r.Line.Dropped > 0 {
			fmt.Fprintf(w, ", %d rows without a readable %s", r.Line.Dropped, r.Line.XColumn)
		}
		fmt.Fprintln(w)
	}
	if r.Bar != nil {
		fmt.Fprintf(w, "\n%s\n", r.Bar.Title)
		for i, bar := range r.Bar.Bars {
			fmt.Fprintf(w, "  %2d. %s  %s\n", i+1, bar.Category, bar.ValueText())
		}
	}

	for _, notice := range r.Notices {
		fmt.Fprintf(w, "\n%s\n", notice)
	}
	for _, o := range r.Stages {
		if o.Status == app.StatusFailed && o.Stage != app.StageNarrative {
			fmt.Fprintf(w, "\nError: %v\n", o.Err)
		}
	}

	if err := r.NarrativeError(); err != nil {
		fmt.Fprintf(w, "\nAI insights\nError: %v\n", err)
	} else if r.Narrative != "" {
		fmt.Fprintf(w, "\nAI insights\n%s\n", r.Narrative)
	}
}
