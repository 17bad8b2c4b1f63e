package app

import (
	"context"
	"io"
	"time"

	"bizinsight/domain/core"
	"bizinsight/domain/table"
	"bizinsight/internal"
	"bizinsight/internal/analysis"
	"bizinsight/internal/errors"
	"bizinsight/ports"
)

const (
	WarningNoNumeric    = "No numeric columns found."
	NoticeNoTimeColumn  = "No time column for line chart."
	NoticeNoCategory    = "No categorical column for bar chart."
	NoticeMissingAPIKey = "Add an OpenAI API key to enable AI insights."
	defaultPreviewRows  = 5
)

// DashboardService runs the upload pipeline: ingestion, metrics, charts and narrative
type DashboardService struct {
	reader      ports.TableReader
	llm         ports.LLMClient
	timestamps  analysis.TimestampParser
	previewRows int
	log         *internal.Logger
}

// NewDashboardService wires the pipeline. A nil llm disables narrative generation.
func NewDashboardService(reader ports.TableReader, llm ports.LLMClient, timestamps analysis.TimestampParser, previewRows int, log *internal.Logger) *DashboardService {
	if previewRows <= 0 {
		previewRows = defaultPreviewRows
	}
	if log == nil {
		log = internal.DefaultLogger
	}
	return &DashboardService{
		reader:      reader,
		llm:         llm,
		timestamps:  timestamps,
		previewRows: previewRows,
		log:         log,
	}
}

// NarrativeEnabled reports whether a model client is configured
func (s *DashboardService) NarrativeEnabled() bool {
	return s.llm != nil
}

// Analyze runs every stage over one uploaded file. It never returns nil; failures
// are recorded on the report.
func (s *DashboardService) Analyze(ctx context.Context, src io.Reader, filename string) *Report {
	report := &Report{RunID: core.NewRunID(), FileName: filename}
	log := s.log.With("run", report.RunID.String())
	start := time.Now()

	tbl, err := s.reader.Read(ctx, src, filename)
	if err != nil {
		// Input errors are reported as-is; other read failures get an internal code.
		if errors.IsFatal(err) {
			log.Warn("[DashboardService] ingestion of %s failed: %v", filename, err)
		} else {
			log.Error("[DashboardService] could not read %s: %v", filename, err)
			err = errors.Wrapf(err, "could not read %s", filename)
		}
		report.Fatal = err
		report.record(StageIngestion, StatusFailed, err)
		return report
	}
	report.record(StageIngestion, StatusOK, nil)
	report.Preview = Preview{
		Headers:   tbl.Headers(),
		Rows:      tbl.Head(s.previewRows),
		TotalRows: tbl.NumRows(),
	}
	log.Info("[DashboardService] %s: %d columns, %d rows", filename, tbl.NumColumns(), tbl.NumRows())

	report.Classification = analysis.Classify(tbl)
	if !report.Classification.HasNumeric() {
		report.Warnings = append(report.Warnings, WarningNoNumeric)
		report.record(StageMetrics, StatusSkipped, nil)
		report.record(StageCharts, StatusSkipped, nil)
		report.record(StageNarrative, StatusSkipped, nil)
		log.Info("[DashboardService] no numeric columns, done in %s", time.Since(start))
		return report
	}

	metrics, err := analysis.ComputeMetrics(tbl, report.Classification)
	if err != nil {
		report.record(StageMetrics, StatusFailed, err)
	} else {
		report.Metrics = metrics
		report.record(StageMetrics, StatusOK, nil)
	}

	working := s.buildCharts(report, tbl, log)
	s.generateNarrative(ctx, report, working, log)

	log.Info("[DashboardService] %s analysed in %s", filename, time.Since(start))
	return report
}

// buildCharts fills the line and bar series. It returns the table later stages
// work on, which excludes rows dropped by temporal coercion.
func (s *DashboardService) buildCharts(report *Report, tbl *table.Table, log *internal.Logger) *table.Table {
	numeric, _ := analysis.SelectNumeric(report.Classification)
	working := tbl
	var failure error

	if temporal, ok := analysis.SelectTemporal(report.Classification); ok {
		line, filtered, err := analysis.BuildLineSeries(tbl, temporal.Name, numeric.Name, s.timestamps)
		if err != nil {
			failure = err
		} else {
			report.Line = line
			working = filtered
			if line.Dropped > 0 {
				log.Debug("[DashboardService] dropped %d rows with unparseable %s", line.Dropped, temporal.Name)
			}
		}
	} else {
		report.Notices = append(report.Notices, NoticeNoTimeColumn)
	}

	if category, ok := analysis.SelectCategorical(report.Classification); ok {
		bar, err := analysis.BuildBarSeries(working, category.Name, numeric.Name, analysis.TopCategories)
		if err != nil {
			failure = err
		} else {
			report.Bar = bar
		}
	} else {
		report.Notices = append(report.Notices, NoticeNoCategory)
	}

	if failure != nil {
		log.Error("[DashboardService] chart stage failed: %v", failure)
		report.record(StageCharts, StatusFailed, failure)
	} else {
		report.record(StageCharts, StatusOK, nil)
	}
	return working
}

func (s *DashboardService) generateNarrative(ctx context.Context, report *Report, working *table.Table, log *internal.Logger) {
	if s.llm == nil {
		report.Notices = append(report.Notices, NoticeMissingAPIKey)
		report.record(StageNarrative, StatusSkipped, nil)
		return
	}

	prompt, err := s.buildPrompt(report, working)
	if err != nil {
		report.record(StageNarrative, StatusFailed, err)
		return
	}
	report.Prompt = prompt

	start := time.Now()
	text, err := s.llm.ChatCompletion(ctx, analysis.BuildMessages(prompt))
	if err != nil {
		log.Error("[DashboardService] narrative request failed after %s: %v", time.Since(start), err)
		report.record(StageNarrative, StatusFailed, err)
		return
	}
	log.Debug("[DashboardService] narrative received in %s (%d chars)", time.Since(start), len(text))
	report.Narrative = text
	report.record(StageNarrative, StatusOK, nil)
}

// buildPrompt summarises the key numeric column over the working table
func (s *DashboardService) buildPrompt(report *Report, working *table.Table) (string, error) {
	numeric, ok := analysis.SelectNumeric(report.Classification)
	if !ok {
		return "", errors.ValidationError("no numeric column for the narrative")
	}
	col, ok := working.Column(numeric.Name)
	if !ok {
		return "", errors.InternalError("numeric column missing from working table")
	}
	metric, err := analysis.ComputeMetric(col)
	if err != nil {
		return "", err
	}

	in := analysis.InsightInput{
		NumericColumn: numeric.Name,
		Total:         metric.Total,
		Average:       metric.Average,
	}
	if top, ok := report.Bar.Top(); ok {
		in.CategoryColumn = report.Bar.CategoryColumn
		in.TopCategory = top.Category
	}
	if temporal, ok := analysis.SelectTemporal(report.Classification); ok {
		in.TemporalColumn = temporal.Name
	}
	return analysis.BuildPrompt(in), nil
}
