package app

import (
	"bizinsight/domain/core"
	"bizinsight/internal/analysis"
)

// Stage names one step of the dashboard pipeline
type Stage string

const (
	StageIngestion Stage = "ingestion"
	StageMetrics   Stage = "metrics"
	StageCharts    Stage = "charts"
	StageNarrative Stage = "narrative"
)

// StageStatus is the tagged result of a stage
type StageStatus string

const (
	StatusOK      StageStatus = "ok"
	StatusSkipped StageStatus = "skipped"
	StatusFailed  StageStatus = "failed"
)

// StageOutcome records how one stage ended. Err is set only when Status is failed.
type StageOutcome struct {
	Stage  Stage
	Status StageStatus
	Err    error
}

// Preview is the head of the uploaded table
type Preview struct {
	Headers   []string
	Rows      [][]string
	TotalRows int
}

// Report is everything rendered for one upload
type Report struct {
	RunID    core.RunID
	FileName string

	Preview        Preview
	Classification analysis.Classification
	Metrics        []analysis.Metric
	Line           *analysis.LineSeries
	Bar            *analysis.BarSeries

	Prompt    string
	Narrative string

	// Warnings are shown once at the top of the report; Notices explain a missing panel.
	Warnings []string
	Notices  []string

	Stages []StageOutcome
	// Fatal is the ingestion error that halted the run
	Fatal error
}

// Failed reports whether the run was halted
func (r *Report) Failed() bool {
	return r.Fatal != nil
}

// FatalMessage is the single user-facing message for a halted run
func (r *Report) FatalMessage() string {
	if r.Fatal == nil {
		return ""
	}
	return "Error: " + r.Fatal.Error()
}

// Outcome returns the recorded outcome of stage
func (r *Report) Outcome(stage Stage) (StageOutcome, bool) {
	for _, o := range r.Stages {
		if o.Stage == stage {
			return o, true
		}
	}
	return StageOutcome{}, false
}

// NarrativeError returns the error of a failed narrative stage
func (r *Report) NarrativeError() error {
	if o, ok := r.Outcome(StageNarrative); ok && o.Status == StatusFailed {
		return o.Err
	}
	return nil
}

func (r *Report) record(stage Stage, status StageStatus, err error) {
	r.Stages = append(r.Stages, StageOutcome{Stage: stage, Status: status, Err: err})
}
