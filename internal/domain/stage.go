package domain

import "time"

// StageStatus outcome of a single analysis stage.
type StageStatus string

const (
	// StageSuccess structured data and narrative were both produced.
	StageSuccess StageStatus = "success"
	// StageDegraded structured data is partially populated; some inputs
	// were unavailable upstream.
	StageDegraded StageStatus = "degraded"
	// StageFailed the stage could not produce a full result. The narrative
	// is a fallback string, never empty.
	StageFailed StageStatus = "failed"
)

// FallbackNarrative replaces the narrative of a failed stage.
const FallbackNarrative = "Analysis not available"

// StageResult uniform output of any analysis stage.
type StageResult struct {
	Agent      string      `json:"agent"`
	Data       any         `json:"data"`
	Narrative  string      `json:"insight"`
	Confidence float64     `json:"confidence"`
	Status     StageStatus `json:"status"`
	Error      string      `json:"error,omitempty"`
}

// FailedStage builds a failed StageResult carrying whatever structured data
// was computed before the failure. The fallback narrative keeps the result
// human-safe.
func FailedStage(agent string, data any, err error) StageResult {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return StageResult{
		Agent:      agent,
		Data:       data,
		Narrative:  FallbackNarrative,
		Confidence: 0.0,
		Status:     StageFailed,
		Error:      msg,
	}
}

// AnalysisResult aggregated output of the full pipeline. Created fresh per
// request and never cached as a whole.
type AnalysisResult struct {
	Ticker         string      `json:"ticker"`
	Name           string      `json:"name"`
	MarketData     StageResult `json:"market_data"`
	Fundamental    StageResult `json:"fundamental_analysis"`
	Technical      StageResult `json:"technical_analysis"`
	Recommendation StageResult `json:"recommendation"`
	GeneratedAt    time.Time   `json:"generated_at"`
}
