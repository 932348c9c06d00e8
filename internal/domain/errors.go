package domain

import "fmt"

// ValidationError malformed or out-of-range input. Surfaced to the caller,
// never retried.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string {
	return e.Detail
}

// UpstreamDataError market or financial data source unavailable, or a ticker
// that cannot be resolved. Fatal to fetch-dependent requests.
type UpstreamDataError struct {
	Ticker string
	// NotFound indicates the ticker resolved to no data rather than a
	// transport failure.
	NotFound bool
	Cause    error
}

func (e *UpstreamDataError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("no data for %s", e.Ticker)
	}
	return fmt.Sprintf("upstream data error for %s: %v", e.Ticker, e.Cause)
}

func (e *UpstreamDataError) Unwrap() error {
	return e.Cause
}

// InsightUnavailable LLM capability failed or timed out. Absorbed per stage
// with a fallback narrative, never propagated as a request failure.
type InsightUnavailable struct {
	Stage string
	Cause error
}

func (e *InsightUnavailable) Error() string {
	return fmt.Sprintf("insight unavailable for %s stage: %v", e.Stage, e.Cause)
}

func (e *InsightUnavailable) Unwrap() error {
	return e.Cause
}
