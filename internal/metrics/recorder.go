package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultWarning ResultLabel = "warning"
	ResultFatal   ResultLabel = "fatal"
)

// QueryLabel classifies search requests.
type QueryLabel string

const (
	QueryHit   QueryLabel = "hit"
	QueryMiss  QueryLabel = "miss"
	QueryEmpty QueryLabel = "empty"
	QueryError QueryLabel = "error"
)

// Recorder defines observability hooks for builds, indexing and queries.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncBuildOutcome(outcome string) // success|warning|failed
	SetBuildConcurrency(n int)
	SetIndexedDocuments(n int)
	IncSearchQuery(result QueryLabel)
	ObserveSearchDuration(d time.Duration)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)         {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) IncBuildOutcome(string)                     {}
func (NoopRecorder) SetBuildConcurrency(int)                    {}
func (NoopRecorder) SetIndexedDocuments(int)                    {}
func (NoopRecorder) IncSearchQuery(QueryLabel)                  {}
func (NoopRecorder) ObserveSearchDuration(time.Duration)        {}

// OrNoop returns r, or NoopRecorder when r is nil.
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return NoopRecorder{}
	}
	return r
}
