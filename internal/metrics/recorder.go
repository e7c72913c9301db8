package metrics

import "time"

// ResultLabel enumerates deploy result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailure ResultLabel = "failure"
	ResultSkipped ResultLabel = "skipped"
)

// Recorder defines observability hooks for version deployments. The backfill
// loop records one observation per version; the preview server exposes them
// so an operator can eyeball a long run before confirming the push.
type Recorder interface {
	ObserveDeployDuration(version string, d time.Duration)
	IncDeployResult(result ResultLabel)
	SetStagedVersions(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are
// not wired up).
type NoopRecorder struct{}

func (NoopRecorder) ObserveDeployDuration(string, time.Duration) {}
func (NoopRecorder) IncDeployResult(ResultLabel)                 {}
func (NoopRecorder) SetStagedVersions(int)                       {}
