package pipeline

import "time"

// StageResult is the outcome of one executed stage.
type StageResult struct {
	Stage    Stage
	Duration time.Duration
	Err      error
}

// RunStats tracks what a run did, stage by stage.
type RunStats struct {
	RunID  string // Empty when the journal is disabled.
	Stages []StageResult

	Moved       int   // Artifacts moved into the artifact store.
	Documents   int   // Plain documents written.
	Lines       int64 // Lines across written documents.
	Batches     int   // Parquet batch files written.
	Rows        int64 // Rows across written batches.
	Views       int   // View statements issued.
	OutputBytes int64 // Bytes written by decompress and convert.

	Failed Stage // First failed stage, if any.
	Err    error
	Code   string // Classify(Err).
}

// OK reports whether every executed stage succeeded.
func (s *RunStats) OK() bool { return s.Err == nil }

// Elapsed returns the summed wall time of the executed stages.
func (s *RunStats) Elapsed() time.Duration {
	var d time.Duration
	for _, st := range s.Stages {
		d += st.Duration
	}
	return d
}
