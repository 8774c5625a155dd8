// Package pipeline runs the stages in order (prepare, fetch, decompress,
// convert, register), stopping at the first failure.
//
// Stages share nothing but the workspace on disk. Each is idempotent on its
// own outputs, so a failed run is repaired by running it again. Nothing is
// rolled back: partially written batches, documents, or artifacts stay in
// place.
//
// Every stage is timed, recorded in the run journal when one is open, and
// counted in the metrics recorder when one is configured. The first error
// is classified ([Classify]) so the journal and metrics carry a short code.
package pipeline
