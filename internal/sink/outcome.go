// Package sink persists per-image outcomes: the append-only error log, the
// periodically rewritten progress report, the sqlite detection ledger, and
// the end-of-run parquet archive. Sinks are shared by all pipeline workers
// and serialize their own writes.
package sink

import "time"

// Outcome classifies what happened to one image entry during a run. Every
// dispatched entry gets exactly one outcome.
type Outcome string

const (
	// OutcomeCopied means the image was copied to its canonical destination.
	OutcomeCopied Outcome = "copied"
	// OutcomePlanned means a dry run resolved the image and computed its
	// destination but deliberately copied nothing.
	OutcomePlanned Outcome = "planned_copy"
	// OutcomeSkippedWindow means the entry fell inside a head/tail skip
	// window and was never dispatched.
	OutcomeSkippedWindow Outcome = "skipped_window"
	// OutcomeSkippedDuplicate means the canonical destination already
	// existed; the image was left untouched and not re-examined.
	OutcomeSkippedDuplicate Outcome = "skipped_duplicate"
	// OutcomeSkippedUnresolved means no source could supply a camera ID.
	OutcomeSkippedUnresolved Outcome = "skipped_unresolved_identity"
	// OutcomeFailed means a hard per-image error (copy I/O, EXIF required
	// but absent). The run continues with the next entry.
	OutcomeFailed Outcome = "failed"
)

// Record is the full per-image outcome written to the sinks.
type Record struct {
	RunID        string
	SourcePath   string
	DestPath     string
	Outcome      Outcome
	Reason       string
	DetectionRan bool
	BoxCount     int
	RecordedAt   time.Time
}
