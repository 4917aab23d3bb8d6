// Package pipeline orchestrates ingestion: windowing each source batch,
// resolving every image's identity, copying it to its canonical
// destination, invoking the detector, and recording one outcome per entry.
// All per-image errors are local; the pipeline always advances to the next
// entry and always finishes with a summary.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/camtrap-tools/camtrap/internal/config"
	"github.com/camtrap-tools/camtrap/internal/detect"
	"github.com/camtrap-tools/camtrap/internal/metadata"
	"github.com/camtrap-tools/camtrap/internal/sink"
	"github.com/camtrap-tools/camtrap/internal/source"
	"github.com/camtrap-tools/camtrap/internal/trailcam"
)

// Pipeline processes source batches into the destination tree.
type Pipeline struct {
	cfg      *config.Config
	resolver *metadata.Resolver
	invoker  *detect.Invoker // nil when detection is disabled
	errors   *sink.ErrorSink
	progress *sink.ProgressSink
	runID    string
}

// New assembles a pipeline. invoker may be nil.
func New(cfg *config.Config, resolver *metadata.Resolver, invoker *detect.Invoker,
	errorSink *sink.ErrorSink, progressSink *sink.ProgressSink, runID string) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		resolver: resolver,
		invoker:  invoker,
		errors:   errorSink,
		progress: progressSink,
		runID:    runID,
	}
}

// RunBatch processes one source batch with a bounded worker pool and
// returns the outcome record for every entry, windowed-out entries
// included. Cancellation stops dispatching new entries; in-flight entries
// finish and are recorded.
func (p *Pipeline) RunBatch(ctx context.Context, batch *source.Batch) []sink.Record {
	skipStart := p.cfg.Autocopy.SkipStart
	skipEnd := p.cfg.Autocopy.SkipEnd
	window := batch.Window(skipStart, skipEnd)

	slog.Info("Processing source batch",
		"source", batch.Root, "files", len(batch.Entries),
		"dispatched", len(window), "skip_start", skipStart, "skip_end", skipEnd)

	records := make([]sink.Record, 0, len(batch.Entries))
	p.progress.StartBatch(batch.Root, len(batch.Entries))

	// Entries trimmed by the skip window get their outcome up front; they
	// are never dispatched.
	for i, entry := range batch.Entries {
		if i < skipStart || i >= len(batch.Entries)-skipEnd {
			rec := sink.Record{
				RunID:      p.runID,
				SourcePath: entry.Path,
				Outcome:    sink.OutcomeSkippedWindow,
				RecordedAt: time.Now(),
			}
			records = append(records, rec)
			p.progress.Observe(batch.Root, rec)
		}
	}

	concurrency := p.cfg.Autocopy.Concurrency
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, concurrency)
	results := make(chan sink.Record, len(window))

	dispatched := 0
dispatch:
	for _, entry := range window {
		// Dispatch blocks until a worker slot frees, so cancellation is
		// observed here between entries: no new work starts after a cancel,
		// and the at-most-concurrency in-flight entries finish normally.
		select {
		case <-ctx.Done():
			slog.Info("Cancellation requested, draining in-flight work", "source", batch.Root)
			break dispatch
		case semaphore <- struct{}{}: // Acquire
		}
		// The select picks arbitrarily when both cases are ready.
		if ctx.Err() != nil {
			<-semaphore
			slog.Info("Cancellation requested, draining in-flight work", "source", batch.Root)
			break
		}
		dispatched++
		wg.Add(1)
		go func(entry source.Entry) {
			defer wg.Done()
			defer func() { <-semaphore }() // Release

			results <- p.processEntry(ctx, entry)
		}(entry)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	for rec := range results {
		records = append(records, rec)
		p.progress.Observe(batch.Root, rec)
	}

	p.progress.Flush()
	if dispatched < len(window) {
		slog.Warn("Batch aborted before all entries were dispatched",
			"source", batch.Root, "dispatched", dispatched, "window", len(window))
	}
	return records
}

// processEntry takes one image through the full state machine and produces
// its outcome record.
func (p *Pipeline) processEntry(ctx context.Context, entry source.Entry) sink.Record {
	rec := sink.Record{
		RunID:      p.runID,
		SourcePath: entry.Path,
		RecordedAt: time.Now(),
	}

	identity, err := p.resolver.Resolve(ctx, entry)
	if err != nil {
		if errors.Is(err, metadata.ErrIdentityUnresolved) {
			rec.Outcome = sink.OutcomeSkippedUnresolved
			rec.Reason = err.Error()
			p.errors.Report(entry.Path, "camera identity unresolved")
			slog.Warn("Skipping image with unresolved identity", "image", entry.Path)
		} else {
			rec.Outcome = sink.OutcomeFailed
			rec.Reason = err.Error()
			p.errors.Report(entry.Path, err.Error())
			slog.Warn("Metadata resolution failed", "image", entry.Path, "err", err)
		}
		return rec
	}

	prefix := p.cfg.General.Prefix
	dest := p.cfg.General.ImageDestination
	rec.DestPath = trailcam.ImagePath(dest, prefix, identity, entry.Ext)

	if !p.cfg.ShouldCopy() {
		// Dry run: plan only, touch nothing.
		rec.Outcome = sink.OutcomePlanned
		return rec
	}

	if err := CopyImage(entry.Path, rec.DestPath); err != nil {
		if errors.Is(err, ErrDuplicateDestination) {
			// Already ingested on a prior run; not re-examined.
			rec.Outcome = sink.OutcomeSkippedDuplicate
			return rec
		}
		rec.Outcome = sink.OutcomeFailed
		rec.Reason = err.Error()
		p.errors.Report(entry.Path, fmt.Sprintf("copy failed: %v", err))
		slog.Warn("Copy failed", "image", entry.Path, "err", err)
		return rec
	}
	rec.Outcome = sink.OutcomeCopied

	if p.invoker != nil {
		relDir := trailcam.ImageDir(prefix, identity)
		result := p.invoker.Run(ctx, rec.DestPath, relDir, identity.ViewAbbrev)
		rec.DetectionRan = result.Ran
		rec.BoxCount = len(result.Boxes)
	}

	return rec
}
