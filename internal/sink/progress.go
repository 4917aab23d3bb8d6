package sink

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// reportInterval is how many processed images trigger a progress report
// rewrite.
const reportInterval = 100

// BatchProgress is the running tally for one source batch.
type BatchProgress struct {
	Source  string `yaml:"source"`
	Total   int    `yaml:"total"`
	Copied  int    `yaml:"copied"`
	Planned int    `yaml:"planned"`
	Skipped int    `yaml:"skipped"`
	Failed  int    `yaml:"failed"`
}

// progressReport is the YAML document rewritten as the run advances. Point
// a dashboard or a watch(1) at it to monitor an unattended run.
type progressReport struct {
	RunID     string           `yaml:"run_id"`
	UpdatedAt string           `yaml:"updated_at"`
	Batches   []*BatchProgress `yaml:"batches"`
	Copied    int              `yaml:"total_copied"`
	Planned   int              `yaml:"total_planned"`
	Skipped   int              `yaml:"total_skipped"`
	Failed    int              `yaml:"total_failed"`
}

// ProgressSink tracks per-batch counts and rewrites the progress report
// file after every hundred processed images and at batch boundaries.
type ProgressSink struct {
	mu        sync.Mutex
	path      string
	runID     string
	loc       *time.Location
	order     []string
	batches   map[string]*BatchProgress
	processed int
}

// NewProgressSink creates a progress sink writing to path. An empty path
// disables reporting but still keeps counts for the run summary.
func NewProgressSink(path, runID string, loc *time.Location) (*ProgressSink, error) {
	if path != "" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create progress report folder: %w", err)
			}
		}
	}
	return &ProgressSink{
		path:    path,
		runID:   runID,
		loc:     loc,
		batches: make(map[string]*BatchProgress),
	}, nil
}

// StartBatch registers a source batch and its dispatchable entry count.
func (p *ProgressSink) StartBatch(source string, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.batches[source]; !ok {
		p.order = append(p.order, source)
		p.batches[source] = &BatchProgress{Source: source}
	}
	p.batches[source].Total = total
	p.writeLocked()
}

// Observe records one outcome and rewrites the report when due.
func (p *ProgressSink) Observe(source string, rec Record) {
	p.mu.Lock()
	defer p.mu.Unlock()

	b, ok := p.batches[source]
	if !ok {
		b = &BatchProgress{Source: source}
		p.order = append(p.order, source)
		p.batches[source] = b
	}

	switch rec.Outcome {
	case OutcomeCopied:
		b.Copied++
	case OutcomePlanned:
		b.Planned++
	case OutcomeFailed:
		b.Failed++
	default:
		b.Skipped++
	}

	p.processed++
	if p.processed%reportInterval == 0 {
		p.writeLocked()
	}
}

// Totals returns the cumulative {copied, planned, skipped, failed} counts.
func (p *ProgressSink) Totals() (copied, planned, skipped, failed int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, b := range p.batches {
		copied += b.Copied
		planned += b.Planned
		skipped += b.Skipped
		failed += b.Failed
	}
	return
}

// Flush rewrites the report unconditionally.
func (p *ProgressSink) Flush() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writeLocked()
}

func (p *ProgressSink) writeLocked() {
	if p.path == "" {
		return
	}

	report := progressReport{
		RunID:     p.runID,
		UpdatedAt: time.Now().In(p.loc).Format("15:04:05, 01/02/2006"),
	}
	for _, source := range p.order {
		b := p.batches[source]
		report.Batches = append(report.Batches, b)
		report.Copied += b.Copied
		report.Planned += b.Planned
		report.Skipped += b.Skipped
		report.Failed += b.Failed
	}

	data, err := yaml.Marshal(&report)
	if err != nil {
		slog.Warn("Failed to marshal progress report", "err", err)
		return
	}
	if err := os.WriteFile(p.path, data, 0644); err != nil {
		slog.Warn("Failed to write progress report", "path", p.path, "err", err)
	}
}
