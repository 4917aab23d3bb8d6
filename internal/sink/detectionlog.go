package sink

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/camtrap-tools/camtrap/internal/detect"
	_ "github.com/mattn/go-sqlite3"
)

// DetectionLog is the durable ledger of detector runs, backed by sqlite.
// One row per examined image; presence of a row means the detector has
// already been run on that image, so later ingestion runs skip it.
type DetectionLog struct {
	db    *sql.DB
	runID string
}

// OpenDetectionLog opens (creating if needed) the detection database.
func OpenDetectionLog(path, runID string) (*DetectionLog, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create detection log folder: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open detection log: %w", err)
	}

	const schema = `CREATE TABLE IF NOT EXISTS detections (
		image_path  TEXT PRIMARY KEY,
		run_id      TEXT NOT NULL,
		box_count   INTEGER NOT NULL,
		boxes       TEXT NOT NULL,
		recorded_at TIMESTAMP NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize detection log schema: %w", err)
	}

	return &DetectionLog{db: db, runID: runID}, nil
}

// Seen implements detect.Log.
func (l *DetectionLog) Seen(imagePath string) (bool, error) {
	var one int
	err := l.db.QueryRow(`SELECT 1 FROM detections WHERE image_path = ?`, imagePath).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("detection log query failed: %w", err)
	}
	return true, nil
}

// Record implements detect.Log. Re-recording an image is a no-op, keeping
// the ledger append-only under racing workers.
func (l *DetectionLog) Record(imagePath string, boxes []detect.Box) error {
	_, err := l.db.Exec(
		`INSERT OR IGNORE INTO detections (image_path, run_id, box_count, boxes, recorded_at) VALUES (?, ?, ?, ?, ?)`,
		imagePath, l.runID, len(boxes), encodeBoxes(boxes), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("detection log insert failed: %w", err)
	}
	return nil
}

// BoxCount returns how many boxes were recorded for an image, with ok false
// when the image has never been examined.
func (l *DetectionLog) BoxCount(imagePath string) (count int, ok bool, err error) {
	err = l.db.QueryRow(`SELECT box_count FROM detections WHERE image_path = ?`, imagePath).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("detection log query failed: %w", err)
	}
	return count, true, nil
}

// Close closes the underlying database.
func (l *DetectionLog) Close() error {
	return l.db.Close()
}

func encodeBoxes(boxes []detect.Box) string {
	parts := make([]string, len(boxes))
	for i, b := range boxes {
		parts[i] = fmt.Sprintf("%g,%g,%g,%g", b.X1, b.Y1, b.X2, b.Y2)
	}
	return strings.Join(parts, ";")
}
