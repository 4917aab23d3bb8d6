package sink

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
)

// archiveRow is the parquet schema for one outcome record.
type archiveRow struct {
	RunID        string `parquet:"run_id"`
	SourcePath   string `parquet:"source_path"`
	DestPath     string `parquet:"dest_path"`
	Outcome      string `parquet:"outcome"`
	Reason       string `parquet:"reason"`
	DetectionRan bool   `parquet:"detection_ran"`
	BoxCount     int32  `parquet:"box_count"`
	RecordedAt   int64  `parquet:"recorded_at,timestamp(millisecond)"`
}

// WriteRunArchive writes every outcome record of a finished run to a
// parquet file, one row per image entry. The archive is written once at run
// end; the error log and detection ledger remain the crash-safe records.
func WriteRunArchive(path string, records []Record) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create archive folder: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create run archive: %w", err)
	}

	rows := make([]archiveRow, len(records))
	for i, r := range records {
		rows[i] = archiveRow{
			RunID:        r.RunID,
			SourcePath:   r.SourcePath,
			DestPath:     r.DestPath,
			Outcome:      string(r.Outcome),
			Reason:       r.Reason,
			DetectionRan: r.DetectionRan,
			BoxCount:     int32(r.BoxCount),
			RecordedAt:   r.RecordedAt.UnixMilli(),
		}
	}

	w := parquet.NewGenericWriter[archiveRow](f)
	if _, err := w.Write(rows); err != nil {
		f.Close()
		return fmt.Errorf("failed to write run archive: %w", err)
	}
	if err := w.Close(); err != nil {
		f.Close()
		return fmt.Errorf("failed to finalize run archive: %w", err)
	}
	return f.Close()
}
