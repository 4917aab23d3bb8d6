package ingestcmd

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/camtrap-tools/camtrap/internal/config"
	"github.com/camtrap-tools/camtrap/internal/detect"
	"github.com/camtrap-tools/camtrap/internal/exif"
	"github.com/camtrap-tools/camtrap/internal/metadata"
	"github.com/camtrap-tools/camtrap/internal/ocr"
	"github.com/camtrap-tools/camtrap/internal/pipeline"
	"github.com/camtrap-tools/camtrap/internal/sink"
	"github.com/camtrap-tools/camtrap/internal/source"
	"github.com/google/uuid"
)

// imageExtension is the file type trail cameras produce.
const imageExtension = ".jpg"

func executeIngest(ctx context.Context, configPath string, overrides config.Overrides) error {
	cfg, err := config.Load(configPath, overrides)
	if err != nil {
		return err
	}

	runID := uuid.New().String()
	slog.Info("Starting ingestion run", "run_id", runID, "dest", cfg.General.ImageDestination)

	errorSink, err := sink.NewErrorSink(cfg.General.ErrorLogFile)
	if err != nil {
		return err
	}
	defer errorSink.Close()

	progressSink, err := sink.NewProgressSink(cfg.General.ProgressReportFile, runID, cfg.Location())
	if err != nil {
		return err
	}

	resolver, err := buildResolver(cfg, overrides.CameraID)
	if err != nil {
		return err
	}

	invoker, detectionLog, err := buildInvoker(cfg, runID)
	if err != nil {
		return err
	}
	if detectionLog != nil {
		defer detectionLog.Close()
	}

	roots, err := sourceRoots(cfg)
	if err != nil {
		return err
	}
	if len(roots) == 0 {
		slog.Info("No SD cards found and no source configured, nothing to do")
		return nil
	}

	pipe := pipeline.New(cfg, resolver, invoker, errorSink, progressSink, runID)

	var records []sink.Record
	for _, root := range roots {
		if ctx.Err() != nil {
			slog.Info("Ingestion canceled, skipping remaining sources")
			break
		}
		batch, err := source.Enumerate(root, imageExtension)
		if err != nil {
			slog.Error("Failed to enumerate source", "source", root, "err", err)
			errorSink.Report(root, fmt.Sprintf("enumeration failed: %v", err))
			continue
		}
		records = append(records, pipe.RunBatch(ctx, batch)...)
	}

	archivePath := filepath.Join(cfg.General.ImageDestination, "runs",
		fmt.Sprintf("run-%s-%s.parquet", time.Now().Format("20060102-150405"), runID[:8]))
	if cfg.ShouldCopy() && len(records) > 0 {
		if err := sink.WriteRunArchive(archivePath, records); err != nil {
			slog.Warn("Failed to write run archive", "path", archivePath, "err", err)
		}
	}

	printSummary(progressSink, runID)
	return nil
}

// buildResolver wires the metadata resolver with whichever capabilities the
// configuration calls for. cliCameraID is the --id flag value, which
// outranks the config file's camera_id.
func buildResolver(cfg *config.Config, cliCameraID string) (*metadata.Resolver, error) {
	opts := metadata.Options{
		CLICameraID:    cliCameraID,
		ConfigCameraID: cfg.Autocopy.CameraID,
		UseExif:        cfg.Autocopy.UseExif,
		Views:          cfg.ViewTable,
	}

	var banner metadata.BannerReader
	// The banner is needed unless an explicit camera ID and EXIF timestamps
	// together cover both identity fields.
	if (cliCameraID == "" && cfg.Autocopy.CameraID == "") || !cfg.Autocopy.UseExif {
		reader, err := ocr.NewReader(cfg.Autocopy.OCRProvider)
		if err != nil {
			return nil, err
		}
		banner = reader
	}

	var exifReader metadata.CaptureTimeReader
	if cfg.Autocopy.UseExif {
		exifReader = exif.NewReader()
	}

	return metadata.NewResolver(opts, banner, exifReader), nil
}

// buildInvoker wires the detection invoker, or returns nil when detection
// is disabled.
func buildInvoker(cfg *config.Config, runID string) (*detect.Invoker, *sink.DetectionLog, error) {
	if !cfg.Autocopy.DetectObjects {
		return nil, nil, nil
	}

	detector, err := detect.NewCommandDetector(cfg.Detector.Command,
		time.Duration(cfg.Detector.TimeoutSeconds)*time.Second)
	if err != nil {
		return nil, nil, err
	}

	var detectionLog *sink.DetectionLog
	if cfg.General.DetectionLogFile != "" {
		detectionLog, err = sink.OpenDetectionLog(cfg.General.DetectionLogFile, runID)
		if err != nil {
			return nil, nil, err
		}
	}

	var log detect.Log
	if detectionLog != nil {
		log = detectionLog
	}
	invoker := detect.NewInvoker(detector, nil, log, detect.InvokerOptions{
		SupportedViews: cfg.Detector.SupportedViews,
		MaxOverlap:     cfg.Detector.MaxNMSOverlap,
		BoxFolder:      cfg.General.DetectionBoxFolder,
	})
	return invoker, detectionLog, nil
}

// sourceRoots returns the configured source directory, or every mounted SD
// card when none is configured.
func sourceRoots(cfg *config.Config) ([]string, error) {
	if cfg.Autocopy.DefaultImageSource != "" {
		return []string{cfg.Autocopy.DefaultImageSource}, nil
	}

	drives, err := source.DiscoverSDCards(cfg.Autocopy.SDCardSizes)
	if err != nil {
		return nil, err
	}
	roots := make([]string, 0, len(drives))
	for _, d := range drives {
		slog.Info("Found SD card", "mountpoint", d.Mountpoint, "used_percent", int(d.UsedPercent))
		roots = append(roots, d.Mountpoint)
	}
	return roots, nil
}

func printSummary(progress *sink.ProgressSink, runID string) {
	copied, planned, skipped, failed := progress.Totals()

	fmt.Println("\n========================================")
	fmt.Println("Ingestion Summary")
	fmt.Println("========================================")
	fmt.Printf("Run ID:   %s\n", runID)
	fmt.Printf("Copied:   %d\n", copied)
	if planned > 0 {
		fmt.Printf("Planned:  %d (dry run, nothing copied)\n", planned)
	}
	fmt.Printf("Skipped:  %d\n", skipped)
	fmt.Printf("Failed:   %d\n", failed)
	fmt.Println("========================================")
}
