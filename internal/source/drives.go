package source

import (
	"fmt"
	"log/slog"

	"github.com/shirou/gopsutil/v4/disk"
)

// Drive is one mounted volume that looks like a trail camera SD card.
type Drive struct {
	Mountpoint  string
	Volume      string
	UsedPercent float64
}

// DiscoverSDCards returns the mounted volumes whose total capacity is
// within 5% of one of the configured SD card sizes (in GB). When no source
// directory is given on the command line or in the config file, ingestion
// runs over every card found.
func DiscoverSDCards(cardSizesGB []float64) ([]Drive, error) {
	partitions, err := disk.Partitions(false)
	if err != nil {
		return nil, fmt.Errorf("failed to list disk partitions: %w", err)
	}

	var drives []Drive
	for _, part := range partitions {
		usage, err := disk.Usage(part.Mountpoint)
		if err != nil {
			slog.Debug("Skipping unreadable partition", "mountpoint", part.Mountpoint, "err", err)
			continue
		}
		sizeGB := float64(usage.Total) / 1e9
		for _, cardSize := range cardSizesGB {
			if cardSize*0.95 <= sizeGB && sizeGB <= cardSize*1.05 {
				drives = append(drives, Drive{
					Mountpoint:  part.Mountpoint,
					Volume:      part.Device,
					UsedPercent: usage.UsedPercent,
				})
				break
			}
		}
	}
	return drives, nil
}
