package detect

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// CommandDetector runs an external detector binary. The image path is
// appended to the configured argv, and the program is expected to print one
// box per line on stdout as "x1,y1,x2,y2" in pixel coordinates. No output
// means no detections.
type CommandDetector struct {
	argv    []string
	timeout time.Duration
}

// NewCommandDetector builds a detector around the given argv. A
// non-positive timeout disables the per-invocation deadline.
func NewCommandDetector(argv []string, timeout time.Duration) (*CommandDetector, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("detector command is empty")
	}
	return &CommandDetector{argv: argv, timeout: timeout}, nil
}

// Detect implements Detector.
func (d *CommandDetector) Detect(ctx context.Context, imagePath string) ([]Box, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	args := append(append([]string{}, d.argv[1:]...), imagePath)
	cmd := exec.CommandContext(ctx, d.argv[0], args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("detector timed out on %s: %w", imagePath, ctx.Err())
		}
		return nil, fmt.Errorf("detector failed on %s: %w (stderr: %s)", imagePath, err, strings.TrimSpace(stderr.String()))
	}

	return parseBoxes(out)
}

func parseBoxes(out []byte) ([]Box, error) {
	var boxes []Box
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) != 4 {
			return nil, fmt.Errorf("malformed detector output line: %q", line)
		}
		var coords [4]float64
		for i, field := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("malformed detector output line: %q", line)
			}
			coords[i] = v
		}
		box := Box{X1: coords[0], Y1: coords[1], X2: coords[2], Y2: coords[3]}
		if !box.Valid() {
			return nil, fmt.Errorf("detector returned degenerate box: %q", line)
		}
		boxes = append(boxes, box)
	}
	return boxes, scanner.Err()
}
