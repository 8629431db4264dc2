package util

import (
	"fmt"
	"time"
)

// captureTimeFormat stamps capture filenames down to the second, which
// keeps repeated captures from the same device distinct.
const captureTimeFormat = "20060102-150405"

// CaptureFilename builds a default output filename for a device
// capture: snapo-<kind>-<device>-<timestamp>.<ext>. The device name is
// sanitized, so a display name like "Pixel 8 Pro" is as valid a source
// as a serial.
//
// Parameters:
//   - kind: capture kind, e.g. "screenshot" or "recording"
//   - device: device serial or display name
//   - at: capture time, stamped into the name
//   - ext: file extension without the dot, e.g. "png"
//
// Returns:
//   - string: the generated filename
func CaptureFilename(kind, device string, at time.Time, ext string) string {
	name := SanitizeForFilename(device)
	if name == "" {
		name = "device"
	}
	return fmt.Sprintf("snapo-%s-%s-%s.%s", kind, name, at.Format(captureTimeFormat), ext)
}
