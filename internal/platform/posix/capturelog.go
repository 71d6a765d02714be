package posix

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lestrrat-go/strftime"
)

// CaptureLog writes every raw frame this node transmits or receives to a
// rotating file, named by a strftime pattern so a day's traffic lives in
// one file, grounded on the teacher's log.go daily CSV log naming
// convention (applied here to raw 802.15.4 frames instead of APRS packets).
// Disabled entirely when dir is empty, the optional-diagnostics posture
// §6 calls for.
type CaptureLog struct {
	dir     string
	pattern *strftime.Strftime

	currentPath string
	file        *os.File
}

// NewCaptureLog prepares (but does not open) a capture log rotating daily
// under dir. A nil *CaptureLog is safe to call Write on (a no-op), so
// callers needn't branch on whether capture is enabled.
func NewCaptureLog(dir string) (*CaptureLog, error) {
	if dir == "" {
		return nil, nil
	}
	pattern, err := strftime.New(filepath.Join(dir, "capture-%Y%m%d.bin"))
	if err != nil {
		return nil, fmt.Errorf("posix: capture log pattern: %w", err)
	}
	return &CaptureLog{dir: dir, pattern: pattern}, nil
}

// Write appends one captured frame, rotating to a new day's file as
// needed. A nil receiver is a no-op, so the core can hold an always-valid
// *CaptureLog even when capture is disabled.
func (c *CaptureLog) Write(frame []byte) error {
	if c == nil {
		return nil
	}
	path := c.pattern.FormatString(time.Now())
	if path != c.currentPath {
		if c.file != nil {
			c.file.Close()
		}
		if err := os.MkdirAll(c.dir, 0o755); err != nil {
			return err
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		c.file, c.currentPath = f, path
	}
	_, err := c.file.Write(frame)
	return err
}

// Close releases the currently open capture file, if any.
func (c *CaptureLog) Close() error {
	if c == nil || c.file == nil {
		return nil
	}
	return c.file.Close()
}
