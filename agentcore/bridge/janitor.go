// Package bridge provides background sweeping for orphaned hand-off files.
//
// Invocations remove their own temp files, but a crashed host process can
// leave request and response files behind. The janitor periodically removes
// any that outlive the retention window.
package bridge

import (
	"os"
	"path/filepath"
	"time"

	"github.com/empi-systems/agentruntime/agentcore/observability"
)

// handoffPatterns matches the files CreateTemp produces for invocations.
var handoffPatterns = []string{"engine_req_*.json", "engine_resp_*.json"}

// JanitorConfig holds configurable sweep parameters.
type JanitorConfig struct {
	// Interval is how often to sweep (default: 5 minutes).
	Interval time.Duration
	// Retention is how long a hand-off file may exist before it is
	// considered orphaned (default: 1 hour).
	Retention time.Duration
	// TempDir is the directory to sweep. Empty means the OS default.
	TempDir string
}

// DefaultJanitorConfig returns default sweep configuration.
func DefaultJanitorConfig() JanitorConfig {
	return JanitorConfig{
		Interval:  5 * time.Minute,
		Retention: 1 * time.Hour,
	}
}

// StartJanitor starts a background goroutine that periodically sweeps
// orphaned hand-off files. Returns a stop function that should be called to
// stop the sweep loop.
func StartJanitor(cfg JanitorConfig, logger Logger) func() {
	if cfg.Interval == 0 {
		defaults := DefaultJanitorConfig()
		defaults.TempDir = cfg.TempDir
		cfg = defaults
	}
	if logger == nil {
		logger = nopLogger{}
	}

	ticker := time.NewTicker(cfg.Interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				runSweepCycle(cfg, logger)
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	return func() { close(done) }
}

// runSweepCycle performs a single sweep with panic recovery.
func runSweepCycle(cfg JanitorConfig, logger Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("sweep_panic_recovered", "error", r)
		}
	}()

	swept := SweepTempFiles(cfg.TempDir, cfg.Retention)
	if swept > 0 {
		logger.Debug("sweep_cycle_completed", "files_swept", swept)
	}
}

// SweepTempFiles removes hand-off files in dir older than the retention
// window and returns how many were removed. An empty dir means the OS
// default temp directory.
func SweepTempFiles(dir string, retention time.Duration) int {
	if dir == "" {
		dir = os.TempDir()
	}
	cutoff := time.Now().Add(-retention)

	swept := 0
	for _, pattern := range handoffPatterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			continue
		}
		for _, path := range matches {
			info, err := os.Stat(path)
			if err != nil {
				continue
			}
			if info.ModTime().After(cutoff) {
				continue
			}
			if os.Remove(path) == nil {
				swept++
			}
		}
	}

	observability.RecordTempFilesSwept(swept)
	return swept
}
