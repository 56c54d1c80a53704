package logsink

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"go.uber.org/zap"
)

// dayFilePattern matches log-YYYY-MM-DD.log and its numbered segments.
var dayFilePattern = regexp.MustCompile(`^log-\d{4}-\d{2}-\d{2}(\.\d+)?\.log$`)

// IsDayFile reports whether name is a log day file or segment.
func IsDayFile(name string) bool {
	return dayFilePattern.MatchString(name)
}

// SweepResult reports what one retention pass did.
type SweepResult struct {
	Deleted []string
	Failed  map[string]error
}

// Sweeper deletes day files older than the retention window.
type Sweeper struct {
	Dir       string
	Retention time.Duration
	Log       *zap.SugaredLogger
	// Active returns the path being written; it is never deleted.
	Active func() string

	remove func(string) error
}

// Sweep runs one pass. A missing directory is a no-op; a file that cannot be
// removed is logged and skipped.
func (s *Sweeper) Sweep(now time.Time) SweepResult {
	result := SweepResult{Failed: map[string]error{}}

	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger().Warnw("log retention sweep could not list directory", "dir", s.Dir, "error", err)
		}
		return result
	}

	remove := s.remove
	if remove == nil {
		remove = os.Remove
	}
	active := ""
	if s.Active != nil {
		active = s.Active()
	}
	cutoff := now.Add(-s.Retention)

	for _, entry := range entries {
		if entry.IsDir() || !IsDayFile(entry.Name()) {
			continue
		}
		path := filepath.Join(s.Dir, entry.Name())
		if path == active {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			// Removed between listing and stat.
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		if err := remove(path); err != nil {
			result.Failed[path] = err
			s.logger().Warnw("failed to delete expired log file", "file", path, "error", err)
			continue
		}
		result.Deleted = append(result.Deleted, path)
	}

	if len(result.Deleted) > 0 {
		s.logger().Infow("log retention sweep", "deleted", len(result.Deleted), "failed", len(result.Failed))
	}
	return result
}

func (s *Sweeper) logger() *zap.SugaredLogger {
	if s.Log == nil {
		return zap.NewNop().Sugar()
	}
	return s.Log
}
