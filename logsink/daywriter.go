package logsink

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/yllada/deskshell/common"
)

// DayWriter appends to one file per calendar day. A file that grows past
// maxSize rolls over to a numbered segment of the same day. Files of past
// days are never reopened.
type DayWriter struct {
	mu      sync.Mutex
	dir     string
	maxSize int64
	now     func() time.Time

	file    *os.File
	day     string
	segment int
	size    int64
}

// NewDayWriter creates a writer in dir. Files are opened lazily on first write.
// A maxSize of zero disables segment rolling.
func NewDayWriter(dir string, maxSize int64, now func() time.Time) *DayWriter {
	if now == nil {
		now = time.Now
	}
	return &DayWriter{dir: dir, maxSize: maxSize, now: now}
}

// DayFileName returns the file name of a day segment. Segment 0 is the plain day file.
func DayFileName(day string, segment int) string {
	if segment == 0 {
		return common.LogFilePrefix + day + common.LogFileExt
	}
	return common.LogFilePrefix + day + "." + strconv.Itoa(segment) + common.LogFileExt
}

// Write implements io.Writer.
func (w *DayWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	day := w.now().Format(common.LogDateLayout)
	switch {
	case w.file == nil || day != w.day:
		if err := w.openDay(day); err != nil {
			return 0, err
		}
	case w.maxSize > 0 && w.size > 0 && w.size+int64(len(p)) > w.maxSize:
		if err := w.openSegment(w.segment + 1); err != nil {
			return 0, err
		}
	}

	n, err := w.file.Write(p)
	w.size += int64(n)
	return n, err
}

// openDay switches to day, continuing its latest segment if the process restarted mid-day.
func (w *DayWriter) openDay(day string) error {
	w.day = day
	return w.openSegment(w.latestSegment(day))
}

func (w *DayWriter) openSegment(segment int) error {
	if w.file != nil {
		w.file.Close()
		w.file = nil
	}

	if err := os.MkdirAll(w.dir, 0700); err != nil {
		return fmt.Errorf("error creating log directory: %w", err)
	}

	path := filepath.Join(w.dir, DayFileName(w.day, segment))
	if common.IsSymlink(path) {
		return fmt.Errorf("security error: log file %s is a symlink", path)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("error opening log file: %w", err)
	}

	var size int64
	if info, err := file.Stat(); err == nil {
		size = info.Size()
	}

	w.file = file
	w.segment = segment
	w.size = size
	return nil
}

// latestSegment finds the highest existing segment number of day.
func (w *DayWriter) latestSegment(day string) int {
	matches, err := filepath.Glob(filepath.Join(w.dir, common.LogFilePrefix+day+".*"+common.LogFileExt))
	if err != nil {
		return 0
	}
	latest := 0
	for _, m := range matches {
		name := strings.TrimSuffix(filepath.Base(m), common.LogFileExt)
		n, err := strconv.Atoi(name[strings.LastIndexByte(name, '.')+1:])
		if err == nil && n > latest {
			latest = n
		}
	}
	return latest
}

// ActivePath returns the file currently written to, or "" before the first write.
func (w *DayWriter) ActivePath() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return ""
	}
	return w.file.Name()
}

// Sync flushes the active file.
func (w *DayWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	return w.file.Sync()
}

// Close closes the active file. A later Write reopens it.
func (w *DayWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}
