package logsink

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/yllada/deskshell/common"
)

// Config holds configuration options for the sink.
type Config struct {
	// Dir is the log directory; empty means console only.
	Dir string
	// Level is the minimum level written.
	Level zapcore.Level
	// MaxFileSize is the soft cap of a segment in bytes (default 20MB).
	MaxFileSize int64
	// Console receives every entry as well; defaults to stdout.
	Console io.Writer
	// Retention and SweepInterval default to the fixed shell constants.
	Retention     time.Duration
	SweepInterval time.Duration
	// Now is the clock; defaults to time.Now.
	Now func() time.Time
}

// Sink is the host's single log write path. Component loggers derived from
// it, and entries forwarded from presentation processes, all serialize
// through the same cores.
type Sink struct {
	base   *zap.Logger
	log    *zap.SugaredLogger
	level  zap.AtomicLevel
	writer *DayWriter
	sweep  *Sweeper
	cfg    Config

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New builds a sink. It never fails: when the log directory cannot be
// created the sink degrades to the console and reports why there.
func New(cfg Config) *Sink {
	if cfg.Console == nil {
		cfg.Console = os.Stdout
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = common.DefaultLogMaxSizeMB * 1024 * 1024
	}
	if cfg.Retention <= 0 {
		cfg.Retention = common.LogRetentionDays * 24 * time.Hour
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = common.LogSweepInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	s := &Sink{cfg: cfg, level: zap.NewAtomicLevelAt(cfg.Level)}
	enc := zapcore.NewConsoleEncoder(encoderConfig())
	console := zapcore.AddSync(cfg.Console)
	cores := []zapcore.Core{zapcore.NewCore(enc, console, s.level)}

	var dirErr error
	if cfg.Dir != "" {
		dirErr = prepareDir(cfg.Dir)
		if dirErr == nil {
			s.writer = NewDayWriter(cfg.Dir, cfg.MaxFileSize, cfg.Now)
			cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(s.writer), s.level))
		}
	}

	s.base = zap.New(zapcore.NewTee(cores...), zap.ErrorOutput(console), zap.WithClock(clock{cfg.Now}))
	s.log = s.base.Sugar()

	if dirErr != nil {
		s.log.Errorw("log directory unavailable, logging to console only", "dir", cfg.Dir, "error", dirErr)
	}

	s.sweep = &Sweeper{
		Dir:       cfg.Dir,
		Retention: cfg.Retention,
		Log:       s.Component("logsink"),
		Active:    s.ActivePath,
	}
	return s
}

func prepareDir(dir string) error {
	if common.IsSymlink(dir) {
		return fmt.Errorf("security error: log directory %s is a symlink", dir)
	}
	return os.MkdirAll(dir, 0700)
}

// encoderConfig renders "[timestamp] [level] message {meta}".
func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:    "time",
		LevelKey:   "level",
		MessageKey: "msg",
		LineEnding: zapcore.DefaultLineEnding,
		EncodeTime: func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString("[" + t.Format("2006-01-02T15:04:05.000Z07:00") + "]")
		},
		EncodeLevel: func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString("[" + l.String() + "]")
		},
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	}
}

type clock struct{ now func() time.Time }

func (c clock) Now() time.Time                         { return c.now() }
func (c clock) NewTicker(d time.Duration) *time.Ticker { return time.NewTicker(d) }

// ParseLevel accepts the four levels a presentation process may use.
func ParseLevel(s string) (zapcore.Level, error) {
	switch s {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info":
		return zapcore.InfoLevel, nil
	case "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
}

// SetLevel sets the minimum log level.
func (s *Sink) SetLevel(level zapcore.Level) {
	s.level.SetLevel(level)
}

// Logger returns the root sugared logger.
func (s *Sink) Logger() *zap.SugaredLogger {
	return s.log
}

// Component returns a logger tagged with the component name.
func (s *Sink) Component(name string) *zap.SugaredLogger {
	return s.log.With("component", name)
}

// Debug logs a debug message with key/value metadata.
func (s *Sink) Debug(msg string, keysAndValues ...any) {
	s.log.Debugw(msg, keysAndValues...)
}

// Info logs an informational message.
func (s *Sink) Info(msg string, keysAndValues ...any) {
	s.log.Infow(msg, keysAndValues...)
}

// Warn logs a warning message.
func (s *Sink) Warn(msg string, keysAndValues ...any) {
	s.log.Warnw(msg, keysAndValues...)
}

// Error logs an error message.
func (s *Sink) Error(msg string, keysAndValues ...any) {
	s.log.Errorw(msg, keysAndValues...)
}

// Forward writes an entry reported by a presentation process. The level is
// taken at face value within the four allowed levels; anything else is
// logged at info so a surface cannot reach panic or fatal.
func (s *Sink) Forward(level, surface, msg string, meta []any) {
	lvl, err := ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	fields := []zap.Field{zap.String("surface", surface)}
	if len(meta) > 0 {
		fields = append(fields, zap.Any("meta", meta))
	}
	if ce := s.base.Check(lvl, msg); ce != nil {
		ce.Write(fields...)
	}
}

// ActivePath returns the day file currently written to.
func (s *Sink) ActivePath() string {
	if s.writer == nil {
		return ""
	}
	return s.writer.ActivePath()
}

// Dir returns the log directory.
func (s *Sink) Dir() string {
	return s.cfg.Dir
}

// Sweep runs one retention pass now.
func (s *Sink) Sweep() SweepResult {
	if s.cfg.Dir == "" {
		return SweepResult{Failed: map[string]error{}}
	}
	return s.sweep.Sweep(s.cfg.Now())
}

// Start runs a retention sweep immediately and then every SweepInterval
// until ctx is done or Close is called.
func (s *Sink) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.running = true
	s.cancel = cancel
	s.mu.Unlock()

	s.Sweep()

	s.wg.Add(1)
	go s.runLoop(ctx)
}

func (s *Sink) runLoop(ctx context.Context) {
	defer s.wg.Done()
	defer common.Recover(s.log, "retention sweep")
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Close stops the sweep loop, flushes and closes the active file.
func (s *Sink) Close() error {
	s.mu.Lock()
	if s.running {
		s.cancel()
		s.running = false
	}
	s.mu.Unlock()
	s.wg.Wait()

	_ = s.base.Sync()
	if s.writer != nil {
		return s.writer.Close()
	}
	return nil
}
