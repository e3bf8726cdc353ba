// Package logging provides config-driven categorized logging for librarian.
// Every component of the core loop (extract, store, bootstrap, query, verify,
// gates, agent surface, event bus, providers) logs through a category so
// that a single log stream can be filtered per-component without touching
// call sites.
package logging

import (
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category identifies the component emitting a log line.
type Category string

const (
	CategoryBoot     Category = "boot"
	CategoryStore    Category = "store"
	CategoryExtract  Category = "extract"
	CategoryQuery    Category = "query"
	CategoryVerify   Category = "verify"
	CategoryGate     Category = "gate"
	CategoryAgent    Category = "agent"
	CategoryBus      Category = "bus"
	CategoryProvider Category = "provider"
	CategoryCLI      Category = "cli"
)

var (
	mu      sync.RWMutex
	base    *zap.Logger
	cache   = map[Category]*zap.SugaredLogger{}
	initted bool
)

// Options configures the process-wide logger. Call Init once, early in
// main(); packages that log before Init uses a sane no-op-safe default.
type Options struct {
	JSON  bool
	Debug bool
}

// Init installs the process-wide zap logger. Safe to call more than once;
// the last call wins.
func Init(opts Options) error {
	level := zapcore.InfoLevel
	if opts.Debug {
		level = zapcore.DebugLevel
	}
	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	if opts.JSON {
		cfg.Encoding = "json"
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	l, err := cfg.Build()
	if err != nil {
		return err
	}
	mu.Lock()
	base = l
	cache = map[Category]*zap.SugaredLogger{}
	initted = true
	mu.Unlock()
	return nil
}

func ensure() {
	mu.Lock()
	defer mu.Unlock()
	if initted {
		return
	}
	l, _ := zap.NewDevelopment()
	base = l
	initted = true
}

// Get returns a logger tagged with the given category.
func Get(c Category) *zap.SugaredLogger {
	ensure()
	mu.RLock()
	if sl, ok := cache[c]; ok {
		mu.RUnlock()
		return sl
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if sl, ok := cache[c]; ok {
		return sl
	}
	sl := base.Sugar().With("category", string(c))
	cache[c] = sl
	return sl
}

// Sync flushes any buffered log entries. Call on process exit.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	if base != nil {
		_ = base.Sync()
	}
}

// Timer logs the duration of an operation when Stop is called.
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing op within category.
func StartTimer(category Category, op string) *Timer {
	return &Timer{category: category, op: op, start: time.Now()}
}

// Stop logs the elapsed duration at debug level.
func (t *Timer) Stop() time.Duration {
	d := time.Since(t.start)
	Get(t.category).Debugw("operation completed", "op", t.op, "duration_ms", d.Milliseconds())
	return d
}

// IsTerminal reports whether stderr is attached to a terminal.
func IsTerminal() bool {
	fi, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
