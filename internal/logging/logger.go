// Package logging provides config-driven categorized logging for contentforge.
// Each subsystem logs through its own category so hosts can turn noisy areas
// off without touching call sites. Output goes through a shared zap logger;
// until Initialize or SetBase is called every logger is a no-op, which keeps
// the engine silent when embedded as a library.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot      Category = "boot"      // Startup, config loading
	CategoryTemplate  Category = "template"  // Template registry, interpolation
	CategoryProfile   Category = "profile"   // Voice/brand profile blending and store
	CategoryProvider  Category = "provider"  // Provider API calls
	CategoryChain     Category = "chain"     // Chain execution
	CategoryReasoning Category = "reasoning" // Reasoning pipeline phases
	CategoryUsage     Category = "usage"     // Token/cost ledger
	CategoryStore     Category = "store"     // Host-side persistence
)

// Options configures Initialize. It mirrors config.LoggingConfig to avoid an
// import cycle.
type Options struct {
	Enabled    bool
	Level      string          // debug, info, warn, error
	Format     string          // json, console
	File       string          // empty = stderr
	Categories map[string]bool // per-category toggles; absent = enabled
}

// Logger is a category-scoped printf-style logger.
type Logger struct {
	category Category
	sugar    *zap.SugaredLogger
}

var (
	mu         sync.RWMutex
	base       = zap.NewNop()
	categories map[string]bool
	loggers    = make(map[Category]*Logger)
)

// Initialize builds the shared zap logger from options.
// A disabled configuration installs a no-op logger.
func Initialize(opts Options) error {
	if !opts.Enabled {
		SetBase(zap.NewNop())
		return nil
	}

	var zc zap.Config
	if opts.Format == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(parseLevel(opts.Level))
	zc.DisableStacktrace = true

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		zc.OutputPaths = []string{opts.File}
		zc.ErrorOutputPaths = []string{opts.File}
	} else {
		zc.OutputPaths = []string{"stderr"}
		zc.ErrorOutputPaths = []string{"stderr"}
	}

	l, err := zc.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	mu.Lock()
	categories = opts.Categories
	mu.Unlock()
	SetBase(l)

	boot := Get(CategoryBoot)
	boot.Info("Logging initialized: level=%s format=%s", strings.ToLower(opts.Level), opts.Format)
	if len(opts.Categories) > 0 {
		names := make([]string, 0, len(opts.Categories))
		for cat, enabled := range opts.Categories {
			if !enabled {
				names = append(names, cat)
			}
		}
		sort.Strings(names)
		boot.Debug("Disabled categories: %v", names)
	}
	return nil
}

// SetBase installs l as the shared logger and drops cached category loggers.
// Hosts that already own a zap logger call this instead of Initialize.
func SetBase(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	mu.Lock()
	base = l
	loggers = make(map[Category]*Logger)
	mu.Unlock()
}

// Base returns the shared zap logger.
func Base() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// IsCategoryEnabled returns whether a specific category is enabled
func IsCategoryEnabled(category Category) bool {
	mu.RLock()
	defer mu.RUnlock()
	if categories == nil {
		return true
	}
	enabled, exists := categories[string(category)]
	if !exists {
		return true
	}
	return enabled
}

// Get returns (or creates) a logger for the given category.
// Returns a no-op logger if the category is disabled.
func Get(category Category) *Logger {
	if !IsCategoryEnabled(category) {
		return &Logger{category: category, sugar: zap.NewNop().Sugar()}
	}

	mu.RLock()
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}
	l := &Logger{
		category: category,
		sugar:    base.With(zap.String("category", string(category))).Sugar(),
	}
	loggers[category] = l
	return l
}

// Sync flushes buffered log entries.
func Sync() {
	_ = Base().Sync()
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

// StructuredLog writes msg with key/value fields at the given level.
func (l *Logger) StructuredLog(level string, msg string, fields map[string]interface{}) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	kv := make([]interface{}, 0, len(fields)*2)
	for _, k := range keys {
		kv = append(kv, k, fields[k])
	}

	switch strings.ToLower(level) {
	case "debug":
		l.sugar.Debugw(msg, kv...)
	case "warn", "warning":
		l.sugar.Warnw(msg, kv...)
	case "error":
		l.sugar.Errorw(msg, kv...)
	default:
		l.sugar.Infow(msg, kv...)
	}
}

// =============================================================================
// CATEGORY SHORTCUTS
// =============================================================================

// Boot logs to the boot category
func Boot(format string, args ...interface{}) { Get(CategoryBoot).Info(format, args...) }

// BootDebug logs debug to the boot category
func BootDebug(format string, args ...interface{}) { Get(CategoryBoot).Debug(format, args...) }

// BootWarn logs warning to the boot category
func BootWarn(format string, args ...interface{}) { Get(CategoryBoot).Warn(format, args...) }

// Template logs to the template category
func Template(format string, args ...interface{}) { Get(CategoryTemplate).Info(format, args...) }

// TemplateDebug logs debug to the template category
func TemplateDebug(format string, args ...interface{}) {
	Get(CategoryTemplate).Debug(format, args...)
}

// TemplateWarn logs warning to the template category
func TemplateWarn(format string, args ...interface{}) {
	Get(CategoryTemplate).Warn(format, args...)
}

// Profile logs to the profile category
func Profile(format string, args ...interface{}) { Get(CategoryProfile).Info(format, args...) }

// ProfileDebug logs debug to the profile category
func ProfileDebug(format string, args ...interface{}) {
	Get(CategoryProfile).Debug(format, args...)
}

// Provider logs to the provider category
func Provider(format string, args ...interface{}) { Get(CategoryProvider).Info(format, args...) }

// ProviderDebug logs debug to the provider category
func ProviderDebug(format string, args ...interface{}) {
	Get(CategoryProvider).Debug(format, args...)
}

// ProviderWarn logs warning to the provider category
func ProviderWarn(format string, args ...interface{}) {
	Get(CategoryProvider).Warn(format, args...)
}

// ProviderError logs error to the provider category
func ProviderError(format string, args ...interface{}) {
	Get(CategoryProvider).Error(format, args...)
}

// Chain logs to the chain category
func Chain(format string, args ...interface{}) { Get(CategoryChain).Info(format, args...) }

// ChainDebug logs debug to the chain category
func ChainDebug(format string, args ...interface{}) { Get(CategoryChain).Debug(format, args...) }

// ChainWarn logs warning to the chain category
func ChainWarn(format string, args ...interface{}) { Get(CategoryChain).Warn(format, args...) }

// ChainError logs error to the chain category
func ChainError(format string, args ...interface{}) { Get(CategoryChain).Error(format, args...) }

// Reasoning logs to the reasoning category
func Reasoning(format string, args ...interface{}) {
	Get(CategoryReasoning).Info(format, args...)
}

// ReasoningDebug logs debug to the reasoning category
func ReasoningDebug(format string, args ...interface{}) {
	Get(CategoryReasoning).Debug(format, args...)
}

// ReasoningError logs error to the reasoning category
func ReasoningError(format string, args ...interface{}) {
	Get(CategoryReasoning).Error(format, args...)
}

// Usage logs to the usage category
func Usage(format string, args ...interface{}) { Get(CategoryUsage).Info(format, args...) }

// UsageDebug logs debug to the usage category
func UsageDebug(format string, args ...interface{}) { Get(CategoryUsage).Debug(format, args...) }

// UsageWarn logs warning to the usage category
func UsageWarn(format string, args ...interface{}) { Get(CategoryUsage).Warn(format, args...) }

// Store logs to the store category
func Store(format string, args ...interface{}) { Get(CategoryStore).Info(format, args...) }

// StoreDebug logs debug to the store category
func StoreDebug(format string, args ...interface{}) { Get(CategoryStore).Debug(format, args...) }

// StoreError logs error to the store category
func StoreError(format string, args ...interface{}) { Get(CategoryStore).Error(format, args...) }

// =============================================================================
// REQUEST ID TRACING
// =============================================================================

// RequestLogger provides request-scoped logging with a correlation ID
type RequestLogger struct {
	logger    *Logger
	requestID string
	fields    map[string]interface{}
}

// WithRequestID creates a request-scoped logger, e.g. one per chain execution.
func WithRequestID(category Category, requestID string) *RequestLogger {
	return &RequestLogger{
		logger:    Get(category),
		requestID: requestID,
		fields:    make(map[string]interface{}),
	}
}

// WithField adds a field to the request logger
func (r *RequestLogger) WithField(key string, value interface{}) *RequestLogger {
	r.fields[key] = value
	return r
}

func (r *RequestLogger) with() *zap.SugaredLogger {
	kv := make([]interface{}, 0, 2+len(r.fields)*2)
	kv = append(kv, "req", r.requestID)
	keys := make([]string, 0, len(r.fields))
	for k := range r.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		kv = append(kv, k, r.fields[k])
	}
	return r.logger.sugar.With(kv...)
}

func (r *RequestLogger) Debug(format string, args ...interface{}) { r.with().Debugf(format, args...) }
func (r *RequestLogger) Info(format string, args ...interface{})  { r.with().Infof(format, args...) }
func (r *RequestLogger) Warn(format string, args ...interface{})  { r.with().Warnf(format, args...) }
func (r *RequestLogger) Error(format string, args ...interface{}) { r.with().Errorf(format, args...) }

// =============================================================================
// TIMING HELPERS
// =============================================================================

// Timer helps measure operation duration
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation
func StartTimer(category Category, operation string) *Timer {
	return &Timer{
		category: category,
		op:       operation,
		start:    time.Now(),
	}
}

// Stop ends the timer and logs the duration
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}

// StopWithInfo ends the timer and logs at info level
func (t *Timer) StopWithInfo() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Info("%s completed in %v", t.op, elapsed)
	return elapsed
}

// StopWithThreshold logs warning if duration exceeds threshold
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		Get(t.category).Warn("%s took %v (threshold: %v)", t.op, elapsed, threshold)
	} else {
		Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	}
	return elapsed
}
