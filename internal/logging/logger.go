// Package logging writes the tool's key=value log lines to one writer, keeps a
// short in-memory history and forwards every entry to the OpenTelemetry log
// bridge.
package logging

import (
	"io"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

const DefaultHistorySize = 256

type Options struct {
	Level       Level
	Output      io.Writer
	HistorySize int
}

// core is shared by a logger and everything derived from it through With.
type core struct {
	level   Level
	history *History
	emitter *otelEmitter

	mutex  sync.Mutex
	output io.Writer
}

type Logger struct {
	core   *core
	fields map[string]string
}

func New(options Options) *Logger {
	level := options.Level
	if _, ok := levelRanks[level]; !ok {
		level = LevelInfo
	}
	output := options.Output
	if output == nil {
		output = io.Discard
	}
	size := options.HistorySize
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &Logger{core: &core{
		level:   level,
		history: newHistory(size),
		emitter: newOTelEmitter(),
		output:  output,
	}}
}

// Discard returns a debug-level logger that prints nothing but still records
// history.
func Discard() *Logger {
	return New(Options{Level: LevelDebug})
}

func (l *Logger) History() *History {
	if l == nil {
		return nil
	}
	return l.core.history
}

// With returns a logger that adds fields to every entry.
func (l *Logger) With(fields map[string]string) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{core: l.core, fields: mergeFields(l.fields, fields)}
}

func (l *Logger) Debug(message string, fields map[string]string) {
	l.log(LevelDebug, message, fields)
}

func (l *Logger) Info(message string, fields map[string]string) {
	l.log(LevelInfo, message, fields)
}

func (l *Logger) Warn(message string, fields map[string]string) {
	l.log(LevelWarning, message, fields)
}

func (l *Logger) Error(message string, fields map[string]string) {
	l.log(LevelError, message, fields)
}

func (l *Logger) Enabled(level Level) bool {
	if l == nil {
		return false
	}
	return levelRanks[level] >= levelRanks[l.core.level]
}

func (l *Logger) log(level Level, message string, fields map[string]string) {
	if !l.Enabled(level) {
		return
	}
	entry := Entry{
		Time:    time.Now().UTC(),
		Level:   level,
		Message: message,
		Fields:  mergeFields(l.fields, fields),
	}
	l.core.history.record(entry)
	l.core.emitter.emit(entry)

	line := formatLine(entry)
	l.core.mutex.Lock()
	_, _ = io.WriteString(l.core.output, line)
	l.core.mutex.Unlock()
}

// ParseLevel accepts debug, info, warn, warning and error in any case.
func ParseLevel(value string) (Level, bool) {
	level, ok := levelNames[strings.ToLower(strings.TrimSpace(value))]
	return level, ok
}

func mergeFields(base, extra map[string]string) map[string]string {
	if len(base) == 0 && len(extra) == 0 {
		return nil
	}
	merged := make(map[string]string, len(base)+len(extra))
	for key, value := range base {
		merged[key] = value
	}
	for key, value := range extra {
		merged[key] = value
	}
	return merged
}

// formatLine renders time=... level=... msg="..." followed by the fields in
// key order.
func formatLine(entry Entry) string {
	var line strings.Builder
	line.WriteString("time=")
	line.WriteString(entry.Time.Format(time.RFC3339))
	line.WriteString(" level=")
	line.WriteString(string(entry.Level))
	line.WriteString(" msg=")
	line.WriteString(strconv.Quote(entry.Message))

	keys := make([]string, 0, len(entry.Fields))
	for key := range entry.Fields {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		line.WriteByte(' ')
		line.WriteString(key)
		line.WriteByte('=')
		line.WriteString(strconv.Quote(entry.Fields[key]))
	}
	line.WriteByte('\n')
	return line.String()
}
