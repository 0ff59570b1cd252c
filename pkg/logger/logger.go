// Package logger is the leveled logger shared by every cachebust command.
// Lines are pretty-printed for terminals or emitted as JSON objects.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"
)

// Level represents the severity level of log messages
type Level int

const (
	TraceLevel Level = iota
	DebugLevel
	InfoLevel
	WarnLevel
	ErrorLevel
)

var levelNames = [...]string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR"}

// ANSI colours per level, same index as levelNames.
var levelColors = [...]string{"37", "36", "32", "33", "31"}

func (l Level) String() string {
	if l < TraceLevel || l > ErrorLevel {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel maps a flag value to a Level. Unknown values fall back to info.
func ParseLevel(s string) Level {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "WARNING" {
		return WarnLevel
	}
	for i, name := range levelNames {
		if s == name {
			return Level(i)
		}
	}
	return InfoLevel
}

// Config holds the logger configuration
type Config struct {
	Level     Level
	UseColor  bool
	JSON      bool
	Component string
	// NoOp tags every line so dry-run output is never mistaken for a real run.
	NoOp   bool
	Output io.Writer
}

// Logger writes leveled lines to one writer.
type Logger struct {
	config Config
	out    io.Writer
}

// New builds a standalone logger. Output defaults to stderr.
func New(config Config) *Logger {
	out := config.Output
	if out == nil {
		out = os.Stderr
	}
	return &Logger{config: config, out: out}
}

var defaultLogger *Logger

// Initialize sets up the default logger used by the package-level helpers.
func Initialize(config Config) error {
	defaultLogger = New(config)
	return nil
}

// SetOutput redirects the default logger.
func SetOutput(w io.Writer) {
	if defaultLogger != nil {
		defaultLogger.out = w
	}
}

// Field is one structured key/value attached to a line.
type Field struct {
	Key   string
	Value interface{}
}

func String(key, value string) Field { return Field{Key: key, Value: value} }

func Int(key string, value int) Field { return Field{Key: key, Value: value} }

// Err attaches err under the "error" key.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: "<nil>"}
	}
	return Field{Key: "error", Value: err.Error()}
}

// LogEntry is the JSON shape of one line.
type LogEntry struct {
	Time      time.Time              `json:"time"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Component string                 `json:"component,omitempty"`
	NoOp      bool                   `json:"no_op,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// Log writes message at level when the logger's threshold allows it.
func (l *Logger) Log(level Level, message string, fields ...Field) {
	if level < l.config.Level {
		return
	}
	now := time.Now()
	var line string
	if l.config.JSON {
		line = l.jsonLine(now, level, message, fields)
	} else {
		line = l.prettyLine(now, level, message, fields)
	}
	_, _ = io.WriteString(l.out, line+"\n")
}

func (l *Logger) jsonLine(now time.Time, level Level, message string, fields []Field) string {
	entry := LogEntry{
		Time:      now,
		Level:     level.String(),
		Message:   message,
		Component: l.config.Component,
		NoOp:      l.config.NoOp,
	}
	if len(fields) > 0 {
		entry.Fields = make(map[string]interface{}, len(fields))
		for _, f := range fields {
			entry.Fields[f.Key] = f.Value
		}
	}
	data, _ := json.Marshal(entry)
	return string(data)
}

// prettyLine renders "time [LEVEL] component: [NO-OP] message {k=v, ...}".
// Field keys are sorted so repeated runs produce comparable output.
func (l *Logger) prettyLine(now time.Time, level Level, message string, fields []Field) string {
	var b strings.Builder
	b.WriteString(now.Format("2006-01-02 15:04:05"))

	name := level.String()
	if l.config.UseColor && level >= TraceLevel && level <= ErrorLevel {
		name = "\033[" + levelColors[level] + "m" + name + "\033[0m"
	}
	fmt.Fprintf(&b, " [%s]", name)
	if l.config.Component != "" {
		fmt.Fprintf(&b, " %s:", l.config.Component)
	}
	if l.config.NoOp {
		if l.config.UseColor {
			b.WriteString(" \033[35m[NO-OP]\033[0m")
		} else {
			b.WriteString(" [NO-OP]")
		}
	}
	b.WriteString(" " + message)

	if len(fields) > 0 {
		sorted := append([]Field(nil), fields...)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })
		parts := make([]string, len(sorted))
		for i, f := range sorted {
			parts[i] = fmt.Sprintf("%s=%v", f.Key, f.Value)
		}
		b.WriteString(" {" + strings.Join(parts, ", ") + "}")
	}
	return b.String()
}

// logAt routes package-level calls; before Initialize only warnings and
// errors reach stderr.
func logAt(level Level, message string, fields []Field) {
	if defaultLogger != nil {
		defaultLogger.Log(level, message, fields...)
		return
	}
	if level >= WarnLevel {
		fmt.Fprintf(os.Stderr, "[%s] cachebust: %s\n", level, message)
	}
}

func Trace(message string, fields ...Field) { logAt(TraceLevel, message, fields) }

func Debug(message string, fields ...Field) { logAt(DebugLevel, message, fields) }

func Info(message string, fields ...Field) { logAt(InfoLevel, message, fields) }

func Warn(message string, fields ...Field) { logAt(WarnLevel, message, fields) }

func Error(message string, fields ...Field) { logAt(ErrorLevel, message, fields) }
