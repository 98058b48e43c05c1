package logging

import (
	"context"
	"fmt"
	"io"
	"log"
	"maps"
	"os"
	"slices"
	"strings"
)

// levelColors wraps a level's lines when colors are on. Debug and Info stay plain.
var levelColors = map[Level]string{
	WarnLevel:  ColorYellow,
	ErrorLevel: ColorRed,
	FatalLevel: ColorBold + ColorRed,
}

// DefaultLogger prints one line per record: "[LEVEL] msg[: err] k=v ...",
// keys sorted. Debug and Info lines go to out, the rest to errOut.
type DefaultLogger struct {
	out       *log.Logger
	errOut    *log.Logger
	level     Level
	fields    Fields
	useColors bool
	exit      func(int)
}

// NewDefaultLogger logs to stdout and stderr with timestamps. Colors are
// on when stdout is a terminal.
func NewDefaultLogger() *DefaultLogger {
	l := NewWriterLogger(os.Stdout, os.Stderr)
	l.out.SetFlags(log.LstdFlags)
	l.errOut.SetFlags(log.LstdFlags)
	l.useColors = isTerminal(os.Stdout)
	l.exit = os.Exit
	return l
}

// NewWriterLogger logs to the given writers without timestamps or colors.
// Fatal does not exit.
func NewWriterLogger(out, errOut io.Writer) *DefaultLogger {
	return &DefaultLogger{
		out:    log.New(out, "", 0),
		errOut: log.New(errOut, "", 0),
		level:  InfoLevel,
		fields: make(Fields),
		exit:   func(int) {},
	}
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

func (d *DefaultLogger) line(level Level, err error, msg string, extra []Fields) string {
	merged := make(Fields, len(d.fields))
	maps.Copy(merged, d.fields)
	for _, f := range extra {
		maps.Copy(merged, f)
	}

	var sb strings.Builder
	sb.WriteString("[" + level.String() + "] " + msg)
	if err != nil {
		sb.WriteString(": " + err.Error())
	}
	for _, k := range slices.Sorted(maps.Keys(merged)) {
		fmt.Fprintf(&sb, " %s=%v", k, merged[k])
	}

	if color, ok := levelColors[level]; ok && d.useColors {
		return color + sb.String() + ColorReset
	}
	return sb.String()
}

func (d *DefaultLogger) write(level Level, err error, msg string, extra []Fields) {
	if level < d.level {
		return
	}

	sink := d.errOut
	if level <= InfoLevel {
		sink = d.out
	}
	sink.Println(d.line(level, err, msg, extra))

	if level == FatalLevel {
		d.exit(1)
	}
}

func (d *DefaultLogger) Debug(msg string, fields ...Fields) { d.write(DebugLevel, nil, msg, fields) }
func (d *DefaultLogger) Info(msg string, fields ...Fields)  { d.write(InfoLevel, nil, msg, fields) }
func (d *DefaultLogger) Warn(msg string, fields ...Fields)  { d.write(WarnLevel, nil, msg, fields) }

func (d *DefaultLogger) Error(err error, msg string, fields ...Fields) {
	d.write(ErrorLevel, err, msg, fields)
}

// Fatal logs and exits with status 1, except for writer loggers.
func (d *DefaultLogger) Fatal(err error, msg string, fields ...Fields) {
	d.write(FatalLevel, err, msg, fields)
}

// WithFields returns a child logger; d itself is unchanged.
func (d *DefaultLogger) WithFields(fields Fields) Logger {
	child := *d
	child.fields = make(Fields, len(d.fields)+len(fields))
	maps.Copy(child.fields, d.fields)
	maps.Copy(child.fields, fields)
	return &child
}

func (d *DefaultLogger) WithContext(ctx context.Context) Logger {
	if fields, ok := fieldsFromContext(ctx); ok {
		return d.WithFields(fields)
	}
	return d
}

func (d *DefaultLogger) SetLevel(level Level) {
	d.level = level
}

// NoOpLogger discards everything.
type NoOpLogger struct{}

func (n *NoOpLogger) Debug(msg string, fields ...Fields)            {}
func (n *NoOpLogger) Info(msg string, fields ...Fields)             {}
func (n *NoOpLogger) Warn(msg string, fields ...Fields)             {}
func (n *NoOpLogger) Error(err error, msg string, fields ...Fields) {}
func (n *NoOpLogger) Fatal(err error, msg string, fields ...Fields) {}
func (n *NoOpLogger) WithFields(fields Fields) Logger               { return n }
func (n *NoOpLogger) WithContext(ctx context.Context) Logger        { return n }
func (n *NoOpLogger) SetLevel(level Level)                          {}
