package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Fields is a set of structured log fields.
type Fields map[string]any

// Options configures a Logger.
type Options struct {
	// Level is one of "debug", "info", "warn", "error". Unknown values
	// fall back to "info".
	Level string

	// JSON switches the output format from text to JSON.
	JSON bool

	// Output defaults to os.Stderr.
	Output io.Writer
}

// Logger wraps a logrus entry so the rest of the framework works against
// one small structured-logging surface. With* methods return derived
// loggers; the receiver is never mutated.
type Logger struct {
	entry *logrus.Entry
}

// New creates a Logger from options.
func New(opts Options) *Logger {
	l := logrus.New()

	if opts.Output != nil {
		l.SetOutput(opts.Output)
	} else {
		l.SetOutput(os.Stderr)
	}

	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if opts.JSON {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return &Logger{entry: logrus.NewEntry(l)}
}

// Default returns an info-level text logger on stderr.
func Default() *Logger {
	return New(Options{})
}

// Discard returns a logger that writes nowhere. For tests.
func Discard() *Logger {
	return New(Options{Output: io.Discard})
}

// WithField returns a derived logger carrying one extra field.
func (l *Logger) WithField(key string, value any) *Logger {
	return &Logger{entry: l.entry.WithField(key, value)}
}

// WithFields returns a derived logger carrying extra fields.
func (l *Logger) WithFields(fields Fields) *Logger {
	return &Logger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

// WithError returns a derived logger carrying the error field.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{entry: l.entry.WithError(err)}
}

func (l *Logger) Debug(args ...any) { l.entry.Debug(args...) }
func (l *Logger) Info(args ...any)  { l.entry.Info(args...) }
func (l *Logger) Warn(args ...any)  { l.entry.Warn(args...) }
func (l *Logger) Error(args ...any) { l.entry.Error(args...) }

func (l *Logger) Debugf(format string, args ...any) { l.entry.Debugf(format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.entry.Infof(format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.entry.Warnf(format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.entry.Errorf(format, args...) }

// Fatal logs at the fatal level and exits the process.
func (l *Logger) Fatal(args ...any) { l.entry.Fatal(args...) }

// Fatalf logs a formatted fatal message and exits the process.
func (l *Logger) Fatalf(format string, args ...any) { l.entry.Fatalf(format, args...) }

// Writer returns an io.Writer that logs each line at the error level.
// Useful as the http.Server ErrorLog sink.
func (l *Logger) Writer() *io.PipeWriter {
	return l.entry.WriterLevel(logrus.ErrorLevel)
}
