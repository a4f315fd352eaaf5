package modsim

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// LogrusLogger adapts a logrus logger to the Logger interface.
// Key-value pairs become logrus fields; a trailing key without a value is
// logged under "!BADKEY" in the same way slog reports it.
type LogrusLogger struct {
	entry *logrus.Entry
}

// NewLogrusLogger wraps the given logrus logger. A nil logger falls back to
// logrus.StandardLogger().
func NewLogrusLogger(l *logrus.Logger) *LogrusLogger {
	if l == nil {
		l = logrus.StandardLogger()
	}
	return &LogrusLogger{entry: logrus.NewEntry(l)}
}

// With returns a logger that always carries the given key-value pairs.
func (l *LogrusLogger) With(args ...any) *LogrusLogger {
	return &LogrusLogger{entry: l.entry.WithFields(toFields(args))}
}

func (l *LogrusLogger) Info(msg string, args ...any) {
	l.entry.WithFields(toFields(args)).Info(msg)
}

func (l *LogrusLogger) Error(msg string, args ...any) {
	l.entry.WithFields(toFields(args)).Error(msg)
}

func (l *LogrusLogger) Warn(msg string, args ...any) {
	l.entry.WithFields(toFields(args)).Warn(msg)
}

func (l *LogrusLogger) Debug(msg string, args ...any) {
	l.entry.WithFields(toFields(args)).Debug(msg)
}

func toFields(args []any) logrus.Fields {
	fields := make(logrus.Fields, (len(args)+1)/2)
	for i := 0; i < len(args); i += 2 {
		if i+1 >= len(args) {
			fields["!BADKEY"] = args[i]
			break
		}
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		fields[key] = args[i+1]
	}
	return fields
}

// ParseLogLevel maps a level name to a logrus level, defaulting to info.
func ParseLogLevel(level string) logrus.Level {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}
