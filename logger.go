package arango

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

// Logger is the logging contract of this package. Any leveled logger can be
// plugged in through Client.UseLogger.
type Logger interface {
	Debug(args ...interface{})
	Debugf(pattern string, args ...interface{})
	Log(args ...interface{})
	Logf(pattern string, args ...interface{})
	Error(args ...interface{})
	Errorf(pattern string, args ...interface{})
}

// QueryLog captures one operation for structured logging.
type QueryLog struct {
	Operation  string `json:"operation"`
	Database   string `json:"database,omitempty"`
	Collection string `json:"collection,omitempty"`
	Endpoint   string `json:"endpoint,omitempty"`
	Query      string `json:"query,omitempty"`
	ID         string `json:"id,omitempty"`
	Duration   int64  `json:"duration"` // microseconds
}

// PrettyPrint writes a single human-readable line for the operation.
func (ql *QueryLog) PrettyPrint(w io.Writer) {
	fmt.Fprintf(w,
		"[38;5;8m%-32s [38;5;162m%-6s[0m %8d[38;5;8mµs[0m %s\n",
		clean(ql.Operation), "ARANGO", ql.Duration, clean(ql.Endpoint+" "+ql.Query),
	)
}

func (ql *QueryLog) String() string {
	var sb strings.Builder
	ql.PrettyPrint(&sb)

	return strings.TrimSuffix(sb.String(), "\n")
}

// clean collapses runs of whitespace into single spaces.
func clean(s string) string {
	return strings.TrimSpace(regexp.MustCompile(`\s+`).ReplaceAllString(s, " "))
}

// NewLogger returns a zerolog-backed Logger writing to stderr at the given
// level ("debug", "info", "error", ...). It is the default used when no
// logger is injected.
func NewLogger(level string) Logger {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}

	logger := zerolog.New(os.Stderr).Level(parsed).With().Timestamp().Logger()

	return &zeroLogger{logger: logger}
}

type zeroLogger struct {
	logger zerolog.Logger
}

func (l *zeroLogger) Debug(args ...interface{}) {
	l.logger.Debug().Msg(fmt.Sprint(args...))
}

func (l *zeroLogger) Debugf(pattern string, args ...interface{}) {
	l.logger.Debug().Msgf(pattern, args...)
}

func (l *zeroLogger) Log(args ...interface{}) {
	l.logger.Info().Msg(fmt.Sprint(args...))
}

func (l *zeroLogger) Logf(pattern string, args ...interface{}) {
	l.logger.Info().Msgf(pattern, args...)
}

func (l *zeroLogger) Error(args ...interface{}) {
	l.logger.Error().Msg(fmt.Sprint(args...))
}

func (l *zeroLogger) Errorf(pattern string, args ...interface{}) {
	l.logger.Error().Msgf(pattern, args...)
}
