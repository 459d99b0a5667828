package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log is the global logger instance
var Log *slog.Logger

// Options configures Init.
type Options struct {
	Development bool
	SentryDSN   string
	// LogFile, when set, also writes JSON records to a size-rotated file.
	LogFile string
}

// Init initializes the global logger based on environment
// Development: Text format with Debug level
// Production: JSON format with Info level
// Optionally sends errors to Sentry and mirrors records to a rotating file
func Init(opts Options) {
	Log = slog.New(newHandler(os.Stdout, opts))
	slog.SetDefault(Log)
}

func newHandler(stdout io.Writer, opts Options) slog.Handler {
	var handlers []slog.Handler

	level := slog.LevelInfo
	if opts.Development {
		level = slog.LevelDebug
		handlers = append(handlers, slog.NewTextHandler(stdout, &slog.HandlerOptions{
			Level: level,
		}))
	} else {
		handlers = append(handlers, slog.NewJSONHandler(stdout, &slog.HandlerOptions{
			Level: level,
		}))
	}

	if opts.LogFile != "" {
		handlers = append(handlers, slog.NewJSONHandler(&lumberjack.Logger{
			Filename:   opts.LogFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}, &slog.HandlerOptions{
			Level: level,
		}))
	}

	// Optional Sentry handler (sends errors only)
	if opts.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              opts.SentryDSN,
			TracesSampleRate: 1.0,
		})
		if err == nil {
			handlers = append(handlers, slogsentry.Option{
				Level: slog.LevelError,
			}.NewSentryHandler())
		}
	}

	if len(handlers) == 1 {
		return handlers[0]
	}
	return slogmulti.Fanout(handlers...)
}
