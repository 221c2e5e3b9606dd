package logging

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"

	"github.com/eval-hub/eval-hub-adapters/internal/executioncontext"
)

type ShutdownFunc func() error

// Options configure NewLogger. The zero value is production logging at info.
type Options struct {
	// Level is a zap level name (debug, info, warn, error), empty means info.
	Level string `mapstructure:"level,omitempty"`
	// Development switches to the human readable console encoder.
	Development bool `mapstructure:"development,omitempty"`
}

// NewLogger returns a slog logger backed by zap. Times are ISO8601 and the
// caller is always added. The ShutdownFunc flushes buffered entries.
func NewLogger(opts Options) (*slog.Logger, ShutdownFunc, error) {
	logConfig := zap.NewProductionConfig()
	if opts.Development {
		logConfig = zap.NewDevelopmentConfig()
	}
	if opts.Level != "" {
		level, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, nil, err
		}
		logConfig.Level = zap.NewAtomicLevelAt(level)
	}
	logConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapLog, err := logConfig.Build()
	if err != nil {
		return nil, nil, err
	}
	core := zapLog.Core()
	return slog.New(zapslog.NewHandler(core, zapslog.WithCaller(true))), core.Sync, nil
}

// FallbackLogger is used before the configured logger exists and in tests.
func FallbackLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

// SkipCallersForInfo logs msg at level with the source location taken skip
// frames up the stack, so helpers can report their caller's location.
func SkipCallersForInfo(ctx context.Context, logger *slog.Logger, level slog.Level, skip int, msg string, args ...any) {
	if !logger.Enabled(ctx, level) {
		return
	}
	var pcs [1]uintptr
	runtime.Callers(skip, pcs[:])
	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.Add(args...)
	_ = logger.Handler().Handle(ctx, r)
}

// LogArtifactUnreadable records that an artifact could not be loaded and the
// result is returned without it. The caller location is the adapter, not this helper.
func LogArtifactUnreadable(ctx *executioncontext.ExecutionContext, framework string, artifact string, path string, err error) {
	c := ctx.Ctx
	if c == nil {
		c = context.Background()
	}
	SkipCallersForInfo(c, ctx.GetLogger(), slog.LevelWarn, 3, "Could not load artifact, continuing without it",
		"framework", framework, "artifact", artifact, "path", path, "error", err.Error())
}
