package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects the logging backend and its output.
type Options struct {
	Backend string // "slog" (default) or "zap"
	Level   string // debug / info / warn / error
	Format  string // "json" (default) or "text"
	Output  io.Writer
}

// New builds a Logger for opts. The returned func flushes buffered output and
// should be deferred by the caller.
func New(opts Options) (Logger, func(), error) {
	switch strings.ToLower(opts.Backend) {
	case "", "slog":
		return newSlog(opts), func() {}, nil
	case "zap":
		z := newZap(opts)
		return z, func() { _ = z.Sync() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown log backend %q", opts.Backend)
	}
}

func newSlog(opts Options) *SlogLogger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(opts.Level)); err != nil {
		lvl = slog.LevelInfo
	}
	ho := &slog.HandlerOptions{Level: lvl}

	var h slog.Handler
	if strings.EqualFold(opts.Format, "text") {
		h = slog.NewTextHandler(opts.Output, ho)
	} else {
		h = slog.NewJSONHandler(opts.Output, ho)
	}
	return NewSlogLogger(slog.New(h))
}

func newZap(opts Options) *ZapLogger {
	var lvl zapcore.Level
	if err := lvl.Set(opts.Level); err != nil {
		lvl = zapcore.InfoLevel
	}

	var enc zapcore.Encoder
	if strings.EqualFold(opts.Format, "text") {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
		enc = zapcore.NewConsoleEncoder(cfg)
	} else {
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.TimeKey = "ts"
		enc = zapcore.NewJSONEncoder(cfg)
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(opts.Output), lvl)
	return NewZapLogger(zap.New(core))
}
