package logger

import (
	"io"
	"os"

	"golang.org/x/exp/slog"
	"gopkg.in/natefinch/lumberjack.v2"

	"farmsync/internal/app/server/config"
	"farmsync/internal/utils/logger/handlers/slogpretty"
)

type options struct {
	out  io.Writer
	file *lumberjack.Logger
}

type Option func(*options)

// WithFile дублирует логи в файл с ротацией
func WithFile(path string) Option {
	return func(o *options) {
		if path == "" {
			return
		}
		o.file = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    50, // мегабайты
			MaxBackups: 5,
			MaxAge:     28, // дни
			Compress:   true,
		}
	}
}

// WithOutput заменяет stdout
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.out = w
	}
}

// New local: цветной текст, dev: json с debug, prod: json с info
func New(env string, opts ...Option) *slog.Logger {
	o := options{out: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}

	out := o.out
	if o.file != nil {
		out = io.MultiWriter(o.out, o.file)
	}

	switch env {
	case config.EnvLocal:
		return setupPrettySlog(out)
	case config.EnvDev:
		return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
}

func setupPrettySlog(out io.Writer) *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{Level: slog.LevelDebug},
	}
	return slog.New(opts.NewPrettyHandler(out))
}
