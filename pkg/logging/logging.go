// Package logging builds the slog loggers used across the module and
// lets callers pin attributes to a context so every record logged
// under it carries them.
package logging

import (
	"context"
	"io"
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"
)

type ctxKey struct{}

// AppendCtx returns a child context carrying attr in addition to any
// attributes the parent already carried. Loggers built by this
// package emit those attributes on every record logged with the
// context.
func AppendCtx(parent context.Context, attr slog.Attr) context.Context {
	if parent == nil {
		parent = context.Background()
	}
	var attrs []slog.Attr
	if prev, ok := parent.Value(ctxKey{}).([]slog.Attr); ok {
		attrs = append(attrs, prev...)
	}
	attrs = append(attrs, attr)
	return context.WithValue(parent, ctxKey{}, attrs)
}

// ctxHandler injects context-carried attributes into each record
// before delegating.
type ctxHandler struct {
	slog.Handler
}

func (h ctxHandler) Handle(ctx context.Context, r slog.Record) error {
	if attrs, ok := ctx.Value(ctxKey{}).([]slog.Attr); ok {
		r.AddAttrs(attrs...)
	}
	return h.Handler.Handle(ctx, r)
}

func (h ctxHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return ctxHandler{h.Handler.WithAttrs(attrs)}
}

func (h ctxHandler) WithGroup(name string) slog.Handler {
	return ctxHandler{h.Handler.WithGroup(name)}
}

// Logger builds the standard JSON logger writing to w at the given
// level. addSource stamps records with file and line.
func Logger(w io.Writer, addSource bool, level slog.Level) *slog.Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		AddSource: addSource,
		Level:     level,
	})
	return slog.New(ctxHandler{h})
}

// FileLogger builds the standard logger on a size-rotated file, for
// long sessions where stdout is the display.
func FileLogger(path string, addSource bool, level slog.Level) *slog.Logger {
	return Logger(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    50, // MB
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}, addSource, level)
}
