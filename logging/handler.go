package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/fatih/color"
)

// LocalHandler writes "time LEVEL message key=value..." lines for a terminal.
// Attributes are formatted by an inner slog.TextHandler.
type LocalHandler struct {
	opts  slog.HandlerOptions
	inner slog.Handler

	mu *sync.Mutex
	w  io.Writer
}

func NewLocalHandler(w io.Writer, opts *slog.HandlerOptions) *LocalHandler {
	var o slog.HandlerOptions
	if opts != nil {
		o = *opts
	}
	innerOpts := o
	innerOpts.AddSource = false
	innerOpts.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
		if len(groups) == 0 && (a.Key == slog.TimeKey || a.Key == slog.LevelKey || a.Key == slog.MessageKey) {
			return slog.Attr{}
		}
		if o.ReplaceAttr != nil {
			return o.ReplaceAttr(groups, a)
		}
		return a
	}
	return &LocalHandler{opts: o, w: w, mu: &sync.Mutex{}, inner: slog.NewTextHandler(w, &innerOpts)}
}

// New returns a logger writing through a LocalHandler.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(NewLocalHandler(w, &slog.HandlerOptions{Level: level}))
}

func (h *LocalHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *LocalHandler) Handle(ctx context.Context, r slog.Record) error {
	var buf bytes.Buffer
	buf.WriteString(r.Time.Format(time.TimeOnly))
	buf.WriteByte(' ')
	buf.WriteString(levelLabel(r.Level))
	buf.WriteByte(' ')
	buf.WriteString(r.Message)
	buf.WriteByte(' ')

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, err := h.w.Write(buf.Bytes()); err != nil {
		return err
	}
	return h.inner.Handle(ctx, r)
}

func (h *LocalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LocalHandler{opts: h.opts, w: h.w, mu: h.mu, inner: h.inner.WithAttrs(attrs)}
}

func (h *LocalHandler) WithGroup(name string) slog.Handler {
	return &LocalHandler{opts: h.opts, w: h.w, mu: h.mu, inner: h.inner.WithGroup(name)}
}

var levelColors = map[slog.Level]*color.Color{
	slog.LevelDebug: color.New(color.FgCyan),
	slog.LevelInfo:  color.New(color.FgBlue, color.Bold),
	slog.LevelWarn:  color.New(color.FgYellow, color.Bold),
	slog.LevelError: color.New(color.FgRed, color.Bold),
}

func levelLabel(level slog.Level) string {
	label := level.String()
	switch {
	case level < slog.LevelInfo:
		return levelColors[slog.LevelDebug].Sprint(label)
	case level < slog.LevelWarn:
		return levelColors[slog.LevelInfo].Sprint(label)
	case level < slog.LevelError:
		return levelColors[slog.LevelWarn].Sprint(label)
	default:
		return levelColors[slog.LevelError].Sprint(label)
	}
}
