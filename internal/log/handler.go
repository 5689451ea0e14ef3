package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"
)

// MaskValue is the string used to replace session secrets.
const MaskValue = "***REDACTED***"

// DefaultMaxValueLen is the length above which any string value is cut.
const DefaultMaxValueLen = 256

// stateTokenPrefixLen is how much of a state token is kept for correlation.
const stateTokenPrefixLen = 12

// sensitiveKeys contains attribute keys whose values are never logged.
var sensitiveKeys = map[string]bool{
	"cookie":              true,
	"set-cookie":          true,
	"authorization":       true,
	"proxy-authorization": true,
	"asp.net_sessionid":   true,
	"session":             true,
	"sessionid":           true,
	"session_id":          true,
}

// stateTokenKeys contains the hidden-field names whose values are shortened.
var stateTokenKeys = map[string]bool{
	"__viewstate":          true,
	"__viewstategenerator": true,
	"__eventvalidation":    true,
	"__previouspage":       true,
}

// Handler wraps an slog.Handler, masking session secrets and shortening
// state tokens and other oversized string values.
type Handler struct {
	handler     slog.Handler
	maxValueLen int
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithMaxValueLen sets the length above which string values are cut.
// Non-positive values are ignored.
func WithMaxValueLen(n int) HandlerOption {
	return func(h *Handler) {
		if n > 0 {
			h.maxValueLen = n
		}
	}
}

// NewHandler creates a Handler wrapping the given handler.
// If handler is nil, slog.Default().Handler() is used.
func NewHandler(handler slog.Handler, opts ...HandlerOption) *Handler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	h := &Handler{handler: handler, maxValueLen: DefaultMaxValueLen}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Enabled reports whether the handler handles records at the given level.
func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle rewrites the record's attributes and passes it on.
func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.rewrite(a))
		return true
	})
	return h.handler.Handle(ctx, out)
}

// WithAttrs returns a new handler with the given attributes added.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	rewritten := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		rewritten[i] = h.rewrite(a)
	}
	return &Handler{handler: h.handler.WithAttrs(rewritten), maxValueLen: h.maxValueLen}
}

// WithGroup returns a new handler with the given group name.
func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{handler: h.handler.WithGroup(name), maxValueLen: h.maxValueLen}
}

// rewrite applies the masking rules to one attribute, recursing into groups.
func (h *Handler) rewrite(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		rewritten := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			rewritten[i] = h.rewrite(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(rewritten...)}
	}

	key := strings.ToLower(a.Key)
	if sensitiveKeys[key] {
		return slog.String(a.Key, MaskValue)
	}

	if a.Value.Kind() != slog.KindString {
		return a
	}

	s := a.Value.String()
	if stateTokenKeys[key] || strings.HasSuffix(key, "$__viewstate") {
		return slog.String(a.Key, ShortenToken(s))
	}
	if len(s) > h.maxValueLen {
		return slog.String(a.Key, fmt.Sprintf("%s...(%d bytes)", cut(s, h.maxValueLen), len(s)))
	}
	return a
}

// ShortenToken keeps a short prefix of an opaque state token and its size,
// which is enough to tell two snapshots apart in a log.
func ShortenToken(s string) string {
	if len(s) <= stateTokenPrefixLen {
		return s
	}
	return fmt.Sprintf("%s...(%d bytes)", cut(s, stateTokenPrefixLen), len(s))
}

// cut returns at most the first n bytes of s without splitting a rune.
func cut(s string, n int) string {
	if n >= len(s) {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// NewLogger creates a text logger wrapped in a Handler.
// verbose selects Debug instead of Warn as the minimum level.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewHandler(slog.NewTextHandler(w, handlerOptions(verbose))))
}

// NewJSONLogger creates a JSON logger wrapped in a Handler.
func NewJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewHandler(slog.NewJSONHandler(w, handlerOptions(verbose))))
}

func handlerOptions(verbose bool) *slog.HandlerOptions {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return &slog.HandlerOptions{Level: level}
}
