// Package journald provides a slog.Handler which forwards log records to
// the systemd journal as structured entries, plus helpers to decide
// whether the journal should be used for the current process.
package journald

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/coreos/go-systemd/v22/journal"
)

// Available reports whether the systemd journal socket is present and
// writable for this process.
func Available() bool {
	return journal.Enabled()
}

// RunningUnderInit reports whether the process was launched directly by
// the init process (pid 1), which is how systemd runs services.
func RunningUnderInit() bool {
	return os.Getppid() == 1
}

// Handler is a slog.Handler which sends records to the systemd journal.
// Attr keys are mapped to journal field names and the record level to a
// syslog priority.
type Handler struct {
	level  slog.Leveler
	fields map[string]string // fields accumulated via WithAttrs, keys already resolved
	group  string
}

// NewHandler returns journal handler with the given minimum level.
// nil level defaults to slog.LevelInfo.
func NewHandler(level slog.Leveler) *Handler {
	return &Handler{level: level}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	min := slog.LevelInfo
	if h.level != nil {
		min = h.level.Level()
	}
	return level >= min
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	vars := make(map[string]string, r.NumAttrs()+len(h.fields))

	for k, v := range h.fields {
		vars[k] = v
	}
	r.Attrs(func(a slog.Attr) bool {
		vars[fieldName(h.group, a.Key)] = a.Value.Resolve().String()
		return true
	})

	return journal.Send(r.Message, priority(r.Level), vars)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := *h
	nh.fields = make(map[string]string, len(h.fields)+len(attrs))
	for k, v := range h.fields {
		nh.fields[k] = v
	}
	for _, a := range attrs {
		nh.fields[fieldName(h.group, a.Key)] = a.Value.Resolve().String()
	}
	return &nh
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	nh := *h
	nh.group = fieldName(h.group, name)
	return &nh
}

// fieldName converts an attr key to a valid journal field name.
// journal fields must match [A-Z0-9_]+ and must not start with '_'
// (leading underscores are reserved for trusted fields).
func fieldName(group, key string) string {
	name := key
	if group != "" {
		name = group + "_" + key
	}
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - ('a' - 'A')
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, name)
	name = strings.TrimLeft(name, "_")
	if name == "" {
		name = "FIELD"
	}
	return name
}

func priority(level slog.Level) journal.Priority {
	switch {
	case level >= slog.LevelError:
		return journal.PriErr
	case level >= slog.LevelWarn:
		return journal.PriWarning
	case level >= slog.LevelInfo:
		return journal.PriInfo
	default:
		return journal.PriDebug
	}
}

// Tee returns a handler which duplicates every record to all given
// handlers. A record is passed to each handler that reports itself
// enabled for the record's level.
func Tee(handlers ...slog.Handler) slog.Handler {
	return teeHandler(handlers)
}

type teeHandler []slog.Handler

func (t teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t teeHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range t {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nt := make(teeHandler, len(t))
	for i, h := range t {
		nt[i] = h.WithAttrs(attrs)
	}
	return nt
}

func (t teeHandler) WithGroup(name string) slog.Handler {
	nt := make(teeHandler, len(t))
	for i, h := range t {
		nt[i] = h.WithGroup(name)
	}
	return nt
}
