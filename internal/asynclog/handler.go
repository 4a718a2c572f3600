package asynclog

import (
	"context"
	"log/slog"
	"strings"
)

// Handler is a slog.Handler that submits records to a Pipeline instead of
// writing them. Handle never blocks on the sink.
type Handler struct {
	p      *Pipeline
	attrs  []slog.Attr
	groups []string
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.p.minLevel.Slog()
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	fields := make(map[string]any, len(h.attrs)+r.NumAttrs()+2)
	for _, a := range h.attrs {
		addAttr(fields, "", a)
	}
	prefix := groupPrefix(h.groups)
	r.Attrs(func(a slog.Attr) bool {
		addAttr(fields, prefix, a)
		return true
	})

	fields[FieldLevel] = fromSlog(r.Level)
	if !r.Time.IsZero() {
		fields[FieldTimestamp] = epochSeconds(r.Time)
	}
	h.p.Log(r.Message, fields)
	return nil
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	next := *h
	prefix := groupPrefix(h.groups)
	next.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	next.attrs = append(next.attrs, h.attrs...)
	for _, a := range attrs {
		a.Key = prefix + a.Key
		next.attrs = append(next.attrs, a)
	}
	return &next
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.groups = append(append([]string(nil), h.groups...), name)
	return &next
}

func groupPrefix(groups []string) string {
	if len(groups) == 0 {
		return ""
	}
	return strings.Join(groups, ".") + "."
}

// addAttr flattens a into fields, joining group names with dots.
func addAttr(fields map[string]any, prefix string, a slog.Attr) {
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p += a.Key + "."
		}
		for _, ga := range v.Group() {
			addAttr(fields, p, ga)
		}
		return
	}
	if a.Key == "" {
		return
	}
	fields[prefix+a.Key] = v.Any()
}
