package logger

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

// CloudRunHandler writes one JSON object per record in the structured
// logging format Cloud Run forwards to Cloud Logging.
type CloudRunHandler struct {
	level  slog.Level
	out    io.Writer
	mu     *sync.Mutex
	attrs  []slog.Attr
	prefix string
}

func NewCloudRunHandler(level slog.Level) slog.Handler {
	return newCloudRunHandler(level, os.Stdout)
}

func newCloudRunHandler(level slog.Level, out io.Writer) *CloudRunHandler {
	return &CloudRunHandler{level: level, out: out, mu: &sync.Mutex{}}
}

func (h *CloudRunHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level
}

func (h *CloudRunHandler) Handle(_ context.Context, r slog.Record) error {
	event := map[string]any{
		"severity": mapSeverity(r.Level),
		"message":  r.Message,
		"time":     r.Time.Format(time.RFC3339Nano),
	}

	if len(h.attrs) > 0 || r.NumAttrs() > 0 {
		data := make(map[string]any, len(h.attrs)+r.NumAttrs())
		for _, a := range h.attrs {
			data[a.Key] = attrValue(a.Value)
		}
		r.Attrs(func(a slog.Attr) bool {
			data[h.prefix+a.Key] = attrValue(a.Value)
			return true
		})
		event["data"] = data
	}

	b, err := json.Marshal(event)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = h.out.Write(append(b, '\n'))
	return err
}

func (h *CloudRunHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	next.attrs = append(next.attrs, h.attrs...)
	for _, a := range attrs {
		next.attrs = append(next.attrs, slog.Attr{Key: h.prefix + a.Key, Value: a.Value})
	}
	return &next
}

// WithGroup flattens groups into dotted keys; Cloud Logging has no group concept.
func (h *CloudRunHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

func mapSeverity(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARNING"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

// attrValue keeps errors readable; json.Marshal renders most error types as {}.
func attrValue(v slog.Value) any {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339Nano)
	case slog.KindGroup:
		out := make(map[string]any)
		for _, a := range v.Group() {
			out[a.Key] = attrValue(a.Value)
		}
		return out
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return v.Any()
	default:
		return v.Any()
	}
}
