package logger

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
)

type logFormat string

const (
	formatJSON logFormat = "json"
	formatKV   logFormat = "kv"

	timeFormatMillis = "2006-01-02T15:04:05.000Z07:00"
)

// redactedKeys never reach a sink in clear text, whatever group they sit in.
var redactedKeys = map[string]struct{}{
	"token":    {},
	"password": {},
	"dsn":      {},
}

type handlerConfig struct {
	level    slog.Leveler
	writer   *asyncWriter
	format   logFormat
	keyOrder []string
}

// structuredHandler renders records as one flat line with a stable key order
// and fills rid, update and handler fields from the context.
type structuredHandler struct {
	cfg    handlerConfig
	attrs  []slog.Attr
	groups []string
}

func newStructuredHandler(cfg handlerConfig) *structuredHandler {
	if cfg.level == nil {
		cfg.level = slog.LevelInfo
	}
	if cfg.keyOrder == nil {
		cfg.keyOrder = append([]string(nil), defaultKeyOrder...)
	}
	return &structuredHandler{cfg: cfg}
}

// Enabled reports whether the handler allows processing the provided level.
func (h *structuredHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.cfg.level.Level()
}

// Handle formats the slog.Record and writes it using the configured writer.
func (h *structuredHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.cfg.writer == nil {
		return nil
	}
	isJSON := h.cfg.format == formatJSON

	fields := make(fieldSet, 16)
	ts := r.Time.UTC()
	fields["ts"] = ts.Truncate(time.Millisecond).Format(timeFormatMillis)
	fields["level"] = normalizeLevel(r.Level.String())
	if isJSON {
		fields["ts_unix_nano"] = ts.UnixNano()
	}
	for _, a := range h.attrs {
		h.collect(fields, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		h.collect(fields, a)
		return true
	})

	fields.fromContext(ctx)
	fields.compactRID(isJSON)
	fields.setDefault("event", r.Message)
	fields.setDefault("event", "unknown")
	fields.setDefault("component", "app")
	fields.normalizeEnums()
	fields.prune()

	line, err := h.render(fields)
	if err != nil {
		return err
	}
	return h.cfg.writer.Write(append(line, '\n'))
}

// WithAttrs returns a shallow copy of the handler enriched with attrs.
func (h *structuredHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &clone
}

// WithGroup returns a shallow copy of the handler with an additional group prefix.
func (h *structuredHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}

func (h *structuredHandler) collect(fields fieldSet, attr slog.Attr) {
	flattenAttr(strings.Join(h.groups, "."), attr, func(k string, v slog.Value) {
		if key, val, ok := normalizeAttr(k, v); ok {
			fields[key] = val
		}
	})
}

func (h *structuredHandler) render(fields fieldSet) ([]byte, error) {
	keys := orderedKeys(fields, h.cfg.keyOrder)
	if h.cfg.format == formatJSON {
		return formatJSONLine(fields, keys)
	}
	return formatKVLine(fields, keys), nil
}

func flattenAttr(prefix string, attr slog.Attr, fn func(string, slog.Value)) {
	key := attr.Key
	switch {
	case key == "":
		key = prefix
	case prefix != "":
		key = prefix + "." + key
	}
	val := attr.Value.Resolve()
	if val.Kind() == slog.KindGroup {
		for _, child := range val.Group() {
			flattenAttr(key, child, fn)
		}
		return
	}
	if key != "" {
		fn(key, val)
	}
}

func normalizeAttr(key string, val slog.Value) (string, any, bool) {
	leaf := key[strings.LastIndexByte(key, '.')+1:]
	if _, secret := redactedKeys[leaf]; secret {
		return key, "<redacted>", true
	}
	switch val.Kind() {
	case slog.KindString:
		return key, strings.TrimSpace(val.String()), true
	case slog.KindBool:
		return key, val.Bool(), true
	case slog.KindInt64:
		return key, val.Int64(), true
	case slog.KindUint64:
		if u := val.Uint64(); u <= math.MaxInt64 {
			return key, int64(u), true
		}
		return key, val.Uint64(), true
	case slog.KindFloat64:
		return key, val.Float64(), true
	case slog.KindDuration:
		return durationKey(key), RoundMS(val.Duration()).Milliseconds(), true
	case slog.KindTime:
		return key, val.Time().UTC().Format(time.RFC3339Nano), true
	}

	switch x := val.Any().(type) {
	case nil:
		return key, nil, false
	case error:
		return key, x.Error(), true
	case string:
		return key, strings.TrimSpace(x), true
	case time.Duration:
		return durationKey(key), RoundMS(x).Milliseconds(), true
	case fmt.Stringer:
		return key, x.String(), true
	default:
		return key, fmt.Sprint(x), true
	}
}

// durationKey maps duration attributes to millisecond keys: "duration" and
// "x_duration" become "duration_ms" and "x_duration_ms", anything else gets "_ms".
func durationKey(key string) string {
	if strings.HasSuffix(key, "_ms") {
		return key
	}
	return key + "_ms"
}

// fieldSet is the flattened view of one record before rendering.
type fieldSet map[string]any

func (f fieldSet) str(key string) (string, bool) {
	v, ok := f[key]
	if !ok {
		return "", false
	}
	if s, isStr := v.(string); isStr {
		return s, true
	}
	return fmt.Sprint(v), true
}

// setDefault stores v under key unless a non-empty value is already present.
func (f fieldSet) setDefault(key string, v any) {
	if cur, ok := f[key]; ok && cur != nil && cur != "" {
		return
	}
	if v == nil || v == "" {
		return
	}
	f[key] = v
}

func (f fieldSet) fromContext(ctx context.Context) {
	if ctx == nil {
		return
	}
	f.setDefault("rid", RIDFrom(ctx))
	f.setDefault("handler", HandlerFrom(ctx))
	if uid := UserIDFrom(ctx); uid != 0 {
		f.setDefault("user_id", uid)
	}
	if updateID := UpdateIDFrom(ctx); updateID != 0 {
		f.setDefault("update_id", updateID)
	}
	if cid := ChatIDFrom(ctx); cid != 0 {
		f.setDefault("chat_id", cid)
	}
}

// compactRID shortens rid; JSON lines keep the original as rid_full.
func (f fieldSet) compactRID(keepFull bool) {
	rid, ok := f.str("rid")
	if !ok || rid == "" {
		return
	}
	compact := CompactRID(rid)
	if compact == "" || compact == rid {
		return
	}
	if keepFull {
		f.setDefault("rid_full", rid)
	}
	f["rid"] = compact
}

func (f fieldSet) normalizeEnums() {
	if level, ok := f.str("level"); ok {
		f["level"] = normalizeLevel(level)
	}
	if s, ok := f.str("status"); ok && s != "" {
		normalized, _ := statuses.normalize(s)
		f["status"] = normalized
	}
	if o, ok := f.str("outcome"); ok && o != "" {
		if normalized, valid := outcomes.normalize(o); valid {
			f["outcome"] = normalized
		} else {
			delete(f, "outcome")
		}
	}
}

func (f fieldSet) prune() {
	for k, v := range f {
		switch val := v.(type) {
		case nil:
			delete(f, k)
		case string:
			if val == "" {
				delete(f, k)
			}
		case fmt.Stringer:
			if val.String() == "" {
				delete(f, k)
			}
		}
	}
}
