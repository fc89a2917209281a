package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"
)

type logFormat string

const (
	formatJSON logFormat = "json"
	formatKV   logFormat = "kv"

	timeFormatMillis = "2006-01-02T15:04:05.000Z07:00"
)

var errNoWriter = errors.New("logger: writer not initialized")

type handlerConfig struct {
	level    slog.Leveler
	writer   *asyncWriter
	format   logFormat
	keyOrder []string
}

type field struct {
	key string
	val any
}

// structuredHandler renders records as one JSON object or one key=value line.
type structuredHandler struct {
	cfg    handlerConfig
	fields []field
	prefix string
}

func newStructuredHandler(cfg handlerConfig) *structuredHandler {
	if cfg.level == nil {
		cfg.level = slog.LevelInfo
	}
	if len(cfg.keyOrder) == 0 {
		cfg.keyOrder = defaultKeyOrder
	}
	return &structuredHandler{cfg: cfg}
}

func (h *structuredHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.cfg.level.Level()
}

func (h *structuredHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.cfg.writer == nil {
		return errNoWriter
	}

	entry := make(map[string]any, len(h.fields)+r.NumAttrs()+8)
	for _, f := range h.fields {
		entry[f.key] = f.val
	}
	var own []field
	r.Attrs(func(a slog.Attr) bool {
		own = appendAttr(own, h.prefix, a)
		return true
	})
	for _, f := range own {
		entry[f.key] = f.val
	}
	MetaFrom(ctx).appendTo(entry)

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	ts = ts.UTC()
	entry["ts"] = ts.Truncate(time.Millisecond).Format(timeFormatMillis)
	entry["level"] = levelName(r.Level.String())
	if h.cfg.format == formatJSON {
		entry["ts_unix_nano"] = ts.UnixNano()
	}
	if s, _ := entry["event"].(string); s == "" {
		entry["event"] = firstNonEmpty(r.Message, "unknown")
	}
	if s, _ := entry["component"].(string); s == "" {
		entry["component"] = "app"
	}
	if s, ok := entry["status"].(string); ok {
		entry["status"] = statusName(s)
	}
	dropEmpty(entry)

	var (
		line []byte
		err  error
	)
	if h.cfg.format == formatJSON {
		line, err = encodeJSON(entry, h.cfg.keyOrder)
		if err != nil {
			return err
		}
	} else {
		line = encodeKV(entry, h.cfg.keyOrder)
	}
	return h.cfg.writer.Write(append(line, '\n'))
}

func (h *structuredHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.fields = append([]field(nil), h.fields...)
	for _, a := range attrs {
		clone.fields = appendAttr(clone.fields, h.prefix, a)
	}
	return &clone
}

func (h *structuredHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = joinKey(h.prefix, name)
	return &clone
}

func appendAttr(dst []field, prefix string, a slog.Attr) []field {
	a.Value = a.Value.Resolve()
	key := joinKey(prefix, a.Key)
	if a.Value.Kind() == slog.KindGroup {
		for _, child := range a.Value.Group() {
			dst = appendAttr(dst, key, child)
		}
		return dst
	}
	if key == "" {
		return dst
	}
	if k, v, ok := normalizeValue(key, a.Value); ok {
		dst = append(dst, field{key: k, val: v})
	}
	return dst
}

func joinKey(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	}
	return prefix + "." + key
}

// normalizeValue flattens v into a JSON-friendly value. Durations are
// reported in whole milliseconds under a key ending in _ms.
func normalizeValue(key string, v slog.Value) (string, any, bool) {
	switch v.Kind() {
	case slog.KindString:
		return key, strings.TrimSpace(v.String()), true
	case slog.KindInt64:
		return key, v.Int64(), true
	case slog.KindUint64:
		return key, v.Uint64(), true
	case slog.KindFloat64:
		return key, v.Float64(), true
	case slog.KindBool:
		return key, v.Bool(), true
	case slog.KindDuration:
		return msKey(key), RoundMS(v.Duration()).Milliseconds(), true
	case slog.KindTime:
		return key, v.Time().UTC().Format(time.RFC3339Nano), true
	}
	switch x := v.Any().(type) {
	case nil:
		return "", nil, false
	case error:
		return key, x.Error(), true
	case time.Duration:
		return msKey(key), RoundMS(x).Milliseconds(), true
	case fmt.Stringer:
		return key, x.String(), true
	case string:
		return key, strings.TrimSpace(x), true
	default:
		return key, fmt.Sprint(x), true
	}
}

func msKey(key string) string {
	switch {
	case key == "duration":
		return "duration_ms"
	case strings.HasSuffix(key, "_ms"):
		return key
	}
	return key + "_ms"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func dropEmpty(entry map[string]any) {
	for k, v := range entry {
		if v == nil {
			delete(entry, k)
			continue
		}
		if s, ok := v.(string); ok && s == "" {
			delete(entry, k)
		}
	}
}

// sortedKeys lists keys from order first, then the rest alphabetically.
func sortedKeys(entry map[string]any, order []string) []string {
	keys := make([]string, 0, len(entry))
	listed := make(map[string]bool, len(order))
	for _, k := range order {
		if _, ok := entry[k]; ok && !listed[k] {
			keys = append(keys, k)
		}
		listed[k] = true
	}
	var rest []string
	for k := range entry {
		if !listed[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

func encodeJSON(entry map[string]any, order []string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range sortedKeys(entry, order) {
		val, err := json.Marshal(entry[k])
		if err != nil {
			return nil, fmt.Errorf("logger: encode %q: %w", k, err)
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(k))
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func encodeKV(entry map[string]any, order []string) []byte {
	var buf bytes.Buffer
	for i, k := range sortedKeys(entry, order) {
		if i > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(k)
		buf.WriteByte('=')
		buf.WriteString(kvValue(entry[k]))
	}
	return buf.Bytes()
}

func kvValue(v any) string {
	s, ok := v.(string)
	if !ok {
		s = fmt.Sprint(v)
	}
	if strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
		return strconv.Quote(s)
	}
	return s
}
