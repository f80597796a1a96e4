package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sync"
	"time"

	charmLog "github.com/charmbracelet/log"

	"actionkit/pkg/config"
)

// Entry is one line of JSON output. The call scope sits at the top level so
// every line logged for one action call can be selected by action or
// request_id. Other attributes are nested under fields by group.
type Entry struct {
	Level     string         `json:"level"`
	Timestamp string         `json:"timestamp"`
	Component string         `json:"component,omitempty"`
	Action    string         `json:"action,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
	Caller    string         `json:"caller,omitempty"`
}

// New builds the process logger writing to stderr. Environment overrides are
// already folded into cfg by the config package.
func New(cfg config.LoggingConfig) (*slog.Logger, error) {
	return newWithWriter(cfg, os.Stderr)
}

func newWithWriter(cfg config.LoggingConfig, writer io.Writer) (*slog.Logger, error) {
	format, err := cfg.OutputFormat()
	if err != nil {
		return nil, err
	}
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}

	if format == config.LogFormatText {
		return slog.New(charmLog.NewWithOptions(writer, charmLog.Options{
			Level:           charmLevel(level),
			ReportTimestamp: true,
			ReportCaller:    cfg.AddSource,
			Formatter:       charmLog.TextFormatter,
		})), nil
	}

	return slog.New(&callHandler{
		level:     level,
		addSource: cfg.AddSource,
		out:       &syncWriter{w: writer},
	}), nil
}

func charmLevel(level slog.Level) charmLog.Level {
	switch {
	case level <= slog.LevelDebug:
		return charmLog.DebugLevel
	case level <= slog.LevelInfo:
		return charmLog.InfoLevel
	case level <= slog.LevelWarn:
		return charmLog.WarnLevel
	default:
		return charmLog.ErrorLevel
	}
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) writeLine(line []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.w.Write(append(line, '\n'))
	return err
}

// callScope identifies the component and action call a line belongs to.
type callScope struct {
	component string
	action    string
	requestID string
}

// bind takes ownership of attr when it names a scope key. Only top-level
// string attributes qualify.
func (s *callScope) bind(attr slog.Attr) bool {
	value, ok := attr.Value.Any().(string)
	if !ok {
		return false
	}

	switch attr.Key {
	case "component":
		s.component = value
	case "action":
		s.action = value
	case "request_id":
		if value != "" {
			s.requestID = value
		}
	default:
		return false
	}

	return true
}

// groupedAttr is an attribute bound with With, remembered with the groups
// that were open at the time.
type groupedAttr struct {
	groups []string
	attr   slog.Attr
}

// callHandler writes Entry lines. Scope attributes bound with With are
// resolved once per logger instead of once per record.
type callHandler struct {
	level     slog.Level
	addSource bool
	out       *syncWriter
	scope     callScope
	bound     []groupedAttr
	groups    []string
}

func (h *callHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *callHandler) Handle(_ context.Context, record slog.Record) error {
	when := record.Time
	if when.IsZero() {
		when = time.Now()
	}

	scope := h.scope
	fields := map[string]any{}
	for _, grouped := range h.bound {
		insert(fields, grouped.groups, grouped.attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		attr.Value = attr.Value.Resolve()
		if len(h.groups) == 0 && scope.bind(attr) {
			return true
		}
		insert(fields, h.groups, attr)
		return true
	})

	entry := Entry{
		Level:     levelName(record.Level),
		Timestamp: when.UTC().Format(time.RFC3339Nano),
		Component: scope.component,
		Action:    scope.action,
		RequestID: scope.requestID,
		Message:   record.Message,
	}
	if len(fields) > 0 {
		entry.Fields = fields
	}
	if h.addSource {
		entry.Caller = caller(record.PC)
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return h.out.writeLine(line)
}

func (h *callHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.bound = slices.Clone(h.bound)
	for _, attr := range attrs {
		attr.Value = attr.Value.Resolve()
		if len(h.groups) == 0 && next.scope.bind(attr) {
			continue
		}
		next.bound = append(next.bound, groupedAttr{groups: h.groups, attr: attr})
	}
	return &next
}

func (h *callHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.groups = append(slices.Clip(h.groups), name)
	return &next
}

// insert places attr in fields under the nested maps named by groups.
func insert(fields map[string]any, groups []string, attr slog.Attr) {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return
	}

	target := fields
	for _, group := range groups {
		nested, ok := target[group].(map[string]any)
		if !ok {
			nested = map[string]any{}
			target[group] = nested
		}
		target = nested
	}

	if attr.Value.Kind() == slog.KindGroup {
		members := attr.Value.Group()
		if attr.Key == "" {
			for _, member := range members {
				insert(target, nil, member)
			}
			return
		}
		for _, member := range members {
			insert(target, []string{attr.Key}, member)
		}
		return
	}

	target[attr.Key] = plain(attr.Value)
}

func plain(value slog.Value) any {
	switch value.Kind() {
	case slog.KindDuration:
		return value.Duration().String()
	case slog.KindTime:
		return value.Time().UTC().Format(time.RFC3339Nano)
	case slog.KindAny:
		if err, ok := value.Any().(error); ok {
			return err.Error()
		}
		return value.Any()
	default:
		return value.Any()
	}
}

func levelName(level slog.Level) string {
	switch {
	case level < slog.LevelInfo:
		return "debug"
	case level < slog.LevelWarn:
		return "info"
	case level < slog.LevelError:
		return "warn"
	default:
		return "error"
	}
}

func caller(pc uintptr) string {
	if pc == 0 {
		return ""
	}

	frame, _ := runtime.CallersFrames([]uintptr{pc}).Next()
	if frame.File == "" {
		return ""
	}

	return fmt.Sprintf("%s:%d", filepath.Base(frame.File), frame.Line)
}
