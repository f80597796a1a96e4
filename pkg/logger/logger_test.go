package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"actionkit/pkg/config"
)

func TestLoggerJSONEntryShape(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	log, err := newWithWriter(config.LoggingConfig{Format: "json", Level: "info"}, &out)
	if err != nil {
		t.Fatalf("newWithWriter error: %v", err)
	}

	log.With("component", "executor").Info("Finished running action", "action", "greet", "request_id", "42", "events", 2, "ok", true)

	line := strings.TrimSpace(out.String())
	if line == "" {
		t.Fatal("expected log output")
	}

	var entry Entry
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("unmarshal log entry: %v", err)
	}

	if entry.Level != "info" {
		t.Fatalf("level = %q, want %q", entry.Level, "info")
	}
	if entry.Message != "Finished running action" {
		t.Fatalf("message = %q, want %q", entry.Message, "Finished running action")
	}
	if entry.Component != "executor" {
		t.Fatalf("component = %q, want %q", entry.Component, "executor")
	}
	if entry.Action != "greet" {
		t.Fatalf("action = %q, want %q", entry.Action, "greet")
	}
	if entry.Timestamp == "" {
		t.Fatal("expected timestamp")
	}
	if entry.RequestID != "42" {
		t.Fatalf("request_id = %q, want %q", entry.RequestID, "42")
	}
	if _, ok := entry.Fields["request_id"]; ok {
		t.Fatal("request_id should not be duplicated in fields")
	}
	if got := entry.Fields["events"]; got != float64(2) {
		t.Fatalf("fields.events = %v, want 2", got)
	}
	if got := entry.Fields["ok"]; got != true {
		t.Fatalf("fields.ok = %v, want true", got)
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	log, err := newWithWriter(config.LoggingConfig{Format: "json", Level: "error"}, &out)
	if err != nil {
		t.Fatalf("newWithWriter error: %v", err)
	}

	log.Info("Ignored")
	if got := strings.TrimSpace(out.String()); got != "" {
		t.Fatalf("expected no output for info, got %q", got)
	}

	log.Error("Kept")
	if got := strings.TrimSpace(out.String()); got == "" {
		t.Fatal("expected output for error")
	}
}

func TestLoggerDefaultsToTextFormat(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	log, err := newWithWriter(config.LoggingConfig{}, &out)
	if err != nil {
		t.Fatalf("newWithWriter error: %v", err)
	}

	log.Info("Default format")
	line := strings.TrimSpace(out.String())
	if line == "" {
		t.Fatal("expected log output")
	}
	if strings.HasPrefix(line, "{") {
		t.Fatalf("expected text format by default, got %q", line)
	}
}

func TestLoggerRejectsUnknownSettings(t *testing.T) {
	t.Parallel()

	if _, err := newWithWriter(config.LoggingConfig{Format: "xml"}, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
	if _, err := newWithWriter(config.LoggingConfig{Level: "loud"}, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for unsupported level")
	}
}

func TestLoggerJSONAddSourceAndGroups(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	log, err := newWithWriter(config.LoggingConfig{Format: "json", AddSource: true}, &out)
	if err != nil {
		t.Fatalf("newWithWriter error: %v", err)
	}

	log.WithGroup("call").With("action", "nested").Warn("Dropped event", "kind", "slot")

	entry := decodeEntry(t, out.String())
	if entry.Level != "warn" {
		t.Fatalf("level = %q, want warn", entry.Level)
	}
	if entry.Caller == "" {
		t.Fatal("expected caller with add_source")
	}
	if entry.Action != "" {
		t.Fatalf("action = %q, grouped attributes must stay in fields", entry.Action)
	}
	call, ok := entry.Fields["call"].(map[string]any)
	if !ok {
		t.Fatalf("fields[call] = %#v, want an object", entry.Fields["call"])
	}
	if call["kind"] != "slot" || call["action"] != "nested" {
		t.Fatalf("fields[call] = %v, want kind=slot action=nested", call)
	}
}

func TestLoggerBindsCallScopeOnce(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	log, err := newWithWriter(config.LoggingConfig{Format: "json", Level: "debug"}, &out)
	if err != nil {
		t.Fatalf("newWithWriter error: %v", err)
	}

	call := log.With("component", "executor").With("action", "greet", "request_id", "")
	call.Debug("Received call", "request_id", "r-1", "error", errors.New("boom"), slogGroup())
	call.Debug("Finished call")

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), out.String())
	}

	first := decodeEntry(t, lines[0])
	if first.Component != "executor" || first.Action != "greet" || first.RequestID != "r-1" {
		t.Fatalf("scope = %q/%q/%q, want executor/greet/r-1", first.Component, first.Action, first.RequestID)
	}
	if first.Fields["error"] != "boom" {
		t.Fatalf("fields[error] = %#v, want boom", first.Fields["error"])
	}
	if tracker, ok := first.Fields["tracker"].(map[string]any); !ok || tracker["events"] != float64(3) {
		t.Fatalf("fields[tracker] = %#v, want events=3", first.Fields["tracker"])
	}

	second := decodeEntry(t, lines[1])
	if second.RequestID != "" {
		t.Fatalf("request_id = %q, record attributes must not leak into the logger", second.RequestID)
	}
	if second.Fields != nil {
		t.Fatalf("fields = %v, want none", second.Fields)
	}
}

func slogGroup() slog.Attr {
	return slog.Group("tracker", "events", 3)
}

func decodeEntry(t *testing.T, line string) Entry {
	t.Helper()

	var entry Entry
	if err := json.Unmarshal([]byte(strings.TrimSpace(line)), &entry); err != nil {
		t.Fatalf("unmarshal log entry %q: %v", line, err)
	}
	return entry
}
