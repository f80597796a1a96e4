package action

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"actionkit/pkg/tracker"

	"github.com/stretchr/testify/require"
)

func TestSayTextCollectsSingleMessage(t *testing.T) {
	t.Parallel()

	c := NewCollector()
	c.SayText("hello")

	require.Equal(t, []Message{{"text": "hello"}}, c.Messages())
}

func TestSayTextMergesExtraFields(t *testing.T) {
	t.Parallel()

	replies := []any{map[string]any{"title": "yes"}}
	c := NewCollector()
	c.SayText("hi", Extra{"quick_replies": replies})

	require.Equal(t, []Message{{"text": "hi", "quick_replies": replies}}, c.Messages())
}

func TestExtraOverridesFixedFields(t *testing.T) {
	t.Parallel()

	c := NewCollector()
	c.SayText("hi", Extra{"text": "overridden"}, Extra{"channel": "web"})
	c.SayImage("https://example.com/a.png", Extra{"image": "https://example.com/b.png"})

	require.Equal(t, []Message{
		{"text": "overridden", "channel": "web"},
		{"image": "https://example.com/b.png"},
	}, c.Messages())
}

func TestMessageShapes(t *testing.T) {
	t.Parallel()

	buttons := []map[string]any{{"title": "Yes", "payload": "/affirm"}}
	elements := []any{map[string]any{"title": "card"}}
	tr := tracker.Empty()

	tests := []struct {
		name string
		say  func(*Collector)
		want Message
	}{
		{
			name: "elements",
			say:  func(c *Collector) { c.SayElements(elements) },
			want: Message{"text": nil, "elements": elements},
		},
		{
			name: "buttons",
			say:  func(c *Collector) { c.SayButtons("pick one", buttons) },
			want: Message{"text": "pick one", "buttons": buttons},
		},
		{
			name: "attachment",
			say:  func(c *Collector) { c.SayAttachment("file.pdf") },
			want: Message{"text": nil, "attachment": "file.pdf"},
		},
		{
			name: "template",
			say:  func(c *Collector) { c.SayTemplate("utter_greet", tr, Extra{"name": "Ada"}) },
			want: Message{"template": "utter_greet", "name": "Ada"},
		},
		{
			name: "template with buttons",
			say:  func(c *Collector) { c.SayButtonsFromTemplate("utter_ask", buttons, nil) },
			want: Message{"template": "utter_ask", "buttons": buttons},
		},
		{
			name: "custom json",
			say:  func(c *Collector) { c.SayCustomJSON(map[string]any{"blocks": 1}) },
			want: Message{"custom": map[string]any{"blocks": 1}},
		},
		{
			name: "image",
			say:  func(c *Collector) { c.SayImage("https://example.com/cat.png") },
			want: Message{"image": "https://example.com/cat.png"},
		},
		{
			name: "deprecated custom message",
			say:  func(c *Collector) { c.SayCustomMessage(elements) },
			want: Message{"text": nil, "elements": elements},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := NewCollector()
			tt.say(c)
			require.Equal(t, []Message{tt.want}, c.Messages())
		})
	}
}

func TestSayCustomMessageWarnsThroughCollectorLogger(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&out, nil)).With("action", "legacy")
	elements := []any{map[string]any{"title": "card"}}

	c := NewCollector(WithCollectorLogger(log))
	c.SayCustomMessage(elements, Extra{"channel": "web"})

	require.Equal(t, []Message{{"text": nil, "elements": elements, "channel": "web"}}, c.Messages())
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 1)
	require.Contains(t, lines[0], `"level":"WARN"`)
	require.Contains(t, lines[0], `"action":"legacy"`)
	require.Contains(t, lines[0], "SayCustomMessage is deprecated")
}

func TestMessagesPreservesOrderAndReturnsSnapshot(t *testing.T) {
	t.Parallel()

	c := NewCollector()
	c.SayText("one")
	c.SayText("two")

	snapshot := c.Messages()
	c.SayText("three")

	require.Len(t, snapshot, 2)
	require.Equal(t, 3, c.Len())
	require.Equal(t, "one", c.Messages()[0]["text"])
	require.Equal(t, "three", c.Messages()[2]["text"])
}

func TestFuncAdapter(t *testing.T) {
	t.Parallel()

	a := Func{ActionName: "noop"}
	events, err := a.Run(NewCollector(), nil, nil)
	require.NoError(t, err)
	require.Nil(t, events)
	require.Equal(t, "noop", a.Name())
}
