package action

import (
	"log/slog"
	"maps"

	"actionkit/pkg/tracker"
)

// Message is one unit of user-facing output.
type Message map[string]any

// Extra holds caller-supplied message fields. Extra keys override the fixed
// fields of a message.
type Extra map[string]any

// Collector accumulates the messages emitted during a single action call. It
// is owned by that call and is not safe for concurrent use.
type Collector struct {
	messages []Message
	log      *slog.Logger
}

// CollectorOption configures a Collector.
type CollectorOption func(*Collector)

// WithCollectorLogger sets the logger used for deprecation warnings.
func WithCollectorLogger(log *slog.Logger) CollectorOption {
	return func(c *Collector) {
		if log != nil {
			c.log = log
		}
	}
}

// NewCollector returns an empty collector.
func NewCollector(opts ...CollectorOption) *Collector {
	c := &Collector{}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = slog.Default().With("component", "action.collector")
	}

	return c
}

// SayText sends a plain text message.
func (c *Collector) SayText(text string, extra ...Extra) {
	c.add(Message{"text": text}, extra)
}

// SayElements sends a message carrying custom elements (carousels, cards).
func (c *Collector) SayElements(elements []any, extra ...Extra) {
	c.add(Message{"text": nil, "elements": elements}, extra)
}

// SayCustomMessage sends elements the way SayElements does.
//
// Deprecated: use SayElements to send elements or SayCustomJSON to send a
// custom payload.
func (c *Collector) SayCustomMessage(elements []any, extra ...Extra) {
	c.log.Warn("SayCustomMessage is deprecated, use SayElements or SayCustomJSON")
	c.SayElements(elements, extra...)
}

// SayButtons sends text with a list of buttons.
func (c *Collector) SayButtons(text string, buttons []map[string]any, extra ...Extra) {
	c.add(Message{"text": text, "buttons": buttons}, extra)
}

// SayAttachment sends an attachment without text.
func (c *Collector) SayAttachment(attachment any, extra ...Extra) {
	c.add(Message{"text": nil, "attachment": attachment}, extra)
}

// SayTemplate asks the assistant to render one of its response templates.
// The tracker is accepted for signature compatibility and is not read.
func (c *Collector) SayTemplate(template string, _ *tracker.Tracker, extra ...Extra) {
	c.add(Message{"template": template}, extra)
}

// SayButtonsFromTemplate renders a response template with extra buttons.
func (c *Collector) SayButtonsFromTemplate(template string, buttons []map[string]any, _ *tracker.Tracker, extra ...Extra) {
	c.add(Message{"template": template, "buttons": buttons}, extra)
}

// SayCustomJSON sends a channel-specific payload verbatim.
func (c *Collector) SayCustomJSON(payload map[string]any, extra ...Extra) {
	c.add(Message{"custom": payload}, extra)
}

// SayImage sends an image by URL.
func (c *Collector) SayImage(url string, extra ...Extra) {
	c.add(Message{"image": url}, extra)
}

// Messages returns a copy of everything collected so far, in emission order.
func (c *Collector) Messages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len reports the number of collected messages.
func (c *Collector) Len() int {
	return len(c.messages)
}

func (c *Collector) add(message Message, extras []Extra) {
	for _, extra := range extras {
		maps.Copy(message, extra)
	}

	c.messages = append(c.messages, message)
}
