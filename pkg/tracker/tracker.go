package tracker

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrInvalidTracker reports a tracker payload that is not a JSON object.
var ErrInvalidTracker = errors.New("invalid tracker payload")

// Tracker is a read-only snapshot of one conversation's state as sent by the
// assistant with every action call.
type Tracker struct {
	SenderID         string
	Slots            map[string]any
	LatestMessage    map[string]any
	Events           []map[string]any
	Paused           bool
	FollowupAction   string
	ActiveForm       map[string]any
	LatestActionName string

	raw gjson.Result
}

// FromJSON parses a tracker document. An empty payload or JSON null yields an
// empty tracker.
func FromJSON(data []byte) (*Tracker, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return Empty(), nil
	}
	if !gjson.Valid(trimmed) {
		return nil, fmt.Errorf("%w: malformed JSON", ErrInvalidTracker)
	}

	doc := gjson.Parse(trimmed)
	if !doc.IsObject() {
		return nil, fmt.Errorf("%w: expected object, got %s", ErrInvalidTracker, doc.Type)
	}

	t := &Tracker{
		SenderID:         doc.Get("sender_id").String(),
		Slots:            objectOf(doc.Get("slots")),
		LatestMessage:    objectOf(doc.Get("latest_message")),
		Paused:           doc.Get("paused").Bool(),
		FollowupAction:   doc.Get("followup_action").String(),
		ActiveForm:       objectOf(doc.Get("active_form")),
		LatestActionName: doc.Get("latest_action_name").String(),
		raw:              doc,
	}

	for _, item := range doc.Get("events").Array() {
		if !item.IsObject() {
			continue
		}
		t.Events = append(t.Events, objectOf(item))
	}

	return t, nil
}

// FromMap builds a tracker from an already decoded document.
func FromMap(doc map[string]any) (*Tracker, error) {
	if doc == nil {
		return Empty(), nil
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTracker, err)
	}

	return FromJSON(data)
}

// Empty returns a tracker with no state.
func Empty() *Tracker {
	return &Tracker{
		Slots:         map[string]any{},
		LatestMessage: map[string]any{},
		ActiveForm:    map[string]any{},
		raw:           gjson.Parse("{}"),
	}
}

// Slot returns the current value of a slot.
func (t *Tracker) Slot(name string) (any, bool) {
	if t == nil {
		return nil, false
	}

	value, ok := t.Slots[name]
	return value, ok
}

// LatestIntent returns the intent name of the most recent user message.
func (t *Tracker) LatestIntent() string {
	return t.Get("latest_message.intent.name").String()
}

// LatestEntityValues returns every value extracted for entity in the most
// recent user message, in message order.
func (t *Tracker) LatestEntityValues(entity string) []any {
	var values []any
	for _, item := range t.Get("latest_message.entities").Array() {
		if item.Get("entity").String() != entity {
			continue
		}
		values = append(values, item.Get("value").Value())
	}

	return values
}

// Get runs a gjson path query against the raw tracker document.
func (t *Tracker) Get(path string) gjson.Result {
	if t == nil {
		return gjson.Result{}
	}

	return t.raw.Get(path)
}

// Raw returns the tracker document as received.
func (t *Tracker) Raw() string {
	if t == nil || t.raw.Raw == "" {
		return "{}"
	}

	return t.raw.Raw
}

func objectOf(value gjson.Result) map[string]any {
	if !value.IsObject() {
		return map[string]any{}
	}

	decoded, ok := value.Value().(map[string]any)
	if !ok {
		return map[string]any{}
	}

	return decoded
}
