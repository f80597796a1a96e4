package console

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"actionkit/pkg/action"
	"actionkit/pkg/events"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var errEmptyCommand = errors.New("type an action name")

// command is one parsed console line: an action name plus optional slot
// overrides given as a JSON object.
type command struct {
	action string
	slots  map[string]any
}

func parseCommand(input string) (command, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return command{}, errEmptyCommand
	}

	name, rest, _ := strings.Cut(input, " ")
	cmd := command{action: name}

	rest = strings.TrimSpace(rest)
	if rest == "" {
		return cmd, nil
	}

	if !gjson.Valid(rest) {
		return command{}, fmt.Errorf("slots for %q are not valid JSON", name)
	}
	parsed := gjson.Parse(rest)
	if !parsed.IsObject() {
		return command{}, fmt.Errorf("slots for %q must be a JSON object", name)
	}

	slots, _ := parsed.Value().(map[string]any)
	cmd.slots = slots
	return cmd, nil
}

// session is the conversation state the console keeps between calls.
type session struct {
	senderID   string
	slots      map[string]any
	history    []action.Event
	lastAction string
}

func newSession(senderID string) *session {
	return &session{
		senderID: senderID,
		slots:    map[string]any{},
	}
}

// trackerJSON renders the state as the tracker document of the next call.
func (s *session) trackerJSON() (json.RawMessage, error) {
	history := s.history
	if history == nil {
		history = []action.Event{}
	}

	fields := []struct {
		path  string
		value any
	}{
		{"sender_id", s.senderID},
		{"slots", s.slots},
		{"events", history},
		{"latest_action_name", s.lastAction},
	}

	doc := []byte(`{}`)
	for _, field := range fields {
		var err error
		if doc, err = sjson.SetBytes(doc, field.path, field.value); err != nil {
			return nil, fmt.Errorf("encode tracker %s: %w", field.path, err)
		}
	}

	return doc, nil
}

func (s *session) setSlots(slots map[string]any) {
	maps.Copy(s.slots, slots)
}

// apply folds the events returned by an action into the local state.
func (s *session) apply(actionName string, returned []action.Event) {
	s.lastAction = actionName
	s.history = append(s.history, events.ActionExecuted(actionName))

	for _, event := range returned {
		switch event.Kind() {
		case events.KindSlot:
			name, _ := event["name"].(string)
			if name == "" {
				continue
			}
			s.slots[name] = event["value"]
		case events.KindResetSlots:
			clear(s.slots)
		case events.KindRestart:
			clear(s.slots)
			s.history = nil
			continue
		}
		s.history = append(s.history, event)
	}
}

func (s *session) slotNames() []string {
	return slices.Sorted(maps.Keys(s.slots))
}
