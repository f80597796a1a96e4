package events

import (
	"testing"
	"time"

	"actionkit/pkg/action"

	"github.com/stretchr/testify/require"
)

func TestConstructorsSetDiscriminator(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	tests := []struct {
		event action.Event
		kind  string
	}{
		{SlotSet("city", "Berlin"), KindSlot},
		{AllSlotsReset(), KindResetSlots},
		{Restarted(), KindRestart},
		{UserUtteranceReverted(), KindRewind},
		{ActionReverted(), KindUndo},
		{FollowupAction("action_next"), KindFollowup},
		{ConversationPaused(), KindPause},
		{ConversationResumed(), KindResume},
		{ReminderScheduled("action_remind", at, "", true), KindReminder},
		{ReminderCancelled("action_remind"), KindCancelReminder},
		{Form("booking_form"), KindForm},
		{ActionExecuted("action_listen"), KindAction},
		{BotUttered("hi", nil), KindBot},
	}

	for _, tt := range tests {
		require.Equal(t, tt.kind, tt.event.Kind())
	}
}

func TestEventPayloads(t *testing.T) {
	t.Parallel()

	require.Equal(t, action.Event{"event": "slot", "name": "x", "value": 1}, SlotSet("x", 1))

	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	require.Equal(t, action.Event{
		"event":            "reminder",
		"action":           "action_remind",
		"date_time":        "2026-03-01T09:30:00Z",
		"kill_on_user_msg": false,
		"name":             "morning",
	}, ReminderScheduled("action_remind", at, "morning", false))

	require.Nil(t, Form("")["name"])
	require.Equal(t, map[string]any{"buttons": 1}, BotUttered("hi", map[string]any{"buttons": 1})["data"])
	_, hasData := BotUttered("hi", nil)["data"]
	require.False(t, hasData)
}

func TestConstructedEventsSurviveValidation(t *testing.T) {
	t.Parallel()

	got := action.ValidateEvents(nil, "test", []any{SlotSet("a", 1), Restarted()})
	require.Len(t, got, 2)
}
