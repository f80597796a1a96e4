package tracker

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleTracker = `{
  "sender_id": "user-42",
  "slots": {"cuisine": "thai", "people": 2},
  "latest_message": {
    "text": "book a thai table for two",
    "intent": {"name": "book_table", "confidence": 0.97},
    "entities": [
      {"entity": "cuisine", "value": "thai"},
      {"entity": "people", "value": 2},
      {"entity": "cuisine", "value": "spicy"}
    ]
  },
  "events": [{"event": "action", "name": "action_listen"}, "junk"],
  "paused": false,
  "followup_action": "",
  "active_form": {"name": "booking_form"},
  "latest_action_name": "action_listen"
}`

func TestFromJSONParsesKnownFields(t *testing.T) {
	t.Parallel()

	tr, err := FromJSON([]byte(sampleTracker))
	require.NoError(t, err)

	require.Equal(t, "user-42", tr.SenderID)
	require.Equal(t, "action_listen", tr.LatestActionName)
	require.Equal(t, "booking_form", tr.ActiveForm["name"])
	require.False(t, tr.Paused)
	require.Len(t, tr.Events, 1)
	require.Equal(t, "action", tr.Events[0]["event"])

	cuisine, ok := tr.Slot("cuisine")
	require.True(t, ok)
	require.Equal(t, "thai", cuisine)

	_, ok = tr.Slot("missing")
	require.False(t, ok)
}

func TestLatestIntentAndEntities(t *testing.T) {
	t.Parallel()

	tr, err := FromJSON([]byte(sampleTracker))
	require.NoError(t, err)

	require.Equal(t, "book_table", tr.LatestIntent())
	require.Equal(t, []any{"thai", "spicy"}, tr.LatestEntityValues("cuisine"))
	require.Equal(t, []any{float64(2)}, tr.LatestEntityValues("people"))
	require.Nil(t, tr.LatestEntityValues("date"))
	require.InDelta(t, 0.97, tr.Get("latest_message.intent.confidence").Float(), 1e-9)
}

func TestFromJSONEmptyPayloads(t *testing.T) {
	t.Parallel()

	for _, payload := range []string{"", "  ", "null"} {
		tr, err := FromJSON([]byte(payload))
		require.NoError(t, err)
		require.Empty(t, tr.SenderID)
		require.Empty(t, tr.Slots)
		require.Equal(t, "{}", tr.Raw())
	}
}

func TestFromJSONRejectsInvalidPayloads(t *testing.T) {
	t.Parallel()

	for _, payload := range []string{"{not json", "[1,2]", `"text"`} {
		_, err := FromJSON([]byte(payload))
		require.Error(t, err, payload)
		require.True(t, errors.Is(err, ErrInvalidTracker), payload)
	}
}

func TestFromMapRoundTripsDocument(t *testing.T) {
	t.Parallel()

	tr, err := FromMap(map[string]any{
		"sender_id": "abc",
		"slots":     map[string]any{"name": "Ada"},
	})
	require.NoError(t, err)
	require.Equal(t, "abc", tr.SenderID)
	require.Equal(t, "Ada", tr.Slots["name"])

	empty, err := FromMap(nil)
	require.NoError(t, err)
	require.Empty(t, empty.Slots)
}

func TestNilTrackerAccessors(t *testing.T) {
	t.Parallel()

	var tr *Tracker
	_, ok := tr.Slot("x")
	require.False(t, ok)
	require.Equal(t, "", tr.LatestIntent())
	require.Equal(t, "{}", tr.Raw())
}
