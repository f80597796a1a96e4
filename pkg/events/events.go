// Package events builds the event records that actions return to the
// assistant. Every constructor sets the discriminator expected by the
// assistant's tracker.
package events

import (
	"time"

	"actionkit/pkg/action"
)

const (
	KindSlot           = "slot"
	KindResetSlots     = "reset_slots"
	KindRestart        = "restart"
	KindRewind         = "rewind"
	KindUndo           = "undo"
	KindFollowup       = "followup"
	KindPause          = "pause"
	KindResume         = "resume"
	KindReminder       = "reminder"
	KindCancelReminder = "cancel_reminder"
	KindForm           = "form"
	KindAction         = "action"
	KindBot            = "bot"
)

func SlotSet(name string, value any) action.Event {
	return action.Event{action.EventKey: KindSlot, "name": name, "value": value}
}

func AllSlotsReset() action.Event {
	return action.Event{action.EventKey: KindResetSlots}
}

func Restarted() action.Event {
	return action.Event{action.EventKey: KindRestart}
}

// UserUtteranceReverted drops everything back to the latest user message.
func UserUtteranceReverted() action.Event {
	return action.Event{action.EventKey: KindRewind}
}

// ActionReverted undoes the previous bot action.
func ActionReverted() action.Event {
	return action.Event{action.EventKey: KindUndo}
}

func FollowupAction(name string) action.Event {
	return action.Event{action.EventKey: KindFollowup, "name": name}
}

func ConversationPaused() action.Event {
	return action.Event{action.EventKey: KindPause}
}

func ConversationResumed() action.Event {
	return action.Event{action.EventKey: KindResume}
}

// ReminderScheduled asks the assistant to trigger actionName at the given
// time. An empty name lets the assistant pick one.
func ReminderScheduled(actionName string, at time.Time, name string, killOnUserMessage bool) action.Event {
	event := action.Event{
		action.EventKey:    KindReminder,
		"action":           actionName,
		"date_time":        at.Format(time.RFC3339),
		"kill_on_user_msg": killOnUserMessage,
	}
	if name != "" {
		event["name"] = name
	}

	return event
}

func ReminderCancelled(actionName string) action.Event {
	return action.Event{action.EventKey: KindCancelReminder, "action": actionName}
}

// Form activates the named form, or deactivates the active one when name is
// empty.
func Form(name string) action.Event {
	event := action.Event{action.EventKey: KindForm, "name": nil}
	if name != "" {
		event["name"] = name
	}

	return event
}

func ActionExecuted(name string) action.Event {
	return action.Event{action.EventKey: KindAction, "name": name}
}

func BotUttered(text string, data map[string]any) action.Event {
	event := action.Event{action.EventKey: KindBot, "text": text}
	if len(data) > 0 {
		event["data"] = data
	}

	return event
}
