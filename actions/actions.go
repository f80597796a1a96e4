// Package actions holds the example actions served by the actionkit binary.
// Importing it adds every action here to the default discovery catalog.
package actions

import (
	"fmt"
	"strings"
	"time"

	"actionkit/pkg/action"
	"actionkit/pkg/discovery"
	"actionkit/pkg/events"
	"actionkit/pkg/tracker"
)

func init() {
	discovery.Register(
		Greet{},
		OrderPizza{},
		ResetSlots{},
		RemindLater{},
		slotForm{},
		ContactForm{},
	)
}

// Greet says hello to the user named by the "name" slot, or to the sender.
type Greet struct{}

func (Greet) Name() string { return "action_greet" }

func (Greet) Run(c *action.Collector, t *tracker.Tracker, _ action.Domain) ([]any, error) {
	who := t.SenderID
	if name, ok := t.Slot("name"); ok && name != nil {
		who = fmt.Sprint(name)
	}
	if who == "" {
		who = "there"
	}

	c.SayText("Hello " + who + "!")
	return nil, nil
}

var pizzaSizes = []string{"small", "medium", "large"}

// OrderPizza stores the size entity of the latest message, or asks for one.
type OrderPizza struct{}

func (OrderPizza) Name() string { return "action_order_pizza" }

func (OrderPizza) Run(c *action.Collector, t *tracker.Tracker, _ action.Domain) ([]any, error) {
	for _, value := range t.LatestEntityValues("size") {
		size := strings.ToLower(fmt.Sprint(value))
		for _, known := range pizzaSizes {
			if size == known {
				c.SayText("One " + size + " pizza coming up.")
				return []any{events.SlotSet("pizza_size", size)}, nil
			}
		}
	}

	buttons := make([]map[string]any, 0, len(pizzaSizes))
	for _, size := range pizzaSizes {
		buttons = append(buttons, map[string]any{
			"title":   size,
			"payload": fmt.Sprintf(`/order{"size": %q}`, size),
		})
	}
	c.SayButtons("Which size would you like?", buttons)
	return nil, nil
}

// ResetSlots forgets every slot of the conversation.
type ResetSlots struct{}

func (ResetSlots) Name() string { return "action_reset_slots" }

func (ResetSlots) Run(c *action.Collector, _ *tracker.Tracker, _ action.Domain) ([]any, error) {
	c.SayText("Starting over.", action.Extra{"reset": true})
	return []any{events.AllSlotsReset()}, nil
}

// RemindLater schedules a reminder that triggers action_greet.
type RemindLater struct {
	now func() time.Time
}

const reminderDelay = 5 * time.Minute

func (RemindLater) Name() string { return "action_remind_later" }

func (r RemindLater) Run(c *action.Collector, _ *tracker.Tracker, _ action.Domain) ([]any, error) {
	now := time.Now
	if r.now != nil {
		now = r.now
	}

	at := now().Add(reminderDelay)
	c.SayText("I will check back in five minutes.")
	return []any{events.ReminderScheduled(Greet{}.Name(), at, "greet_later", true)}, nil
}
