package actions

import (
	"actionkit/pkg/action"
	"actionkit/pkg/events"
	"actionkit/pkg/tracker"
)

// slotForm asks for required slots one at a time. It is only useful
// embedded, so it reports itself abstract.
type slotForm struct {
	name     string
	required []string
	prompts  map[string]string
}

func (f slotForm) Name() string { return f.name }

func (slotForm) IsAbstract() bool { return true }

func (f slotForm) Run(c *action.Collector, t *tracker.Tracker, _ action.Domain) ([]any, error) {
	for _, slot := range f.required {
		if value, ok := t.Slot(slot); ok && value != nil {
			continue
		}

		prompt := f.prompts[slot]
		if prompt == "" {
			prompt = "Please provide your " + slot + "."
		}
		c.SayText(prompt)
		return []any{events.Form(f.name), events.SlotSet("requested_slot", slot)}, nil
	}

	c.SayTemplate("utter_submit_"+f.name, t)
	return []any{events.Form(""), events.SlotSet("requested_slot", nil)}, nil
}

var contactForm = slotForm{
	name:     "contact_form",
	required: []string{"email", "phone"},
	prompts: map[string]string{
		"email": "What is your email address?",
	},
}

// ContactForm collects an email address and a phone number. It delegates to
// a slotForm instead of embedding one, which would make it abstract too.
type ContactForm struct{}

func (ContactForm) Name() string { return contactForm.name }

func (ContactForm) Run(c *action.Collector, t *tracker.Tracker, d action.Domain) ([]any, error) {
	return contactForm.Run(c, t, d)
}
