// Package action defines the contract between user action code and the
// executor: the Action capability, the per-call Collector, and the event
// records an action may hand back.
package action

import "actionkit/pkg/tracker"

// EventKey is the discriminator every event record must carry.
const EventKey = "event"

// Event is one side-effect record returned by an action. The value under
// EventKey names its kind; every other key is kind-specific payload.
type Event map[string]any

// Kind returns the event discriminator, or "" when it is absent.
func (e Event) Kind() string {
	kind, _ := e[EventKey].(string)
	return kind
}

// Domain is the assistant domain passed through to actions untouched.
type Domain map[string]any

// HandlerFunc is the normalized form of every registered handler.
type HandlerFunc func(*Collector, *tracker.Tracker, Domain) ([]any, error)

// Action is a named unit of logic invocable by the executor.
type Action interface {
	Name() string
	Run(collector *Collector, t *tracker.Tracker, domain Domain) ([]any, error)
}

// Abstract marks base types that discovery must not register on their own.
// A type embedding an abstract base inherits IsAbstract and is skipped as
// well unless it declares its own IsAbstract returning false.
type Abstract interface {
	IsAbstract() bool
}

// Recorder is implemented by foreign event types that can render themselves
// as a plain event record.
type Recorder interface {
	ToRecord() map[string]any
}

// Func adapts a plain function to the Action interface.
type Func struct {
	ActionName string
	Handler    HandlerFunc
}

func (f Func) Name() string {
	return f.ActionName
}

func (f Func) Run(collector *Collector, t *tracker.Tracker, domain Domain) ([]any, error) {
	if f.Handler == nil {
		return nil, nil
	}

	return f.Handler(collector, t, domain)
}
