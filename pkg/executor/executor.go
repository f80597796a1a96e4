// Package executor registers action handlers and dispatches action calls to
// them.
package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strconv"
	"strings"

	"actionkit/pkg/action"
	"actionkit/pkg/bus"
	"actionkit/pkg/discovery"
	"actionkit/pkg/tracker"
)

// DefaultReservedNamespaces holds the package roots whose Action types are
// never registered from a type: the SDK's own packages.
var DefaultReservedNamespaces = []string{"actionkit/pkg"}

// Call is one request to run an action.
type Call struct {
	NextAction string          `json:"next_action"`
	SenderID   string          `json:"sender_id,omitempty"`
	Tracker    json.RawMessage `json:"tracker,omitempty"`
	Domain     action.Domain   `json:"domain,omitempty"`
	Version    string          `json:"version,omitempty"`
}

// Response is the result of a successful call.
type Response struct {
	Events    []action.Event   `json:"events"`
	Responses []action.Message `json:"responses"`
}

// Executor owns a Registry and runs calls against it.
type Executor struct {
	registry *Registry
	log      *slog.Logger
	bus      *bus.MessageBus
	source   discovery.Source
	reserved []string
}

type Option func(*Executor)

// WithLogger sets the logger used for registration and dispatch diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(e *Executor) {
		if log != nil {
			e.log = log
		}
	}
}

// WithBus publishes lifecycle events for every call to messageBus.
func WithBus(messageBus *bus.MessageBus) Option {
	return func(e *Executor) {
		e.bus = messageBus
	}
}

// WithSource sets the discovery source used by RegisterDiscovered.
func WithSource(source discovery.Source) Option {
	return func(e *Executor) {
		e.source = source
	}
}

// WithReservedNamespaces replaces the package roots skipped when registering
// Action types.
func WithReservedNamespaces(namespaces ...string) Option {
	return func(e *Executor) {
		e.reserved = compactNamespaces(namespaces)
	}
}

func New(opts ...Option) *Executor {
	e := &Executor{
		registry: NewRegistry(),
		log:      slog.Default(),
		reserved: compactNamespaces(DefaultReservedNamespaces),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.With("component", "executor")

	return e
}

// Registry exposes the executor's name to handler mapping.
func (e *Executor) Registry() *Registry {
	return e.registry
}

// Names returns the registered action names in sorted order.
func (e *Executor) Names() []string {
	return e.registry.Names()
}

// RegisterHandler registers a function under name. The function must take
// exactly three parameters (collector, tracker, domain). Registering a name
// again replaces the earlier handler.
func (e *Executor) RegisterHandler(name string, handler any) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return contractErrorf("action name cannot be empty")
	}

	fn, err := adaptHandler(handler)
	if err != nil {
		return fmt.Errorf("register %q: %w", name, err)
	}

	if replaced := e.registry.set(name, fn); replaced {
		e.log.Info("Replaced function", "action", name)
		return nil
	}

	e.log.Info("Registered function", "action", name)
	return nil
}

// RegisterAction registers an Action instance, or instantiates and registers
// an Action type given as a reflect.Type or a func() action.Action factory.
// Types from a reserved namespace are skipped with a warning.
func (e *Executor) RegisterAction(value any) error {
	var a action.Action
	switch typed := value.(type) {
	case nil:
		return contractErrorf("cannot register a nil action")
	case reflect.Type:
		if e.reservedType(typed) {
			return nil
		}
		instance, err := newAction(typed)
		if err != nil {
			return err
		}
		a = instance
	case func() action.Action:
		if typed == nil {
			return contractErrorf("action factory is nil")
		}
		instance := typed()
		if instance == nil {
			return contractErrorf("action factory returned nil")
		}
		if e.reservedType(reflect.TypeOf(instance)) {
			return nil
		}
		a = instance
	case action.Action:
		a = typed
	default:
		return contractErrorf(
			"only Action instances or types can be registered, got %s; use RegisterHandler to register a function",
			describe(value),
		)
	}

	return e.RegisterHandler(a.Name(), a.Run)
}

// RegisterDiscovered registers every Action type the discovery source finds
// under root. Discovery failures are logged and do not stop registration of
// the types that did load; abstract and reserved types are skipped.
func (e *Executor) RegisterDiscovered(root string) error {
	if e.source == nil {
		return ErrNoSource
	}

	types, err := e.source.Discover(root)
	if err != nil {
		e.log.Error("Failed to load some action packages", "root", root, "error", err)
	}

	var errs []error
	for _, t := range types {
		if discovery.InNamespaceAny(discovery.PackagePath(t), e.reserved) {
			e.log.Debug("Ignoring reserved action type", "type", t.String())
			continue
		}

		instance, err := newAction(t)
		if err != nil {
			e.log.Error("Discovered type is not an action", "type", t.String(), "error", err)
			errs = append(errs, err)
			continue
		}
		if isAbstract(instance) {
			e.log.Debug("Ignoring abstract action type", "type", t.String())
			continue
		}

		if err := e.RegisterAction(instance); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Run executes one call.
//
// A call without an action name is logged and yields (nil, nil): there is no
// response to send. Unknown names fail with *ActionNotFoundError and handler
// failures with *ExecutionError; neither produces a partial response.
func (e *Executor) Run(ctx context.Context, call Call) (*Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	name := strings.TrimSpace(call.NextAction)
	if name == "" {
		e.log.Warn("Received an action call without an action")
		return nil, nil
	}

	requestID := RequestIDFromContext(ctx)
	log := e.log.With("action", name, "request_id", requestID)
	log.Debug("Received request to run action")

	handler, ok := e.registry.Lookup(name)
	if !ok {
		err := &ActionNotFoundError{Name: name}
		e.publish(ctx, bus.Event{Type: bus.EventActionFailed, Action: name, SenderID: call.SenderID, RequestID: requestID, Error: err.Error()})
		return nil, err
	}

	t, err := tracker.FromJSON(call.Tracker)
	if err != nil {
		return nil, fmt.Errorf("run %q: %w", name, err)
	}

	senderID := t.SenderID
	if senderID == "" {
		senderID = call.SenderID
	}

	domain := call.Domain
	if domain == nil {
		domain = action.Domain{}
	}

	e.publish(ctx, bus.Event{Type: bus.EventActionReceived, Action: name, SenderID: senderID, RequestID: requestID})

	collector := action.NewCollector(action.WithCollectorLogger(log))
	items, err := invoke(handler, collector, t, domain)
	if err != nil {
		execErr := &ExecutionError{Name: name, Err: err}
		e.publish(ctx, bus.Event{Type: bus.EventActionFailed, Action: name, SenderID: senderID, RequestID: requestID, Error: execErr.Error()})
		return nil, execErr
	}

	validated := action.ValidateEvents(log, name, items)
	messages := collector.Messages()

	e.publish(ctx, bus.Event{
		Type:      bus.EventActionCompleted,
		Action:    name,
		SenderID:  senderID,
		RequestID: requestID,
		Payload: map[string]string{
			"events":    strconv.Itoa(len(validated)),
			"responses": strconv.Itoa(len(messages)),
		},
	})
	log.Debug("Finished running action", "events", len(validated), "responses", len(messages))

	return &Response{Events: validated, Responses: messages}, nil
}

func invoke(handler action.HandlerFunc, c *action.Collector, t *tracker.Tracker, d action.Domain) (items []any, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			items = nil
			err = fmt.Errorf("panic: %v", recovered)
		}
	}()

	return handler(c, t, d)
}

func (e *Executor) publish(ctx context.Context, event bus.Event) {
	if e.bus == nil {
		return
	}

	_ = e.bus.PublishEvent(ctx, event)
}

func (e *Executor) reservedType(t reflect.Type) bool {
	if !discovery.InNamespaceAny(discovery.PackagePath(t), e.reserved) {
		return false
	}

	e.log.Warn("Skipping built-in action", "type", t.String())
	return true
}

func compactNamespaces(namespaces []string) []string {
	out := make([]string, 0, len(namespaces))
	for _, namespace := range namespaces {
		trimmed := strings.TrimSpace(namespace)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	return out
}
