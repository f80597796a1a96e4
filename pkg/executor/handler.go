package executor

import (
	"fmt"
	"reflect"

	"actionkit/pkg/action"
	"actionkit/pkg/tracker"
)

const handlerArity = 3

var (
	collectorType = reflect.TypeFor[*action.Collector]()
	trackerType   = reflect.TypeFor[*tracker.Tracker]()
	domainType    = reflect.TypeFor[action.Domain]()
	errorType     = reflect.TypeFor[error]()
)

// adaptHandler checks handler against the handler contract once and returns
// its normalized form.
//
// A handler takes (collector, tracker, domain) and returns nothing, a slice of
// events, an error, or a slice of events and an error.
func adaptHandler(handler any) (action.HandlerFunc, error) {
	switch typed := handler.(type) {
	case nil:
		return nil, contractErrorf("handler is nil")
	case action.HandlerFunc:
		if typed == nil {
			return nil, contractErrorf("handler is nil")
		}
		return typed, nil
	case func(*action.Collector, *tracker.Tracker, action.Domain) ([]any, error):
		if typed == nil {
			return nil, contractErrorf("handler is nil")
		}
		return typed, nil
	}

	fn := reflect.ValueOf(handler)
	fnType := fn.Type()
	if fnType.Kind() != reflect.Func {
		return nil, contractErrorf("handler must be a function, got %T", handler)
	}
	if fn.IsNil() {
		return nil, contractErrorf("handler is nil")
	}
	if fnType.IsVariadic() || fnType.NumIn() != handlerArity {
		return nil, contractErrorf(
			"handlers take exactly %d parameters (collector, tracker, domain); %s accepts %d",
			handlerArity, fnType, fnType.NumIn(),
		)
	}

	for i, want := range []reflect.Type{collectorType, trackerType, domainType} {
		if !want.AssignableTo(fnType.In(i)) {
			return nil, contractErrorf("parameter %d of %s must accept %s", i+1, fnType, want)
		}
	}

	results, err := resultShape(fnType)
	if err != nil {
		return nil, err
	}

	return func(c *action.Collector, t *tracker.Tracker, d action.Domain) ([]any, error) {
		out := fn.Call([]reflect.Value{
			reflect.ValueOf(c),
			reflect.ValueOf(t),
			reflect.ValueOf(d),
		})
		return results(out)
	}, nil
}

type resultReader func([]reflect.Value) ([]any, error)

func resultShape(fnType reflect.Type) (resultReader, error) {
	switch n := fnType.NumOut(); {
	case n == 0:
		return func([]reflect.Value) ([]any, error) { return nil, nil }, nil
	case n == 1 && fnType.Out(0) == errorType:
		return func(out []reflect.Value) ([]any, error) { return nil, errorOf(out[0]) }, nil
	case n == 1 && fnType.Out(0).Kind() == reflect.Slice:
		return func(out []reflect.Value) ([]any, error) { return sliceOf(out[0]), nil }, nil
	case n == 2 && fnType.Out(0).Kind() == reflect.Slice && fnType.Out(1) == errorType:
		return func(out []reflect.Value) ([]any, error) { return sliceOf(out[0]), errorOf(out[1]) }, nil
	default:
		return nil, contractErrorf("%s must return nothing, events, error, or (events, error)", fnType)
	}
}

func sliceOf(value reflect.Value) []any {
	if value.IsNil() {
		return nil
	}

	items := make([]any, value.Len())
	for i := range items {
		items[i] = value.Index(i).Interface()
	}

	return items
}

func errorOf(value reflect.Value) error {
	if value.IsNil() {
		return nil
	}

	err, _ := value.Interface().(error)
	return err
}

// newAction instantiates the zero value of an Action type. Value types whose
// methods have pointer receivers are instantiated as pointers.
func newAction(t reflect.Type) (action.Action, error) {
	if t == nil {
		return nil, contractErrorf("action type is nil")
	}

	var candidates []reflect.Value
	if t.Kind() == reflect.Pointer {
		candidates = append(candidates, reflect.New(t.Elem()))
	} else {
		candidates = append(candidates, reflect.New(t).Elem(), reflect.New(t))
	}

	for _, candidate := range candidates {
		if a, ok := candidate.Interface().(action.Action); ok {
			return a, nil
		}
	}

	return nil, contractErrorf("%s does not implement Action", t)
}

func isAbstract(a action.Action) bool {
	marker, ok := a.(action.Abstract)
	return ok && marker.IsAbstract()
}

func describe(value any) string {
	return fmt.Sprintf("%T", value)
}
