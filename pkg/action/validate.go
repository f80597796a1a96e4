package action

import (
	"fmt"
	"log/slog"
	"reflect"
)

// ValidateEvents filters the raw items an action returned down to well-formed
// event records. It never fails: bad items are logged and dropped. The result
// keeps the relative order of accepted items and is never nil.
//
// Accepted items are Event, map[string]any, any other map type with string
// keys, and Recorder values, which are converted with a warning.
func ValidateEvents(log *slog.Logger, actionName string, items []any) []Event {
	if log == nil {
		log = slog.Default()
	}

	validated := make([]Event, 0, len(items))
	for _, item := range items {
		record, ok := recordOf(log, actionName, item)
		if !ok {
			continue
		}
		if event, ok := acceptRecord(log, actionName, record); ok {
			validated = append(validated, event)
		}
	}

	return validated
}

// recordOf turns one returned item into a plain record. A Recorder whose
// ToRecord panics is dropped like any other invalid item.
func recordOf(log *slog.Logger, actionName string, item any) (record map[string]any, ok bool) {
	switch typed := item.(type) {
	case Event:
		return typed, true
	case map[string]any:
		return typed, true
	case Recorder:
		log.Warn("Action returned a foreign event type, converting it to a record; "+
			"return plain event records instead as this conversion may go wrong",
			"action", actionName, "type", fmt.Sprintf("%T", item))

		defer func() {
			if recovered := recover(); recovered != nil {
				log.Error("Converting a foreign event failed, it will be ignored",
					"action", actionName, "type", fmt.Sprintf("%T", item), "panic", fmt.Sprint(recovered))
				record, ok = nil, false
			}
		}()
		return typed.ToRecord(), true
	}

	if copied, found := stringKeyedMap(item); found {
		return copied, true
	}

	log.Error("Action returned an invalid event, it will be ignored",
		"action", actionName, "event", fmt.Sprintf("%#v", item))
	return nil, false
}

// stringKeyedMap copies named map types such as `type MyEvent map[string]any`.
func stringKeyedMap(item any) (map[string]any, bool) {
	value := reflect.ValueOf(item)
	if value.Kind() != reflect.Map || value.Type().Key().Kind() != reflect.String || value.IsNil() {
		return nil, false
	}

	record := make(map[string]any, value.Len())
	iter := value.MapRange()
	for iter.Next() {
		record[iter.Key().String()] = iter.Value().Interface()
	}

	return record, true
}

func acceptRecord(log *slog.Logger, actionName string, record map[string]any) (Event, bool) {
	if !hasDiscriminator(record) {
		log.Error("Action returned an event without the `event` property, it will be ignored; "+
			"use the constructors in the events package",
			"action", actionName, "event", fmt.Sprintf("%v", record))
		return nil, false
	}

	return Event(record), true
}

// hasDiscriminator reports whether record names its kind with a non-empty
// string under EventKey.
func hasDiscriminator(record map[string]any) bool {
	kind, ok := record[EventKey].(string)
	return ok && kind != ""
}
