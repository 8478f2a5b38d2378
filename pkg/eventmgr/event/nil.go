package event

import "reflect"

// IsNil reports whether v is nil or holds a nil pointer, func, map, slice,
// chan or interface. A nil *BaseEvent passed as an Event, or a nil
// ListenerFunc passed as a Listener, is not == nil but is still absent.
func IsNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
