package internal

import "reflect"

// IsTypedNil reports whether v is nil, or a typed nil pointer/slice/map/func/chan
// wrapped in a non-nil interface value.
func IsTypedNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface, reflect.UnsafePointer:
		return rv.IsNil()
	}
	return false
}
