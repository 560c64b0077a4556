package signals

import "reflect"

// defaultEquals reports whether two values are the same under Go's native
// equality. Comparable values use ==, so pointers compare by identity and NaN
// never equals itself. Values that are not comparable (slices, maps, funcs and
// structs containing them) fall back to reflect.DeepEqual.
func defaultEquals[T any](a, b T) bool {
	switch av := any(a).(type) {
	case int:
		bv, ok := any(b).(int)
		return ok && av == bv
	case int64:
		bv, ok := any(b).(int64)
		return ok && av == bv
	case uint64:
		bv, ok := any(b).(uint64)
		return ok && av == bv
	case float64:
		bv, ok := any(b).(float64)
		return ok && av == bv
	case string:
		bv, ok := any(b).(string)
		return ok && av == bv
	case bool:
		bv, ok := any(b).(bool)
		return ok && av == bv
	}

	va := reflect.ValueOf(&a).Elem()
	vb := reflect.ValueOf(&b).Elem()
	if va.Comparable() && vb.Comparable() {
		return va.Equal(vb)
	}
	return reflect.DeepEqual(a, b)
}
