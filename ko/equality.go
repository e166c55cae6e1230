package ko

import "reflect"

// PrimitiveEqual is the default equality comparer. Booleans, numbers and
// strings compare by value and two nils are equal. Every other value,
// including pointers, slices, maps and structs, is always different, so
// writing one always notifies.
func PrimitiveEqual[T any](a, b T) bool {
	av, bv := any(a), any(b)
	if av == nil || bv == nil {
		return av == nil && bv == nil
	}

	switch reflect.TypeOf(av).Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128,
		reflect.String:
		return av == bv
	default:
		return false
	}
}

// StrictEqual compares with ==. Use it to suppress notifications for
// comparable structs.
func StrictEqual[T comparable](a, b T) bool {
	return a == b
}
