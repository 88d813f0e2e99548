package state

import (
	"math"
	"reflect"
)

// DeeplyEqual compares values structurally. Numbers, strings and booleans compare by value,
// with NaN equal to NaN when allowNaNEqual is set. Slices and arrays compare element-wise,
// pointers by what they point to. Maps walk the keys of a only, so keys present only in b
// are not inspected. Types with an Equal(T) bool method are compared with it.
func DeeplyEqual(a, b any, allowNaNEqual bool) bool {
	return deepEqual(reflect.ValueOf(a), reflect.ValueOf(b), allowNaNEqual)
}

func deepEqual(a, b reflect.Value, nan bool) bool {
	if !a.IsValid() || !b.IsValid() {
		return a.IsValid() == b.IsValid()
	}
	if a.Kind() == reflect.Interface && !a.IsNil() {
		a = a.Elem()
	}
	if b.Kind() == reflect.Interface && !b.IsNil() {
		b = b.Elem()
	}
	if a.Type() != b.Type() {
		return false
	}
	if eq, ok := equalMethod(a, b); ok {
		return eq
	}

	switch a.Kind() {
	case reflect.Pointer:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() == b.IsNil()
		}
		if a.Pointer() == b.Pointer() {
			return true
		}
		return deepEqual(a.Elem(), b.Elem(), nan)
	case reflect.Interface:
		return a.IsNil() == b.IsNil()
	case reflect.Float32, reflect.Float64:
		fa, fb := a.Float(), b.Float()
		if math.IsNaN(fa) && math.IsNaN(fb) {
			return nan
		}
		return fa == fb
	case reflect.Complex64, reflect.Complex128:
		return a.Complex() == b.Complex()
	case reflect.Bool:
		return a.Bool() == b.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return a.Int() == b.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return a.Uint() == b.Uint()
	case reflect.String:
		return a.String() == b.String()
	case reflect.Slice, reflect.Array:
		if a.Len() != b.Len() {
			return false
		}
		for i := range a.Len() {
			if !deepEqual(a.Index(i), b.Index(i), nan) {
				return false
			}
		}
		return true
	case reflect.Map:
		iter := a.MapRange()
		for iter.Next() {
			bv := b.MapIndex(iter.Key())
			if !bv.IsValid() {
				return false
			}
			if !deepEqual(iter.Value(), bv, nan) {
				return false
			}
		}
		return true
	case reflect.Struct:
		for i := range a.NumField() {
			if !deepEqual(a.Field(i), b.Field(i), nan) {
				return false
			}
		}
		return true
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return a.Pointer() == b.Pointer()
	default:
		return false
	}
}

// equalMethod calls a.Equal(b) when the type has an Equal(T) bool method
func equalMethod(a, b reflect.Value) (equal, ok bool) {
	if !a.CanInterface() || !b.CanInterface() {
		return false, false
	}
	if a.Kind() == reflect.Pointer && a.IsNil() {
		return false, false
	}
	m := a.MethodByName("Equal")
	if !m.IsValid() {
		return false, false
	}
	mt := m.Type()
	if mt.NumIn() != 1 || mt.In(0) != a.Type() || mt.NumOut() != 1 || mt.Out(0).Kind() != reflect.Bool {
		return false, false
	}
	return m.Call([]reflect.Value{b})[0].Bool(), true
}

// ChangedFields returns the new value of every field that differs between before and after
func ChangedFields(before, after State) map[Field]any {
	res := map[Field]any{}
	for _, f := range Fields {
		if !DeeplyEqual(after.Value(f), before.Value(f), true) {
			res[f] = after.Value(f)
		}
	}
	return res
}
