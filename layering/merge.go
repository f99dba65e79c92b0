package layering

import (
	"reflect"
	"strings"
)

// TagName is the struct tag consulted by MergeLayers. A slice field tagged
// `layering:"append"` is concatenated across layers (weakest first) instead of
// being replaced by the strongest non-nil layer.
const TagName = "layering"

const tagAppend = "append"

// MergeLayers composes snapshots ordered from strongest to weakest, returning a
// new value that keeps explicit settings from stronger layers while filling any
// missing data from weaker ones. Zero scalars, nil pointers, nil funcs, nil
// interfaces and nil maps/slices count as missing. Non-nil pointers to
// structs merge field by field; other non-nil pointers win as a whole.
func MergeLayers[T any](layers ...T) T {
	var zero T
	if len(layers) == 0 {
		return zero
	}

	merged := cloneValue(reflect.ValueOf(layers[len(layers)-1]))
	for i := len(layers) - 2; i >= 0; i-- {
		merged = mergeValue(reflect.ValueOf(layers[i]), merged)
	}

	if !merged.IsValid() {
		return zero
	}
	typ := reflect.TypeOf(zero)
	if typ == nil {
		return merged.Interface().(T)
	}
	if merged.Type() != typ {
		result := reflect.New(typ).Elem()
		result.Set(merged.Convert(typ))
		return result.Interface().(T)
	}
	return merged.Interface().(T)
}

// Clone returns a deep copy of value. Funcs are copied by reference. Structs
// with unexported fields, and pointers to them, are opaque: they are copied
// as plain values (or shared, for pointers) rather than rebuilt field by field.
func Clone[T any](value T) T {
	var zero T
	cloned := cloneValue(reflect.ValueOf(value))
	if !cloned.IsValid() {
		return zero
	}
	typ := reflect.TypeOf(zero)
	if typ == nil {
		return cloned.Interface().(T)
	}
	if cloned.Type() != typ {
		return cloned.Convert(typ).Interface().(T)
	}
	return cloned.Interface().(T)
}

func mergeValue(strong, weak reflect.Value) reflect.Value {
	if !strong.IsValid() {
		return cloneValue(weak)
	}

	switch strong.Kind() {
	case reflect.Pointer:
		if strong.IsNil() {
			return fallback(weak, strong.Type())
		}
		if opaque(strong.Type().Elem()) {
			return strong
		}
		// A set pointer to a non-struct is explicit, even when it points at zero.
		if strong.Type().Elem().Kind() != reflect.Struct {
			return cloneValue(strong)
		}
		var weakElem reflect.Value
		if weak.IsValid() && weak.Kind() == reflect.Pointer && !weak.IsNil() {
			weakElem = weak.Elem()
		}
		merged := mergeValue(strong.Elem(), weakElem)
		result := reflect.New(strong.Type().Elem())
		result.Elem().Set(merged)
		return result
	case reflect.Interface:
		// Interface values are opaque: a non-nil stronger value wins as a whole.
		if strong.IsNil() {
			return fallback(weak, strong.Type())
		}
		return cloneValue(strong)
	case reflect.Func:
		if strong.IsNil() {
			return fallback(weak, strong.Type())
		}
		return strong
	case reflect.Struct:
		if opaque(strong.Type()) {
			if strong.IsZero() && weak.IsValid() && weak.Type() == strong.Type() {
				return plainCopy(weak)
			}
			return plainCopy(strong)
		}
		result := reflect.New(strong.Type()).Elem()
		var weakStruct reflect.Value
		if weak.IsValid() && weak.Type() == strong.Type() {
			weakStruct = weak
		}
		structType := strong.Type()
		for i := 0; i < strong.NumField(); i++ {
			field := result.Field(i)
			if !field.CanSet() {
				continue
			}
			var weakField reflect.Value
			if weakStruct.IsValid() {
				weakField = weakStruct.Field(i)
			}
			var merged reflect.Value
			if hasTagOption(structType.Field(i), tagAppend) && strong.Field(i).Kind() == reflect.Slice {
				merged = appendValue(strong.Field(i), weakField)
			} else {
				merged = mergeValue(strong.Field(i), weakField)
			}
			if merged.IsValid() {
				field.Set(merged)
			}
		}
		return result
	case reflect.Map:
		if strong.IsNil() {
			return fallback(weak, strong.Type())
		}
		result := reflect.MakeMapWithSize(strong.Type(), strong.Len())
		if weak.IsValid() && weak.Kind() == reflect.Map && !weak.IsNil() {
			iter := weak.MapRange()
			for iter.Next() {
				result.SetMapIndex(iter.Key(), cloneValue(iter.Value()))
			}
		}
		iter := strong.MapRange()
		for iter.Next() {
			key := iter.Key()
			value := iter.Value()
			existing := result.MapIndex(key)
			if existing.IsValid() {
				result.SetMapIndex(key, mergeValue(value, existing))
				continue
			}
			result.SetMapIndex(key, cloneValue(value))
		}
		return result
	case reflect.Slice:
		if strong.IsNil() {
			return fallback(weak, strong.Type())
		}
		return cloneValue(strong)
	case reflect.Array:
		result := reflect.New(strong.Type()).Elem()
		for i := 0; i < strong.Len(); i++ {
			var weakElem reflect.Value
			if weak.IsValid() && weak.Kind() == reflect.Array && weak.Len() > i {
				weakElem = weak.Index(i)
			}
			result.Index(i).Set(mergeValue(strong.Index(i), weakElem))
		}
		return result
	default:
		if strong.IsZero() && weak.IsValid() && weak.Type() == strong.Type() {
			return cloneValue(weak)
		}
		return cloneValue(strong)
	}
}

// appendValue concatenates weak followed by strong so that the final order of
// a fully merged stack runs weakest to strongest.
func appendValue(strong, weak reflect.Value) reflect.Value {
	total := strong.Len()
	if weak.IsValid() && weak.Kind() == reflect.Slice {
		total += weak.Len()
	}
	if total == 0 {
		if strong.IsNil() {
			return fallback(weak, strong.Type())
		}
		return reflect.MakeSlice(strong.Type(), 0, 0)
	}
	result := reflect.MakeSlice(strong.Type(), 0, total)
	if weak.IsValid() && weak.Kind() == reflect.Slice {
		for i := 0; i < weak.Len(); i++ {
			result = reflect.Append(result, cloneValue(weak.Index(i)))
		}
	}
	for i := 0; i < strong.Len(); i++ {
		result = reflect.Append(result, cloneValue(strong.Index(i)))
	}
	return result
}

func fallback(weak reflect.Value, typ reflect.Type) reflect.Value {
	if weak.IsValid() && weak.Type() == typ {
		return cloneValue(weak)
	}
	return reflect.Zero(typ)
}

func hasTagOption(field reflect.StructField, option string) bool {
	tag, ok := field.Tag.Lookup(TagName)
	if !ok {
		return false
	}
	for _, part := range strings.Split(tag, ",") {
		if strings.TrimSpace(part) == option {
			return true
		}
	}
	return false
}

func cloneValue(v reflect.Value) reflect.Value {
	if !v.IsValid() {
		return v
	}

	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		if opaque(v.Type().Elem()) {
			return v
		}
		clone := reflect.New(v.Type().Elem())
		clone.Elem().Set(cloneValue(v.Elem()))
		return clone
	case reflect.Interface:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		elem := cloneValue(v.Elem())
		if !elem.IsValid() {
			return reflect.Zero(v.Type())
		}
		return elem.Convert(v.Type())
	case reflect.Struct:
		if opaque(v.Type()) {
			return plainCopy(v)
		}
		clone := reflect.New(v.Type()).Elem()
		for i := 0; i < v.NumField(); i++ {
			field := clone.Field(i)
			if !field.CanSet() {
				continue
			}
			field.Set(cloneValue(v.Field(i)))
		}
		return clone
	case reflect.Map:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			clone.SetMapIndex(iter.Key(), cloneValue(iter.Value()))
		}
		return clone
	case reflect.Slice:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			clone.Index(i).Set(cloneValue(v.Index(i)))
		}
		return clone
	case reflect.Array:
		clone := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			clone.Index(i).Set(cloneValue(v.Index(i)))
		}
		return clone
	default:
		return plainCopy(v)
	}
}

// opaque reports whether typ is a struct with unexported fields. Such values
// (time.Time, big.Int, url.URL) cannot be rebuilt through reflection.
func opaque(typ reflect.Type) bool {
	if typ.Kind() != reflect.Struct {
		return false
	}
	for i := 0; i < typ.NumField(); i++ {
		if !typ.Field(i).IsExported() {
			return true
		}
	}
	return false
}

func plainCopy(v reflect.Value) reflect.Value {
	out := reflect.New(v.Type()).Elem()
	out.Set(v)
	return out
}
