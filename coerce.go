package formstate

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

func identityCoerce(value any, _ *FieldState) any {
	return value
}

func defaultAreEqual(value, oldValue any, _ *FieldState) bool {
	return reflect.DeepEqual(value, oldValue)
}

func isEmptyValue(value any, _ *FieldState) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.String, reflect.Map, reflect.Slice, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	default:
		return rv.IsZero()
	}
}

func textCoerce(value any, state *FieldState) any {
	var text string
	switch typed := value.(type) {
	case nil:
	case string:
		text = typed
	case fmt.Stringer:
		if rv := reflect.ValueOf(typed); rv.Kind() == reflect.Pointer && rv.IsNil() {
			break
		}
		text = typed.String()
	default:
		text = fmt.Sprint(typed)
	}
	if state != nil && state.Options != nil && state.Options.Text != nil && state.Options.Text.MaxLength > 0 {
		if runes := []rune(text); len(runes) > state.Options.Text.MaxLength {
			text = string(runes[:state.Options.Text.MaxLength])
		}
	}
	return text
}

func boolCoerce(value any, _ *FieldState) any {
	switch typed := value.(type) {
	case nil:
		return false
	case bool:
		return typed
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(typed))
		if err != nil {
			return typed != ""
		}
		return parsed
	default:
		return !reflect.ValueOf(value).IsZero()
	}
}

func intCoerce(value any, state *FieldState) any {
	f, ok := toFloat(value)
	if !ok {
		return 0
	}
	return roundToInt(clamp(f, numericOptions(state)))
}

// roundToInt saturates at the int range; NaN maps to 0.
func roundToInt(f float64) int {
	f = math.Round(f)
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt:
		return math.MaxInt
	case f <= math.MinInt:
		return math.MinInt
	default:
		return int(f)
	}
}

func floatCoerce(value any, state *FieldState) any {
	f, ok := toFloat(value)
	if !ok {
		return 0.0
	}
	numeric := numericOptions(state)
	f = clamp(f, numeric)
	if numeric != nil && numeric.Precision != nil && *numeric.Precision >= 0 {
		scale := math.Pow(10, float64(*numeric.Precision))
		f = math.Round(f*scale) / scale
	}
	return f
}

func numericOptions(state *FieldState) *NumericOptions {
	if state == nil || state.Options == nil {
		return nil
	}
	return state.Options.Numeric
}

func clamp(f float64, numeric *NumericOptions) float64 {
	if numeric == nil {
		return f
	}
	if numeric.MinValue != nil && f < *numeric.MinValue {
		f = *numeric.MinValue
	}
	if numeric.MaxValue != nil && f > *numeric.MaxValue {
		f = *numeric.MaxValue
	}
	return f
}

func toFloat(value any) (float64, bool) {
	switch typed := value.(type) {
	case nil:
		return 0, false
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		return f, err == nil
	case bool:
		if typed {
			return 1, true
		}
		return 0, true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}
