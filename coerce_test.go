package formstate

import (
	"math"
	"net/url"
	"testing"
)

func TestTextCoerceNilStringer(t *testing.T) {
	var link *url.URL
	if got := textCoerce(link, nil); got != "" {
		t.Fatalf("expected typed nil stringer to coerce to empty text, got %q", got)
	}
	if got := textCoerce(&url.URL{Scheme: "https", Host: "example.com"}, nil); got != "https://example.com" {
		t.Fatalf("expected stringer text, got %q", got)
	}
}

func TestIntCoerceNonFiniteInput(t *testing.T) {
	cases := []struct {
		name  string
		input any
		want  int
	}{
		{name: "nan string", input: "NaN", want: 0},
		{name: "nan float", input: math.NaN(), want: 0},
		{name: "positive infinity", input: "Inf", want: math.MaxInt},
		{name: "negative infinity", input: math.Inf(-1), want: math.MinInt},
		{name: "above range", input: 1e300, want: math.MaxInt},
		{name: "below range", input: -1e300, want: math.MinInt},
		{name: "rounds half away from zero", input: "2.5", want: 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := intCoerce(tc.input, nil); got != tc.want {
				t.Fatalf("intCoerce(%v) = %v, want %d", tc.input, got, tc.want)
			}
		})
	}
}

func TestIntCoerceClampsBeforeRounding(t *testing.T) {
	low, high := 0.0, 10.0
	state := &FieldState{Options: &FieldStateOptions{Numeric: &NumericOptions{MinValue: &low, MaxValue: &high}}}
	if got := intCoerce(math.Inf(1), state); got != 10 {
		t.Fatalf("expected clamp to max, got %v", got)
	}
}
