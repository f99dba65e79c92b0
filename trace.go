package formstate

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// Trace captures which layers set a given option path.
type Trace struct {
	Path   string       `json:"path"`
	Layers []Provenance `json:"layers"`
}

// Provenance details how a single scope contributed to a traced path.
type Provenance struct {
	Scope Scope  `json:"scope"`
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
	Found bool   `json:"found"`
}

// ToJSON serialises the trace for logging.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	layers := make([]Provenance, len(t.Layers))
	for i, layer := range t.Layers {
		layers[i] = layer
		if _, err := json.Marshal(layer.Value); err != nil {
			layers[i].Value = fmt.Sprintf("<%T>", layer.Value)
		}
	}
	out := alias(t)
	out.Layers = layers
	return json.Marshal(out)
}

// Winner returns the strongest layer that set the path.
func (t Trace) Winner() (Provenance, bool) {
	for _, layer := range t.Layers {
		if layer.Found {
			return layer, true
		}
	}
	return Provenance{}, false
}

// Trace looks up a dotted struct field path in every layer, strongest first.
func (r *Resolution[T]) Trace(path string) (Trace, error) {
	trace := Trace{Path: path}
	if r == nil {
		return trace, nil
	}
	if _, _, err := lookupPath(reflect.ValueOf(r.Value), path); err != nil {
		return trace, err
	}
	for _, layer := range r.layers {
		value, found, _ := lookupPath(reflect.ValueOf(layer.Snapshot), path)
		trace.Layers = append(trace.Layers, Provenance{
			Scope: layer.Scope,
			Path:  path,
			Value: value,
			Found: found,
		})
	}
	return trace, nil
}

func lookupPath(root reflect.Value, path string) (any, bool, error) {
	if path == "" {
		return nil, false, fmt.Errorf("formstate: trace path must not be empty")
	}
	current := root
	for _, segment := range strings.Split(path, ".") {
		for current.IsValid() && current.Kind() == reflect.Pointer {
			if current.IsNil() {
				return nil, false, nil
			}
			current = current.Elem()
		}
		if !current.IsValid() || current.Kind() != reflect.Struct {
			return nil, false, fmt.Errorf("formstate: trace path %q: %q is not a struct field", path, segment)
		}
		field, ok := current.Type().FieldByName(segment)
		if !ok || !field.IsExported() {
			return nil, false, fmt.Errorf("formstate: trace path %q: unknown field %q", path, segment)
		}
		current = current.FieldByIndex(field.Index)
	}
	if !current.IsValid() || current.IsZero() {
		return nil, false, nil
	}
	return current.Interface(), true, nil
}
