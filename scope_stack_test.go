package formstate

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

type sampleSnapshot struct {
	Name   string
	Count  *int
	Labels map[string]string
}

func intPtr(v int) *int {
	return &v
}

func TestNewLayerClonesSnapshot(t *testing.T) {
	snapshot := sampleSnapshot{Name: "default", Count: intPtr(5), Labels: map[string]string{"env": "prod"}}

	layer := NewLayer(NewScope("global", ScopePriorityGlobal, WithScopeLabel("Global defaults")), snapshot)

	snapshot.Labels["env"] = "qa"
	if layer.Snapshot.Labels["env"] != "prod" {
		t.Fatalf("expected layer snapshot to remain immutable; got %q", layer.Snapshot.Labels["env"])
	}
	if layer.Scope.Label != "Global defaults" {
		t.Fatalf("label not set, got %q", layer.Scope.Label)
	}
}

func TestNewStackOrdersAndValidates(t *testing.T) {
	instance := NewLayer(NewScope("instance", ScopePriorityInstance), sampleSnapshot{Name: "instance"})
	fieldType := NewLayer(NewScope("type", ScopePriorityType), sampleSnapshot{Name: "type"})
	global := NewLayer(NewScope("global", ScopePriorityGlobal), sampleSnapshot{Name: "global"})

	stack, err := NewStack(global, instance, fieldType)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resolution, err := stack.Merge()
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	wantOrder := []string{"instance", "type", "global"}
	for i, layer := range resolution.Layers() {
		if layer.Scope.Name != wantOrder[i] {
			t.Fatalf("expected layer %d to be %q, got %q", i, wantOrder[i], layer.Scope.Name)
		}
	}

	if _, err := NewStack(instance, NewLayer(NewScope("instance", 50), sampleSnapshot{})); !errors.Is(err, ErrDuplicateScopeName) {
		t.Fatalf("expected duplicate scope name error, got %v", err)
	}
	if _, err := NewStack(
		NewLayer(NewScope("alpha", 100), sampleSnapshot{}),
		NewLayer(NewScope("beta", 100), sampleSnapshot{}),
	); !errors.Is(err, ErrPriorityOrder) {
		t.Fatalf("expected priority order error, got %v", err)
	}
	if _, err := NewStack(NewLayer(NewScope("", 1), sampleSnapshot{})); !errors.Is(err, ErrScopeNameRequired) {
		t.Fatalf("expected scope name error, got %v", err)
	}
}

func TestStackMergeStructSnapshots(t *testing.T) {
	stack, err := NewStack(
		NewLayer(NewScope("global", ScopePriorityGlobal), sampleSnapshot{
			Name:   "global",
			Count:  intPtr(3),
			Labels: map[string]string{"env": "prod"},
		}),
		NewLayer(NewScope("type", ScopePriorityType), sampleSnapshot{Count: intPtr(7)}),
		NewLayer(NewScope("instance", ScopePriorityInstance), sampleSnapshot{
			Name:   "instance",
			Labels: map[string]string{"team": "core"},
		}),
	)
	if err != nil {
		t.Fatalf("stack validation failed: %v", err)
	}

	merged, err := stack.Merge()
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if merged.Value.Name != "instance" {
		t.Fatalf("expected instance name to win, got %q", merged.Value.Name)
	}
	if merged.Value.Count == nil || *merged.Value.Count != 7 {
		t.Fatalf("expected Count pointer set to 7, got %+v", merged.Value.Count)
	}
	if merged.Value.Labels["env"] != "prod" || merged.Value.Labels["team"] != "core" {
		t.Fatalf("expected merged labels to combine maps, got %+v", merged.Value.Labels)
	}
}

func TestStackEmptyMergeFails(t *testing.T) {
	stack, err := NewStack[sampleSnapshot]()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stack.Len() != 0 {
		t.Fatalf("empty stack len expected 0, got %d", stack.Len())
	}
	if _, err := stack.Merge(); err == nil {
		t.Fatalf("expected merge to fail for empty stack")
	}
}

func TestResolutionTraceReportsProvenance(t *testing.T) {
	stack, err := NewStack(
		NewLayer(NewScope("global", ScopePriorityGlobal), sampleSnapshot{Name: "global", Count: intPtr(1)}),
		NewLayer(NewScope("instance", ScopePriorityInstance), sampleSnapshot{Name: "instance"}),
	)
	if err != nil {
		t.Fatalf("stack: %v", err)
	}
	resolution, err := stack.Merge()
	if err != nil {
		t.Fatalf("merge: %v", err)
	}

	trace, err := resolution.Trace("Count")
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	if len(trace.Layers) != 2 {
		t.Fatalf("expected two layers, got %d", len(trace.Layers))
	}
	if trace.Layers[0].Found {
		t.Fatalf("expected instance layer not to set Count")
	}
	winner, ok := trace.Winner()
	if !ok || winner.Scope.Name != "global" {
		t.Fatalf("expected global to win Count, got %+v", winner)
	}

	if _, err := resolution.Trace("Missing"); err == nil {
		t.Fatalf("expected unknown field to fail")
	}
	if _, err := resolution.Trace(""); err == nil {
		t.Fatalf("expected empty path to fail")
	}
}

func TestTraceToJSONReplacesUnencodableValues(t *testing.T) {
	trace := Trace{
		Path: "Coerce",
		Layers: []Provenance{
			{Scope: NewScope("type", ScopePriorityType), Path: "Coerce", Value: func() {}, Found: true},
		},
	}
	data, err := trace.ToJSON()
	if err != nil {
		t.Fatalf("to json: %v", err)
	}
	var decoded struct {
		Path   string `json:"path"`
		Layers []struct {
			Value any  `json:"value"`
			Found bool `json:"found"`
		} `json:"layers"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Layers[0].Value != "<func()>" {
		t.Fatalf("expected placeholder value, got %v", decoded.Layers[0].Value)
	}
}

func BenchmarkResolutionTrace(b *testing.B) {
	layers := make([]Layer[sampleSnapshot], 10)
	for i := range layers {
		name := fmt.Sprintf("layer_%d", i)
		layers[i] = NewLayer(NewScope(name, 100-i), sampleSnapshot{
			Name:   name,
			Count:  intPtr(i),
			Labels: map[string]string{"env": name},
		})
	}
	stack, err := NewStack(layers...)
	if err != nil {
		b.Fatalf("stack: %v", err)
	}
	resolution, err := stack.Merge()
	if err != nil {
		b.Fatalf("merge: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := resolution.Trace("Count"); err != nil {
			b.Fatalf("trace: %v", err)
		}
	}
}
