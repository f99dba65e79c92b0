package openapi

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/goliatone/go-formstate"
)

// componentRegistry publishes group definitions that appear more than once
// in a tree under components/schemas.
type componentRegistry struct {
	counts    map[*formstate.GroupDefinition]int
	entries   map[*formstate.GroupDefinition]*componentEntry
	usedNames map[string]struct{}
}

type componentEntry struct {
	name   string
	schema *openapi3.Schema
}

func newComponentRegistry(root formstate.Definition) *componentRegistry {
	r := &componentRegistry{
		counts:    map[*formstate.GroupDefinition]int{},
		entries:   map[*formstate.GroupDefinition]*componentEntry{},
		usedNames: map[string]struct{}{},
	}
	r.count(root)
	return r
}

func (r *componentRegistry) count(def formstate.Definition) {
	group, ok := def.(*formstate.GroupDefinition)
	if !ok || group == nil {
		return
	}
	r.counts[group]++
	if r.counts[group] > 1 {
		return
	}
	for _, child := range group.Properties {
		r.count(child)
	}
}

func (r *componentRegistry) shared(group *formstate.GroupDefinition) bool {
	return r != nil && r.counts[group] > 1
}

// lookup returns a reference to an already published group. The schema is
// attached so the reference resolves without a loader.
func (r *componentRegistry) lookup(group *formstate.GroupDefinition) (*openapi3.SchemaRef, bool) {
	if r == nil {
		return nil, false
	}
	entry, ok := r.entries[group]
	if !ok {
		return nil, false
	}
	return openapi3.NewSchemaRef(componentRef(entry.name), entry.schema), true
}

// reserve names a component before its schema is built.
func (r *componentRegistry) reserve(group *formstate.GroupDefinition, nameHint string) string {
	entry := &componentEntry{name: r.uniqueName(nameHint)}
	r.entries[group] = entry
	return componentRef(entry.name)
}

func (r *componentRegistry) publish(group *formstate.GroupDefinition, schema *openapi3.Schema) {
	if entry, ok := r.entries[group]; ok {
		entry.schema = schema
	}
}

func (r *componentRegistry) schemas() openapi3.Schemas {
	if r == nil || len(r.entries) == 0 {
		return nil
	}
	out := make(openapi3.Schemas, len(r.entries))
	for _, entry := range r.entries {
		schema := entry.schema
		if schema == nil {
			schema = openapi3.NewObjectSchema()
		}
		out[entry.name] = openapi3.NewSchemaRef("", schema)
	}
	return out
}

func (r *componentRegistry) uniqueName(name string) string {
	safe := sanitizeComponentName(name)
	if safe == "" {
		safe = "Group"
	}
	if _, exists := r.usedNames[safe]; !exists {
		r.usedNames[safe] = struct{}{}
		return safe
	}
	suffix := 1
	for {
		candidate := fmt.Sprintf("%s%d", safe, suffix)
		if _, exists := r.usedNames[candidate]; !exists {
			r.usedNames[candidate] = struct{}{}
			return candidate
		}
		suffix++
	}
}

func componentRef(name string) string {
	return "#/components/schemas/" + name
}

var componentNameRegexp = regexp.MustCompile(`[^a-zA-Z0-9_]+`)

func sanitizeComponentName(name string) string {
	name = componentNameRegexp.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_")
	if name == "" {
		return ""
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "_" + name
	}
	return name
}
