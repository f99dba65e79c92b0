package formstate

import (
	"sort"
	"strings"
)

// FieldDescriptor describes one node of a definition tree.
type FieldDescriptor struct {
	Path  string `json:"path"`
	Kind  Kind   `json:"kind"`
	Type  string `json:"type,omitempty"`
	Title string `json:"title,omitempty"`
}

// Describe flattens def into descriptors sorted by path. Groups are listed
// too; the root group has an empty path.
func Describe(def Definition) ([]FieldDescriptor, error) {
	if err := ValidateDefinition(def); err != nil {
		return nil, err
	}
	var descriptors []FieldDescriptor
	collectDescriptors(def, "", &descriptors)
	sort.Slice(descriptors, func(i, j int) bool {
		return descriptors[i].Path < descriptors[j].Path
	})
	return descriptors, nil
}

func collectDescriptors(def Definition, path string, out *[]FieldDescriptor) {
	switch typed := def.(type) {
	case *FieldDefinition:
		descriptor := FieldDescriptor{Path: path, Kind: KindField, Type: typed.Type}
		if typed.Options != nil {
			descriptor.Title = typed.Options.Title
		}
		*out = append(*out, descriptor)
	case *GroupDefinition:
		descriptor := FieldDescriptor{Path: path, Kind: KindGroup}
		if typed.Options != nil {
			descriptor.Title = typed.Options.Title
		}
		*out = append(*out, descriptor)
		for _, name := range sortedNames(typed.Properties) {
			collectDescriptors(typed.Properties[name], joinPath(path, name), out)
		}
	}
}

func joinPath(prefix, segment string) string {
	if prefix == "" {
		return segment
	}
	return strings.Join([]string{prefix, segment}, ".")
}

func splitPath(path string) []string {
	path = strings.Trim(strings.TrimSpace(path), ".")
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}
