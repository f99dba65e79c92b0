// Package openapi renders form definitions as OpenAPI 3 schemas and checks
// form values against them.
package openapi

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/goliatone/go-formstate"
)

// Extension keys attached to generated schemas.
const (
	ExtensionKind      = "x-formstate-kind"
	ExtensionType      = "x-formstate-type"
	ExtensionMultiline = "x-formstate-multiline"
)

// Generator renders definitions with a fixed configuration.
type Generator struct {
	config generatorConfig
}

// NewGenerator constructs an OpenAPI schema generator.
func NewGenerator(opts ...GeneratorOption) Generator {
	return Generator{config: applyGeneratorOptions(opts)}
}

// Schema renders def as a standalone schema. Shared groups are inlined.
func (g Generator) Schema(def formstate.Definition) (*openapi3.Schema, error) {
	if err := formstate.ValidateDefinition(def); err != nil {
		return nil, err
	}
	b := schemaBuilder{config: g.config}
	return b.schema(def, "", "")
}

// Schema renders def with the default configuration.
func Schema(def formstate.Definition, opts ...GeneratorOption) (*openapi3.Schema, error) {
	return NewGenerator(opts...).Schema(def)
}

// ValidateValue checks a form value, e.g. FormStore.Value(), against schema.
func ValidateValue(schema *openapi3.Schema, value any) error {
	if schema == nil {
		return fmt.Errorf("openapi: schema is nil")
	}
	normalized, err := normalizeJSON(value)
	if err != nil {
		return err
	}
	return schema.VisitJSON(normalized, openapi3.MultiErrors())
}

// normalizeJSON maps Go values onto the JSON types the validator expects.
func normalizeJSON(value any) (any, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("openapi: encode value: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("openapi: decode value: %w", err)
	}
	return out, nil
}

type schemaBuilder struct {
	config   generatorConfig
	registry *componentRegistry
}

func (b schemaBuilder) schemaRef(def formstate.Definition, path, nameHint string) (*openapi3.SchemaRef, error) {
	group, ok := def.(*formstate.GroupDefinition)
	if !ok || !b.registry.shared(group) {
		schema, err := b.schema(def, path, nameHint)
		if err != nil {
			return nil, err
		}
		return openapi3.NewSchemaRef("", schema), nil
	}
	if ref, ok := b.registry.lookup(group); ok {
		return ref, nil
	}
	ref := b.registry.reserve(group, groupNameHint(group, nameHint))
	schema, err := b.schema(def, path, nameHint)
	if err != nil {
		return nil, err
	}
	b.registry.publish(group, schema)
	return openapi3.NewSchemaRef(ref, schema), nil
}

func (b schemaBuilder) schema(def formstate.Definition, path, nameHint string) (*openapi3.Schema, error) {
	switch typed := def.(type) {
	case *formstate.FieldDefinition:
		return b.fieldSchema(typed, path)
	case *formstate.GroupDefinition:
		return b.groupSchema(typed, path, nameHint)
	default:
		return nil, fmt.Errorf("openapi: unsupported definition %T", def)
	}
}

func (b schemaBuilder) groupSchema(def *formstate.GroupDefinition, path, nameHint string) (*openapi3.Schema, error) {
	schema := openapi3.NewObjectSchema()
	schema.Extensions = map[string]any{ExtensionKind: string(formstate.KindGroup)}
	if def.Options != nil {
		schema.Title = def.Options.Title
	}

	names := make([]string, 0, len(def.Properties))
	for name := range def.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		childPath := name
		if path != "" {
			childPath = path + "." + name
		}
		ref, err := b.schemaRef(def.Properties[name], childPath, combineComponentName(nameHint, name))
		if err != nil {
			return nil, err
		}
		schema.WithPropertyRef(name, ref)
	}
	if len(names) > 0 {
		schema.Required = names
	}
	return schema, nil
}

func (b schemaBuilder) fieldSchema(def *formstate.FieldDefinition, path string) (*openapi3.Schema, error) {
	options, err := formstate.ResolveFieldOptions(def.Type, def.Options, b.config.formOptions...)
	if err != nil {
		return nil, &formstate.DefinitionError{Path: path, Err: err}
	}

	schema := baseSchema(def.Type, options)
	schema.Title = options.Title
	if schema.Extensions == nil {
		schema.Extensions = map[string]any{}
	}
	schema.Extensions[ExtensionKind] = string(formstate.KindField)
	schema.Extensions[ExtensionType] = def.Type

	if options.Text != nil {
		if options.Text.MaxLength > 0 {
			schema.WithMaxLength(int64(options.Text.MaxLength))
		}
		if options.Text.Multiline {
			schema.Extensions[ExtensionMultiline] = true
		}
	}
	if options.Numeric != nil {
		if options.Numeric.MinValue != nil {
			schema.WithMin(*options.Numeric.MinValue)
		}
		if options.Numeric.MaxValue != nil {
			schema.WithMax(*options.Numeric.MaxValue)
		}
	}
	if options.Bool != nil && options.Bool.ThreeState {
		schema.WithNullable()
	}
	if options.InitialValue != nil {
		if normalized, err := normalizeJSON(options.InitialValue); err == nil {
			schema.Default = normalized
		}
	}
	return schema, nil
}

// baseSchema picks the JSON type from the built-in field types, falling back
// to the kind of the initial value for custom types.
func baseSchema(fieldType string, options *formstate.FieldStateOptions) *openapi3.Schema {
	switch fieldType {
	case "text":
		return openapi3.NewStringSchema()
	case "bool":
		return openapi3.NewBoolSchema()
	case "int":
		return openapi3.NewIntegerSchema()
	case "float":
		return openapi3.NewFloat64Schema()
	}
	if options == nil || options.InitialValue == nil {
		return &openapi3.Schema{}
	}
	switch reflect.ValueOf(options.InitialValue).Kind() {
	case reflect.String:
		return openapi3.NewStringSchema()
	case reflect.Bool:
		return openapi3.NewBoolSchema()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return openapi3.NewIntegerSchema()
	case reflect.Float32, reflect.Float64:
		return openapi3.NewFloat64Schema()
	case reflect.Slice, reflect.Array:
		return openapi3.NewArraySchema()
	case reflect.Map, reflect.Struct:
		return openapi3.NewObjectSchema()
	default:
		return &openapi3.Schema{}
	}
}

func groupNameHint(group *formstate.GroupDefinition, fallback string) string {
	if group.Options != nil && strings.TrimSpace(group.Options.Title) != "" {
		return group.Options.Title
	}
	return fallback
}

func combineComponentName(prefix, name string) string {
	if name == "" {
		return prefix
	}
	segment := strings.ToUpper(name[:1]) + name[1:]
	if prefix == "" {
		return segment
	}
	return prefix + segment
}
