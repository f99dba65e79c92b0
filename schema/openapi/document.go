package openapi

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/goliatone/go-formstate"
)

// Document renders def as an OpenAPI document with one operation accepting
// the form value as request body. Groups used more than once are published
// under components/schemas and referenced.
func (g Generator) Document(def formstate.Definition) (*openapi3.T, error) {
	if err := formstate.ValidateDefinition(def); err != nil {
		return nil, err
	}

	b := schemaBuilder{config: g.config, registry: newComponentRegistry(def)}
	var root *openapi3.SchemaRef
	if name := strings.TrimSpace(g.config.rootComponent); name != "" {
		group, ok := def.(*formstate.GroupDefinition)
		if !ok {
			group = formstate.Group(formstate.Properties{})
		}
		ref := b.registry.reserve(group, name)
		schema, err := b.schema(def, "", name)
		if err != nil {
			return nil, err
		}
		b.registry.publish(group, schema)
		root = openapi3.NewSchemaRef(ref, schema)
	} else {
		ref, err := b.schemaRef(def, "", "Form")
		if err != nil {
			return nil, err
		}
		root = ref
	}

	doc := &openapi3.T{
		OpenAPI: g.config.openAPIVersion,
		Info: &openapi3.Info{
			Title:       g.config.info.Title,
			Version:     g.config.info.Version,
			Description: g.config.info.Description,
		},
		Paths: openapi3.NewPaths(),
	}
	if schemas := b.registry.schemas(); schemas != nil {
		doc.Components = &openapi3.Components{Schemas: schemas}
	}

	item := &openapi3.PathItem{}
	item.SetOperation(strings.ToUpper(g.method()), g.operation(root))
	doc.Paths.Set(g.config.operation.Path, item)
	return doc, nil
}

// Document renders def with the default configuration.
func Document(def formstate.Definition, opts ...GeneratorOption) (*openapi3.T, error) {
	return NewGenerator(opts...).Document(def)
}

func (g Generator) operation(root *openapi3.SchemaRef) *openapi3.Operation {
	body := openapi3.NewRequestBody().
		WithRequired(true).
		WithContent(openapi3.NewContentWithSchemaRef(root, []string{g.config.contentType}))

	statuses := make([]string, 0, len(g.config.responses))
	for status := range g.config.responses {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)
	responses := openapi3.NewResponsesWithCapacity(len(statuses))
	for _, status := range statuses {
		description := g.config.responses[status].Description
		responses.Set(status, &openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription(description)})
	}

	operation := &openapi3.Operation{
		OperationID: g.operationID(),
		Summary:     strings.TrimSpace(g.config.operation.Summary),
		RequestBody: &openapi3.RequestBodyRef{Value: body},
		Responses:   responses,
	}
	return operation
}

func (g Generator) method() string {
	method := strings.ToLower(g.config.operation.Method)
	if method == "" {
		method = strings.ToLower(http.MethodPost)
	}
	return method
}

func (g Generator) operationID() string {
	if g.config.operation.OperationID != "" {
		return g.config.operation.OperationID
	}
	return fmt.Sprintf("%s:%s", g.method(), g.config.operation.Path)
}

// Validate builds the document for def and validates it with kin-openapi.
func (g Generator) Validate(ctx context.Context, def formstate.Definition) error {
	doc, err := g.Document(def)
	if err != nil {
		return err
	}
	return doc.Validate(ctx)
}
