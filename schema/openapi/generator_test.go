package openapi

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/goliatone/go-formstate"
	"github.com/google/go-cmp/cmp"
)

func floatPtr(v float64) *float64 {
	return &v
}

func profileDefinition() *formstate.GroupDefinition {
	address := formstate.Group(formstate.Properties{
		"city": formstate.Field("text", formstate.FieldOptions{Text: &formstate.TextOptions{MaxLength: 20}}),
	}, formstate.GroupOptions{Title: "Address"})

	return formstate.Group(formstate.Properties{
		"name":     formstate.Field("text", formstate.FieldOptions{Title: "Name", Text: &formstate.TextOptions{Multiline: true}}),
		"age":      formstate.Field("int", formstate.FieldOptions{InitialValue: 18, Numeric: &formstate.NumericOptions{MinValue: floatPtr(0), MaxValue: floatPtr(130)}}),
		"consent":  formstate.Field("bool", formstate.FieldOptions{Bool: &formstate.BoolOptions{ThreeState: true}}),
		"billing":  address,
		"shipping": address,
	}, formstate.GroupOptions{Title: "Profile"})
}

func TestNewGeneratorOptions(t *testing.T) {
	custom := NewGenerator(
		WithOpenAPIVersion("3.1.0"),
		WithInfo("Custom Forms", "2.0.0", WithInfoDescription("custom schema")),
		WithOperation("/profile", "PUT", "updateProfile", WithOperationSummary("Update profile")),
		WithContentType("application/x-www-form-urlencoded"),
		WithResponse("201", "Created"),
	)

	if got := custom.config.openAPIVersion; got != "3.1.0" {
		t.Fatalf("expected openapi version 3.1.0, got %q", got)
	}
	if got := custom.config.info.Title; got != "Custom Forms" {
		t.Fatalf("expected info title Custom Forms, got %q", got)
	}
	if got := custom.config.info.Description; got != "custom schema" {
		t.Fatalf("expected info description, got %q", got)
	}
	if got := custom.config.operation.Method; got != "put" {
		t.Fatalf("expected method put, got %q", got)
	}
	if got := custom.config.operation.Summary; got != "Update profile" {
		t.Fatalf("expected operation summary, got %q", got)
	}
	if got := custom.config.contentType; got != "application/x-www-form-urlencoded" {
		t.Fatalf("unexpected content type %q", got)
	}
	if got := custom.config.responses["201"].Description; got != "Created" {
		t.Fatalf("expected response description Created, got %q", got)
	}
	if _, exists := custom.config.responses["204"]; !exists {
		t.Fatalf("expected default 204 response to remain configured")
	}
}

func TestSchemaMapsFieldTypes(t *testing.T) {
	schema, err := Schema(profileDefinition())
	if err != nil {
		t.Fatalf("schema: %v", err)
	}

	if schema.Title != "Profile" || !schema.Type.Is("object") {
		t.Fatalf("unexpected root schema %q %v", schema.Title, schema.Type)
	}
	if diff := cmp.Diff([]string{"age", "billing", "consent", "name", "shipping"}, schema.Required); diff != "" {
		t.Fatalf("required mismatch (-want +got):\n%s", diff)
	}

	age := schema.Properties["age"].Value
	if !age.Type.Is("integer") || age.Min == nil || *age.Min != 0 || age.Max == nil || *age.Max != 130 {
		t.Fatalf("unexpected age schema %+v", age)
	}
	if age.Default != float64(18) {
		t.Fatalf("expected JSON default 18, got %#v", age.Default)
	}

	name := schema.Properties["name"].Value
	if !name.Type.Is("string") || name.Title != "Name" || name.Extensions[ExtensionMultiline] != true {
		t.Fatalf("unexpected name schema %+v", name)
	}

	consent := schema.Properties["consent"].Value
	if !consent.Type.Is("boolean") || !consent.Nullable {
		t.Fatalf("expected nullable boolean, got %+v", consent)
	}

	city := schema.Properties["billing"].Value.Properties["city"].Value
	if city.MaxLength == nil || *city.MaxLength != 20 {
		t.Fatalf("expected maxLength 20, got %+v", city.MaxLength)
	}
	if schema.Properties["billing"].Ref != "" {
		t.Fatalf("expected standalone schema to inline shared groups")
	}
}

func TestSchemaCustomFieldTypes(t *testing.T) {
	def := formstate.Field("tags", formstate.FieldOptions{InitialValue: []string{"go"}})
	if _, err := Schema(def); err == nil {
		t.Fatalf("expected unknown type to fail without form options")
	}

	schema, err := Schema(def, WithFormOptions(formstate.WithFieldType("tags", formstate.FieldOptions{})))
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	if !schema.Type.Is("array") || schema.Extensions[ExtensionType] != "tags" {
		t.Fatalf("expected array schema from the initial value, got %+v", schema)
	}
}

func TestDocumentPublishesSharedGroups(t *testing.T) {
	doc, err := Document(profileDefinition(), WithInfo("Profile API", "1.2.0"))
	if err != nil {
		t.Fatalf("document: %v", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		t.Fatalf("validate: %v", err)
	}

	if doc.Components == nil || doc.Components.Schemas["Address"] == nil {
		t.Fatalf("expected Address component, got %+v", doc.Components)
	}

	item := doc.Paths.Find("/form")
	if item == nil || item.Post == nil {
		t.Fatalf("expected POST /form operation")
	}
	if item.Post.OperationID != "post:/form" {
		t.Fatalf("unexpected operation id %q", item.Post.OperationID)
	}
	root := item.Post.RequestBody.Value.Content.Get("application/json").Schema.Value
	for _, name := range []string{"billing", "shipping"} {
		if ref := root.Properties[name].Ref; ref != "#/components/schemas/Address" {
			t.Fatalf("expected %s to reference Address, got %q", name, ref)
		}
	}

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["openapi"] != "3.0.3" {
		t.Fatalf("unexpected openapi version %v", decoded["openapi"])
	}
}

func TestDocumentRootComponent(t *testing.T) {
	gen := NewGenerator(WithRootComponent("Profile"), WithOperation("/profiles", "put", ""))
	if err := gen.Validate(context.Background(), profileDefinition()); err != nil {
		t.Fatalf("validate: %v", err)
	}
	doc, err := gen.Document(profileDefinition())
	if err != nil {
		t.Fatalf("document: %v", err)
	}
	item := doc.Paths.Find("/profiles")
	if item == nil || item.Put == nil {
		t.Fatalf("expected PUT /profiles operation")
	}
	if item.Put.OperationID != "put:/profiles" {
		t.Fatalf("unexpected operation id %q", item.Put.OperationID)
	}
	if ref := item.Put.RequestBody.Value.Content.Get("application/json").Schema.Ref; ref != "#/components/schemas/Profile" {
		t.Fatalf("expected root reference, got %q", ref)
	}
}

func TestValidateValueAgainstStore(t *testing.T) {
	def := profileDefinition()
	schema, err := Schema(def)
	if err != nil {
		t.Fatalf("schema: %v", err)
	}

	store, err := formstate.CreateGroupStore(def, formstate.WithChildValuePropagation())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	defer store.Close()

	if err := ValidateValue(schema, store.Value()); err != nil {
		t.Fatalf("expected initial value to match, got %v", err)
	}

	age, _ := store.Field("age")
	age.Dispatch(formstate.Update(-5))
	if err := ValidateValue(schema, store.Value()); err == nil {
		t.Fatalf("expected uncoerced negative age to be rejected")
	}

	if err := ValidateValue(schema, map[string]any{"name": "x"}); err == nil {
		t.Fatalf("expected missing properties to be rejected")
	}
	if err := ValidateValue(nil, nil); err == nil {
		t.Fatalf("expected nil schema to fail")
	}
}
