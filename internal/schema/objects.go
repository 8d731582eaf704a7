package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/tatianab/saga/internal/models"
)

// ProbeLiteral is the only value accepted by the connection probe.
const ProbeLiteral = "saga"

// Object names a structured generation task and the JSON schema its
// output must satisfy.
type Object struct {
	Name   string
	Schema *jsonschema.Schema
}

// Decode validates raw backend output against the schema and unmarshals it
// into out. String values are trimmed before validation, so a blank name
// fails here rather than in the document. Failures wrap ErrBackendViolation.
func (o Object) Decode(raw []byte, out any) error {
	var instance any
	if err := json.Unmarshal([]byte(stripFences(string(raw))), &instance); err != nil {
		return o.violation("invalid json: %v", err)
	}
	instance = trimStrings(instance)

	resolved, err := o.Schema.Resolve(nil)
	if err != nil {
		return fmt.Errorf("resolve schema %s: %w", o.Name, err)
	}
	if err := resolved.Validate(instance); err != nil {
		return o.violation("%v", err)
	}
	trimmed, err := json.Marshal(instance)
	if err != nil {
		return o.violation("encode: %v", err)
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return o.violation("decode: %v", err)
	}
	return nil
}

func trimStrings(v any) any {
	switch v := v.(type) {
	case string:
		return strings.TrimSpace(v)
	case []any:
		for i := range v {
			v[i] = trimStrings(v[i])
		}
	case map[string]any:
		for k := range v {
			v[k] = trimStrings(v[k])
		}
	}
	return v
}

func (o Object) violation(format string, args ...any) *Error {
	return &Error{Path: o.Name, Reason: fmt.Sprintf(format, args...), kind: ErrBackendViolation}
}

// Some backends wrap JSON in a markdown code fence even in JSON mode.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func ptr[T any](v T) *T { return &v }

func text(max int) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", MinLength: ptr(1), MaxLength: ptr(max)}
}

func enum[T ~string](values []T) *jsonschema.Schema {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return &jsonschema.Schema{Type: "string", Enum: out}
}

func object(required []string, props map[string]*jsonschema.Schema) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "object", Properties: props, Required: required}
}

func exactly(n int, items *jsonschema.Schema) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "array", Items: items, MinItems: ptr(n), MaxItems: ptr(n)}
}

func list(items *jsonschema.Schema) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "array", Items: items}
}

func worldSchema() *jsonschema.Schema {
	return object([]string{"name", "description"}, map[string]*jsonschema.Schema{
		"name":        text(MaxNameLength),
		"description": text(MaxDescriptionLength),
	})
}

// Characters are generated without a location; the engine places them.
func characterSchema() *jsonschema.Schema {
	return object([]string{"name", "gender", "race", "biography"}, map[string]*jsonschema.Schema{
		"name":      text(MaxNameLength),
		"gender":    enum(models.Genders),
		"race":      enum(models.Races),
		"biography": text(MaxDescriptionLength),
	})
}

func locationSchema() *jsonschema.Schema {
	return object([]string{"name", "type", "description"}, map[string]*jsonschema.Schema{
		"name":        text(MaxNameLength),
		"type":        enum(models.LocationTypes),
		"description": text(MaxDescriptionLength),
	})
}

func itemSchema() *jsonschema.Schema {
	return object([]string{"name", "description"}, map[string]*jsonschema.Schema{
		"name":        text(MaxNameLength),
		"description": text(MaxDescriptionLength),
	})
}

// ConnectionProbe checks that a backend honors output constraints.
func ConnectionProbe() Object {
	return Object{Name: "connection_probe", Schema: &jsonschema.Schema{Type: "string", Enum: []any{ProbeLiteral}}}
}

func WorldObject() Object {
	return Object{Name: "world", Schema: worldSchema()}
}

func ProtagonistObject() Object {
	return Object{Name: "protagonist", Schema: characterSchema()}
}

func LocationObject() Object {
	return Object{Name: "location", Schema: locationSchema()}
}

// CharacterCount is the number of characters generated per location.
const CharacterCount = 5

func CharactersObject() Object {
	return Object{Name: "characters", Schema: exactly(CharacterCount, characterSchema())}
}

// InventoryChange is the result of the inventory check.
type InventoryChange struct {
	Gained []models.Item `json:"gained"`
	Lost   []models.Item `json:"lost"`
}

func InventoryChangeObject() Object {
	return Object{Name: "inventory_change", Schema: object([]string{"gained", "lost"}, map[string]*jsonschema.Schema{
		"gained": list(itemSchema()),
		"lost":   list(itemSchema()),
	})}
}

const (
	Yes = "yes"
	No  = "no"
)

func YesNoObject(name string) Object {
	return Object{Name: name, Schema: enum([]string{Yes, No})}
}

// NewLocation is the result of the new-location request.
type NewLocation struct {
	NewLocation            models.Location `json:"newLocation"`
	AccompanyingCharacters []string        `json:"accompanyingCharacters"`
}

// NewLocationObject restricts companions to the names of existing characters.
func NewLocationObject(characterNames []string) Object {
	companions := list(enum(characterNames))
	if len(characterNames) == 0 {
		companions = &jsonschema.Schema{Type: "array", MaxItems: ptr(0)}
	}
	return Object{Name: "new_location", Schema: object([]string{"newLocation", "accompanyingCharacters"}, map[string]*jsonschema.Schema{
		"newLocation":            locationSchema(),
		"accompanyingCharacters": companions,
	})}
}

// ActionCount is the number of suggested actions per turn.
const ActionCount = 3

func ActionsObject() Object {
	return Object{Name: "actions", Schema: exactly(ActionCount, text(MaxActionLength))}
}
