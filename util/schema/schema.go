// Package schema provides utilities for generating MCP tool input schemas from
// Go structs and for validating tool arguments against them.
package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/localrivet/iotmcp/protocol"
	"github.com/localrivet/iotmcp/util/conversion"
	"github.com/localrivet/iotmcp/util/validator"
	"github.com/mitchellh/mapstructure"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// goTypeToMCPType maps Go kinds to MCP schema types. Interfaces map to the
// empty type, which accepts any JSON value.
func goTypeToMCPType(kind reflect.Kind) string {
	switch kind {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	case reflect.Interface:
		return ""
	default:
		return "string"
	}
}

// FromStruct generates a protocol.ToolInputSchema from struct tags.
//
// The property name comes from the json tag. A field is required when it is
// tagged required:"true"; without that tag, non-pointer fields are required
// unless their json tag carries omitempty. The description and enum tags are
// copied into the property.
func FromStruct(v interface{}) protocol.ToolInputSchema {
	t, ok := v.(reflect.Type)
	if !ok {
		t = reflect.TypeOf(v)
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	props := map[string]protocol.PropertyDetail{}
	requiredFields := []string{}
	trackFields := make(map[string]bool) // Track fields to prevent duplicates in requiredFields

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		// Skip unexported fields
		if field.PkgPath != "" {
			continue
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}
		name := strings.ToLower(field.Name)
		omitEmpty := false
		if jsonTag != "" {
			parts := strings.Split(jsonTag, ",")
			if parts[0] != "" {
				name = parts[0]
			}
			for _, opt := range parts[1:] {
				if opt == "omitempty" {
					omitEmpty = true
				}
			}
		}

		fieldType := field.Type
		isPtr := fieldType.Kind() == reflect.Ptr
		if isPtr {
			fieldType = fieldType.Elem()
		}

		var required bool
		switch field.Tag.Get("required") {
		case "true":
			required = true
		case "false":
			required = false
		default:
			required = !isPtr && !omitEmpty && fieldType.Kind() != reflect.Interface
		}
		if required && !trackFields[name] {
			requiredFields = append(requiredFields, name)
			trackFields[name] = true
		}

		propDetail := protocol.PropertyDetail{
			Type:        goTypeToMCPType(fieldType.Kind()),
			Description: field.Tag.Get("description"),
			Format:      field.Tag.Get("format"),
		}
		if enumTag := field.Tag.Get("enum"); enumTag != "" {
			for _, e := range strings.Split(enumTag, ",") {
				propDetail.Enum = append(propDetail.Enum, strings.TrimSpace(e))
			}
		}
		if propDetail.Type == "array" {
			propDetail.Items = &protocol.PropertyDetail{Type: goTypeToMCPType(elemKind(fieldType))}
		}

		props[name] = propDetail
	}

	schema := protocol.ToolInputSchema{
		Type:       "object",
		Properties: props,
	}

	// Only add Required field if there are any required fields
	if len(requiredFields) > 0 {
		schema.Required = requiredFields
	}

	return schema
}

func elemKind(t reflect.Type) reflect.Kind {
	e := t.Elem()
	if e.Kind() == reflect.Ptr {
		e = e.Elem()
	}
	return e.Kind()
}

// WithEnum returns a copy of s whose property name only accepts values.
func WithEnum[E ~string](s protocol.ToolInputSchema, name string, values []E) protocol.ToolInputSchema {
	props := make(map[string]protocol.PropertyDetail, len(s.Properties))
	for k, v := range s.Properties {
		props[k] = v
	}
	prop := props[name]
	prop.Enum = make([]interface{}, len(values))
	for i, v := range values {
		prop.Enum[i] = string(v)
	}
	props[name] = prop
	s.Properties = props
	return s
}

// Validator validates tool arguments against a compiled JSON Schema.
type Validator struct {
	name   string
	schema *jsonschema.Schema
}

// Compile compiles an input schema for the tool called name.
func Compile(name string, s protocol.ToolInputSchema) (*Validator, error) {
	doc, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("schema for %s: %w", name, err)
	}

	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	schemaURL := fmt.Sprintf("https://iotmcp.schemas.local/tools/%s.schema.json", name)
	if err := c.AddResource(schemaURL, strings.NewReader(string(doc))); err != nil {
		return nil, fmt.Errorf("schema load failed for %s: %w", name, err)
	}
	compiled, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("schema compile failed for %s: %w", name, err)
	}
	return &Validator{name: name, schema: compiled}, nil
}

// Validate checks args against the schema. args must hold JSON-decoded
// values (float64 numbers, map[string]interface{} objects).
func (v *Validator) Validate(args map[string]interface{}) error {
	if args == nil {
		args = map[string]interface{}{}
	}
	if err := v.schema.Validate(args); err != nil {
		return fmt.Errorf("arguments for %s do not match schema: %w", v.name, err)
	}
	return nil
}

// HandleArgs is a helper function that handles the common pattern of parsing and validating
// tool arguments (typically map[string]interface{}) into a strongly-typed struct T.
func HandleArgs[T any](arguments any) (*T, []protocol.Content, bool) {
	var args T

	argsMap, ok := arguments.(map[string]interface{})
	if !ok {
		if arguments == nil {
			argsMap = make(map[string]interface{}) // Treat nil as empty map
		} else {
			convertedMap, err := conversion.ToMap(arguments)
			if err != nil {
				return nil, []protocol.Content{protocol.NewTextContent(
					fmt.Sprintf("Invalid arguments format: expected an object/map, got %T", arguments),
				)}, true
			}
			argsMap = convertedMap
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &args,
		TagName: "json",
	})
	if err != nil {
		return nil, []protocol.Content{protocol.NewTextContent("Internal error creating argument decoder: " + err.Error())}, true
	}

	if err := decoder.Decode(argsMap); err != nil {
		return nil, []protocol.Content{protocol.NewTextContent("Error parsing arguments: " + err.Error())}, true
	}

	if err := validator.Arguments(args); err != nil {
		return nil, []protocol.Content{protocol.NewTextContent("Invalid arguments: " + err.Error())}, true
	}

	return &args, nil, false
}
