// Package validator provides validation utilities for MCP tool arguments and
// configuration structures.
package validator

import (
	"fmt"
	"reflect"
	"strings"
)

// Validator helps validate values using a fluent interface.
type Validator struct {
	errors []string
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Required checks if a field is present and not empty.
func (v *Validator) Required(field string, value interface{}) *Validator {
	if value == nil {
		v.errors = append(v.errors, fmt.Sprintf("%s is required", field))
		return v
	}

	val := reflect.ValueOf(value)
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			v.errors = append(v.errors, fmt.Sprintf("%s is required", field))
			return v
		}
		val = val.Elem()
	}

	if val.Kind() == reflect.String && val.String() == "" {
		v.errors = append(v.errors, fmt.Sprintf("%s cannot be empty", field))
	}
	return v
}

// Min checks if a numeric field meets minimum value requirement.
func (v *Validator) Min(field string, value, min int) *Validator {
	if value < min {
		v.errors = append(v.errors, fmt.Sprintf("%s must be at least %d", field, min))
	}
	return v
}

// OneOf checks that value is one of allowed. Comparison ignores letter case.
func (v *Validator) OneOf(field string, value string, allowed ...string) *Validator {
	for _, a := range allowed {
		if strings.EqualFold(value, a) {
			return v
		}
	}
	v.errors = append(v.errors, fmt.Sprintf("%s must be one of [%s]", field, strings.Join(allowed, ",")))
	return v
}

// Errors returns any validation errors.
func (v *Validator) Errors() []string {
	return v.errors
}

// HasErrors checks if there are any validation errors.
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Error returns a combined error message if there are any validation errors.
func (v *Validator) Error() error {
	if !v.HasErrors() {
		return nil
	}
	return fmt.Errorf("validation failed: %v", v.errors)
}

// Arguments enforces `required` and `enum` struct tags for validation.
// Fields are reported by their JSON name. An enum field that is empty and
// not required is skipped.
// Usage: if err := validator.Arguments(args); err != nil { ... }
func Arguments(s interface{}) error {
	v := reflect.ValueOf(s)
	t := reflect.TypeOf(s)
	if t.Kind() == reflect.Ptr {
		v = v.Elem()
		t = t.Elem()
	}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		value := v.Field(i)
		name := fieldName(field)

		required := field.Tag.Get("required") == "true"
		if required && isEmpty(value) {
			return fmt.Errorf("%s is required", name)
		}

		enumTag := field.Tag.Get("enum")
		if enumTag == "" || value.Kind() != reflect.String {
			continue
		}
		if value.String() == "" && !required {
			continue
		}
		found := false
		for _, a := range strings.Split(enumTag, ",") {
			if value.String() == a {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%s must be one of [%s]", name, enumTag)
		}
	}
	return nil
}

func isEmpty(value reflect.Value) bool {
	switch value.Kind() {
	case reflect.String:
		return value.String() == ""
	case reflect.Slice, reflect.Array, reflect.Map:
		return value.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return value.IsNil()
	}
	return false
}

func fieldName(field reflect.StructField) string {
	if tag := field.Tag.Get("json"); tag != "" && tag != "-" {
		if name := strings.Split(tag, ",")[0]; name != "" {
			return name
		}
	}
	return field.Name
}
