package keyfilter

import (
	"encoding/json"
	"fmt"
)

// The nested JSON form of a KeyFilter is the shape stored in dashboard and
// alarm rule configuration:
//
//	{"key":{"type":"ATTRIBUTE","key":"temperature"},"valueType":"NUMERIC",
//	 "predicate":{"type":"NUMERIC","operation":"GREATER",
//	   "value":{"defaultValue":30,"userValue":null,"dynamicValue":null}}}

type jsonEntityKey struct {
	Type EntityKeyType `json:"type"`
	Key  string        `json:"key"`
}

type jsonDynamicValue struct {
	SourceType      DynamicValueSourceType `json:"sourceType"`
	SourceAttribute string                 `json:"sourceAttribute"`
	Inherit         bool                   `json:"inherit"`
}

type jsonPredicateValue[T any] struct {
	DefaultValue *T                `json:"defaultValue"`
	UserValue    *T                `json:"userValue"`
	DynamicValue *jsonDynamicValue `json:"dynamicValue"`
}

func toJSONValue[T any](v FilterPredicateValue[T]) jsonPredicateValue[T] {
	out := jsonPredicateValue[T]{DefaultValue: v.DefaultValue, UserValue: v.UserValue}
	if v.DynamicValue != nil {
		out.DynamicValue = &jsonDynamicValue{
			SourceType:      v.DynamicValue.SourceType,
			SourceAttribute: v.DynamicValue.SourceAttribute,
			Inherit:         v.DynamicValue.Inherit,
		}
	}
	return out
}

// MarshalJSON implements json.Marshaler.
func (kf KeyFilter) MarshalJSON() ([]byte, error) {
	var key *jsonEntityKey
	if kf.Key != nil {
		key = &jsonEntityKey{Type: kf.Key.Type, Key: kf.Key.Key}
	}
	return json.Marshal(struct {
		Key       *jsonEntityKey      `json:"key"`
		ValueType *EntityKeyValueType `json:"valueType"`
		Predicate KeyFilterPredicate  `json:"predicate"`
	}{key, kf.ValueType, kf.Predicate})
}

// MarshalJSON implements json.Marshaler.
func (p *StringFilterPredicate) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type       PredicateType              `json:"type"`
		Operation  StringOperation            `json:"operation"`
		IgnoreCase bool                       `json:"ignoreCase"`
		Value      jsonPredicateValue[string] `json:"value"`
	}{PredicateTypeString, p.Operation, p.IgnoreCase, toJSONValue(p.Value)})
}

// MarshalJSON implements json.Marshaler.
func (p *NumericFilterPredicate) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type      PredicateType               `json:"type"`
		Operation NumericOperation            `json:"operation"`
		Value     jsonPredicateValue[float64] `json:"value"`
	}{PredicateTypeNumeric, p.Operation, toJSONValue(p.Value)})
}

// MarshalJSON implements json.Marshaler.
func (p *BooleanFilterPredicate) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type      PredicateType            `json:"type"`
		Operation BooleanOperation         `json:"operation"`
		Value     jsonPredicateValue[bool] `json:"value"`
	}{PredicateTypeBoolean, p.Operation, toJSONValue(p.Value)})
}

// MarshalJSON implements json.Marshaler.
func (p *ComplexFilterPredicate) MarshalJSON() ([]byte, error) {
	predicates := p.Predicates
	if predicates == nil {
		predicates = []KeyFilterPredicate{}
	}
	return json.Marshal(struct {
		Type       PredicateType        `json:"type"`
		Operation  ComplexOperation     `json:"operation"`
		Predicates []KeyFilterPredicate `json:"predicates"`
	}{PredicateTypeComplex, p.Operation, predicates})
}

// ParseKeyFilterJSON parses the nested JSON form of a KeyFilter. Every
// enumeration is validated and a predicate may only carry the fields of its
// own variant; errors are *FieldError values. WithMaxDepth bounds COMPLEX
// nesting the same way it does for Decode.
func ParseKeyFilterJSON(data []byte, opts ...DecodeOption) (*KeyFilter, error) {
	var o decodeOptions
	for _, opt := range opts {
		opt(&o)
	}

	var raw rawKeyFilter
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &FieldError{Kind: ErrInvalidArgument, Cause: fmt.Errorf("invalid JSON: %w", err)}
	}

	if raw.Key == nil {
		return nil, argumentError("key", "entity key is missing")
	}
	keyType, err := ParseEntityKeyType(raw.Key.Type)
	if err != nil {
		return nil, withPath(err, "key.type")
	}
	kf := &KeyFilter{Key: &EntityKey{Type: keyType, Key: raw.Key.Key}}

	if raw.ValueType != nil && *raw.ValueType != "" {
		valueType, err := ParseEntityKeyValueType(*raw.ValueType)
		if err != nil {
			return nil, withPath(err, "valueType")
		}
		kf.ValueType = &valueType
	}

	if raw.Predicate == nil {
		return nil, argumentError("predicate", "predicate is missing")
	}
	kf.Predicate, err = parsePredicateJSON(raw.Predicate, "predicate", 0, o)
	if err != nil {
		return nil, err
	}
	return kf, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (kf *KeyFilter) UnmarshalJSON(data []byte) error {
	parsed, err := ParseKeyFilterJSON(data)
	if err != nil {
		return err
	}
	*kf = *parsed
	return nil
}

// rawKeyFilter is the intermediate structure for JSON parsing. The whole
// document is decoded in one pass; typed nodes are built from it afterwards.
type rawKeyFilter struct {
	Key       *rawEntityKey `json:"key"`
	ValueType *string       `json:"valueType"`
	Predicate *rawPredicate `json:"predicate"`
}

type rawEntityKey struct {
	Type string `json:"type"`
	Key  string `json:"key"`
}

// rawPredicate covers the fields of every predicate variant. Pointers record
// presence so that fields of another variant can be rejected.
type rawPredicate struct {
	Type       string          `json:"type"`
	Operation  string          `json:"operation"`
	IgnoreCase *bool           `json:"ignoreCase"`
	Value      *rawValue       `json:"value"`
	Predicates []*rawPredicate `json:"predicates"`
}

type rawValue struct {
	DefaultValue interface{}      `json:"defaultValue"`
	UserValue    interface{}      `json:"userValue"`
	DynamicValue *rawDynamicValue `json:"dynamicValue"`
}

type rawDynamicValue struct {
	SourceType      string `json:"sourceType"`
	SourceAttribute string `json:"sourceAttribute"`
	Inherit         bool   `json:"inherit"`
}

// parsePredicateJSON builds the predicate described by raw. level is the
// number of COMPLEX predicates enclosing raw.
func parsePredicateJSON(raw *rawPredicate, path string, level int, o decodeOptions) (KeyFilterPredicate, error) {
	predicateType, err := ParsePredicateType(raw.Type)
	if err != nil {
		return nil, withPath(err, joinPath(path, "type"))
	}
	if predicateType == PredicateTypeComplex {
		return parseComplexJSON(raw, path, level+1, o)
	}

	if len(raw.Predicates) > 0 {
		return nil, argumentError(joinPath(path, "predicates"), "only allowed on %s predicates", PredicateTypeComplex)
	}
	opPath := joinPath(path, "operation")
	valuePath := joinPath(path, "value")

	switch predicateType {
	case PredicateTypeString:
		op, err := ParseStringOperation(raw.Operation)
		if err != nil {
			return nil, withPath(err, opPath)
		}
		value, err := parseValueJSON(raw.Value, valuePath, coerceString)
		if err != nil {
			return nil, err
		}
		return &StringFilterPredicate{
			Operation:  op,
			IgnoreCase: raw.IgnoreCase != nil && *raw.IgnoreCase,
			Value:      value,
		}, nil

	case PredicateTypeNumeric:
		op, err := ParseNumericOperation(raw.Operation)
		if err != nil {
			return nil, withPath(err, opPath)
		}
		value, err := parseValueJSON(raw.Value, valuePath, coerceNumber)
		if err != nil {
			return nil, err
		}
		return &NumericFilterPredicate{Operation: op, Value: value}, nil

	case PredicateTypeBoolean:
		op, err := ParseBooleanOperation(raw.Operation)
		if err != nil {
			return nil, withPath(err, opPath)
		}
		value, err := parseValueJSON(raw.Value, valuePath, coerceBool)
		if err != nil {
			return nil, err
		}
		return &BooleanFilterPredicate{Operation: op, Value: value}, nil
	}

	return nil, argumentError(joinPath(path, "type"), "unhandled predicate type %s", predicateType)
}

func parseComplexJSON(raw *rawPredicate, path string, level int, o decodeOptions) (*ComplexFilterPredicate, error) {
	if o.maxDepth > 0 && level > o.maxDepth {
		return nil, argumentError(path, "complex predicates nested deeper than %d", o.maxDepth)
	}

	switch {
	case raw.Value != nil:
		return nil, argumentError(joinPath(path, "value"), "not allowed on %s predicates", PredicateTypeComplex)
	case raw.IgnoreCase != nil:
		return nil, argumentError(joinPath(path, "ignoreCase"), "not allowed on %s predicates", PredicateTypeComplex)
	}

	op, err := ParseComplexOperation(raw.Operation)
	if err != nil {
		return nil, withPath(err, joinPath(path, "operation"))
	}

	children := make([]KeyFilterPredicate, 0, len(raw.Predicates))
	for i, child := range raw.Predicates {
		childPath := indexPath(joinPath(path, "predicates"), i)
		if child == nil {
			return nil, argumentError(childPath, "predicate is null")
		}
		p, err := parsePredicateJSON(child, childPath, level, o)
		if err != nil {
			return nil, err
		}
		children = append(children, p)
	}
	return &ComplexFilterPredicate{Operation: op, Predicates: children}, nil
}

func parseValueJSON[T any](raw *rawValue, path string, coerce func(string, interface{}) (*T, error)) (FilterPredicateValue[T], error) {
	var value FilterPredicateValue[T]
	if raw == nil {
		return value, nil
	}

	var err error
	if value.DefaultValue, err = coerce(joinPath(path, "defaultValue"), raw.DefaultValue); err != nil {
		return value, err
	}
	if value.UserValue, err = coerce(joinPath(path, "userValue"), raw.UserValue); err != nil {
		return value, err
	}

	if dv := raw.DynamicValue; dv != nil {
		sourceType, err := ParseDynamicValueSourceType(dv.SourceType)
		if err != nil {
			return value, withPath(err, joinPath(path, "dynamicValue.sourceType"))
		}
		value.DynamicValue = &DynamicValue[T]{
			SourceType:      sourceType,
			SourceAttribute: dv.SourceAttribute,
			Inherit:         dv.Inherit,
		}
	}
	return value, nil
}
