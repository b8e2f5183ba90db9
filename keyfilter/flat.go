package keyfilter

import (
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/vmihailenco/msgpack/v5"
)

// FlatKeyFilter is the single-level wire form of a KeyFilter. One record can
// describe any predicate variant; complex predicates nest further records in
// NestedPredicates. Each nested record repeats the key fields of its parent.
type FlatKeyFilter struct {
	KeyType   string `json:"keyType" mapstructure:"keyType" msgpack:"keyType,omitempty" required:"true" description:"Where the key lives on the entity"`
	Key       string `json:"key" mapstructure:"key" msgpack:"key,omitempty" description:"Name of the attribute, time series or field"`
	ValueType string `json:"valueType,omitempty" mapstructure:"valueType" msgpack:"valueType,omitempty" description:"Optional declared type of the key's value"`

	PredicateType string `json:"predicateType" mapstructure:"predicateType" msgpack:"predicateType,omitempty" required:"true" description:"Predicate variant"`

	Operation  string `json:"operation,omitempty" mapstructure:"operation" msgpack:"operation,omitempty" description:"Operation of a STRING, NUMERIC or BOOLEAN predicate"`
	IgnoreCase *bool  `json:"ignoreCase,omitempty" mapstructure:"ignoreCase" msgpack:"ignoreCase,omitempty" description:"Case-insensitive comparison, STRING only"`

	DefaultValue interface{} `json:"defaultValue,omitempty" mapstructure:"defaultValue" msgpack:"defaultValue" description:"Static operand"`
	UserValue    interface{} `json:"userValue,omitempty" mapstructure:"userValue" msgpack:"userValue" description:"User supplied operand"`

	DynamicValueSourceType      string `json:"dynamicValueSourceType,omitempty" mapstructure:"dynamicValueSourceType" msgpack:"dynamicValueSourceType,omitempty" description:"Source of a dynamic operand"`
	DynamicValueSourceAttribute string `json:"dynamicValueSourceAttribute,omitempty" mapstructure:"dynamicValueSourceAttribute" msgpack:"dynamicValueSourceAttribute,omitempty" description:"Attribute holding the dynamic operand"`
	DynamicValueInherit         *bool  `json:"dynamicValueInherit,omitempty" mapstructure:"dynamicValueInherit" msgpack:"dynamicValueInherit,omitempty" description:"Resolve the dynamic operand up the ownership hierarchy"`

	ComplexOperation string          `json:"complexOperation,omitempty" mapstructure:"complexOperation" msgpack:"complexOperation,omitempty" description:"AND or OR, COMPLEX only"`
	NestedPredicates []FlatKeyFilter `json:"nestedPredicates,omitempty" mapstructure:"nestedPredicates" msgpack:"nestedPredicates" description:"Child predicates, COMPLEX only"`
}

// MarshalJSON emits nestedPredicates as an empty array on a COMPLEX record
// without children and omits it everywhere else.
func (f FlatKeyFilter) MarshalJSON() ([]byte, error) {
	type plain FlatKeyFilter
	if f.PredicateType != string(PredicateTypeComplex) {
		return json.Marshal(plain(f))
	}
	nested := f.NestedPredicates
	if nested == nil {
		nested = []FlatKeyFilter{}
	}
	return json.Marshal(struct {
		plain
		NestedPredicates []FlatKeyFilter `json:"nestedPredicates"`
	}{plain(f), nested})
}

// FlatFromMap decodes a generic JSON object, as produced by a tool call or
// json.Unmarshal into map[string]interface{}, into a FlatKeyFilter.
func FlatFromMap(m map[string]interface{}) (*FlatKeyFilter, error) {
	if m == nil {
		return nil, argumentError("", "flat filter is nil")
	}

	var f FlatKeyFilter
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &f,
		TagName: "mapstructure",
	})
	if err != nil {
		return nil, fmt.Errorf("keyfilter: creating decoder: %w", err)
	}
	if err := decoder.Decode(m); err != nil {
		return nil, &FieldError{Kind: ErrInvalidArgument, Cause: err}
	}
	return &f, nil
}

// MarshalFlatBinary encodes f as MessagePack.
func MarshalFlatBinary(f *FlatKeyFilter) ([]byte, error) {
	if f == nil {
		return nil, argumentError("", "flat filter is nil")
	}
	b, err := msgpack.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("keyfilter: msgpack encode: %w", err)
	}
	return b, nil
}

// UnmarshalFlatBinary decodes a FlatKeyFilter from MessagePack. Numeric
// operands come back as whatever Go kind MessagePack chose; Decode accepts
// all of them.
func UnmarshalFlatBinary(data []byte) (*FlatKeyFilter, error) {
	var f FlatKeyFilter
	if err := msgpack.Unmarshal(data, &f); err != nil {
		return nil, &FieldError{Kind: ErrInvalidArgument, Cause: fmt.Errorf("msgpack decode: %w", err)}
	}
	return &f, nil
}
