package keyfilter

import "fmt"

// EntityKeyType identifies where a filtered key lives on an entity.
type EntityKeyType string

const (
	KeyTypeAttribute       EntityKeyType = "ATTRIBUTE"
	KeyTypeClientAttribute EntityKeyType = "CLIENT_ATTRIBUTE"
	KeyTypeSharedAttribute EntityKeyType = "SHARED_ATTRIBUTE"
	KeyTypeServerAttribute EntityKeyType = "SERVER_ATTRIBUTE"
	KeyTypeTimeSeries      EntityKeyType = "TIME_SERIES"
	KeyTypeEntityField     EntityKeyType = "ENTITY_FIELD"
	KeyTypeAlarmField      EntityKeyType = "ALARM_FIELD"
	KeyTypeConstant        EntityKeyType = "CONSTANT"
)

// EntityKeyValueType is the declared type of a key's value. The evaluator
// uses it for unit and format interpretation; the codec only carries it.
type EntityKeyValueType string

const (
	ValueTypeString   EntityKeyValueType = "STRING"
	ValueTypeNumeric  EntityKeyValueType = "NUMERIC"
	ValueTypeBoolean  EntityKeyValueType = "BOOLEAN"
	ValueTypeDateTime EntityKeyValueType = "DATE_TIME"
)

// PredicateType discriminates the four predicate variants.
type PredicateType string

const (
	PredicateTypeString  PredicateType = "STRING"
	PredicateTypeNumeric PredicateType = "NUMERIC"
	PredicateTypeBoolean PredicateType = "BOOLEAN"
	PredicateTypeComplex PredicateType = "COMPLEX"
)

// StringOperation is the operation of a string predicate.
type StringOperation string

const (
	StringEqual       StringOperation = "EQUAL"
	StringNotEqual    StringOperation = "NOT_EQUAL"
	StringStartsWith  StringOperation = "STARTS_WITH"
	StringEndsWith    StringOperation = "ENDS_WITH"
	StringContains    StringOperation = "CONTAINS"
	StringNotContains StringOperation = "NOT_CONTAINS"
	StringIn          StringOperation = "IN"
	StringNotIn       StringOperation = "NOT_IN"
)

// NumericOperation is the operation of a numeric predicate.
type NumericOperation string

const (
	NumericEqual          NumericOperation = "EQUAL"
	NumericNotEqual       NumericOperation = "NOT_EQUAL"
	NumericGreater        NumericOperation = "GREATER"
	NumericLess           NumericOperation = "LESS"
	NumericGreaterOrEqual NumericOperation = "GREATER_OR_EQUAL"
	NumericLessOrEqual    NumericOperation = "LESS_OR_EQUAL"
)

// BooleanOperation is the operation of a boolean predicate.
type BooleanOperation string

const (
	BooleanEqual    BooleanOperation = "EQUAL"
	BooleanNotEqual BooleanOperation = "NOT_EQUAL"
)

// ComplexOperation joins the children of a complex predicate.
type ComplexOperation string

const (
	ComplexAnd ComplexOperation = "AND"
	ComplexOr  ComplexOperation = "OR"
)

// DynamicValueSourceType selects where a dynamic operand is fetched from at
// evaluation time.
type DynamicValueSourceType string

const (
	SourceCurrentTenant   DynamicValueSourceType = "CURRENT_TENANT"
	SourceCurrentCustomer DynamicValueSourceType = "CURRENT_CUSTOMER"
	SourceCurrentUser     DynamicValueSourceType = "CURRENT_USER"
	SourceCurrentDevice   DynamicValueSourceType = "CURRENT_DEVICE"
)

// EntityKeyTypes returns all members of EntityKeyType.
func EntityKeyTypes() []EntityKeyType {
	return []EntityKeyType{
		KeyTypeAttribute, KeyTypeClientAttribute, KeyTypeSharedAttribute, KeyTypeServerAttribute,
		KeyTypeTimeSeries, KeyTypeEntityField, KeyTypeAlarmField, KeyTypeConstant,
	}
}

// EntityKeyValueTypes returns all members of EntityKeyValueType.
func EntityKeyValueTypes() []EntityKeyValueType {
	return []EntityKeyValueType{ValueTypeString, ValueTypeNumeric, ValueTypeBoolean, ValueTypeDateTime}
}

// PredicateTypes returns all members of PredicateType.
func PredicateTypes() []PredicateType {
	return []PredicateType{PredicateTypeString, PredicateTypeNumeric, PredicateTypeBoolean, PredicateTypeComplex}
}

// StringOperations returns all members of StringOperation.
func StringOperations() []StringOperation {
	return []StringOperation{
		StringEqual, StringNotEqual, StringStartsWith, StringEndsWith,
		StringContains, StringNotContains, StringIn, StringNotIn,
	}
}

// NumericOperations returns all members of NumericOperation.
func NumericOperations() []NumericOperation {
	return []NumericOperation{
		NumericEqual, NumericNotEqual, NumericGreater, NumericLess,
		NumericGreaterOrEqual, NumericLessOrEqual,
	}
}

// BooleanOperations returns all members of BooleanOperation.
func BooleanOperations() []BooleanOperation {
	return []BooleanOperation{BooleanEqual, BooleanNotEqual}
}

// ComplexOperations returns all members of ComplexOperation.
func ComplexOperations() []ComplexOperation {
	return []ComplexOperation{ComplexAnd, ComplexOr}
}

// DynamicValueSourceTypes returns all members of DynamicValueSourceType.
func DynamicValueSourceTypes() []DynamicValueSourceType {
	return []DynamicValueSourceType{SourceCurrentTenant, SourceCurrentCustomer, SourceCurrentUser, SourceCurrentDevice}
}

// parseEnum matches name exactly against members.
func parseEnum[E ~string](name string, members []E) (E, error) {
	for _, m := range members {
		if string(m) == name {
			return m, nil
		}
	}
	var zero E
	return zero, &FieldError{Kind: ErrInvalidEnumValue, Value: name, Cause: fmt.Errorf("expected one of %v", members)}
}

// ParseEntityKeyType parses name into an EntityKeyType.
func ParseEntityKeyType(name string) (EntityKeyType, error) {
	return parseEnum(name, EntityKeyTypes())
}

// ParseEntityKeyValueType parses name into an EntityKeyValueType.
func ParseEntityKeyValueType(name string) (EntityKeyValueType, error) {
	return parseEnum(name, EntityKeyValueTypes())
}

// ParsePredicateType parses name into a PredicateType.
func ParsePredicateType(name string) (PredicateType, error) {
	return parseEnum(name, PredicateTypes())
}

// ParseStringOperation parses name into a StringOperation.
func ParseStringOperation(name string) (StringOperation, error) {
	return parseEnum(name, StringOperations())
}

// ParseNumericOperation parses name into a NumericOperation.
func ParseNumericOperation(name string) (NumericOperation, error) {
	return parseEnum(name, NumericOperations())
}

// ParseBooleanOperation parses name into a BooleanOperation.
func ParseBooleanOperation(name string) (BooleanOperation, error) {
	return parseEnum(name, BooleanOperations())
}

// ParseComplexOperation parses name into a ComplexOperation.
func ParseComplexOperation(name string) (ComplexOperation, error) {
	return parseEnum(name, ComplexOperations())
}

// ParseDynamicValueSourceType parses name into a DynamicValueSourceType.
func ParseDynamicValueSourceType(name string) (DynamicValueSourceType, error) {
	return parseEnum(name, DynamicValueSourceTypes())
}

// withPath re-targets an enum error produced by a Parse function at path.
func withPath(err error, path string) error {
	if fe, ok := err.(*FieldError); ok {
		fe.Path = path
		return fe
	}
	return err
}
