package keyfilter

// EntityKey identifies the attribute, time series or field being filtered.
type EntityKey struct {
	Type EntityKeyType
	Key  string
}

// DynamicValue makes a predicate operand resolve at evaluation time from an
// attribute of another entity. T is the operand type of the owning predicate.
type DynamicValue[T any] struct {
	SourceType      DynamicValueSourceType
	SourceAttribute string
	// Inherit walks up the ownership hierarchy when the attribute is absent
	// on the immediate source.
	Inherit bool
}

// FilterPredicateValue holds the operand of a leaf predicate. All three parts
// are optional and may coexist; precedence between them is decided by the
// evaluator.
type FilterPredicateValue[T any] struct {
	DefaultValue *T
	UserValue    *T
	DynamicValue *DynamicValue[T]
}

// KeyFilterPredicate is implemented by the four predicate variants:
// *StringFilterPredicate, *NumericFilterPredicate, *BooleanFilterPredicate
// and *ComplexFilterPredicate. Use a type switch to access variant data.
type KeyFilterPredicate interface {
	// Type returns the discriminator matching the concrete variant.
	Type() PredicateType

	// predicateMarker prevents implementations outside this package.
	predicateMarker()
}

// StringFilterPredicate compares a string key against a string operand.
type StringFilterPredicate struct {
	Operation  StringOperation
	IgnoreCase bool
	Value      FilterPredicateValue[string]
}

// NumericFilterPredicate compares a numeric key against a numeric operand.
type NumericFilterPredicate struct {
	Operation NumericOperation
	Value     FilterPredicateValue[float64]
}

// BooleanFilterPredicate compares a boolean key against a boolean operand.
type BooleanFilterPredicate struct {
	Operation BooleanOperation
	Value     FilterPredicateValue[bool]
}

// ComplexFilterPredicate joins child predicates with AND or OR. Predicates
// may be empty; child order is preserved through encoding and decoding.
type ComplexFilterPredicate struct {
	Operation  ComplexOperation
	Predicates []KeyFilterPredicate
}

func (*StringFilterPredicate) Type() PredicateType  { return PredicateTypeString }
func (*NumericFilterPredicate) Type() PredicateType { return PredicateTypeNumeric }
func (*BooleanFilterPredicate) Type() PredicateType { return PredicateTypeBoolean }
func (*ComplexFilterPredicate) Type() PredicateType { return PredicateTypeComplex }

func (*StringFilterPredicate) predicateMarker()  {}
func (*NumericFilterPredicate) predicateMarker() {}
func (*BooleanFilterPredicate) predicateMarker() {}
func (*ComplexFilterPredicate) predicateMarker() {}

// KeyFilter is a predicate over the value of a single entity key.
type KeyFilter struct {
	Key *EntityKey
	// ValueType is an optional hint, nil when not declared.
	ValueType *EntityKeyValueType
	Predicate KeyFilterPredicate
}
