package keyfilter

// DecodeOption configures Decode and ParseKeyFilterJSON.
type DecodeOption func(*decodeOptions)

type decodeOptions struct {
	maxDepth int
}

// WithMaxDepth limits how deeply COMPLEX predicates may nest. A top-level
// COMPLEX predicate has depth 1. Zero or a negative value means no limit.
func WithMaxDepth(depth int) DecodeOption {
	return func(o *decodeOptions) {
		o.maxDepth = depth
	}
}

// Decode converts a flat filter into a KeyFilter.
//
// The key fields of nested records are not consulted: every predicate in the
// tree belongs to the key of the top-level record, so nested records may omit
// them. Decoding fails on the first invalid field with a *FieldError whose
// kind is ErrInvalidEnumValue, ErrInvalidValueFormat or ErrInvalidArgument.
func Decode(f *FlatKeyFilter, opts ...DecodeOption) (*KeyFilter, error) {
	if f == nil {
		return nil, argumentError("", "flat filter is nil")
	}

	var o decodeOptions
	for _, opt := range opts {
		opt(&o)
	}

	keyType, err := ParseEntityKeyType(f.KeyType)
	if err != nil {
		return nil, withPath(err, "keyType")
	}
	kf := &KeyFilter{
		Key: &EntityKey{Type: keyType, Key: f.Key},
	}

	if f.ValueType != "" {
		valueType, err := ParseEntityKeyValueType(f.ValueType)
		if err != nil {
			return nil, withPath(err, "valueType")
		}
		kf.ValueType = &valueType
	}

	predicate, err := decodePredicate(f, "", 0, o)
	if err != nil {
		return nil, err
	}
	kf.Predicate = predicate
	return kf, nil
}

// decodePredicate builds the predicate described by f. level is the number
// of COMPLEX predicates enclosing f.
func decodePredicate(f *FlatKeyFilter, path string, level int, o decodeOptions) (KeyFilterPredicate, error) {
	predicateType, err := ParsePredicateType(f.PredicateType)
	if err != nil {
		return nil, withPath(err, joinPath(path, "predicateType"))
	}

	if predicateType == PredicateTypeComplex {
		return decodeComplex(f, path, level+1, o)
	}

	if f.ComplexOperation != "" {
		return nil, argumentError(joinPath(path, "complexOperation"), "only allowed on %s predicates", PredicateTypeComplex)
	}
	if len(f.NestedPredicates) > 0 {
		return nil, argumentError(joinPath(path, "nestedPredicates"), "only allowed on %s predicates", PredicateTypeComplex)
	}

	switch predicateType {
	case PredicateTypeString:
		op, err := ParseStringOperation(f.Operation)
		if err != nil {
			return nil, withPath(err, joinPath(path, "operation"))
		}
		value, err := decodeValue(f, path, coerceString)
		if err != nil {
			return nil, err
		}
		return &StringFilterPredicate{
			Operation:  op,
			IgnoreCase: f.IgnoreCase != nil && *f.IgnoreCase,
			Value:      value,
		}, nil

	case PredicateTypeNumeric:
		op, err := ParseNumericOperation(f.Operation)
		if err != nil {
			return nil, withPath(err, joinPath(path, "operation"))
		}
		value, err := decodeValue(f, path, coerceNumber)
		if err != nil {
			return nil, err
		}
		return &NumericFilterPredicate{Operation: op, Value: value}, nil

	case PredicateTypeBoolean:
		op, err := ParseBooleanOperation(f.Operation)
		if err != nil {
			return nil, withPath(err, joinPath(path, "operation"))
		}
		value, err := decodeValue(f, path, coerceBool)
		if err != nil {
			return nil, err
		}
		return &BooleanFilterPredicate{Operation: op, Value: value}, nil
	}

	// ParsePredicateType only returns the members handled above.
	return nil, argumentError(joinPath(path, "predicateType"), "unhandled predicate type %s", predicateType)
}

func decodeComplex(f *FlatKeyFilter, path string, level int, o decodeOptions) (*ComplexFilterPredicate, error) {
	if o.maxDepth > 0 && level > o.maxDepth {
		return nil, argumentError(path, "complex predicates nested deeper than %d", o.maxDepth)
	}

	switch {
	case f.Operation != "":
		return nil, argumentError(joinPath(path, "operation"), "not allowed on %s predicates, use complexOperation", PredicateTypeComplex)
	case f.DefaultValue != nil:
		return nil, argumentError(joinPath(path, "defaultValue"), "not allowed on %s predicates", PredicateTypeComplex)
	case f.UserValue != nil:
		return nil, argumentError(joinPath(path, "userValue"), "not allowed on %s predicates", PredicateTypeComplex)
	case f.DynamicValueSourceType != "" || f.DynamicValueSourceAttribute != "" || f.DynamicValueInherit != nil:
		return nil, argumentError(joinPath(path, "dynamicValueSourceType"), "dynamic values are not allowed on %s predicates", PredicateTypeComplex)
	}

	op, err := ParseComplexOperation(f.ComplexOperation)
	if err != nil {
		return nil, withPath(err, joinPath(path, "complexOperation"))
	}

	children := make([]KeyFilterPredicate, 0, len(f.NestedPredicates))
	for i := range f.NestedPredicates {
		childPath := indexPath(joinPath(path, "nestedPredicates"), i)
		child, err := decodePredicate(&f.NestedPredicates[i], childPath, level, o)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}

	return &ComplexFilterPredicate{Operation: op, Predicates: children}, nil
}

// decodeValue builds the operand of a leaf predicate, coercing the default
// and user values to T.
func decodeValue[T any](f *FlatKeyFilter, path string, coerce func(string, interface{}) (*T, error)) (FilterPredicateValue[T], error) {
	var value FilterPredicateValue[T]
	var err error

	if value.DefaultValue, err = coerce(joinPath(path, "defaultValue"), f.DefaultValue); err != nil {
		return value, err
	}
	if value.UserValue, err = coerce(joinPath(path, "userValue"), f.UserValue); err != nil {
		return value, err
	}

	if f.DynamicValueSourceType != "" {
		sourceType, err := ParseDynamicValueSourceType(f.DynamicValueSourceType)
		if err != nil {
			return value, withPath(err, joinPath(path, "dynamicValueSourceType"))
		}
		value.DynamicValue = &DynamicValue[T]{
			SourceType:      sourceType,
			SourceAttribute: f.DynamicValueSourceAttribute,
			Inherit:         f.DynamicValueInherit != nil && *f.DynamicValueInherit,
		}
	}

	return value, nil
}
