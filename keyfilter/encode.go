package keyfilter

// Encode converts a KeyFilter into its flat wire form. Every nested record of
// a COMPLEX predicate repeats the key and value type of kf, so each record is
// self-describing.
func Encode(kf *KeyFilter) (*FlatKeyFilter, error) {
	if kf == nil {
		return nil, argumentError("", "key filter is nil")
	}
	if kf.Key == nil {
		return nil, argumentError("key", "entity key is nil")
	}
	if kf.Predicate == nil {
		return nil, argumentError("predicate", "predicate is nil")
	}
	return encodePredicate(kf.Key, kf.ValueType, kf.Predicate, "")
}

func encodePredicate(key *EntityKey, valueType *EntityKeyValueType, predicate KeyFilterPredicate, path string) (*FlatKeyFilter, error) {
	f := &FlatKeyFilter{
		KeyType:       string(key.Type),
		Key:           key.Key,
		PredicateType: string(predicate.Type()),
	}
	if valueType != nil {
		f.ValueType = string(*valueType)
	}

	switch p := predicate.(type) {
	case *StringFilterPredicate:
		if p == nil {
			return nil, argumentError(path, "predicate is nil")
		}
		f.Operation = string(p.Operation)
		ignoreCase := p.IgnoreCase
		f.IgnoreCase = &ignoreCase
		flattenValue(f, p.Value)

	case *NumericFilterPredicate:
		if p == nil {
			return nil, argumentError(path, "predicate is nil")
		}
		f.Operation = string(p.Operation)
		flattenValue(f, p.Value)

	case *BooleanFilterPredicate:
		if p == nil {
			return nil, argumentError(path, "predicate is nil")
		}
		f.Operation = string(p.Operation)
		flattenValue(f, p.Value)

	case *ComplexFilterPredicate:
		if p == nil {
			return nil, argumentError(path, "predicate is nil")
		}
		f.ComplexOperation = string(p.Operation)
		f.NestedPredicates = make([]FlatKeyFilter, 0, len(p.Predicates))
		for i, child := range p.Predicates {
			childPath := indexPath(joinPath(path, "predicates"), i)
			if child == nil {
				return nil, argumentError(childPath, "predicate is nil")
			}
			nested, err := encodePredicate(key, valueType, child, childPath)
			if err != nil {
				return nil, err
			}
			f.NestedPredicates = append(f.NestedPredicates, *nested)
		}
	}

	return f, nil
}

func flattenValue[T any](f *FlatKeyFilter, value FilterPredicateValue[T]) {
	f.DefaultValue = wireValue(value.DefaultValue)
	f.UserValue = wireValue(value.UserValue)
	if dv := value.DynamicValue; dv != nil {
		f.DynamicValueSourceType = string(dv.SourceType)
		f.DynamicValueSourceAttribute = dv.SourceAttribute
		inherit := dv.Inherit
		f.DynamicValueInherit = &inherit
	}
}
