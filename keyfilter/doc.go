// Package keyfilter converts entity key filters between their flat wire form
// and a typed predicate tree.
//
// A FlatKeyFilter is a single record that an AI agent or any JSON caller can
// emit in one structured request. A KeyFilter is the tree consumed by the
// query engine: an EntityKey, an optional value type hint and one of four
// predicate variants (string, numeric, boolean, or a complex AND/OR over
// nested predicates).
//
// # Decoding
//
//	f, err := keyfilter.FlatFromMap(args)
//	if err != nil {
//	    return err
//	}
//	kf, err := keyfilter.Decode(f, keyfilter.WithMaxDepth(16))
//	if err != nil {
//	    return err // *keyfilter.FieldError
//	}
//
// Leaf operands are coerced to the predicate's operand type: numbers accept
// any numeric wire value or a numeric string, booleans accept true/false in
// any letter case, strings accept anything. Every enumeration is validated;
// decoding never falls back to a default on bad input.
//
// # Encoding
//
// Encode is the inverse of Decode. Nested records of a complex predicate
// repeat the key fields of the top-level filter, so Decode(Encode(kf)) is
// structurally equal to kf.
//
// # Errors
//
// All failures are *FieldError values carrying the path of the offending
// field. Test the kind with errors.Is against ErrInvalidEnumValue,
// ErrInvalidValueFormat or ErrInvalidArgument.
//
// The package holds no state; all functions are safe for concurrent use.
package keyfilter
