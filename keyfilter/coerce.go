package keyfilter

import (
	"errors"
	"math"

	"github.com/localrivet/iotmcp/util/conversion"
)

var errNotFinite = errors.New("number is not finite")

// coerceString stringifies any non-nil wire value.
func coerceString(path string, v interface{}) (*string, error) {
	if v == nil {
		return nil, nil
	}
	s, err := conversion.ToString(v)
	if err != nil {
		return nil, formatError(path, v, err)
	}
	return &s, nil
}

// coerceNumber widens numeric wire values to float64 and parses anything
// else from its string form. NaN and the infinities have no JSON form and
// are rejected.
func coerceNumber(path string, v interface{}) (*float64, error) {
	if v == nil {
		return nil, nil
	}
	f, err := conversion.ToFloat64(v)
	if err != nil {
		return nil, formatError(path, v, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, formatError(path, v, errNotFinite)
	}
	return &f, nil
}

// coerceBool passes booleans through and accepts "true"/"false" in any case.
func coerceBool(path string, v interface{}) (*bool, error) {
	if v == nil {
		return nil, nil
	}
	b, err := conversion.ToBool(v)
	if err != nil {
		return nil, formatError(path, v, err)
	}
	return &b, nil
}

// wireValue flattens an optional typed operand back to a wire primitive.
func wireValue[T any](v *T) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
