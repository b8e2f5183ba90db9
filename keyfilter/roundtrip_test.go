package keyfilter

import (
	"encoding/json"
	"math"
	"math/rand"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var words = []string{"sensor-", "temperature", "Boiler", "", "a,b,c", "ÜBER", "42", "true"}

func pick[E any](r *rand.Rand, members []E) E {
	return members[r.Intn(len(members))]
}

func randomValue[T any](r *rand.Rand, next func() T) FilterPredicateValue[T] {
	var v FilterPredicateValue[T]
	if r.Intn(3) > 0 {
		d := next()
		v.DefaultValue = &d
	}
	if r.Intn(2) == 0 {
		u := next()
		v.UserValue = &u
	}
	if r.Intn(3) == 0 {
		v.DynamicValue = &DynamicValue[T]{
			SourceType:      pick(r, DynamicValueSourceTypes()),
			SourceAttribute: pick(r, words),
			Inherit:         r.Intn(2) == 0,
		}
	}
	return v
}

func randomPredicate(r *rand.Rand, depth int) KeyFilterPredicate {
	kind := r.Intn(4)
	if depth <= 0 {
		kind = r.Intn(3)
	}

	switch kind {
	case 0:
		return &StringFilterPredicate{
			Operation:  pick(r, StringOperations()),
			IgnoreCase: r.Intn(2) == 0,
			Value:      randomValue(r, func() string { return pick(r, words) }),
		}
	case 1:
		return &NumericFilterPredicate{
			Operation: pick(r, NumericOperations()),
			Value:     randomValue(r, func() float64 { return math.Round(r.NormFloat64()*10000) / 100 }),
		}
	case 2:
		return &BooleanFilterPredicate{
			Operation: pick(r, BooleanOperations()),
			Value:     randomValue(r, func() bool { return r.Intn(2) == 0 }),
		}
	default:
		n := r.Intn(4)
		children := make([]KeyFilterPredicate, 0, n)
		for i := 0; i < n; i++ {
			children = append(children, randomPredicate(r, depth-1))
		}
		return &ComplexFilterPredicate{Operation: pick(r, ComplexOperations()), Predicates: children}
	}
}

func randomKeyFilter(seed int64, key string, depth int) *KeyFilter {
	r := rand.New(rand.NewSource(seed))
	kf := &KeyFilter{
		Key:       &EntityKey{Type: pick(r, EntityKeyTypes()), Key: key},
		Predicate: randomPredicate(r, depth),
	}
	if r.Intn(2) == 0 {
		vt := pick(r, EntityKeyValueTypes())
		kf.ValueType = &vt
	}
	return kf
}

func TestRoundTripProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("decode inverts encode", prop.ForAll(
		func(seed int64, key string, depth int) bool {
			kf := randomKeyFilter(seed, key, depth)
			f, err := Encode(kf)
			if err != nil {
				return false
			}
			back, err := Decode(f)
			if err != nil {
				return false
			}
			return reflect.DeepEqual(kf, back)
		},
		gen.Int64(),
		gen.AlphaString(),
		gen.IntRange(0, 4),
	))

	properties.Property("flat form survives JSON transport", prop.ForAll(
		func(seed int64, key string, depth int) bool {
			kf := randomKeyFilter(seed, key, depth)
			f, err := Encode(kf)
			if err != nil {
				return false
			}
			data, err := json.Marshal(f)
			if err != nil {
				return false
			}
			var m map[string]interface{}
			if err := json.Unmarshal(data, &m); err != nil {
				return false
			}
			wire, err := FlatFromMap(m)
			if err != nil {
				return false
			}
			back, err := Decode(wire)
			if err != nil {
				return false
			}
			return reflect.DeepEqual(kf, back)
		},
		gen.Int64(),
		gen.AlphaString(),
		gen.IntRange(0, 4),
	))

	properties.Property("flat form survives msgpack", prop.ForAll(
		func(seed int64, depth int) bool {
			kf := randomKeyFilter(seed, "telemetry", depth)
			f, err := Encode(kf)
			if err != nil {
				return false
			}
			data, err := MarshalFlatBinary(f)
			if err != nil {
				return false
			}
			wire, err := UnmarshalFlatBinary(data)
			if err != nil {
				return false
			}
			back, err := Decode(wire)
			if err != nil {
				return false
			}
			return reflect.DeepEqual(kf, back)
		},
		gen.Int64(),
		gen.IntRange(0, 4),
	))

	properties.Property("nested JSON form round-trips", prop.ForAll(
		func(seed int64, depth int) bool {
			kf := randomKeyFilter(seed, "humidity", depth)
			data, err := json.Marshal(kf)
			if err != nil {
				return false
			}
			back, err := ParseKeyFilterJSON(data)
			if err != nil {
				return false
			}
			return reflect.DeepEqual(kf, back)
		},
		gen.Int64(),
		gen.IntRange(0, 4),
	))

	properties.Property("encode never emits nil children for complex", prop.ForAll(
		func(seed int64, depth int) bool {
			f, err := Encode(randomKeyFilter(seed, "k", depth))
			if err != nil {
				return false
			}
			return complexChildrenNonNil(f)
		},
		gen.Int64(),
		gen.IntRange(0, 4),
	))

	properties.TestingRun(t)
}

func complexChildrenNonNil(f *FlatKeyFilter) bool {
	if f.PredicateType == string(PredicateTypeComplex) && f.NestedPredicates == nil {
		return false
	}
	for i := range f.NestedPredicates {
		if !complexChildrenNonNil(&f.NestedPredicates[i]) {
			return false
		}
	}
	return true
}

func TestRoundTripFlatFirst(t *testing.T) {
	// Starting from the wire form: nested records without key fields gain
	// them on re-encode, otherwise the record is unchanged.
	f := flatFromJSON(t, `{
		"keyType": "TIME_SERIES",
		"key": "name",
		"predicateType": "COMPLEX",
		"complexOperation": "AND",
		"nestedPredicates": [
			{"predicateType": "BOOLEAN", "operation": "EQUAL", "defaultValue": true},
			{"predicateType": "STRING", "operation": "STARTS_WITH", "defaultValue": "sensor-", "ignoreCase": false}
		]
	}`)

	kf, err := Decode(f)
	require.NoError(t, err)
	out, err := Encode(kf)
	require.NoError(t, err)

	data, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"keyType": "TIME_SERIES",
		"key": "name",
		"predicateType": "COMPLEX",
		"complexOperation": "AND",
		"nestedPredicates": [
			{"keyType": "TIME_SERIES", "key": "name", "predicateType": "BOOLEAN", "operation": "EQUAL", "defaultValue": true},
			{"keyType": "TIME_SERIES", "key": "name", "predicateType": "STRING", "operation": "STARTS_WITH", "defaultValue": "sensor-", "ignoreCase": false}
		]
	}`, string(data))
}

func TestFlatBinary(t *testing.T) {
	f := &FlatKeyFilter{
		KeyType:       "CLIENT_ATTRIBUTE",
		Key:           "firmware",
		PredicateType: "STRING",
		Operation:     "NOT_IN",
		IgnoreCase:    ptr(true),
		DefaultValue:  "1.0,1.1",
	}

	data, err := MarshalFlatBinary(f)
	require.NoError(t, err)
	back, err := UnmarshalFlatBinary(data)
	require.NoError(t, err)
	assert.Equal(t, f, back)

	_, err = MarshalFlatBinary(nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = UnmarshalFlatBinary([]byte{0xc1})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
