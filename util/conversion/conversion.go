// Package conversion provides utilities for converting loosely typed wire
// values (as produced by JSON, MessagePack or tool-call argument maps).
package conversion

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// ToString converts a value to string.
func ToString(value interface{}) (string, error) {
	if value == nil {
		return "", nil
	}

	switch v := value.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case int:
		return strconv.Itoa(v), nil
	case int8:
		return strconv.FormatInt(int64(v), 10), nil
	case int16:
		return strconv.FormatInt(int64(v), 10), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	case []byte:
		return string(v), nil
	default:
		// For complex types, try JSON
		kind := reflect.TypeOf(value).Kind()
		if kind == reflect.Struct || kind == reflect.Map || kind == reflect.Slice {
			b, err := json.Marshal(value)
			if err == nil {
				return string(b), nil
			}
		}
		return fmt.Sprintf("%v", v), nil
	}
}

// ToFloat64 converts a numeric value to float64. Strings are parsed after
// trimming surrounding whitespace; booleans and other kinds are rejected.
func ToFloat64(value interface{}) (float64, error) {
	if value == nil {
		return 0, nil
	}

	switch v := value.(type) {
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int8:
		return float64(v), nil
	case int16:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint:
		return float64(v), nil
	case uint8:
		return float64(v), nil
	case uint16:
		return float64(v), nil
	case uint32:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	default:
		s, err := ToString(value)
		if err != nil {
			return 0, err
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, fmt.Errorf("cannot convert %T to float64: %w", value, err)
		}
		return f, nil
	}
}

// ToBool converts a value to bool. Only booleans and the strings "true" and
// "false" (in any letter case) are accepted.
func ToBool(value interface{}) (bool, error) {
	if value == nil {
		return false, nil
	}

	if v, ok := value.(bool); ok {
		return v, nil
	}

	s, err := ToString(value)
	if err != nil {
		return false, err
	}
	switch {
	case strings.EqualFold(s, "true"):
		return true, nil
	case strings.EqualFold(s, "false"):
		return false, nil
	default:
		return false, fmt.Errorf("cannot convert %q to bool", s)
	}
}

// ToMap converts a value to map[string]interface{}.
func ToMap(value interface{}) (map[string]interface{}, error) {
	if value == nil {
		return nil, nil
	}

	// Direct map type
	if m, ok := value.(map[string]interface{}); ok {
		return m, nil
	}

	// Try to unmarshal JSON string
	if str, ok := value.(string); ok {
		var result map[string]interface{}
		if err := json.Unmarshal([]byte(str), &result); err != nil {
			return nil, fmt.Errorf("cannot convert string to map[string]interface{}: %w", err)
		}
		return result, nil
	}
	if raw, ok := value.(json.RawMessage); ok {
		var result map[string]interface{}
		if err := json.Unmarshal(raw, &result); err != nil {
			return nil, fmt.Errorf("cannot convert raw JSON to map[string]interface{}: %w", err)
		}
		return result, nil
	}

	val := reflect.ValueOf(value)
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil, nil
		}
		val = val.Elem()
	}

	// Handle struct by converting to map
	if val.Kind() == reflect.Struct {
		data, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal struct: %w", err)
		}

		var result map[string]interface{}
		if err := json.Unmarshal(data, &result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal to map: %w", err)
		}
		return result, nil
	}

	if val.Kind() == reflect.Map {
		result := make(map[string]interface{})
		iter := val.MapRange()
		for iter.Next() {
			keyStr, err := ToString(iter.Key().Interface())
			if err != nil {
				return nil, fmt.Errorf("map key must be convertible to string, got %v", iter.Key().Kind())
			}
			result[keyStr] = iter.Value().Interface()
		}
		return result, nil
	}

	return nil, fmt.Errorf("cannot convert %T to map[string]interface{}", value)
}

// PruneNulls returns a copy of m without nil values, descending into nested
// maps and slices. A JSON null and an absent field mean the same thing to
// callers that use it.
func PruneNulls(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		if v == nil {
			continue
		}
		out[k] = pruneValue(v)
	}
	return out
}

func pruneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return PruneNulls(t)
	case []interface{}:
		out := make([]interface{}, 0, len(t))
		for _, item := range t {
			if item == nil {
				continue
			}
			out = append(out, pruneValue(item))
		}
		return out
	default:
		return v
	}
}
