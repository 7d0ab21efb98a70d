// Package schema validates decoded JSON values against a small subset of
// JSON Schema: type, enum, minimum/maximum, minLength/maxLength, items,
// properties, required and additionalProperties.
//
// Validation never short-circuits. Every applicable violation is reported as
// a flat list of path+message pairs. Paths are rooted at "" and use ".key"
// for object members and "[i]" for array elements.
package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"unicode/utf8"
)

// Error is a single validation failure.
type Error struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Validate checks value against schema and returns every violation found.
// A nil or empty schema accepts anything.
func Validate(value any, schema map[string]any) []Error {
	v := &validator{}
	v.check(value, schema, "")
	return v.errs
}

type validator struct {
	errs []Error
}

func (v *validator) add(path, format string, args ...any) {
	v.errs = append(v.errs, Error{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) check(value any, schema map[string]any, path string) {
	if len(schema) == 0 {
		return
	}

	typeOK := true
	if want, ok := schema["type"].(string); ok {
		if known, matches := matchesType(value, want); known && !matches {
			v.add(path, "Expected type %s, got %s", want, typeName(value))
			typeOK = false
		}
	}

	if enum, ok := schema["enum"].([]any); ok && !inEnum(value, enum) {
		v.add(path, "Value must be one of: %s", encode(enum))
	}

	if !typeOK {
		return
	}

	if n, ok := toFloat(value); ok {
		if min, ok := toFloat(schema["minimum"]); ok && n < min {
			v.add(path, "Value must be >= %s", formatNumber(min))
		}
		if max, ok := toFloat(schema["maximum"]); ok && n > max {
			v.add(path, "Value must be <= %s", formatNumber(max))
		}
	}

	if s, ok := value.(string); ok {
		length := utf8.RuneCountInString(s)
		if min, ok := toFloat(schema["minLength"]); ok && float64(length) < min {
			v.add(path, "String length must be >= %s", formatNumber(min))
		}
		if max, ok := toFloat(schema["maxLength"]); ok && float64(length) > max {
			v.add(path, "String length must be <= %s", formatNumber(max))
		}
	}

	if arr, ok := value.([]any); ok {
		if items, ok := schema["items"].(map[string]any); ok {
			for i, item := range arr {
				v.check(item, items, path+"["+strconv.Itoa(i)+"]")
			}
		}
	}

	if obj, ok := value.(map[string]any); ok {
		v.checkObject(obj, schema, path)
	} else if arr, ok := value.([]any); ok && len(arr) == 0 && schema["type"] == "object" {
		// An empty array stands in for an empty object.
		v.checkObject(map[string]any{}, schema, path)
	}
}

func (v *validator) checkObject(obj map[string]any, schema map[string]any, path string) {
	props, _ := schema["properties"].(map[string]any)

	for _, name := range requiredNames(schema["required"]) {
		if _, ok := obj[name]; !ok {
			v.add(path, "Missing required property: %s", name)
		}
	}

	for _, key := range sortedKeys(obj) {
		child := joinKey(path, key)
		if propSchema, declared := props[key]; declared {
			if ps, ok := propSchema.(map[string]any); ok {
				v.check(obj[key], ps, child)
			}
			continue
		}
		switch extra := schema["additionalProperties"].(type) {
		case bool:
			if !extra {
				v.add(path, "Additional property not allowed: %s", key)
			}
		case map[string]any:
			v.check(obj[key], extra, child)
		}
	}
}

// matchesType reports whether the type keyword is known and, if so, whether
// value satisfies it. An object schema also accepts an empty array so a bare
// "no params" value passes regardless of how the caller encoded it.
func matchesType(value any, want string) (known, matches bool) {
	switch want {
	case "object":
		if _, ok := value.(map[string]any); ok {
			return true, true
		}
		arr, ok := value.([]any)
		return true, ok && len(arr) == 0
	case "array":
		_, ok := value.([]any)
		return true, ok
	case "string":
		_, ok := value.(string)
		return true, ok
	case "integer":
		n, ok := toFloat(value)
		return true, ok && n == math.Trunc(n) && !math.IsInf(n, 0)
	case "number":
		_, ok := toFloat(value)
		return true, ok
	case "boolean":
		_, ok := value.(bool)
		return true, ok
	case "null":
		return true, value == nil
	default:
		return false, false
	}
}

func typeName(value any) string {
	switch x := value.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		if n, ok := toFloat(x); ok {
			if n == math.Trunc(n) {
				return "integer"
			}
			return "number"
		}
		return fmt.Sprintf("%T", value)
	}
}

func toFloat(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func inEnum(value any, enum []any) bool {
	for _, candidate := range enum {
		if a, ok := toFloat(value); ok {
			if b, ok := toFloat(candidate); ok && a == b {
				return true
			}
			continue
		}
		if reflect.DeepEqual(value, candidate) {
			return true
		}
	}
	return false
}

func requiredNames(raw any) []string {
	switch r := raw.(type) {
	case []string:
		return r
	case []any:
		names := make([]string, 0, len(r))
		for _, item := range r {
			if s, ok := item.(string); ok {
				names = append(names, s)
			}
		}
		return names
	default:
		return nil
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func joinKey(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

func encode(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
