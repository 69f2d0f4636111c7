// Package selector extracts values from decoded JSON records by dot path and
// evaluates predicate rules against them.
package selector

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Select walks path through value. Segments are object keys, or array
// indices when the current value is an array. An empty path returns value
// itself. A missing key or out-of-range index reports false.
func Select(value any, path string) (any, bool) {
	path = strings.TrimSpace(path)
	if path == "" {
		return value, true
	}

	cur := value
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// Truthy reports JavaScript truthiness: false, 0, NaN, "", null and absent
// values are falsy; everything else, including empty objects and arrays, is
// truthy.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0 && !math.IsNaN(t)
	case float32:
		return t != 0 && !math.IsNaN(float64(t))
	case int:
		return t != 0
	case int64:
		return t != 0
	case int32:
		return t != 0
	}
	return true
}

func toFloat64(val any) (float64, bool) {
	switch v := val.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

func compareNumbers(a, b any) (int, error) {
	aNum, ok := toFloat64(a)
	if !ok {
		return 0, fmt.Errorf("%v is not a number", a)
	}
	bNum, ok := toFloat64(b)
	if !ok {
		return 0, fmt.Errorf("%v is not a number", b)
	}
	switch {
	case aNum < bNum:
		return -1, nil
	case aNum > bNum:
		return 1, nil
	}
	return 0, nil
}

func equal(a, b any) bool {
	if an, ok := toFloat64(a); ok {
		if bn, ok := toFloat64(b); ok {
			return an == bn
		}
	}
	if reflect.DeepEqual(a, b) {
		return true
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func containsValue(haystack, needle any) bool {
	switch h := haystack.(type) {
	case string:
		return strings.Contains(h, fmt.Sprint(needle))
	case []any:
		for _, item := range h {
			if equal(item, needle) {
				return true
			}
		}
		return false
	case map[string]any:
		_, ok := h[fmt.Sprint(needle)]
		return ok
	}
	return strings.Contains(fmt.Sprint(haystack), fmt.Sprint(needle))
}
