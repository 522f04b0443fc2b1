package types

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ValueKind tags the variant held by a Value.
type ValueKind int

const (
	KindString ValueKind = iota
	KindNumber
	KindList
	KindMap
)

// String returns the template variable type name for the kind.
func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// Value is a template variable value: String | Number | List<String> | Map<String,String>.
// The zero Value is the empty string.
type Value struct {
	kind ValueKind
	str  string
	num  float64
	list []string
	m    map[string]string
}

// Values maps variable names to values.
type Values map[string]Value

// String constructs a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number constructs a numeric value.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// List constructs a list value. The slice is copied.
func List(items ...string) Value {
	cp := make([]string, len(items))
	copy(cp, items)
	return Value{kind: KindList, list: cp}
}

// Map constructs a map value. The map is copied.
func Map(m map[string]string) Value {
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return Value{kind: KindMap, m: cp}
}

// Kind reports which variant the value holds.
func (v Value) Kind() ValueKind { return v.kind }

// Items returns the list items (nil for non-list values).
func (v Value) Items() []string {
	if v.kind != KindList {
		return nil
	}
	cp := make([]string, len(v.list))
	copy(cp, v.list)
	return cp
}

// Entries returns the map entries (nil for non-map values).
func (v Value) Entries() map[string]string {
	if v.kind != KindMap {
		return nil
	}
	cp := make(map[string]string, len(v.m))
	for k, val := range v.m {
		cp[k] = val
	}
	return cp
}

// Float returns the numeric value and whether the value is a number.
func (v Value) Float() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// String renders the value for prompt interpolation.
// Lists are joined with ", "; maps become a "- key: value" block sorted by key.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindList:
		return strings.Join(v.list, ", ")
	case KindMap:
		keys := make([]string, 0, len(v.m))
		for k := range v.m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		lines := make([]string, 0, len(keys))
		for _, k := range keys {
			lines = append(lines, fmt.Sprintf("- %s: %s", k, v.m[k]))
		}
		return strings.Join(lines, "\n")
	default:
		return v.str
	}
}

// ValueOf converts an untyped boundary value into a Value.
// Accepted: string, bool, integer and float types, []string, []any of scalars,
// map[string]string and map[string]any of scalars, and Value itself.
func ValueOf(raw any) (Value, error) {
	switch x := raw.(type) {
	case Value:
		return x, nil
	case string:
		return String(x), nil
	case bool:
		return String(strconv.FormatBool(x)), nil
	case int:
		return Number(float64(x)), nil
	case int32:
		return Number(float64(x)), nil
	case int64:
		return Number(float64(x)), nil
	case float32:
		return Number(float64(x)), nil
	case float64:
		return Number(x), nil
	case []string:
		return List(x...), nil
	case []any:
		items := make([]string, 0, len(x))
		for i, item := range x {
			s, err := scalarString(item)
			if err != nil {
				return Value{}, fmt.Errorf("list item %d: %w", i, err)
			}
			items = append(items, s)
		}
		return List(items...), nil
	case map[string]string:
		return Map(x), nil
	case map[string]any:
		m := make(map[string]string, len(x))
		for k, item := range x {
			s, err := scalarString(item)
			if err != nil {
				return Value{}, fmt.Errorf("map entry %q: %w", k, err)
			}
			m[k] = s
		}
		return Map(m), nil
	default:
		return Value{}, fmt.Errorf("unsupported variable type %T", raw)
	}
}

// ValuesOf converts a map of untyped values, failing on the first unsupported entry.
func ValuesOf(raw map[string]any) (Values, error) {
	out := make(Values, len(raw))
	for k, item := range raw {
		v, err := ValueOf(item)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}

// Clone returns a shallow copy of the values map.
func (vs Values) Clone() Values {
	out := make(Values, len(vs))
	for k, v := range vs {
		out[k] = v
	}
	return out
}

func scalarString(item any) (string, error) {
	switch x := item.(type) {
	case string:
		return x, nil
	case bool:
		return strconv.FormatBool(x), nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), nil
	default:
		return "", fmt.Errorf("unsupported scalar type %T", item)
	}
}
