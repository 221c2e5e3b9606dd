package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "null"
	}
}

// Value is a closed recursive variant used for the free-form configuration
// crossing the adapter boundary: string | number | bool | list of Value | Map.
// The zero Value is null and is what a JSON/YAML null decodes to.
// Values are immutable, accessors return copies of lists and maps.
type Value struct {
	kind    Kind
	str     string
	num     float64
	boolean bool
	list    []Value
	obj     Map
}

// Map is a string keyed map of Values.
type Map map[string]Value

func Null() Value { return Value{} }

func String(s string) Value { return Value{kind: KindString, str: s} }

func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

func Int(i int) Value { return Value{kind: KindNumber, num: float64(i)} }

func Bool(b bool) Value { return Value{kind: KindBool, boolean: b} }

func List(items ...Value) Value {
	list := make([]Value, len(items))
	copy(list, items)
	return Value{kind: KindList, list: list}
}

func Strings(items ...string) Value {
	list := make([]Value, 0, len(items))
	for _, item := range items {
		list = append(list, String(item))
	}
	return Value{kind: KindList, list: list}
}

func Object(m Map) Value { return Value{kind: KindMap, obj: m.Clone()} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsString() (string, bool) {
	return v.str, v.kind == KindString
}

func (v Value) AsNumber() (float64, bool) {
	return v.num, v.kind == KindNumber
}

func (v Value) AsBool() (bool, bool) {
	return v.boolean, v.kind == KindBool
}

func (v Value) AsList() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	list := make([]Value, len(v.list))
	copy(list, v.list)
	return list, true
}

func (v Value) AsMap() (Map, bool) {
	if v.kind != KindMap {
		return nil, false
	}
	return v.obj.Clone(), true
}

// ToInt coerces the value to an int: numbers are truncated and must fit in an
// int, booleans are 0/1 and strings must hold a base 10 integer.
func (v Value) ToInt() (int, error) {
	switch v.kind {
	case KindNumber:
		// MaxInt rounds up to a power of two as a float, so it is exclusive
		if math.IsNaN(v.num) || v.num < math.MinInt || v.num >= math.MaxInt {
			return 0, fmt.Errorf("cannot convert %v to an integer", v.num)
		}
		return int(v.num), nil
	case KindBool:
		if v.boolean {
			return 1, nil
		}
		return 0, nil
	case KindString:
		i, err := strconv.Atoi(strings.TrimSpace(v.str))
		if err != nil {
			return 0, fmt.Errorf("cannot convert %q to an integer", v.str)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("cannot convert a %s to an integer", v.kind)
	}
}

// Any returns the plain Go representation (string, float64, bool, []any,
// map[string]any or nil).
func (v Value) Any() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.boolean
	case KindList:
		items := make([]any, 0, len(v.list))
		for _, item := range v.list {
			items = append(items, item.Any())
		}
		return items
	case KindMap:
		return v.obj.Any()
	default:
		return nil
	}
}

// Text renders the value the way it is passed on a command line: strings
// verbatim, numbers in their shortest form, lists and maps as compact JSON.
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.boolean)
	case KindNull:
		return ""
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == other.str
	case KindNumber:
		return v.num == other.num
	case KindBool:
		return v.boolean == other.boolean
	case KindList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		return v.obj.Equal(other.obj)
	default:
		return true
	}
}

func (v Value) String() string {
	if v.kind == KindString {
		return strconv.Quote(v.str)
	}
	if v.kind == KindNull {
		return "null"
	}
	return v.Text()
}

// FromAny converts decoded JSON/YAML data (or plain Go literals) into a Value.
func FromAny(data any) (Value, error) {
	switch t := data.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case Map:
		return Object(t), nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case float64:
		return Number(t), nil
	case float32:
		return Number(float64(t)), nil
	case int:
		return Int(t), nil
	case int8:
		return Number(float64(t)), nil
	case int16:
		return Number(float64(t)), nil
	case int32:
		return Number(float64(t)), nil
	case int64:
		return Number(float64(t)), nil
	case uint:
		return Number(float64(t)), nil
	case uint8:
		return Number(float64(t)), nil
	case uint16:
		return Number(float64(t)), nil
	case uint32:
		return Number(float64(t)), nil
	case uint64:
		return Number(float64(t)), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Null(), err
		}
		return Number(f), nil
	case []string:
		return Strings(t...), nil
	case []any:
		items := make([]Value, 0, len(t))
		for _, item := range t {
			value, err := FromAny(item)
			if err != nil {
				return Null(), err
			}
			items = append(items, value)
		}
		return Value{kind: KindList, list: items}, nil
	case map[string]any:
		m, err := MapFromAny(t)
		if err != nil {
			return Null(), err
		}
		return Value{kind: KindMap, obj: m}, nil
	default:
		return Null(), fmt.Errorf("unsupported value type %T", data)
	}
}

// MapFromAny converts a decoded JSON object into a Map.
func MapFromAny(data map[string]any) (Map, error) {
	m := make(Map, len(data))
	for key, item := range data {
		value, err := FromAny(item)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}
		m[key] = value
	}
	return m, nil
}

// MustMap is MapFromAny for literals known to be valid, it panics otherwise.
func MustMap(data map[string]any) Map {
	m, err := MapFromAny(data)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Map) Lookup(key string) (Value, bool) {
	if m == nil {
		return Null(), false
	}
	value, ok := m[key]
	return value, ok
}

func (m Map) Has(key string) bool {
	_, ok := m.Lookup(key)
	return ok
}

// Keys returns the keys in sorted order.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a deep copy, a nil map clones to an empty map.
func (m Map) Clone() Map {
	clone := make(Map, len(m))
	for key, value := range m {
		clone[key] = value.clone()
	}
	return clone
}

func (v Value) clone() Value {
	switch v.kind {
	case KindList:
		list := make([]Value, 0, len(v.list))
		for _, item := range v.list {
			list = append(list, item.clone())
		}
		return Value{kind: KindList, list: list}
	case KindMap:
		return Value{kind: KindMap, obj: v.obj.Clone()}
	default:
		return v
	}
}

func (m Map) Any() map[string]any {
	out := make(map[string]any, len(m))
	for key, value := range m {
		out[key] = value.Any()
	}
	return out
}

func (m Map) Equal(other Map) bool {
	if len(m) != len(other) {
		return false
	}
	for key, value := range m {
		otherValue, ok := other[key]
		if !ok || !value.Equal(otherValue) {
			return false
		}
	}
	return true
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return nil, fmt.Errorf("cannot marshal %v as JSON", v.num)
		}
	case KindList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	case KindMap:
		if v.obj == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(v.obj)
	}
	return json.Marshal(v.Any())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(&raw); err != nil {
		return err
	}
	value, err := FromAny(raw)
	if err != nil {
		return err
	}
	*v = value
	return nil
}

func (v Value) MarshalYAML() (any, error) {
	switch v.kind {
	case KindList:
		if v.list == nil {
			return []Value{}, nil
		}
		return v.list, nil
	case KindMap:
		if v.obj == nil {
			return map[string]Value{}, nil
		}
		return map[string]Value(v.obj), nil
	case KindNumber:
		// integral numbers are written without a fraction so they read back as ints
		if v.num == math.Trunc(v.num) && math.Abs(v.num) < 1<<53 {
			return int64(v.num), nil
		}
		return v.num, nil
	}
	return v.Any(), nil
}

func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	value, err := FromAny(normalizeYAML(raw))
	if err != nil {
		return err
	}
	*v = value
	return nil
}

// yaml.v3 decodes nested mappings with non-string keys as map[any]any
func normalizeYAML(data any) any {
	switch t := data.(type) {
	case map[string]any:
		for key, item := range t {
			t[key] = normalizeYAML(item)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for key, item := range t {
			out[fmt.Sprintf("%v", key)] = normalizeYAML(item)
		}
		return out
	case []any:
		for i, item := range t {
			t[i] = normalizeYAML(item)
		}
		return t
	default:
		return data
	}
}
