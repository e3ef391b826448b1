// Package jsontree holds a generic, order-preserving JSON value and the
// schema-free lookups used to read vendor responses whose shape is not known
// up front.
package jsontree

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/valyala/fastjson"
)

// Kind is the JSON type of a Value.
type Kind int

const (
	Null Kind = iota
	Bool
	Number
	String
	Array
	Object
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Member is one key/value pair of an object, in document order.
type Member struct {
	Key   string
	Value *Value
}

// Value is a tagged union over the six JSON kinds. A nil *Value behaves as
// an absent value: every accessor reports ok == false on it.
type Value struct {
	kind    Kind
	boolean bool
	number  float64
	text    string
	items   []*Value
	members []Member
}

// Parse decodes data into a Value tree. Object members keep their document
// order, which the first-match lookups depend on.
func Parse(data []byte) (*Value, error) {
	var p fastjson.Parser
	v, err := p.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse json: %w", err)
	}
	return convert(v), nil
}

// ParseString is Parse for string input.
func ParseString(s string) (*Value, error) {
	return Parse([]byte(s))
}

// fastjson rejects documents nested deeper than its own MaxDepth, so the
// recursion here is bounded.
func convert(v *fastjson.Value) *Value {
	switch v.Type() {
	case fastjson.TypeObject:
		obj, _ := v.Object()
		out := &Value{kind: Object}
		obj.Visit(func(key []byte, child *fastjson.Value) {
			out.members = append(out.members, Member{Key: string(key), Value: convert(child)})
		})
		return out
	case fastjson.TypeArray:
		arr, _ := v.Array()
		out := &Value{kind: Array, items: make([]*Value, 0, len(arr))}
		for _, item := range arr {
			out.items = append(out.items, convert(item))
		}
		return out
	case fastjson.TypeString:
		b, _ := v.StringBytes()
		return &Value{kind: String, text: string(b)}
	case fastjson.TypeNumber:
		f, _ := v.Float64()
		return &Value{kind: Number, number: f}
	case fastjson.TypeTrue:
		return &Value{kind: Bool, boolean: true}
	case fastjson.TypeFalse:
		return &Value{kind: Bool, boolean: false}
	default:
		return &Value{kind: Null}
	}
}

func NewNull() *Value                 { return &Value{kind: Null} }
func NewBool(b bool) *Value           { return &Value{kind: Bool, boolean: b} }
func NewNumber(f float64) *Value      { return &Value{kind: Number, number: f} }
func NewString(s string) *Value       { return &Value{kind: String, text: s} }
func NewArray(items ...*Value) *Value { return &Value{kind: Array, items: items} }

// NewObject builds an object from members, keeping their order.
func NewObject(members ...Member) *Value {
	return &Value{kind: Object, members: members}
}

// Kind returns the kind of v, or Null when v is nil.
func (v *Value) Kind() Kind {
	if v == nil {
		return Null
	}
	return v.kind
}

func (v *Value) IsObject() bool { return v != nil && v.kind == Object }
func (v *Value) IsArray() bool  { return v != nil && v.kind == Array }
func (v *Value) IsString() bool { return v != nil && v.kind == String }
func (v *Value) IsNumber() bool { return v != nil && v.kind == Number }

func (v *Value) Str() (string, bool) {
	if v == nil || v.kind != String {
		return "", false
	}
	return v.text, true
}

func (v *Value) Float() (float64, bool) {
	if v == nil || v.kind != Number {
		return 0, false
	}
	return v.number, true
}

// Int returns the number as an int only when it is integral and in range.
func (v *Value) Int() (int, bool) {
	f, ok := v.Float()
	if !ok || f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}

func (v *Value) Boolean() (bool, bool) {
	if v == nil || v.kind != Bool {
		return false, false
	}
	return v.boolean, true
}

// Items returns the elements of an array, nil otherwise.
func (v *Value) Items() []*Value {
	if v == nil || v.kind != Array {
		return nil
	}
	return v.items
}

// Members returns the members of an object, nil otherwise.
func (v *Value) Members() []Member {
	if v == nil || v.kind != Object {
		return nil
	}
	return v.members
}

// Get returns the first member whose key equals key case-insensitively.
func (v *Value) Get(key string) (*Value, bool) {
	for _, m := range v.Members() {
		if strings.EqualFold(m.Key, key) {
			return m.Value, true
		}
	}
	return nil, false
}

// GetExact is Get with a case-sensitive key comparison.
func (v *Value) GetExact(key string) (*Value, bool) {
	for _, m := range v.Members() {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// Index returns the i-th element of an array.
func (v *Value) Index(i int) (*Value, bool) {
	items := v.Items()
	if i < 0 || i >= len(items) {
		return nil, false
	}
	return items[i], true
}

// Lookup follows path from v. Segments are object keys (case-insensitive)
// or, on arrays, decimal indices.
func (v *Value) Lookup(path ...string) (*Value, bool) {
	current := v
	for _, segment := range path {
		switch current.Kind() {
		case Object:
			next, ok := current.Get(segment)
			if !ok {
				return nil, false
			}
			current = next
		case Array:
			i, err := strconv.Atoi(segment)
			if err != nil {
				return nil, false
			}
			next, ok := current.Index(i)
			if !ok {
				return nil, false
			}
			current = next
		default:
			return nil, false
		}
	}
	return current, current != nil
}

// ReadString is Lookup followed by Str.
func (v *Value) ReadString(path ...string) (string, bool) {
	found, ok := v.Lookup(path...)
	if !ok {
		return "", false
	}
	return found.Str()
}

// ReadInt is Lookup followed by Int.
func (v *Value) ReadInt(path ...string) (int, bool) {
	found, ok := v.Lookup(path...)
	if !ok {
		return 0, false
	}
	return found.Int()
}

// ReadFloat is Lookup followed by Float.
func (v *Value) ReadFloat(path ...string) (float64, bool) {
	found, ok := v.Lookup(path...)
	if !ok {
		return 0, false
	}
	return found.Float()
}

// Interface converts v into plain Go values: map[string]any, []any,
// string, float64, bool or nil.
func (v *Value) Interface() any {
	switch v.Kind() {
	case Bool:
		return v.boolean
	case Number:
		return v.number
	case String:
		return v.text
	case Array:
		out := make([]any, 0, len(v.items))
		for _, item := range v.items {
			out = append(out, item.Interface())
		}
		return out
	case Object:
		out := make(map[string]any, len(v.members))
		for _, m := range v.members {
			out[m.Key] = m.Value.Interface()
		}
		return out
	}
	return nil
}
