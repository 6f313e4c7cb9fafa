package parser

import (
	"encoding/json"
	"sort"
	"time"
)

// Root container names understood by Parse
const (
	ContainerVCard = "VCARD"
	ContainerVMsg  = "VMSG"
)

// RawKey is the only key that ever holds captured raw text
const RawKey = "VBODY"

// Kind tells which of the three shapes a Value holds
type Kind int

const (
	KindProperty Kind = iota + 1
	KindObject
	KindRaw
)

// Param is a property parameter. A bare parameter such as PREF is stored
// with Flag set and an empty Value.
type Param struct {
	Value string
	Flag  bool
}

// Property is a single structured KEY;PARAMS:VALUE line.
// Exactly one of Value or Values is meaningful: Values is non-nil only
// when the raw value contained at least one ';'.
type Property struct {
	Meta   map[string]Param
	Value  string
	Values []string
}

// Multi reports whether the property was split into several values
func (p *Property) Multi() bool {
	return p.Values != nil
}

// Value is one entry of an Object: a property, a nested block or raw text
type Value struct {
	Kind     Kind
	Property *Property
	Object   *Object
	Raw      string
}

// Object is a BEGIN/END block. Keys are case-sensitive and a later
// occurrence of a key replaces the earlier one.
type Object struct {
	fields map[string]Value
}

// NewObject returns an empty block
func NewObject() *Object {
	return &Object{fields: make(map[string]Value)}
}

func (o *Object) set(key string, v Value) {
	o.fields[key] = v
}

// Get returns the value stored under key
func (o *Object) Get(key string) (Value, bool) {
	if o == nil {
		return Value{}, false
	}
	v, ok := o.fields[key]
	return v, ok
}

// Property returns the property stored under key, if key holds one
func (o *Object) Property(key string) (*Property, bool) {
	v, ok := o.Get(key)
	if !ok || v.Kind != KindProperty {
		return nil, false
	}
	return v.Property, true
}

// Object returns the nested block stored under key, if key holds one
func (o *Object) Object(key string) (*Object, bool) {
	v, ok := o.Get(key)
	if !ok || v.Kind != KindObject {
		return nil, false
	}
	return v.Object, true
}

// Raw returns the captured text stored under key, if key holds raw text
func (o *Object) Raw(key string) (string, bool) {
	v, ok := o.Get(key)
	if !ok || v.Kind != KindRaw {
		return "", false
	}
	return v.Raw, true
}

// Text returns the single value of the property under key.
// Missing keys, non-property entries and multi-valued properties all
// read as the empty string.
func (o *Object) Text(key string) string {
	p, ok := o.Property(key)
	if !ok {
		return ""
	}
	return p.Value
}

// Lookup walks nested blocks, e.g. Lookup("VENV", "VCARD").
// It returns nil if any step is missing or is not a block.
func (o *Object) Lookup(path ...string) *Object {
	cur := o
	for _, key := range path {
		next, ok := cur.Object(key)
		if !ok {
			return nil
		}
		cur = next
	}
	return cur
}

// Keys returns the keys of the block in sorted order
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	keys := make([]string, 0, len(o.fields))
	for k := range o.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of keys in the block
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.fields)
}

// MarshalJSON renders the block in the legacy tree shape:
// properties as {"meta":..,"value":..} or {"meta":..,"values":[..]},
// nested blocks as objects and raw text as a plain string.
func (o *Object) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("null"), nil
	}
	out := make(map[string]json.RawMessage, len(o.fields))
	for k, v := range o.fields {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		out[k] = b
	}
	return json.Marshal(out)
}

// MarshalJSON renders whichever shape the value holds
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindProperty:
		return json.Marshal(v.Property)
	case KindObject:
		return json.Marshal(v.Object)
	case KindRaw:
		return json.Marshal(v.Raw)
	default:
		return []byte("null"), nil
	}
}

// MarshalJSON renders a property with only one of value/values present
func (p *Property) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, 2)
	if len(p.Meta) > 0 {
		meta := make(map[string]interface{}, len(p.Meta))
		for name, param := range p.Meta {
			if param.Flag {
				meta[name] = true
			} else {
				meta[name] = param.Value
			}
		}
		out["meta"] = meta
	}
	if p.Multi() {
		out["values"] = p.Values
	} else {
		out["value"] = p.Value
	}
	return json.Marshal(out)
}

// Body is the decoded content of a VBODY block
type Body struct {
	Date time.Time
	Body string
}
