// Package options models the executor's configuration object: an ordered set of
// camelCase keys, each bound to a string, number, boolean or string list.
package options

import (
	"strconv"
	"strings"
)

// Kind identifies the type held by a Value.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindBool
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Value is a single option value. The zero Value is an empty string.
type Value struct {
	kind  Kind
	text  string
	flag  bool
	items []string
}

// StringValue returns a string Value.
func StringValue(s string) Value {
	return Value{kind: KindString, text: s}
}

// NumberValue returns a numeric Value rendered in its shortest decimal form.
// Exponents are never used: 1e21 renders as 1000000000000000000000 and 1e-7 as
// 0.0000001, since runner flags are parsed as plain integers.
func NumberValue(f float64) Value {
	return Value{kind: KindNumber, text: strconv.FormatFloat(f, 'f', -1, 64)}
}

// BoolValue returns a boolean Value.
func BoolValue(b bool) Value {
	return Value{kind: KindBool, flag: b}
}

// ListValue returns a list Value. The items are copied.
func ListValue(items ...string) Value {
	return Value{kind: KindList, items: append([]string(nil), items...)}
}

func (v Value) Kind() Kind {
	return v.kind
}

// AsBool reports the boolean held by v and whether v is a boolean at all.
func (v Value) AsBool() (bool, bool) {
	return v.flag, v.kind == KindBool
}

// Items returns a copy of the list held by v, or nil when v is not a list.
func (v Value) Items() []string {
	if v.kind != KindList {
		return nil
	}
	return append([]string(nil), v.items...)
}

// String renders v the way it appears after "=" on a command line.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.flag)
	case KindList:
		return strings.Join(v.items, ",")
	default:
		return v.text
	}
}

// Equal reports whether v and o hold the same kind and contents.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind || v.text != o.text || v.flag != o.flag || len(v.items) != len(o.items) {
		return false
	}
	for i := range v.items {
		if v.items[i] != o.items[i] {
			return false
		}
	}
	return true
}

// Entry is one key/value pair of an Options set.
type Entry struct {
	Key   string
	Value Value
}

// Options is an insertion-ordered option set. The zero value is ready to use.
type Options struct {
	entries []Entry
	index   map[string]int
}

// New returns an Options populated with entries in the given order.
// A repeated key keeps its first position and takes the last value.
func New(entries ...Entry) *Options {
	o := &Options{}
	for _, e := range entries {
		o.Set(e.Key, e.Value)
	}
	return o
}

// Set assigns value to key. An existing key keeps its position; a new key is appended.
func (o *Options) Set(key string, value Value) {
	if o.index == nil {
		o.index = make(map[string]int)
	}
	if i, ok := o.index[key]; ok {
		o.entries[i].Value = value
		return
	}
	o.index[key] = len(o.entries)
	o.entries = append(o.entries, Entry{Key: key, Value: value})
}

// Get returns the value for key.
func (o *Options) Get(key string) (Value, bool) {
	if o == nil || o.index == nil {
		return Value{}, false
	}
	i, ok := o.index[key]
	if !ok {
		return Value{}, false
	}
	return o.entries[i].Value, true
}

// Delete removes key, preserving the order of the remaining entries.
func (o *Options) Delete(key string) {
	if o == nil || o.index == nil {
		return
	}
	i, ok := o.index[key]
	if !ok {
		return
	}
	o.entries = append(o.entries[:i], o.entries[i+1:]...)
	delete(o.index, key)
	for j := i; j < len(o.entries); j++ {
		o.index[o.entries[j].Key] = j
	}
}

func (o *Options) Len() int {
	if o == nil {
		return 0
	}
	return len(o.entries)
}

// Entries returns a copy of the entries in insertion order.
func (o *Options) Entries() []Entry {
	if o == nil {
		return nil
	}
	out := make([]Entry, len(o.entries))
	copy(out, o.entries)
	return out
}

// Keys returns the keys in insertion order.
func (o *Options) Keys() []string {
	if o == nil {
		return nil
	}
	keys := make([]string, 0, len(o.entries))
	for _, e := range o.entries {
		keys = append(keys, e.Key)
	}
	return keys
}

// Bool reports whether key is set to boolean true.
func (o *Options) Bool(key string) bool {
	v, ok := o.Get(key)
	if !ok {
		return false
	}
	b, isBool := v.AsBool()
	return isBool && b
}

// String returns the rendered value of key, or "" when it is unset.
func (o *Options) String(key string) string {
	v, ok := o.Get(key)
	if !ok {
		return ""
	}
	return v.String()
}

// Merge layers overrides on top of base with object-spread semantics: keys already
// present keep their position, new keys are appended in the order they appear.
// None of the inputs are modified.
func Merge(base *Options, overrides ...*Options) *Options {
	out := New(base.Entries()...)
	for _, over := range overrides {
		for _, e := range over.Entries() {
			out.Set(e.Key, e.Value)
		}
	}
	return out
}
