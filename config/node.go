// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"fmt"
	"math"
	"reflect"
	"sort"

	"github.com/z5labs/otelcompose/config/key"
)

// Kind identifies the shape of a [Node].
type Kind int

const (
	// KindInvalid is the kind of a Node which does not exist,
	// e.g. the result of looking up a missing key.
	KindInvalid Kind = iota
	KindNull
	KindScalar
	KindSequence
	KindMap
)

// String implements the [fmt.Stringer] interface.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	case KindMap:
		return "map"
	default:
		return "missing"
	}
}

// Entry is a single key value pair of a map Node.
type Entry struct {
	Key   string
	Value Node
}

// Node is an immutable, ordered configuration tree.
//
// Maps preserve the order their keys appeared in the source document.
// Every Node knows the path it was reached by so errors can point at
// the offending value, e.g. "tracer_provider.processors[0].batch".
type Node struct {
	kind    Kind
	path    key.Chain
	scalar  any
	items   []Node
	entries []Entry
}

// NullNode returns an explicit null Node.
func NullNode() Node {
	return Node{kind: KindNull}
}

// ScalarOf returns a scalar Node holding v.
// A nil v results in a null Node.
func ScalarOf(v any) Node {
	if v == nil {
		return NullNode()
	}
	return Node{kind: KindScalar, scalar: v}
}

// SeqOf returns a sequence Node of the given items.
func SeqOf(items ...Node) Node {
	return Node{kind: KindSequence, items: items}
}

// MapOf returns a map Node of the given entries. If a key is
// repeated the later entry replaces the earlier one in place.
func MapOf(entries ...Entry) Node {
	n := Node{kind: KindMap, entries: make([]Entry, 0, len(entries))}
	for _, e := range entries {
		n.entries = setEntry(n.entries, e)
	}
	return n
}

func setEntry(entries []Entry, e Entry) []Entry {
	for i := range entries {
		if entries[i].Key == e.Key {
			entries[i].Value = e.Value
			return entries
		}
	}
	return append(entries, e)
}

// FromValue converts plain Go values into a Node. Maps with string keys
// become map Nodes with their keys sorted, slices and arrays become
// sequence Nodes and everything else becomes a scalar.
func FromValue(v any) Node {
	switch x := v.(type) {
	case nil:
		return NullNode()
	case Node:
		return x
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		entries := make([]Entry, 0, len(keys))
		for _, k := range keys {
			entries = append(entries, Entry{Key: k, Value: FromValue(x[k])})
		}
		return Node{kind: KindMap, entries: entries}
	case []any:
		items := make([]Node, 0, len(x))
		for _, item := range x {
			items = append(items, FromValue(item))
		}
		return SeqOf(items...)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return ScalarOf(v)
		}
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		return FromValue(m)
	case reflect.Slice, reflect.Array:
		items := make([]Node, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			items = append(items, FromValue(rv.Index(i).Interface()))
		}
		return SeqOf(items...)
	default:
		return ScalarOf(v)
	}
}

// Kind returns the shape of this Node.
func (n Node) Kind() Kind {
	return n.kind
}

// Path returns the keys this Node was reached by from its root.
func (n Node) Path() key.Chain {
	return n.path
}

// Exists reports whether this Node is present in its tree.
// An explicit null is present.
func (n Node) Exists() bool {
	return n.kind != KindInvalid
}

// IsNull reports whether this Node is an explicit null.
func (n Node) IsNull() bool {
	return n.kind == KindNull
}

// Len returns the number of entries of a map Node or items
// of a sequence Node. All other kinds have a length of 0.
func (n Node) Len() int {
	switch n.kind {
	case KindMap:
		return len(n.entries)
	case KindSequence:
		return len(n.items)
	default:
		return 0
	}
}

// Lookup returns the value for name if this is a map Node containing it.
func (n Node) Lookup(name string) (Node, bool) {
	if n.kind != KindMap {
		return Node{path: n.path.Append(key.Name(name))}, false
	}
	for _, e := range n.entries {
		if e.Key == name {
			return e.Value.at(n.path.Append(key.Name(name))), true
		}
	}
	return Node{path: n.path.Append(key.Name(name))}, false
}

// Get walks the given names through nested maps. A missing
// key anywhere along the way results in a missing Node.
func (n Node) Get(names ...string) Node {
	cur := n
	for _, name := range names {
		cur, _ = cur.Lookup(name)
	}
	return cur
}

// Index returns the i'th item of a sequence Node.
func (n Node) Index(i int) Node {
	path := n.path.Append(key.Index(i))
	if n.kind != KindSequence || i < 0 || i >= len(n.items) {
		return Node{path: path}
	}
	return n.items[i].at(path)
}

// Entries returns the entries of a map Node in document order.
func (n Node) Entries() []Entry {
	if n.kind != KindMap {
		return nil
	}
	entries := make([]Entry, len(n.entries))
	for i, e := range n.entries {
		entries[i] = Entry{
			Key:   e.Key,
			Value: e.Value.at(n.path.Append(key.Name(e.Key))),
		}
	}
	return entries
}

// Keys returns the keys of a map Node in document order.
func (n Node) Keys() []string {
	if n.kind != KindMap {
		return nil
	}
	keys := make([]string, len(n.entries))
	for i, e := range n.entries {
		keys[i] = e.Key
	}
	return keys
}

// Items returns the items of a sequence Node.
func (n Node) Items() []Node {
	if n.kind != KindSequence {
		return nil
	}
	items := make([]Node, len(n.items))
	for i, item := range n.items {
		items[i] = item.at(n.path.Append(key.Index(i)))
	}
	return items
}

// Interface returns the plain Go representation of this Node.
// Maps become map[string]any and sequences become []any.
func (n Node) Interface() any {
	switch n.kind {
	case KindScalar:
		return n.scalar
	case KindSequence:
		vs := make([]any, len(n.items))
		for i, item := range n.items {
			vs[i] = item.Interface()
		}
		return vs
	case KindMap:
		m := make(map[string]any, len(n.entries))
		for _, e := range n.entries {
			m[e.Key] = e.Value.Interface()
		}
		return m
	default:
		return nil
	}
}

// UnexpectedTypeError occurs when a Node does not hold the type of value requested.
type UnexpectedTypeError struct {
	Path     key.Chain
	Expected string
	Value    any
}

// Error implements the error interface.
func (e UnexpectedTypeError) Error() string {
	if len(e.Path) == 0 {
		return fmt.Sprintf("expected %s but got: %#v", e.Expected, e.Value)
	}
	return fmt.Sprintf("expected %s at %s but got: %#v", e.Expected, e.Path.Key(), e.Value)
}

// AsString returns the value of a string scalar.
func (n Node) AsString() (string, error) {
	s, ok := n.scalar.(string)
	if n.kind != KindScalar || !ok {
		return "", n.unexpected("string")
	}
	return s, nil
}

// AsBool returns the value of a bool scalar.
func (n Node) AsBool() (bool, error) {
	b, ok := n.scalar.(bool)
	if n.kind != KindScalar || !ok {
		return false, n.unexpected("bool")
	}
	return b, nil
}

// AsInt returns the value of an integer scalar. Floating point
// values are accepted as long as they have no fractional part.
func (n Node) AsInt() (int64, error) {
	if n.kind == KindScalar {
		switch x := n.scalar.(type) {
		case int64:
			return x, nil
		case int:
			return int64(x), nil
		case float64:
			if x == math.Trunc(x) && !math.IsInf(x, 0) {
				return int64(x), nil
			}
		}
	}
	return 0, n.unexpected("integer")
}

// AsFloat returns the value of a numeric scalar.
func (n Node) AsFloat() (float64, error) {
	if n.kind == KindScalar {
		switch x := n.scalar.(type) {
		case float64:
			return x, nil
		case int64:
			return float64(x), nil
		case int:
			return float64(x), nil
		}
	}
	return 0, n.unexpected("number")
}

func (n Node) unexpected(expected string) error {
	var v any
	switch n.kind {
	case KindInvalid:
		v = nil
	default:
		v = n.Interface()
	}
	return UnexpectedTypeError{
		Path:     n.path,
		Expected: expected,
		Value:    v,
	}
}

func (n Node) at(path key.Chain) Node {
	n.path = path
	return n
}
