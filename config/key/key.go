// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package key provides types for addressing values within a configuration tree.
package key

import (
	"strconv"
	"strings"
)

// Keyer represents anything which can address a single value.
type Keyer interface {
	Key() string
}

// Chain is a path of keys from the root of a configuration tree.
type Chain []Keyer

// Key implements the [Keyer] interface.
//
// Names are joined with "." and indexes are rendered as "[i]"
// directly after their parent, e.g. "tracer_provider.processors[0].batch".
func (k Chain) Key() string {
	var sb strings.Builder
	for i, keyer := range k {
		switch x := keyer.(type) {
		case Index:
			sb.WriteString(x.Key())
		default:
			if i > 0 {
				sb.WriteByte('.')
			}
			sb.WriteString(x.Key())
		}
	}
	return sb.String()
}

// Append returns a new Chain with the given keys appended. The receiver
// is never modified so chains can be safely shared between siblings.
func (k Chain) Append(keys ...Keyer) Chain {
	c := make(Chain, 0, len(k)+len(keys))
	c = append(c, k...)
	return append(c, keys...)
}

// Name addresses a value within a mapping.
type Name string

// Key implements the [Keyer] interface.
func (k Name) Key() string {
	return string(k)
}

// Index addresses a value within a sequence.
type Index int

// Key implements the [Keyer] interface.
func (k Index) Key() string {
	return "[" + strconv.Itoa(int(k)) + "]"
}
