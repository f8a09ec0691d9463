// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNode_Get(t *testing.T) {
	n := MapOf(
		Entry{Key: "tracer_provider", Value: MapOf(
			Entry{Key: "processors", Value: SeqOf(
				MapOf(Entry{Key: "batch", Value: MapOf()}),
			)},
		)},
	)

	t.Run("will return a missing node", func(t *testing.T) {
		t.Run("if a key does not exist", func(t *testing.T) {
			missing := n.Get("meter_provider", "readers")
			if !assert.False(t, missing.Exists()) {
				return
			}
			if !assert.Equal(t, "meter_provider.readers", missing.Path().Key()) {
				return
			}
		})

		t.Run("if an index is out of range", func(t *testing.T) {
			missing := n.Get("tracer_provider", "processors").Index(3)
			if !assert.False(t, missing.Exists()) {
				return
			}
			if !assert.Equal(t, "tracer_provider.processors[3]", missing.Path().Key()) {
				return
			}
		})

		t.Run("if walking through a scalar", func(t *testing.T) {
			scalar := MapOf(Entry{Key: "a", Value: ScalarOf("b")})
			if !assert.False(t, scalar.Get("a", "b").Exists()) {
				return
			}
		})
	})

	t.Run("will track the path", func(t *testing.T) {
		t.Run("if nodes are reached through entries and items", func(t *testing.T) {
			items := n.Get("tracer_provider", "processors").Items()
			if !assert.Len(t, items, 1) {
				return
			}
			entries := items[0].Entries()
			if !assert.Len(t, entries, 1) {
				return
			}
			if !assert.Equal(t, "tracer_provider.processors[0].batch", entries[0].Value.Path().Key()) {
				return
			}
		})
	})
}

func TestMapOf(t *testing.T) {
	t.Run("will replace a repeated key in place", func(t *testing.T) {
		n := MapOf(
			Entry{Key: "a", Value: ScalarOf(1)},
			Entry{Key: "b", Value: ScalarOf(2)},
			Entry{Key: "a", Value: ScalarOf(3)},
		)

		if !assert.Equal(t, []string{"a", "b"}, n.Keys()) {
			return
		}
		if !assert.Equal(t, 3, n.Get("a").Interface()) {
			return
		}
	})
}

func TestFromValue(t *testing.T) {
	n := FromValue(map[string]any{
		"b": []string{"x", "y"},
		"a": map[string]int{"n": 1},
		"c": nil,
	})

	assert.Equal(t, KindMap, n.Kind())
	assert.Equal(t, []string{"a", "b", "c"}, n.Keys())
	assert.Equal(t, KindSequence, n.Get("b").Kind())
	assert.Equal(t, "y", n.Get("b").Index(1).Interface())
	assert.Equal(t, 1, n.Get("a", "n").Interface())
	assert.True(t, n.Get("c").IsNull())
}

func TestNode_Accessors(t *testing.T) {
	n := MapOf(
		Entry{Key: "str", Value: ScalarOf("value")},
		Entry{Key: "bool", Value: ScalarOf(true)},
		Entry{Key: "int", Value: ScalarOf(int64(7))},
		Entry{Key: "whole_float", Value: ScalarOf(float64(8))},
		Entry{Key: "frac_float", Value: ScalarOf(0.5)},
	)

	t.Run("will return the typed value", func(t *testing.T) {
		s, err := n.Get("str").AsString()
		assert.Nil(t, err)
		assert.Equal(t, "value", s)

		b, err := n.Get("bool").AsBool()
		assert.Nil(t, err)
		assert.True(t, b)

		i, err := n.Get("int").AsInt()
		assert.Nil(t, err)
		assert.Equal(t, int64(7), i)

		i, err = n.Get("whole_float").AsInt()
		assert.Nil(t, err)
		assert.Equal(t, int64(8), i)

		f, err := n.Get("int").AsFloat()
		assert.Nil(t, err)
		assert.Equal(t, 7.0, f)
	})

	t.Run("will return an UnexpectedTypeError", func(t *testing.T) {
		t.Run("if the value is not a string", func(t *testing.T) {
			_, err := n.Get("bool").AsString()

			var terr UnexpectedTypeError
			if !assert.ErrorAs(t, err, &terr) {
				return
			}
			if !assert.Equal(t, "bool", terr.Path.Key()) {
				return
			}
		})

		t.Run("if a float has a fractional part", func(t *testing.T) {
			_, err := n.Get("frac_float").AsInt()

			var terr UnexpectedTypeError
			if !assert.ErrorAs(t, err, &terr) {
				return
			}
		})

		t.Run("if the node is missing", func(t *testing.T) {
			_, err := n.Get("missing").AsBool()

			var terr UnexpectedTypeError
			if !assert.ErrorAs(t, err, &terr) {
				return
			}
			if !assert.Contains(t, terr.Error(), "missing") {
				return
			}
		})
	})
}
