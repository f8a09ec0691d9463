// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package key

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChain_Key(t *testing.T) {
	testCases := []struct {
		Name  string
		Chain Chain
		Key   string
	}{
		{
			Name:  "empty chain",
			Chain: Chain{},
			Key:   "",
		},
		{
			Name:  "single name",
			Chain: Chain{Name("propagator")},
			Key:   "propagator",
		},
		{
			Name:  "nested names",
			Chain: Chain{Name("resource"), Name("attributes_list")},
			Key:   "resource.attributes_list",
		},
		{
			Name:  "names and indexes",
			Chain: Chain{Name("tracer_provider"), Name("processors"), Index(0), Name("batch")},
			Key:   "tracer_provider.processors[0].batch",
		},
		{
			Name:  "leading index",
			Chain: Chain{Index(2), Name("name")},
			Key:   "[2].name",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			assert.Equal(t, testCase.Key, testCase.Chain.Key())
		})
	}
}

func TestChain_Append(t *testing.T) {
	t.Run("will not modify the receiver", func(t *testing.T) {
		t.Run("if two siblings are appended to the same parent", func(t *testing.T) {
			parent := make(Chain, 1, 8)
			parent[0] = Name("root")

			a := parent.Append(Name("a"))
			b := parent.Append(Name("b"))

			if !assert.Equal(t, "root.a", a.Key()) {
				return
			}
			if !assert.Equal(t, "root.b", b.Key()) {
				return
			}
			if !assert.Len(t, parent, 1) {
				return
			}
		})
	})
}
