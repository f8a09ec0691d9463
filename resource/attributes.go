// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package resource merges resource attributes from detectors and
// configuration into a single OpenTelemetry resource.
package resource

import (
	"path"

	"go.opentelemetry.io/otel/attribute"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
)

// Attributes is an ordered attribute bag. Setting an existing key
// replaces its value, i.e. the last source to set a key wins.
type Attributes struct {
	keys   []attribute.Key
	values map[attribute.Key]attribute.Value
}

// NewAttributes returns a bag initialized with kvs.
func NewAttributes(kvs ...attribute.KeyValue) *Attributes {
	a := &Attributes{
		values: make(map[attribute.Key]attribute.Value, len(kvs)),
	}
	a.Set(kvs...)
	return a
}

// Len returns the number of attributes in the bag.
func (a *Attributes) Len() int {
	return len(a.keys)
}

// Set adds or replaces attributes. Invalid key values are ignored.
func (a *Attributes) Set(kvs ...attribute.KeyValue) {
	if a.values == nil {
		a.values = make(map[attribute.Key]attribute.Value, len(kvs))
	}
	for _, kv := range kvs {
		if !kv.Valid() {
			continue
		}
		if _, exists := a.values[kv.Key]; !exists {
			a.keys = append(a.keys, kv.Key)
		}
		a.values[kv.Key] = kv.Value
	}
}

// Delete removes the given keys, if present.
func (a *Attributes) Delete(keys ...attribute.Key) {
	for _, k := range keys {
		if _, exists := a.values[k]; !exists {
			continue
		}
		delete(a.values, k)
		for i := range a.keys {
			if a.keys[i] == k {
				a.keys = append(a.keys[:i], a.keys[i+1:]...)
				break
			}
		}
	}
}

// Get returns the value of key.
func (a *Attributes) Get(key attribute.Key) (attribute.Value, bool) {
	v, ok := a.values[key]
	return v, ok
}

// Merge sets every attribute of r, which may be nil.
func (a *Attributes) Merge(r *sdkresource.Resource) {
	if r == nil {
		return
	}
	a.Set(r.Attributes()...)
}

// Filter keeps the attributes whose keys satisfy [Match].
func (a *Attributes) Filter(included, excluded []string) error {
	var drop []attribute.Key
	for _, k := range a.keys {
		keep, err := Match(included, excluded, string(k))
		if err != nil {
			return err
		}
		if !keep {
			drop = append(drop, k)
		}
	}
	a.Delete(drop...)
	return nil
}

// Match reports whether key matches at least one of the included patterns,
// or there are no included patterns, and matches none of the excluded ones.
// Patterns use [path.Match] syntax, e.g. "process.*".
func Match(included, excluded []string, key string) (bool, error) {
	keep := len(included) == 0
	for _, pattern := range included {
		ok, err := path.Match(pattern, key)
		if err != nil {
			return false, err
		}
		if ok {
			keep = true
			break
		}
	}
	if !keep {
		return false, nil
	}
	for _, pattern := range excluded {
		ok, err := path.Match(pattern, key)
		if err != nil {
			return false, err
		}
		if ok {
			return false, nil
		}
	}
	return true, nil
}

// KeyValues returns the attributes in the order their keys were first set.
func (a *Attributes) KeyValues() []attribute.KeyValue {
	kvs := make([]attribute.KeyValue, len(a.keys))
	for i, k := range a.keys {
		kvs[i] = attribute.KeyValue{Key: k, Value: a.values[k]}
	}
	return kvs
}

// Resource builds an immutable resource from the bag.
func (a *Attributes) Resource(schemaURL string) *sdkresource.Resource {
	if schemaURL == "" {
		return sdkresource.NewSchemaless(a.KeyValues()...)
	}
	return sdkresource.NewWithAttributes(schemaURL, a.KeyValues()...)
}
