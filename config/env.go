// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"os"
	"strings"
)

// Lookup resolves a variable name for substitution. The bool reports
// whether the variable is defined at all, an empty value is still defined.
type Lookup func(name string) (string, bool)

// LookupEnv returns a Lookup backed by the environment
// variables available to the current process.
func LookupEnv() Lookup {
	return os.LookupEnv
}

// EnvironLookup returns a Lookup over a "KEY=value" list in
// the same format as [os.Environ].
func EnvironLookup(environ []string) Lookup {
	m := make(map[string]string, len(environ))
	for _, pair := range environ {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		m[k] = v
	}
	return MapLookup(m)
}

// MapLookup returns a Lookup over the given map.
func MapLookup(m map[string]string) Lookup {
	return func(name string) (string, bool) {
		v, ok := m[name]
		return v, ok
	}
}
