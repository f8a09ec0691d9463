// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"errors"
	"fmt"
	"io"

	"github.com/z5labs/otelcompose/config/key"

	"gopkg.in/yaml.v3"
)

// InvalidYamlError occurs if the underlying io.Reader contains invalid YAML.
type InvalidYamlError struct {
	Path  key.Chain
	Cause error
}

// Error implements the error interface.
func (e InvalidYamlError) Error() string {
	if len(e.Path) == 0 {
		return fmt.Sprintf("invalid yaml: %s", e.Cause)
	}
	return fmt.Sprintf("invalid yaml at %s: %s", e.Path.Key(), e.Cause)
}

// Unwrap implements the implicit interface used by errors.Is and errors.As.
func (e InvalidYamlError) Unwrap() error {
	return e.Cause
}

var errRootNotMap = errors.New("document root must be a mapping")

// maxAliasDepth bounds alias expansion so self referencing
// anchors can not recurse forever.
const maxAliasDepth = 64

func readYaml(r io.Reader, lookup Lookup) (Node, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return Node{}, err
	}

	var doc yaml.Node
	err = yaml.Unmarshal(b, &doc)
	if err != nil {
		return Node{}, InvalidYamlError{Cause: err}
	}

	// an empty document is an empty configuration
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return MapOf(), nil
	}

	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return MapOf(), nil
	}
	if root.Kind != yaml.MappingNode {
		return Node{}, InvalidYamlError{Cause: errRootNotMap}
	}

	c := yamlConverter{lookup: lookup}
	return c.convert(root, nil, 0)
}

type yamlConverter struct {
	lookup Lookup
}

func (c yamlConverter) convert(yn *yaml.Node, path key.Chain, depth int) (Node, error) {
	if depth > maxAliasDepth {
		return Node{}, InvalidYamlError{Path: path, Cause: errors.New("alias nesting too deep")}
	}

	switch yn.Kind {
	case yaml.AliasNode:
		return c.convert(yn.Alias, path, depth+1)
	case yaml.DocumentNode:
		if len(yn.Content) == 0 {
			return NullNode(), nil
		}
		return c.convert(yn.Content[0], path, depth)
	case yaml.SequenceNode:
		items := make([]Node, 0, len(yn.Content))
		for i, child := range yn.Content {
			item, err := c.convert(child, path.Append(key.Index(i)), depth)
			if err != nil {
				return Node{}, err
			}
			items = append(items, item)
		}
		return SeqOf(items...), nil
	case yaml.MappingNode:
		return c.convertMap(yn, path, depth)
	case yaml.ScalarNode:
		return c.convertScalar(yn, path)
	default:
		return Node{}, InvalidYamlError{
			Path:  path,
			Cause: fmt.Errorf("unsupported yaml node kind: %d", yn.Kind),
		}
	}
}

func (c yamlConverter) convertMap(yn *yaml.Node, path key.Chain, depth int) (Node, error) {
	var entries []Entry
	var merged []Entry
	for i := 0; i+1 < len(yn.Content); i += 2 {
		k, v := yn.Content[i], yn.Content[i+1]
		if k.Kind == yaml.AliasNode {
			k = k.Alias
		}

		if k.Tag == "!!merge" {
			mergeEntries, err := c.mergeSource(v, path, depth)
			if err != nil {
				return Node{}, err
			}
			merged = append(merged, mergeEntries...)
			continue
		}

		value, err := c.convert(v, path.Append(key.Name(k.Value)), depth)
		if err != nil {
			return Node{}, err
		}
		entries = setEntry(entries, Entry{Key: k.Value, Value: value})
	}

	// explicit keys always win over merged ones
	for _, e := range merged {
		if hasEntry(entries, e.Key) {
			continue
		}
		entries = append(entries, e)
	}
	return Node{kind: KindMap, entries: entries}, nil
}

func (c yamlConverter) mergeSource(yn *yaml.Node, path key.Chain, depth int) ([]Entry, error) {
	src, err := c.convert(yn, path, depth+1)
	if err != nil {
		return nil, err
	}
	switch src.Kind() {
	case KindMap:
		return src.entries, nil
	case KindSequence:
		var entries []Entry
		for _, item := range src.items {
			if item.Kind() != KindMap {
				return nil, InvalidYamlError{Path: path, Cause: errors.New("merge sequence must only contain mappings")}
			}
			for _, e := range item.entries {
				if hasEntry(entries, e.Key) {
					continue
				}
				entries = append(entries, e)
			}
		}
		return entries, nil
	default:
		return nil, InvalidYamlError{Path: path, Cause: errors.New("merge value must be a mapping")}
	}
}

func hasEntry(entries []Entry, name string) bool {
	for _, e := range entries {
		if e.Key == name {
			return true
		}
	}
	return false
}

const quotedStyles = yaml.DoubleQuotedStyle | yaml.SingleQuotedStyle | yaml.LiteralStyle | yaml.FoldedStyle

func (c yamlConverter) convertScalar(yn *yaml.Node, path key.Chain) (Node, error) {
	// quoted and block scalars are always strings
	if yn.Style&quotedStyles != 0 || (yn.Style&yaml.TaggedStyle != 0 && yn.Tag == "!!str") {
		return ScalarOf(Substitute(yn.Value, c.lookup)), nil
	}

	substituted := Substitute(yn.Value, c.lookup)
	if substituted != yn.Value {
		return ScalarOf(Coerce(substituted)), nil
	}

	switch yn.Tag {
	case "!!null":
		return NullNode(), nil
	case "!!bool":
		var b bool
		if err := yn.Decode(&b); err != nil {
			return Node{}, InvalidYamlError{Path: path, Cause: err}
		}
		return ScalarOf(b), nil
	case "!!int":
		var i int64
		if err := yn.Decode(&i); err != nil {
			// out of range integers are still valid numbers
			var f float64
			if ferr := yn.Decode(&f); ferr != nil {
				return Node{}, InvalidYamlError{Path: path, Cause: err}
			}
			return ScalarOf(f), nil
		}
		return ScalarOf(i), nil
	case "!!float":
		var f float64
		if err := yn.Decode(&f); err != nil {
			return Node{}, InvalidYamlError{Path: path, Cause: err}
		}
		return ScalarOf(f), nil
	default:
		return ScalarOf(yn.Value), nil
	}
}
