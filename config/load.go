// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/z5labs/otelcompose/internal/try"
)

// Format identifies the encoding of a configuration document.
type Format string

// FormatYAML is currently the only supported Format.
const FormatYAML Format = "yaml"

// FormatOf guesses the Format of a document from its file extension.
// Unknown extensions are returned as is and will be rejected by [Load].
func FormatOf(p string) Format {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(p), "."))
	switch ext {
	case "yaml", "yml":
		return FormatYAML
	default:
		return Format(ext)
	}
}

// UnsupportedFormatError occurs when asked to load a document of an unknown Format.
type UnsupportedFormatError struct {
	Format Format
}

// Error implements the error interface.
func (e UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported config format: %q", string(e.Format))
}

// SourceNotFoundError occurs when the configuration document does not exist.
type SourceNotFoundError struct {
	Path  string
	Cause error
}

// Error implements the error interface.
func (e SourceNotFoundError) Error() string {
	return fmt.Sprintf("config file not found: %s", e.Path)
}

// Unwrap implements the implicit interface used by errors.Is and errors.As.
func (e SourceNotFoundError) Unwrap() error {
	return e.Cause
}

type loadOptions struct {
	lookup Lookup
}

// LoadOption configures how a document is loaded.
type LoadOption func(*loadOptions)

// WithLookup overrides where placeholder variables are resolved from.
// By default, the environment of the current process is used.
func WithLookup(lookup Lookup) LoadOption {
	return func(lo *loadOptions) {
		lo.lookup = lookup
	}
}

// Load reads a whole configuration document from r and resolves
// every placeholder in its values. Keys are never substituted.
//
// If r is also an [io.Closer] it will be closed.
func Load(r io.Reader, format Format, opts ...LoadOption) (n Node, err error) {
	defer try.Close(&err, r)

	lo := &loadOptions{
		lookup: LookupEnv(),
	}
	for _, opt := range opts {
		opt(lo)
	}

	switch format {
	case FormatYAML:
		return readYaml(r, lo.lookup)
	default:
		return Node{}, UnsupportedFormatError{Format: format}
	}
}

// LoadFile is a convenience wrapper around [Load] for documents stored in a [fs.FS].
func LoadFile(fsys fs.FS, path string, format Format, opts ...LoadOption) (Node, error) {
	n, err := Load(NewFileReader(fsys, path), format, opts...)
	if errors.Is(err, fs.ErrNotExist) {
		return Node{}, SourceNotFoundError{Path: path, Cause: err}
	}
	return n, err
}
