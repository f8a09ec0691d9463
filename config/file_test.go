// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"errors"
	"io"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
)

type openFunc func(string) (fs.File, error)

func (f openFunc) Open(name string) (fs.File, error) {
	return f(name)
}

func TestFileReader(t *testing.T) {
	t.Run("will read the whole document", func(t *testing.T) {
		t.Run("if it exists in the fs.FS", func(t *testing.T) {
			fsys := fstest.MapFS{
				"conf/otel.yaml": &fstest.MapFile{Data: []byte("disabled: true\n")},
			}

			r := NewFileReader(fsys, "conf/otel.yaml")
			b, err := io.ReadAll(r)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, "disabled: true\n", string(b)) {
				return
			}
			if !assert.Nil(t, r.Close()) {
				return
			}
			if !assert.Equal(t, "conf/otel.yaml", r.Path()) {
				return
			}
		})
	})

	t.Run("will only open the document once", func(t *testing.T) {
		t.Run("if opening it fails", func(t *testing.T) {
			openErr := errors.New("permission denied")
			opens := 0
			r := NewFileReader(openFunc(func(string) (fs.File, error) {
				opens++
				return nil, openErr
			}), "otel.yaml")

			for range 2 {
				_, err := r.Read(make([]byte, 16))
				if !assert.ErrorIs(t, err, openErr) {
					return
				}
			}
			if !assert.Equal(t, 1, opens) {
				return
			}
		})
	})

	t.Run("will never open the document", func(t *testing.T) {
		t.Run("if it is closed before the first read", func(t *testing.T) {
			opens := 0
			r := NewFileReader(openFunc(func(string) (fs.File, error) {
				opens++
				return nil, fs.ErrNotExist
			}), "otel.yaml")

			if !assert.Nil(t, r.Close()) {
				return
			}

			n, err := r.Read(make([]byte, 16))
			if !assert.Equal(t, 0, n) {
				return
			}
			if !assert.Equal(t, io.EOF, err) {
				return
			}
			if !assert.Equal(t, 0, opens) {
				return
			}
		})
	})
}
