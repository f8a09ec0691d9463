// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"io"
	"io/fs"
)

// FileReader reads a configuration document out of an [fs.FS]. The
// document is only opened by the first Read so a FileReader can be
// handed to [Load] before it is known whether the document exists.
//
// A FileReader is not safe for concurrent use.
type FileReader struct {
	fsys fs.FS
	path string

	opened bool
	err    error
	f      fs.File
}

// NewFileReader returns a FileReader for the document at path in fsys.
func NewFileReader(fsys fs.FS, path string) *FileReader {
	return &FileReader{
		fsys: fsys,
		path: path,
	}
}

// Path is the location of the document within its [fs.FS].
func (r *FileReader) Path() string {
	return r.path
}

// Read implements the [io.Reader] interface. Once the reader has been
// closed it always reports [io.EOF].
func (r *FileReader) Read(b []byte) (int, error) {
	if !r.opened {
		r.opened = true
		r.f, r.err = r.fsys.Open(r.path)
	}
	if r.err != nil {
		return 0, r.err
	}
	if r.f == nil {
		return 0, io.EOF
	}
	return r.f.Read(b)
}

// Close implements the [io.Closer] interface. Closing a reader which
// never opened its document is a no-op.
func (r *FileReader) Close() error {
	r.opened = true
	if r.f == nil {
		return nil
	}

	f := r.f
	r.f = nil
	return f.Close()
}
