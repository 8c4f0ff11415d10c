// Copyright 2023 CUE Labs AG
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package resumable implements the client side of a resumable upload
// engine: it fingerprints a blob, splits it into chunks, and holds the
// progress state that lets an interrupted transfer be resumed against the
// same content later.
//
// The wire protocol itself (tus 1.0.0, Core + Creation) is implemented by
// the sibling [github.com/tuskit/resumable/tusclient] package; this
// package owns the data model that package depends on.
package resumable

import (
	"fmt"
)

// Blob is an immutable, byte-addressable binary object of known size.
// Implementations are not required to hold their content in memory; they
// need only support slicing by byte range and reading a given range's
// bytes.
type Blob interface {
	// Size returns the total size of the blob in bytes.
	Size() int64

	// Name returns the blob's name, or the empty string if it has none.
	Name() string

	// Slice returns a sub-blob covering [offset, offset+length) of the
	// receiver. It's an error to request a range outside [0, Size()].
	Slice(offset, length int64) Blob

	// Bytes reads the blob's entire content into memory.
	Bytes() ([]byte, error)
}

// MemBlob is an in-memory [Blob] backed by a byte slice. It's the
// reference implementation used by this module's own tests and by
// [cmd/tusupload]; callers with other blob sources (files, browser File
// objects, and so on) implement [Blob] directly instead.
type MemBlob struct {
	name string
	data []byte
	// off and length describe the window onto data that this
	// particular MemBlob value represents; slicing never copies.
	off, length int64
}

// NewMemBlob returns a Blob that reads from data. The returned Blob does
// not copy data; the caller must not mutate it for the lifetime of any
// ResumableUpload bound to this blob.
func NewMemBlob(name string, data []byte) *MemBlob {
	return &MemBlob{
		name:   name,
		data:   data,
		off:    0,
		length: int64(len(data)),
	}
}

// Size implements [Blob.Size].
func (b *MemBlob) Size() int64 { return b.length }

// Name implements [Blob.Name].
func (b *MemBlob) Name() string { return b.name }

// Slice implements [Blob.Slice].
func (b *MemBlob) Slice(offset, length int64) Blob {
	if offset < 0 || length < 0 || offset+length > b.length {
		panic(fmt.Sprintf("resumable: slice [%d, %d) out of range for blob of size %d", offset, offset+length, b.length))
	}
	return &MemBlob{
		name:   b.name,
		data:   b.data,
		off:    b.off + offset,
		length: length,
	}
}

// Bytes implements [Blob.Bytes].
func (b *MemBlob) Bytes() ([]byte, error) {
	return b.data[b.off : b.off+b.length], nil
}
