// Copyright 2020 Google LLC All Rights Reserved.
// Copyright 2023 CUE Labs AG
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package resumable

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
)

// hashingChunkSize is the chunk size the fingerprinter walks the blob in.
// It determines streaming memory use only; the resulting digest does not
// depend on it.
const hashingChunkSize = 80_000

// Digest is a 256-bit content fingerprint of a blob's bytes.
type Digest [32]byte

// String returns the digest as lowercase hex.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Equal reports whether d and other are the same digest.
func (d Digest) Equal(other Digest) bool {
	return d == other
}

// IsZero reports whether d is the zero digest (never a valid fingerprint
// of real content, but useful as a sentinel for "not yet computed").
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// Hasher is the streaming-hash capability the fingerprinter depends on.
// *[crypto/sha256.digest] (returned by [crypto/sha256.New]) satisfies it,
// and is the default used by [Fingerprint].
type Hasher interface {
	Write(p []byte) (int, error)
	Sum(b []byte) []byte
}

// NewSHA256 returns the default [Hasher]: a streaming SHA-256.
func NewSHA256() Hasher {
	return sha256.New()
}

// HashIOError wraps a failure to read a blob's bytes while fingerprinting
// or verifying it.
type HashIOError struct {
	Err error
}

func (e *HashIOError) Error() string { return "resumable: error reading blob: " + e.Err.Error() }
func (e *HashIOError) Unwrap() error { return e.Err }

// Fingerprint computes the 256-bit digest of blob's byte content by
// streaming it through h in hashingChunkSize-sized slices, in natural
// order. The digest does not depend on hashingChunkSize or on how the
// blob happens to be sliced; only the byte content matters.
//
// If h is nil, [NewSHA256] is used.
func Fingerprint(ctx context.Context, blob Blob, h Hasher) (Digest, error) {
	if h == nil {
		h = NewSHA256()
	}
	for _, chunk := range Chunks(blob, hashingChunkSize) {
		if err := ctx.Err(); err != nil {
			return Digest{}, err
		}
		buf, err := chunk.Bytes()
		if err != nil {
			return Digest{}, &HashIOError{Err: err}
		}
		if _, err := h.Write(buf); err != nil {
			return Digest{}, &HashIOError{Err: err}
		}
	}
	var d Digest
	sum := h.Sum(nil)
	copy(d[:], sum)
	return d, nil
}
