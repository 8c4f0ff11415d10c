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

package resumable

import (
	"context"
	"testing"

	"github.com/go-quicktest/qt"
)

// Invariant 3: fingerprinting is independent of slicing.
func TestFingerprintIndependentOfSlicing(t *testing.T) {
	content := []byte("blahblahblahblahblah")
	whole := NewMemBlob("x", content)
	sliced := whole.Slice(0, whole.Size())

	ctx := context.Background()
	h1, err := Fingerprint(ctx, whole, nil)
	qt.Assert(t, qt.IsNil(err))
	h2, err := Fingerprint(ctx, sliced, nil)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.IsTrue(h1.Equal(h2)))
}

func TestFingerprintDiffersOnAlteredContent(t *testing.T) {
	ctx := context.Background()
	a, err := Fingerprint(ctx, NewMemBlob("x", []byte("blahblahblahblahblah")), nil)
	qt.Assert(t, qt.IsNil(err))
	b, err := Fingerprint(ctx, NewMemBlob("x", []byte("Xlahblahblahblahblah")), nil)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.IsFalse(a.Equal(b)))
}

func TestFingerprintCrossesHashingChunkBoundary(t *testing.T) {
	content := make([]byte, hashingChunkSize+17)
	for i := range content {
		content[i] = byte(i)
	}
	ctx := context.Background()
	whole, err := Fingerprint(ctx, NewMemBlob("x", content), nil)
	qt.Assert(t, qt.IsNil(err))

	// Hashing the same bytes through a differently-sliced blob must not
	// change the digest: the chunk boundary used for streaming is purely
	// an implementation detail.
	oddSlice := NewMemBlob("x", content).Slice(0, int64(len(content)))
	again, err := Fingerprint(ctx, oddSlice, nil)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.IsTrue(whole.Equal(again)))
}

func TestDigestIsZero(t *testing.T) {
	var d Digest
	qt.Assert(t, qt.IsTrue(d.IsZero()))
	d[0] = 1
	qt.Assert(t, qt.IsFalse(d.IsZero()))
}

func TestDigestString(t *testing.T) {
	var d Digest
	d[0] = 0xab
	qt.Assert(t, qt.Equals(d.String()[:2], "ab"))
	qt.Assert(t, qt.Equals(len(d.String()), 64))
}
