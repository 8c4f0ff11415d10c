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
	"encoding/base64"
	"fmt"

	"github.com/go-json-experiment/json"
)

// stateWireVersion is bumped whenever the persisted encoding changes in a
// way that isn't simply additive.
const stateWireVersion = 1

// UploadState is the persistable record of an upload's progress: the
// blob's fingerprint, the chunk size the transfer is using, and which
// chunks the server has acknowledged so far.
//
// A zero UploadState is not valid; construct one via [Create] or
// [DeserializeState].
type UploadState struct {
	hash      Digest
	chunkSize int64
	size      int64
	sent      []bool
}

// ChunkSize returns the transfer chunk size in bytes.
func (s *UploadState) ChunkSize() int64 { return s.chunkSize }

// NChunks returns the number of transfer chunks.
func (s *UploadState) NChunks() int { return len(s.sent) }

// SentCount returns the number of chunks acknowledged by the server so far.
func (s *UploadState) SentCount() int {
	n := 0
	for _, ok := range s.sent {
		if ok {
			n++
		}
	}
	return n
}

// Size returns the size in bytes of the blob this state was created for.
func (s *UploadState) Size() int64 { return s.size }

// Hash returns the blob's fingerprint.
func (s *UploadState) Hash() Digest { return s.hash }

// IsSent reports whether chunk i has been acknowledged by the server.
func (s *UploadState) IsSent(i int) bool { return s.sent[i] }

// markSent records that chunk i has been acknowledged. Per the monotone
// progress invariant, it never un-marks a chunk: callers only ever call it
// on a 204 response.
func (s *UploadState) markSent(i int) { s.sent[i] = true }

// firstUnsent returns the index of the first unsent chunk, or -1 if every
// chunk has been acknowledged.
func (s *UploadState) firstUnsent() int {
	for i, ok := range s.sent {
		if !ok {
			return i
		}
	}
	return -1
}

// clone returns a deep copy of s.
func (s *UploadState) clone() *UploadState {
	c := *s
	c.sent = append([]bool(nil), s.sent...)
	return &c
}

// ResumableUpload is a transient binding of an [UploadState] to a concrete
// [Blob]. It's created either by fingerprinting a fresh blob ([Create]) or
// by rehydrating a persisted state against a blob ([Rehydrate]).
//
// A ResumableUpload is not safe for concurrent use: at most one goroutine
// may call [tusclient.Driver.ContinueUpload] against it at a time.
type ResumableUpload struct {
	blob  Blob
	state *UploadState
}

// Blob returns the blob this upload is bound to.
func (u *ResumableUpload) Blob() Blob { return u.blob }

// ChunkSize returns the transfer chunk size in bytes.
func (u *ResumableUpload) ChunkSize() int64 { return u.state.ChunkSize() }

// NChunks returns the number of transfer chunks.
func (u *ResumableUpload) NChunks() int { return u.state.NChunks() }

// SentCount returns the number of chunks acknowledged by the server so far.
func (u *ResumableUpload) SentCount() int { return u.state.SentCount() }

// Size returns the size in bytes of the bound blob.
func (u *ResumableUpload) Size() int64 { return u.state.Size() }

// State returns a deep copy of the upload's current progress state,
// suitable for [UploadState.Serialize] and later [Rehydrate].
func (u *ResumableUpload) State() *UploadState { return u.state.clone() }

// MarkSent records that chunk i has been acknowledged by the server. It's
// called by the tus protocol driver on every 204 response; it is exported
// so that drivers living in other packages (notably
// [github.com/tuskit/resumable/tusclient]) can update progress without
// this package exposing its whole internal layout.
func (u *ResumableUpload) MarkSent(i int) { u.state.markSent(i) }

// FirstUnsent returns the index of the first unsent chunk, or -1 if the
// transfer is complete.
func (u *ResumableUpload) FirstUnsent() int { return u.state.firstUnsent() }

// Create fingerprints blob and returns a fresh ResumableUpload with every
// chunk marked unsent. chunkSize must be positive.
func Create(ctx context.Context, blob Blob, chunkSize int64, h Hasher) (*ResumableUpload, error) {
	if chunkSize <= 0 {
		return nil, &InvalidArgumentError{Msg: "chunkSize must be positive"}
	}
	hash, err := Fingerprint(ctx, blob, h)
	if err != nil {
		return nil, err
	}
	n := NChunks(blob.Size(), chunkSize)
	return &ResumableUpload{
		blob: blob,
		state: &UploadState{
			hash:      hash,
			chunkSize: chunkSize,
			size:      blob.Size(),
			sent:      make([]bool, n),
		},
	}, nil
}

// Rehydrate re-fingerprints blob and, if it matches state's recorded
// digest, returns a ResumableUpload binding the two together so a
// previously interrupted transfer can be resumed. It fails with
// [FingerprintMismatchError] if the digest doesn't match, and never
// mutates state's sent bitmap either way.
func Rehydrate(ctx context.Context, state *UploadState, blob Blob, h Hasher) (*ResumableUpload, error) {
	got, err := Fingerprint(ctx, blob, h)
	if err != nil {
		return nil, err
	}
	if !got.Equal(state.hash) {
		return nil, &FingerprintMismatchError{Want: state.hash, Got: got}
	}
	return &ResumableUpload{
		blob:  blob,
		state: state.clone(),
	}, nil
}

// wireState is the JSON-serializable shape of an UploadState. sent is
// packed as a bitset rather than a bool array to keep the encoding compact
// for large uploads.
type wireState struct {
	Version   int    `json:"v"`
	Hash      string `json:"hash"`
	ChunkSize int64  `json:"chunkSize"`
	Size      int64  `json:"size"`
	NChunks   int    `json:"nchunks"`
	Sent      string `json:"sent"`
}

// Serialize produces a deterministic, versioned encoding of s suitable for
// persistence and later [DeserializeState].
func (s *UploadState) Serialize() ([]byte, error) {
	w := wireState{
		Version:   stateWireVersion,
		Hash:      s.hash.String(),
		ChunkSize: s.chunkSize,
		Size:      s.size,
		NChunks:   len(s.sent),
		Sent:      base64.StdEncoding.EncodeToString(packBits(s.sent)),
	}
	return json.Marshal(w)
}

// DeserializeState parses data produced by [UploadState.Serialize].
func DeserializeState(data []byte) (*UploadState, error) {
	var w wireState
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, &InvalidArgumentError{Msg: "malformed upload state: " + err.Error()}
	}
	if w.Version != stateWireVersion {
		return nil, &InvalidArgumentError{Msg: fmt.Sprintf("unsupported upload state version %d", w.Version)}
	}
	hashBytes, err := decodeHex32(w.Hash)
	if err != nil {
		return nil, &InvalidArgumentError{Msg: "malformed upload state hash: " + err.Error()}
	}
	packed, err := base64.StdEncoding.DecodeString(w.Sent)
	if err != nil {
		return nil, &InvalidArgumentError{Msg: "malformed upload state sent bitmap: " + err.Error()}
	}
	return &UploadState{
		hash:      hashBytes,
		chunkSize: w.ChunkSize,
		size:      w.Size,
		sent:      unpackBits(packed, w.NChunks),
	}, nil
}

func packBits(bits []bool) []byte {
	buf := make([]byte, (len(bits)+7)/8)
	for i, b := range bits {
		if b {
			buf[i/8] |= 1 << (i % 8)
		}
	}
	return buf
}

func unpackBits(buf []byte, n int) []bool {
	bits := make([]bool, n)
	for i := range bits {
		if i/8 < len(buf) {
			bits[i] = buf[i/8]&(1<<(i%8)) != 0
		}
	}
	return bits
}

func decodeHex32(s string) (Digest, error) {
	var d Digest
	if len(s) != 64 {
		return d, fmt.Errorf("want 64 hex characters, got %d", len(s))
	}
	for i := range d {
		hi, ok1 := hexVal(s[2*i])
		lo, ok2 := hexVal(s[2*i+1])
		if !ok1 || !ok2 {
			return Digest{}, fmt.Errorf("invalid hex digit in %q", s)
		}
		d[i] = hi<<4 | lo
	}
	return d, nil
}

func hexVal(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}
