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

import "fmt"

// InvalidArgumentError reports a malformed argument to a constructor, such
// as a non-positive chunk size.
type InvalidArgumentError struct {
	Msg string
}

func (e *InvalidArgumentError) Error() string { return "resumable: invalid argument: " + e.Msg }

// FingerprintMismatchError is returned by [Rehydrate] when the blob's
// recomputed digest doesn't match the persisted one.
type FingerprintMismatchError struct {
	Want, Got Digest
}

func (e *FingerprintMismatchError) Error() string {
	return fmt.Sprintf("resumable: fingerprint mismatch: state was recorded for %s, blob hashes to %s", e.Want, e.Got)
}

// TransportError wraps a failure from the underlying HTTP transport
// (network, TLS, and so on) as distinct from a well-formed but rejecting
// HTTP response.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "resumable: transport error: " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// CreationRejectedError is returned when a tus Creation request receives
// a status other than 201.
type CreationRejectedError struct {
	Status int
	Body   string
}

func (e *CreationRejectedError) Error() string {
	return fmt.Sprintf("resumable: upload creation rejected: status %d: %s", e.Status, e.Body)
}

// ProtocolError reports a well-formed HTTP response that nonetheless
// violates the tus protocol contract this module relies on, such as a
// 201 Creation response with no Location header.
type ProtocolError struct {
	Msg string
}

func (e *ProtocolError) Error() string { return "resumable: protocol error: " + e.Msg }

// ChunkRejectedError is returned when a chunk PATCH receives a status
// other than 204. The sent bitmap reflects only chunks acknowledged
// before this one; the upload remains usable for a later retry.
type ChunkRejectedError struct {
	Index  int
	Status int
}

func (e *ChunkRejectedError) Error() string {
	return fmt.Sprintf("resumable: chunk %d rejected: status %d", e.Index, e.Status)
}

// InvalidMetadataKeyError is returned by [EncodeMetadata] when a metadata
// key contains a space or a comma.
type InvalidMetadataKeyError struct {
	Key string
}

func (e *InvalidMetadataKeyError) Error() string {
	return fmt.Sprintf("resumable: invalid metadata key %q: must not contain a space or comma", e.Key)
}
