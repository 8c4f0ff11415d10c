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

// Package tusrequest builds the two HTTP requests the tus protocol driver
// issues. It plays the same role in this module as the teacher's
// internal/ocirequest package does for the OCI distribution protocol: a
// single place that knows how a logical request turns into a method and a
// header set. tus has no repository/tag routing grammar to parse (every
// request targets either a fixed href or a server-assigned resource URL),
// so this package is a small typed builder rather than the teacher's
// Kind-dispatching URL parser/constructor.
package tusrequest

import (
	"net/http"
	"strconv"
)

// Kind identifies which of the two tus requests this module issues.
type Kind int

const (
	// Creation is the initial POST that creates an upload resource.
	Creation Kind = iota
	// Chunk is a PATCH that appends bytes at a given offset.
	Chunk
)

// TusResumable is the protocol version this driver implements.
const TusResumable = "1.0.0"

// Request describes one tus HTTP request to be issued.
type Request struct {
	Kind Kind

	// UploadLength is the total blob size in bytes. Valid for Creation.
	UploadLength int64

	// Metadata is the pre-encoded Upload-Metadata header value, or empty
	// to omit the header entirely. Valid for Creation.
	Metadata string

	// Offset is the byte offset this chunk starts at. Valid for Chunk.
	Offset int64

	// Length is the chunk's byte length. Valid for Chunk.
	Length int64
}

// Method returns the HTTP method for the request.
func (r *Request) Method() string {
	switch r.Kind {
	case Creation:
		return http.MethodPost
	case Chunk:
		return http.MethodPatch
	default:
		panic("tusrequest: unknown kind")
	}
}

// Header builds the header set for the request, per the tus Core +
// Creation extension wire protocol.
func (r *Request) Header() http.Header {
	h := make(http.Header)
	h.Set("Tus-Resumable", TusResumable)
	switch r.Kind {
	case Creation:
		h.Set("Content-Length", "0")
		h.Set("Upload-Length", strconv.FormatInt(r.UploadLength, 10))
		h.Set("Content-Type", "application/offset+octet-stream")
		if r.Metadata != "" {
			h.Set("Upload-Metadata", r.Metadata)
		}
	case Chunk:
		h.Set("Content-Length", strconv.FormatInt(r.Length, 10))
		h.Set("Upload-Offset", strconv.FormatInt(r.Offset, 10))
		h.Set("Content-Type", "application/offset+octet-stream")
	default:
		panic("tusrequest: unknown kind")
	}
	return h
}
