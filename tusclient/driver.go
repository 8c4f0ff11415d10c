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

package tusclient

import (
	"bytes"
	"context"
	"net/http"
	"net/url"

	"github.com/tuskit/resumable"
	"github.com/tuskit/resumable/internal/tusrequest"
)

// Driver negotiates tus Creation requests and transfers chunks against a
// [resumable.ResumableUpload]'s progress state. A zero Driver is not
// usable; construct one with [New].
type Driver struct {
	transport Transport
}

// New returns a Driver that issues requests through t. A nil t uses
// [NewHTTPTransport] with http.DefaultClient.
func New(t Transport) *Driver {
	if t == nil {
		t = NewHTTPTransport(nil)
	}
	return &Driver{transport: t}
}

// CreateUpload issues the tus Creation request for upload against href,
// attaching metadata if non-empty, and returns the server-assigned
// resource URL taken from the Location response header.
//
// A relative Location is resolved against href before being returned, the
// same way the teacher's ociclient resolves a relative Location against
// the request URL (see DESIGN.md); per spec.md §9 Open Question 4 this
// module does not reject a relative Location.
func (d *Driver) CreateUpload(ctx context.Context, upload *resumable.ResumableUpload, href string, metadata []resumable.MetadataPair) (string, error) {
	encodedMeta, err := resumable.EncodeMetadata(metadata)
	if err != nil {
		return "", err
	}
	rreq := &tusrequest.Request{
		Kind:         tusrequest.Creation,
		UploadLength: upload.Size(),
		Metadata:     encodedMeta,
	}
	status, respHeaders, body, err := d.transport.Post(ctx, href, rreq.Header())
	if err != nil {
		return "", &resumable.TransportError{Err: err}
	}
	if status != http.StatusCreated {
		return "", &resumable.CreationRejectedError{Status: status, Body: body}
	}
	location := respHeaders.Get("Location")
	if location == "" {
		return "", &resumable.ProtocolError{Msg: "Creation response missing Location header"}
	}
	resolved, err := resolveLocation(href, location)
	if err != nil {
		return "", &resumable.ProtocolError{Msg: "invalid Location header: " + err.Error()}
	}
	return resolved, nil
}

// resolveLocation resolves a (possibly relative) Location header value
// against the URL the request was sent to.
func resolveLocation(requestHref, location string) (string, error) {
	base, err := url.Parse(requestHref)
	if err != nil {
		return "", err
	}
	loc, err := url.Parse(location)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(loc).String(), nil
}

// ContinueUpload walks upload's unsent chunks in increasing index order,
// PATCHing each to resourceURL in turn. It stops and returns
// [resumable.ChunkRejectedError] on the first non-204 response; upload's
// progress reflects every chunk successfully acknowledged before the
// failure, so a later call resumes from the first unsent chunk.
//
// ContinueUpload does not retry and does not dispatch chunks concurrently;
// see spec.md §1's non-goals.
func (d *Driver) ContinueUpload(ctx context.Context, upload *resumable.ResumableUpload, resourceURL string) error {
	chunkSize := upload.ChunkSize()
	for i := 0; i < upload.NChunks(); i++ {
		if upload.State().IsSent(i) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		chunk := resumable.ChunkAt(upload.Blob(), chunkSize, i)
		buf, err := chunk.Bytes()
		if err != nil {
			return &resumable.HashIOError{Err: err}
		}
		offset := int64(i) * chunkSize
		rreq := &tusrequest.Request{
			Kind:   tusrequest.Chunk,
			Offset: offset,
			Length: int64(len(buf)),
		}
		status, err := d.transport.Patch(ctx, resourceURL, rreq.Header(), bytes.NewReader(buf), int64(len(buf)))
		if err != nil {
			return &resumable.TransportError{Err: err}
		}
		if status != http.StatusNoContent {
			return &resumable.ChunkRejectedError{Index: i, Status: status}
		}
		upload.MarkSent(i)
	}
	return nil
}
