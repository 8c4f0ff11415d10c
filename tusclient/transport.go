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

// Package tusclient implements the tus 1.0.0 (Core + Creation) protocol
// driver: it negotiates upload creation and transfers chunks against a
// [resumable.ResumableUpload]'s progress state.
package tusclient

import (
	"context"
	"io"
	"net/http"
)

// HTTPDoer is the minimal HTTP capability this package depends on. It's
// satisfied by *http.Client, following the teacher's pattern of depending
// on a one-method capability interface rather than a concrete client type
// so tests can substitute any http.Client-like value (including one backed
// by httptest, or a hand-written fake).
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Transport is the HTTP capability the driver depends on, reduced to
// exactly the two request shapes tus needs: see spec.md §1's "the core
// requires only" clause. The default implementation ([NewHTTPTransport])
// wraps an HTTPDoer.
type Transport interface {
	// Post issues a POST to href with the given headers and an empty
	// body, returning the response status, headers, and a best-effort
	// text rendering of the response body (used for error reporting
	// only; on success the body is typically empty).
	Post(ctx context.Context, href string, headers http.Header) (status int, respHeaders http.Header, body string, err error)

	// Patch issues a PATCH to href with the given headers and body,
	// returning the response status.
	Patch(ctx context.Context, href string, headers http.Header, body io.Reader, contentLength int64) (status int, err error)
}

// NewHTTPTransport returns a [Transport] that issues requests through doer.
// A nil doer uses http.DefaultClient.
func NewHTTPTransport(doer HTTPDoer) Transport {
	if doer == nil {
		doer = http.DefaultClient
	}
	return &httpTransport{doer: doer}
}

type httpTransport struct {
	doer HTTPDoer
}

func (t *httpTransport) Post(ctx context.Context, href string, headers http.Header) (int, http.Header, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, href, nil)
	if err != nil {
		return 0, nil, "", err
	}
	req.Header = headers
	resp, err := t.doer.Do(req)
	if err != nil {
		return 0, nil, "", err
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	return resp.StatusCode, resp.Header, string(data), nil
}

func (t *httpTransport) Patch(ctx context.Context, href string, headers http.Header, body io.Reader, contentLength int64) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, href, body)
	if err != nil {
		return 0, err
	}
	req.Header = headers
	req.ContentLength = contentLength
	resp, err := t.doer.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}
