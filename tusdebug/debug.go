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

// Package tusdebug is a tusclient.Transport wrapper that prints log
// messages on every request it issues.
package tusdebug

import (
	"context"
	"io"
	"log"
	"net/http"
	"sync/atomic"

	"github.com/tuskit/resumable/tusclient"
)

// New wraps t so that every Post and Patch call is logged through logf. If
// logf is nil, log.Printf is used.
func New(t tusclient.Transport, logf func(f string, a ...any)) tusclient.Transport {
	if logf == nil {
		logf = log.Printf
	}
	return &logger{t: t, logf: logf}
}

var requestID int32

type logger struct {
	t    tusclient.Transport
	logf func(f string, a ...any)
}

func (r *logger) Post(ctx context.Context, href string, headers http.Header) (int, http.Header, string, error) {
	id := atomic.AddInt32(&requestID, 1)
	r.logf("req%d: POST %s %v {", id, href, headers)
	status, respHeaders, body, err := r.t.Post(ctx, href, headers)
	if err != nil {
		r.logf("req%d: } -> %v", id, err)
	} else {
		r.logf("req%d: } -> %d %v", id, status, respHeaders)
	}
	return status, respHeaders, body, err
}

func (r *logger) Patch(ctx context.Context, href string, headers http.Header, body io.Reader, contentLength int64) (int, error) {
	id := atomic.AddInt32(&requestID, 1)
	r.logf("req%d: PATCH %s %v len=%d {", id, href, headers, contentLength)
	status, err := r.t.Patch(ctx, href, headers, body, contentLength)
	r.logf("req%d: } -> %d, %v", id, status, err)
	return status, err
}
