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

package tusclient_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/go-quicktest/qt"

	"github.com/tuskit/resumable"
	"github.com/tuskit/resumable/internal/tustest"
	"github.com/tuskit/resumable/tusclient"
)

func newFakeServer(t *testing.T) *tustest.Server {
	s := tustest.NewServer()
	t.Cleanup(s.Close)
	return s
}

// S1: chunkSize=4 over a 20-byte blob yields 5 PATCHes at 0,4,8,12,16.
func TestTransferWholeChunkSize4(t *testing.T) {
	srv := newFakeServer(t)
	blob := resumable.NewMemBlob("blah.txt", []byte("blahblahblahblahblah"))
	ctx := context.Background()

	upload, err := resumable.Create(ctx, blob, 4, nil)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(upload.NChunks(), 5))

	driver := tusclient.New(tusclient.NewHTTPTransport(nil))
	loc, err := driver.CreateUpload(ctx, upload, srv.URL(), nil)
	qt.Assert(t, qt.IsNil(err))

	err = driver.ContinueUpload(ctx, upload, loc)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(upload.SentCount(), 5))
	qt.Assert(t, qt.DeepEquals(srv.Received(loc), []byte("blahblahblahblahblah")))
}

// S2: chunkSize=3 over the same 20-byte blob yields 7 chunks, the last
// short.
func TestTransferUnevenChunkSize3(t *testing.T) {
	srv := newFakeServer(t)
	blob := resumable.NewMemBlob("blah.txt", []byte("blahblahblahblahblah"))
	ctx := context.Background()

	upload, err := resumable.Create(ctx, blob, 3, nil)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(upload.NChunks(), 7))

	driver := tusclient.New(tusclient.NewHTTPTransport(nil))
	loc, err := driver.CreateUpload(ctx, upload, srv.URL(), nil)
	qt.Assert(t, qt.IsNil(err))

	err = driver.ContinueUpload(ctx, upload, loc)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(upload.SentCount(), 7))
	qt.Assert(t, qt.DeepEquals(srv.Received(loc), []byte("blahblahblahblahblah")))
}

// S3: a rejected chunk stops the transfer with ChunkRejectedError and
// leaves the sent bitmap reflecting only the chunks acknowledged so far;
// a later call against a healthy server resumes from the failure point.
func TestTransferResumeAfterRejection(t *testing.T) {
	srv := newFakeServer(t)
	blob := resumable.NewMemBlob("blah.txt", []byte("blahblahblahblahblah"))
	ctx := context.Background()

	upload, err := resumable.Create(ctx, blob, 4, nil)
	qt.Assert(t, qt.IsNil(err))

	driver := tusclient.New(tusclient.NewHTTPTransport(nil))
	loc, err := driver.CreateUpload(ctx, upload, srv.URL(), nil)
	qt.Assert(t, qt.IsNil(err))
	resourceURL := loc

	srv.RejectChunkAtOffset(8, http.StatusInternalServerError)
	err = driver.ContinueUpload(ctx, upload, resourceURL)
	var rejected *resumable.ChunkRejectedError
	qt.Assert(t, qt.IsTrue(errors.As(err, &rejected)))
	qt.Assert(t, qt.Equals(rejected.Index, 2))
	qt.Assert(t, qt.Equals(rejected.Status, http.StatusInternalServerError))
	qt.Assert(t, qt.IsTrue(upload.State().IsSent(0)))
	qt.Assert(t, qt.IsTrue(upload.State().IsSent(1)))
	qt.Assert(t, qt.IsFalse(upload.State().IsSent(2)))

	err = driver.ContinueUpload(ctx, upload, resourceURL)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(upload.SentCount(), 5))
}

// S4: metadata is encoded exactly per the wire form.
func TestCreateUploadMetadata(t *testing.T) {
	srv := newFakeServer(t)
	blob := resumable.NewMemBlob("blah.txt", []byte("blahblahblahblahblah"))
	ctx := context.Background()

	upload, err := resumable.Create(ctx, blob, 4, nil)
	qt.Assert(t, qt.IsNil(err))

	driver := tusclient.New(tusclient.NewHTTPTransport(nil))
	loc, err := driver.CreateUpload(ctx, upload, srv.URL(), []resumable.MetadataPair{
		{Key: "filename", Value: "blah.txt"},
		{Key: "type", Value: "text/plain"},
	})
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(srv.Metadata(loc), "filename YmxhaC50eHQ=,type dGV4dC9wbGFpbg=="))
}

// S5: rehydrating against altered content fails with
// FingerprintMismatchError and never reaches the network.
func TestRehydrateMismatch(t *testing.T) {
	ctx := context.Background()
	orig := resumable.NewMemBlob("blah.txt", []byte("blahblahblahblahblah"))
	upload, err := resumable.Create(ctx, orig, 4, nil)
	qt.Assert(t, qt.IsNil(err))
	data, err := upload.State().Serialize()
	qt.Assert(t, qt.IsNil(err))

	state, err := resumable.DeserializeState(data)
	qt.Assert(t, qt.IsNil(err))

	altered := resumable.NewMemBlob("blah.txt", []byte("Xlahblahblahblahblah"))
	_, err = resumable.Rehydrate(ctx, state, altered, nil)
	var mismatch *resumable.FingerprintMismatchError
	qt.Assert(t, qt.IsTrue(errors.As(err, &mismatch)))
}

// S6: an empty blob has zero chunks, a normal Creation, and a no-op
// transfer.
func TestEmptyBlob(t *testing.T) {
	srv := newFakeServer(t)
	ctx := context.Background()
	blob := resumable.NewMemBlob("empty", nil)

	upload, err := resumable.Create(ctx, blob, 4, nil)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(upload.NChunks(), 0))

	driver := tusclient.New(tusclient.NewHTTPTransport(nil))
	loc, err := driver.CreateUpload(ctx, upload, srv.URL(), nil)
	qt.Assert(t, qt.IsNil(err))

	err = driver.ContinueUpload(ctx, upload, loc)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(upload.SentCount(), 0))
}
