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

// Package tustest is a minimal in-memory tus 1.0.0 (Core + Creation)
// server used only by this module's own tests: it plays the role the
// teacher's ociserver package plays for OCI distribution tests, reduced
// to the two request shapes tus needs (see internal/ocirequest's
// handleBlobStartUpload/handleBlobUploadChunk for the handler-per-request
// pattern this is grounded on).
//
// It is not a conformant tus server and must never be imported outside
// this module's tests: it keeps uploads only in memory, and deliberately exposes failure-injection hooks that a real
// server would never offer.
package tustest

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
)

// Server is a fake tus server backed by an in-memory upload table.
type Server struct {
	srv *httptest.Server

	mu      sync.Mutex
	nextID  int
	uploads map[string]*upload

	// rejectOffset, when rejectOffsetOn is set, causes the next PATCH whose
	// Upload-Offset equals rejectOffset to fail with rejectStatus instead of
	// succeeding. It's a one-shot: rejectOffsetOn is cleared after it fires
	// once. Set via RejectChunkAtOffset.
	mu2            sync.Mutex
	rejectOffset   int64
	rejectOffsetOn bool
	rejectStatus   int
}

type upload struct {
	length   int64
	metadata string
	data     []byte
}

// NewServer starts and returns a fake tus server. Callers must call Close
// when done with it.
func NewServer() *Server {
	s := &Server{uploads: make(map[string]*upload)}
	mux := http.NewServeMux()
	mux.HandleFunc("/uploads", s.handleCreate)
	mux.HandleFunc("/uploads/", s.handleChunk)
	s.srv = httptest.NewServer(mux)
	return s
}

// URL returns the base URL uploads should be created against.
func (s *Server) URL() string { return s.srv.URL + "/uploads" }

// Close shuts down the underlying httptest.Server.
func (s *Server) Close() { s.srv.Close() }

// RejectChunkAtOffset arranges for the next PATCH whose Upload-Offset
// header equals offset to fail with status instead of being applied. It
// fires at most once.
func (s *Server) RejectChunkAtOffset(offset int64, status int) {
	s.mu2.Lock()
	defer s.mu2.Unlock()
	s.rejectOffset = offset
	s.rejectOffsetOn = true
	s.rejectStatus = status
}

// Metadata returns the raw Upload-Metadata header value the server
// recorded when the upload identified by path (as returned in a Creation
// response's Location header) was created.
func (s *Server) Metadata(path string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploads[idFromPath(path)].metadata
}

// Received returns the bytes the server has received so far for the
// upload identified by path.
func (s *Server) Received(path string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.uploads[idFromPath(path)]
	return append([]byte(nil), u.data...)
}

func (s *Server) handleCreate(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	length, err := strconv.ParseInt(req.Header.Get("Upload-Length"), 10, 64)
	if err != nil || length < 0 {
		http.Error(w, "missing or invalid Upload-Length", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.nextID++
	id := fmt.Sprintf("u%d", s.nextID)
	s.uploads[id] = &upload{
		length:   length,
		metadata: req.Header.Get("Upload-Metadata"),
		data:     make([]byte, 0, length),
	}
	s.mu.Unlock()

	w.Header().Set("Tus-Resumable", "1.0.0")
	w.Header().Set("Location", "/uploads/"+id)
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleChunk(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPatch {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := idFromPath(req.URL.Path)
	s.mu.Lock()
	u, ok := s.uploads[id]
	s.mu.Unlock()
	if !ok {
		http.Error(w, "no such upload", http.StatusNotFound)
		return
	}
	offset, err := strconv.ParseInt(req.Header.Get("Upload-Offset"), 10, 64)
	if err != nil {
		http.Error(w, "missing or invalid Upload-Offset", http.StatusBadRequest)
		return
	}

	s.mu2.Lock()
	if s.rejectOffsetOn && offset == s.rejectOffset {
		s.rejectOffsetOn = false
		status := s.rejectStatus
		s.mu2.Unlock()
		http.Error(w, "injected failure", status)
		return
	}
	s.mu2.Unlock()

	body, err := io.ReadAll(req.Body)
	if err != nil {
		http.Error(w, "cannot read body", http.StatusInternalServerError)
		return
	}

	s.mu.Lock()
	if offset != int64(len(u.data)) {
		s.mu.Unlock()
		http.Error(w, "offset does not match current upload length", http.StatusConflict)
		return
	}
	u.data = append(u.data, body...)
	s.mu.Unlock()

	w.Header().Set("Tus-Resumable", "1.0.0")
	w.Header().Set("Upload-Offset", strconv.FormatInt(offset+int64(len(body)), 10))
	w.WriteHeader(http.StatusNoContent)
}

func idFromPath(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}
