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

// Command tusupload uploads a single local file to a tus 1.0.0 server,
// persisting progress to a state file so an interrupted upload can be
// resumed by running the command again.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tuskit/resumable"
	"github.com/tuskit/resumable/tusclient"
	"github.com/tuskit/resumable/tusdebug"
)

var (
	chunkSize = flag.Int64("chunk-size", 5*1024*1024, "chunk size in bytes")
	stateFile = flag.String("state", "", "progress file to resume from and update (default: <file>.tusstate next to the uploaded file)")
	verbose   = flag.Bool("v", false, "log every request and response")
)

func main() {
	if err := main1(); err != nil {
		fmt.Fprintf(os.Stderr, "tusupload: %v\n", err)
		os.Exit(1)
	}
}

func main1() error {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: tusupload [flags] <file> <create-url>\n")
		flag.PrintDefaults()
		os.Exit(2)
	}
	flag.Parse()
	if flag.NArg() != 2 {
		flag.Usage()
	}
	filePath := flag.Arg(0)
	createURL := flag.Arg(1)

	statePath := *stateFile
	if statePath == "" {
		statePath = filePath + ".tusstate"
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("cannot read %s: %v", filePath, err)
	}
	blob := resumable.NewMemBlob(filepath.Base(filePath), data)

	ctx := context.Background()
	upload, resourceURL, err := resumeOrCreate(ctx, blob, statePath)
	if err != nil {
		return err
	}

	var transport tusclient.Transport = tusclient.NewHTTPTransport(nil)
	if *verbose {
		transport = tusdebug.New(transport, nil)
	}
	driver := tusclient.New(transport)

	if resourceURL == "" {
		resourceURL, err = driver.CreateUpload(ctx, upload, createURL, []resumable.MetadataPair{
			{Key: "filename", Value: blob.Name()},
		})
		if err != nil {
			return fmt.Errorf("cannot create upload: %v", err)
		}
		if err := saveState(statePath, upload, resourceURL); err != nil {
			return err
		}
	}

	fmt.Printf("uploading %s to %s (%d/%d chunks already sent)\n", filePath, resourceURL, upload.SentCount(), upload.NChunks())
	if err := driver.ContinueUpload(ctx, upload, resourceURL); err != nil {
		_ = saveState(statePath, upload, resourceURL)
		return fmt.Errorf("upload interrupted: %v (run again to resume)", err)
	}
	if err := os.Remove(statePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("cannot remove state file: %v", err)
	}
	fmt.Println("upload complete")
	return nil
}

func resumeOrCreate(ctx context.Context, blob resumable.Blob, statePath string) (*resumable.ResumableUpload, string, error) {
	raw, err := os.ReadFile(statePath)
	if os.IsNotExist(err) {
		upload, err := resumable.Create(ctx, blob, *chunkSize, nil)
		return upload, "", err
	}
	if err != nil {
		return nil, "", fmt.Errorf("cannot read state file: %v", err)
	}
	resourceURL, stateData, err := splitStateFile(raw)
	if err != nil {
		return nil, "", fmt.Errorf("malformed state file %s: %v", statePath, err)
	}
	state, err := resumable.DeserializeState(stateData)
	if err != nil {
		return nil, "", fmt.Errorf("malformed state file %s: %v", statePath, err)
	}
	upload, err := resumable.Rehydrate(ctx, state, blob, nil)
	if err != nil {
		return nil, "", fmt.Errorf("cannot resume from %s: %v", statePath, err)
	}
	return upload, resourceURL, nil
}

func saveState(statePath string, upload *resumable.ResumableUpload, resourceURL string) error {
	stateData, err := upload.State().Serialize()
	if err != nil {
		return fmt.Errorf("cannot serialize upload state: %v", err)
	}
	raw := joinStateFile(resourceURL, stateData)
	if err := os.WriteFile(statePath, raw, 0o600); err != nil {
		return fmt.Errorf("cannot write state file: %v", err)
	}
	return nil
}

// joinStateFile/splitStateFile use a one-line-header format rather than a
// nested JSON envelope, so the persisted UploadState blob stays exactly
// what resumable.UploadState.Serialize produced.
func joinStateFile(resourceURL string, stateData []byte) []byte {
	return append([]byte(resourceURL+"\n"), stateData...)
}

func splitStateFile(raw []byte) (resourceURL string, stateData []byte, err error) {
	i := strings.IndexByte(string(raw), '\n')
	if i < 0 {
		return "", nil, fmt.Errorf("missing resource URL header")
	}
	return string(raw[:i]), raw[i+1:], nil
}
