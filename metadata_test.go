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
	"errors"
	"testing"

	"github.com/go-quicktest/qt"
)

// S4, and invariant 8.
func TestEncodeMetadata(t *testing.T) {
	got, err := EncodeMetadata([]MetadataPair{
		{Key: "filename", Value: "blah.txt"},
		{Key: "type", Value: "text/plain"},
	})
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(got, "filename YmxhaC50eHQ=,type dGV4dC9wbGFpbg=="))
}

func TestEncodeMetadataEmpty(t *testing.T) {
	got, err := EncodeMetadata(nil)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(got, ""))
}

func TestEncodeMetadataRejectsSpaceInKey(t *testing.T) {
	_, err := EncodeMetadata([]MetadataPair{{Key: "bad key", Value: "v"}})
	var keyErr *InvalidMetadataKeyError
	qt.Assert(t, qt.IsTrue(errors.As(err, &keyErr)))
}

func TestEncodeMetadataRejectsCommaInKey(t *testing.T) {
	_, err := EncodeMetadata([]MetadataPair{{Key: "bad,key", Value: "v"}})
	qt.Assert(t, qt.Not(qt.IsNil(err)))
}
