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
	"encoding/base64"
	"strings"
)

// MetadataPair is a single key/value pair destined for the tus
// Upload-Metadata header. Order is preserved by [EncodeMetadata].
type MetadataPair struct {
	Key   string
	Value string
}

// EncodeMetadata encodes pairs into the tus wire form for the
// Upload-Metadata header: space-separated "key base64(value)" tokens,
// comma-joined, in the order given.
//
// An empty pairs returns the empty string; callers must omit the
// Upload-Metadata header entirely in that case rather than send it empty.
func EncodeMetadata(pairs []MetadataPair) (string, error) {
	if len(pairs) == 0 {
		return "", nil
	}
	tokens := make([]string, len(pairs))
	for i, p := range pairs {
		if strings.ContainsAny(p.Key, " ,") {
			return "", &InvalidMetadataKeyError{Key: p.Key}
		}
		tokens[i] = p.Key + " " + base64.StdEncoding.EncodeToString([]byte(p.Value))
	}
	return strings.Join(tokens, ","), nil
}
