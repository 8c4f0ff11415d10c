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

import "iter"

// NChunks returns the number of chunks a blob of the given size splits
// into at the given chunk size: ⌈size/chunkSize⌉, or 0 for an empty blob.
func NChunks(size, chunkSize int64) int {
	if chunkSize <= 0 {
		panic("resumable: chunkSize must be positive")
	}
	if size == 0 {
		return 0
	}
	n := size / chunkSize
	if size%chunkSize != 0 {
		n++
	}
	return int(n)
}

// ChunkRange returns the byte range [start, end) that chunk index i
// occupies within a blob of the given size and chunk size. The final
// chunk's range may be shorter than chunkSize.
func ChunkRange(size, chunkSize int64, i int) (start, end int64) {
	start = int64(i) * chunkSize
	end = start + chunkSize
	if end > size {
		end = size
	}
	return start, end
}

// ChunkAt returns the sub-blob for chunk index i of blob, chunked at
// chunkSize. It does not read or materialize the chunk's content.
func ChunkAt(blob Blob, chunkSize int64, i int) Blob {
	start, end := ChunkRange(blob.Size(), chunkSize, i)
	return blob.Slice(start, end-start)
}

// Chunks returns a lazy, restartable iterator over blob's chunks at the
// given chunk size, yielding (index, chunk) pairs in increasing index
// order.
//
// Multiple independent iterators over the same blob may be active
// concurrently; neither reads nor mutates any shared state.
func Chunks(blob Blob, chunkSize int64) iter.Seq2[int, Blob] {
	n := NChunks(blob.Size(), chunkSize)
	return func(yield func(int, Blob) bool) {
		for i := 0; i < n; i++ {
			if !yield(i, ChunkAt(blob, chunkSize, i)) {
				return
			}
		}
	}
}
