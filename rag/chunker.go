// Package rag implements the document side of the assistant: loading,
// chunking, embedding, and nearest-neighbor retrieval of uploaded
// documents.
package rag

import "strings"

const (
	// DefaultChunkSize is the window length in words.
	DefaultChunkSize = 800
	// DefaultChunkOverlap is how many words successive windows share.
	DefaultChunkOverlap = 200
)

// ChunkText splits text into overlapping word windows. The last window
// may be shorter; an overlap >= size collapses to size-1 so the walk
// always advances.
func ChunkText(text string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size - 1
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	step := size - overlap
	chunks := make([]string, 0, (len(words)+step-1)/step)
	for start := 0; start < len(words); start += step {
		end := start + size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}
	return chunks
}
