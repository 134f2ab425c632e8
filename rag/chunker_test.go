package rag

import (
	"fmt"
	"strings"
	"testing"
)

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(parts, " ")
}

func TestChunkTextShortInputIsSingleChunk(t *testing.T) {
	t.Parallel()

	chunks := ChunkText("just a few words", 800, 200)
	if len(chunks) != 1 {
		t.Fatalf("expected one chunk, got %d", len(chunks))
	}
	if chunks[0] != "just a few words" {
		t.Fatalf("unexpected chunk %q", chunks[0])
	}
}

func TestChunkTextEmptyInput(t *testing.T) {
	t.Parallel()

	if chunks := ChunkText("   \n\t ", 800, 200); chunks != nil {
		t.Fatalf("expected no chunks, got %v", chunks)
	}
}

func TestChunkTextWindowsOverlap(t *testing.T) {
	t.Parallel()

	chunks := ChunkText(words(25), 10, 4)
	if len(chunks) != 4 {
		t.Fatalf("expected 4 chunks, got %d: %v", len(chunks), chunks)
	}

	first := strings.Fields(chunks[0])
	second := strings.Fields(chunks[1])
	if len(first) != 10 {
		t.Fatalf("expected full window of 10 words, got %d", len(first))
	}
	// step = size - overlap = 6, so the second window starts at w6.
	if second[0] != "w6" {
		t.Fatalf("expected second window to start at w6, got %s", second[0])
	}
	if first[6] != second[0] {
		t.Fatal("windows must share the overlap region")
	}

	last := strings.Fields(chunks[len(chunks)-1])
	if last[len(last)-1] != "w24" {
		t.Fatalf("last window must end at the final word, got %s", last[len(last)-1])
	}
}

func TestChunkTextDegenerateOverlapStillAdvances(t *testing.T) {
	t.Parallel()

	chunks := ChunkText(words(5), 2, 7)
	if len(chunks) == 0 {
		t.Fatal("expected progress despite overlap >= size")
	}
	for i := 1; i < len(chunks); i++ {
		if chunks[i] == chunks[i-1] {
			t.Fatal("chunker must advance between windows")
		}
	}
}
