package ingest

import (
	"strings"
	"testing"
)

func TestChunkEmpty(t *testing.T) {
	c := NewChunker(500, 50)
	if got := c.Chunk(""); got != nil {
		t.Errorf("Chunk(\"\") = %v, want nil", got)
	}
	if got := c.Chunk("   \n\t"); got != nil {
		t.Errorf("whitespace-only input should yield nil, got %v", got)
	}
}

func TestChunkShortText(t *testing.T) {
	c := NewChunker(500, 50)
	got := c.Chunk("hello world")
	if len(got) != 1 || got[0] != "hello world" {
		t.Errorf("Chunk = %v", got)
	}
}

func TestChunkWindowsAndOverlap(t *testing.T) {
	c := NewChunker(10, 3)
	text := "abcdefghijklmnopqrstuvwxyz"
	got := c.Chunk(text)
	want := []string{"abcdefghij", "hijklmnopq", "opqrstuvwx", "vwxyz"}
	if len(got) != len(want) {
		t.Fatalf("got %d chunks %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("chunk %d = %q, want %q", i, got[i], want[i])
		}
	}
}

// Dropping each chunk's leading overlap and concatenating in ordinal order
// must reconstruct the input.
func TestChunkReconstruction(t *testing.T) {
	const size, overlap = 10, 3
	c := NewChunker(size, overlap)
	text := "The quick brown fox jumps over the lazy dog, twice around the block."
	chunks := c.Chunk(text)

	var b strings.Builder
	for i, chunk := range chunks {
		runes := []rune(chunk)
		if i == 0 {
			b.WriteString(chunk)
			continue
		}
		if len(runes) > overlap {
			b.WriteString(string(runes[overlap:]))
		}
	}
	if b.String() != text {
		t.Errorf("reconstructed %q, want %q", b.String(), text)
	}
}

func TestChunkMultibyte(t *testing.T) {
	c := NewChunker(4, 1)
	got := c.Chunk("こんにちは世界です")
	for i, chunk := range got {
		if n := len([]rune(chunk)); n > 4 {
			t.Errorf("chunk %d has %d runes: %q", i, n, chunk)
		}
	}
	if got[0] != "こんにち" {
		t.Errorf("first chunk = %q", got[0])
	}
}

func TestChunkOverlapAtLeastSize(t *testing.T) {
	// overlap >= size must still make progress
	c := NewChunker(3, 5)
	got := c.Chunk("abcdef")
	if len(got) == 0 {
		t.Fatal("expected chunks")
	}
	if got[0] != "abc" || got[1] != "bcd" {
		t.Errorf("chunks = %v", got)
	}
}
