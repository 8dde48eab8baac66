package jsondoc_test

import (
	"context"
	"errors"
	"log/slog"
	"skyticker/internal/jsondoc"
	"strings"
	"testing"
)

func onesArray(n int) []byte {
	return []byte("[" + strings.TrimSuffix(strings.Repeat("1,", n), ",") + "]")
}

func nestedArrays(depth int) []byte {
	return []byte(strings.Repeat("[", depth) + strings.Repeat("]", depth))
}

func TestDecodeFitsInitialGuess(t *testing.T) {
	dec := jsondoc.NewDecoder(jsondoc.FixedMemory(1<<20), slog.Default())
	data := []byte(`{"text":"` + strings.Repeat("a", 100) + `"}`)

	doc, err := dec.Decode(context.Background(), data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.Attempts() != 1 {
		t.Fatalf("expected one attempt, got %d", doc.Attempts())
	}

	if got := doc.Get("text").String(); got != strings.Repeat("a", 100) {
		t.Fatalf("unexpected text: %q", got)
	}

	// root slot + key + value slot + string
	if doc.Capacity() != 16+5+16+101 {
		t.Fatalf("unexpected capacity: %d", doc.Capacity())
	}
}

func TestDecodeGrowsBufferThreeTimes(t *testing.T) {
	dec := jsondoc.NewDecoder(jsondoc.FixedMemory(1<<20), slog.Default())

	doc, err := dec.Decode(context.Background(), onesArray(100))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.Attempts() != 4 {
		t.Fatalf("expected four attempts, got %d", doc.Attempts())
	}

	if doc.Capacity() != 16*101 {
		t.Fatalf("expected buffer shrunk to footprint, got %d", doc.Capacity())
	}

	if n := len(doc.Root().Array()); n != 100 {
		t.Fatalf("expected 100 elements, got %d", n)
	}
}

func TestDecodeFailsAboveCeiling(t *testing.T) {
	dec := jsondoc.NewDecoder(jsondoc.FixedMemory(1000), slog.Default())

	doc, err := dec.Decode(context.Background(), onesArray(100))
	if !errors.Is(err, jsondoc.ErrNoMemory) {
		t.Fatalf("expected ErrNoMemory, got %v", err)
	}

	if doc != nil {
		t.Fatalf("expected no document on failure")
	}
}

func TestDecodeDoublingToExactCeilingFails(t *testing.T) {
	// 61 bytes of input: buffers of 91, 182, 364 and 728 bytes, footprint 496.
	data := onesArray(30)

	dec := jsondoc.NewDecoder(jsondoc.FixedMemory(728), slog.Default())
	if _, err := dec.Decode(context.Background(), data); !errors.Is(err, jsondoc.ErrNoMemory) {
		t.Fatalf("expected ErrNoMemory at the ceiling, got %v", err)
	}

	dec = jsondoc.NewDecoder(jsondoc.FixedMemory(729), slog.Default())
	doc, err := dec.Decode(context.Background(), data)
	if err != nil {
		t.Fatalf("unexpected error just above the ceiling: %v", err)
	}

	if doc.Attempts() != 4 {
		t.Fatalf("expected four attempts, got %d", doc.Attempts())
	}
}

func TestDecodeZeroGuess(t *testing.T) {
	dec := jsondoc.NewDecoder(jsondoc.FixedMemory(1<<20), slog.Default())
	if _, err := dec.Decode(context.Background(), nil); !errors.Is(err, jsondoc.ErrNoMemory) {
		t.Fatalf("expected ErrNoMemory for empty input, got %v", err)
	}

	dec = jsondoc.NewDecoder(jsondoc.FixedMemory(0), slog.Default())
	if _, err := dec.Decode(context.Background(), []byte(`{}`)); !errors.Is(err, jsondoc.ErrNoMemory) {
		t.Fatalf("expected ErrNoMemory without memory, got %v", err)
	}
}

func TestDecodeMalformed(t *testing.T) {
	dec := jsondoc.NewDecoder(jsondoc.FixedMemory(1<<20), slog.Default())

	for _, input := range []string{`{"a":`, `{"a" 1}`, `not json`, `[1,]`} {
		if _, err := dec.Decode(context.Background(), []byte(input)); !errors.Is(err, jsondoc.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput for %q, got %v", input, err)
		}
	}
}

func TestDecodeNestingLimit(t *testing.T) {
	dec := jsondoc.NewDecoder(jsondoc.FixedMemory(1<<20), slog.Default())

	if _, err := dec.Decode(context.Background(), nestedArrays(jsondoc.NestingLimit)); err != nil {
		t.Fatalf("expected %d levels to decode, got %v", jsondoc.NestingLimit, err)
	}

	_, err := dec.Decode(context.Background(), nestedArrays(jsondoc.NestingLimit+1))
	if !errors.Is(err, jsondoc.ErrTooDeep) {
		t.Fatalf("expected ErrTooDeep, got %v", err)
	}
}

func TestDecodeNestedLookup(t *testing.T) {
	dec := jsondoc.NewDecoder(jsondoc.FixedMemory(1<<20), slog.Default())
	data := []byte(`{"feed":[{"post":{"author":{"handle":"alice.bsky.social"},"record":{"text":"hi"}}}]}`)

	doc, err := dec.Decode(context.Background(), data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := doc.Get("feed.0.post.author.handle").String(); got != "alice.bsky.social" {
		t.Fatalf("unexpected handle: %q", got)
	}

	if got := doc.Get("feed.1.post").Exists(); got {
		t.Fatalf("expected missing entry")
	}
}

func TestRuntimeMemoryWithoutLimit(t *testing.T) {
	mem := jsondoc.RuntimeMemory{Ceiling: 4096}
	if got := mem.Available(); got < 0 || got > 4096 {
		t.Fatalf("available memory outside [0, ceiling]: %d", got)
	}
}
