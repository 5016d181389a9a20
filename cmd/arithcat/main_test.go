package main

import (
	"bytes"
	"testing"
)

func TestRunUniformRoundTrip(t *testing.T) {
	testRoundTrip(t, Config{Model: "uniform"})
}

func TestRunAdaptiveRoundTrip(t *testing.T) {
	testRoundTrip(t, Config{Model: "adaptive"})
}

func TestRunCTWRoundTrip(t *testing.T) {
	testRoundTrip(t, Config{Model: "ctw", CTWDepth: 12})
}

func testRoundTrip(t *testing.T, cfg Config) {
	original := []byte("Four score and seven years ago our fathers brought forth on this continent a new nation")

	var encoded bytes.Buffer
	if err := run("encode", cfg, bytes.NewReader(original), &encoded); err != nil {
		t.Fatalf("encode: %v", err)
	}

	var decoded bytes.Buffer
	if err := run("decode", cfg, bytes.NewReader(encoded.Bytes()), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if !bytes.Equal(original, decoded.Bytes()) {
		t.Fatalf("round trip mismatch:\n got  %q\n want %q", decoded.Bytes(), original)
	}
}
