// Package bytestream is the byte-oriented wrapper spec.md describes as an
// external collaborator of the arithmetic coder: a 257-symbol alphabet (the
// 256 byte values plus one end-of-stream symbol) forwarded through
// package arith, so callers who just want to push bytes through an entropy
// coder don't have to build their own symbol alphabet.
package bytestream

import (
	"io"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/fumin/arith/arith"
	"github.com/fumin/arith/symctx"
)

// EOS is the end-of-stream symbol, one past the 256 byte values.
const EOS int64 = 256

// Alphabet is the number of symbols the wrapper's contexts must support.
const Alphabet = 257

// NewContext returns an ArrayContext sized for the wrapper's alphabet, one
// initial unit of frequency per byte value and per EOS, suitable for both
// ByteWriter and ByteReader.
func NewContext() (*symctx.ArrayContext, error) {
	return symctx.NewArrayContext(Alphabet, nil)
}

// ByteWriter adapts an arith.Encoder to io.WriteCloser by forwarding each
// byte as a symbol and writing EOS on Close.
type ByteWriter struct {
	enc    *arith.Encoder
	ctx    *symctx.ArrayContext
	closed bool
}

// NewByteWriter returns a ByteWriter that encodes onto sink using ctx. ctx
// must support symbol values [0, Alphabet).
func NewByteWriter(sink arith.ByteSink, ctx *symctx.ArrayContext) *ByteWriter {
	return &ByteWriter{enc: arith.NewEncoder(sink, ctx), ctx: ctx}
}

// Write encodes every byte of p as a symbol.
func (w *ByteWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, errors.New("bytestream: write after close")
	}
	for i, b := range p {
		if err := w.enc.WriteSymbol(int64(b)); err != nil {
			return i, errors.Wrap(err, "bytestream: encoding byte")
		}
	}
	return len(p), nil
}

// Close writes the end-of-stream symbol and finalizes the underlying
// encoder, flushing the synchronization trailer.
func (w *ByteWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.enc.WriteSymbol(EOS); err != nil {
		return errors.Wrap(err, "bytestream: encoding end-of-stream symbol")
	}
	if err := w.enc.Finalize(false); err != nil {
		return errors.Wrap(err, "bytestream: finalizing encoder")
	}
	log.WithField("pkg", "bytestream").Debug("byte writer closed")
	return nil
}

// ByteReader adapts an arith.Decoder to io.Reader, stopping once the
// end-of-stream symbol is decoded.
//
// ended is set to true, and the decoder is never touched again, before
// Read's final partial-buffer return — not after. A sibling implementation
// in the wild calls ReadSymbol a second time after _ended was already set
// by an earlier end-of-stream read, on an interleaved code path; that
// extra call happens to still return 0 correctly, but it pulls one more
// symbol from an exhausted decoder and corrupts its state for any later
// caller. Guarding every Read against ended up front, before any decoding,
// avoids that entirely.
type ByteReader struct {
	dec   *arith.Decoder
	ctx   *symctx.ArrayContext
	ended bool
}

// NewByteReader returns a ByteReader that decodes from source using ctx.
func NewByteReader(source arith.ByteSource, ctx *symctx.ArrayContext) *ByteReader {
	return &ByteReader{dec: arith.NewDecoder(source, ctx), ctx: ctx}
}

// Read decodes symbols into p until p is full, the end-of-stream symbol is
// decoded, or an error occurs. Once the end-of-stream symbol has been seen,
// every subsequent call returns (0, io.EOF) without touching the decoder.
func (r *ByteReader) Read(p []byte) (int, error) {
	if r.ended {
		return 0, io.EOF
	}
	for i := range p {
		s, err := r.dec.ReadSymbol()
		if err != nil {
			return i, errors.Wrap(err, "bytestream: decoding symbol")
		}
		if s == EOS {
			r.ended = true
			return i, nil
		}
		p[i] = byte(s)
	}
	return len(p), nil
}

// Close drains the synchronization trailer so the underlying source is
// positioned exactly after the encoded region.
func (r *ByteReader) Close() error {
	if err := r.dec.Finalize(false); err != nil {
		return errors.Wrap(err, "bytestream: finalizing decoder")
	}
	return nil
}
