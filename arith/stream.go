package arith

import (
	"bufio"
	"io"
)

// trailer is the fixed four-byte synchronization padding the encoder
// appends after its last data byte. It exists only so the decoder, which
// reads a lookahead window ahead of the encoder, consumes exactly the byte
// count the encoder wrote; it is not a delimiter.
var trailer = [4]byte{0x51, 0x51, 0x51, 0x50}

// trailerWord is trailer read as a big-endian uint32.
const trailerWord uint32 = 0x51515150

// writerByteSink adapts an io.Writer to ByteSink.
type writerByteSink struct {
	w io.Writer
}

// NewByteSink adapts an io.Writer to a ByteSink. If w already implements
// io.ByteWriter, that method is used directly; otherwise every byte is
// written through its own Write call, so callers writing to something like
// a file should wrap it in a bufio.Writer before passing it here.
func NewByteSink(w io.Writer) ByteSink {
	if bw, ok := w.(io.ByteWriter); ok {
		return byteWriterSink{bw}
	}
	return &writerByteSink{w: w}
}

type byteWriterSink struct {
	bw io.ByteWriter
}

func (s byteWriterSink) WriteByte(b byte) error { return s.bw.WriteByte(b) }

func (s *writerByteSink) WriteByte(b byte) error {
	_, err := s.w.Write([]byte{b})
	return err
}

// NewByteSource adapts an io.Reader to a ByteSource, buffering single-byte
// reads through bufio.Reader when r does not already implement
// io.ByteReader.
func NewByteSource(r io.Reader) ByteSource {
	if br, ok := r.(io.ByteReader); ok {
		return byteReaderSource{br}
	}
	return bufio.NewReader(r)
}

type byteReaderSource struct {
	br io.ByteReader
}

func (s byteReaderSource) ReadByte() (byte, error) { return s.br.ReadByte() }

// closeIfRequested closes v if should is true and v implements io.Closer.
func closeIfRequested(v interface{}, should bool) error {
	if !should {
		return nil
	}
	if c, ok := v.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
