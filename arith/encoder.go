// Package arith implements the arithmetic coding codec: a symbol-level
// entropy coder whose interval renormalization, underflow handling, and
// end-of-stream synchronization padding are driven by an externally
// supplied symctx.Context. The codec is exact, overflow-free, and
// reversible; compression quality is entirely a function of the context
// the caller provides.
package arith

import (
	"github.com/pkg/errors"

	"github.com/fumin/arith/symctx"
)

const (
	topBit    uint32 = 0x80000000
	secondBit uint32 = 0x40000000
)

// Encoder consumes symbols and emits their arithmetic-coded bitstream into a
// ByteSink. An Encoder is not safe for concurrent use; operations on a given
// Encoder are totally ordered by the caller's invocations.
type Encoder struct {
	out       *bitWriter
	ctx       symctx.Context
	low, high uint32
	underflow uint64
	state     state
}

// NewEncoder returns an Encoder that writes to sink under ctx.
func NewEncoder(sink ByteSink, ctx symctx.Context) *Encoder {
	return &Encoder{
		out:   newBitWriter(sink),
		ctx:   ctx,
		low:   0,
		high:  0xFFFFFFFF,
		state: stateFresh,
	}
}

// SetContext swaps the context consulted by subsequent symbol writes. The
// swap takes effect starting with the very next WriteSymbol call.
func (e *Encoder) SetContext(ctx symctx.Context) error {
	if e.state == stateFinalized {
		return ErrAlreadyFinalized
	}
	e.ctx = ctx
	return nil
}

// WriteSymbol encodes s under the current context.
func (e *Encoder) WriteSymbol(s int64) error {
	if e.state == stateFinalized {
		return ErrAlreadyFinalized
	}

	total := e.ctx.Total()
	pos := e.ctx.SymbolPos(s)
	freq := e.ctx.SymbolFreq(s)
	if freq == 0 {
		return errors.Wrapf(ErrZeroFrequencySymbol, "symbol %d", s)
	}
	if pos+freq > total {
		return errors.Wrapf(ErrInconsistentContext, "symbol %d: pos %d freq %d total %d", s, pos, freq, total)
	}

	rng := uint64(e.high) - uint64(e.low) + 1
	newLow := e.low + uint32(rng*pos/total)
	newHigh := e.low + uint32(rng*(pos+freq)/total) - 1
	e.low, e.high = newLow, newHigh

	if err := e.renormalize(); err != nil {
		return err
	}
	e.state = stateActive
	return nil
}

// renormalize shifts out decided top bits and tracks underflow bits whose
// identity is not yet known, keeping low and high within range.
func (e *Encoder) renormalize() error {
	for {
		switch {
		case (e.high^e.low)&topBit == 0:
			bit := (e.high & topBit) >> 31
			if err := e.out.writeBit(bit); err != nil {
				return err
			}
			comp := bit ^ 1
			for e.underflow > 0 {
				if err := e.out.writeBit(comp); err != nil {
					return err
				}
				e.underflow--
			}
			e.high = ((e.high << 1) & 0xFFFFFFFF) | 1
			e.low = (e.low << 1) & 0xFFFFFFFF
		case e.low&secondBit != 0 && e.high&secondBit == 0:
			e.underflow++
			e.high = ((e.high & 0x7FFFFFFF) << 1) | 0x80000001
			e.low = (e.low << 1) & 0x7FFFFFFF
		default:
			return nil
		}
	}
}

// Finalize writes the trailing disambiguation bits and the four-byte
// synchronization trailer, then marks the Encoder terminated. If no symbol
// was ever written, Finalize writes nothing. If closeSink is true and sink
// implements io.Closer, it is closed afterwards.
func (e *Encoder) Finalize(closeSink bool) error {
	if e.state == stateFinalized {
		return ErrAlreadyFinalized
	}
	if e.state == stateActive {
		bit := (e.low & secondBit) >> 30
		if err := e.out.writeBit(bit); err != nil {
			return err
		}
		comp := bit ^ 1
		e.underflow++
		for e.underflow > 0 {
			if err := e.out.writeBit(comp); err != nil {
				return err
			}
			e.underflow--
		}
		if err := e.out.flush(); err != nil {
			return err
		}
		for _, b := range trailer {
			if err := e.out.writeByte(b); err != nil {
				return err
			}
		}
	}
	e.state = stateFinalized
	return closeIfRequested(e.out.sink, closeSink)
}
