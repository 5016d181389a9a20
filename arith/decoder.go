package arith

import (
	"github.com/pkg/errors"

	"github.com/fumin/arith/symctx"
)

// Decoder consumes bits from a ByteSource and reconstructs the symbol
// sequence an Encoder wrote under an equivalent sequence of contexts. A
// Decoder is not safe for concurrent use.
type Decoder struct {
	in        *bitReader
	ctx       symctx.Context
	low, high uint32
	code      uint32
	state     state
}

// NewDecoder returns a Decoder that reads from source under ctx.
func NewDecoder(source ByteSource, ctx symctx.Context) *Decoder {
	return &Decoder{
		in:    newBitReader(source),
		ctx:   ctx,
		low:   0,
		high:  0xFFFFFFFF,
		state: stateFresh,
	}
}

// SetContext swaps the context consulted by subsequent symbol reads.
func (d *Decoder) SetContext(ctx symctx.Context) error {
	if d.state == stateFinalized {
		return ErrAlreadyFinalized
	}
	d.ctx = ctx
	return nil
}

// ReadSymbol decodes and returns the next symbol under the current context.
func (d *Decoder) ReadSymbol() (int64, error) {
	if d.state == stateFinalized {
		return 0, ErrAlreadyFinalized
	}

	if d.state == stateFresh {
		for i := 0; i < 4; i++ {
			b, err := d.readByteFromBits()
			if err != nil {
				return 0, err
			}
			d.code = (d.code << 8) | uint32(b)
		}
	} else if err := d.renormalize(); err != nil {
		return 0, err
	}

	total := d.ctx.Total()
	rng := uint64(d.high) - uint64(d.low) + 1
	// numerator = (code-low+1)*total fits uint64 without overflow because
	// (code-low+1) <= rng <= 2^32 and total <= symctx.MaxTotal == 2^31, so
	// the product is at most 2^63.
	numerator := (uint64(d.code) - uint64(d.low) + 1) * total
	pos := (numerator - 1) / rng

	symbol := d.findSymbol(pos)
	symPos := d.ctx.SymbolPos(symbol)
	symFreq := d.ctx.SymbolFreq(symbol)

	newLow := d.low + uint32(rng*symPos/total)
	newHigh := d.low + uint32(rng*(symPos+symFreq)/total) - 1
	d.low, d.high = newLow, newHigh

	d.state = stateActive
	return symbol, nil
}

// findSymbol locates the symbol such that SymbolPos(symbol) <= pos <
// SymbolPos(symbol+1) via exponential-then-binary search, minimizing calls
// to SymbolPos for the monotonically increasing query pattern typical of a
// forward decode.
func (d *Decoder) findSymbol(pos uint64) int64 {
	var symbol int64 = 0
	var inc int64 = 1
	for pos >= d.ctx.SymbolPos(symbol+inc) {
		symbol += inc
		inc *= 2
	}
	for inc /= 2; inc > 0; inc /= 2 {
		if pos >= d.ctx.SymbolPos(symbol+inc) {
			symbol += inc
		}
	}
	return symbol
}

func (d *Decoder) readByteFromBits() (byte, error) {
	var b byte
	for i := 0; i < 8; i++ {
		bit, err := d.in.readBit()
		if err != nil {
			return 0, err
		}
		b = (b << 1) | byte(bit)
	}
	return b, nil
}

// renormalize mirrors Encoder.renormalize: it shifts high, low, and code in
// lockstep, feeding a fresh bit into code whenever a bit is shifted out.
func (d *Decoder) renormalize() error {
	for {
		switch {
		case (d.high^d.low)&topBit == 0:
			bit, err := d.in.readBit()
			if err != nil {
				return err
			}
			d.high = ((d.high << 1) & 0xFFFFFFFF) | 1
			d.low = (d.low << 1) & 0xFFFFFFFF
			d.code = ((d.code << 1) & 0xFFFFFFFF) | bit
		case d.low&secondBit != 0 && d.high&secondBit == 0:
			bit, err := d.in.readBit()
			if err != nil {
				return err
			}
			d.high = ((d.high & 0x7FFFFFFF) << 1) | 0x80000001
			d.low = (d.low << 1) & 0x7FFFFFFF
			d.code = (((d.code & 0x7FFFFFFF) ^ secondBit) << 1) | bit
		default:
			return nil
		}
	}
}

// Finalize drains the synchronization trailer so that source is positioned
// exactly after the last byte the paired Encoder wrote. If no symbol was
// ever read, Finalize reads nothing. If closeSource is true and source
// implements io.Closer, it is closed afterwards.
func (d *Decoder) Finalize(closeSource bool) error {
	if d.state == stateFinalized {
		return ErrAlreadyFinalized
	}
	if d.state == stateActive {
		d.code = d.in.drainBuffered(d.code)
		if d.code != trailerWord {
			found := false
			for i := 0; i < 5; i++ {
				b, err := d.in.source.ReadByte()
				if err != nil {
					return errors.Wrap(err, "arith: reading from source")
				}
				if b == 0x50 {
					found = true
					break
				}
			}
			if !found {
				return ErrStreamEndedImproperly
			}
		}
	}
	d.state = stateFinalized
	return closeIfRequested(d.in.source, closeSource)
}
