// Package symctx defines the cumulative-frequency model that the arithmetic
// coder in package arith queries per symbol, along with a dense array-backed
// implementation of it.
package symctx

import "github.com/pkg/errors"

// MaxTotal is the largest value Total() may return. The arithmetic coder's
// interval can shrink below any larger total during renormalization, which
// desynchronizes the encoder and decoder.
const MaxTotal = 1 << 31

// Context is the cumulative-frequency model queried per symbol by both the
// encoder and the decoder. Implementations must keep the three queries
// mutually consistent: SymbolPos(s+1)-SymbolPos(s) == SymbolFreq(s), and
// SymbolPos must be monotonic non-decreasing. Violating this contract is
// reported by the encoder as ErrInconsistentContext.
type Context interface {
	// Total is the sum of every symbol's frequency.
	Total() uint64
	// SymbolFreq is the frequency of s. Zero outside the valid alphabet.
	SymbolFreq(s int64) uint64
	// SymbolPos is the sum of frequencies of symbols strictly less than s.
	SymbolPos(s int64) uint64
}

// ErrOutOfRange is returned when a mutation names a symbol index outside [0, N).
var ErrOutOfRange = errors.New("symctx: symbol index out of range")

// ErrOverflow is returned when a mutation would push Total() past MaxTotal.
var ErrOverflow = errors.New("symctx: total frequency would exceed max total")

// ErrInvalidArgument is returned when a mutation would drive a frequency negative.
var ErrInvalidArgument = errors.New("symctx: frequency would become negative")

// ArrayContext is a dense, array-backed Context over the alphabet [0, N).
// It supports point updates and bulk edits, and amortizes cumulative-sum
// recomputation with a lazily extended positions table.
//
// ArrayContext is not safe for concurrent use; the arith package's codecs
// document a single-threaded contract and so does this type.
type ArrayContext struct {
	freqs               []uint64
	positions           []uint64
	positionsValidUntil int
	total               uint64
}

// NewArrayContext returns an ArrayContext of length n. init, if non-nil, is
// called once per index to produce the initial frequency; a nil init
// defaults every frequency to 1.
func NewArrayContext(n int, init func(i int) uint64) (*ArrayContext, error) {
	freqs := make([]uint64, n)
	var total uint64
	for i := range freqs {
		var f uint64 = 1
		if init != nil {
			f = init(i)
		}
		freqs[i] = f
		total += f
	}
	if total > MaxTotal {
		return nil, errors.Wrap(ErrOverflow, "NewArrayContext")
	}
	return &ArrayContext{
		freqs:               freqs,
		positions:           make([]uint64, n),
		positionsValidUntil: -1,
		total:               total,
	}, nil
}

// NewArrayContextFromFreqs returns an ArrayContext that takes ownership of
// freqs; the caller must not mutate the slice afterwards except through the
// returned ArrayContext.
func NewArrayContextFromFreqs(freqs []uint64) (*ArrayContext, error) {
	var total uint64
	for _, f := range freqs {
		total += f
	}
	if total > MaxTotal {
		return nil, errors.Wrap(ErrOverflow, "NewArrayContextFromFreqs")
	}
	return &ArrayContext{
		freqs:               freqs,
		positions:           make([]uint64, len(freqs)),
		positionsValidUntil: -1,
		total:               total,
	}, nil
}

// Len returns the size of the alphabet, N.
func (c *ArrayContext) Len() int { return len(c.freqs) }

// Total returns the sum of all frequencies.
func (c *ArrayContext) Total() uint64 { return c.total }

// SymbolFreq returns the frequency of s, or 0 if s is outside [0, N).
func (c *ArrayContext) SymbolFreq(s int64) uint64 {
	if s < 0 || s >= int64(len(c.freqs)) {
		return 0
	}
	return c.freqs[s]
}

// SymbolPos returns the sum of frequencies of symbols strictly less than s.
// It extends the lazily-maintained cumulative table forward as needed, which
// amortizes well for the decoder's forward-scanning search pattern.
//
// positions[i] holds the inclusive prefix sum Σ_{k<=i} freqs[k], so
// SymbolPos(s)'s Σ_{k<s} freqs[k] is exactly positions[s-1].
func (c *ArrayContext) SymbolPos(s int64) uint64 {
	if s <= 0 {
		return 0
	}
	if s > int64(len(c.freqs)) {
		return c.total
	}
	target := int(s) - 1
	if target > c.positionsValidUntil {
		start := c.positionsValidUntil + 1
		var running uint64
		if start > 0 {
			running = c.positions[start-1]
		}
		for i := start; i <= target; i++ {
			running += c.freqs[i]
			c.positions[i] = running
		}
		c.positionsValidUntil = target
	}
	return c.positions[target]
}

// SetSymbolFrequency sets s's frequency to freq, updating Total() and
// invalidating cumulative positions above s.
func (c *ArrayContext) SetSymbolFrequency(s int64, freq uint64) error {
	if s < 0 || s >= int64(len(c.freqs)) {
		return errors.Wrap(ErrOutOfRange, "SetSymbolFrequency")
	}
	old := c.freqs[s]
	newTotal := c.total - old + freq
	if newTotal > MaxTotal {
		return errors.Wrap(ErrOverflow, "SetSymbolFrequency")
	}
	c.freqs[s] = freq
	c.total = newTotal
	if int(s)-1 < c.positionsValidUntil {
		c.positionsValidUntil = int(s) - 1
	}
	return nil
}

// IncrementSymbolFrequency adds delta to s's frequency. delta defaults to 1
// via IncrementSymbolFrequencyBy1; a negative delta that would drive the
// frequency below zero fails with ErrInvalidArgument.
func (c *ArrayContext) IncrementSymbolFrequency(s int64, delta int64) error {
	if s < 0 || s >= int64(len(c.freqs)) {
		return errors.Wrap(ErrOutOfRange, "IncrementSymbolFrequency")
	}
	old := c.freqs[s]
	if delta < 0 && uint64(-delta) > old {
		return errors.Wrap(ErrInvalidArgument, "IncrementSymbolFrequency")
	}
	var next uint64
	if delta >= 0 {
		next = old + uint64(delta)
	} else {
		next = old - uint64(-delta)
	}
	return c.SetSymbolFrequency(s, next)
}

// IncrementSymbolFrequencyBy1 is shorthand for IncrementSymbolFrequency(s, 1).
func (c *ArrayContext) IncrementSymbolFrequencyBy1(s int64) error {
	return c.IncrementSymbolFrequency(s, 1)
}

// UpdateFrequencies runs mutator against the underlying frequency slice in
// place, then fully recomputes Total() and invalidates the cumulative table.
// mutator must not change the slice's length.
func (c *ArrayContext) UpdateFrequencies(mutator func(freqs []uint64)) error {
	mutator(c.freqs)
	return c.revalidate()
}

// ReplaceFrequencies swaps the underlying frequency vector entirely, then
// recomputes Total() and invalidates the cumulative table. The returned
// error leaves the context with the replacement vector only if the
// replacement is within the max-total guard; otherwise the prior vector is
// restored.
func (c *ArrayContext) ReplaceFrequencies(freqs []uint64) error {
	prev := c.freqs
	c.freqs = freqs
	c.positions = make([]uint64, len(freqs))
	if err := c.revalidate(); err != nil {
		c.freqs = prev
		c.positions = make([]uint64, len(prev))
		c.positionsValidUntil = -1
		return err
	}
	return nil
}

func (c *ArrayContext) revalidate() error {
	var total uint64
	for _, f := range c.freqs {
		total += f
	}
	if total > MaxTotal {
		return errors.Wrap(ErrOverflow, "revalidate")
	}
	c.total = total
	c.positionsValidUntil = -1
	return nil
}
