package arith

import "github.com/pkg/errors"

// ErrZeroFrequencySymbol is returned by WriteSymbol when the context reports
// a zero frequency for the symbol being encoded.
var ErrZeroFrequencySymbol = errors.New("arith: symbol has zero frequency")

// ErrInconsistentContext is returned by WriteSymbol when the context's
// SymbolPos/SymbolFreq/Total queries are mutually inconsistent
// (pos+freq > total).
var ErrInconsistentContext = errors.New("arith: context reported pos+freq > total")

// ErrAlreadyFinalized is returned by WriteSymbol, ReadSymbol, and
// SetContext once the codec has been finalized.
var ErrAlreadyFinalized = errors.New("arith: codec already finalized")

// ErrStreamEndedImproperly is returned by Decoder.Finalize when the
// synchronization trailer could not be located.
var ErrStreamEndedImproperly = errors.New("arith: synchronization trailer not found")

// state is the Fresh -> Active -> Finalized lifecycle shared by Encoder and
// Decoder. Fresh moves to Active on the first successful symbol operation;
// Active moves to Finalized when Finalize returns.
type state int

const (
	stateFresh state = iota
	stateActive
	stateFinalized
)
