package arith

import (
	"bytes"
	"testing"
)

// badContext reports a total that is smaller than pos+freq for every
// symbol, exercising the encoder's InconsistentContext check.
type badContext struct{}

func (badContext) Total() uint64            { return 1 }
func (badContext) SymbolFreq(s int64) uint64 { return 5 }
func (badContext) SymbolPos(s int64) uint64  { return 5 }

func TestWriteSymbolInconsistentContext(t *testing.T) {
	buf := &bytes.Buffer{}
	enc := NewEncoder(buf, badContext{})
	err := enc.WriteSymbol(0)
	if err == nil {
		t.Fatal("expected ErrInconsistentContext")
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no bytes written, got %d", buf.Len())
	}
}

func TestSetContextAfterFinalizeFails(t *testing.T) {
	buf := &bytes.Buffer{}
	enc := NewEncoder(buf, badContext{})
	if err := enc.Finalize(false); err != nil {
		t.Fatalf("%v", err)
	}
	if err := enc.SetContext(badContext{}); err == nil {
		t.Fatal("expected ErrAlreadyFinalized")
	}
}
