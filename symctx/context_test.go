package symctx

import "testing"

func TestArrayContextDefaultsToUniform(t *testing.T) {
	c, err := NewArrayContext(4, nil)
	if err != nil {
		t.Fatalf("%v", err)
	}
	if c.Total() != 4 {
		t.Fatalf("total = %d, want 4", c.Total())
	}
	for s := int64(0); s < 4; s++ {
		if f := c.SymbolFreq(s); f != 1 {
			t.Errorf("SymbolFreq(%d) = %d, want 1", s, f)
		}
	}
	wantPos := []uint64{0, 1, 2, 3, 4}
	for s, want := range wantPos {
		if p := c.SymbolPos(int64(s)); p != want {
			t.Errorf("SymbolPos(%d) = %d, want %d", s, p, want)
		}
	}
}

func TestArrayContextOutOfRange(t *testing.T) {
	c, err := NewArrayContext(3, nil)
	if err != nil {
		t.Fatalf("%v", err)
	}
	if f := c.SymbolFreq(-1); f != 0 {
		t.Errorf("SymbolFreq(-1) = %d, want 0", f)
	}
	if f := c.SymbolFreq(99); f != 0 {
		t.Errorf("SymbolFreq(99) = %d, want 0", f)
	}
	if p := c.SymbolPos(-1); p != 0 {
		t.Errorf("SymbolPos(-1) = %d, want 0", p)
	}
	if p := c.SymbolPos(99); p != c.Total() {
		t.Errorf("SymbolPos(99) = %d, want %d", p, c.Total())
	}
}

func TestArrayContextSetSymbolFrequency(t *testing.T) {
	c, err := NewArrayContext(3, nil)
	if err != nil {
		t.Fatalf("%v", err)
	}
	// Scan positions forward to populate the lazy cache before mutating.
	_ = c.SymbolPos(3)

	if err := c.SetSymbolFrequency(1, 9); err != nil {
		t.Fatalf("%v", err)
	}
	if c.Total() != 1+9+1 {
		t.Fatalf("total = %d, want %d", c.Total(), 11)
	}
	if p := c.SymbolPos(2); p != 10 {
		t.Errorf("SymbolPos(2) = %d, want 10", p)
	}
	if p := c.SymbolPos(3); p != 11 {
		t.Errorf("SymbolPos(3) = %d, want 11", p)
	}
}

func TestArrayContextSetSymbolFrequencyOutOfRange(t *testing.T) {
	c, _ := NewArrayContext(2, nil)
	if err := c.SetSymbolFrequency(5, 1); err == nil {
		t.Fatal("expected error")
	}
}

func TestArrayContextSetSymbolFrequencyOverflow(t *testing.T) {
	c, _ := NewArrayContext(2, func(i int) uint64 { return MaxTotal / 2 })
	if err := c.SetSymbolFrequency(0, MaxTotal); err == nil {
		t.Fatal("expected overflow error")
	}
}

func TestArrayContextIncrementSymbolFrequency(t *testing.T) {
	c, _ := NewArrayContext(2, nil)
	if err := c.IncrementSymbolFrequencyBy1(0); err != nil {
		t.Fatalf("%v", err)
	}
	if f := c.SymbolFreq(0); f != 2 {
		t.Errorf("SymbolFreq(0) = %d, want 2", f)
	}
	if err := c.IncrementSymbolFrequency(0, -3); err == nil {
		t.Fatal("expected ErrInvalidArgument")
	}
}

func TestArrayContextUpdateFrequencies(t *testing.T) {
	c, _ := NewArrayContext(3, nil)
	_ = c.SymbolPos(3) // populate cache
	if err := c.UpdateFrequencies(func(freqs []uint64) {
		freqs[0] = 10
		freqs[2] = 0
	}); err != nil {
		t.Fatalf("%v", err)
	}
	if c.Total() != 11 {
		t.Fatalf("total = %d, want 11", c.Total())
	}
	if p := c.SymbolPos(1); p != 10 {
		t.Errorf("SymbolPos(1) = %d, want 10", p)
	}
}

func TestArrayContextReplaceFrequencies(t *testing.T) {
	c, _ := NewArrayContext(2, nil)
	if err := c.ReplaceFrequencies([]uint64{5, 5, 5}); err != nil {
		t.Fatalf("%v", err)
	}
	if c.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", c.Len())
	}
	if c.Total() != 15 {
		t.Fatalf("total = %d, want 15", c.Total())
	}
}

func TestArrayContextReplaceFrequenciesOverflowRestoresPrior(t *testing.T) {
	c, _ := NewArrayContext(2, nil)
	before := c.Total()
	if err := c.ReplaceFrequencies([]uint64{MaxTotal, MaxTotal}); err == nil {
		t.Fatal("expected overflow error")
	}
	if c.Total() != before {
		t.Fatalf("total = %d, want unchanged %d", c.Total(), before)
	}
}

func TestArrayContextInvariants(t *testing.T) {
	c, _ := NewArrayContext(5, func(i int) uint64 { return uint64(i + 1) })
	var sum uint64
	for s := int64(0); s < 5; s++ {
		if got, want := c.SymbolPos(s+1), c.SymbolPos(s)+c.SymbolFreq(s); got != want {
			t.Errorf("SymbolPos(%d)=%d, want SymbolPos(%d)+SymbolFreq(%d)=%d", s+1, got, s, s, want)
		}
		sum += c.SymbolFreq(s)
	}
	if sum != c.Total() {
		t.Errorf("sum of freqs = %d, want total %d", sum, c.Total())
	}
}
