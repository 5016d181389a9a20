// Package ctwctx adapts the Context-Tree-Weighting probability estimator
// into a two-symbol symctx.Context, so the arithmetic coder in package
// arith can be driven by a genuinely adaptive, history-conditioned model
// instead of only a dense array context.
//
// The estimator itself — treeNode, update, krichevskyTrofimov, logaddexp —
// is the Context Tree Weighting algorithm of Willems and Tjalkens.
package ctwctx

import (
	"math"

	"github.com/fumin/arith/internal/numeric"
	"github.com/fumin/arith/symctx"
)

// precisionBits sets the fixed scale Total() reports. A context-tree
// probability in (0, 1) is quantized onto this scale; it must stay well
// under symctx.MaxTotal so both candidate frequencies (for bit 0 and bit 1)
// can always be pushed to at least 1.
const precisionBits = 20

const scale = uint64(1) << precisionBits

// treeNode holds the log-probability of the binary suffix it represents,
// plus the Krichevsky-Trofimov zero/one counts needed to update it.
type treeNode struct {
	logProb float64
	a, b    uint32
	lktp    float64
	left    *treeNode
	right   *treeNode
}

type snapshot struct {
	node  *treeNode
	state treeNode
}

// Model is a symctx.Context over the alphabet {0, 1} whose frequencies
// track a Context-Tree-Weighting estimate of the next bit given the last
// depth bits observed.
type Model struct {
	bits []int
	root *treeNode

	freq0 uint64
	freq1 uint64
}

// NewModel returns a Model conditioning on the last depth bits of history.
// The history starts as all zero bits, matching NewCTW's zero-valued prior
// in the teacher implementation this is adapted from.
func NewModel(depth int) *Model {
	m := &Model{
		bits: make([]int, depth),
		root: &treeNode{},
	}
	m.recompute()
	return m
}

// Total implements symctx.Context.
func (m *Model) Total() uint64 { return scale }

// SymbolFreq implements symctx.Context. Symbol 0 is "next bit is zero";
// symbol 1 is "next bit is one".
func (m *Model) SymbolFreq(s int64) uint64 {
	switch s {
	case 0:
		return m.freq0
	case 1:
		return m.freq1
	default:
		return 0
	}
}

// SymbolPos implements symctx.Context.
func (m *Model) SymbolPos(s int64) uint64 {
	switch {
	case s <= 0:
		return 0
	case s == 1:
		return m.freq0
	default:
		return scale
	}
}

// Observe updates the context tree with the newly seen bit and recomputes
// the quantized frequencies for the next query.
func (m *Model) Observe(bit int) {
	update(m.root, m.bits, bit)
	for i := 1; i < len(m.bits); i++ {
		m.bits[i-1] = m.bits[i]
	}
	if len(m.bits) > 0 {
		m.bits[len(m.bits)-1] = bit
	}
	m.recompute()
}

// recompute quantizes the tree's current Prob0 estimate onto Total()'s
// scale, clamping both candidate frequencies to at least 1 so WriteSymbol
// never sees a zero-frequency symbol.
func (m *Model) recompute() {
	before := m.root.logProb
	traversal := update(m.root, m.bits, 0)
	after := m.root.logProb
	revert(traversal)

	p0 := math.Exp(after - before)
	f0 := numeric.Clamp(uint64(p0*float64(scale)), 1, scale-1)
	m.freq0 = f0
	m.freq1 = scale - f0
}

func logaddexp(x, y float64) float64 {
	tmp := x - y
	if tmp > 0 {
		return x + math.Log1p(math.Exp(-tmp))
	}
	return y + math.Log1p(math.Exp(tmp))
}

func update(root *treeNode, bits []int, bit int) []snapshot {
	traversed := []snapshot{{node: root, state: *root}}
	krichevskyTrofimov(root, bit)

	node := root
	for d := 0; d < len(bits); d++ {
		if bits[len(bits)-1-d] == 0 {
			if node.right == nil {
				node.right = &treeNode{}
			}
			node = node.right
		} else {
			if node.left == nil {
				node.left = &treeNode{}
			}
			node = node.left
		}
		traversed = append(traversed, snapshot{node: node, state: *node})
		krichevskyTrofimov(node, bit)
	}

	for i := len(traversed) - 1; i >= 0; i-- {
		node := traversed[i].node
		if node.left != nil || node.right != nil {
			var lp, rp float64
			if node.left != nil {
				lp = node.left.logProb
			}
			if node.right != nil {
				rp = node.right.logProb
			}
			const w = 0.5
			node.logProb = logaddexp(math.Log(w)+node.lktp, math.Log(1-w)+lp+rp)
		} else {
			node.logProb = node.lktp
		}
	}
	return traversed
}

// revert undoes krichevskyTrofimov/logProb updates from a tentative query.
// It deliberately leaves any child nodes created while traversing in place:
// they cost nothing to keep and will be reused by the next real Observe.
func revert(traversed []snapshot) {
	for _, ss := range traversed {
		node := ss.node
		node.lktp = ss.state.lktp
		node.a = ss.state.a
		node.b = ss.state.b
		node.logProb = ss.state.logProb
	}
}

func krichevskyTrofimov(node *treeNode, bit int) {
	a, b := float64(node.a), float64(node.b)
	if bit == 0 {
		node.lktp = node.lktp + math.Log(a+0.5) - math.Log(a+b+1)
		node.a++
	} else {
		node.lktp = node.lktp + math.Log(b+0.5) - math.Log(a+b+1)
		node.b++
	}
}

var _ symctx.Context = (*Model)(nil)
