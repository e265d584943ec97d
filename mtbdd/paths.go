package mtbdd

import (
	"github.com/fsmkit/mtbdd.go/common"
	"golang.org/x/xerrors"
)

// Path is one full-length input assignment together with the terminal value
// it reaches
type Path struct {
	Bits  common.BitString
	Value Value
}

// PathIterator enumerates every input assignment reaching a terminal from
// one entry node, expanding variables skipped along a path (don't-cares) to
// both 0 and 1. Emitted bit strings always have the full variable length.
// Enumeration order is unspecified between branches but deterministic for a
// given diagram
type PathIterator struct {
	numVars int
	root    *Node
}

// AllPathsFrom returns an enumerator of all (bits, value) pairs reachable
// from the given node. An undefined branch is enumerated as if it led to
// the Sink terminal; run MakeComplete first to have the sink rooted
// explicitly
func (d *MTBDD) AllPathsFrom(root *Node) *PathIterator {
	common.Assert(root != nil, "AllPathsFrom: nil root")
	return &PathIterator{
		numVars: d.numVars,
		root:    root,
	}
}

// AllPaths is AllPathsFrom for a bound root name
func (d *MTBDD) AllPaths(name Value) (*PathIterator, error) {
	root, ok := d.roots[name]
	if !ok {
		return nil, xerrors.Errorf("AllPaths: root %d: %w", name, common.ErrRootNotFound)
	}
	return d.AllPathsFrom(root), nil
}

// Iterate calls fun for every enumerated (bits, value) pair until fun
// returns false. The bit string is owned by the callee
func (it *PathIterator) Iterate(fun func(bits common.BitString, value Value) bool) {
	prefix := make(common.BitString, 0, it.numVars)
	it.expand(prefix, it.root.level(it.numVars), it.root, fun)
}

// Collect drains the iterator into a slice
func (it *PathIterator) Collect() []Path {
	ret := make([]Path, 0)
	it.Iterate(func(bits common.BitString, value Value) bool {
		ret = append(ret, Path{Bits: bits, Value: value})
		return true
	})
	return ret
}

// expand appends skipped don't-care variables in both polarities before
// handing the prefix over to the target node. target == nil stands for the
// implicit sink of an incomplete branch
func (it *PathIterator) expand(prefix common.BitString, skipped int, target *Node, fun func(common.BitString, Value) bool) bool {
	if skipped == 0 {
		return it.walk(prefix, target, fun)
	}
	if !it.expand(append(prefix, false), skipped-1, target, fun) {
		return false
	}
	return it.expand(append(prefix, true), skipped-1, target, fun)
}

// walk visits a node whose level equals len(prefix)
func (it *PathIterator) walk(prefix common.BitString, n *Node, fun func(common.BitString, Value) bool) bool {
	if n == nil {
		common.Assert(len(prefix) == it.numVars, "path enumeration: short prefix at undefined branch")
		return fun(prefix.Clone(), Sink)
	}
	if n.IsTerminal() {
		common.Assert(len(prefix) == it.numVars, "path enumeration: short prefix at terminal")
		return fun(prefix.Clone(), n.value)
	}
	common.Assert(n.varIndex == len(prefix), "path enumeration: node at %d reached with %d-bit prefix", n.varIndex, len(prefix))
	loSkip := it.transitionLength(n, n.lo) - 1
	if !it.expand(append(prefix, false), loSkip, n.lo, fun) {
		return false
	}
	hiSkip := it.transitionLength(n, n.hi) - 1
	return it.expand(append(prefix, true), hiSkip, n.hi, fun)
}

// transitionLength is the number of variables consumed between a node and
// its child: the child's level minus the node's, with undefined branches
// jumping straight to the terminal level
func (it *PathIterator) transitionLength(src, tgt *Node) int {
	if tgt == nil {
		return it.numVars - src.varIndex
	}
	return tgt.level(it.numVars) - src.varIndex
}

// Eval descends from the root bound under name following bits and returns
// the reached terminal value. Variables not tested along the walk are
// skipped; an undefined branch evaluates to Sink
func (d *MTBDD) Eval(name Value, bits common.BitString) (Value, error) {
	if len(bits) != d.numVars {
		return 0, xerrors.Errorf("Eval: %d bits, %d variables: %w", len(bits), d.numVars, common.ErrWrongBitStringLength)
	}
	n, ok := d.roots[name]
	if !ok {
		return 0, xerrors.Errorf("Eval: root %d: %w", name, common.ErrRootNotFound)
	}
	for n != nil && !n.IsTerminal() {
		if bits[n.varIndex] {
			n = n.hi
		} else {
			n = n.lo
		}
	}
	if n == nil {
		return Sink, nil
	}
	return n.value, nil
}
