package mtbdd

import (
	"sort"

	"github.com/fsmkit/mtbdd.go/common"
	"golang.org/x/xerrors"
)

// FlatHandle is an opaque pointer into the foreign manager's node table
type FlatHandle interface{}

// FlatEntry is one position of a flat node table. Inner entries carry the
// tested variable index and the positions of both children. Leaf entries
// are marked with VarIndex == TerminalVarIndex and carry the terminal value
// in Low, with High == 0
type FlatEntry struct {
	VarIndex int
	Low      int
	High     int
}

// IsLeaf tells whether the entry encodes a terminal
func (e FlatEntry) IsLeaf() bool {
	return e.VarIndex == TerminalVarIndex
}

// FlatManager is the interface assumed from the foreign BDD library: export
// of a rooted subgraph into an indexed node table, and reconstruction of
// single nodes returning fresh handles
type FlatManager interface {
	// Export writes the subgraph under root into a table keyed by the
	// manager's own node indices and returns the root's index
	Export(root FlatHandle) (map[int]FlatEntry, int, error)
	// Leaf returns a handle to the foreign terminal with the given value
	Leaf(value uint32) (FlatHandle, error)
	// Inner returns a handle to the foreign inner node with the given
	// variable index and children
	Inner(varIndex int, lo, hi FlatHandle) (FlatHandle, error)
}

// NewFromFlat builds a diagram over numVars variables from the foreign
// manager, importing the subgraph of rootsIn[r] under root name r for every
// r. The raw import mirrors the foreign structure one node per table entry;
// it is not necessarily reduced, so callers normally follow up with the
// canonicalization pipeline
func NewFromFlat(numVars int, manager FlatManager, rootsIn []FlatHandle) (*MTBDD, error) {
	d := New(numVars)
	for r, rootHandle := range rootsIn {
		entry, err := d.importSubgraph(manager, rootHandle)
		if err != nil {
			return nil, xerrors.Errorf("NewFromFlat: root %d: %w", r, err)
		}
		d.roots[Value(r)] = entry
	}
	return d, nil
}

// importSubgraph pulls one exported table in, renumbering the foreign
// indices to dense positions, and returns the node standing for the root
func (d *MTBDD) importSubgraph(manager FlatManager, root FlatHandle) (*Node, error) {
	table, rootIdx, err := manager.Export(root)
	if err != nil {
		return nil, err
	}
	// dense renumbering of the foreign indices, deterministic by index order
	indices := make([]int, 0, len(table))
	for idx := range table {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	position := make(map[int]int, len(indices))
	for pos, idx := range indices {
		position[idx] = pos
	}
	// allocate placeholders first so children can be wired in any order
	nodes := make([]*Node, len(indices))
	for pos := range nodes {
		nodes[pos] = &Node{value: unsetValue}
	}
	for pos, idx := range indices {
		e := table[idx]
		n := nodes[pos]
		if e.IsLeaf() {
			if e.Low < 0 {
				return nil, xerrors.Errorf("flat entry %d: negative terminal value: %w", idx, common.ErrCorruptedData)
			}
			n.varIndex = TerminalVarIndex
			n.value = Value(e.Low)
			continue
		}
		if e.VarIndex < 0 || e.VarIndex >= d.numVars {
			return nil, xerrors.Errorf("flat entry %d: variable %d of %d: %w", idx, e.VarIndex, d.numVars, common.ErrInvalidVariable)
		}
		loPos, okLo := position[e.Low]
		hiPos, okHi := position[e.High]
		if !okLo || !okHi {
			return nil, xerrors.Errorf("flat entry %d: dangling child reference: %w", idx, common.ErrCorruptedData)
		}
		n.varIndex = e.VarIndex
		n.lo = nodes[loPos]
		n.hi = nodes[hiPos]
	}
	for _, n := range nodes {
		d.store.insert(n)
	}
	rootPos, ok := position[rootIdx]
	if !ok {
		return nil, xerrors.Errorf("flat root %d not in exported table: %w", rootIdx, common.ErrCorruptedData)
	}
	return nodes[rootPos], nil
}

// ToFlat materializes the whole diagram inside the foreign manager and
// writes the handle of every root into rootsOut, indexed by root name. The
// caller's contract is a contiguous state numbering: the root index keys
// must be exactly 0..len(rootsOut)-1. The diagram must be complete
func (d *MTBDD) ToFlat(manager FlatManager, rootsOut []FlatHandle) error {
	names := d.RootNames()
	if len(names) != len(rootsOut) {
		return xerrors.Errorf("ToFlat: %d roots, %d slots: %w", len(names), len(rootsOut), common.ErrNonContiguousRoots)
	}
	for i, name := range names {
		if name != Value(i) {
			return xerrors.Errorf("ToFlat: name %d at position %d: %w", name, i, common.ErrNonContiguousRoots)
		}
	}
	nodes := d.store.ordered()
	position := make(map[*Node]int, len(nodes))
	for pos, n := range nodes {
		position[n] = pos
	}
	// working table parallel to positions; made[pos] memoizes the foreign
	// handle so every node is materialized exactly once
	made := make([]FlatHandle, len(nodes))
	done := make([]bool, len(nodes))
	var materialize func(n *Node) (FlatHandle, error)
	materialize = func(n *Node) (FlatHandle, error) {
		pos, ok := position[n]
		if !ok {
			return nil, xerrors.Errorf("ToFlat: reachable node missing from the store: %w", common.ErrCorruptedData)
		}
		if done[pos] {
			return made[pos], nil
		}
		var ret FlatHandle
		var err error
		if n.IsTerminal() {
			ret, err = manager.Leaf(uint32(n.value))
		} else {
			if n.lo == nil || n.hi == nil {
				return nil, xerrors.Errorf("ToFlat: node at variable %d has an undefined branch: %w", n.varIndex, common.ErrIncompleteDiagram)
			}
			var lo, hi FlatHandle
			if lo, err = materialize(n.lo); err != nil {
				return nil, err
			}
			if hi, err = materialize(n.hi); err != nil {
				return nil, err
			}
			ret, err = manager.Inner(n.varIndex, lo, hi)
		}
		if err != nil {
			return nil, err
		}
		made[pos] = ret
		done[pos] = true
		return ret, nil
	}
	for _, name := range names {
		h, err := materialize(d.roots[name])
		if err != nil {
			return xerrors.Errorf("ToFlat: root %d: %w", name, err)
		}
		rootsOut[name] = h
	}
	return nil
}
