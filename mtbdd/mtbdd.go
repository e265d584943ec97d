package mtbdd

import (
	"sort"

	"github.com/fsmkit/mtbdd.go/common"
	"golang.org/x/xerrors"
)

// MTBDD is one shared multi-terminal ROBDD: a fixed variable count, a
// hash-consed node store and the root index mapping root names (source
// state identifiers) to their entry nodes. A diagram owns its nodes
// exclusively; it is not safe for concurrent use
type MTBDD struct {
	numVars int
	store   *nodeStore
	roots   map[Value]*Node
}

// New creates an empty diagram over numVars Boolean variables
func New(numVars int) *MTBDD {
	common.Assert(numVars >= 0, "mtbdd.New: negative variable count %d", numVars)
	return &MTBDD{
		numVars: numVars,
		store:   newNodeStore(),
		roots:   make(map[Value]*Node),
	}
}

// NumVars returns the fixed variable count of the diagram
func (d *MTBDD) NumVars() int {
	return d.numVars
}

// Size returns the number of nodes in the store
func (d *MTBDD) Size() int {
	return d.store.size()
}

// CreateTerminal returns the canonical terminal node for the value
func (d *MTBDD) CreateTerminal(value Value) *Node {
	common.Assert(value != unsetValue, "CreateTerminal: reserved internal marker")
	return d.store.terminal(value)
}

// CreateNode returns the canonical inner node testing varIndex with the
// given children. Children may be nil (partial diagram). Violations of the
// variable range or of the strict child ordering are reported before
// anything is created
func (d *MTBDD) CreateNode(varIndex int, lo, hi *Node) (*Node, error) {
	if varIndex < 0 || varIndex >= d.numVars {
		return nil, xerrors.Errorf("CreateNode: index %d with %d variables: %w", varIndex, d.numVars, common.ErrInvalidVariable)
	}
	if lo != nil && lo.level(d.numVars) <= varIndex {
		return nil, xerrors.Errorf("CreateNode: low child at %d under %d: %w", lo.varIndex, varIndex, common.ErrChildOrder)
	}
	if hi != nil && hi.level(d.numVars) <= varIndex {
		return nil, xerrors.Errorf("CreateNode: high child at %d under %d: %w", hi.varIndex, varIndex, common.ErrChildOrder)
	}
	return d.store.inner(varIndex, lo, hi), nil
}

// CreateRoot binds the canonical entry node at variable 0 with both branches
// undefined under the name; every root created this way shares that one
// node until insertions diverge. Fails if the name is already bound
func (d *MTBDD) CreateRoot(name Value) (*Node, error) {
	if _, ok := d.roots[name]; ok {
		return nil, xerrors.Errorf("CreateRoot: name %d: %w", name, common.ErrDuplicateRoot)
	}
	if d.numVars == 0 {
		return nil, xerrors.Errorf("CreateRoot: no variables to test: %w", common.ErrInvalidVariable)
	}
	ret := d.store.inner(0, nil, nil)
	d.roots[name] = ret
	return ret, nil
}

// PromoteToRoot binds an existing node under the name, replacing any
// prior binding
func (d *MTBDD) PromoteToRoot(n *Node, name Value) {
	common.Assert(n != nil, "PromoteToRoot: nil node")
	d.roots[name] = n
}

// GetRoot returns the entry node bound under the name
func (d *MTBDD) GetRoot(name Value) (*Node, bool) {
	ret, ok := d.roots[name]
	return ret, ok
}

// InsertNode adds a preconstructed node to the store and reports whether it
// was new. The flat-table import adds its nodes to the store the same way;
// the result is not necessarily reduced until the canonicalization pipeline
// runs
func (d *MTBDD) InsertNode(n *Node) bool {
	return d.store.insert(n)
}

// RootNames returns all bound root names in ascending order
func (d *MTBDD) RootNames() []Value {
	ret := make([]Value, 0, len(d.roots))
	for name := range d.roots {
		ret = append(ret, name)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i] < ret[j] })
	return ret
}

// NumRoots returns the number of bound root names
func (d *MTBDD) NumRoots() int {
	return len(d.roots)
}

// InsertBitString augments the diagram so that the walk from the root bound
// under name which follows bits (low on false, high on true) ends in a
// terminal with the given value. Paths disagreeing with bits are unchanged
// and keep sharing subgraphs. The result may be partial or non-reduced;
// running the canonicalization pipeline afterwards is the caller's job.
// Inserting the same (bits, value) twice is a no-op
func (d *MTBDD) InsertBitString(name Value, bits common.BitString, value Value) error {
	if len(bits) == 0 || len(bits) != d.numVars {
		return xerrors.Errorf("InsertBitString: %d bits, %d variables: %w", len(bits), d.numVars, common.ErrWrongBitStringLength)
	}
	if value >= Sink {
		return xerrors.Errorf("InsertBitString: value %d: %w", value, common.ErrReservedValue)
	}
	root, ok := d.roots[name]
	if !ok {
		return xerrors.Errorf("InsertBitString: root %d: %w", name, common.ErrRootNotFound)
	}
	d.roots[name] = d.insertRec(root, 0, bits, value)
	return nil
}

// insertRec descends along bits, returning the (possibly new) node which
// replaces n at variable v. Nodes are never mutated here: an unchanged
// subtree returns the original pointer, so untouched paths keep sharing
func (d *MTBDD) insertRec(n *Node, v int, bits common.BitString, value Value) *Node {
	if v == d.numVars {
		return d.store.terminal(value)
	}
	if n == nil {
		// no node tests this variable yet; the opposite branch stays undefined
		child := d.insertRec(nil, v+1, bits, value)
		if bits[v] {
			return d.store.inner(v, nil, child)
		}
		return d.store.inner(v, child, nil)
	}
	if n.level(d.numVars) > v {
		// v is skipped here, a don't-care of every existing path through n.
		// Pin the inserted assignment and keep the other branch behaving as n
		child := d.insertRec(n, v+1, bits, value)
		if bits[v] {
			return d.store.inner(v, n, child)
		}
		return d.store.inner(v, child, n)
	}
	common.Assert(n.varIndex == v, "insertRec: node at %d reached at variable %d", n.varIndex, v)
	if bits[v] {
		if hi := d.insertRec(n.hi, v+1, bits, value); hi != n.hi {
			return d.store.inner(v, n.lo, hi)
		}
		return n
	}
	if lo := d.insertRec(n.lo, v+1, bits, value); lo != n.lo {
		return d.store.inner(v, lo, n.hi)
	}
	return n
}

// Trim drops every node unreachable from the root index. Node identity is
// untouched: handles to surviving nodes stay valid
func (d *MTBDD) Trim() *MTBDD {
	marked := make(map[*Node]struct{})
	stack := make([]*Node, 0, len(d.roots))
	for _, root := range d.roots {
		stack = append(stack, root)
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := marked[n]; ok {
			continue
		}
		marked[n] = struct{}{}
		if n.IsTerminal() {
			continue
		}
		if n.lo != nil {
			stack = append(stack, n.lo)
		}
		if n.hi != nil {
			stack = append(stack, n.hi)
		}
	}
	next := newNodeStore()
	next.nextID = d.store.nextID
	for k, n := range d.store.unique {
		if _, ok := marked[n]; ok {
			next.unique[k] = n
		}
	}
	d.store = next
	return d
}

// RemoveRedundantTests rewrites every root subtree bottom-up into a fresh
// store: an inner node whose rewritten children are the same non-nil node is
// replaced by that child, everything else is re-canonicalized. Equivalent
// duplicates merge into one physical node on the way. The pass is
// idempotent. It rebuilds the node set, so all previously held node handles
// become invalid
func (d *MTBDD) RemoveRedundantTests() *MTBDD {
	fresh := newNodeStore()
	memo := make(map[*Node]*Node)
	var rewrite func(n *Node) *Node
	rewrite = func(n *Node) *Node {
		if n == nil {
			return nil
		}
		if ret, ok := memo[n]; ok {
			return ret
		}
		var ret *Node
		if n.IsTerminal() {
			ret = fresh.terminal(n.value)
		} else {
			lo, hi := rewrite(n.lo), rewrite(n.hi)
			if lo != nil && lo == hi {
				ret = lo
			} else {
				ret = fresh.inner(n.varIndex, lo, hi)
			}
		}
		memo[n] = ret
		return ret
	}
	// deterministic order of fresh ids
	for _, name := range d.RootNames() {
		d.roots[name] = rewrite(d.roots[name])
	}
	d.store = fresh
	return d
}

// MakeComplete fills every undefined branch with a terminal carrying
// sinkValue. With alsoCompleteTerminals, every terminal value occurring in
// the diagram which is not yet a root name additionally gets rooted to the
// sink, so that each referenced state has an explicit (rejecting)
// definition. The sink terminal is materialized, and bound as a root under
// sinkValue, only when at least one hole was filled or at least one
// terminal-completion root was added. Nodes are patched in place: handles
// stay valid
func (d *MTBDD) MakeComplete(sinkValue Value, alsoCompleteTerminals bool) *MTBDD {
	common.Assert(sinkValue != unsetValue, "MakeComplete: reserved internal marker")
	var sink *Node
	sinkIsNew := false
	getSink := func() *Node {
		if sink != nil {
			return sink
		}
		if existing, ok := d.store.lookup(nodeKey{varIndex: TerminalVarIndex, value: sinkValue}); ok {
			sink = existing
		} else {
			sink = &Node{varIndex: TerminalVarIndex, value: sinkValue}
			sinkIsNew = true
		}
		return sink
	}
	used := false
	snapshot := d.store.ordered()
	for _, n := range snapshot {
		if n.IsTerminal() || (n.lo != nil && n.hi != nil) {
			continue
		}
		oldKey := keyOf(n)
		if n.lo == nil {
			n.lo = getSink()
		}
		if n.hi == nil {
			n.hi = getSink()
		}
		d.store.rekey(oldKey, n)
		used = true
	}
	if alsoCompleteTerminals {
		for _, n := range snapshot {
			if !n.IsTerminal() {
				continue
			}
			if _, ok := d.roots[n.value]; !ok {
				d.roots[n.value] = getSink()
				used = true
			}
		}
	}
	if used {
		if sinkIsNew {
			d.store.insert(sink)
		}
		d.roots[sinkValue] = sink
	}
	return d
}

// MakeCompleteDefault is MakeComplete with the reserved Sink value and
// terminal completion on
func (d *MTBDD) MakeCompleteDefault() *MTBDD {
	return d.MakeComplete(Sink, true)
}

// Canonicalize runs the full pipeline: trim unreachable nodes, remove
// redundant tests, complete with the default sink
func (d *MTBDD) Canonicalize() *MTBDD {
	return d.Trim().RemoveRedundantTests().MakeCompleteDefault()
}
