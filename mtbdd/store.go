package mtbdd

import "sort"

// nodeKey identifies the equivalence class of a node: variant, variable
// index, pointer identities of the children and the terminal value. The
// unicity table is keyed by it, so that at most one physical node exists
// per class.
type nodeKey struct {
	varIndex int
	lo, hi   *Node
	value    Value
}

func keyOf(n *Node) nodeKey {
	return nodeKey{
		varIndex: n.varIndex,
		lo:       n.lo,
		hi:       n.hi,
		value:    n.value,
	}
}

// nodeStore is the hash-consed set of nodes of one diagram
type nodeStore struct {
	unique map[nodeKey]*Node
	nextID uint32
}

func newNodeStore() *nodeStore {
	return &nodeStore{
		unique: make(map[nodeKey]*Node),
	}
}

func (s *nodeStore) size() int {
	return len(s.unique)
}

// inner returns the canonical inner node for (varIndex, lo, hi)
func (s *nodeStore) inner(varIndex int, lo, hi *Node) *Node {
	k := nodeKey{varIndex: varIndex, lo: lo, hi: hi, value: unsetValue}
	if ret, ok := s.unique[k]; ok {
		return ret
	}
	ret := &Node{
		varIndex: varIndex,
		lo:       lo,
		hi:       hi,
		value:    unsetValue,
		id:       s.nextID,
	}
	s.nextID++
	s.unique[k] = ret
	return ret
}

// terminal returns the canonical terminal node for the value
func (s *nodeStore) terminal(v Value) *Node {
	k := nodeKey{varIndex: TerminalVarIndex, value: v}
	if ret, ok := s.unique[k]; ok {
		return ret
	}
	ret := &Node{
		varIndex: TerminalVarIndex,
		value:    v,
		id:       s.nextID,
	}
	s.nextID++
	s.unique[k] = ret
	return ret
}

// insert adds a preconstructed node to the store. Returns true if the node
// is new. When an equivalent node is already stored, the table keeps the
// stored one and the argument remains an un-interned duplicate until the
// next RemoveRedundantTests
func (s *nodeStore) insert(n *Node) bool {
	k := keyOf(n)
	if _, ok := s.unique[k]; ok {
		return false
	}
	n.id = s.nextID
	s.nextID++
	s.unique[k] = n
	return true
}

// lookup returns the stored representative of the class, if any
func (s *nodeStore) lookup(k nodeKey) (*Node, bool) {
	ret, ok := s.unique[k]
	return ret, ok
}

// rekey refreshes the unicity table entry of a node mutated in place.
// oldKey is the key the node was registered under before the mutation
func (s *nodeStore) rekey(oldKey nodeKey, n *Node) {
	if s.unique[oldKey] == n {
		delete(s.unique, oldKey)
	}
	k := keyOf(n)
	if _, ok := s.unique[k]; !ok {
		s.unique[k] = n
	}
}

// ordered returns all nodes sorted by the stable creation id. Map iteration
// order is random, so every deterministic consumer (serialization, DOT,
// export positions) goes through here
func (s *nodeStore) ordered() []*Node {
	ret := make([]*Node, 0, len(s.unique))
	for _, n := range s.unique {
		ret = append(ret, n)
	}
	sort.Slice(ret, func(i, j int) bool {
		return ret[i].id < ret[j].id
	})
	return ret
}
