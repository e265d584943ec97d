package mtbdd

import (
	"bytes"

	"github.com/fsmkit/mtbdd.go/common"
	"golang.org/x/xerrors"
)

// Binary layout of a diagram in a key/value store. Three partitions:
// a single header record, one record per node keyed by its position in
// creation order, and one record per root name. Node records reference
// children by position, so a store written by WriteTo is self-contained

const (
	partitionHeader = byte('h')
	partitionNode   = byte('n')
	partitionRoot   = byte('r')
)

const (
	terminalFlag = 0x01
	hasLoFlag    = 0x02
	hasHiFlag    = 0x04
)

// WriteTo serializes the diagram into the key/value writer. Holes of a
// partial diagram are preserved. Every root target and every child must be
// in the store, otherwise WriteTo panics; a raw flat import whose roots share
// nodes leaves such duplicates outside the store until RemoveRedundantTests
func (d *MTBDD) WriteTo(w common.KVWriter) {
	nodes := d.store.ordered()
	position := make(map[*Node]uint32, len(nodes))
	for pos, n := range nodes {
		position[n] = uint32(pos)
	}

	var buf bytes.Buffer
	_ = common.WriteUint16(&buf, uint16(d.numVars))
	_ = common.WriteUint32(&buf, uint32(len(nodes)))
	_ = common.WriteUint32(&buf, uint32(len(d.roots)))
	common.MakeWriterPartition(w, partitionHeader).Set(nil, buf.Bytes())

	nodeW := common.MakeWriterPartition(w, partitionNode)
	for pos, n := range nodes {
		nodeW.Set(common.Uint32To4Bytes(uint32(pos)), encodeNode(n, position))
	}
	rootW := common.MakeWriterPartition(w, partitionRoot)
	for _, name := range d.RootNames() {
		pos, ok := position[d.roots[name]]
		common.Assert(ok, "WriteTo: root %d target not in the store", name)
		rootW.Set(common.Uint32To4Bytes(uint32(name)), common.Uint32To4Bytes(pos))
	}
}

func encodeNode(n *Node, position map[*Node]uint32) []byte {
	var buf bytes.Buffer
	var flags byte
	if n.IsTerminal() {
		flags = terminalFlag
	} else {
		if n.lo != nil {
			flags |= hasLoFlag
		}
		if n.hi != nil {
			flags |= hasHiFlag
		}
	}
	_ = common.WriteByte(&buf, flags)
	if n.IsTerminal() {
		_ = common.WriteUint32(&buf, uint32(n.value))
		return buf.Bytes()
	}
	_ = common.WriteUint16(&buf, uint16(n.varIndex))
	if n.lo != nil {
		pos, ok := position[n.lo]
		common.Assert(ok, "encodeNode: low child not in the store")
		_ = common.WriteUint32(&buf, pos)
	}
	if n.hi != nil {
		pos, ok := position[n.hi]
		common.Assert(ok, "encodeNode: high child not in the store")
		_ = common.WriteUint32(&buf, pos)
	}
	return buf.Bytes()
}

// ReadDiagram reconstructs a diagram previously persisted with WriteTo.
// Unlike the flat import, the result is byte-faithful: node identity,
// sharing and holes come back exactly as written
func ReadDiagram(store common.KVStore) (*MTBDD, error) {
	headerBin := common.MakeReaderPartition(store, partitionHeader).Get(nil)
	if len(headerBin) == 0 {
		return nil, xerrors.Errorf("ReadDiagram: no header record: %w", common.ErrCorruptedData)
	}
	rdr := bytes.NewReader(headerBin)
	var numVars uint16
	var numNodes, numRoots uint32
	if err := common.ReadUint16(rdr, &numVars); err != nil {
		return nil, xerrors.Errorf("ReadDiagram: header: %w", err)
	}
	if err := common.ReadUint32(rdr, &numNodes); err != nil {
		return nil, xerrors.Errorf("ReadDiagram: header: %w", err)
	}
	if err := common.ReadUint32(rdr, &numRoots); err != nil {
		return nil, xerrors.Errorf("ReadDiagram: header: %w", err)
	}
	if rdr.Len() != 0 {
		return nil, xerrors.Errorf("ReadDiagram: header: %w", common.ErrNotAllBytesConsumed)
	}

	d := New(int(numVars))
	nodeR := common.MakeReaderPartition(store, partitionNode)
	nodes := make([]*Node, numNodes)
	for pos := range nodes {
		nodes[pos] = &Node{value: unsetValue}
	}
	for pos := range nodes {
		data := nodeR.Get(common.Uint32To4Bytes(uint32(pos)))
		if len(data) == 0 {
			return nil, xerrors.Errorf("ReadDiagram: node %d missing: %w", pos, common.ErrCorruptedData)
		}
		if err := decodeNode(data, nodes, pos, d.numVars); err != nil {
			return nil, xerrors.Errorf("ReadDiagram: node %d: %w", pos, err)
		}
	}
	for _, n := range nodes {
		d.store.insert(n)
	}

	rootCount := uint32(0)
	var rootErr error
	common.MakeIteratorPartition(store, partitionRoot).Iterate(func(k, v []byte) bool {
		name, err := common.Uint32From4Bytes(k)
		if err != nil {
			rootErr = err
			return false
		}
		pos, err := common.Uint32From4Bytes(v)
		if err != nil {
			rootErr = err
			return false
		}
		if pos >= numNodes {
			rootErr = xerrors.Errorf("root %d references position %d of %d: %w", name, pos, numNodes, common.ErrCorruptedData)
			return false
		}
		d.roots[Value(name)] = nodes[pos]
		rootCount++
		return true
	})
	if rootErr != nil {
		return nil, xerrors.Errorf("ReadDiagram: %w", rootErr)
	}
	if rootCount != numRoots {
		return nil, xerrors.Errorf("ReadDiagram: %d root records, header says %d: %w", rootCount, numRoots, common.ErrCorruptedData)
	}
	return d, nil
}

func decodeNode(data []byte, nodes []*Node, pos, numVars int) error {
	rdr := bytes.NewReader(data)
	flags, err := common.ReadByte(rdr)
	if err != nil {
		return err
	}
	n := nodes[pos]
	if flags&terminalFlag != 0 {
		var value uint32
		if err = common.ReadUint32(rdr, &value); err != nil {
			return err
		}
		n.varIndex = TerminalVarIndex
		n.value = Value(value)
	} else {
		var varIndex uint16
		if err = common.ReadUint16(rdr, &varIndex); err != nil {
			return err
		}
		if int(varIndex) >= numVars {
			return xerrors.Errorf("variable %d of %d: %w", varIndex, numVars, common.ErrInvalidVariable)
		}
		n.varIndex = int(varIndex)
		if flags&hasLoFlag != 0 {
			var loPos uint32
			if err = common.ReadUint32(rdr, &loPos); err != nil {
				return err
			}
			if int(loPos) >= len(nodes) {
				return common.ErrCorruptedData
			}
			n.lo = nodes[loPos]
		}
		if flags&hasHiFlag != 0 {
			var hiPos uint32
			if err = common.ReadUint32(rdr, &hiPos); err != nil {
				return err
			}
			if int(hiPos) >= len(nodes) {
				return common.ErrCorruptedData
			}
			n.hi = nodes[hiPos]
		}
	}
	if rdr.Len() != 0 {
		return common.ErrNotAllBytesConsumed
	}
	return nil
}
