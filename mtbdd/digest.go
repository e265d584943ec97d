package mtbdd

import (
	"github.com/fsmkit/mtbdd.go/common"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/xerrors"
)

// Structural digest: a blake2b-256 fingerprint of the subgraph under a
// node, computed bottom-up. Canonical subgraphs inducing the same
// (bits -> value) relation hash equal, so digests give cheap equality
// checks across round trips and diagram copies

// Digest is the blake2b-256 fingerprint of a subgraph
type Digest [32]byte

const (
	digestTagTerminal = byte(0x00)
	digestTagInner    = byte(0x01)
	digestTagAbsent   = byte(0x02)
)

// RootDigest computes the structural digest of the subgraph entered by the
// root bound under name
func (d *MTBDD) RootDigest(name Value) (Digest, error) {
	root, ok := d.roots[name]
	if !ok {
		return Digest{}, xerrors.Errorf("RootDigest: root %d: %w", name, common.ErrRootNotFound)
	}
	memo := make(map[*Node]Digest)
	return digestOf(root, memo), nil
}

// Digests computes the digest of every bound root, keyed by root name
func (d *MTBDD) Digests() map[Value]Digest {
	memo := make(map[*Node]Digest)
	ret := make(map[Value]Digest, len(d.roots))
	for name, root := range d.roots {
		ret[name] = digestOf(root, memo)
	}
	return ret
}

func digestOf(n *Node, memo map[*Node]Digest) Digest {
	if n == nil {
		return blake2b.Sum256([]byte{digestTagAbsent})
	}
	if ret, ok := memo[n]; ok {
		return ret
	}
	var ret Digest
	if n.IsTerminal() {
		ret = blake2b.Sum256(common.Concat(digestTagTerminal, common.Uint32To4Bytes(uint32(n.value))))
	} else {
		lo := digestOf(n.lo, memo)
		hi := digestOf(n.hi, memo)
		ret = blake2b.Sum256(common.Concat(digestTagInner, common.Uint16To2Bytes(uint16(n.varIndex)), lo[:], hi[:]))
	}
	memo[n] = ret
	return ret
}
