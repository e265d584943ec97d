package automata

import (
	"github.com/fsmkit/mtbdd.go/common"
	"github.com/fsmkit/mtbdd.go/mtbdd"
	"golang.org/x/xerrors"
)

// RenumberRoots rewrites a diagram with sparse root names into a fresh one
// whose roots are the contiguous names 0..R-1, as the flat export contract
// requires. Terminal values are state identifiers, so they are remapped
// through the same mapping; every terminal value must therefore be a root
// name, which MakeComplete with terminal completion guarantees. Returns the
// fresh diagram and the old-to-new name mapping
func RenumberRoots(d *mtbdd.MTBDD) (*mtbdd.MTBDD, map[mtbdd.Value]mtbdd.Value, error) {
	names := d.RootNames()
	mapping := make(map[mtbdd.Value]mtbdd.Value, len(names))
	for i, name := range names {
		mapping[name] = mtbdd.Value(i)
	}
	fresh := mtbdd.New(d.NumVars())
	memo := make(map[*mtbdd.Node]*mtbdd.Node)
	var copyRec func(n *mtbdd.Node) (*mtbdd.Node, error)
	copyRec = func(n *mtbdd.Node) (*mtbdd.Node, error) {
		if n == nil {
			return nil, nil
		}
		if ret, ok := memo[n]; ok {
			return ret, nil
		}
		var ret *mtbdd.Node
		if n.IsTerminal() {
			mapped, ok := mapping[n.Value()]
			if !ok {
				return nil, xerrors.Errorf("RenumberRoots: terminal value %d is not a root name (run MakeComplete first): %w",
					n.Value(), common.ErrRootNotFound)
			}
			ret = fresh.CreateTerminal(mapped)
		} else {
			lo, err := copyRec(n.Lo())
			if err != nil {
				return nil, err
			}
			hi, err := copyRec(n.Hi())
			if err != nil {
				return nil, err
			}
			if ret, err = fresh.CreateNode(n.VarIndex(), lo, hi); err != nil {
				return nil, err
			}
		}
		memo[n] = ret
		return ret, nil
	}
	for _, name := range names {
		root, _ := d.GetRoot(name)
		copied, err := copyRec(root)
		if err != nil {
			return nil, nil, err
		}
		fresh.PromoteToRoot(copied, mapping[name])
	}
	return fresh, mapping, nil
}
