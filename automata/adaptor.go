package automata

import (
	"sort"

	"github.com/fsmkit/mtbdd.go/common"
	"github.com/fsmkit/mtbdd.go/mtbdd"
	"golang.org/x/xerrors"
)

// Transition is one explicit automaton transition
type Transition struct {
	Src mtbdd.Value
	Sym Symbol
	Dst mtbdd.Value
}

type srcSym struct {
	src mtbdd.Value
	sym Symbol
}

// Adaptor accumulates automaton transitions into a shared diagram. The bit
// order is: alphabet bits (big-endian) first, then the nondeterminism
// choice bits (big-endian) which disambiguate multiple successors of one
// (source, symbol) pair. Keeping the choice bits trailing makes projecting
// them out cheap when the foreign library determinizes
type Adaptor struct {
	enc        *SymbolEncoder
	nondetVars int
	d          *mtbdd.MTBDD
	nextChoice map[srcSym]uint64
}

// NewAdaptor creates an adaptor over alphabetVars+nondetVars diagram
// variables
func NewAdaptor(enc *SymbolEncoder, nondetVars int) *Adaptor {
	common.Assert(nondetVars >= 0 && nondetVars <= 63, "NewAdaptor: unsupported choice width %d", nondetVars)
	return &Adaptor{
		enc:        enc,
		nondetVars: nondetVars,
		d:          mtbdd.New(enc.AlphabetVars() + nondetVars),
		nextChoice: make(map[srcSym]uint64),
	}
}

// Diagram returns the underlying diagram
func (a *Adaptor) Diagram() *mtbdd.MTBDD {
	return a.d
}

// AddTransition inserts one transition as a bit-string path under the
// source state's root, assigning the next free choice index of the
// (source, symbol) pair. Unknown symbols are registered on the fly
func (a *Adaptor) AddTransition(src mtbdd.Value, sym Symbol, dst mtbdd.Value) error {
	if err := a.enc.Add(sym); err != nil {
		return err
	}
	symBits, err := a.enc.Encode(sym)
	if err != nil {
		return err
	}
	k := srcSym{src: src, sym: sym}
	choice := a.nextChoice[k]
	bits := common.NewBitString(a.d.NumVars())
	copy(bits, symBits)
	if err = bits.PutUintBits(a.enc.AlphabetVars(), a.nondetVars, choice); err != nil {
		return xerrors.Errorf("AddTransition: successor %d of state %d on symbol %d: %w", choice, src, sym, err)
	}
	if _, ok := a.d.GetRoot(src); !ok {
		if _, err = a.d.CreateRoot(src); err != nil {
			return err
		}
	}
	if err = a.d.InsertBitString(src, bits, dst); err != nil {
		return err
	}
	a.nextChoice[k] = choice + 1
	return nil
}

// Canonicalize runs the canonicalization pipeline on the diagram
func (a *Adaptor) Canonicalize() *Adaptor {
	a.d.Canonicalize()
	return a
}

// Transitions reconstructs the explicit transitions of the diagram from
// path enumeration. Sink paths are dropped, alphabet bit patterns outside
// the encoder dictionary (products of don't-care expansion) are skipped,
// and choice-bit variants of one transition collapse into a single entry.
// The result is sorted by (source, symbol, target)
func (a *Adaptor) Transitions() ([]Transition, error) {
	seen := make(map[Transition]struct{})
	for _, name := range a.d.RootNames() {
		if name == mtbdd.Sink {
			continue
		}
		it, err := a.d.AllPaths(name)
		if err != nil {
			return nil, err
		}
		var decodeErr error
		it.Iterate(func(bits common.BitString, value mtbdd.Value) bool {
			if value == mtbdd.Sink {
				return true
			}
			sym, err := a.enc.Decode(bits[:a.enc.AlphabetVars()])
			if err != nil {
				if xerrors.Is(err, common.ErrUnknownSymbol) {
					return true
				}
				decodeErr = err
				return false
			}
			seen[Transition{Src: name, Sym: sym, Dst: value}] = struct{}{}
			return true
		})
		if decodeErr != nil {
			return nil, decodeErr
		}
	}
	ret := make([]Transition, 0, len(seen))
	for tr := range seen {
		ret = append(ret, tr)
	}
	sort.Slice(ret, func(i, j int) bool {
		if ret[i].Src != ret[j].Src {
			return ret[i].Src < ret[j].Src
		}
		if ret[i].Sym != ret[j].Sym {
			return ret[i].Sym < ret[j].Sym
		}
		return ret[i].Dst < ret[j].Dst
	})
	return ret, nil
}
