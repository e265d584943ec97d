// Package automata is the adapter glue between explicit automaton
// transitions and the mtbdd engine: a dictionary-based symbol encoder, an
// adaptor turning transitions into bit-string insertions and enumerated
// paths back into transitions, and root renumbering for export to a foreign
// manager.
package automata

import (
	"github.com/fsmkit/mtbdd.go/common"
	"golang.org/x/xerrors"
)

// Symbol is one letter of the automaton alphabet
type Symbol uint64

// SymbolEncoder maps alphabet symbols to fixed-width big-endian bit
// vectors. Codes are assigned sequentially in registration order, so the
// dictionary is deterministic for a given input sequence
type SymbolEncoder struct {
	numVars int
	codes   map[Symbol]uint64
	symbols []Symbol // inverse dictionary, indexed by code
}

// NewSymbolEncoder creates an encoder producing numVars-bit codes
func NewSymbolEncoder(numVars int) *SymbolEncoder {
	common.Assert(numVars >= 0 && numVars <= 63, "NewSymbolEncoder: unsupported width %d", numVars)
	return &SymbolEncoder{
		numVars: numVars,
		codes:   make(map[Symbol]uint64),
	}
}

// AlphabetVars returns the fixed code width in bits
func (e *SymbolEncoder) AlphabetVars() int {
	return e.numVars
}

// NumSymbols returns the dictionary size
func (e *SymbolEncoder) NumSymbols() int {
	return len(e.symbols)
}

// Add registers the symbol, assigning it the next free code. Registering a
// known symbol is a no-op
func (e *SymbolEncoder) Add(sym Symbol) error {
	if _, ok := e.codes[sym]; ok {
		return nil
	}
	if uint64(len(e.symbols)) >= uint64(1)<<e.numVars {
		return xerrors.Errorf("Add: %d symbols do not fit %d bits: %w", len(e.symbols)+1, e.numVars, common.ErrBitSpaceExhausted)
	}
	e.codes[sym] = uint64(len(e.symbols))
	e.symbols = append(e.symbols, sym)
	return nil
}

// Encode returns the bit vector of a registered symbol
func (e *SymbolEncoder) Encode(sym Symbol) (common.BitString, error) {
	code, ok := e.codes[sym]
	if !ok {
		return nil, xerrors.Errorf("Encode: symbol %d: %w", sym, common.ErrUnknownSymbol)
	}
	ret := common.NewBitString(e.numVars)
	if err := ret.PutUintBits(0, e.numVars, code); err != nil {
		return nil, err
	}
	return ret, nil
}

// Decode is the inverse lookup: the symbol registered under the code the
// bits spell. Bit vectors outside the dictionary (possible after don't-care
// expansion) yield ErrUnknownSymbol
func (e *SymbolEncoder) Decode(bits common.BitString) (Symbol, error) {
	if len(bits) != e.numVars {
		return 0, xerrors.Errorf("Decode: %d bits, %d expected: %w", len(bits), e.numVars, common.ErrWrongBitStringLength)
	}
	code := bits.UintBits(0, e.numVars)
	if code >= uint64(len(e.symbols)) {
		return 0, xerrors.Errorf("Decode: code %d of %d: %w", code, len(e.symbols), common.ErrUnknownSymbol)
	}
	return e.symbols[code], nil
}
