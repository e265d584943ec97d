package common

import (
	"golang.org/x/xerrors"
)

// BitString is a fixed-length vector of Boolean decisions, one per variable
// of a diagram, ordered by variable index. false selects the low branch,
// true selects the high branch.
type BitString []bool

// NewBitString returns an all-false bit string of the given length
func NewBitString(length int) BitString {
	return make(BitString, length)
}

// BitStringFromString parses a string of '0' and '1' characters
func BitStringFromString(s string) (BitString, error) {
	ret := make(BitString, len(s))
	for i, c := range s {
		switch c {
		case '0':
		case '1':
			ret[i] = true
		default:
			return nil, xerrors.Errorf("BitStringFromString: unexpected character %q at %d", c, i)
		}
	}
	return ret, nil
}

// MustBitStringFromString is BitStringFromString which panics on wrong input
func MustBitStringFromString(s string) BitString {
	ret, err := BitStringFromString(s)
	Assert(err == nil, "MustBitStringFromString: %v", err)
	return ret
}

func (b BitString) String() string {
	buf := make([]byte, len(b))
	for i, bit := range b {
		if bit {
			buf[i] = '1'
		} else {
			buf[i] = '0'
		}
	}
	return string(buf)
}

// Clone returns an independent copy
func (b BitString) Clone() BitString {
	ret := make(BitString, len(b))
	copy(ret, b)
	return ret
}

// Equal compares two bit strings element-wise
func (b BitString) Equal(other BitString) bool {
	if len(b) != len(other) {
		return false
	}
	for i := range b {
		if b[i] != other[i] {
			return false
		}
	}
	return true
}

// PutUintBits writes the width lowest bits of val into b starting at offset,
// most significant bit first. Returns ErrBitSpaceExhausted if val does not
// fit into width bits.
func (b BitString) PutUintBits(offset, width int, val uint64) error {
	Assert(offset >= 0 && width >= 0 && offset+width <= len(b),
		"PutUintBits: slot [%d,%d) out of range of %d bits", offset, offset+width, len(b))
	if width < 64 && val>>width != 0 {
		return xerrors.Errorf("PutUintBits: value %d needs more than %d bits: %w", val, width, ErrBitSpaceExhausted)
	}
	for i := 0; i < width; i++ {
		b[offset+i] = val&(1<<(width-1-i)) != 0
	}
	return nil
}

// UintBits reads width bits starting at offset, most significant bit first
func (b BitString) UintBits(offset, width int) uint64 {
	Assert(offset >= 0 && width >= 0 && width <= 64 && offset+width <= len(b),
		"UintBits: slot [%d,%d) out of range of %d bits", offset, offset+width, len(b))
	ret := uint64(0)
	for i := 0; i < width; i++ {
		ret <<= 1
		if b[offset+i] {
			ret |= 1
		}
	}
	return ret
}
