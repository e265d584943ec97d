package common

import "errors"

// Error kinds surfaced by the MTBDD engine and its adaptors. All of them
// indicate a programmer error at the call site; the engine validates its
// inputs before mutating anything, so on error the diagram is unchanged.
// Call sites wrap these with additional context via xerrors.Errorf("...: %w").
var (
	// ErrWrongBitStringLength indicates a bit string whose length does not
	// match the variable count of the diagram, or an empty bit string.
	ErrWrongBitStringLength = errors.New("bit string length does not match the number of variables")

	// ErrInvalidVariable indicates a variable index outside [0, NumVars).
	ErrInvalidVariable = errors.New("variable index out of range")

	// ErrChildOrder indicates a child whose variable index is not strictly
	// greater than the parent's.
	ErrChildOrder = errors.New("child variable index must be greater than parent's")

	// ErrReservedValue indicates a terminal value colliding with one of the
	// reserved markers at the top of the value space.
	ErrReservedValue = errors.New("terminal value collides with a reserved marker")

	// ErrDuplicateRoot indicates an attempt to create a root under a name
	// which is already bound.
	ErrDuplicateRoot = errors.New("root name already exists")

	// ErrRootNotFound indicates a lookup of an unbound root name where the
	// binding is required.
	ErrRootNotFound = errors.New("root name not found")

	// ErrNonContiguousRoots indicates that the root index does not cover
	// exactly the names 0..R-1, which the flat export contract requires.
	ErrNonContiguousRoots = errors.New("root names are not contiguous")

	// ErrIncompleteDiagram indicates an operation which requires a complete
	// diagram (no nil children) found a hole.
	ErrIncompleteDiagram = errors.New("diagram is not complete")

	// ErrUnknownSymbol indicates a symbol absent from the encoder dictionary.
	ErrUnknownSymbol = errors.New("symbol not in the encoder dictionary")

	// ErrBitSpaceExhausted indicates that a fixed-width bit encoding ran out
	// of codes (too many alphabet symbols or nondeterministic successors).
	ErrBitSpaceExhausted = errors.New("bit space exhausted")

	// ErrNotAllBytesConsumed indicates trailing garbage after deserialization.
	ErrNotAllBytesConsumed = errors.New("not all bytes consumed")

	// ErrCorruptedData indicates a malformed serialized diagram or flat table.
	ErrCorruptedData = errors.New("corrupted data")
)
