package bisim

import "errors"

// Sentinel errors for partition refinement.
var (
	// ErrUnknownEquivalence is returned by ParseEquivalence for an unsupported name.
	ErrUnknownEquivalence = errors.New("unknown equivalence")

	// ErrUnknownSplitterPolicy is returned by ParseSplitterPolicy for an unsupported name.
	ErrUnknownSplitterPolicy = errors.New("unknown splitter policy")
)
