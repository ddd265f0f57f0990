package lts

import "errors"

// Sentinel errors for transition system construction and parsing.
var (
	// ErrStateOutOfRange is returned when a state index is not in [0, NumStates).
	ErrStateOutOfRange = errors.New("state index out of range")

	// ErrLabelOutOfRange is returned when a transition refers to an unknown label.
	ErrLabelOutOfRange = errors.New("label index out of range")

	// ErrNoStates is returned for a system without any state; every system needs an initial state.
	ErrNoStates = errors.New("transition system has no states")

	// ErrMalformedAut is returned by ReadAut for input that is not in Aldebaran format.
	ErrMalformedAut = errors.New("malformed aut input")
)
