package main

import "errors"

var (
	// ErrUnknownFormat is returned for a file format other than aut or dot,
	// and for reading a format that can only be written.
	ErrUnknownFormat = errors.New("unknown format")

	// ErrInvalidConfig is returned for a configuration value that cannot be used.
	ErrInvalidConfig = errors.New("invalid configuration")

	// errNotEquivalent makes compare exit with status 1 under --exit-code.
	errNotEquivalent = errors.New("systems are not equivalent")
)
