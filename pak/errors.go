package pak

import (
	"golang.org/x/xerrors"

	"github.com/sbasset6/sbpak/stream"
)

// Error kinds with distinct identity (spec §7). Callers should compare with
// errors.Is; errors of these kinds wrap one of them via xerrors.Errorf's %w
// verb. Out-of-range stream reads (stream.ErrOutOfBounds) and host I/O
// errors are returned wrapped as they arrive, without one of these.
var (
	// ErrInvalidArgument signals a caller contract violation: a file-table
	// entry with missing required fields or an unrecognized kind, metadata
	// that is not a map, or a pipeline window past the end of its source.
	ErrInvalidArgument = stream.ErrInvalidArgument

	// ErrNotAnArchive is raised when the header magic does not match
	// "SBAsset6".
	ErrNotAnArchive = xerrors.New("pak: not an SBAsset6 archive")

	// ErrCorruptMetatable is raised when the "INDEX" marker is missing at
	// the metatable offset, a dynamic-value tag is out of range, or the
	// metatable is truncated.
	ErrCorruptMetatable = xerrors.New("pak: corrupt metatable")

	// ErrNotLoaded is raised when an operation needs an open archive stream
	// but none exists.
	ErrNotLoaded = xerrors.New("pak: archive not loaded")

	// ErrNotFound is raised when a virtual path is absent from the file
	// table.
	ErrNotFound = xerrors.New("pak: virtual path not found")
)
