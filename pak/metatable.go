package pak

import (
	"golang.org/x/xerrors"

	"github.com/sbasset6/sbpak/sbon"
	"github.com/sbasset6/sbpak/stream"
)

// indexMarker is the literal bytes that must open every metatable (spec §3
// invariant 4).
var indexMarker = [5]byte{'I', 'N', 'D', 'E', 'X'}

// FileTableEntry is one record of a metatable's ordered file table (spec
// §3): a virtual path plus the big-endian u64 offset/length window it
// occupies in the archive.
type FileTableEntry struct {
	Path   string
	Offset uint64
	Length uint64
}

// metatable is the (metadata, entries) pair stored at an archive's
// metatable offset (spec §3 "Metatable").
type metatable struct {
	metadata sbon.Value
	entries  []FileTableEntry
}

func readU64(r stream.Reader) (uint64, error) {
	b, err := r.Read(8)
	if err != nil {
		return 0, err
	}
	var v uint64
	for _, c := range b {
		v = (v << 8) | uint64(c)
	}
	return v, nil
}

func writeU64(w stream.Sink, v uint64) error {
	var b [8]byte
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	_, err := w.Write(b[:])
	return err
}

// readMetatable reads the "INDEX" marker, metadata map, and file table
// starting at the reader's current position (spec §4.F "Metatable
// format").
func readMetatable(r stream.Reader) (*metatable, error) {
	marker, err := r.Read(5)
	if err != nil {
		return nil, xerrors.Errorf("pak: read metatable marker: %w", wrapMalformed(err))
	}
	for i := range indexMarker {
		if marker[i] != indexMarker[i] {
			return nil, xerrors.Errorf("pak: metatable marker mismatch: %w", ErrCorruptMetatable)
		}
	}

	metadata, err := sbon.ReadValue(r)
	if err != nil {
		return nil, xerrors.Errorf("pak: read metadata map: %w", wrapMalformed(err))
	}

	n, err := sbon.ReadVarint(r)
	if err != nil {
		return nil, xerrors.Errorf("pak: read file count: %w", wrapMalformed(err))
	}

	entries := make([]FileTableEntry, 0, n)
	for i := uint64(0); i < n; i++ {
		path, err := sbon.ReadString(r)
		if err != nil {
			return nil, xerrors.Errorf("pak: read entry %d path: %w", i, wrapMalformed(err))
		}
		offset, err := readU64(r)
		if err != nil {
			return nil, xerrors.Errorf("pak: read entry %d offset: %w", i, wrapMalformed(err))
		}
		length, err := readU64(r)
		if err != nil {
			return nil, xerrors.Errorf("pak: read entry %d length: %w", i, wrapMalformed(err))
		}
		entries = append(entries, FileTableEntry{Path: path, Offset: offset, Length: length})
	}

	return &metatable{metadata: metadata, entries: entries}, nil
}

// wrapMalformed maps a decode failure that bubbled from sbon (ErrMalformed)
// or a short read off the end of the stream (stream.ErrOutOfBounds) onto
// ErrCorruptMetatable: both an ill-typed value and a metatable truncated
// mid-entry are metatable-level errors, not generic codec or stream errors
// (spec.md §7's error table covers "truncated input" under CorruptMetatable
// alongside the missing-marker and bad-tag cases).
func wrapMalformed(err error) error {
	if xerrors.Is(err, sbon.ErrMalformed) || xerrors.Is(err, stream.ErrOutOfBounds) {
		return xerrors.Errorf("%v: %w", err, ErrCorruptMetatable)
	}
	return err
}

// buildMetatable serializes "INDEX" + metadata + entry count + entries into
// sink (spec §4.F "Save algorithm" step 6).
func buildMetatable(w stream.Sink, metadata sbon.Value, entries []FileTableEntry) error {
	if _, err := w.Write(indexMarker[:]); err != nil {
		return err
	}
	if err := sbon.WriteValue(w, metadata); err != nil {
		return err
	}
	if err := sbon.WriteVarint(w, uint64(len(entries))); err != nil {
		return err
	}
	for _, e := range entries {
		if err := sbon.WriteString(w, e.Path); err != nil {
			return err
		}
		if err := writeU64(w, e.Offset); err != nil {
			return err
		}
		if err := writeU64(w, e.Length); err != nil {
			return err
		}
	}
	return nil
}
