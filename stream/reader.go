// Package stream implements the random-access byte-stream and append-only
// sink abstractions that the SBON codec and the SBAsset6 archive engine are
// layered on top of (spec §4.A, §4.B, §4.C, §9 "Stream polymorphism").
//
// Three Reader implementations share the same capability set: MemoryReader
// wraps an owned []byte, FileReader wraps an open *os.File whose length is
// statted once at open time, and MMapReader (mmap.go) wraps a read-only
// memory-mapped file.
package stream

import (
	"os"

	"golang.org/x/sys/unix"
	"golang.org/x/xerrors"
)

// ErrOutOfBounds is returned when a read or seek would leave [0, length].
var ErrOutOfBounds = xerrors.New("stream: out of bounds")

// ErrInvalidArgument is returned for caller contract violations such as a
// non-positive read length or a negative seek against a MemoryReader.
var ErrInvalidArgument = xerrors.New("stream: invalid argument")

// Reader is a random-access read port over a byte source of known, finite
// length. Implementations are not required to be safe for concurrent use.
type Reader interface {
	// Read returns the next n bytes and advances the cursor by n. n must be
	// >= 1. Reading past the end of the source fails with ErrOutOfBounds.
	Read(n int) ([]byte, error)

	// SeekAbsolute moves the cursor to position, which must be in
	// [0, Len()].
	SeekAbsolute(position int64) error

	// SeekRelative moves the cursor by delta. MemoryReader rejects negative
	// deltas with ErrInvalidArgument; FileReader allows them.
	SeekRelative(delta int64) error

	// Len returns the total length of the underlying source.
	Len() int64

	// Tell returns the current cursor position.
	Tell() int64
}

// MemoryReader is a Reader backed by an in-memory byte slice.
type MemoryReader struct {
	buf []byte
	pos int64
}

// NewMemoryReader wraps b (not copied) as a Reader.
func NewMemoryReader(b []byte) *MemoryReader {
	return &MemoryReader{buf: b}
}

// Read implements Reader.
func (m *MemoryReader) Read(n int) ([]byte, error) {
	if n < 1 {
		return nil, xerrors.Errorf("stream: read length %d: %w", n, ErrInvalidArgument)
	}
	if m.pos+int64(n) > int64(len(m.buf)) {
		return nil, xerrors.Errorf("stream: read %d bytes at %d (len %d): %w", n, m.pos, len(m.buf), ErrOutOfBounds)
	}
	b := m.buf[m.pos : m.pos+int64(n)]
	m.pos += int64(n)
	return b, nil
}

// SeekAbsolute implements Reader.
func (m *MemoryReader) SeekAbsolute(position int64) error {
	if position < 0 || position > int64(len(m.buf)) {
		return xerrors.Errorf("stream: seek to %d (len %d): %w", position, len(m.buf), ErrOutOfBounds)
	}
	m.pos = position
	return nil
}

// SeekRelative implements Reader. MemoryReader does not support negative
// deltas (spec §4.A).
func (m *MemoryReader) SeekRelative(delta int64) error {
	if delta < 0 {
		return xerrors.Errorf("stream: negative relative seek on memory reader: %w", ErrInvalidArgument)
	}
	return m.SeekAbsolute(m.pos + delta)
}

// Len implements Reader.
func (m *MemoryReader) Len() int64 { return int64(len(m.buf)) }

// Tell implements Reader.
func (m *MemoryReader) Tell() int64 { return m.pos }

// CurrentBuffer returns the unread suffix of the underlying slice without
// consuming it.
func (m *MemoryReader) CurrentBuffer() []byte {
	return m.buf[m.pos:]
}

// Reset returns the cursor to 0.
func (m *MemoryReader) Reset() {
	m.pos = 0
}

// FileReader is a Reader backed by an open *os.File. The file's length is
// statted once, at construction time; reads past that length fail even if
// the file has since grown on disk (spec §4.A).
type FileReader struct {
	f      *os.File
	length int64
	pos    int64
}

// NewFileReader opens name read-only and returns a FileReader over it.
func NewFileReader(name string) (*FileReader, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, xerrors.Errorf("stream: open %s: %w", name, err)
	}
	return newFileReader(f)
}

func newFileReader(f *os.File) (*FileReader, error) {
	var st unix.Stat_t
	if err := unix.Fstat(int(f.Fd()), &st); err != nil {
		f.Close()
		return nil, xerrors.Errorf("stream: fstat %s: %w", f.Name(), err)
	}
	return &FileReader{f: f, length: st.Size}, nil
}

// Read implements Reader.
func (fr *FileReader) Read(n int) ([]byte, error) {
	if n < 1 {
		return nil, xerrors.Errorf("stream: read length %d: %w", n, ErrInvalidArgument)
	}
	if fr.pos+int64(n) > fr.length {
		return nil, xerrors.Errorf("stream: read %d bytes at %d (len %d): %w", n, fr.pos, fr.length, ErrOutOfBounds)
	}
	b := make([]byte, n)
	if _, err := fr.f.ReadAt(b, fr.pos); err != nil {
		return nil, xerrors.Errorf("stream: read %s: %w", fr.f.Name(), err)
	}
	fr.pos += int64(n)
	return b, nil
}

// SeekAbsolute implements Reader.
func (fr *FileReader) SeekAbsolute(position int64) error {
	if position < 0 || position > fr.length {
		return xerrors.Errorf("stream: seek to %d (len %d): %w", position, fr.length, ErrOutOfBounds)
	}
	fr.pos = position
	return nil
}

// SeekRelative implements Reader. Unlike MemoryReader, file-backed streams
// accept negative deltas (spec §4.A).
func (fr *FileReader) SeekRelative(delta int64) error {
	return fr.SeekAbsolute(fr.pos + delta)
}

// Len implements Reader.
func (fr *FileReader) Len() int64 { return fr.length }

// Tell implements Reader.
func (fr *FileReader) Tell() int64 { return fr.pos }

// ReadAt performs a positional read that does not disturb fr's cursor. The
// archive engine uses this to serve FromArchive content windows and
// Pipeline pumps against the same open handle without perturbing in-flight
// sequential reads (spec §5 "Shared-resource policy").
func (fr *FileReader) ReadAt(offset, length int64) ([]byte, error) {
	if offset < 0 || length < 0 || offset+length > fr.length {
		return nil, xerrors.Errorf("stream: read window [%d,%d) (len %d): %w", offset, offset+length, fr.length, ErrOutOfBounds)
	}
	b := make([]byte, length)
	if length == 0 {
		return b, nil
	}
	if _, err := fr.f.ReadAt(b, offset); err != nil {
		return nil, xerrors.Errorf("stream: read %s: %w", fr.f.Name(), err)
	}
	return b, nil
}

// File returns the underlying *os.File.
func (fr *FileReader) File() *os.File { return fr.f }

// Close closes the underlying file.
func (fr *FileReader) Close() error { return fr.f.Close() }
