package stream

import (
	"os"

	mmap "github.com/edsrzf/mmap-go"
	"golang.org/x/xerrors"
)

// MMapReader is a Reader backed by a read-only memory-mapped file. It
// implements the same capability set as FileReader and MemoryReader
// (spec §9 "Stream polymorphism") without copying the file into a []byte,
// which is useful for read-only access to large archives. Grounded on
// saferwall/pe's file.go use of github.com/edsrzf/mmap-go for its own
// read-only binary-container mapping.
type MMapReader struct {
	f    *os.File
	data mmap.MMap
	pos  int64
}

// NewMMapReader memory-maps name read-only.
func NewMMapReader(name string) (*MMapReader, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, xerrors.Errorf("stream: open %s: %w", name, err)
	}
	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, xerrors.Errorf("stream: mmap %s: %w", name, err)
	}
	return &MMapReader{f: f, data: data}, nil
}

// Read implements Reader.
func (m *MMapReader) Read(n int) ([]byte, error) {
	if n < 1 {
		return nil, xerrors.Errorf("stream: read length %d: %w", n, ErrInvalidArgument)
	}
	if m.pos+int64(n) > int64(len(m.data)) {
		return nil, xerrors.Errorf("stream: read %d bytes at %d (len %d): %w", n, m.pos, len(m.data), ErrOutOfBounds)
	}
	b := m.data[m.pos : m.pos+int64(n)]
	m.pos += int64(n)
	return b, nil
}

// SeekAbsolute implements Reader.
func (m *MMapReader) SeekAbsolute(position int64) error {
	if position < 0 || position > int64(len(m.data)) {
		return xerrors.Errorf("stream: seek to %d (len %d): %w", position, len(m.data), ErrOutOfBounds)
	}
	m.pos = position
	return nil
}

// SeekRelative implements Reader.
func (m *MMapReader) SeekRelative(delta int64) error {
	return m.SeekAbsolute(m.pos + delta)
}

// Len implements Reader.
func (m *MMapReader) Len() int64 { return int64(len(m.data)) }

// Tell implements Reader.
func (m *MMapReader) Tell() int64 { return m.pos }

// ReadAt performs a positional read without disturbing m's cursor.
func (m *MMapReader) ReadAt(offset, length int64) ([]byte, error) {
	if offset < 0 || length < 0 || offset+length > int64(len(m.data)) {
		return nil, xerrors.Errorf("stream: read window [%d,%d) (len %d): %w", offset, offset+length, len(m.data), ErrOutOfBounds)
	}
	out := make([]byte, length)
	copy(out, m.data[offset:offset+length])
	return out, nil
}

// Close unmaps the file and closes its handle.
func (m *MMapReader) Close() error {
	if err := m.data.Unmap(); err != nil {
		m.f.Close()
		return xerrors.Errorf("stream: unmap: %w", err)
	}
	return m.f.Close()
}
