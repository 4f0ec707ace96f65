package stream

import (
	"os"

	"golang.org/x/xerrors"
)

// Sink is an append-only byte destination that tracks its own write
// position (spec §4.B). The file-backed variant additionally supports
// Patch, for back-patching a fixed-size region (the SBAsset6 header's
// metatable pointer) after more has already been written past it.
//
// Grounded on internal/squashfs's Writer, which writes data forward through
// its io.WriteSeeker and, in Flush, seeks back to byte 0 exactly once to
// overwrite the superblock with values only known after everything else was
// written. Sink generalizes that single hardcoded back-patch into an
// explicit Patch(bytes, offset) any caller can invoke at any offset already
// written.
type Sink interface {
	// Write appends b and returns the sink's new end position.
	Write(b []byte) (int64, error)

	// Position returns the number of bytes written so far.
	Position() int64
}

// Patcher is implemented by Sinks that support back-patching already
// written bytes without disturbing the append cursor.
type Patcher interface {
	Patch(b []byte, offset int64) error
}

// MemorySink is a Sink backed by a growing in-memory buffer.
type MemorySink struct {
	buf []byte
}

// NewMemorySink returns an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Write implements Sink.
func (s *MemorySink) Write(b []byte) (int64, error) {
	s.buf = append(s.buf, b...)
	return int64(len(s.buf)), nil
}

// Position implements Sink.
func (s *MemorySink) Position() int64 { return int64(len(s.buf)) }

// Patch overwrites len(b) bytes starting at offset, which must lie within
// [0, Position()).
func (s *MemorySink) Patch(b []byte, offset int64) error {
	if offset < 0 || offset+int64(len(b)) > int64(len(s.buf)) {
		return xerrors.Errorf("stream: patch [%d,%d) exceeds written range [0,%d)", offset, offset+int64(len(b)), len(s.buf))
	}
	copy(s.buf[offset:], b)
	return nil
}

// Bytes returns the sink's accumulated contents.
func (s *MemorySink) Bytes() []byte { return s.buf }

// FileSink is a Sink backed by an open output file.
type FileSink struct {
	f   *os.File
	pos int64
}

// NewFileSink wraps an already-open, write-positioned-at-0 file as a Sink.
func NewFileSink(f *os.File) *FileSink {
	return &FileSink{f: f}
}

// Write implements Sink.
func (s *FileSink) Write(b []byte) (int64, error) {
	n, err := s.f.WriteAt(b, s.pos)
	if err != nil {
		return s.pos, xerrors.Errorf("stream: write %s: %w", s.f.Name(), err)
	}
	s.pos += int64(n)
	return s.pos, nil
}

// Position implements Sink.
func (s *FileSink) Position() int64 { return s.pos }

// Patch overwrites len(b) bytes starting at offset via a positional write,
// which does not move the append cursor (spec §9 "Back-patching the
// header").
func (s *FileSink) Patch(b []byte, offset int64) error {
	if offset < 0 || offset+int64(len(b)) > s.pos {
		return xerrors.Errorf("stream: patch [%d,%d) exceeds written range [0,%d)", offset, offset+int64(len(b)), s.pos)
	}
	if _, err := s.f.WriteAt(b, offset); err != nil {
		return xerrors.Errorf("stream: patch %s at %d: %w", s.f.Name(), offset, err)
	}
	return nil
}

// File returns the underlying *os.File.
func (s *FileSink) File() *os.File { return s.f }
