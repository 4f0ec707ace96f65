package stream

import (
	"io"
	"os"

	"golang.org/x/xerrors"
)

// Pipeline streams bytes into a Sink from one of {byte block, open file
// handle, host path}, honoring an optional (offset, length) window, and
// reports where the copy landed (spec §4.C).
//
// Grounded on internal/squashfs's file.Write/writeBlock, which streams file
// contents directly into the image's io.WriteSeeker as they arrive;
// Pipeline generalizes that to a single bulk copy per call, since SBAsset6
// entries are not split into fixed-size sectors the way SquashFS blocks
// are.
type Pipeline struct {
	sink Sink
}

// NewPipeline wraps sink.
func NewPipeline(sink Sink) *Pipeline {
	return &Pipeline{sink: sink}
}

// PumpBytes copies all of b into the sink. offset/length have no meaning
// for an in-memory source (spec §4.C).
func (p *Pipeline) PumpBytes(b []byte) (offset int64, wrote int64, err error) {
	start := p.sink.Position()
	if _, err := p.sink.Write(b); err != nil {
		return start, 0, err
	}
	return start, int64(len(b)), nil
}

// PumpFile positionally copies from an already-open file handle, starting
// at offset. If length is nil, it copies from offset to the file's end.
// Handle ownership remains with the caller; PumpFile never closes f.
func (p *Pipeline) PumpFile(f *os.File, offset int64, length *int64) (outOffset int64, wrote int64, err error) {
	n, err := resolveLength(f, offset, length)
	if err != nil {
		return 0, 0, err
	}
	start := p.sink.Position()
	if err := copyWindow(p.sink, f, offset, n); err != nil {
		return start, 0, err
	}
	return start, n, nil
}

// PumpPath opens path read-only, copies the requested window the same way
// as PumpFile, then closes it (even on error) — FromPath sources are opened
// inside the Pipeline call and closed on return (spec §5).
func (p *Pipeline) PumpPath(path string, offset int64, length *int64) (outOffset int64, wrote int64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, xerrors.Errorf("stream: open %s: %w", path, err)
	}
	defer f.Close()
	return p.PumpFile(f, offset, length)
}

// resolveLength determines how many bytes to copy starting at offset: the
// requested length if given, otherwise everything up to EOF. It fails with
// ErrInvalidArgument if offset+length would exceed the source's size — the
// pipeline never silently truncates a short source (spec §4.C).
func resolveLength(f *os.File, offset int64, length *int64) (int64, error) {
	fi, err := f.Stat()
	if err != nil {
		return 0, xerrors.Errorf("stream: stat %s: %w", f.Name(), err)
	}
	size := fi.Size()
	if offset < 0 || offset > size {
		return 0, xerrors.Errorf("stream: offset %d exceeds size %d: %w", offset, size, ErrInvalidArgument)
	}
	if length == nil {
		return size - offset, nil
	}
	if offset+*length > size {
		return 0, xerrors.Errorf("stream: window [%d,%d) exceeds size %d: %w", offset, offset+*length, size, ErrInvalidArgument)
	}
	return *length, nil
}

func copyWindow(sink Sink, f *os.File, offset, length int64) error {
	if length == 0 {
		return nil
	}
	r := io.NewSectionReader(f, offset, length)
	buf := make([]byte, 256*1024)
	remaining := length
	for remaining > 0 {
		n := int64(len(buf))
		if remaining < n {
			n = remaining
		}
		read, err := io.ReadFull(r, buf[:n])
		if read > 0 {
			if _, werr := sink.Write(buf[:read]); werr != nil {
				return werr
			}
			remaining -= int64(read)
		}
		if err != nil {
			if err == io.ErrUnexpectedEOF || err == io.EOF {
				return xerrors.Errorf("stream: short read copying %s: %w", f.Name(), io.ErrUnexpectedEOF)
			}
			return xerrors.Errorf("stream: copy %s: %w", f.Name(), err)
		}
	}
	return nil
}
