package pak

import (
	"os"

	"golang.org/x/xerrors"
)

// SourceKind tags the variant held by a Source (spec §3 "Virtual file
// table").
type SourceKind int

const (
	// SourceFromArchive references an entry carried forward from a loaded
	// archive, read lazily via the owning Archive's content window.
	SourceFromArchive SourceKind = 1 + iota
	// SourceFromPath pulls from an external host file path.
	SourceFromPath
	// SourceFromHandle pulls from an already-open file handle whose
	// ownership remains with the caller.
	SourceFromHandle
	// SourceFromBuffer is owned in-memory content.
	SourceFromBuffer
)

func (k SourceKind) String() string {
	switch k {
	case SourceFromArchive:
		return "archive"
	case SourceFromPath:
		return "path"
	case SourceFromHandle:
		return "handle"
	case SourceFromBuffer:
		return "buffer"
	default:
		return "unknown"
	}
}

// Source is a deferred content source: a Kind tag plus the fields of every
// variant. The constructors below build well-formed values; the struct
// itself can hold any field combination, and FileTable.Set rejects one
// that lacks the fields its Kind requires.
type Source struct {
	Kind SourceKind

	// Archive, Offset, Length: required together for SourceFromArchive.
	Archive *Archive
	Offset  *uint64
	Length  *uint64

	// Path: required for SourceFromPath.
	Path string

	// Handle: required for SourceFromHandle.
	Handle *os.File

	// Buffer: required for SourceFromBuffer.
	Buffer []byte
}

// FromArchive returns a Source referencing an existing entry of archive.
func FromArchive(archive *Archive, offset, length uint64) Source {
	return Source{Kind: SourceFromArchive, Archive: archive, Offset: &offset, Length: &length}
}

// FromPath returns a Source pulling from path. If length is nil, the
// source reads from offset to EOF.
func FromPath(path string, offset uint64, length *uint64) Source {
	return Source{Kind: SourceFromPath, Path: path, Offset: &offset, Length: length}
}

// FromHandle returns a Source pulling from an already-open file handle.
// Ownership of f remains with the caller (spec §5 "File-descriptor
// policy").
func FromHandle(f *os.File, offset uint64, length *uint64) Source {
	return Source{Kind: SourceFromHandle, Handle: f, Offset: &offset, Length: length}
}

// FromBuffer returns a Source holding owned in-memory content.
func FromBuffer(b []byte) Source {
	return Source{Kind: SourceFromBuffer, Buffer: b}
}

// validate checks that s carries the fields its Kind requires (spec §4.E
// "set" validation).
func (s Source) validate() error {
	switch s.Kind {
	case SourceFromArchive:
		if s.Archive == nil || s.Offset == nil || s.Length == nil {
			return xerrors.Errorf("pak: FromArchive requires archive, offset and length: %w", ErrInvalidArgument)
		}
	case SourceFromPath:
		if s.Path == "" {
			return xerrors.Errorf("pak: FromPath requires a path: %w", ErrInvalidArgument)
		}
	case SourceFromHandle:
		if s.Handle == nil {
			return xerrors.Errorf("pak: FromHandle requires a handle: %w", ErrInvalidArgument)
		}
	case SourceFromBuffer:
		// Buffer may legitimately be nil/empty.
	default:
		return xerrors.Errorf("pak: unrecognized source kind %d: %w", s.Kind, ErrInvalidArgument)
	}
	return nil
}

// FileTable is an in-memory mapping from virtual path to deferred content
// source (spec §4.E). It owns neither file handles nor archive streams it
// references; callers remain responsible for their lifetime.
type FileTable struct {
	order   []string
	sources map[string]Source
}

// NewFileTable returns an empty FileTable.
func NewFileTable() *FileTable {
	return &FileTable{sources: make(map[string]Source)}
}

// List enumerates virtual paths in the order they were first Set.
// Replacing a path keeps its position; Delete removes it from the order.
func (t *FileTable) List() []string {
	return append([]string(nil), t.order...)
}

// Exists reports whether virtualPath has an assigned source.
func (t *FileTable) Exists(virtualPath string) bool {
	_, ok := t.sources[virtualPath]
	return ok
}

// Set assigns source to virtualPath, fully replacing any prior mapping (no
// field merging). Returns ErrInvalidArgument if source's shape is not one
// of the recognized variants.
func (t *FileTable) Set(virtualPath string, source Source) error {
	if err := source.validate(); err != nil {
		return err
	}
	if _, exists := t.sources[virtualPath]; !exists {
		t.order = append(t.order, virtualPath)
	}
	t.sources[virtualPath] = source
	return nil
}

// Delete removes virtualPath. Absent keys silently succeed.
func (t *FileTable) Delete(virtualPath string) {
	if _, ok := t.sources[virtualPath]; !ok {
		return
	}
	delete(t.sources, virtualPath)
	for i, p := range t.order {
		if p == virtualPath {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// source returns the raw Source assigned to virtualPath.
func (t *FileTable) source(virtualPath string) (Source, error) {
	s, ok := t.sources[virtualPath]
	if !ok {
		return Source{}, xerrors.Errorf("pak: %s: %w", virtualPath, ErrNotFound)
	}
	return s, nil
}

// Get resolves virtualPath's source to a full in-memory byte block (spec
// §4.E). FromArchive delegates to the owning archive's ReadWindow.
// FromHandle/FromPath with no Length read from Offset to EOF.
func (t *FileTable) Get(virtualPath string) ([]byte, error) {
	s, err := t.source(virtualPath)
	if err != nil {
		return nil, err
	}
	return resolveSource(s)
}

func resolveSource(s Source) ([]byte, error) {
	switch s.Kind {
	case SourceFromBuffer:
		return s.Buffer, nil

	case SourceFromArchive:
		return s.Archive.ReadWindow(*s.Offset, *s.Length)

	case SourceFromPath:
		f, err := os.Open(s.Path)
		if err != nil {
			return nil, xerrors.Errorf("pak: open %s: %w", s.Path, err)
		}
		defer f.Close()
		return readHandleWindow(f, s.Offset, s.Length)

	case SourceFromHandle:
		return readHandleWindow(s.Handle, s.Offset, s.Length)

	default:
		return nil, xerrors.Errorf("pak: unrecognized source kind %d: %w", s.Kind, ErrInvalidArgument)
	}
}

func readHandleWindow(f *os.File, offset, length *uint64) ([]byte, error) {
	off := int64(0)
	if offset != nil {
		off = int64(*offset)
	}
	var n int64
	if length != nil {
		n = int64(*length)
	} else {
		fi, err := f.Stat()
		if err != nil {
			return nil, xerrors.Errorf("pak: stat %s: %w", f.Name(), err)
		}
		// Corrected semantic (spec §9 open question): remaining bytes is
		// size - position, not position - size.
		n = fi.Size() - off
		if n < 0 {
			n = 0
		}
	}
	b := make([]byte, n)
	if n == 0 {
		return b, nil
	}
	if _, err := f.ReadAt(b, off); err != nil {
		return nil, xerrors.Errorf("pak: read %s: %w", f.Name(), err)
	}
	return b, nil
}
