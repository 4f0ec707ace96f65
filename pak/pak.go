// Package pak implements the SBAsset6 archive container: header
// verification, metatable parsing, the virtual file table, and the
// two-pass streamed rewrite algorithm that produces a fresh archive on
// Save (spec §4.F).
package pak

import (
	"path/filepath"

	"github.com/google/renameio"
	"golang.org/x/xerrors"

	"github.com/sbasset6/sbpak/internal/config"
	"github.com/sbasset6/sbpak/sbon"
	"github.com/sbasset6/sbpak/stream"
)

// magic is the literal 8-byte header every SBAsset6 archive opens with.
var magic = [8]byte{'S', 'B', 'A', 's', 's', 'e', 't', '6'}

// archiveStream is the capability set Archive needs from whatever stream
// backs a loaded archive. stream.FileReader and stream.MMapReader both
// satisfy it, letting Load and LoadReadOnly share every line of header and
// metatable parsing (spec §9 "Stream polymorphism").
type archiveStream interface {
	stream.Reader
	ReadAt(offset, length int64) ([]byte, error)
	Close() error
}

// Archive is a handle onto an SBAsset6 archive file. The handle returned by
// New is a valid "Fresh" handle per spec §4's state machine: not loaded,
// with an empty file table that may be populated and saved from scratch.
// The zero Archive has no file table or observer; obtain handles via New.
type Archive struct {
	path     string
	reader   archiveStream
	metaOff  uint64
	metadata sbon.Value
	table    *FileTable
	observer Observer
}

// New returns a Fresh (unloaded) archive handle for path. Call Load to
// populate it from an existing file, or populate its FileTable directly
// and call Save to create one.
func New(path string) *Archive {
	return &Archive{
		path:     path,
		metadata: sbon.MapValue(sbon.NewMap()),
		table:    NewFileTable(),
		observer: NoopObserver{},
	}
}

// SetObserver installs the Observer that receives progress events during
// Load, Save and Close. Pass NoopObserver{} (the default) to silence them.
func (a *Archive) SetObserver(o Observer) {
	if o == nil {
		o = NoopObserver{}
	}
	a.observer = o
}

// IsLoaded reports whether the archive currently holds an open stream.
func (a *Archive) IsLoaded() bool {
	return a.reader != nil
}

// Path returns the archive's host file system path.
func (a *Archive) Path() string { return a.path }

// Metadata returns the archive's free-form metadata map.
func (a *Archive) Metadata() sbon.Value { return a.metadata }

// SetMetadata replaces the archive's metadata map. v must be a Map value
// (spec §9 "Maps vs objects": only string-keyed maps serialize).
func (a *Archive) SetMetadata(v sbon.Value) error {
	if v.Kind != sbon.KindMap {
		return xerrors.Errorf("pak: metadata must be a map, got kind %d: %w", v.Kind, ErrInvalidArgument)
	}
	a.metadata = v
	return nil
}

// Table exposes the archive's virtual file table for direct CRUD.
func (a *Archive) Table() *FileTable { return a.table }

// List enumerates the archive's virtual paths.
func (a *Archive) List() []string { return a.table.List() }

// Get resolves virtualPath to its full content.
func (a *Archive) Get(virtualPath string) ([]byte, error) {
	return a.table.Get(virtualPath)
}

// Load opens a.path, verifies the header, and populates the metadata and
// file table from the archive's metatable (spec §4.F "Load algorithm").
// Any previously open stream is closed first.
func (a *Archive) Load() (*Archive, error) {
	return a.load(func() (archiveStream, error) { return stream.NewFileReader(a.path) })
}

// LoadReadOnly behaves like Load but backs the archive with a memory-mapped
// stream.MMapReader rather than a positional stream.FileReader. Saving a
// read-only-loaded archive still works (Save closes a.reader before
// renaming), but callers that only ever read should prefer this for large
// archives, since the kernel serves pages on demand instead of ReadAt
// making a syscall per window.
func (a *Archive) LoadReadOnly() (*Archive, error) {
	return a.load(func() (archiveStream, error) { return stream.NewMMapReader(a.path) })
}

func (a *Archive) load(open func() (archiveStream, error)) (*Archive, error) {
	if a.reader != nil {
		a.reader.Close()
		a.reader = nil
	}
	a.observer.LoadStart(a.path)

	r, err := open()
	if err != nil {
		return nil, xerrors.Errorf("pak: load %s: %w", a.path, err)
	}

	header, err := r.Read(8)
	if err != nil {
		r.Close()
		return nil, xerrors.Errorf("pak: load %s: read header: %w", a.path, err)
	}
	for i := range magic {
		if header[i] != magic[i] {
			r.Close()
			return nil, xerrors.Errorf("pak: %s: File does not appear to be SBAsset6 format.: %w", a.path, ErrNotAnArchive)
		}
	}

	metaOff, err := readU64(r)
	if err != nil {
		r.Close()
		return nil, xerrors.Errorf("pak: load %s: read metatable offset: %w", a.path, err)
	}
	a.observer.LoadHeader()

	if err := r.SeekAbsolute(int64(metaOff)); err != nil {
		r.Close()
		return nil, xerrors.Errorf("pak: load %s: seek to metatable: %w", a.path, err)
	}

	a.reader = r

	mt, err := readMetatable(r)
	if err != nil {
		a.reader = nil
		r.Close()
		return nil, xerrors.Errorf("pak: load %s: %w", a.path, err)
	}
	a.observer.LoadMetatable()

	table := NewFileTable()
	a.observer.LoadFiles(len(mt.entries))
	for i, e := range mt.entries {
		// Duplicate paths: last-wins, since table.Set replaces the source
		// an earlier row with the same path assigned.
		if err := table.Set(e.Path, FromArchive(a, e.Offset, e.Length)); err != nil {
			a.reader = nil
			r.Close()
			return nil, xerrors.Errorf("pak: load %s: entry %d: %w", a.path, i, err)
		}
		a.observer.LoadFileProgress(e.Path, i)
	}

	a.metaOff = metaOff
	a.metadata = mt.metadata
	a.table = table
	a.observer.LoadDone()
	return a, nil
}

// ReadWindow reads length bytes starting at offset from the currently open
// archive stream (spec §4.F "Read a content window").
func (a *Archive) ReadWindow(offset, length uint64) ([]byte, error) {
	if a.reader == nil {
		return nil, xerrors.Errorf("pak: %s: %w", a.path, ErrNotLoaded)
	}
	return a.reader.ReadAt(int64(offset), int64(length))
}

// Close closes the open stream if any, clears the metatable offset and
// metadata, and replaces the file table with a fresh empty one. Idempotent.
func (a *Archive) Close() error {
	var err error
	if a.reader != nil {
		err = a.reader.Close()
		a.reader = nil
	}
	a.metaOff = 0
	a.metadata = sbon.MapValue(sbon.NewMap())
	a.table = NewFileTable()
	a.observer.Close()
	return err
}

// Save rewrites the archive to a.path via the two-pass streamed algorithm
// (spec §2, §4.F "Save algorithm"): open a temp sibling file, write the
// header with a placeholder metatable pointer, stream every file-table
// entry's resolved bytes, append the metatable, patch the header, rename
// the temp file over the original, then reload it.
//
// Grounded on internal/squashfs's Writer.Flush, which writes its data
// region first and returns to patch the superblock once positions are
// known; Save additionally defers the rename itself to
// github.com/google/renameio so the original is left untouched until the
// very last step, per spec §9 "Save-then-rename".
func (a *Archive) Save() (*Archive, error) {
	a.observer.SaveStart(a.path)

	dir := config.TempDirOverride
	if dir == "" {
		dir = filepath.Dir(a.path)
	}
	pf, err := renameio.TempFile(dir, a.path)
	if err != nil {
		return nil, xerrors.Errorf("pak: save %s: create temp file: %w", a.path, err)
	}
	// No deferred pf.Cleanup() here: once the temp file is open, a failure
	// partway through leaves it behind for the caller to sweep rather than
	// erasing partially written state (spec §5 "Cancellation and timeouts",
	// §7 "Propagation"), the same as install.go's renameio.TempFile use.

	sink := stream.NewFileSink(pf.File)
	pipeline := stream.NewPipeline(sink)

	if _, err := sink.Write(magic[:]); err != nil {
		return nil, xerrors.Errorf("pak: save %s: write header: %w", a.path, err)
	}
	var placeholder [8]byte
	if _, err := sink.Write(placeholder[:]); err != nil {
		return nil, xerrors.Errorf("pak: save %s: write placeholder: %w", a.path, err)
	}
	a.observer.SaveHeader()

	paths := a.table.List()
	a.observer.SaveFiles(len(paths))

	entries := make([]FileTableEntry, 0, len(paths))
	for i, p := range paths {
		s, err := a.table.source(p)
		if err != nil {
			return nil, xerrors.Errorf("pak: save %s: %w", a.path, err)
		}
		offset, wrote, err := pumpSource(pipeline, s)
		if err != nil {
			return nil, xerrors.Errorf("pak: save %s: entry %q: %w", a.path, p, err)
		}
		entries = append(entries, FileTableEntry{Path: p, Offset: uint64(offset), Length: uint64(wrote)})
		a.observer.SaveFileProgress(p, s.Kind, i)
	}

	metaOff := sink.Position()
	if err := buildMetatable(sink, a.metadata, entries); err != nil {
		return nil, xerrors.Errorf("pak: save %s: write metatable: %w", a.path, err)
	}
	a.observer.SaveMetatable()

	var metaOffBytes [8]byte
	v := uint64(metaOff)
	for i := 7; i >= 0; i-- {
		metaOffBytes[i] = byte(v)
		v >>= 8
	}
	// Patch before close (spec §9 open question: patch-then-close is the
	// correct order).
	if err := sink.Patch(metaOffBytes[:], 8); err != nil {
		return nil, xerrors.Errorf("pak: save %s: patch header: %w", a.path, err)
	}

	if a.reader != nil {
		if err := a.reader.Close(); err != nil {
			return nil, xerrors.Errorf("pak: save %s: close source stream: %w", a.path, err)
		}
		a.reader = nil
	}

	if err := pf.CloseAtomicallyReplace(); err != nil {
		return nil, xerrors.Errorf("pak: save %s: rename temp file: %w", a.path, err)
	}
	a.observer.SaveDone()

	return a.Load()
}

// pumpSource dispatches a resolved Source to the Pipeline primitive that
// matches its Kind (spec §4.F "Save algorithm" step 4).
func pumpSource(p *stream.Pipeline, s Source) (offset int64, wrote int64, err error) {
	switch s.Kind {
	case SourceFromBuffer:
		return p.PumpBytes(s.Buffer)

	case SourceFromArchive:
		if s.Archive == nil || s.Archive.reader == nil {
			return 0, 0, xerrors.Errorf("pak: source archive not loaded: %w", ErrNotLoaded)
		}
		b, err := s.Archive.ReadWindow(*s.Offset, *s.Length)
		if err != nil {
			return 0, 0, err
		}
		return p.PumpBytes(b)

	case SourceFromHandle:
		return p.PumpFile(s.Handle, offsetOf(s.Offset), lengthPtr(s.Length))

	case SourceFromPath:
		return p.PumpPath(s.Path, offsetOf(s.Offset), lengthPtr(s.Length))

	default:
		return 0, 0, xerrors.Errorf("pak: unrecognized source kind %d: %w", s.Kind, ErrInvalidArgument)
	}
}

func offsetOf(p *uint64) int64 {
	if p == nil {
		return 0
	}
	return int64(*p)
}

func lengthPtr(p *uint64) *int64 {
	if p == nil {
		return nil
	}
	v := int64(*p)
	return &v
}

