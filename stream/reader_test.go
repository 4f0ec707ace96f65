package stream

import (
	"os"
	"testing"

	"golang.org/x/xerrors"
)

func TestMemoryReaderReadAdvancesCursor(t *testing.T) {
	r := NewMemoryReader([]byte("hello world"))
	got, err := r.Read(5)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("Read(5) = %q, want %q", got, "hello")
	}
	if r.Tell() != 5 {
		t.Errorf("Tell() = %d, want 5", r.Tell())
	}
}

func TestMemoryReaderOutOfBounds(t *testing.T) {
	r := NewMemoryReader([]byte("abc"))
	if _, err := r.Read(4); !xerrors.Is(err, ErrOutOfBounds) {
		t.Errorf("Read(4) on 3-byte buffer = %v, want ErrOutOfBounds", err)
	}
	if err := r.SeekAbsolute(10); !xerrors.Is(err, ErrOutOfBounds) {
		t.Errorf("SeekAbsolute(10) on 3-byte buffer = %v, want ErrOutOfBounds", err)
	}
}

func TestMemoryReaderRejectsNegativeRelativeSeek(t *testing.T) {
	r := NewMemoryReader([]byte("abcdef"))
	r.SeekAbsolute(3)
	if err := r.SeekRelative(-1); !xerrors.Is(err, ErrInvalidArgument) {
		t.Errorf("SeekRelative(-1) = %v, want ErrInvalidArgument", err)
	}
}

func TestFileReaderMatchesLengthAtOpen(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "reader-test-")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("0123456789"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	r, err := NewFileReader(f.Name())
	if err != nil {
		t.Fatalf("NewFileReader: %v", err)
	}
	defer r.Close()

	if r.Len() != 10 {
		t.Errorf("Len() = %d, want 10", r.Len())
	}

	got, err := r.Read(4)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "0123" {
		t.Errorf("Read(4) = %q, want %q", got, "0123")
	}

	if err := r.SeekRelative(-2); err != nil {
		t.Fatalf("SeekRelative(-2): %v", err)
	}
	if r.Tell() != 2 {
		t.Errorf("Tell() after SeekRelative(-2) = %d, want 2", r.Tell())
	}
}

func TestFileReaderReadAtDoesNotDisturbCursor(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "reader-test-")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("abcdefghij"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	r, err := NewFileReader(f.Name())
	if err != nil {
		t.Fatalf("NewFileReader: %v", err)
	}
	defer r.Close()

	r.SeekAbsolute(4)
	window, err := r.ReadAt(0, 3)
	if err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if string(window) != "abc" {
		t.Errorf("ReadAt(0,3) = %q, want %q", window, "abc")
	}
	if r.Tell() != 4 {
		t.Errorf("Tell() after ReadAt = %d, want unchanged 4", r.Tell())
	}

	if _, err := r.ReadAt(8, 5); !xerrors.Is(err, ErrOutOfBounds) {
		t.Errorf("ReadAt(8,5) on 10-byte file = %v, want ErrOutOfBounds", err)
	}
}
