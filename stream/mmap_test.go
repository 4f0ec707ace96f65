package stream

import (
	"os"
	"testing"
)

func TestMMapReaderMatchesFileReader(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "mmap-test-")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("0123456789"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	r, err := NewMMapReader(f.Name())
	if err != nil {
		t.Fatalf("NewMMapReader: %v", err)
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

	window, err := r.ReadAt(6, 4)
	if err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if string(window) != "6789" {
		t.Errorf("ReadAt(6,4) = %q, want %q", window, "6789")
	}
	if r.Tell() != 4 {
		t.Errorf("Tell() after ReadAt = %d, want unchanged 4", r.Tell())
	}
}
