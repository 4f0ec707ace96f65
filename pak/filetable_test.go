package pak

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/xerrors"
)

func TestFileTableSetAndGetBuffer(t *testing.T) {
	table := NewFileTable()
	if err := table.Set("/a.txt", FromBuffer([]byte("hi"))); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := table.Get("/a.txt")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "hi" {
		t.Errorf("Get(/a.txt) = %q, want %q", got, "hi")
	}
}

func TestFileTableGetMissingIsErrNotFound(t *testing.T) {
	table := NewFileTable()
	if _, err := table.Get("/missing"); !xerrors.Is(err, ErrNotFound) {
		t.Errorf("Get on missing path = %v, want ErrNotFound", err)
	}
}

func TestFileTableSetValidatesShape(t *testing.T) {
	table := NewFileTable()
	if err := table.Set("/x", FromPath("", 0, nil)); !xerrors.Is(err, ErrInvalidArgument) {
		t.Errorf("Set(FromPath with empty path) = %v, want ErrInvalidArgument", err)
	}
}

func TestFileTableListOrderAndDelete(t *testing.T) {
	table := NewFileTable()
	table.Set("/b", FromBuffer(nil))
	table.Set("/a", FromBuffer(nil))
	table.Set("/c", FromBuffer(nil))

	want := []string{"/b", "/a", "/c"}
	if diff := cmp.Diff(want, table.List()); diff != "" {
		t.Errorf("List() order mismatch (-want +got):\n%s", diff)
	}

	table.Delete("/a")
	want = []string{"/b", "/c"}
	if diff := cmp.Diff(want, table.List()); diff != "" {
		t.Errorf("List() after Delete mismatch (-want +got):\n%s", diff)
	}

	// Deleting an absent path is a silent no-op.
	table.Delete("/a")
	if diff := cmp.Diff(want, table.List()); diff != "" {
		t.Errorf("List() after redundant Delete mismatch (-want +got):\n%s", diff)
	}
}

func TestFileTableSetReplacesWithoutMerging(t *testing.T) {
	table := NewFileTable()
	table.Set("/f", FromBuffer([]byte("v1")))
	table.Set("/f", FromBuffer([]byte("v2")))

	got, err := table.Get("/f")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "v2" {
		t.Errorf("Get(/f) after replace = %q, want %q", got, "v2")
	}
	if diff := cmp.Diff([]string{"/f"}, table.List()); diff != "" {
		t.Errorf("List() after replace mismatch (-want +got):\n%s", diff)
	}
}
