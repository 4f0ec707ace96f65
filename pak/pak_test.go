package pak

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/xerrors"

	"github.com/sbasset6/sbpak/sbon"
)

func TestSaveThenLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.pak")

	a := New(path)
	meta := sbon.NewMap()
	meta.Set("name", sbon.StringValue("core"))
	meta.Set("version", sbon.Int64Value(1))
	if err := a.SetMetadata(sbon.MapValue(meta)); err != nil {
		t.Fatalf("SetMetadata: %v", err)
	}
	a.Table().Set("/hello.txt", FromBuffer([]byte("hello, sbasset6")))
	a.Table().Set("/nested/readme", FromBuffer([]byte("nested content")))

	if _, err := a.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	defer a.Close()

	fresh := New(path)
	if _, err := fresh.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer fresh.Close()

	wantPaths := map[string]string{
		"/hello.txt":     "hello, sbasset6",
		"/nested/readme": "nested content",
	}
	for p, want := range wantPaths {
		got, err := fresh.Get(p)
		if err != nil {
			t.Fatalf("Get(%q): %v", p, err)
		}
		if string(got) != want {
			t.Errorf("Get(%q) = %q, want %q", p, got, want)
		}
	}

	name, ok := fresh.Metadata().MapVal.Get("name")
	if !ok || name.Str != "core" {
		t.Errorf("metadata name = %v, %v, want %q, true", name, ok, "core")
	}
}

func TestLoadRejectsBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notanarchive.pak")
	if err := os.WriteFile(path, []byte("NOT A VALID HEADER......"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := New(path).Load()
	if !xerrors.Is(err, ErrNotAnArchive) {
		t.Errorf("Load on bad magic = %v, want ErrNotAnArchive", err)
	}
}

func TestLoadRejectsCorruptMetatable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.pak")

	var buf []byte
	buf = append(buf, magic[:]...)
	buf = append(buf, 0, 0, 0, 0, 0, 0, 0, 16) // metatable offset == 16, right after header
	buf = append(buf, []byte("NOTINDEXMARKER!!")...)
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := New(path).Load()
	if !xerrors.Is(err, ErrCorruptMetatable) {
		t.Errorf("Load on corrupt metatable = %v, want ErrCorruptMetatable", err)
	}
}

func TestSetMetadataRejectsNonMap(t *testing.T) {
	a := New(filepath.Join(t.TempDir(), "x.pak"))
	if err := a.SetMetadata(sbon.StringValue("not a map")); !xerrors.Is(err, ErrInvalidArgument) {
		t.Errorf("SetMetadata(string) = %v, want ErrInvalidArgument", err)
	}
}

func TestModifyLoadedArchiveAndSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.pak")

	a := New(path)
	a.Table().Set("/keep.txt", FromBuffer([]byte("keep me")))
	a.Table().Set("/drop.txt", FromBuffer([]byte("drop me")))
	if _, err := a.Save(); err != nil {
		t.Fatalf("initial Save: %v", err)
	}

	loaded, err := New(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	loaded.Table().Delete("/drop.txt")
	loaded.Table().Set("/added.txt", FromBuffer([]byte("added content")))
	if _, err := loaded.Save(); err != nil {
		t.Fatalf("modify Save: %v", err)
	}
	defer loaded.Close()

	final, err := New(path).Load()
	if err != nil {
		t.Fatalf("final Load: %v", err)
	}
	defer final.Close()

	if final.Table().Exists("/drop.txt") {
		t.Error("/drop.txt still present after delete+save")
	}
	got, err := final.Get("/keep.txt")
	if err != nil || string(got) != "keep me" {
		t.Errorf("Get(/keep.txt) = %q, %v, want %q, nil", got, err, "keep me")
	}
	got, err = final.Get("/added.txt")
	if err != nil || string(got) != "added content" {
		t.Errorf("Get(/added.txt) = %q, %v, want %q, nil", got, err, "added content")
	}
}

func TestSaveRoundTripsNonUTF8Content(t *testing.T) {
	path := filepath.Join(t.TempDir(), "binary.pak")
	binary := []byte{0x00, 0xff, 0xfe, 0x80, 0x01, 0x7f, 0xc0, 0xc1}

	a := New(path)
	a.Table().Set("/blob.bin", FromBuffer(binary))
	if _, err := a.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	defer a.Close()

	fresh, err := New(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer fresh.Close()

	got, err := fresh.Get("/blob.bin")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got) != len(binary) {
		t.Fatalf("Get(/blob.bin) length = %d, want %d", len(got), len(binary))
	}
	for i := range binary {
		if got[i] != binary[i] {
			t.Fatalf("byte %d = %#x, want %#x", i, got[i], binary[i])
		}
	}
}

func TestReadWindowRequiresLoaded(t *testing.T) {
	a := New(filepath.Join(t.TempDir(), "fresh.pak"))
	if _, err := a.ReadWindow(0, 1); !xerrors.Is(err, ErrNotLoaded) {
		t.Errorf("ReadWindow on fresh archive = %v, want ErrNotLoaded", err)
	}
}

func TestLoadReadOnlyServesSameContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.pak")
	a := New(path)
	a.Table().Set("/a.txt", FromBuffer([]byte("via mmap")))
	if _, err := a.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	defer a.Close()

	ro, err := New(path).LoadReadOnly()
	if err != nil {
		t.Fatalf("LoadReadOnly: %v", err)
	}
	defer ro.Close()

	got, err := ro.Get("/a.txt")
	if err != nil || string(got) != "via mmap" {
		t.Errorf("Get(/a.txt) via LoadReadOnly = %q, %v, want %q, nil", got, err, "via mmap")
	}
}
