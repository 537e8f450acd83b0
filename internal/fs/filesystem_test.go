package fs_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"photodex/internal/fs"
)

func TestOSFilesystemManager_FindDirectories(t *testing.T) {
	root := t.TempDir()
	mustMkdir(t, filepath.Join(root, "a"))
	mustMkdir(t, filepath.Join(root, "a", "deep"))
	mustMkdir(t, filepath.Join(root, "b"))
	mustWrite(t, filepath.Join(root, "file.jpg"), "x")

	m := fs.NewOSFilesystemManager()
	dirs, err := m.FindDirectories(root)
	if err != nil {
		t.Fatalf("FindDirectories() error = %v", err)
	}

	want := map[string]bool{
		root:                            true,
		filepath.Join(root, "a"):        true,
		filepath.Join(root, "a", "deep"): true,
		filepath.Join(root, "b"):        true,
	}
	if len(dirs) != len(want) {
		t.Fatalf("FindDirectories() = %v, want %d dirs", dirs, len(want))
	}
	for _, d := range dirs {
		if !want[d] {
			t.Errorf("unexpected directory %q", d)
		}
	}
}

func TestOSFilesystemManager_ListFiles(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "one.jpg"), "1")
	mustWrite(t, filepath.Join(root, "two.jpg"), "2")
	mustMkdir(t, filepath.Join(root, "sub"))
	mustWrite(t, filepath.Join(root, "sub", "nested.jpg"), "3")

	m := fs.NewOSFilesystemManager()
	files, err := m.ListFiles(root)
	if err != nil {
		t.Fatalf("ListFiles() error = %v", err)
	}

	if len(files) != 2 {
		t.Fatalf("ListFiles() = %v, want the 2 direct files", files)
	}
	for _, f := range files {
		if filepath.Dir(f) != root {
			t.Errorf("ListFiles() returned nested file %q", f)
		}
	}
}

func TestOSFilesystemManager_RenameAndTimes(t *testing.T) {
	root := t.TempDir()
	oldPath := filepath.Join(root, "old.jpg")
	newPath := filepath.Join(root, "new.jpg")
	mustWrite(t, oldPath, "content")

	m := fs.NewOSFilesystemManager()

	if !m.Exists(oldPath) {
		t.Fatal("Exists() = false for existing file")
	}
	if m.Exists(newPath) {
		t.Fatal("Exists() = true for absent file")
	}

	if err := m.Rename(oldPath, newPath); err != nil {
		t.Fatalf("Rename() error = %v", err)
	}
	if m.Exists(oldPath) || !m.Exists(newPath) {
		t.Error("rename did not move the file")
	}

	stamp := time.Date(2022, 3, 14, 9, 26, 53, 0, time.UTC)
	if err := m.SetTimes(newPath, stamp, stamp); err != nil {
		t.Fatalf("SetTimes() error = %v", err)
	}
	info, err := m.Stat(newPath)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if !info.ModTime().Equal(stamp) {
		t.Errorf("ModTime = %v, want %v", info.ModTime(), stamp)
	}
}

func TestOSFilesystemManager_RenameOntoExistingFails(t *testing.T) {
	root := t.TempDir()
	oldPath := filepath.Join(root, "old.jpg")
	newPath := filepath.Join(root, "taken.jpg")
	mustWrite(t, oldPath, "original")
	mustWrite(t, newPath, "occupant")

	m := fs.NewOSFilesystemManager()
	if err := m.Rename(oldPath, newPath); err == nil {
		t.Fatal("Rename() onto an existing file expected error")
	}
	if !m.Exists(oldPath) {
		t.Error("failed rename removed the source file")
	}
	data, err := os.ReadFile(newPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "occupant" {
		t.Errorf("destination content = %q, want untouched occupant", data)
	}
}

func mustMkdir(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0755); err != nil {
		t.Fatal(err)
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}
