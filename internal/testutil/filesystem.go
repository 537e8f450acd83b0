package testutil

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"photodex/internal/photo"
)

// MockFile represents a file in the mock filesystem.
type MockFile struct {
	Content     []byte
	ModTime     time.Time
	Atime       time.Time
	IsDirectory bool
}

// MockFilesystemManager is an in-memory filesystem for testing. Paths are
// treated as opaque slash-separated strings; callers add directories and
// files explicitly. Safe for concurrent use.
type MockFilesystemManager struct {
	mu    sync.Mutex
	files map[string]*MockFile

	// RenameErr, when set, is returned by every Rename call.
	RenameErr error
	// SetTimesErr, when set, is returned by every SetTimes call.
	SetTimesErr error
}

// NewMockFilesystemManager creates a new mock filesystem.
func NewMockFilesystemManager() *MockFilesystemManager {
	return &MockFilesystemManager{
		files: make(map[string]*MockFile),
	}
}

// AddFile adds a file to the mock filesystem.
func (m *MockFilesystemManager) AddFile(path string, content []byte) {
	m.AddFileWithModTime(path, content, time.Now())
}

// AddFileWithModTime adds a file with an explicit modification time.
func (m *MockFilesystemManager) AddFileWithModTime(path string, content []byte, modTime time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[filepath.Clean(path)] = &MockFile{
		Content: content,
		ModTime: modTime,
		Atime:   modTime,
	}
}

// AddDirectory adds a directory to the mock filesystem.
func (m *MockFilesystemManager) AddDirectory(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[filepath.Clean(path)] = &MockFile{
		ModTime:     time.Now(),
		IsDirectory: true,
	}
}

// File returns the mock file stored at path, or nil if absent.
func (m *MockFilesystemManager) File(path string) *MockFile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.files[filepath.Clean(path)]
}

// Paths returns all paths currently in the mock filesystem, sorted.
func (m *MockFilesystemManager) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	paths := make([]string, 0, len(m.files))
	for p := range m.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func (m *MockFilesystemManager) FindDirectories(root string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	root = filepath.Clean(root)
	entry, ok := m.files[root]
	if !ok || !entry.IsDirectory {
		return nil, fmt.Errorf("directory not found: %s", root)
	}

	var dirs []string
	for p, f := range m.files {
		if !f.IsDirectory {
			continue
		}
		if p == root || strings.HasPrefix(p, root+string(filepath.Separator)) {
			dirs = append(dirs, p)
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

func (m *MockFilesystemManager) ListFiles(dir string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	dir = filepath.Clean(dir)
	entry, ok := m.files[dir]
	if !ok || !entry.IsDirectory {
		return nil, fmt.Errorf("directory not found: %s", dir)
	}

	var files []string
	for p, f := range m.files {
		if f.IsDirectory {
			continue
		}
		if filepath.Dir(p) == dir {
			files = append(files, p)
		}
	}
	sort.Strings(files)
	return files, nil
}

func (m *MockFilesystemManager) Stat(path string) (fs.FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	path = filepath.Clean(path)
	f, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", path)
	}
	return &mockFileInfo{
		name:    filepath.Base(path),
		size:    int64(len(f.Content)),
		modTime: f.ModTime,
		isDir:   f.IsDirectory,
	}, nil
}

func (m *MockFilesystemManager) Exists(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[filepath.Clean(path)]
	return ok
}

func (m *MockFilesystemManager) Rename(oldPath, newPath string) error {
	if m.RenameErr != nil {
		return m.RenameErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	oldPath = filepath.Clean(oldPath)
	newPath = filepath.Clean(newPath)
	f, ok := m.files[oldPath]
	if !ok {
		return fmt.Errorf("file not found: %s", oldPath)
	}
	if _, taken := m.files[newPath]; taken && newPath != oldPath {
		return fmt.Errorf("destination already exists: %s", newPath)
	}
	delete(m.files, oldPath)
	m.files[newPath] = f
	return nil
}

func (m *MockFilesystemManager) SetTimes(path string, atime, mtime time.Time) error {
	if m.SetTimesErr != nil {
		return m.SetTimesErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	path = filepath.Clean(path)
	f, ok := m.files[path]
	if !ok {
		return fmt.Errorf("file not found: %s", path)
	}
	f.Atime = atime
	f.ModTime = mtime
	return nil
}

type mockFileInfo struct {
	name    string
	size    int64
	modTime time.Time
	isDir   bool
}

func (i *mockFileInfo) Name() string { return i.name }
func (i *mockFileInfo) Size() int64  { return i.size }
func (i *mockFileInfo) Mode() fs.FileMode {
	if i.isDir {
		return fs.ModeDir | 0755
	}
	return 0644
}
func (i *mockFileInfo) ModTime() time.Time { return i.modTime }
func (i *mockFileInfo) IsDir() bool        { return i.isDir }
func (i *mockFileInfo) Sys() any           { return nil }

// Compile-time check that MockFilesystemManager implements the interface
var _ photo.FilesystemManager = (*MockFilesystemManager)(nil)
