package livetune

import (
	"io/fs"
	"os"
)

// FileSystem abstracts the file operations used by the read path.
// It exists so tests can inject failing or in-memory file systems.
type FileSystem interface {
	// Stat returns file info for path.
	Stat(path string) (fs.FileInfo, error)
	// ReadFile reads the entire file at path.
	ReadFile(path string) ([]byte, error)
}

// WriteFileSystem is implemented by file systems that can also persist
// files. Template creation and Save require it; a FileSystem without it
// is treated as read-only.
type WriteFileSystem interface {
	FileSystem
	// WriteFile writes data to path, creating it if needed.
	WriteFile(path string, data []byte, perm fs.FileMode) error
}

// OSFS implements WriteFileSystem using the real OS file system.
type OSFS struct{}

// Stat returns file info for path.
func (OSFS) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// ReadFile reads the entire file at path.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteFile writes data to path.
func (OSFS) WriteFile(path string, data []byte, perm fs.FileMode) error {
	return os.WriteFile(path, data, perm)
}

// DefaultFS returns the default file system (OS).
func DefaultFS() FileSystem {
	return OSFS{}
}
