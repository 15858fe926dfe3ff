package types

import (
	"io/fs"
)

// FS is the filesystem surface the scanner and installer operate through.
// Production code uses the os backed implementation, tests swap in an
// in-memory one.
type FS interface {
	// Reading. Lstat must not follow symlinks, a broken symlink is still
	// an entry.
	Stat(name string) (fs.FileInfo, error)
	Lstat(name string) (fs.FileInfo, error)
	ReadFile(name string) ([]byte, error)
	ReadDir(name string) ([]fs.DirEntry, error)
	Readlink(name string) (string, error)

	// Writing
	WriteFile(name string, data []byte, perm fs.FileMode) error
	MkdirAll(path string, perm fs.FileMode) error
	Symlink(oldname, newname string) error

	// Removal
	Remove(name string) error
	RemoveAll(path string) error

	// Canonicalize resolves symlinks and returns an absolute, cleaned path.
	// Paths that do not exist resolve through their deepest existing ancestor.
	Canonicalize(name string) (string, error)
}
