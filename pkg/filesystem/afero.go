package filesystem

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robbert-vdh/yabridge/pkg/types"
	"github.com/spf13/afero"
)

// maxLinkDepth bounds symlink resolution, mirroring the kernel's ELOOP limit
const maxLinkDepth = 40

// aferoFS implements types.FS on top of afero for tests. Afero's MemMapFs has
// no symlink support, so symlinks are tracked in an overlay map and every
// path is resolved component-wise through it. This keeps install and orphan
// semantics (broken links, link-value comparison, links to directories)
// testable without touching the real filesystem.
type aferoFS struct {
	fs    afero.Fs
	mu    sync.RWMutex
	links map[string]string
}

// NewAferoFS creates a types.FS backed by the given afero filesystem
func NewAferoFS(base afero.Fs) types.FS {
	return &aferoFS{fs: base, links: make(map[string]string)}
}

// NewMemory creates an in-memory types.FS for tests
func NewMemory() types.FS {
	return NewAferoFS(afero.NewMemMapFs())
}

// resolve resolves every component of name through the symlink overlay. When
// followLast is false the final component is left unresolved, which is what
// Lstat, Remove and Readlink need.
func (a *aferoFS) resolve(name string, followLast bool) (string, error) {
	return a.resolveDepth(name, followLast, 0)
}

func (a *aferoFS) resolveDepth(name string, followLast bool, depth int) (string, error) {
	if depth > maxLinkDepth {
		return "", &fs.PathError{Op: "resolve", Path: name, Err: fs.ErrInvalid}
	}

	name = filepath.Clean(name)
	parts := strings.Split(name, string(filepath.Separator))
	cur := ""
	if filepath.IsAbs(name) {
		cur = string(filepath.Separator)
	}

	for i, part := range parts {
		if part == "" {
			continue
		}
		cur = filepath.Join(cur, part)

		if i == len(parts)-1 && !followLast {
			break
		}

		a.mu.RLock()
		target, ok := a.links[cur]
		a.mu.RUnlock()
		if ok {
			if !filepath.IsAbs(target) {
				target = filepath.Join(filepath.Dir(cur), target)
			}
			full := filepath.Join(append([]string{target}, parts[i+1:]...)...)
			return a.resolveDepth(full, followLast, depth+1)
		}
	}

	return cur, nil
}

func (a *aferoFS) isLink(name string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.links[filepath.Clean(name)]
	return ok
}

func (a *aferoFS) Stat(name string) (fs.FileInfo, error) {
	resolved, err := a.resolve(name, true)
	if err != nil {
		return nil, err
	}
	return a.fs.Stat(resolved)
}

func (a *aferoFS) Lstat(name string) (fs.FileInfo, error) {
	resolved, err := a.resolve(name, false)
	if err != nil {
		return nil, err
	}
	if a.isLink(resolved) {
		a.mu.RLock()
		target := a.links[resolved]
		a.mu.RUnlock()
		return &linkInfo{name: filepath.Base(resolved), target: target}, nil
	}
	return a.fs.Stat(resolved)
}

func (a *aferoFS) ReadFile(name string) ([]byte, error) {
	resolved, err := a.resolve(name, true)
	if err != nil {
		return nil, err
	}
	info, err := a.fs.Stat(resolved)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrInvalid}
	}
	return afero.ReadFile(a.fs, resolved)
}

func (a *aferoFS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	resolved, err := a.resolve(name, true)
	if err != nil {
		return err
	}
	return afero.WriteFile(a.fs, resolved, data, perm)
}

func (a *aferoFS) MkdirAll(path string, perm fs.FileMode) error {
	resolved, err := a.resolve(path, true)
	if err != nil {
		return err
	}
	return a.fs.MkdirAll(resolved, perm)
}

func (a *aferoFS) ReadDir(name string) ([]fs.DirEntry, error) {
	resolved, err := a.resolve(name, true)
	if err != nil {
		return nil, err
	}
	infos, err := afero.ReadDir(a.fs, resolved)
	if err != nil {
		return nil, err
	}

	entries := make([]fs.DirEntry, 0, len(infos))
	for _, info := range infos {
		full := filepath.Join(resolved, info.Name())
		if a.isLink(full) {
			a.mu.RLock()
			target := a.links[full]
			a.mu.RUnlock()
			entries = append(entries, fs.FileInfoToDirEntry(&linkInfo{name: info.Name(), target: target}))
			continue
		}
		entries = append(entries, fs.FileInfoToDirEntry(info))
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries, nil
}

func (a *aferoFS) Symlink(oldname, newname string) error {
	resolved, err := a.resolve(newname, false)
	if err != nil {
		return err
	}
	if _, err := a.fs.Stat(resolved); err == nil {
		return &fs.PathError{Op: "symlink", Path: newname, Err: fs.ErrExist}
	}
	if a.isLink(resolved) {
		return &fs.PathError{Op: "symlink", Path: newname, Err: fs.ErrExist}
	}
	// Marker file keeps the entry visible in directory listings
	if err := afero.WriteFile(a.fs, resolved, []byte(oldname), 0777); err != nil {
		return err
	}
	a.mu.Lock()
	a.links[resolved] = oldname
	a.mu.Unlock()
	return nil
}

func (a *aferoFS) Readlink(name string) (string, error) {
	resolved, err := a.resolve(name, false)
	if err != nil {
		return "", err
	}
	a.mu.RLock()
	target, ok := a.links[resolved]
	a.mu.RUnlock()
	if !ok {
		return "", &fs.PathError{Op: "readlink", Path: name, Err: fs.ErrInvalid}
	}
	return target, nil
}

func (a *aferoFS) Remove(name string) error {
	resolved, err := a.resolve(name, false)
	if err != nil {
		return err
	}
	if a.isLink(resolved) {
		a.mu.Lock()
		delete(a.links, resolved)
		a.mu.Unlock()
		return a.fs.Remove(resolved)
	}
	// MemMapFs happily removes populated directories, POSIX does not
	if info, err := a.fs.Stat(resolved); err == nil && info.IsDir() {
		children, err := afero.ReadDir(a.fs, resolved)
		if err != nil {
			return err
		}
		if len(children) > 0 {
			return &fs.PathError{Op: "remove", Path: name, Err: fs.ErrInvalid}
		}
	}
	return a.fs.Remove(resolved)
}

func (a *aferoFS) RemoveAll(path string) error {
	resolved, err := a.resolve(path, false)
	if err != nil {
		return err
	}
	if a.isLink(resolved) {
		a.mu.Lock()
		delete(a.links, resolved)
		a.mu.Unlock()
		return a.fs.Remove(resolved)
	}

	prefix := resolved + string(filepath.Separator)
	a.mu.Lock()
	for link := range a.links {
		if strings.HasPrefix(link, prefix) {
			delete(a.links, link)
		}
	}
	a.mu.Unlock()
	return a.fs.RemoveAll(resolved)
}

func (a *aferoFS) Canonicalize(name string) (string, error) {
	resolved, err := a.resolve(name, true)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(resolved) {
		resolved = string(filepath.Separator) + resolved
	}
	return filepath.Clean(resolved), nil
}

// linkInfo is the FileInfo reported for overlay symlinks
type linkInfo struct {
	name   string
	target string
}

func (l *linkInfo) Name() string       { return l.name }
func (l *linkInfo) Size() int64        { return int64(len(l.target)) }
func (l *linkInfo) Mode() fs.FileMode  { return fs.ModeSymlink | 0777 }
func (l *linkInfo) ModTime() time.Time { return time.Time{} }
func (l *linkInfo) IsDir() bool        { return false }
func (l *linkInfo) Sys() interface{}   { return nil }
