// Package scanner walks plugin directories looking for Windows plugin
// libraries and leftover native shims. The walk follows symlinks but stays
// on the starting filesystem, prunes blacklisted paths and guards against
// symlink cycles.
package scanner

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/robbert-vdh/yabridge/pkg/errors"
	"github.com/robbert-vdh/yabridge/pkg/logging"
	"github.com/robbert-vdh/yabridge/pkg/types"
)

// maxScanFiles is the number of files after which a single scan starts
// warning. Hitting it almost always means a non-plugin directory was added
// by accident.
const maxScanFiles = 100_000

// Candidate is a file that may be a Windows plugin, found during a scan.
type Candidate struct {
	// Path is the file's path as encountered, symlinks not resolved
	Path string
	// Subdir is the file's parent directory relative to the scanned root,
	// empty for files directly in the root. Install locations mirror it.
	Subdir string
}

// Result holds everything noteworthy found under a single plugin directory.
type Result struct {
	Candidates []Candidate
	// NativeFiles are the .so files encountered during the scan. With
	// inline VST2 installs these are usually yabridge's own shims, which
	// orphan detection matches against the discovered plugins.
	NativeFiles []types.NativeFile
	Warnings    []string
}

// Scan walks root and collects plugin candidates by extension. Directories
// the scan cannot read due to permissions are skipped silently, as are
// blacklisted files and subtrees.
func Scan(fsys types.FS, root string, blacklist []string) (*Result, error) {
	logger := logging.GetLogger("scanner")

	info, err := fsys.Stat(root)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrDirScan, "could not read plugin directory %s", root)
	}
	if !info.IsDir() {
		return nil, errors.Newf(errors.ErrDirScan, "%s is not a directory", root)
	}

	w := &walker{
		fsys:      fsys,
		root:      root,
		blacklist: make(map[string]bool, len(blacklist)),
		visited:   make(map[string]bool),
		result:    &Result{},
	}
	for _, path := range blacklist {
		w.blacklist[path] = true
	}
	w.device, w.haveDevice = deviceOf(info)

	if w.blacklisted(root) {
		return w.result, nil
	}
	if canon, err := fsys.Canonicalize(root); err == nil {
		w.visited[canon] = true
	}

	if err := w.walkDir(root, ""); err != nil {
		return nil, err
	}

	logger.Debug().
		Str("root", root).
		Int("candidates", len(w.result.Candidates)).
		Int("native_files", len(w.result.NativeFiles)).
		Int("files_seen", w.fileCount).
		Msg("Plugin directory scanned")

	return w.result, nil
}

type walker struct {
	fsys       types.FS
	root       string
	blacklist  map[string]bool
	visited    map[string]bool
	device     uint64
	haveDevice bool
	result     *Result
	fileCount  int
	warned     bool
}

func (w *walker) walkDir(dir, subdir string) error {
	entries, err := w.fsys.ReadDir(dir)
	if err != nil {
		if isPermission(err) {
			return nil
		}
		return errors.Wrapf(err, errors.ErrDirScan, "could not read %s", dir)
	}

	for _, entry := range entries {
		full := filepath.Join(dir, entry.Name())
		w.countFile()

		isLink := entry.Type()&fs.ModeSymlink != 0
		info, err := w.fsys.Stat(full)
		if err != nil {
			// Broken symlink or the file vanished mid-scan. A dangling
			// .so is still a leftover worth reporting.
			if isLink && strings.HasSuffix(entry.Name(), ".so") && !w.blacklisted(full) {
				w.result.NativeFiles = append(w.result.NativeFiles,
					types.NativeFile{Kind: types.FileSymlink, Path: full})
			}
			continue
		}

		if info.IsDir() {
			if w.blacklisted(full) || !w.sameDevice(info) {
				continue
			}
			if canon, err := w.fsys.Canonicalize(full); err == nil {
				if w.visited[canon] {
					continue
				}
				w.visited[canon] = true
			}
			if err := w.walkDir(full, filepath.Join(subdir, entry.Name())); err != nil {
				return err
			}
			continue
		}

		if w.blacklisted(full) {
			continue
		}
		switch filepath.Ext(entry.Name()) {
		case ".dll", ".vst3", ".clap":
			w.result.Candidates = append(w.result.Candidates, Candidate{Path: full, Subdir: subdir})
		case ".so":
			kind := types.FileRegular
			if isLink {
				kind = types.FileSymlink
			}
			w.result.NativeFiles = append(w.result.NativeFiles,
				types.NativeFile{Kind: kind, Path: full})
		}
	}
	return nil
}

func (w *walker) countFile() {
	w.fileCount++
	if w.fileCount > maxScanFiles && !w.warned {
		w.warned = true
		warning := fmt.Sprintf(
			"scanning through more than %d files under %s, did you add a directory containing something other than plugins?",
			maxScanFiles, w.root)
		w.result.Warnings = append(w.result.Warnings, warning)
		logger := logging.GetLogger("scanner")
		logger.Warn().Str("root", w.root).Msg(warning)
	}
}

func (w *walker) blacklisted(path string) bool {
	if len(w.blacklist) == 0 {
		return false
	}
	if w.blacklist[path] {
		return true
	}
	canon, err := w.fsys.Canonicalize(path)
	return err == nil && w.blacklist[canon]
}

// sameDevice reports whether a directory lives on the same filesystem as the
// scan root. When the platform does not expose device numbers everything
// passes.
func (w *walker) sameDevice(info fs.FileInfo) bool {
	if !w.haveDevice {
		return true
	}
	dev, ok := deviceOf(info)
	return !ok || dev == w.device
}

func deviceOf(info fs.FileInfo) (uint64, bool) {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return uint64(st.Dev), true
	}
	return 0, false
}

func isPermission(err error) bool {
	return errors.Is(err, fs.ErrPermission)
}
