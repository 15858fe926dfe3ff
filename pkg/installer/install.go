// Package installer reconciles the bridge artifacts on disk with the
// plugins discovered during a scan. It installs chainloader copies, symlinks
// back to the Windows binaries, and merged VST3 bundles, tracks everything
// it touched in a ManagedSet, and detects and prunes artifacts left behind
// by earlier runs.
package installer

import (
	"io/fs"
	"path/filepath"

	"github.com/robbert-vdh/yabridge/pkg/errors"
	"github.com/robbert-vdh/yabridge/pkg/filesystem"
	"github.com/robbert-vdh/yabridge/pkg/types"
)

// Install brings targetPath in line with sourcePath using the given method,
// creating parent directories as needed. An existing target is left alone
// when it already matches: for copies, a regular file whose content hash
// equals sourceHash; for symlinks, a link whose value equals sourcePath.
// Anything else occupying the target is removed, whatever its type, and the
// artifact is recreated. Returns whether the target was (re)written.
//
// Skipping matching targets keeps their mtime and inode stable, which stops
// plugin hosts from rescanning their plugin databases after every sync.
func Install(fsys types.FS, force bool, method types.InstallMethod, sourcePath, sourceHash, targetPath string) (bool, error) {
	if err := fsys.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
		return false, errors.Wrapf(err, errors.ErrInstall, "could not create directories for '%s'", targetPath)
	}

	// Lstat rather than Stat: a broken symlink still occupies the target
	// and has to be replaced, while a followed Stat would report it absent.
	info, err := fsys.Lstat(targetPath)
	exists := err == nil

	if exists && !force {
		switch method {
		case types.MethodCopy:
			if info.Mode().IsRegular() {
				hash, err := filesystem.HashFile(fsys, targetPath)
				if err != nil {
					return false, errors.Wrapf(err, errors.ErrInstall, "could not hash '%s'", targetPath)
				}
				if hash == sourceHash {
					return false, nil
				}
			}
		case types.MethodSymlink:
			if info.Mode()&fs.ModeSymlink != 0 {
				if link, err := fsys.Readlink(targetPath); err == nil && link == sourcePath {
					return false, nil
				}
			}
		}
	}

	if exists {
		if err := fsys.RemoveAll(targetPath); err != nil {
			return false, errors.Wrapf(err, errors.ErrInstall, "could not remove '%s'", targetPath)
		}
	}

	switch method {
	case types.MethodCopy:
		if err := copyFile(fsys, sourcePath, targetPath); err != nil {
			return false, err
		}
	case types.MethodSymlink:
		if err := fsys.Symlink(sourcePath, targetPath); err != nil {
			return false, errors.Wrapf(err, errors.ErrInstall, "could not symlink '%s' to '%s'", targetPath, sourcePath)
		}
	}

	return true, nil
}

func copyFile(fsys types.FS, sourcePath, targetPath string) error {
	data, err := fsys.ReadFile(sourcePath)
	if err != nil {
		return errors.Wrapf(err, errors.ErrInstall, "could not read '%s'", sourcePath)
	}

	// Chainloaders are shared libraries, so carry the source's permissions
	perm := fs.FileMode(0o755)
	if info, err := fsys.Stat(sourcePath); err == nil {
		perm = info.Mode().Perm()
	}

	if err := fsys.WriteFile(targetPath, data, perm); err != nil {
		return errors.Wrapf(err, errors.ErrInstall, "could not write '%s'", targetPath)
	}

	return nil
}
