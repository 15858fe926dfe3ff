package commands

import (
	"sort"

	"github.com/robbert-vdh/yabridge/pkg/config"
	"github.com/robbert-vdh/yabridge/pkg/errors"
	"github.com/robbert-vdh/yabridge/pkg/logging"
	"github.com/robbert-vdh/yabridge/pkg/paths"
	"github.com/robbert-vdh/yabridge/pkg/scanner"
)

// AddDirectoryResult reports what adding a plugin directory changed.
type AddDirectoryResult struct {
	// Path is the canonicalized directory now being tracked
	Path string
	// Added is false when the directory was already tracked
	Added bool
}

// AddDirectory registers a directory to scan for Windows plugins. The path
// is canonicalized before storage so symlinked spellings of the same
// directory cannot be added twice.
func AddDirectory(env *Env, dir string) (*AddDirectoryResult, error) {
	expanded := paths.ExpandHome(dir)
	info, err := env.FS.Stat(expanded)
	if err != nil {
		return nil, errors.Newf(errors.ErrInvalidInput, "'%s' does not exist", dir)
	}
	if !info.IsDir() {
		return nil, errors.Newf(errors.ErrInvalidInput, "'%s' is not a directory", dir)
	}

	canonical, err := env.FS.Canonicalize(expanded)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput, "could not canonicalize '%s'", dir)
	}

	added := env.Config.AddPluginDir(canonical)
	if added {
		if err := config.Save(env.Paths, env.Config); err != nil {
			return nil, err
		}
	}

	logger := logging.GetLogger("commands")
	logger.Info().
		Str("path", canonical).
		Bool("added", added).
		Msg("Added plugin directory")

	return &AddDirectoryResult{Path: canonical, Added: added}, nil
}

// RemoveDirectoryResult reports what was removed and which native shims were
// left behind under the directory.
type RemoveDirectoryResult struct {
	Path string

	// LeftoverShims are .so files still present under the removed
	// directory. Stale copies can confuse plugin hosts later, so the CLI
	// offers to delete them.
	LeftoverShims []string
}

// RemoveDirectory unregisters a plugin directory. The directory must be
// tracked. The removed tree is scanned one last time so leftover shims can
// be reported.
func RemoveDirectory(env *Env, dir string) (*RemoveDirectoryResult, error) {
	canonical, err := env.FS.Canonicalize(paths.ExpandHome(dir))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput, "could not canonicalize '%s'", dir)
	}

	if !env.Config.RemovePluginDir(canonical) {
		return nil, errors.Newf(errors.ErrInvalidInput,
			"'%s' is not a tracked plugin directory, use 'yabridgectl list' to see the tracked directories", dir)
	}
	if err := config.Save(env.Paths, env.Config); err != nil {
		return nil, err
	}

	result := &RemoveDirectoryResult{Path: canonical}

	// The directory may already be gone, leftover reporting is best effort
	if scan, err := scanner.Scan(env.FS, canonical, env.Config.Blacklist); err == nil {
		for _, file := range scan.NativeFiles {
			result.LeftoverShims = append(result.LeftoverShims, file.Path)
		}
		sort.Strings(result.LeftoverShims)
	}

	logger := logging.GetLogger("commands")
	logger.Info().
		Str("path", canonical).
		Int("leftovers", len(result.LeftoverShims)).
		Msg("Removed plugin directory")

	return result, nil
}

// DeleteLeftovers removes the shims reported by RemoveDirectory once the
// user has confirmed. Returns how many files were removed.
func DeleteLeftovers(env *Env, shims []string) (int, error) {
	removed := 0
	for _, shim := range shims {
		if err := env.FS.Remove(shim); err != nil {
			return removed, errors.Wrapf(err, errors.ErrPrune, "could not remove '%s'", shim)
		}
		removed++
	}
	return removed, nil
}

// ListDirectories returns the tracked plugin directories, sorted.
func ListDirectories(env *Env) []string {
	return append([]string(nil), env.Config.PluginDirs...)
}
