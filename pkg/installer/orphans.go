package installer

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/robbert-vdh/yabridge/pkg/config"
	"github.com/robbert-vdh/yabridge/pkg/errors"
	"github.com/robbert-vdh/yabridge/pkg/paths"
	"github.com/robbert-vdh/yabridge/pkg/plugins"
	"github.com/robbert-vdh/yabridge/pkg/types"
)

// FindOrphans collects bridge artifacts no longer backed by a discovered
// plugin: native shims sitting next to the Windows plugins in the scanned
// directories, and anything inside the centralized home directories that
// this run's reconciliation did not claim. The returned list is sorted and
// deduplicated.
func FindOrphans(fsys types.FS, p paths.Paths, cfg *config.Config, managed *ManagedSet, results map[string]*plugins.SearchResult) ([]string, error) {
	seen := make(map[string]bool)
	var orphans []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			orphans = append(orphans, path)
		}
	}

	for _, path := range inlineOrphans(cfg, results) {
		add(path)
	}

	for _, home := range []string{p.Vst2Home(), p.Vst3Home(), p.ClapHome()} {
		if err := walkHome(fsys, home, managed, add); err != nil {
			return nil, err
		}
	}

	sort.Strings(orphans)
	return orphans, nil
}

// inlineOrphans flags native shims found during the scan that no discovered
// VST2 plugin accounts for. Under the centralized location policy every
// inline shim is an orphan, since nothing should sit next to the Windows
// plugins at all.
func inlineOrphans(cfg *config.Config, results map[string]*plugins.SearchResult) []string {
	expected := make(map[string]bool)
	if cfg.Vst2Location == config.Vst2Inline {
		for _, result := range results {
			for _, plugin := range result.Plugins {
				if plugin.Format == plugins.FormatVst2 {
					expected[plugin.Vst2InlineSo()] = true
				}
			}
		}
	}

	var orphans []string
	for _, result := range results {
		for _, native := range result.NativeFiles {
			if !expected[native.Path] {
				orphans = append(orphans, native.Path)
			}
		}
	}

	return orphans
}

// walkHome scans a centralized home directory for unclaimed artifacts. An
// unmanaged bundle directory is orphaned wholesale; a managed bundle is
// still walked so stale files inside it are caught individually, such as a
// leftover 32-bit chainloader after an upgrade to 64-bit. Other directories
// only group plugins by manufacturer and are descended into, never flagged.
func walkHome(fsys types.FS, dir string, managed *ManagedSet, add func(string)) error {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return errors.Wrapf(err, errors.ErrPrune, "could not scan '%s'", dir)
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		switch {
		case entry.IsDir() && managed.ContainsDir(path):
			if err := walkBundle(fsys, path, managed, add); err != nil {
				return err
			}
		case entry.IsDir() && strings.HasSuffix(entry.Name(), ".vst3"):
			add(path)
		case entry.IsDir():
			if err := walkHome(fsys, path, managed, add); err != nil {
				return err
			}
		default:
			if !managed.ContainsFile(path) {
				add(path)
			}
		}
	}

	return nil
}

// walkBundle flags unmanaged files inside a managed bundle. Directories at
// this level form the bundle skeleton and are never orphans themselves.
func walkBundle(fsys types.FS, dir string, managed *ManagedSet, add func(string)) error {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return errors.Wrapf(err, errors.ErrPrune, "could not scan '%s'", dir)
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			if err := walkBundle(fsys, path, managed, add); err != nil {
				return err
			}
		} else if !managed.ContainsFile(path) {
			add(path)
		}
	}

	return nil
}

// Prune deletes the given orphans. Deletion runs in reverse lexicographic
// order so files disappear before the directories containing them. After
// each removal, parent directories that became empty are removed as well,
// walking upward until a non-empty directory, a home directory itself, or
// anything outside the homes is reached. Scanned plugin directories are
// never touched this way.
func Prune(fsys types.FS, p paths.Paths, orphans []string) (int, error) {
	homes := []string{p.Vst2Home(), p.Vst3Home(), p.ClapHome()}

	sorted := make([]string, len(orphans))
	copy(sorted, orphans)
	sort.Sort(sort.Reverse(sort.StringSlice(sorted)))

	removed := 0
	for _, orphan := range sorted {
		info, err := fsys.Lstat(orphan)
		if err != nil {
			// Already gone, usually because a parent bundle in this
			// list was removed wholesale first
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return removed, errors.Wrapf(err, errors.ErrPrune, "could not remove '%s'", orphan)
		}

		if info.IsDir() {
			err = fsys.RemoveAll(orphan)
		} else {
			err = fsys.Remove(orphan)
		}
		if err != nil {
			return removed, errors.Wrapf(err, errors.ErrPrune, "could not remove '%s'", orphan)
		}
		removed++

		if err := pruneEmptyAncestors(fsys, filepath.Dir(orphan), homes); err != nil {
			return removed, err
		}
	}

	return removed, nil
}

// pruneEmptyAncestors removes dir and then its parents for as long as they
// are empty and still strictly inside one of the home directories.
func pruneEmptyAncestors(fsys types.FS, dir string, homes []string) error {
	for isInsideHomes(dir, homes) {
		entries, err := fsys.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return nil
		}
		if err := fsys.Remove(dir); err != nil {
			return errors.Wrapf(err, errors.ErrPrune, "could not remove '%s'", dir)
		}
		dir = filepath.Dir(dir)
	}

	return nil
}

func isInsideHomes(dir string, homes []string) bool {
	for _, home := range homes {
		if dir != home && strings.HasPrefix(dir, home+string(filepath.Separator)) {
			return true
		}
	}

	return false
}
