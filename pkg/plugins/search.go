package plugins

import (
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/robbert-vdh/yabridge/pkg/logging"
	"github.com/robbert-vdh/yabridge/pkg/scanner"
	"github.com/robbert-vdh/yabridge/pkg/symbols"
	"github.com/robbert-vdh/yabridge/pkg/types"
)

// SearchResult is everything found under a single plugin directory.
type SearchResult struct {
	// Plugins is sorted by module path
	Plugins []Plugin
	// SkippedFiles are libraries without a recognized plugin entry point,
	// things like license checkers and shared support DLLs
	SkippedFiles []string
	// NativeFiles are the .so files seen during the scan
	NativeFiles []types.NativeFile
	Warnings    []string
}

// Search scans a plugin directory and classifies every candidate. Files that
// cannot be inspected at all are reported as warnings and skipped.
func Search(fsys types.FS, runner symbols.Runner, root string, blacklist []string) (*SearchResult, error) {
	scan, err := scanner.Scan(fsys, root, blacklist)
	if err != nil {
		return nil, err
	}

	result := &SearchResult{
		NativeFiles: scan.NativeFiles,
		Warnings:    scan.Warnings,
	}
	for _, out := range classifyAll(fsys, runner, scan.Candidates) {
		switch {
		case out.warning != "":
			result.Warnings = append(result.Warnings, out.warning)
			result.SkippedFiles = append(result.SkippedFiles, out.skipped)
		case out.skipped != "":
			result.SkippedFiles = append(result.SkippedFiles, out.skipped)
		default:
			result.Plugins = append(result.Plugins, out.plugin)
		}
	}

	sort.Slice(result.Plugins, func(i, j int) bool { return result.Plugins[i].Path < result.Plugins[j].Path })
	sort.Strings(result.SkippedFiles)
	sort.Strings(result.Warnings)

	logger := logging.GetLogger("plugins")
	logger.Debug().
		Str("root", root).
		Int("plugins", len(result.Plugins)).
		Int("skipped", len(result.SkippedFiles)).
		Msg("Classified plugin directory")

	return result, nil
}

// SearchAll searches every plugin directory concurrently. The first error
// wins; partial results are discarded on failure.
func SearchAll(fsys types.FS, runner symbols.Runner, roots []string, blacklist []string) (map[string]*SearchResult, error) {
	results := make(map[string]*SearchResult, len(roots))

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
	)
	for _, root := range roots {
		wg.Add(1)
		go func(root string) {
			defer wg.Done()
			res, err := Search(fsys, runner, root, blacklist)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			results[root] = res
		}(root)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

type outcome struct {
	plugin  Plugin
	skipped string
	warning string
}

// classifyAll inspects candidates on a small worker pool. Reading export
// tables is cheap but plugin collections run into the hundreds, and the
// winedump fallback spawns subprocesses.
func classifyAll(fsys types.FS, runner symbols.Runner, candidates []scanner.Candidate) []outcome {
	if len(candidates) == 0 {
		return nil
	}

	workers := runtime.NumCPU()
	if workers > len(candidates) {
		workers = len(candidates)
	}

	jobs := make(chan scanner.Candidate, len(candidates))
	for _, c := range candidates {
		jobs <- c
	}
	close(jobs)

	results := make(chan outcome, len(candidates))
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range jobs {
				results <- classifyOne(fsys, runner, c)
			}
		}()
	}
	wg.Wait()
	close(results)

	outcomes := make([]outcome, 0, len(candidates))
	for out := range results {
		outcomes = append(outcomes, out)
	}
	return outcomes
}

func classifyOne(fsys types.FS, runner symbols.Runner, c scanner.Candidate) outcome {
	bin, err := symbols.Inspect(fsys, runner, c.Path)
	if err != nil {
		return outcome{
			skipped: c.Path,
			warning: fmt.Sprintf("could not inspect %s, skipping: %v", c.Path, err),
		}
	}

	switch filepath.Ext(c.Path) {
	case ".dll":
		if bin.HasExport(vst2MainEntry) || bin.HasExport(vst2LegacyEntry) {
			return outcome{plugin: Plugin{Format: FormatVst2, Path: c.Path, Arch: bin.Arch, Subdir: c.Subdir}}
		}
	case ".vst3":
		if bin.HasExport(vst3EntryPoint) {
			return outcome{plugin: newVst3Plugin(c, bin.Arch)}
		}
	case ".clap":
		if bin.HasExport(clapEntryPoint) {
			return outcome{plugin: Plugin{Format: FormatClap, Path: c.Path, Arch: bin.Arch, Subdir: c.Subdir}}
		}
	}
	return outcome{skipped: c.Path}
}
