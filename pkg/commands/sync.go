package commands

import (
	"fmt"
	"sort"

	"github.com/robbert-vdh/yabridge/pkg/config"
	"github.com/robbert-vdh/yabridge/pkg/installer"
	"github.com/robbert-vdh/yabridge/pkg/logging"
	"github.com/robbert-vdh/yabridge/pkg/plugins"
	"github.com/robbert-vdh/yabridge/pkg/types"
	"github.com/robbert-vdh/yabridge/pkg/verify"
)

// SyncOptions holds the flags accepted by yabridgectl sync.
type SyncOptions struct {
	// Force rewrites every artifact even when already up to date
	Force bool
	// Prune removes the orphans instead of only listing them
	Prune bool
	// NoVerify skips the login shell and Wine checks for this run
	NoVerify bool
}

// SyncResult is everything a sync run did and found.
type SyncResult struct {
	// Files are the resolved yabridge files the artifacts were built from
	Files *config.YabridgeFiles
	// Roots holds the per-directory search results for verbose listings
	Roots map[string]*plugins.SearchResult

	// Installed counts plugins whose artifacts are now up to date
	Installed int
	// NewFiles counts artifacts that were actually (re)written
	NewFiles int

	SkippedFiles []string

	// Orphans are leftover artifacts from plugins that no longer exist,
	// sorted by path
	Orphans []string
	// OrphansRemoved is how many of them were pruned
	OrphansRemoved int

	Warnings []string
}

// Sync discovers the Windows plugins under every tracked directory, installs
// their bridge artifacts, reports orphans (removing them when requested) and
// finally verifies the environment. When verification fails the returned
// result still describes the work that already happened, so the CLI can
// render the summary before the error.
func Sync(env *Env, opts SyncOptions) (*SyncResult, error) {
	logger := logging.GetLogger("commands")
	defer logging.LogOperationStart(logger, "sync")()

	files, err := config.ResolveFiles(env.FS, env.Paths, env.Config)
	if err != nil {
		return nil, err
	}

	results, err := plugins.SearchAll(env.FS, env.SymbolRunner, env.Config.PluginDirs, env.Config.Blacklist)
	if err != nil {
		return nil, err
	}

	result := &SyncResult{Files: files, Roots: results}
	for _, res := range results {
		result.SkippedFiles = append(result.SkippedFiles, res.SkippedFiles...)
		result.Warnings = append(result.Warnings, res.Warnings...)
	}
	sort.Strings(result.SkippedFiles)
	sort.Strings(result.Warnings)

	if files.Host32Exe == "" && has32BitPlugins(results) {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"found 32-bit plugins, but '%s' is not installed, those plugins will not work until it is",
			config.Host32ExeName))
	}

	rec := installer.NewReconciler(env.FS, env.Paths, env.Config, files, opts.Force)
	report, managed, err := rec.Reconcile(results)
	if err != nil {
		return nil, err
	}
	result.Installed = report.Installed
	result.NewFiles = report.NewFiles
	result.Warnings = append(result.Warnings, report.Warnings...)

	orphans, err := installer.FindOrphans(env.FS, env.Paths, env.Config, managed, results)
	if err != nil {
		return nil, err
	}
	result.Orphans = orphans

	if opts.Prune && len(orphans) > 0 {
		removed, err := installer.Prune(env.FS, env.Paths, orphans)
		if err != nil {
			return nil, err
		}
		result.OrphansRemoved = removed
	}

	logger.Info().
		Int("installed", result.Installed).
		Int("new", result.NewFiles).
		Int("orphans", len(result.Orphans)).
		Msg("Synchronized plugins")

	if opts.NoVerify || env.Config.NoVerify {
		return result, nil
	}

	verifier := verify.New(env.FS, env.Paths, env.VerifyRunner)
	_, pathWarnings := verifier.CheckPath(files)
	result.Warnings = append(result.Warnings, pathWarnings...)

	wineWarnings, err := verifier.CheckWine(env.Config, files)
	result.Warnings = append(result.Warnings, wineWarnings...)
	if err != nil {
		return result, err
	}

	return result, nil
}

func has32BitPlugins(results map[string]*plugins.SearchResult) bool {
	for _, res := range results {
		for _, plugin := range res.Plugins {
			if plugin.Arch == types.Lib32 {
				return true
			}
		}
	}
	return false
}
