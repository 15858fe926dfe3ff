package commands

import (
	"sort"

	"github.com/robbert-vdh/yabridge/pkg/config"
	"github.com/robbert-vdh/yabridge/pkg/installer"
	"github.com/robbert-vdh/yabridge/pkg/plugins"
)

// RootStatus is the observed state of a single tracked plugin directory.
type RootStatus struct {
	Root     string                    `json:"root" yaml:"root"`
	Plugins  []installer.InstallStatus `json:"plugins" yaml:"plugins"`
	Skipped  []string                  `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Warnings []string                  `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// StatusResult is everything the status command reports.
type StatusResult struct {
	// YabridgeHome is the configured pin, empty means automatic search
	YabridgeHome string              `json:"yabridgeHome,omitempty" yaml:"yabridgeHome,omitempty"`
	Vst2Location config.Vst2Location `json:"vst2Location" yaml:"vst2Location"`
	NoVerify     bool                `json:"noVerify" yaml:"noVerify"`

	// Files are the resolved yabridge files, nil when resolution failed
	Files *config.YabridgeFiles `json:"files,omitempty" yaml:"files,omitempty"`
	// FilesError carries the resolution failure. Status stays useful
	// without yabridge installed, install targets are then observed
	// assuming 64-bit layouts.
	FilesError string `json:"filesError,omitempty" yaml:"filesError,omitempty"`

	Roots []RootStatus `json:"roots" yaml:"roots"`
}

// Status scans every tracked directory and pairs each discovered plugin with
// whatever currently occupies its install target.
func Status(env *Env) (*StatusResult, error) {
	result := &StatusResult{
		YabridgeHome: env.Config.YabridgeHome,
		Vst2Location: env.Config.Vst2Location,
		NoVerify:     env.Config.NoVerify,
	}

	files, err := config.ResolveFiles(env.FS, env.Paths, env.Config)
	if err != nil {
		result.FilesError = err.Error()
		files = &config.YabridgeFiles{}
	} else {
		result.Files = files
	}

	results, err := plugins.SearchAll(env.FS, env.SymbolRunner, env.Config.PluginDirs, env.Config.Blacklist)
	if err != nil {
		return nil, err
	}

	rec := installer.NewReconciler(env.FS, env.Paths, env.Config, files, false)

	roots := make([]string, 0, len(results))
	for root := range results {
		roots = append(roots, root)
	}
	sort.Strings(roots)

	for _, root := range roots {
		res := results[root]
		result.Roots = append(result.Roots, RootStatus{
			Root:     root,
			Plugins:  rec.Status(res),
			Skipped:  res.SkippedFiles,
			Warnings: res.Warnings,
		})
	}

	return result, nil
}
