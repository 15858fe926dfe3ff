package installer

import (
	"bytes"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"

	"github.com/robbert-vdh/yabridge/pkg/config"
	"github.com/robbert-vdh/yabridge/pkg/errors"
	"github.com/robbert-vdh/yabridge/pkg/logging"
	"github.com/robbert-vdh/yabridge/pkg/moduleinfo"
	"github.com/robbert-vdh/yabridge/pkg/paths"
	"github.com/robbert-vdh/yabridge/pkg/plugins"
	"github.com/robbert-vdh/yabridge/pkg/types"
)

// Report accumulates what a reconciliation pass did.
type Report struct {
	// Installed counts plugins whose artifacts were brought up to date
	Installed int
	// NewFiles counts artifacts that were actually (re)written
	NewFiles int
	// Warnings are non fatal problems, attributed to the offending path
	Warnings []string
}

// Reconciler installs the bridge artifacts for discovered plugins. All
// mutations run sequentially: parent directories must exist before their
// contents, and the conflict policy and counters depend on a deterministic
// order.
type Reconciler struct {
	fs     types.FS
	paths  paths.Paths
	config *config.Config
	files  *config.YabridgeFiles
	force  bool
	logger zerolog.Logger
}

func NewReconciler(fsys types.FS, p paths.Paths, cfg *config.Config, files *config.YabridgeFiles, force bool) *Reconciler {
	return &Reconciler{
		fs:     fsys,
		paths:  p,
		config: cfg,
		files:  files,
		force:  force,
		logger: logging.GetLogger("installer"),
	}
}

// Reconcile installs the artifacts for every plugin in results and returns
// the set of paths it now manages, which orphan detection consumes
// afterwards. Roots are processed in sorted order and plugins in discovery
// order, so when two plugins fight over a target the same one wins on every
// run.
func (r *Reconciler) Reconcile(results map[string]*plugins.SearchResult) (*Report, *ManagedSet, error) {
	report := &Report{}
	managed := NewManagedSet()

	roots := make([]string, 0, len(results))
	for root := range results {
		roots = append(roots, root)
	}
	sort.Strings(roots)

	for _, root := range roots {
		for _, plugin := range results[root].Plugins {
			if err := r.installPlugin(plugin, managed, report); err != nil {
				return nil, nil, err
			}
		}
	}

	return report, managed, nil
}

func (r *Reconciler) installPlugin(plugin plugins.Plugin, managed *ManagedSet, report *Report) error {
	switch plugin.Format {
	case plugins.FormatVst2:
		return r.installVst2(plugin, managed, report)
	case plugins.FormatVst3:
		return r.installVst3(plugin, managed, report)
	case plugins.FormatClap:
		return r.installClap(plugin, managed, report)
	default:
		return errors.Newf(errors.ErrInternal, "unhandled plugin format %q", plugin.Format)
	}
}

// installVst2 copies the VST2 chainloader either into the centralized home,
// with a symlink back to the Windows plugin next to it, or directly beside
// the plugin when the inline location policy is active.
func (r *Reconciler) installVst2(plugin plugins.Plugin, managed *ManagedSet, report *Report) error {
	var shim string
	if r.config.Vst2Location == config.Vst2Inline {
		shim = plugin.Vst2InlineSo()
	} else {
		shim = plugin.Vst2CentralizedSo(r.paths.Vst2Home())
	}

	if r.conflicts(plugin, shim, managed, report) {
		return nil
	}

	wrote, err := Install(r.fs, r.force, types.MethodCopy, r.files.Vst2Chainloader.Path, r.files.Vst2Chainloader.Hash, shim)
	if err != nil {
		return err
	}
	managed.AddFile(shim)
	r.countWrite(report, shim, wrote)

	if r.config.Vst2Location != config.Vst2Inline {
		link := plugin.Vst2CentralizedDll(r.paths.Vst2Home())
		wrote, err := Install(r.fs, r.force, types.MethodSymlink, plugin.Path, "", link)
		if err != nil {
			return err
		}
		managed.AddFile(link)
		r.countWrite(report, link, wrote)
	}

	report.Installed++
	return nil
}

// installVst3 synthesizes the merged bundle: a chainloader copy under the
// Linux architecture directory, a symlink to the Windows module under the
// Windows architecture directory, and, for source bundles that carry them, a
// Resources symlink and a rewritten moduleinfo.json. The Linux directory
// name follows the chainloader's own bit width while the Windows directory
// name follows the plugin's.
func (r *Reconciler) installVst3(plugin plugins.Plugin, managed *ManagedSet, report *Report) error {
	home := r.paths.Vst3Home()
	bundle := plugin.Vst3MergedBundle(home)
	chainloader := plugin.Vst3ChainloaderSo(home, r.files.Vst3Chainloader.Arch)

	// A 32-bit and a 64-bit build of the same plugin supplied by different
	// roots merge into the same bundle and would fight over this copy
	if r.conflicts(plugin, chainloader, managed, report) {
		return nil
	}

	managed.AddDir(bundle)

	wrote, err := Install(r.fs, r.force, types.MethodCopy, r.files.Vst3Chainloader.Path, r.files.Vst3Chainloader.Hash, chainloader)
	if err != nil {
		return err
	}
	managed.AddFile(chainloader)
	r.countWrite(report, chainloader, wrote)

	link := plugin.Vst3ModuleLink(home)
	wrote, err = Install(r.fs, r.force, types.MethodSymlink, plugin.Path, "", link)
	if err != nil {
		return err
	}
	managed.AddFile(link)
	r.countWrite(report, link, wrote)

	if resources := plugin.SourceResourcesDir(); resources != "" {
		if info, err := r.fs.Stat(resources); err == nil && info.IsDir() {
			target := filepath.Join(bundle, "Contents", "Resources")
			wrote, err := Install(r.fs, r.force, types.MethodSymlink, resources, "", target)
			if err != nil {
				return err
			}
			managed.AddFile(target)
			r.countWrite(report, target, wrote)
		}
	}

	if source := plugin.SourceModuleInfo(); source != "" {
		if _, err := r.fs.Stat(source); err == nil {
			if err := r.installModuleInfo(source, bundle, managed, report); err != nil {
				return err
			}
		}
	}

	report.Installed++
	return nil
}

// installClap copies the CLAP chainloader into the centralized home and
// symlinks the Windows binary next to it under a .clap-win extension, so
// hosts that load every .clap file they see do not try to load the Windows
// binary directly.
func (r *Reconciler) installClap(plugin plugins.Plugin, managed *ManagedSet, report *Report) error {
	home := r.paths.ClapHome()
	shim := plugin.ClapChainloader(home)

	if r.conflicts(plugin, shim, managed, report) {
		return nil
	}

	wrote, err := Install(r.fs, r.force, types.MethodCopy, r.files.ClapChainloader.Path, r.files.ClapChainloader.Hash, shim)
	if err != nil {
		return err
	}
	managed.AddFile(shim)
	r.countWrite(report, shim, wrote)

	link := plugin.ClapWindowsLink(home)
	wrote, err = Install(r.fs, r.force, types.MethodSymlink, plugin.Path, "", link)
	if err != nil {
		return err
	}
	managed.AddFile(link)
	r.countWrite(report, link, wrote)

	report.Installed++
	return nil
}

// installModuleInfo writes a copy of the source bundle's moduleinfo.json
// with every class ID rewritten to this platform's byte order. Rendering is
// deterministic, so when the target already holds the expected bytes the
// write is skipped and the mtime stays put. Malformed files downgrade to a
// warning and the rest of the sync continues.
func (r *Reconciler) installModuleInfo(source, bundle string, managed *ManagedSet, report *Report) error {
	target := filepath.Join(bundle, "Contents", "moduleinfo.json")

	data, err := r.fs.ReadFile(source)
	if err != nil {
		report.Warnings = append(report.Warnings, fmt.Sprintf("could not read '%s', skipping: %v", source, err))
		return nil
	}

	rewritten, err := moduleinfo.Rewrite(data)
	if err != nil {
		report.Warnings = append(report.Warnings, fmt.Sprintf("could not rewrite '%s', skipping: %v", source, err))
		return nil
	}

	info, lstatErr := r.fs.Lstat(target)
	if lstatErr == nil && !r.force && info.Mode().IsRegular() {
		if existing, err := r.fs.ReadFile(target); err == nil && bytes.Equal(existing, rewritten) {
			managed.AddFile(target)
			return nil
		}
	}
	if lstatErr == nil && !info.Mode().IsRegular() {
		if err := r.fs.RemoveAll(target); err != nil {
			return errors.Wrapf(err, errors.ErrInstall, "could not remove '%s'", target)
		}
	}

	if err := r.fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return errors.Wrapf(err, errors.ErrInstall, "could not create directories for '%s'", target)
	}
	if err := r.fs.WriteFile(target, rewritten, 0o644); err != nil {
		return errors.Wrapf(err, errors.ErrInstall, "could not write '%s'", target)
	}

	managed.AddFile(target)
	r.countWrite(report, target, true)

	return nil
}

// conflicts reports whether another plugin already claimed target during
// this run, recording the skip as a warning. The first claimant wins.
func (r *Reconciler) conflicts(plugin plugins.Plugin, target string, managed *ManagedSet, report *Report) bool {
	if !managed.ContainsFile(target) {
		return false
	}

	report.Warnings = append(report.Warnings, fmt.Sprintf(
		"'%s' maps to '%s', which is already taken by another plugin set up during this run, skipping",
		plugin.Path, target))
	return true
}

func (r *Reconciler) countWrite(report *Report, target string, wrote bool) {
	if wrote {
		report.NewFiles++
		r.logger.Debug().Str("target", target).Msg("Wrote bridge artifact")
	}
}

// InstallStatus pairs a discovered plugin with whatever currently occupies
// its primary install target. Installed is nil when the plugin has not been
// bridged yet.
type InstallStatus struct {
	Plugin    plugins.Plugin    `json:"plugin" yaml:"plugin"`
	Installed *types.NativeFile `json:"installed" yaml:"installed"`
}

// Status reports what occupies each plugin's primary install target, in
// discovery order. The primary target is the chainloader artifact: the .so
// shim for VST2, the Linux-side copy inside the merged bundle for VST3, and
// the .clap shim for CLAP.
func (r *Reconciler) Status(result *plugins.SearchResult) []InstallStatus {
	statuses := make([]InstallStatus, 0, len(result.Plugins))
	for _, plugin := range result.Plugins {
		statuses = append(statuses, InstallStatus{
			Plugin:    plugin,
			Installed: r.observeTarget(r.primaryTarget(plugin)),
		})
	}

	return statuses
}

func (r *Reconciler) primaryTarget(plugin plugins.Plugin) string {
	switch plugin.Format {
	case plugins.FormatVst2:
		if r.config.Vst2Location == config.Vst2Inline {
			return plugin.Vst2InlineSo()
		}
		return plugin.Vst2CentralizedSo(r.paths.Vst2Home())
	case plugins.FormatVst3:
		return plugin.Vst3ChainloaderSo(r.paths.Vst3Home(), r.files.Vst3Chainloader.Arch)
	case plugins.FormatClap:
		return plugin.ClapChainloader(r.paths.ClapHome())
	}

	return ""
}

func (r *Reconciler) observeTarget(target string) *types.NativeFile {
	if target == "" {
		return nil
	}
	info, err := r.fs.Lstat(target)
	if err != nil {
		return nil
	}

	kind := types.FileRegular
	switch {
	case info.Mode()&fs.ModeSymlink != 0:
		kind = types.FileSymlink
	case info.IsDir():
		kind = types.FileDirectory
	}

	return &types.NativeFile{Kind: kind, Path: target}
}
