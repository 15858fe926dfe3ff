// Package plugins classifies the files found by the scanner into bridgeable
// Windows plugins and computes where their bridged counterparts live.
package plugins

import (
	"path/filepath"
	"strings"

	"github.com/robbert-vdh/yabridge/pkg/scanner"
	"github.com/robbert-vdh/yabridge/pkg/types"
)

// Format is a plugin API family.
type Format string

const (
	FormatVst2 Format = "VST2"
	FormatVst3 Format = "VST3"
	FormatClap Format = "CLAP"
)

// Entry points that identify a plugin. A library with none of the entry
// points matching its extension is not a plugin and gets skipped.
const (
	vst2MainEntry   = "VSTPluginMain"
	vst2LegacyEntry = "main"
	vst3EntryPoint  = "GetPluginFactory"
	clapEntryPoint  = "clap_entry"
)

// Plugin is a classified Windows plugin.
type Plugin struct {
	Format Format `json:"format" yaml:"format"`
	// Path is the plugin module itself. For VST3 bundles this is the
	// module file inside the bundle, not the bundle directory.
	Path string                `json:"path" yaml:"path"`
	Arch types.LibArchitecture `json:"arch" yaml:"arch"`
	// Subdir mirrors the plugin's location relative to its plugin
	// directory into the install location. For VST3 bundles it is the
	// bundle root's parent, not the module's.
	Subdir string `json:"subdir,omitempty" yaml:"subdir,omitempty"`
	// Bundle is the VST3 bundle root directory when the module lives in
	// one, empty for legacy single-file VST3 modules.
	Bundle string `json:"bundle,omitempty" yaml:"bundle,omitempty"`
}

// newVst3Plugin detects whether a VST3 module sits inside a bundle. A
// bundled module lives at <name>.vst3/Contents/<arch>-win/<name>.vst3, with
// the bundle directory named after the module itself. Rebuilding that path
// from three levels up and comparing it against the real one checks the
// whole structure at once, including the matching names.
func newVst3Plugin(c scanner.Candidate, arch types.LibArchitecture) Plugin {
	p := Plugin{Format: FormatVst3, Path: c.Path, Arch: arch, Subdir: c.Subdir}

	root := filepath.Dir(filepath.Dir(filepath.Dir(c.Path)))
	name := filepath.Base(c.Path)
	expected := filepath.Join(filepath.Dir(root), name, "Contents", arch.WindowsArchDir(), name)
	if expected == c.Path {
		p.Bundle = root
		p.Subdir = stripBundleComponents(c.Subdir)
	}
	return p
}

// stripBundleComponents drops the <bundle>.vst3/Contents/<arch>-win tail
// from a module's subdirectory, leaving the bundle root's parent.
func stripBundleComponents(subdir string) string {
	s := filepath.Dir(filepath.Dir(filepath.Dir(subdir)))
	if s == "." {
		return ""
	}
	return s
}

// Stem returns the module's file name without its extension.
func (p Plugin) Stem() string {
	base := filepath.Base(p.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// IsBundle reports whether this is a VST3 module inside a bundle.
func (p Plugin) IsBundle() bool {
	return p.Bundle != ""
}

// Vst2CentralizedSo is where the chainloader copy for this VST2 plugin goes
// in centralized mode.
func (p Plugin) Vst2CentralizedSo(home string) string {
	return filepath.Join(home, p.Subdir, p.Stem()+".so")
}

// Vst2CentralizedDll is the symlink back to the Windows plugin that sits
// next to the centralized chainloader copy, so the chainloader can locate
// the module it bridges.
func (p Plugin) Vst2CentralizedDll(home string) string {
	return filepath.Join(home, p.Subdir, p.Stem()+".dll")
}

// Vst2InlineSo is where the chainloader copy goes in inline mode, right next
// to the Windows plugin.
func (p Plugin) Vst2InlineSo() string {
	return filepath.Join(filepath.Dir(p.Path), p.Stem()+".so")
}

// MergedBundleName is the name of the merged VST3 bundle directory.
func (p Plugin) MergedBundleName() string {
	if p.IsBundle() {
		return filepath.Base(p.Bundle)
	}
	return filepath.Base(p.Path)
}

// Vst3MergedBundle is the root of the merged bundle built for this VST3
// plugin inside the centralized VST3 location.
func (p Plugin) Vst3MergedBundle(home string) string {
	return filepath.Join(home, p.Subdir, p.MergedBundleName())
}

// Vst3ChainloaderSo is the chainloader copy inside the merged bundle. Its
// architecture directory follows the chainloader's own ELF architecture, not
// the Windows plugin's.
func (p Plugin) Vst3ChainloaderSo(home string, chainloaderArch types.LibArchitecture) string {
	return filepath.Join(p.Vst3MergedBundle(home), "Contents", chainloaderArch.LinuxArchDir(), p.Stem()+".so")
}

// Vst3ModuleLink is the symlink inside the merged bundle pointing back at
// the Windows module, placed in the Windows architecture directory matching
// the plugin.
func (p Plugin) Vst3ModuleLink(home string) string {
	return filepath.Join(p.Vst3MergedBundle(home), "Contents", p.Arch.WindowsArchDir(), filepath.Base(p.Path))
}

// SourceResourcesDir is the original bundle's resources directory, empty for
// modules outside bundles.
func (p Plugin) SourceResourcesDir() string {
	if !p.IsBundle() {
		return ""
	}
	return filepath.Join(p.Bundle, "Contents", "Resources")
}

// SourceModuleInfo is the original bundle's moduleinfo.json, empty for
// modules outside bundles.
func (p Plugin) SourceModuleInfo() string {
	if !p.IsBundle() {
		return ""
	}
	return filepath.Join(p.Bundle, "Contents", "moduleinfo.json")
}

// ClapChainloader is where the chainloader copy for this CLAP plugin goes.
func (p Plugin) ClapChainloader(home string) string {
	return filepath.Join(home, p.Subdir, p.Stem()+".clap")
}

// ClapWindowsLink is the symlink back to the Windows CLAP plugin, named
// after the plugin with a -win suffix so hosts don't try to load it
// directly.
func (p Plugin) ClapWindowsLink(home string) string {
	return filepath.Join(home, p.Subdir, p.Stem()+".clap-win")
}
