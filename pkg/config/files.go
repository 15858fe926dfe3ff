package config

import (
	"path/filepath"
	"strings"

	"github.com/robbert-vdh/yabridge/pkg/errors"
	"github.com/robbert-vdh/yabridge/pkg/filesystem"
	"github.com/robbert-vdh/yabridge/pkg/logging"
	"github.com/robbert-vdh/yabridge/pkg/paths"
	"github.com/robbert-vdh/yabridge/pkg/symbols"
	"github.com/robbert-vdh/yabridge/pkg/types"
)

// Names of yabridge's own artifacts. The chainloaders are the native shim
// libraries copied into plugin install locations; the host binaries do the
// actual bridging at runtime.
const (
	Vst2ChainloaderName = "libyabridge-chainloader-vst2.so"
	Vst3ChainloaderName = "libyabridge-chainloader-vst3.so"
	ClapChainloaderName = "libyabridge-chainloader-clap.so"
	HostExeName         = "yabridge-host.exe"
	Host32ExeName       = "yabridge-host-32.exe"
)

// systemLibDirs are searched for yabridge's files, in order, before the
// user's XDG data directory.
var systemLibDirs = []string{
	"/usr/lib",
	"/usr/lib32",
	"/usr/lib64",
	"/usr/local/lib",
	"/usr/local/lib32",
	"/usr/local/lib64",
}

// Chainloader is a resolved native shim library
type Chainloader struct {
	Path string `json:"path" yaml:"path"`
	// Hash gates no-op copies during reconciliation
	Hash string `json:"hash" yaml:"hash"`
	// Arch decides the Linux architecture directory inside merged
	// VST3 bundles
	Arch types.LibArchitecture `json:"arch" yaml:"arch"`
}

// YabridgeFiles holds the resolved paths of yabridge's own files. Sync
// cannot start without the chainloaders and the 64-bit host.
type YabridgeFiles struct {
	Vst2Chainloader Chainloader `json:"vst2Chainloader" yaml:"vst2Chainloader"`
	Vst3Chainloader Chainloader `json:"vst3Chainloader" yaml:"vst3Chainloader"`
	ClapChainloader Chainloader `json:"clapChainloader" yaml:"clapChainloader"`

	HostExe     string `json:"hostExe" yaml:"hostExe"`
	HostExeHash string `json:"hostExeHash" yaml:"hostExeHash"`

	// Host32Exe is empty when the 32-bit host is not installed. Bridging
	// 32-bit plugins requires it.
	Host32Exe string `json:"host32Exe,omitempty" yaml:"host32Exe,omitempty"`
}

// ResolveFiles locates yabridge's chainloaders and host binaries. When the
// config pins yabridge_home only that directory is considered; otherwise the
// system library directories and the XDG data directory are searched in
// order, first hit per file.
func ResolveFiles(fsys types.FS, p paths.Paths, cfg *Config) (*YabridgeFiles, error) {
	logger := logging.GetLogger("config")

	var searchDirs []string
	if cfg.YabridgeHome != "" {
		searchDirs = []string{paths.ExpandHome(cfg.YabridgeHome)}
	} else {
		searchDirs = append(searchDirs, systemLibDirs...)
		searchDirs = append(searchDirs, p.DataDir())
	}

	files := &YabridgeFiles{}

	var err error
	if files.Vst2Chainloader, err = resolveChainloader(fsys, searchDirs, Vst2ChainloaderName); err != nil {
		return nil, err
	}
	if files.Vst3Chainloader, err = resolveChainloader(fsys, searchDirs, Vst3ChainloaderName); err != nil {
		return nil, err
	}
	if files.ClapChainloader, err = resolveChainloader(fsys, searchDirs, ClapChainloaderName); err != nil {
		return nil, err
	}

	hostExe, err := findFile(fsys, searchDirs, HostExeName)
	if err != nil {
		return nil, err
	}
	files.HostExe = hostExe
	if files.HostExeHash, err = filesystem.HashFile(fsys, hostExe); err != nil {
		return nil, errors.Wrapf(err, errors.ErrFilesMissing, "failed to read %s", hostExe)
	}

	// The 32-bit host is optional, missing just means no 32-bit bridging
	if host32, err := findFile(fsys, searchDirs, Host32ExeName); err == nil {
		files.Host32Exe = host32
	}

	logger.Debug().
		Str("vst2", files.Vst2Chainloader.Path).
		Str("vst3", files.Vst3Chainloader.Path).
		Str("clap", files.ClapChainloader.Path).
		Str("host", files.HostExe).
		Msg("Resolved yabridge files")

	return files, nil
}

func resolveChainloader(fsys types.FS, dirs []string, name string) (Chainloader, error) {
	path, err := findFile(fsys, dirs, name)
	if err != nil {
		return Chainloader{}, err
	}

	hash, err := filesystem.HashFile(fsys, path)
	if err != nil {
		return Chainloader{}, errors.Wrapf(err, errors.ErrFilesMissing, "failed to read %s", path)
	}

	arch, err := symbols.ElfArchitecture(fsys, path)
	if err != nil {
		return Chainloader{}, errors.Wrapf(err, errors.ErrFilesMissing,
			"%s is not a usable ELF library", path)
	}

	return Chainloader{Path: path, Hash: hash, Arch: arch}, nil
}

func findFile(fsys types.FS, dirs []string, name string) (string, error) {
	for _, dir := range dirs {
		candidate := filepath.Join(dir, name)
		if info, err := fsys.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", errors.Newf(errors.ErrFilesMissing,
		"could not find %s, searched: %s (has yabridge been installed?)",
		name, strings.Join(dirs, ", "))
}
