// Package paths resolves every directory yabridgectl reads or writes: the
// XDG config and data homes, the log location, and the per-format plugin
// install directories under HOME.
package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/robbert-vdh/yabridge/pkg/errors"
)

// Environment variable names
const (
	// EnvConfigDir overrides the XDG config directory for yabridgectl
	EnvConfigDir = "YABRIDGECTL_CONFIG_DIR"

	// EnvDataDir overrides the XDG data directory where yabridge's own
	// libraries are installed by the user
	EnvDataDir = "YABRIDGECTL_DATA_DIR"

	// EnvHome is the standard home directory variable
	EnvHome = "HOME"
)

// Directory and file names. These are part of yabridge's on-disk contract
// and are not user-configurable.
const (
	// CtlDirName is the config directory name for yabridgectl
	CtlDirName = "yabridgectl"

	// YabridgeDirName is the data directory name shared with yabridge itself
	YabridgeDirName = "yabridge"

	// ConfigFileName is the name of the configuration file
	ConfigFileName = "config.toml"

	// LogFileName is the name of the log file
	LogFileName = "yabridgectl.log"

	// Vst2HomeDir is the centralized VST2 install location, relative to HOME
	Vst2HomeDir = ".vst/yabridge"

	// Vst3HomeDir is the merged VST3 bundle install location, relative to HOME
	Vst3HomeDir = ".vst3/yabridge"

	// ClapHomeDir is the CLAP install location, relative to HOME
	ClapHomeDir = ".clap/yabridge"
)

// Paths provides centralized path management for yabridgectl
type Paths interface {
	ConfigDir() string
	ConfigFile() string
	DataDir() string
	StateDir() string
	LogFile() string
	Vst2Home() string
	Vst3Home() string
	ClapHome() string
}

type paths struct {
	home      string
	xdgConfig string
	xdgData   string
	xdgState  string
}

// New creates a new Paths instance. Environment overrides take precedence
// over the XDG defaults.
func New() (Paths, error) {
	home, err := GetHomeDirectory()
	if err != nil {
		return nil, err
	}

	p := &paths{home: home}

	if configDir := os.Getenv(EnvConfigDir); configDir != "" {
		p.xdgConfig = expandHome(configDir)
	} else {
		p.xdgConfig = filepath.Join(xdg.ConfigHome, CtlDirName)
	}

	if dataDir := os.Getenv(EnvDataDir); dataDir != "" {
		p.xdgData = expandHome(dataDir)
	} else {
		p.xdgData = filepath.Join(xdg.DataHome, YabridgeDirName)
	}

	// XDG_STATE_HOME is read directly, adrg/xdg caches it at init
	if stateDir := os.Getenv("XDG_STATE_HOME"); stateDir != "" {
		p.xdgState = filepath.Join(stateDir, CtlDirName)
	} else {
		p.xdgState = filepath.Join(home, ".local", "state", CtlDirName)
	}

	return p, nil
}

// ConfigDir returns the XDG config directory for yabridgectl
func (p *paths) ConfigDir() string {
	return p.xdgConfig
}

// ConfigFile returns the path to config.toml
func (p *paths) ConfigFile() string {
	return filepath.Join(p.xdgConfig, ConfigFileName)
}

// DataDir returns the XDG data directory where user installations of
// yabridge's libraries live
func (p *paths) DataDir() string {
	return p.xdgData
}

// StateDir returns the XDG state directory
func (p *paths) StateDir() string {
	return p.xdgState
}

// LogFile returns the path to the log file
func (p *paths) LogFile() string {
	return filepath.Join(p.xdgState, LogFileName)
}

// Vst2Home returns the centralized VST2 install location
func (p *paths) Vst2Home() string {
	return filepath.Join(p.home, Vst2HomeDir)
}

// Vst3Home returns the merged VST3 bundle install location
func (p *paths) Vst3Home() string {
	return filepath.Join(p.home, Vst3HomeDir)
}

// ClapHome returns the CLAP install location
func (p *paths) ClapHome() string {
	return filepath.Join(p.home, ClapHomeDir)
}

// GetHomeDirectory returns the user's home directory, trying $HOME when
// os.UserHomeDir fails
func GetHomeDirectory() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		if home := os.Getenv(EnvHome); home != "" {
			return home, nil
		}
		return "", errors.Wrapf(err, errors.ErrFileAccess, "failed to get home directory")
	}
	return homeDir, nil
}

// expandHome expands ~ to the home directory
func expandHome(path string) string {
	if path == "" {
		return path
	}

	if path[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			homeDir = os.Getenv(EnvHome)
			if homeDir == "" {
				return path
			}
		}

		if len(path) == 1 {
			return homeDir
		}

		if path[1] == '/' || path[1] == filepath.Separator {
			return filepath.Join(homeDir, path[2:])
		}

		// ~something refers to another user's home, leave untouched
		return path
	}

	return path
}

// ExpandHome expands ~ in paths, exposed for the config layer
func ExpandHome(path string) string {
	return expandHome(path)
}
