// Package config loads and persists yabridgectl's configuration and resolves
// the locations of yabridge's own files.
package config

import (
	"os"
	"sort"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	gotoml "github.com/pelletier/go-toml/v2"

	"github.com/robbert-vdh/yabridge/pkg/errors"
	"github.com/robbert-vdh/yabridge/pkg/logging"
	"github.com/robbert-vdh/yabridge/pkg/paths"
)

// EnvPrefix is the prefix for environment variable overrides, e.g.
// YABRIDGECTL_VST2_LOCATION=inline
const EnvPrefix = "YABRIDGECTL_"

// Vst2Location selects where VST2 shims are installed
type Vst2Location string

const (
	// Vst2Centralized installs VST2 shims under ~/.vst/yabridge with
	// symlinks back to the Windows plugins
	Vst2Centralized Vst2Location = "centralized"
	// Vst2Inline installs VST2 shims next to the Windows plugins
	Vst2Inline Vst2Location = "inline"
)

// KnownConfig caches the environment seen during the last successful sync so
// the slow Wine host probe can be skipped when nothing changed.
type KnownConfig struct {
	WineVersion string `koanf:"wine_version" toml:"wine_version"`
	HostHash    string `koanf:"host_hash" toml:"host_hash"`
}

// Config is yabridgectl's persisted configuration
type Config struct {
	// PluginDirs are the directories scanned for Windows plugins, kept
	// sorted and deduplicated
	PluginDirs []string `koanf:"plugin_dirs" toml:"plugin_dirs"`

	// Vst2Location is the active VST2 installation-location policy
	Vst2Location Vst2Location `koanf:"vst2_location" toml:"vst2_location"`

	// NoVerify skips the login shell and Wine setup checks during sync
	NoVerify bool `koanf:"no_verify" toml:"no_verify"`

	// Blacklist holds canonicalized paths excluded from scans. An entry
	// prunes either a single file or a whole subtree.
	Blacklist []string `koanf:"blacklist" toml:"blacklist"`

	// YabridgeHome optionally pins the directory containing yabridge's
	// chainloaders and host binaries, overriding the search
	YabridgeHome string `koanf:"yabridge_home" toml:"yabridge_home,omitempty"`

	// LastKnownConfig is the environment cache from the last sync
	LastKnownConfig *KnownConfig `koanf:"last_known_config" toml:"last_known_config,omitempty"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"plugin_dirs":   []string{},
		"vst2_location": string(Vst2Centralized),
		"no_verify":     false,
		"blacklist":     []string{},
	}
}

// Load reads the configuration, layering defaults, the config file (when
// present) and YABRIDGECTL_* environment overrides.
func Load(p paths.Paths) (*Config, error) {
	logger := logging.GetLogger("config")

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load default configuration")
	}

	cfgFile := p.ConfigFile()
	if _, err := os.Stat(cfgFile); err == nil {
		if err := k.Load(file.Provider(cfgFile), toml.Parser()); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigLoad, "failed to parse %s", cfgFile)
		}
		logger.Debug().Str("path", cfgFile).Msg("Loaded configuration file")
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load environment overrides")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to decode configuration")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	cfg.PluginDirs = sortedUnique(cfg.PluginDirs)
	cfg.Blacklist = sortedUnique(cfg.Blacklist)

	return &cfg, nil
}

// envTransform maps YABRIDGECTL_PLUGIN_DIRS style variables onto config keys.
// List-valued settings take colon-separated values, PATH style.
func envTransform(key, value string) (string, interface{}) {
	name := strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	switch name {
	case "plugin_dirs", "blacklist":
		if value == "" {
			return name, []string{}
		}
		return name, strings.Split(value, ":")
	case "last_known_config", "config_dir", "data_dir":
		// last_known_config is not overridable; the *_DIR variables belong
		// to the paths layer
		return "", nil
	}
	return name, value
}

func (c *Config) validate() error {
	switch c.Vst2Location {
	case Vst2Centralized, Vst2Inline:
		return nil
	}
	return errors.Newf(errors.ErrConfigInvalid,
		"invalid vst2_location %q, expected %q or %q", c.Vst2Location, Vst2Centralized, Vst2Inline)
}

// Save writes the configuration to disk, creating the config directory when
// needed.
func Save(p paths.Paths, cfg *Config) error {
	data, err := gotoml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, errors.ErrConfigSave, "failed to serialize configuration")
	}

	if err := os.MkdirAll(p.ConfigDir(), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrConfigSave, "failed to create %s", p.ConfigDir())
	}

	if err := os.WriteFile(p.ConfigFile(), data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrConfigSave, "failed to write %s", p.ConfigFile())
	}

	logger := logging.GetLogger("config")
	logger.Debug().Str("path", p.ConfigFile()).Msg("Configuration written")
	return nil
}

// AddPluginDir inserts a canonicalized directory, keeping the list sorted.
// Returns false when the directory was already tracked.
func (c *Config) AddPluginDir(dir string) bool {
	for _, d := range c.PluginDirs {
		if d == dir {
			return false
		}
	}
	c.PluginDirs = append(c.PluginDirs, dir)
	sort.Strings(c.PluginDirs)
	return true
}

// RemovePluginDir removes a directory. Returns false when it was not tracked.
func (c *Config) RemovePluginDir(dir string) bool {
	for i, d := range c.PluginDirs {
		if d == dir {
			c.PluginDirs = append(c.PluginDirs[:i], c.PluginDirs[i+1:]...)
			return true
		}
	}
	return false
}

// AddBlacklist inserts a canonicalized path into the blacklist. Returns
// false when already present.
func (c *Config) AddBlacklist(path string) bool {
	for _, b := range c.Blacklist {
		if b == path {
			return false
		}
	}
	c.Blacklist = append(c.Blacklist, path)
	sort.Strings(c.Blacklist)
	return true
}

// RemoveBlacklist removes a path from the blacklist. Returns false when it
// was not present.
func (c *Config) RemoveBlacklist(path string) bool {
	for i, b := range c.Blacklist {
		if b == path {
			c.Blacklist = append(c.Blacklist[:i], c.Blacklist[i+1:]...)
			return true
		}
	}
	return false
}

// ClearBlacklist removes every blacklist entry, returning how many there were
func (c *Config) ClearBlacklist() int {
	n := len(c.Blacklist)
	c.Blacklist = nil
	return n
}

func sortedUnique(in []string) []string {
	if len(in) == 0 {
		return in
	}
	sort.Strings(in)
	out := in[:1]
	for _, v := range in[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}
