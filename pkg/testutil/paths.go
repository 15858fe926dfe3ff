package testutil

import (
	"path/filepath"

	"github.com/robbert-vdh/yabridge/pkg/paths"
)

// testPaths roots every yabridgectl directory under one prefix so tests
// never touch the real XDG locations.
type testPaths struct {
	root string
}

// NewPaths returns a paths implementation rooted at root. The layout mirrors
// the real XDG derived one: config/, data/yabridge/, state/, and the three
// plugin homes under home/.
func NewPaths(root string) paths.Paths {
	return &testPaths{root: root}
}

func (p *testPaths) ConfigDir() string  { return filepath.Join(p.root, "config") }
func (p *testPaths) ConfigFile() string { return filepath.Join(p.ConfigDir(), "config.toml") }
func (p *testPaths) DataDir() string    { return filepath.Join(p.root, "data", "yabridge") }
func (p *testPaths) StateDir() string   { return filepath.Join(p.root, "state") }
func (p *testPaths) LogFile() string    { return filepath.Join(p.StateDir(), "yabridgectl.log") }
func (p *testPaths) Vst2Home() string   { return filepath.Join(p.root, "home", ".vst", "yabridge") }
func (p *testPaths) Vst3Home() string   { return filepath.Join(p.root, "home", ".vst3", "yabridge") }
func (p *testPaths) ClapHome() string   { return filepath.Join(p.root, "home", ".clap", "yabridge") }
