package commands_test

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robbert-vdh/yabridge/pkg/commands"
	"github.com/robbert-vdh/yabridge/pkg/config"
	"github.com/robbert-vdh/yabridge/pkg/errors"
	"github.com/robbert-vdh/yabridge/pkg/filesystem"
	"github.com/robbert-vdh/yabridge/pkg/testutil"
	"github.com/robbert-vdh/yabridge/pkg/types"
	"github.com/robbert-vdh/yabridge/pkg/verify"
)

// failRunner simulates a system without winedump. The fixture binaries parse
// structurally, so classification never needs the fallback.
type failRunner struct{}

func (failRunner) Run(name string, args ...string) ([]byte, error) {
	return nil, fmt.Errorf("winedump not installed")
}

// fakeVerifyRunner scripts one result per binary path and records every
// invocation. Unscripted binaries succeed with no output.
type fakeVerifyRunner struct {
	results map[string]verify.Result
	calls   []verify.Command
}

func (f *fakeVerifyRunner) Run(cmd verify.Command) verify.Result {
	f.calls = append(f.calls, cmd)
	if result, ok := f.results[cmd.Path]; ok {
		return result
	}
	return verify.Result{}
}

// newEnv builds a command environment against a memory filesystem with
// yabridge installed under /usr/lib. The config file lands in a per-test
// temporary directory.
func newEnv(t *testing.T) (*commands.Env, *fakeVerifyRunner) {
	t.Helper()

	fsys := filesystem.NewMemory()
	testutil.InstallYabridge(t, fsys, "/usr/lib", true)

	runner := &fakeVerifyRunner{results: map[string]verify.Result{}}
	env := &commands.Env{
		FS:           fsys,
		Paths:        testutil.NewPaths(t.TempDir()),
		Config:       &config.Config{Vst2Location: config.Vst2Centralized},
		SymbolRunner: failRunner{},
		VerifyRunner: runner,
	}
	return env, runner
}

// reload reads the persisted config back, proving a command saved its
// changes.
func reload(t *testing.T, env *commands.Env) *config.Config {
	t.Helper()

	cfg, err := config.Load(env.Paths)
	require.NoError(t, err)
	return cfg
}

func TestAddDirectory(t *testing.T) {
	env, _ := newEnv(t)
	require.NoError(t, env.FS.MkdirAll("/plugins", 0o755))

	result, err := commands.AddDirectory(env, "/plugins")
	require.NoError(t, err)
	assert.True(t, result.Added)
	assert.Equal(t, "/plugins", result.Path)
	assert.Equal(t, []string{"/plugins"}, reload(t, env).PluginDirs)

	// Adding the same directory again is a reported no-op
	result, err = commands.AddDirectory(env, "/plugins")
	require.NoError(t, err)
	assert.False(t, result.Added)
	assert.Equal(t, []string{"/plugins"}, env.Config.PluginDirs)
}

func TestAddDirectoryRejectsMissingPath(t *testing.T) {
	env, _ := newEnv(t)

	_, err := commands.AddDirectory(env, "/does/not/exist")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestAddDirectoryRejectsFiles(t *testing.T) {
	env, _ := newEnv(t)
	require.NoError(t, env.FS.WriteFile("/plugins", []byte("not a directory"), 0o644))

	_, err := commands.AddDirectory(env, "/plugins")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestAddDirectoryCanonicalizesSymlinks(t *testing.T) {
	env, _ := newEnv(t)
	require.NoError(t, env.FS.MkdirAll("/data/plugins", 0o755))
	require.NoError(t, env.FS.Symlink("/data/plugins", "/plugins"))

	result, err := commands.AddDirectory(env, "/plugins")
	require.NoError(t, err)
	assert.Equal(t, "/data/plugins", result.Path)

	// The symlinked spelling resolves to the already tracked directory
	result, err = commands.AddDirectory(env, "/data/plugins")
	require.NoError(t, err)
	assert.False(t, result.Added)
}

func TestRemoveDirectory(t *testing.T) {
	env, _ := newEnv(t)
	require.NoError(t, env.FS.MkdirAll("/plugins", 0o755))
	_, err := commands.AddDirectory(env, "/plugins")
	require.NoError(t, err)

	result, err := commands.RemoveDirectory(env, "/plugins")
	require.NoError(t, err)
	assert.Equal(t, "/plugins", result.Path)
	assert.Empty(t, result.LeftoverShims)
	assert.Empty(t, reload(t, env).PluginDirs)
}

func TestRemoveDirectoryRejectsUntracked(t *testing.T) {
	env, _ := newEnv(t)
	require.NoError(t, env.FS.MkdirAll("/plugins", 0o755))

	_, err := commands.RemoveDirectory(env, "/plugins")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestRemoveDirectoryReportsLeftoverShims(t *testing.T) {
	env, _ := newEnv(t)
	env.Config.Vst2Location = config.Vst2Inline
	testutil.WriteVst2Plugin(t, env.FS, "/plugins/Comp.dll", types.Lib64)
	require.NoError(t, env.FS.WriteFile("/plugins/Comp.so", []byte("shim"), 0o755))
	require.NoError(t, env.FS.WriteFile("/plugins/old/Gone.so", []byte("shim"), 0o755))
	_, err := commands.AddDirectory(env, "/plugins")
	require.NoError(t, err)

	result, err := commands.RemoveDirectory(env, "/plugins")
	require.NoError(t, err)
	assert.Equal(t, []string{"/plugins/Comp.so", "/plugins/old/Gone.so"}, result.LeftoverShims)

	removed, err := commands.DeleteLeftovers(env, result.LeftoverShims)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	_, err = env.FS.Lstat("/plugins/Comp.so")
	assert.Error(t, err)
}

func TestListDirectories(t *testing.T) {
	env, _ := newEnv(t)
	for _, dir := range []string{"/b", "/a"} {
		require.NoError(t, env.FS.MkdirAll(dir, 0o755))
		_, err := commands.AddDirectory(env, dir)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"/a", "/b"}, commands.ListDirectories(env))
}

func TestBlacklistAdd(t *testing.T) {
	env, _ := newEnv(t)
	require.NoError(t, env.FS.WriteFile("/plugins/licenser.dll", []byte("x"), 0o644))

	result, err := commands.BlacklistAdd(env, "/plugins/licenser.dll")
	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.True(t, result.Exists)
	assert.Equal(t, []string{"/plugins/licenser.dll"}, reload(t, env).Blacklist)

	result, err = commands.BlacklistAdd(env, "/plugins/licenser.dll")
	require.NoError(t, err)
	assert.False(t, result.Changed)
}

// Blacklisting a path that does not exist yet is allowed, the entry simply
// has no effect until something shows up there.
func TestBlacklistAddMissingPath(t *testing.T) {
	env, _ := newEnv(t)

	result, err := commands.BlacklistAdd(env, "/plugins/future.dll")
	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.False(t, result.Exists)
	assert.Equal(t, []string{"/plugins/future.dll"}, env.Config.Blacklist)
}

func TestBlacklistRemove(t *testing.T) {
	env, _ := newEnv(t)
	require.NoError(t, env.FS.WriteFile("/plugins/licenser.dll", []byte("x"), 0o644))
	_, err := commands.BlacklistAdd(env, "/plugins/licenser.dll")
	require.NoError(t, err)

	result, err := commands.BlacklistRemove(env, "/plugins/licenser.dll")
	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.Empty(t, reload(t, env).Blacklist)
}

func TestBlacklistRemoveRejectsAbsentEntries(t *testing.T) {
	env, _ := newEnv(t)

	_, err := commands.BlacklistRemove(env, "/plugins/licenser.dll")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestBlacklistListAndClear(t *testing.T) {
	env, _ := newEnv(t)
	for _, path := range []string{"/b.dll", "/a.dll"} {
		_, err := commands.BlacklistAdd(env, path)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"/a.dll", "/b.dll"}, commands.BlacklistList(env))

	cleared, err := commands.BlacklistClear(env)
	require.NoError(t, err)
	assert.Equal(t, 2, cleared)
	assert.Empty(t, commands.BlacklistList(env))
	assert.Empty(t, reload(t, env).Blacklist)
}

func TestSetPath(t *testing.T) {
	env, _ := newEnv(t)
	require.NoError(t, env.FS.MkdirAll("/opt/yabridge", 0o755))

	path := "/opt/yabridge"
	result, err := commands.Set(env, commands.SetOptions{Path: &path})
	require.NoError(t, err)
	assert.Equal(t, []string{"yabridge_home"}, result.Changed)
	assert.Equal(t, "/opt/yabridge", reload(t, env).YabridgeHome)
}

func TestSetPathRejectsMissingDirectory(t *testing.T) {
	env, _ := newEnv(t)

	path := "/opt/yabridge"
	_, err := commands.Set(env, commands.SetOptions{Path: &path})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestSetPathAuto(t *testing.T) {
	env, _ := newEnv(t)
	env.Config.YabridgeHome = "/opt/yabridge"

	result, err := commands.Set(env, commands.SetOptions{PathAuto: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"yabridge_home"}, result.Changed)
	assert.Empty(t, reload(t, env).YabridgeHome)
}

func TestSetPathAndPathAutoConflict(t *testing.T) {
	env, _ := newEnv(t)
	require.NoError(t, env.FS.MkdirAll("/opt/yabridge", 0o755))

	path := "/opt/yabridge"
	_, err := commands.Set(env, commands.SetOptions{Path: &path, PathAuto: true})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestSetVst2Location(t *testing.T) {
	env, _ := newEnv(t)

	location := "inline"
	result, err := commands.Set(env, commands.SetOptions{Vst2Location: &location})
	require.NoError(t, err)
	assert.Equal(t, []string{"vst2_location"}, result.Changed)
	assert.Equal(t, config.Vst2Inline, reload(t, env).Vst2Location)

	location = "sideways"
	_, err = commands.Set(env, commands.SetOptions{Vst2Location: &location})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestSetNoVerify(t *testing.T) {
	env, _ := newEnv(t)

	noVerify := true
	result, err := commands.Set(env, commands.SetOptions{NoVerify: &noVerify})
	require.NoError(t, err)
	assert.Equal(t, []string{"no_verify"}, result.Changed)
	assert.True(t, reload(t, env).NoVerify)
}

func TestSetRequiresAtLeastOneSetting(t *testing.T) {
	env, _ := newEnv(t)

	_, err := commands.Set(env, commands.SetOptions{})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestStatusListsPlugins(t *testing.T) {
	env, _ := newEnv(t)
	testutil.WriteVst2Plugin(t, env.FS, "/plugins/Comp.dll", types.Lib64)
	testutil.WriteNonPluginDll(t, env.FS, "/plugins/support.dll")
	env.Config.PluginDirs = []string{"/plugins"}

	result, err := commands.Status(env)
	require.NoError(t, err)
	assert.Empty(t, result.FilesError)
	require.NotNil(t, result.Files)
	assert.Equal(t, config.Vst2Centralized, result.Vst2Location)

	require.Len(t, result.Roots, 1)
	root := result.Roots[0]
	assert.Equal(t, "/plugins", root.Root)
	require.Len(t, root.Plugins, 1)
	assert.Equal(t, "/plugins/Comp.dll", root.Plugins[0].Plugin.Path)
	assert.Nil(t, root.Plugins[0].Installed)
	assert.Equal(t, []string{"/plugins/support.dll"}, root.Skipped)

	_, err = commands.Sync(env, commands.SyncOptions{NoVerify: true})
	require.NoError(t, err)

	result, err = commands.Status(env)
	require.NoError(t, err)
	require.NotNil(t, result.Roots[0].Plugins[0].Installed)
	assert.Equal(t, types.FileRegular, result.Roots[0].Plugins[0].Installed.Kind)
}

// Status keeps working without yabridge installed so users can inspect their
// setup before installing it.
func TestStatusWithoutYabridgeFiles(t *testing.T) {
	env, _ := newEnv(t)
	env.FS = filesystem.NewMemory()
	testutil.WriteVst2Plugin(t, env.FS, "/plugins/Comp.dll", types.Lib64)
	env.Config.PluginDirs = []string{"/plugins"}

	result, err := commands.Status(env)
	require.NoError(t, err)
	assert.Nil(t, result.Files)
	assert.Contains(t, result.FilesError, "yabridge")
	require.Len(t, result.Roots, 1)
	require.Len(t, result.Roots[0].Plugins, 1)
	assert.Nil(t, result.Roots[0].Plugins[0].Installed)
}

func TestSyncEndToEnd(t *testing.T) {
	env, _ := newEnv(t)
	testutil.WriteVst2Plugin(t, env.FS, "/plugins/effects/Comp.dll", types.Lib64)
	testutil.WriteVst3Bundle(t, env.FS, "/plugins/Surge XT.vst3", types.Lib64)
	testutil.WriteClapPlugin(t, env.FS, "/plugins/Nova.clap", types.Lib64)
	testutil.WriteNonPluginDll(t, env.FS, "/plugins/support.dll")
	env.Config.PluginDirs = []string{"/plugins"}

	result, err := commands.Sync(env, commands.SyncOptions{NoVerify: true})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Installed)
	assert.Equal(t, 6, result.NewFiles)
	assert.Equal(t, []string{"/plugins/support.dll"}, result.SkippedFiles)
	assert.Empty(t, result.Orphans)
	assert.Empty(t, result.Warnings)

	shim := filepath.Join(env.Paths.Vst2Home(), "effects", "Comp.so")
	info, err := env.FS.Lstat(shim)
	require.NoError(t, err)
	assert.True(t, info.Mode().IsRegular())

	// A second run verifies everything in place without rewriting
	result, err = commands.Sync(env, commands.SyncOptions{NoVerify: true})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Installed)
	assert.Equal(t, 0, result.NewFiles)
}

func TestSyncPrunesOrphans(t *testing.T) {
	env, _ := newEnv(t)
	testutil.WriteClapPlugin(t, env.FS, "/plugins/Nova.clap", types.Lib64)
	env.Config.PluginDirs = []string{"/plugins"}

	_, err := commands.Sync(env, commands.SyncOptions{NoVerify: true})
	require.NoError(t, err)

	// The plugin goes away, its artifacts become orphans
	require.NoError(t, env.FS.Remove("/plugins/Nova.clap"))

	result, err := commands.Sync(env, commands.SyncOptions{NoVerify: true})
	require.NoError(t, err)
	shim := filepath.Join(env.Paths.ClapHome(), "Nova.clap")
	link := filepath.Join(env.Paths.ClapHome(), "Nova.clap-win")
	assert.Equal(t, []string{shim, link}, result.Orphans)
	assert.Equal(t, 0, result.OrphansRemoved)

	result, err = commands.Sync(env, commands.SyncOptions{NoVerify: true, Prune: true})
	require.NoError(t, err)
	assert.Equal(t, 2, result.OrphansRemoved)
	_, err = env.FS.Lstat(shim)
	assert.Error(t, err)
	_, err = env.FS.Lstat(link)
	assert.Error(t, err)
}

func TestSyncFailsWithoutYabridge(t *testing.T) {
	env, _ := newEnv(t)
	env.FS = filesystem.NewMemory()
	testutil.WriteVst2Plugin(t, env.FS, "/plugins/Comp.dll", types.Lib64)
	env.Config.PluginDirs = []string{"/plugins"}

	_, err := commands.Sync(env, commands.SyncOptions{NoVerify: true})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrFilesMissing))
}

func TestSyncWarnsAbout32BitPluginsWithoutHost(t *testing.T) {
	env, _ := newEnv(t)
	env.FS = filesystem.NewMemory()
	testutil.InstallYabridge(t, env.FS, "/usr/lib", false)
	testutil.WriteVst2Plugin(t, env.FS, "/plugins/Retro.dll", types.Lib32)
	env.Config.PluginDirs = []string{"/plugins"}

	result, err := commands.Sync(env, commands.SyncOptions{NoVerify: true})
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], config.Host32ExeName)
}

func TestSyncSkipsVerificationWhenConfigured(t *testing.T) {
	env, runner := newEnv(t)
	env.Config.NoVerify = true
	require.NoError(t, env.FS.MkdirAll("/plugins", 0o755))
	env.Config.PluginDirs = []string{"/plugins"}

	_, err := commands.Sync(env, commands.SyncOptions{})
	require.NoError(t, err)
	assert.Empty(t, runner.calls)
}

func TestSyncRunsVerification(t *testing.T) {
	env, runner := newEnv(t)
	t.Setenv("SHELL", "/bin/bash")
	t.Setenv("HOME", "/home/user")
	t.Setenv("WINELOADER", "")
	runner.results["wine"] = verify.Result{Stdout: "wine-9.0\n"}
	runner.results["/usr/lib/yabridge-host.exe"] = verify.Result{
		Stderr: "Usage: yabridge-host.exe [options]\n",
	}
	require.NoError(t, env.FS.MkdirAll("/plugins", 0o755))
	env.Config.PluginDirs = []string{"/plugins"}

	result, err := commands.Sync(env, commands.SyncOptions{})
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)

	// Login shell, wine --version and the host probe
	assert.Len(t, runner.calls, 3)
	require.NotNil(t, env.Config.LastKnownConfig)
	assert.Equal(t, "wine-9.0", env.Config.LastKnownConfig.WineVersion)
}

// Verification failures surface after the sync work already happened, so the
// result must still carry the counters for the CLI to render.
func TestSyncReturnsResultWhenVerificationFails(t *testing.T) {
	env, runner := newEnv(t)
	t.Setenv("SHELL", "/bin/bash")
	t.Setenv("HOME", "/home/user")
	t.Setenv("WINELOADER", "")
	runner.results["wine"] = verify.Result{
		ExitCode: -1,
		Err:      fmt.Errorf("no such file or directory"),
	}
	testutil.WriteVst2Plugin(t, env.FS, "/plugins/Comp.dll", types.Lib64)
	env.Config.PluginDirs = []string{"/plugins"}

	result, err := commands.Sync(env, commands.SyncOptions{})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrVerify))
	require.NotNil(t, result)
	assert.Equal(t, 1, result.Installed)
}
