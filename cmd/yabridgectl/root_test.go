package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robbert-vdh/yabridge/pkg/paths"
)

// setupHome points every directory yabridgectl touches at a fresh temp root
// so the tests never see the real config or plugin homes.
func setupHome(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	home := filepath.Join(root, "home")
	require.NoError(t, os.MkdirAll(home, 0o755))

	t.Setenv("HOME", home)
	t.Setenv("XDG_STATE_HOME", filepath.Join(root, "state"))
	t.Setenv(paths.EnvConfigDir, filepath.Join(root, "config"))
	t.Setenv(paths.EnvDataDir, filepath.Join(root, "data"))

	return root
}

// runCommand executes the CLI with args and captures everything written to
// stdout. The command constructors print through os.Stdout directly, so the
// whole descriptor gets swapped for a pipe.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	rootCmd := NewRootCmd()
	rootCmd.SetArgs(args)
	execErr := rootCmd.Execute()

	require.NoError(t, w.Close())
	os.Stdout = old

	var buf bytes.Buffer
	_, err = buf.ReadFrom(r)
	require.NoError(t, err)

	return buf.String(), execErr
}

func TestRootCmdStructure(t *testing.T) {
	rootCmd := NewRootCmd()

	assert.Equal(t, "yabridgectl", rootCmd.Name())
	assert.NotEmpty(t, rootCmd.Version)
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("verbose"))

	for _, name := range []string{
		"add", "rm", "list", "status", "sync", "set", "blacklist",
		"docs", "version", "completion", "help",
	} {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}

	for _, name := range []string{"add", "rm", "list", "clear"} {
		cmd, _, err := rootCmd.Find([]string{"blacklist", name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestNoCommandShowsHelp(t *testing.T) {
	setupHome(t)

	out, err := runCommand(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "subcommand is required")

	// Output is not a terminal, so the section headers come out unstyled
	assert.Contains(t, out, "USAGE:")
	assert.Contains(t, out, "COMMANDS:")
	assert.Contains(t, out, "sync")
}

func TestHelpTopics(t *testing.T) {
	setupHome(t)

	out, err := runCommand(t, "docs")
	require.NoError(t, err)
	assert.Contains(t, out, "Available help topics")
	assert.Contains(t, out, "search-paths")
	assert.Contains(t, out, "wine")
	assert.Contains(t, out, "--prune")

	// Without a terminal the markdown passes through unrendered
	out, err = runCommand(t, "docs", "wine")
	require.NoError(t, err)
	assert.Contains(t, out, "login shell")

	// Topics also resolve through 'help', including flag spellings
	out, err = runCommand(t, "help", "--", "--prune")
	require.NoError(t, err)
	assert.Contains(t, out, "leftover")
}

func TestVersionCommand(t *testing.T) {
	setupHome(t)

	out, err := runCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "yabridgectl version")
}

func TestCompletion(t *testing.T) {
	setupHome(t)

	out, err := runCommand(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "yabridgectl")

	_, err = runCommand(t, "completion", "ruby")
	require.Error(t, err)
}
