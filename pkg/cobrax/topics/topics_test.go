package topics

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadIndex(t *testing.T) {
	fsys := fstest.MapFS{
		"dry-run.txt":     {Data: []byte("Information about dry-run mode")},
		"architecture.md": {Data: []byte("# Architecture\n\nSystem architecture details")},
		"config.txxt":     {Data: []byte("Configuration Guide\n==================")},
		"ignore.json":     {Data: []byte("This should be ignored")},
	}

	t.Run("default extensions", func(t *testing.T) {
		ix, err := loadIndex(fsys, Options{})
		require.NoError(t, err)

		tests := []struct {
			name    string
			exists  bool
			content string
		}{
			{"dry-run", true, "Information about dry-run mode"},
			{"architecture", true, "# Architecture\n\nSystem architecture details"},
			{"config", false, ""}, // .txxt is not a default extension
			{"ignore", false, ""},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				topic, exists := ix.lookup(tt.name)
				assert.Equal(t, tt.exists, exists)
				if exists {
					assert.Equal(t, tt.content, topic.Content)
				}
			})
		}
	})

	t.Run("custom extensions", func(t *testing.T) {
		ix, err := loadIndex(fsys, Options{Extensions: []string{".txt", ".md", ".txxt"}})
		require.NoError(t, err)

		topic, exists := ix.lookup("config")
		require.True(t, exists)
		assert.Equal(t, "Configuration Guide\n==================", topic.Content)
	})

	t.Run("subdirectories are flattened", func(t *testing.T) {
		nested := fstest.MapFS{
			"advanced/bitbridge.txt": {Data: []byte("32-bit plugin help")},
		}

		ix, err := loadIndex(nested, Options{})
		require.NoError(t, err)

		topic, exists := ix.lookup("bitbridge")
		require.True(t, exists)
		assert.Equal(t, "32-bit plugin help", topic.Content)
	})
}

func TestLookupFlagSpellings(t *testing.T) {
	fsys := fstest.MapFS{
		"option-prune.txt":   {Data: []byte("Prune help")},
		"option-verbose.txt": {Data: []byte("Verbose help")},
		"architecture.txt":   {Data: []byte("Architecture help")},
	}

	ix, err := loadIndex(fsys, Options{})
	require.NoError(t, err)

	tests := []struct {
		input  string
		want   string
		exists bool
	}{
		{"architecture", "architecture", true},
		{"option-prune", "option-prune", true},
		// Bare and flag spellings resolve the option- prefixed files
		{"prune", "option-prune", true},
		{"--prune", "option-prune", true},
		{"-prune", "option-prune", true},
		{"verbose", "option-verbose", true},
		{"--verbose", "option-verbose", true},
		{"-v", "", false}, // short flags have no matching file
		{"nonexistent", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			topic, exists := ix.lookup(tt.input)
			assert.Equal(t, tt.exists, exists)
			if exists {
				assert.Equal(t, tt.want, topic.Name)
			}
		})
	}
}

func TestFormatList(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		ix, err := loadIndex(fstest.MapFS{}, Options{})
		require.NoError(t, err)
		assert.Equal(t, "No help topics available.\n", ix.formatList("testapp"))
	})

	t.Run("general and option topics", func(t *testing.T) {
		fsys := fstest.MapFS{
			"wine.txt":         {Data: []byte("a")},
			"bitbridge.txt":    {Data: []byte("b")},
			"option-prune.txt": {Data: []byte("c")},
		}
		ix, err := loadIndex(fsys, Options{})
		require.NoError(t, err)

		list := ix.formatList("testapp")
		assert.Contains(t, list, "General topics:")
		assert.Contains(t, list, "  bitbridge\n")
		assert.Contains(t, list, "  wine\n")
		assert.Contains(t, list, "Option topics:")
		assert.Contains(t, list, "  --prune\n")
		assert.Contains(t, list, "'testapp help <topic>'")
	})
}

func TestInitializeFS(t *testing.T) {
	fsys := fstest.MapFS{
		"test-topic.txt": {Data: []byte("Test topic content")},
	}

	rootCmd := &cobra.Command{
		Use:   "testapp",
		Short: "Test application",
	}
	rootCmd.AddCommand(&cobra.Command{
		Use:   "sync",
		Short: "Set up plugins",
		Run:   func(cmd *cobra.Command, args []string) {},
	})

	require.NoError(t, InitializeFS(rootCmd, fsys, Options{}))

	helpCmd, _, err := rootCmd.Find([]string{"help"})
	require.NoError(t, err)
	assert.Equal(t, "help", helpCmd.Name())
	assert.Equal(t, "help [command or topic]", helpCmd.Use)

	t.Run("topic", func(t *testing.T) {
		out := captureStdout(t, func() {
			rootCmd.SetArgs([]string{"help", "test-topic"})
			require.NoError(t, rootCmd.Execute())
		})
		assert.Contains(t, out, "Test topic content")
	})

	t.Run("command", func(t *testing.T) {
		out := captureStdout(t, func() {
			rootCmd.SetArgs([]string{"help", "sync"})
			require.NoError(t, rootCmd.Execute())
		})
		assert.Contains(t, out, "Set up plugins")
	})
}

func TestInitializeFSMissingRoot(t *testing.T) {
	rootCmd := &cobra.Command{Use: "testapp"}

	// A missing topics directory is not an error, there are just no topics
	require.NoError(t, InitializeFS(rootCmd, os.DirFS("/nonexistent/directory"), Options{}))
}

func TestInitializeFSFromDisk(t *testing.T) {
	topicsDir := filepath.Join(t.TempDir(), "help")
	require.NoError(t, os.MkdirAll(topicsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(topicsDir, "wine.txt"), []byte("WINE SETUP\nHow the Wine prefix is probed."), 0o644))

	rootCmd := &cobra.Command{
		Use:   "testapp",
		Short: "Test application",
	}
	require.NoError(t, InitializeFS(rootCmd, os.DirFS(topicsDir), Options{}))

	out := captureStdout(t, func() {
		rootCmd.SetArgs([]string{"help", "wine"})
		require.NoError(t, rootCmd.Execute())
	})
	assert.Contains(t, out, "WINE SETUP")
}

func TestRenderers(t *testing.T) {
	t.Run("plain", func(t *testing.T) {
		assert.Equal(t, "# Raw", PlainRenderer{}.Render("# Raw", ".md"))
	})

	t.Run("glamour passthrough", func(t *testing.T) {
		// Without a style (no terminal) and for non-markdown content the
		// renderer must not touch the input
		r := &GlamourRenderer{}
		assert.Equal(t, "# Raw", r.Render("# Raw", ".md"))

		r = &GlamourRenderer{Style: "dark"}
		assert.Equal(t, "plain text", r.Render("plain text", ".txt"))
	})

	t.Run("glamour markdown", func(t *testing.T) {
		r := &GlamourRenderer{Style: "dark", Width: 60}
		out := r.Render("# Heading\n\nSome body text.", ".md")
		assert.Contains(t, out, "Heading")
		assert.Contains(t, out, "Some body text.")
	})
}

// captureStdout redirects os.Stdout around f, since topic output is printed
// directly rather than through the command's out writer
func captureStdout(t *testing.T, f func()) string {
	t.Helper()

	r, w, err := os.Pipe()
	require.NoError(t, err)
	orig := os.Stdout
	os.Stdout = w

	f()

	require.NoError(t, w.Close())
	os.Stdout = orig

	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(out)
}
