// Package topics adds file backed help topics to a cobra application. Topic
// files are discovered on a fs.FS and shown through 'help <topic>', next to
// the regular per-command help. 'help topics' lists everything available.
package topics

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

// Options configures the help topics
type Options struct {
	// Extensions lists the file extensions treated as topic files.
	// Defaults to .txt and .md.
	Extensions []string

	// Renderer formats topic content before it is printed. Defaults to
	// PlainRenderer.
	Renderer Renderer
}

// topic is a single help page loaded from the topic filesystem
type topic struct {
	Name    string
	Ext     string
	Content string
}

// index holds the loaded topics for one application
type index struct {
	topics   map[string]topic
	renderer Renderer
}

// loadIndex walks fsys and collects every file with a topic extension.
// Subdirectories are flattened, the file name is the topic name. A missing
// root is treated as an empty topic set.
func loadIndex(fsys fs.FS, opts Options) (*index, error) {
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = []string{".txt", ".md"}
	}
	renderer := opts.Renderer
	if renderer == nil {
		renderer = PlainRenderer{}
	}

	ix := &index{topics: make(map[string]topic), renderer: renderer}
	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}

		ext := filepath.Ext(path)
		matched := false
		for _, want := range exts {
			if ext == want {
				matched = true
				break
			}
		}
		if !matched {
			return nil
		}

		content, err := fs.ReadFile(fsys, path)
		if err != nil {
			return err
		}

		name := strings.TrimSuffix(filepath.Base(path), ext)
		ix.topics[name] = topic{Name: name, Ext: ext, Content: string(content)}
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	return ix, nil
}

// lookup finds a topic by name. Flag spellings work too: 'prune' and
// '--prune' both find the 'option-prune' topic.
func (ix *index) lookup(name string) (topic, bool) {
	name = strings.TrimPrefix(name, "--")
	name = strings.TrimPrefix(name, "-")

	if t, ok := ix.topics[name]; ok {
		return t, true
	}
	t, ok := ix.topics["option-"+name]
	return t, ok
}

// show prints a topic through the configured renderer and reports whether
// the topic exists
func (ix *index) show(name string) bool {
	t, ok := ix.lookup(name)
	if !ok {
		return false
	}
	fmt.Print(ix.renderer.Render(t.Content, t.Ext))
	return true
}

// names returns all topic names in sorted order
func (ix *index) names() []string {
	names := make([]string, 0, len(ix.topics))
	for name := range ix.topics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// formatList renders the 'help topics' listing. Option topics are shown in
// their flag spelling.
func (ix *index) formatList(appName string) string {
	names := ix.names()
	if len(names) == 0 {
		return "No help topics available.\n"
	}

	var general, options []string
	for _, name := range names {
		if strings.HasPrefix(name, "option-") {
			options = append(options, "--"+strings.TrimPrefix(name, "option-"))
		} else {
			general = append(general, name)
		}
	}

	var b strings.Builder
	b.WriteString("Available help topics:\n")
	if len(general) > 0 {
		b.WriteString("\nGeneral topics:\n")
		for _, name := range general {
			fmt.Fprintf(&b, "  %s\n", name)
		}
	}
	if len(options) > 0 {
		b.WriteString("\nOption topics:\n")
		for _, name := range options {
			fmt.Fprintf(&b, "  %s\n", name)
		}
	}
	fmt.Fprintf(&b, "\nUse '%s help <topic>' to read about a specific topic.\n", appName)

	return b.String()
}

// InitializeFS installs a topic aware 'help' command on rootCmd, reading
// topics from fsys. Command help keeps working: 'help <command>' resolves
// commands after topics, and --help on a command is unaffected unless a
// topic shadows it.
func InitializeFS(rootCmd *cobra.Command, fsys fs.FS, opts Options) error {
	ix, err := loadIndex(fsys, opts)
	if err != nil {
		return fmt.Errorf("failed to load help topics: %w", err)
	}

	// The help function as it was before we took over, used whenever no
	// topic matches
	fallback := rootCmd.HelpFunc()

	helpCmd := &cobra.Command{
		Use:   "help [command or topic]",
		Short: "Help about any command or topic",
		Long: fmt.Sprintf(`Help provides help for any command or topic in the application.
Simply type %[1]s help [path to command or topic] for full details.

To see all available help topics:
  %[1]s help topics`, rootCmd.Name()),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			completions := []string{"topics"}
			for _, c := range rootCmd.Commands() {
				if !c.Hidden {
					completions = append(completions, c.Name())
				}
			}
			return append(completions, ix.names()...), cobra.ShellCompDirectiveNoFileComp
		},
		Run: func(cmd *cobra.Command, args []string) {
			switch {
			case len(args) == 0:
				fallback(rootCmd, nil)
			case args[0] == "topics":
				fmt.Print(ix.formatList(rootCmd.Name()))
			default:
				if ix.show(args[0]) {
					return
				}
				target, _, err := rootCmd.Find(args)
				if err != nil || target == nil {
					rootCmd.Printf("Unknown help topic %#v\n", args)
					_ = rootCmd.Usage()
					return
				}
				target.InitDefaultHelpFlag()
				_ = target.Help()
			}
		},
	}

	// Replace cobra's built in help command
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == "help" {
			rootCmd.RemoveCommand(cmd)
			break
		}
	}
	rootCmd.AddCommand(helpCmd)

	// The --help flag goes through the same topic lookup
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if len(args) > 0 && ix.show(args[0]) {
			return
		}
		fallback(cmd, args)
	})

	return nil
}
