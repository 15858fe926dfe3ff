package main

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/robbert-vdh/yabridge/pkg/cobrax/topics"
)

// Documentation shipped with the binary, shown through 'yabridgectl docs'
// and 'yabridgectl help <topic>'.
//
//go:embed docs/*.md
var docsFS embed.FS

// initDocs registers the topic aware help command backed by the embedded
// documentation
func initDocs(rootCmd *cobra.Command) {
	sub, err := fs.Sub(docsFS, "docs")
	if err != nil {
		return
	}

	opts := topics.Options{
		Extensions: []string{".md", ".txt"},
		// Markdown topics get rendered with glamour on terminals
		Renderer: topics.NewGlamourRenderer(),
	}
	_ = topics.InitializeFS(rootCmd, sub, opts)
}

func newDocsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "docs [topic]",
		Short:   MsgDocsShort,
		Long:    MsgDocsLong,
		GroupID: "misc",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Forward to the topic aware help command
			helpArgs := []string{"topics"}
			if len(args) > 0 {
				helpArgs = args
			}

			if helpCmd, _, err := cmd.Root().Find([]string{"help"}); err == nil {
				if helpCmd.RunE != nil {
					return helpCmd.RunE(helpCmd, helpArgs)
				} else if helpCmd.Run != nil {
					helpCmd.Run(helpCmd, helpArgs)
					return nil
				}
			}
			return fmt.Errorf("help command not found")
		},
	}
}
