package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/robbert-vdh/yabridge/internal/version"
	"github.com/robbert-vdh/yabridge/pkg/commands"
	"github.com/robbert-vdh/yabridge/pkg/errors"
	"github.com/robbert-vdh/yabridge/pkg/style"
)

// newRenderer picks rich or plain output depending on whether stdout is a
// terminal
func newRenderer() style.Renderer {
	if stdoutIsTTY() {
		return style.NewTerminalRenderer()
	}
	return style.NewPlainRenderer()
}

// errRenderer is the same thing for stderr, used by main for errors
func errRenderer() style.Renderer {
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		return style.NewTerminalRenderer()
	}
	return style.NewPlainRenderer()
}

func newAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "add <path>",
		Short:   MsgAddShort,
		Example: MsgAddExample,
		GroupID: "core",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := commands.NewEnv()
			if err != nil {
				return err
			}

			result, err := commands.AddDirectory(env, args[0])
			if err != nil {
				return err
			}
			if !result.Added {
				fmt.Printf(MsgDirAlreadyTracked, result.Path)
			}
			return nil
		},
	}
}

func newRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <path>",
		Short:   MsgRmShort,
		GroupID: "core",
		Args:    cobra.ExactArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			env, err := commands.NewEnv()
			if err != nil {
				return nil, cobra.ShellCompDirectiveError
			}
			return commands.ListDirectories(env), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := commands.NewEnv()
			if err != nil {
				return err
			}

			result, err := commands.RemoveDirectory(env, args[0])
			if err != nil {
				return err
			}
			if len(result.LeftoverShims) == 0 {
				return nil
			}

			// Stale .so files under an untracked directory would still get
			// loaded by plugin hosts, so offer to clean them up right away
			fmt.Printf(MsgLeftoverHeader, len(result.LeftoverShims))
			for _, shim := range result.LeftoverShims {
				fmt.Printf(MsgLeftoverItem, shim)
			}
			if !style.Confirm(MsgLeftoverPrompt) {
				return nil
			}

			removed, err := commands.DeleteLeftovers(env, result.LeftoverShims)
			if err != nil {
				return err
			}
			fmt.Printf(MsgLeftoverRemoved, removed)
			return nil
		},
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Short:   MsgListShort,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := commands.NewEnv()
			if err != nil {
				return err
			}

			for _, dir := range commands.ListDirectories(env) {
				fmt.Println(dir)
			}
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "status",
		Short:   MsgStatusShort,
		Example: MsgStatusExample,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			switch format {
			case "text", "json", "yaml":
			default:
				return errors.Newf(errors.ErrInvalidInput,
					"invalid value '%s' for '--format', expected 'text', 'json' or 'yaml'", format)
			}

			env, err := commands.NewEnv()
			if err != nil {
				return err
			}

			result, err := commands.Status(env)
			if err != nil {
				return err
			}

			switch format {
			case "text":
				fmt.Println(newRenderer().RenderStatus(result))
			case "json":
				out, err := json.MarshalIndent(result, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
			case "yaml":
				out, err := yaml.Marshal(result)
				if err != nil {
					return err
				}
				fmt.Print(string(out))
			}
			return nil
		},
	}

	cmd.Flags().StringP("format", "f", "text", MsgFlagFormat)
	_ = cmd.RegisterFlagCompletionFunc("format",
		cobra.FixedCompletions([]string{"text", "json", "yaml"}, cobra.ShellCompDirectiveNoFileComp))

	return cmd
}

func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sync",
		Short:   MsgSyncShort,
		Long:    MsgSyncLong,
		Example: MsgSyncExample,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := commands.NewEnv()
			if err != nil {
				return err
			}

			force, _ := cmd.Flags().GetBool("force")
			prune, _ := cmd.Flags().GetBool("prune")
			noVerify, _ := cmd.Flags().GetBool("no-verify")
			verbosity, _ := cmd.Root().PersistentFlags().GetCount("verbose")

			result, err := commands.Sync(env, commands.SyncOptions{
				Force:    force,
				Prune:    prune,
				NoVerify: noVerify,
			})
			// A failed verification still returns the work that was done,
			// render the summary before the error in that case
			if result != nil {
				renderer := newRenderer()
				fmt.Println(renderer.RenderSync(result, verbosity > 0))
				if len(result.Warnings) > 0 {
					fmt.Fprintln(os.Stderr, renderer.RenderWarnings(result.Warnings))
				}
			}
			return err
		},
	}

	cmd.Flags().BoolP("force", "f", false, MsgFlagForce)
	cmd.Flags().BoolP("prune", "p", false, MsgFlagPrune)
	cmd.Flags().BoolP("no-verify", "n", false, MsgFlagNoVerify)

	return cmd
}

func newSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "set",
		Short:   MsgSetShort,
		Long:    MsgSetLong,
		Example: MsgSetExample,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := commands.NewEnv()
			if err != nil {
				return err
			}

			// Only settings whose flag was actually passed get changed, so
			// 'set --no-verify=false' is different from not passing it
			var opts commands.SetOptions
			if cmd.Flags().Changed("path") {
				path, _ := cmd.Flags().GetString("path")
				opts.Path = &path
			}
			opts.PathAuto, _ = cmd.Flags().GetBool("path-auto")
			if cmd.Flags().Changed("vst2-location") {
				location, _ := cmd.Flags().GetString("vst2-location")
				opts.Vst2Location = &location
			}
			if cmd.Flags().Changed("no-verify") {
				noVerify, _ := cmd.Flags().GetBool("no-verify")
				opts.NoVerify = &noVerify
			}

			_, err = commands.Set(env, opts)
			return err
		},
	}

	cmd.Flags().String("path", "", MsgFlagPath)
	cmd.Flags().Bool("path-auto", false, MsgFlagPathAuto)
	cmd.Flags().String("vst2-location", "", MsgFlagVst2Location)
	cmd.Flags().Bool("no-verify", false, MsgFlagNoVerifyPersist)
	_ = cmd.RegisterFlagCompletionFunc("vst2-location",
		cobra.FixedCompletions([]string{"centralized", "inline"}, cobra.ShellCompDirectiveNoFileComp))

	return cmd
}

func newBlacklistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "blacklist",
		Short:   MsgBlacklistShort,
		Long:    MsgBlacklistLong,
		Example: MsgBlacklistExample,
		GroupID: "core",
	}

	cmd.AddCommand(newBlacklistAddCmd())
	cmd.AddCommand(newBlacklistRmCmd())
	cmd.AddCommand(newBlacklistListCmd())
	cmd.AddCommand(newBlacklistClearCmd())

	return cmd
}

func newBlacklistAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <path>",
		Short: MsgBlacklistAddShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := commands.NewEnv()
			if err != nil {
				return err
			}

			result, err := commands.BlacklistAdd(env, args[0])
			if err != nil {
				return err
			}
			if !result.Changed {
				fmt.Printf(MsgBlacklistDuplicate, result.Path)
			}
			if !result.Exists {
				fmt.Printf(MsgBlacklistNotThere, result.Path)
			}
			return nil
		},
	}
}

func newBlacklistRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <path>",
		Short: MsgBlacklistRmShort,
		Args:  cobra.ExactArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			env, err := commands.NewEnv()
			if err != nil {
				return nil, cobra.ShellCompDirectiveError
			}
			return commands.BlacklistList(env), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := commands.NewEnv()
			if err != nil {
				return err
			}

			_, err = commands.BlacklistRemove(env, args[0])
			return err
		},
	}
}

func newBlacklistListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: MsgBlacklistListShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := commands.NewEnv()
			if err != nil {
				return err
			}

			for _, entry := range commands.BlacklistList(env) {
				fmt.Println(entry)
			}
			return nil
		},
	}
}

func newBlacklistClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: MsgBlacklistClearShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := commands.NewEnv()
			if err != nil {
				return err
			}

			cleared, err := commands.BlacklistClear(env)
			if err != nil {
				return err
			}
			if cleared == 0 {
				fmt.Print(MsgBlacklistWasEmpty)
			} else {
				fmt.Printf(MsgBlacklistCleared, cleared)
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   MsgVersionShort,
		GroupID: "misc",
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("yabridgectl version %s\n", version.Version)
			if version.Commit != "unknown" {
				fmt.Printf("Commit: %s\n", version.Commit)
			}
			if version.Date != "unknown" {
				fmt.Printf("Built:  %s\n", version.Date)
			}
		},
	}
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 MsgCompletionShort,
		Long:                  MsgCompletionLong,
		GroupID:               "misc",
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}
}
