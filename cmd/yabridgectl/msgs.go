package main

import (
	_ "embed"
	"strings"
)

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort           = "Set up and manage yabridge for your Windows plugins"
	MsgAddShort            = "Add a plugin install location"
	MsgRmShort             = "Remove a plugin install location"
	MsgListShort           = "List the plugin install locations"
	MsgStatusShort         = "Show the installation status for all plugins"
	MsgSyncShort           = "Set up or update yabridge for all plugins"
	MsgSetShort            = "Change the yabridge path and installation options"
	MsgBlacklistShort      = "Manage the indexing blacklist"
	MsgBlacklistAddShort   = "Add a path to the blacklist"
	MsgBlacklistRmShort    = "Remove a path from the blacklist"
	MsgBlacklistListShort  = "List the blacklisted paths"
	MsgBlacklistClearShort = "Clear the entire blacklist"
	MsgDocsShort           = "Display available documentation topics"
	MsgDocsLong            = "Display a list of all available help topics that provide documentation beyond command help."
	MsgVersionShort        = "Print version information"
	MsgCompletionShort     = "Generate shell completion script"

	// Status messages
	MsgDirAlreadyTracked  = "'%s' is already being tracked\n"
	MsgLeftoverHeader     = "Warning: Found %d leftover .so files still in this directory:\n"
	MsgLeftoverItem       = "- %s\n"
	MsgLeftoverPrompt     = "Would you like to remove these files?"
	MsgLeftoverRemoved    = "\nRemoved %d files\n"
	MsgBlacklistNotThere  = "Note: '%s' does not exist right now, the entry will take effect once it does\n"
	MsgBlacklistDuplicate = "'%s' is already blacklisted\n"
	MsgBlacklistCleared   = "Removed %d entries from the blacklist\n"
	MsgBlacklistWasEmpty  = "The blacklist was already empty\n"

	// Flag descriptions
	MsgFlagVerbose         = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagForce           = "Rewrite all files even if they are already up to date"
	MsgFlagPrune           = "Remove unrelated or leftover .so files"
	MsgFlagNoVerify        = "Skip post-installation setup checks"
	MsgFlagNoVerifyPersist = "Permanently skip the post-installation setup checks (pass 'false' to enable them again)"
	MsgFlagFormat          = "Output format (text, json, yaml)"
	MsgFlagPath            = "Path to the directory containing yabridge's files"
	MsgFlagPathAuto        = "Clear the path set earlier and find yabridge's files automatically"
	MsgFlagVst2Location    = "Where to set up VST2 plugins ('centralized' or 'inline')"
)

// Long messages from embedded files
var (
	//go:embed msgs/root-long.txt
	msgRootLongRaw string
	MsgRootLong    = strings.TrimSpace(msgRootLongRaw)

	//go:embed msgs/add-example.txt
	msgAddExampleRaw string
	MsgAddExample    = strings.TrimSpace(msgAddExampleRaw)

	//go:embed msgs/status-example.txt
	msgStatusExampleRaw string
	MsgStatusExample    = strings.TrimSpace(msgStatusExampleRaw)

	//go:embed msgs/sync-long.txt
	msgSyncLongRaw string
	MsgSyncLong    = strings.TrimSpace(msgSyncLongRaw)

	//go:embed msgs/sync-example.txt
	msgSyncExampleRaw string
	MsgSyncExample    = strings.TrimSpace(msgSyncExampleRaw)

	//go:embed msgs/set-long.txt
	msgSetLongRaw string
	MsgSetLong    = strings.TrimSpace(msgSetLongRaw)

	//go:embed msgs/set-example.txt
	msgSetExampleRaw string
	MsgSetExample    = strings.TrimSpace(msgSetExampleRaw)

	//go:embed msgs/blacklist-long.txt
	msgBlacklistLongRaw string
	MsgBlacklistLong    = strings.TrimSpace(msgBlacklistLongRaw)

	//go:embed msgs/blacklist-example.txt
	msgBlacklistExampleRaw string
	MsgBlacklistExample    = strings.TrimSpace(msgBlacklistExampleRaw)

	//go:embed msgs/completion-long.txt
	msgCompletionLongRaw string
	MsgCompletionLong    = strings.TrimSpace(msgCompletionLongRaw)

	//go:embed msgs/usage-template.txt
	msgUsageTemplateRaw string
	MsgUsageTemplate    = strings.TrimSpace(msgUsageTemplateRaw)
)
