// Package verify checks that the environment can actually run bridged
// plugins: yabridge's host binaries must be reachable from a login shell,
// and the installed Wine version must be able to start them.
package verify

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/robbert-vdh/yabridge/pkg/config"
	"github.com/robbert-vdh/yabridge/pkg/errors"
	"github.com/robbert-vdh/yabridge/pkg/logging"
	"github.com/robbert-vdh/yabridge/pkg/paths"
	"github.com/robbert-vdh/yabridge/pkg/types"
)

// hostUsagePrefix is the start of the text yabridge-host.exe prints when run
// without arguments. Only the prefix is matched so the exact usage text can
// change between releases.
const hostUsagePrefix = "Usage: yabridge-"

const (
	troubleshootingURL = "https://github.com/robbert-vdh/yabridge#troubleshooting-common-issues"
	issuesURL          = "https://github.com/robbert-vdh/yabridge/issues"
)

// Verifier runs the environment checks performed at the end of a sync.
type Verifier struct {
	fs     types.FS
	paths  paths.Paths
	runner Runner
	logger zerolog.Logger
}

// New creates a Verifier that executes external commands through runner.
func New(fsys types.FS, p paths.Paths, runner Runner) *Verifier {
	return &Verifier{
		fs:     fsys,
		paths:  p,
		runner: runner,
		logger: logging.GetLogger("verify"),
	}
}

// CheckPath verifies that yabridge-host.exe can be found by a plugin host
// launched from the desktop environment, which sees the login shell's
// environment rather than the current terminal's. Returns false only when
// the login shell ran and the lookup definitively failed; inconclusive
// checks (no $SHELL, an unknown shell, a shell that would not start) pass
// with a warning.
func (v *Verifier) CheckPath(files *config.YabridgeFiles) (bool, []string) {
	// yabridge always searches the XDG data directory itself, so a host
	// installed there is reachable no matter what the login shell's PATH
	// looks like
	dataHost := filepath.Join(v.paths.DataDir(), config.HostExeName)
	if info, err := v.fs.Stat(dataHost); err == nil && !info.IsDir() && info.Mode()&0o111 != 0 {
		v.logger.Debug().Str("path", dataHost).Msg("Host found in the data directory, skipping PATH check")
		return true, nil
	}

	shellPath := os.Getenv("SHELL")
	if shellPath == "" {
		return true, []string{"could not determine the login shell from $SHELL, skipping the PATH setup check"}
	}
	shell := filepath.Base(shellPath)

	// Most shells take -l to start as a login shell and have the POSIX
	// command builtin. The rest get their own spellings.
	var args []string
	switch shell {
	case "ash", "bash", "csh", "dash", "fish", "ion", "ksh", "sh", "tcsh", "zsh":
		args = []string{"-l", "-c", "command -v " + config.HostExeName}
	case "elvish", "oil":
		args = []string{"-c", "command -v " + config.HostExeName}
	case "pwsh":
		args = []string{"-l", "-c", "which " + config.HostExeName}
	case "nu":
		args = []string{"-c", "which " + config.HostExeName}
	default:
		return true, []string{fmt.Sprintf(
			"yabridgectl does not know how to handle your login shell '%s', skipping the PATH "+
				"environment variable check. Feel free to open a feature request to get your "+
				"shell supported.\n\n%s", shell, issuesURL)}
	}

	// Shells recognize a login invocation by an argv[0] starting with a
	// hyphen. The environment is cleared, keeping only $HOME so the shell
	// can still locate its profile.
	result := v.runner.Run(Command{
		Path: shellPath,
		Arg0: "-" + shellPath,
		Args: args,
		Env:  []string{"HOME=" + os.Getenv("HOME")},
	})
	switch {
	case result.Success():
		return true, nil
	case result.Started():
		// The shell ran and the lookup failed, so the host really is
		// missing from the login shell's search path
		return false, []string{fmt.Sprintf(
			"'%s' is not present in your login shell's search path. Yabridge will not be able "+
				"to run plugins until this is fixed.\n"+
				"Add '%s' to %s's login shell PATH environment variable, rerun this command to "+
				"verify that the variable has been set correctly, and then reboot your system "+
				"to complete the setup.\n\n%s",
			config.HostExeName, filepath.Dir(files.Vst2Chainloader.Path), shell, troubleshootingURL)}
	default:
		return true, []string{fmt.Sprintf(
			"could not run %s as a login shell, skipping the PATH setup check: %v", shell, result.Err)}
	}
}

// CheckWine verifies that the installed Wine version can start yabridge's
// host binaries. The probe can take over a second when wineserver is not
// already running, so the Wine version and host hash seen during the last
// successful check are cached in the config and the probe is skipped while
// neither changes. An unrunnable Wine or a missing host binary is fatal; a
// host that Wine refuses to start is reported as a warning.
func (v *Verifier) CheckWine(cfg *config.Config, files *config.YabridgeFiles) ([]string, error) {
	// Wine's winelib scripts respect $WINELOADER, so do the same here
	wineBinary := os.Getenv("WINELOADER")
	if wineBinary == "" {
		wineBinary = "wine"
	}

	version := v.runner.Run(Command{Path: wineBinary, Args: []string{"--version"}})
	if !version.Started() {
		return nil, errors.Wrapf(version.Err, errors.ErrVerify,
			"could not run '%s', make sure Wine is installed", wineBinary)
	}
	wineVersion := strings.TrimRight(version.Stdout, "\n")
	if wineVersion == "" {
		return nil, errors.Newf(errors.ErrVerify,
			"running '%s --version' resulted in empty output", wineBinary)
	}

	current := config.KnownConfig{WineVersion: wineVersion, HostHash: files.HostExeHash}
	if cfg.LastKnownConfig != nil && *cfg.LastKnownConfig == current {
		v.logger.Debug().
			Str("wine", wineVersion).
			Msg("Wine and yabridge unchanged since the last check, skipping the host probe")
		return nil, nil
	}

	// A default Wine prefix created with WINEARCH=win32 cannot load the
	// 64-bit host, so probe with the binary the prefix can actually run
	hostBinary := files.HostExe
	if v.winePrefixArch() == types.Lib32 {
		if files.Host32Exe == "" {
			return nil, errors.Newf(errors.ErrVerify,
				"your default Wine prefix is 32-bit, but '%s' is not installed", config.Host32ExeName)
		}
		hostBinary = files.Host32Exe
	}

	probe := v.runner.Run(Command{Path: hostBinary})
	if !probe.Started() {
		return nil, errors.Wrapf(probe.Err, errors.ErrVerify, "could not run '%s'", hostBinary)
	}

	// Three possible outcomes: everything works and the usage text shows
	// up, Wine is too old to start the host, or Wine is much newer than the
	// version yabridge was built against. The last two cannot be told
	// apart, so the warning assumes an outdated Wine.
	success := false
	lastError := "<no output>"
	scanner := bufio.NewScanner(strings.NewReader(probe.Stderr))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, hostUsagePrefix) {
			success = true
			break
		}

		// fixme messages can come from wineserver even after the host has
		// already errored out
		if len(line) < 10 || line[5:10] != "fixme" {
			lastError = line
		}
	}

	if !success {
		return []string{fmt.Sprintf(
			"could not run '%s'. Wine reported the following error:\n\n%s\n\n"+
				"Make sure that you have downloaded the correct version of yabridge for your "+
				"distro. This can also happen when the installed version of Wine is not "+
				"compatible with this version of yabridge, in which case you will need to "+
				"upgrade Wine. Your current Wine version is '%s'.\n\n%s",
			config.HostExeName, lastError,
			strings.TrimPrefix(wineVersion, "wine-"), troubleshootingURL)}, nil
	}

	cfg.LastKnownConfig = &current
	if err := config.Save(v.paths, cfg); err != nil {
		return nil, err
	}

	v.logger.Debug().Str("wine", wineVersion).Str("host", hostBinary).Msg("Host probe succeeded")
	return nil, nil
}

// winePrefixArch returns the architecture of the default Wine prefix in
// ~/.wine, or 64-bit when the prefix does not exist or does not declare one.
func (v *Verifier) winePrefixArch() types.LibArchitecture {
	regPath := filepath.Join(os.Getenv("HOME"), ".wine", "system.reg")
	data, err := v.fs.ReadFile(regPath)
	if err != nil {
		return types.Lib64
	}

	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	for scanner.Scan() {
		switch scanner.Text() {
		case "#arch=win32":
			return types.Lib32
		case "#arch=win64":
			return types.Lib64
		}
	}

	return types.Lib64
}
