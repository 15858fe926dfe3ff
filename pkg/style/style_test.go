package style

import (
	"strings"
	"testing"

	"github.com/robbert-vdh/yabridge/pkg/commands"
	"github.com/robbert-vdh/yabridge/pkg/config"
	"github.com/robbert-vdh/yabridge/pkg/errors"
	"github.com/robbert-vdh/yabridge/pkg/installer"
	"github.com/robbert-vdh/yabridge/pkg/plugins"
	"github.com/robbert-vdh/yabridge/pkg/types"
)

func statusFixture() *commands.StatusResult {
	return &commands.StatusResult{
		Vst2Location: config.Vst2Centralized,
		Files: &config.YabridgeFiles{
			Vst2Chainloader: config.Chainloader{Path: "/usr/lib/" + config.Vst2ChainloaderName, Arch: types.Lib64},
			Vst3Chainloader: config.Chainloader{Path: "/usr/lib/" + config.Vst3ChainloaderName, Arch: types.Lib64},
			ClapChainloader: config.Chainloader{Path: "/usr/lib/" + config.ClapChainloaderName, Arch: types.Lib64},
			HostExe:         "/usr/lib/" + config.HostExeName,
		},
		Roots: []commands.RootStatus{
			{
				Root: "/plugins",
				Plugins: []installer.InstallStatus{
					{
						Plugin: plugins.Plugin{
							Format: plugins.FormatVst2,
							Path:   "/plugins/Comp.dll",
							Arch:   types.Lib64,
						},
						Installed: &types.NativeFile{Kind: types.FileRegular, Path: "/plugins/Comp.so"},
					},
					{
						Plugin: plugins.Plugin{
							Format: plugins.FormatClap,
							Path:   "/plugins/Nova.clap",
							Arch:   types.Lib64,
						},
					},
				},
			},
		},
	}
}

func TestTerminalRenderer(t *testing.T) {
	renderer := NewTerminalRenderer()

	t.Run("RenderStatus", func(t *testing.T) {
		result := renderer.RenderStatus(statusFixture())

		expected := []string{
			"yabridge path: <auto>",
			"vst2 location: centralized",
			"verification: enabled",
			"/usr/lib/" + config.Vst2ChainloaderName,
			config.Host32ExeName,
			"<not installed>",
			"Comp.dll",
			"copy",
			"Nova.clap",
			"not installed",
		}
		for _, want := range expected {
			if !strings.Contains(result, want) {
				t.Errorf("Expected output to contain %q, got:\n%s", want, result)
			}
		}
	})

	t.Run("RenderStatus pinned home", func(t *testing.T) {
		res := statusFixture()
		res.YabridgeHome = "/opt/yabridge"

		result := renderer.RenderStatus(res)
		if !strings.Contains(result, "'/opt/yabridge'") {
			t.Errorf("Expected the pinned path, got:\n%s", result)
		}
		if strings.Contains(result, "<auto>") {
			t.Errorf("Expected no <auto> marker with a pinned path, got:\n%s", result)
		}
	})

	t.Run("RenderStatus without yabridge files", func(t *testing.T) {
		res := statusFixture()
		res.Files = nil
		res.FilesError = "could not find libyabridge-chainloader-vst2.so"

		result := renderer.RenderStatus(res)
		if !strings.Contains(result, "<not found>") {
			t.Errorf("Expected '<not found>', got:\n%s", result)
		}
		if !strings.Contains(result, res.FilesError) {
			t.Errorf("Expected the resolution error, got:\n%s", result)
		}
	})

	t.Run("RenderSync", func(t *testing.T) {
		res := &commands.SyncResult{
			Installed:    2,
			NewFiles:     6,
			SkippedFiles: []string{"/plugins/support.dll"},
			Orphans:      []string{"/home/user/.vst/yabridge/Gone.so"},
		}

		result := renderer.RenderSync(res, false)
		expected := []string{
			"Finished setting up 2 plugins",
			"(6 new files)",
			"skipped 1 non-plugin files",
			"/home/user/.vst/yabridge/Gone.so",
			"--prune",
		}
		for _, want := range expected {
			if !strings.Contains(result, want) {
				t.Errorf("Expected output to contain %q, got:\n%s", want, result)
			}
		}
	})

	t.Run("RenderSync verbose", func(t *testing.T) {
		res := &commands.SyncResult{
			Installed: 1,
			Roots: map[string]*plugins.SearchResult{
				"/plugins": {
					Plugins: []plugins.Plugin{
						{Format: plugins.FormatVst3, Path: "/plugins/Surge.vst3", Arch: types.Lib64},
					},
					SkippedFiles: []string{"/plugins/support.dll"},
				},
			},
		}

		result := renderer.RenderSync(res, true)
		for _, want := range []string{"/plugins:", "VST3", "Surge.vst3", "skipped support.dll"} {
			if !strings.Contains(result, want) {
				t.Errorf("Expected output to contain %q, got:\n%s", want, result)
			}
		}
	})

	t.Run("RenderSync after prune", func(t *testing.T) {
		res := &commands.SyncResult{
			Installed:      1,
			Orphans:        []string{"/home/user/.vst/yabridge/Gone.so"},
			OrphansRemoved: 1,
		}

		result := renderer.RenderSync(res, false)
		if !strings.Contains(result, "Removed 1 leftover files") {
			t.Errorf("Expected removal summary, got:\n%s", result)
		}
		if strings.Contains(result, "--prune") {
			t.Errorf("Expected no prune hint after pruning, got:\n%s", result)
		}
	})

	t.Run("RenderWarnings", func(t *testing.T) {
		result := renderer.RenderWarnings([]string{"something looks off"})
		if !strings.Contains(result, "something looks off") {
			t.Errorf("Expected the warning text, got %q", result)
		}
	})

	t.Run("RenderError", func(t *testing.T) {
		err := errors.Newf(errors.ErrInvalidInput, "'%s' does not exist", "/missing")
		result := renderer.RenderError(err)

		if !strings.Contains(result, "INVALID_INPUT") {
			t.Error("Expected output to contain the error code")
		}
		if !strings.Contains(result, "'/missing' does not exist") {
			t.Error("Expected output to contain the error message")
		}
	})

	t.Run("RenderError nil", func(t *testing.T) {
		result := renderer.RenderError(nil)
		if result != "" {
			t.Errorf("Expected empty string for nil error, got %q", result)
		}
	})
}

func TestPlainRenderer(t *testing.T) {
	renderer := NewPlainRenderer()

	t.Run("RenderStatus", func(t *testing.T) {
		result := renderer.RenderStatus(statusFixture())

		for _, want := range []string{"yabridge path: <auto>", "Comp.dll :: VST2, 64-bit, copy", "Nova.clap :: CLAP, 64-bit, not installed"} {
			if !strings.Contains(result, want) {
				t.Errorf("Expected output to contain %q, got:\n%s", want, result)
			}
		}
	})

	t.Run("RenderSync", func(t *testing.T) {
		res := &commands.SyncResult{Installed: 2}

		result := renderer.RenderSync(res, false)
		if result != "Finished setting up 2 plugins" {
			t.Errorf("Expected plain summary, got %q", result)
		}
	})

	t.Run("RenderError", func(t *testing.T) {
		err := errors.New(errors.ErrVerify, "wine is not installed")
		result := renderer.RenderError(err)

		if !strings.Contains(result, "Error:") {
			t.Error("Expected 'Error:' prefix")
		}
		if !strings.Contains(result, "wine is not installed") {
			t.Error("Expected error message")
		}
	})
}
