package style

import (
	"strings"
	"testing"

	"github.com/robbert-vdh/yabridge/pkg/commands"
	"github.com/robbert-vdh/yabridge/pkg/installer"
	"github.com/robbert-vdh/yabridge/pkg/plugins"
	"github.com/robbert-vdh/yabridge/pkg/types"
)

func TestInstallStateOf(t *testing.T) {
	tests := []struct {
		name      string
		installed *types.NativeFile
		expected  InstallState
	}{
		{
			name:      "nothing at the target",
			installed: nil,
			expected:  StateMissing,
		},
		{
			name:      "chainloader copy",
			installed: &types.NativeFile{Kind: types.FileRegular, Path: "/plugins/Comp.so"},
			expected:  StateCopy,
		},
		{
			name:      "symlink",
			installed: &types.NativeFile{Kind: types.FileSymlink, Path: "/plugins/Comp.so"},
			expected:  StateSymlink,
		},
		{
			name:      "directory blocks the target",
			installed: &types.NativeFile{Kind: types.FileDirectory, Path: "/plugins/Comp.so"},
			expected:  StateDirectory,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := InstallStateOf(tt.installed)
			if result != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, result)
			}
		})
	}
}

func TestRenderPluginStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   installer.InstallStatus
		contains []string
	}{
		{
			name: "installed vst2 plugin",
			status: installer.InstallStatus{
				Plugin: plugins.Plugin{
					Format: plugins.FormatVst2,
					Path:   "/plugins/effects/Comp.dll",
					Arch:   types.Lib64,
					Subdir: "effects",
				},
				Installed: &types.NativeFile{Kind: types.FileRegular, Path: "/plugins/effects/Comp.so"},
			},
			contains: []string{"effects/Comp.dll", "VST2", "64-bit", "copy"},
		},
		{
			name: "unbridged vst3 bundle shows the bundle root",
			status: installer.InstallStatus{
				Plugin: plugins.Plugin{
					Format: plugins.FormatVst3,
					Path:   "/plugins/Surge XT.vst3/Contents/x86_64-win/Surge XT.vst3",
					Arch:   types.Lib64,
					Bundle: "/plugins/Surge XT.vst3",
				},
			},
			contains: []string{"Surge XT.vst3 ::", "VST3", "not installed"},
		},
		{
			name: "symlinked clap plugin",
			status: installer.InstallStatus{
				Plugin: plugins.Plugin{
					Format: plugins.FormatClap,
					Path:   "/plugins/Nova.clap",
					Arch:   types.Lib32,
				},
				Installed: &types.NativeFile{Kind: types.FileSymlink, Path: "/plugins/Nova.clap"},
			},
			contains: []string{"Nova.clap", "CLAP", "32-bit", "symlink"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := RenderPluginStatus("/plugins", tt.status)
			for _, expected := range tt.contains {
				if !strings.Contains(result, expected) {
					t.Errorf("Expected output to contain %q, got %q", expected, result)
				}
			}
		})
	}
}

func TestRenderPluginStatusOutsideRoot(t *testing.T) {
	status := installer.InstallStatus{
		Plugin: plugins.Plugin{
			Format: plugins.FormatVst2,
			Path:   "/elsewhere/Comp.dll",
			Arch:   types.Lib64,
		},
	}

	result := RenderPluginStatus("/plugins", status)
	if !strings.Contains(result, "/elsewhere/Comp.dll") {
		t.Errorf("Expected the full path for plugins outside the root, got %q", result)
	}
}

func TestRenderRootStatus(t *testing.T) {
	t.Run("plugins and warnings", func(t *testing.T) {
		rs := commands.RootStatus{
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
			},
			Warnings: []string{"skipping '/plugins/broken', permission denied"},
		}

		result := RenderRootStatus(rs)
		for _, expected := range []string{"/plugins:", "Comp.dll", "copy", "permission denied"} {
			if !strings.Contains(result, expected) {
				t.Errorf("Expected output to contain %q, got:\n%s", expected, result)
			}
		}
	})

	t.Run("empty directory", func(t *testing.T) {
		result := RenderRootStatus(commands.RootStatus{Root: "/empty"})
		if !strings.Contains(result, "no plugins found") {
			t.Errorf("Expected 'no plugins found', got %q", result)
		}
	})
}

func TestAllInstalled(t *testing.T) {
	installed := installer.InstallStatus{
		Installed: &types.NativeFile{Kind: types.FileRegular, Path: "/plugins/a.so"},
	}
	missing := installer.InstallStatus{}

	tests := []struct {
		name     string
		statuses []installer.InstallStatus
		expected bool
	}{
		{
			name:     "no plugins",
			statuses: nil,
			expected: true,
		},
		{
			name:     "all installed",
			statuses: []installer.InstallStatus{installed, installed},
			expected: true,
		},
		{
			name:     "one missing",
			statuses: []installer.InstallStatus{installed, missing},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := AllInstalled(tt.statuses)
			if result != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, result)
			}
		})
	}
}
