package testutil

import (
	"debug/elf"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robbert-vdh/yabridge/pkg/config"
	"github.com/robbert-vdh/yabridge/pkg/types"
)

// WriteVst2Plugin drops a Windows VST2 plugin at path.
func WriteVst2Plugin(t *testing.T, fsys types.FS, path string, arch types.LibArchitecture) {
	t.Helper()
	require.NoError(t, fsys.WriteFile(path, BuildPE(t, arch, []string{"VSTPluginMain"}), 0o644))
}

// WriteVst3Legacy drops a single-file VST3 module at path, the pre-bundle
// layout still common for Windows plugins.
func WriteVst3Legacy(t *testing.T, fsys types.FS, path string, arch types.LibArchitecture) {
	t.Helper()
	require.NoError(t, fsys.WriteFile(path, BuildPE(t, arch, []string{"GetPluginFactory"}), 0o644))
}

// WriteVst3Bundle creates a VST3 bundle at root with its module in the
// architecture directory matching arch, returning the module path.
func WriteVst3Bundle(t *testing.T, fsys types.FS, root string, arch types.LibArchitecture) string {
	t.Helper()
	module := filepath.Join(root, "Contents", arch.WindowsArchDir(), filepath.Base(root))
	require.NoError(t, fsys.WriteFile(module, BuildPE(t, arch, []string{"GetPluginFactory"}), 0o644))
	return module
}

// WriteClapPlugin drops a Windows CLAP plugin at path.
func WriteClapPlugin(t *testing.T, fsys types.FS, path string, arch types.LibArchitecture) {
	t.Helper()
	require.NoError(t, fsys.WriteFile(path, BuildPE(t, arch, []string{"clap_entry"}), 0o644))
}

// WriteNonPluginDll drops a library without plugin entry points, the kind of
// support DLL that ships next to plugins and must be skipped.
func WriteNonPluginDll(t *testing.T, fsys types.FS, path string) {
	t.Helper()
	require.NoError(t, fsys.WriteFile(path, BuildPE(t, types.Lib64, []string{"DllRegisterServer"}), 0o644))
}

// InstallYabridge populates dir with yabridge's chainloaders and host
// binaries so file resolution succeeds against the fixture filesystem.
func InstallYabridge(t *testing.T, fsys types.FS, dir string, with32BitHost bool) {
	t.Helper()

	so := BuildELF(t, elf.ELFCLASS64)
	for _, name := range []string{
		config.Vst2ChainloaderName,
		config.Vst3ChainloaderName,
		config.ClapChainloaderName,
	} {
		require.NoError(t, fsys.WriteFile(filepath.Join(dir, name), so, 0o755))
	}
	require.NoError(t, fsys.WriteFile(filepath.Join(dir, config.HostExeName), []byte("host binary"), 0o755))
	if with32BitHost {
		require.NoError(t, fsys.WriteFile(filepath.Join(dir, config.Host32ExeName), []byte("host binary 32"), 0o755))
	}
}
