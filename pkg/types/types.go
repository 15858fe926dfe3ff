// Package types contains the shared types used across yabridgectl's
// discovery, classification and reconciliation packages.
package types

// LibArchitecture is the CPU architecture of a plugin or chainloader library.
type LibArchitecture string

const (
	// Lib32 is a 32-bit x86 library
	Lib32 LibArchitecture = "32-bit"
	// Lib64 is a 64-bit x86_64 library
	Lib64 LibArchitecture = "64-bit"
)

// WindowsArchDir returns the architecture-tagged directory name used for
// Windows modules inside a merged VST3 bundle. These names are part of the
// VST3 bundle convention and must match bit-exact.
func (a LibArchitecture) WindowsArchDir() string {
	if a == Lib32 {
		return "x86-win"
	}
	return "x86_64-win"
}

// LinuxArchDir returns the architecture-tagged directory name used for
// native modules inside a merged VST3 bundle.
func (a LibArchitecture) LinuxArchDir() string {
	if a == Lib32 {
		return "i386-linux"
	}
	return "x86_64-linux"
}

func (a LibArchitecture) String() string {
	return string(a)
}

// InstallMethod is how an artifact is placed at its target location.
type InstallMethod string

const (
	// MethodCopy copies the source file to the target
	MethodCopy InstallMethod = "copy"
	// MethodSymlink creates a symlink at the target pointing at the source
	MethodSymlink InstallMethod = "symlink"
)

// FileKind is the observed on-disk type of a file
type FileKind string

const (
	FileSymlink   FileKind = "symlink"
	FileRegular   FileKind = "regular"
	FileDirectory FileKind = "directory"
)

// NativeFile is a file observed on disk together with its type. It is used
// both for native shims found during plugin directory scans and for whatever
// occupies an install target.
type NativeFile struct {
	Kind FileKind `json:"kind" yaml:"kind"`
	Path string   `json:"path" yaml:"path"`
}

func (f NativeFile) String() string {
	return string(f.Kind)
}
