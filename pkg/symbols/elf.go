package symbols

import (
	"bytes"
	"debug/elf"

	"github.com/robbert-vdh/yabridge/pkg/errors"
	"github.com/robbert-vdh/yabridge/pkg/types"
)

// ElfArchitecture reports the bit-width of a native ELF library. The
// chainloader's architecture decides which Linux directory it is copied to
// inside a merged VST3 bundle.
func ElfArchitecture(fsys types.FS, path string) (types.LibArchitecture, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrBinaryParse, "failed to read %s", path)
	}

	f, err := elf.NewFile(bytes.NewReader(data))
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrBinaryParse, "%s is not an ELF file", path)
	}
	defer f.Close()

	switch f.Class {
	case elf.ELFCLASS32:
		return types.Lib32, nil
	case elf.ELFCLASS64:
		return types.Lib64, nil
	default:
		return "", errors.Newf(errors.ErrBinaryParse, "%s has an unknown ELF class %q", path, f.Class)
	}
}
