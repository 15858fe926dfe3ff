// Package symbols inspects plugin binaries. Classifying a Windows plugin
// requires its exported symbol names and bit-width, both read from the PE
// headers directly or recovered through winedump when that fails.
package symbols

import (
	"github.com/robbert-vdh/yabridge/pkg/errors"
	"github.com/robbert-vdh/yabridge/pkg/types"
)

// Binary describes an inspected Windows plugin library.
type Binary struct {
	Arch types.LibArchitecture
	// Exports holds the names from the PE export table. Which entry
	// points are present decides the plugin's format.
	Exports map[string]bool
}

// HasExport reports whether the binary exports the named symbol.
func (b *Binary) HasExport(name string) bool {
	return b.Exports[name]
}

// Inspect reads a candidate plugin library and extracts its architecture and
// export table. Files the built-in PE parser cannot handle go through
// winedump; when both fail the returned error carries both causes so the
// caller can report why the file was skipped.
func Inspect(fsys types.FS, runner Runner, path string) (*Binary, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to read %s", path)
	}

	bin, peErr := parsePE(data)
	if peErr == nil {
		return bin, nil
	}

	bin, wdErr := winedumpInspect(runner, path)
	if wdErr == nil {
		return bin, nil
	}

	return nil, errors.Newf(errors.ErrBinaryParse,
		"could not inspect %s: %v (winedump fallback also failed: %v)", path, peErr, wdErr)
}
