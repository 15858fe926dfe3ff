package symbols

import (
	"bufio"
	"bytes"
	"fmt"
	"os/exec"
	"strings"

	"github.com/robbert-vdh/yabridge/pkg/types"
)

// winedumpBin is Wine's PE inspection tool. It handles some packed and
// otherwise unusual binaries that the built-in parser rejects.
const winedumpBin = "winedump"

// Runner executes an external program and returns its standard output.
type Runner interface {
	Run(name string, args ...string) ([]byte, error)
}

// NewExecRunner returns a Runner backed by os/exec.
func NewExecRunner() Runner {
	return execRunner{}
}

type execRunner struct{}

func (execRunner) Run(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).Output()
}

// winedumpInspect recovers a binary's architecture and exports through
// winedump when direct parsing fails.
func winedumpInspect(r Runner, path string) (*Binary, error) {
	arch, err := winedumpArchitecture(r, path)
	if err != nil {
		return nil, err
	}
	exports, err := winedumpExports(r, path)
	if err != nil {
		return nil, err
	}

	bin := &Binary{Arch: arch, Exports: map[string]bool{}}
	for _, name := range exports {
		bin.Exports[name] = true
	}
	return bin, nil
}

// winedumpArchitecture reads the COFF machine type from winedump's header
// dump. The relevant line looks like:
//
//	Machine:                      014C (i386)
func winedumpArchitecture(r Runner, path string) (types.LibArchitecture, error) {
	out, err := r.Run(winedumpBin, path)
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", winedumpBin, path, err)
	}

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		idx := strings.Index(line, "Machine:")
		if idx < 0 {
			continue
		}
		fields := strings.Fields(line[idx+len("Machine:"):])
		if len(fields) == 0 {
			continue
		}
		if strings.HasPrefix(fields[0], "014C") {
			return types.Lib32, nil
		}
		return types.Lib64, nil
	}
	return "", fmt.Errorf("no machine type in %s output for %s", winedumpBin, path)
}

// winedumpExports parses the symbol names out of `winedump -j export`. The
// table starts below a header line containing "Entry Pt" and runs until the
// first blank line, with the name as the third column:
//
//	 Entry Pt  Ordn  Name
//	00046da4     1 VSTPluginMain
func winedumpExports(r Runner, path string) ([]string, error) {
	out, err := r.Run(winedumpBin, "-j", "export", path)
	if err != nil {
		return nil, fmt.Errorf("%s -j export %s: %w", winedumpBin, path, err)
	}

	var names []string
	inTable := false
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		if !inTable {
			if strings.Contains(line, "Entry Pt") {
				inTable = true
			}
			continue
		}
		if strings.TrimSpace(line) == "" {
			break
		}
		fields := strings.Fields(line)
		if len(fields) >= 3 {
			names = append(names, fields[2])
		}
	}
	return names, nil
}
