package symbols

import (
	"bytes"
	"debug/pe"
	"encoding/binary"
	"fmt"

	"github.com/robbert-vdh/yabridge/pkg/types"
)

// exportDirSize is the size of IMAGE_EXPORT_DIRECTORY on disk.
const exportDirSize = 40

// parsePE extracts the architecture and exported symbol names from a Windows
// PE image. debug/pe parses the headers but does not expose the export
// table, so that part is walked by hand: data directory 0 points at an
// IMAGE_EXPORT_DIRECTORY whose name table is an array of RVAs to
// NUL-terminated strings.
func parsePE(data []byte) (*Binary, error) {
	f, err := pe.NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("not a PE file: %w", err)
	}
	defer f.Close()

	bin := &Binary{Exports: map[string]bool{}}

	var exportDir pe.DataDirectory
	switch hdr := f.OptionalHeader.(type) {
	case *pe.OptionalHeader64:
		bin.Arch = types.Lib64
		exportDir = hdr.DataDirectory[pe.IMAGE_DIRECTORY_ENTRY_EXPORT]
	case *pe.OptionalHeader32:
		bin.Arch = types.Lib32
		exportDir = hdr.DataDirectory[pe.IMAGE_DIRECTORY_ENTRY_EXPORT]
	default:
		// No optional header, fall back on the COFF machine type. An
		// unknown machine is treated as 64-bit, matching what Wine
		// does for such files.
		switch f.FileHeader.Machine {
		case pe.IMAGE_FILE_MACHINE_I386:
			bin.Arch = types.Lib32
		default:
			bin.Arch = types.Lib64
		}
		return bin, nil
	}

	if exportDir.VirtualAddress == 0 || exportDir.Size == 0 {
		return bin, nil
	}

	img := peImage{file: f}

	dir, err := img.view(exportDir.VirtualAddress, exportDirSize)
	if err != nil {
		return nil, fmt.Errorf("malformed export directory: %w", err)
	}
	numberOfNames := binary.LittleEndian.Uint32(dir[24:])
	addressOfNames := binary.LittleEndian.Uint32(dir[32:])

	if numberOfNames == 0 {
		return bin, nil
	}

	names, err := img.view(addressOfNames, uint64(numberOfNames)*4)
	if err != nil {
		return nil, fmt.Errorf("malformed export name table: %w", err)
	}
	for i := uint32(0); i < numberOfNames; i++ {
		nameRVA := binary.LittleEndian.Uint32(names[i*4:])
		name, err := img.cstring(nameRVA)
		if err != nil {
			return nil, fmt.Errorf("malformed export name %d: %w", i, err)
		}
		bin.Exports[name] = true
	}

	return bin, nil
}

// peImage resolves RVAs against a file's section table. Section contents are
// cached because the name table and the strings it points at usually live in
// the same section.
type peImage struct {
	file    *pe.File
	section *pe.Section
	data    []byte
}

// view returns size bytes starting at the given RVA.
func (img *peImage) view(rva uint32, size uint64) ([]byte, error) {
	data, offset, err := img.load(rva)
	if err != nil {
		return nil, err
	}
	if uint64(offset)+size > uint64(len(data)) {
		return nil, fmt.Errorf("RVA 0x%x+%d is out of bounds", rva, size)
	}
	return data[offset : uint64(offset)+size], nil
}

// cstring reads the NUL-terminated string at the given RVA.
func (img *peImage) cstring(rva uint32) (string, error) {
	data, offset, err := img.load(rva)
	if err != nil {
		return "", err
	}
	end := bytes.IndexByte(data[offset:], 0)
	if end < 0 {
		return "", fmt.Errorf("unterminated string at RVA 0x%x", rva)
	}
	return string(data[offset : int(offset)+end]), nil
}

func (img *peImage) load(rva uint32) ([]byte, uint32, error) {
	if img.section != nil && sectionContains(img.section, rva) {
		return img.data, rva - img.section.VirtualAddress, nil
	}
	for _, sec := range img.file.Sections {
		if !sectionContains(sec, rva) {
			continue
		}
		data, err := sec.Data()
		if err != nil {
			return nil, 0, fmt.Errorf("failed to read section %s: %w", sec.Name, err)
		}
		img.section = sec
		img.data = data
		return data, rva - sec.VirtualAddress, nil
	}
	return nil, 0, fmt.Errorf("RVA 0x%x is not mapped by any section", rva)
}

func sectionContains(sec *pe.Section, rva uint32) bool {
	size := sec.VirtualSize
	if size == 0 {
		size = sec.Size
	}
	return rva >= sec.VirtualAddress && uint64(rva) < uint64(sec.VirtualAddress)+uint64(size)
}
