// Package testutil builds the synthetic plugin binaries the tests feed
// through the inspection and discovery code. The images are minimal but
// well-formed, so the real parsers accept them.
package testutil

import (
	"bytes"
	"debug/elf"
	"debug/pe"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robbert-vdh/yabridge/pkg/types"
)

const (
	peHeaderOffset = 0x80
	peSectionRVA   = 0x1000
	peRawOffset    = 0x200
	peRawSize      = 0x200
)

// BuildPE assembles a PE image with a single .edata section holding an
// export directory for the given symbol names. Passing no exports produces
// an image without an export table.
func BuildPE(t *testing.T, arch types.LibArchitecture, exports []string) []byte {
	t.Helper()

	blob := buildExportData(exports)
	require.LessOrEqual(t, len(blob), peRawSize, "export data overflows the section")

	exportDir := pe.DataDirectory{}
	if len(exports) > 0 {
		exportDir = pe.DataDirectory{VirtualAddress: peSectionRVA, Size: uint32(len(blob))}
	}

	hdr := new(bytes.Buffer)
	if arch == types.Lib64 {
		writeLE(t, hdr, pe.FileHeader{
			Machine:              pe.IMAGE_FILE_MACHINE_AMD64,
			NumberOfSections:     1,
			SizeOfOptionalHeader: 240,
			Characteristics:      0x2022,
		})
		oh := pe.OptionalHeader64{
			Magic:               0x20b,
			ImageBase:           0x180000000,
			SectionAlignment:    0x1000,
			FileAlignment:       0x200,
			SizeOfImage:         0x2000,
			SizeOfHeaders:       peRawOffset,
			NumberOfRvaAndSizes: 16,
		}
		oh.DataDirectory[pe.IMAGE_DIRECTORY_ENTRY_EXPORT] = exportDir
		writeLE(t, hdr, oh)
	} else {
		writeLE(t, hdr, pe.FileHeader{
			Machine:              pe.IMAGE_FILE_MACHINE_I386,
			NumberOfSections:     1,
			SizeOfOptionalHeader: 224,
			Characteristics:      0x2102,
		})
		oh := pe.OptionalHeader32{
			Magic:               0x10b,
			ImageBase:           0x10000000,
			SectionAlignment:    0x1000,
			FileAlignment:       0x200,
			SizeOfImage:         0x2000,
			SizeOfHeaders:       peRawOffset,
			NumberOfRvaAndSizes: 16,
		}
		oh.DataDirectory[pe.IMAGE_DIRECTORY_ENTRY_EXPORT] = exportDir
		writeLE(t, hdr, oh)
	}
	writeLE(t, hdr, pe.SectionHeader32{
		Name:             [8]byte{'.', 'e', 'd', 'a', 't', 'a'},
		VirtualSize:      peRawSize,
		VirtualAddress:   peSectionRVA,
		SizeOfRawData:    peRawSize,
		PointerToRawData: peRawOffset,
		Characteristics:  0x40000040,
	})

	img := make([]byte, peRawOffset+peRawSize)
	copy(img, "MZ")
	binary.LittleEndian.PutUint32(img[0x3c:], peHeaderOffset)
	copy(img[peHeaderOffset:], "PE\x00\x00")
	require.LessOrEqual(t, peHeaderOffset+4+hdr.Len(), peRawOffset, "headers overflow into section data")
	copy(img[peHeaderOffset+4:], hdr.Bytes())
	copy(img[peRawOffset:], blob)
	return img
}

// BuildHeaderOnlyPE produces an image without an optional header, leaving
// only the COFF machine field to decide the architecture.
func BuildHeaderOnlyPE(t *testing.T, machine uint16) []byte {
	t.Helper()

	hdr := new(bytes.Buffer)
	writeLE(t, hdr, pe.FileHeader{Machine: machine})

	img := make([]byte, peHeaderOffset+4+hdr.Len())
	copy(img, "MZ")
	binary.LittleEndian.PutUint32(img[0x3c:], peHeaderOffset)
	copy(img[peHeaderOffset:], "PE\x00\x00")
	copy(img[peHeaderOffset+4:], hdr.Bytes())
	return img
}

// buildExportData lays out an IMAGE_EXPORT_DIRECTORY followed by its
// address, name pointer, ordinal and string tables, with all RVAs relative
// to peSectionRVA.
func buildExportData(exports []string) []byte {
	n := uint32(len(exports))
	eatRVA := uint32(peSectionRVA) + 40
	namePtrsRVA := eatRVA + 4*n
	ordinalsRVA := namePtrsRVA + 4*n
	stringsRVA := ordinalsRVA + 2*n

	var strs bytes.Buffer
	dllNameRVA := stringsRVA
	strs.WriteString("plugin.dll")
	strs.WriteByte(0)
	nameRVAs := make([]uint32, len(exports))
	for i, name := range exports {
		nameRVAs[i] = stringsRVA + uint32(strs.Len())
		strs.WriteString(name)
		strs.WriteByte(0)
	}

	buf := new(bytes.Buffer)
	u32 := func(v uint32) { _ = binary.Write(buf, binary.LittleEndian, v) }
	u16 := func(v uint16) { _ = binary.Write(buf, binary.LittleEndian, v) }

	u32(0) // characteristics
	u32(0) // timestamp
	u16(0) // major version
	u16(0) // minor version
	u32(dllNameRVA)
	u32(1) // ordinal base
	u32(n) // number of functions
	u32(n) // number of names
	u32(eatRVA)
	u32(namePtrsRVA)
	u32(ordinalsRVA)
	for i := uint32(0); i < n; i++ {
		u32(0x4000 + i)
	}
	for _, rva := range nameRVAs {
		u32(rva)
	}
	for i := uint32(0); i < n; i++ {
		u16(uint16(i))
	}
	buf.Write(strs.Bytes())
	return buf.Bytes()
}

// BuildELF builds a header-only ELF shared object, enough for the
// architecture probe.
func BuildELF(t *testing.T, class elf.Class) []byte {
	t.Helper()

	ident := [16]byte{0x7f, 'E', 'L', 'F', byte(class), byte(elf.ELFDATA2LSB), byte(elf.EV_CURRENT)}
	buf := new(bytes.Buffer)
	if class == elf.ELFCLASS64 {
		writeLE(t, buf, elf.Header64{
			Ident:   ident,
			Type:    uint16(elf.ET_DYN),
			Machine: uint16(elf.EM_X86_64),
			Version: uint32(elf.EV_CURRENT),
			Ehsize:  64,
		})
	} else {
		writeLE(t, buf, elf.Header32{
			Ident:   ident,
			Type:    uint16(elf.ET_DYN),
			Machine: uint16(elf.EM_386),
			Version: uint32(elf.EV_CURRENT),
			Ehsize:  52,
		})
	}
	return buf.Bytes()
}

func writeLE(t *testing.T, buf *bytes.Buffer, v interface{}) {
	t.Helper()
	require.NoError(t, binary.Write(buf, binary.LittleEndian, v))
}
