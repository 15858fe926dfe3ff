// Package moduleinfo rewrites VST3 moduleinfo.json files so their class IDs
// match the byte order expected on this platform. Windows stores the 16 byte
// class IDs in COM's mixed-endian layout while Linux and macOS store them as
// plain byte arrays, so a moduleinfo.json file copied out of a Windows VST3
// bundle advertises IDs a Linux host will never match. The transformation
// swaps the affected bytes and is its own inverse.
//
// Only the class ID strings are interpreted. Everything else in the document
// is carried along verbatim so the rewritten file stays faithful to whatever
// the plugin shipped with.
//
// https://steinbergmedia.github.io/vst3_dev_portal/pages/Technical+Documentation/VST+Module+Architecture/ModuleInfo-JSON.html
package moduleinfo

import (
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/robbert-vdh/yabridge/pkg/errors"
)

// ModuleInfo holds the parts of a moduleinfo.json document we need to
// rewrite, plus the untouched remainder of the document.
type ModuleInfo struct {
	Classes []Class
	// Compatibility mappings are the whole reason moduleinfo.json exists,
	// but there are plugins in the wild that ship the file without them.
	// A nil slice means the key was absent and stays absent on output.
	Compatibility []CompatibilityMapping

	other map[string]json.RawMessage
}

// Class is a single class object. Only the CID is interpreted.
type Class struct {
	CID string

	other map[string]json.RawMessage
}

// CompatibilityMapping declares that the class New replaces the classes in
// Old, so hosts can migrate sessions saved with the old plugin.
type CompatibilityMapping struct {
	New string
	Old []string

	other map[string]json.RawMessage
}

// Parse decodes a moduleinfo.json document.
func Parse(data []byte) (*ModuleInfo, error) {
	var info ModuleInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, errors.Wrap(err, errors.ErrInvalidInput, "could not parse moduleinfo.json")
	}

	return &info, nil
}

// Rewrite parses a moduleinfo.json document, rewrites every class ID in it,
// and renders the result.
func Rewrite(data []byte) ([]byte, error) {
	info, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if err := info.RewriteUIDs(); err != nil {
		return nil, err
	}

	return info.Render()
}

// RewriteUIDs converts every class ID in the document between the COM byte
// order and the plain byte array order. Applying it twice restores the
// original document.
func (m *ModuleInfo) RewriteUIDs() error {
	for i := range m.Classes {
		rewritten, err := rewriteHexUID(m.Classes[i].CID)
		if err != nil {
			return err
		}
		m.Classes[i].CID = rewritten
	}

	for i := range m.Compatibility {
		rewritten, err := rewriteHexUID(m.Compatibility[i].New)
		if err != nil {
			return err
		}
		m.Compatibility[i].New = rewritten

		for j, old := range m.Compatibility[i].Old {
			rewritten, err := rewriteHexUID(old)
			if err != nil {
				return err
			}
			m.Compatibility[i].Old[j] = rewritten
		}
	}

	return nil
}

// Render serializes the document as indented JSON with a trailing newline.
// Object keys are emitted in sorted order, so the output is deterministic
// and can be compared byte for byte against a previously written file.
func (m *ModuleInfo) Render() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "could not serialize moduleinfo.json")
	}

	return append(data, '\n'), nil
}

func (m *ModuleInfo) UnmarshalJSON(data []byte) error {
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	m.Classes = nil
	m.Compatibility = nil
	if raw, ok := fields["Classes"]; ok {
		if err := json.Unmarshal(raw, &m.Classes); err != nil {
			return err
		}
		delete(fields, "Classes")
	}
	if raw, ok := fields["Compatibility"]; ok {
		if err := json.Unmarshal(raw, &m.Compatibility); err != nil {
			return err
		}
		delete(fields, "Compatibility")
	}
	m.other = fields

	return nil
}

func (m ModuleInfo) MarshalJSON() ([]byte, error) {
	fields := make(map[string]json.RawMessage, len(m.other)+2)
	for key, value := range m.other {
		fields[key] = value
	}

	if m.Classes != nil {
		classes, err := json.Marshal(m.Classes)
		if err != nil {
			return nil, err
		}
		fields["Classes"] = classes
	}
	if m.Compatibility != nil {
		mappings, err := json.Marshal(m.Compatibility)
		if err != nil {
			return nil, err
		}
		fields["Compatibility"] = mappings
	}

	return json.Marshal(fields)
}

func (c *Class) UnmarshalJSON(data []byte) error {
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	c.CID = ""
	if raw, ok := fields["CID"]; ok {
		if err := json.Unmarshal(raw, &c.CID); err != nil {
			return err
		}
		delete(fields, "CID")
	}
	c.other = fields

	return nil
}

func (c Class) MarshalJSON() ([]byte, error) {
	fields := make(map[string]json.RawMessage, len(c.other)+1)
	for key, value := range c.other {
		fields[key] = value
	}

	cid, err := json.Marshal(c.CID)
	if err != nil {
		return nil, err
	}
	fields["CID"] = cid

	return json.Marshal(fields)
}

func (c *CompatibilityMapping) UnmarshalJSON(data []byte) error {
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	c.New = ""
	c.Old = nil
	if raw, ok := fields["New"]; ok {
		if err := json.Unmarshal(raw, &c.New); err != nil {
			return err
		}
		delete(fields, "New")
	}
	if raw, ok := fields["Old"]; ok {
		if err := json.Unmarshal(raw, &c.Old); err != nil {
			return err
		}
		delete(fields, "Old")
	}
	c.other = fields

	return nil
}

func (c CompatibilityMapping) MarshalJSON() ([]byte, error) {
	fields := make(map[string]json.RawMessage, len(c.other)+2)
	for key, value := range c.other {
		fields[key] = value
	}

	newCID, err := json.Marshal(c.New)
	if err != nil {
		return nil, err
	}
	fields["New"] = newCID

	oldCIDs, err := json.Marshal(c.Old)
	if err != nil {
		return nil, err
	}
	fields["Old"] = oldCIDs

	return json.Marshal(fields)
}

func rewriteHexUID(hexUID string) (string, error) {
	uid, err := decodeHexUID(hexUID)
	if err != nil {
		return "", err
	}

	return encodeHexUID(rewriteUIDByteOrder(uid)), nil
}

func decodeHexUID(hexUID string) ([16]byte, error) {
	var uid [16]byte
	if len(hexUID) != 32 {
		return uid, errors.Newf(errors.ErrInvalidInput, "incorrect UID hex string length: %q", hexUID)
	}

	decoded, err := hex.DecodeString(hexUID)
	if err != nil {
		return uid, errors.Wrapf(err, errors.ErrInvalidInput, "invalid hexadecimal UID: %q", hexUID)
	}
	copy(uid[:], decoded)

	return uid, nil
}

func encodeHexUID(uid [16]byte) string {
	return strings.ToUpper(hex.EncodeToString(uid[:]))
}

// rewriteUIDByteOrder switches a UID between the COM byte order and the
// plain byte array order. COM stores the leading DWORD and two WORDs of a
// GUID little-endian, so the first four bytes are reversed and the next four
// are swapped pairwise. The trailing eight bytes are identical in both
// representations.
func rewriteUIDByteOrder(old [16]byte) [16]byte {
	uid := old
	uid[0] = old[3]
	uid[1] = old[2]
	uid[2] = old[1]
	uid[3] = old[0]
	uid[4] = old[5]
	uid[5] = old[4]
	uid[6] = old[7]
	uid[7] = old[6]

	return uid
}
