package filesystem

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/robbert-vdh/yabridge/pkg/types"
)

// HashFile returns the SHA-256 hex digest of a file's contents. Content
// hashes gate no-op copies during reconciliation and detect replaced host
// binaries between runs.
func HashFile(fsys types.FS, path string) (string, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
