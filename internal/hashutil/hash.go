// Package hashutil provides the content-hash primitive shared by the
// Knowledge Store (File.checksum), the Bootstrap scanner, and the Agent
// Session Surface's file monitor, grounded on the teacher's small-file
// hashing convention used to defeat same-size rewrites within one mtime
// second (internal/session file-snapshot comments in codeNERD).
package hashutil

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
)

// SmallFileLimit is the size up to which the agent file monitor hashes
// content in addition to comparing size/mtime (spec §3 File invariant,
// §4.7). ChecksumFile does not consult it and always hashes the whole file.
const SmallFileLimit = 64 * 1024

// Bytes returns the hex sha256 checksum of content.
func Bytes(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// ChecksumFile computes the content checksum of the file at path, reading
// its full bytes. Spec §3: "checksum is updated whenever mtime or size
// changes, using a small-file full hash to defeat same-size rewrites."
func ChecksumFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return Bytes(data), nil
}
