package common

import (
	"crypto/sha1"
	"encoding/hex"
)

// ArtifactID derives a stable identifier from an artifact's source path.
// The same path always yields the same identifier so re-running an ingest
// over the same folder does not renumber anything the user has curated.
func ArtifactID(path string) string {

	// h := sha256.Sum256
	h := sha1.Sum([]byte(path))

	str := hex.EncodeToString(h[:])
	return str[:16]
}
