package analysis

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns the content fingerprint for a payload: the SHA-256
// digest of the raw bytes, hex-encoded. Identical bytes always map to the
// same fingerprint regardless of modality, which is what makes it usable as
// a decision cache key.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
