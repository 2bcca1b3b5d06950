package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
)

const imageFileNamePrefixLength = 16

// Sum returns the SHA-256 digest of data as 64 lowercase hex characters.
// Identical inputs always produce identical digests, including empty input.
func Sum(data []byte) string {
	digest := sha256.Sum256(data)
	return hex.EncodeToString(digest[:])
}

// ImageFileName derives the side-file name for an image clip from its
// content fingerprint: the first 16 hex characters plus the png extension.
func ImageFileName(hash string) string {
	if len(hash) > imageFileNamePrefixLength {
		hash = hash[:imageFileNamePrefixLength]
	}
	return hash + ".png"
}
