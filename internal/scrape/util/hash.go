package util

import (
	"crypto/sha1"
	"encoding/hex"
)

// HashString gives a short stable digest, used as the content-hash fallback
// identity for sources that expose no native posting id.
func HashString(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])[:16]
}
