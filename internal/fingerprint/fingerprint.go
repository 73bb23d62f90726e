package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Compute returns a stable content fingerprint for extracted resume text.
// The text is normalized first (lowercased, whitespace runs collapsed) so that
// formatting-only re-uploads of the same document still match.
func Compute(text string) string {
	sum := sha256.Sum256([]byte(Normalize(text)))
	return hex.EncodeToString(sum[:])
}

// Normalize lowercases the text and collapses every whitespace run into a
// single space.
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}
