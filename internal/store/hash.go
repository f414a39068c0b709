package store

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// HashInput computes the SHA-256 of a parse input with line endings
// normalized, so the same paste saved from Windows and Unix hashes alike.
func HashInput(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	h := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%x", h)
}
