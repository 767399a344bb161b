package usecase

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
)

// GenerateShortCode returns the first length hex characters of the SHA-256
// digest of originalURL. The result depends on nothing but its arguments.
func GenerateShortCode(originalURL string, length int) string {
	sum := sha256.Sum256([]byte(originalURL))
	digest := hex.EncodeToString(sum[:])

	if length <= 0 || length > len(digest) {
		return digest
	}

	return digest[:length]
}

// isValidURL reports whether rawURL parses with a non-empty scheme and host.
func isValidURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	return u.Scheme != "" && u.Host != ""
}
