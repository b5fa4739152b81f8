// Package checksum computes SHA-256 digests of artifact text. The API uses them
// as strong ETags so clients can revalidate model.yaml and MODEL.py cheaply.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// CalculateSHA256 calculates the SHA256 checksum of data from a reader
func CalculateSHA256(reader io.Reader) (string, error) {
	hasher := sha256.New()

	if _, err := io.Copy(hasher, reader); err != nil {
		return "", fmt.Errorf("failed to calculate checksum: %w", err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// SHA256String returns the hex SHA256 of s
func SHA256String(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// ETag returns a strong entity tag for content
func ETag(content string) string {
	return `"sha256-` + SHA256String(content) + `"`
}

// MatchesETag reports whether an If-None-Match header value names etag.
// "*" matches anything; weak validators compare by their opaque tag.
func MatchesETag(ifNoneMatch, etag string) bool {
	for _, candidate := range strings.Split(ifNoneMatch, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}
