package usage

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"listingforge/gateway/pkg/sanitizer"
)

// HashContent returns the hex SHA-256 of the content's JSON encoding.
func HashContent(c sanitizer.Content) string {
	b, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
