// Package identity derives deterministic record ids from content.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
)

// ContentHash returns a stable hex id for the given text. Identical text always
// yields the same id, so re-ingesting byte-identical content is an idempotent
// upsert rather than a duplicate.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// ChunkHash returns the id for a chunk of the given resource. The parent id is
// mixed in so identical chunk text under different resources does not collide.
func ChunkHash(resourceID, chunkText string) string {
	return ContentHash(resourceID + "-" + chunkText)
}
