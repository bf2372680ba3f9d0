// Package graphid derives deterministic, content-addressed identifiers for
// graph entities. Resubmitting the same logical finding or edge always maps
// to the same id, so writes converge into upserts instead of duplicating.
package graphid

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

const EditorProducer = "editor"

// EdgeID hashes the identity tuple of an edge. The id is stable across
// processes and restarts; a truncated sha256 is collision-resistant for
// practical graph sizes.
func EdgeID(dossierID uuid.UUID, fromID, toID, rel string) string {
	sum := sha256.Sum256([]byte(dossierID.String() + "|" + fromID + "|" + toID + "|" + rel))
	return "edge_" + hex.EncodeToString(sum[:8])
}

// FindingID returns the editor finding id for a claim. One editor finding
// exists per claim, so the id is derived from the claim key alone.
func FindingID(claimID string) string {
	return fmt.Sprintf("finding_%s_%s", claimID, EditorProducer)
}
