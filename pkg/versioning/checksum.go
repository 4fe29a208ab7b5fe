package versioning

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/flowkit-dev/flowkit/pkg/models"
)

// volatileKeys are the top-level document fields excluded from checksums.
// Two workflows differing only in these fields hash identically.
var volatileKeys = []string{"createdAt", "updatedAt", "id", "versionId", "meta"}

// Checksum computes the content address of a workflow: the SHA-256 of the
// canonical serialization of the document with volatile fields stripped.
// Canonical means deterministic sorted-key ordering, which encoding/json
// guarantees for maps.
func Checksum(wf *models.Workflow) (string, error) {
	canonical, err := canonicalDocument(wf)
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(canonical)
	if err != nil {
		return "", fmt.Errorf("serializing workflow for checksum: %w", err)
	}

	sum := sha256.Sum256(data)

	return hex.EncodeToString(sum[:]), nil
}

// canonicalDocument renders the workflow as a generic map with volatile keys
// removed. Going through a JSON round trip normalizes struct field order and
// numeric representation.
func canonicalDocument(wf *models.Workflow) (map[string]any, error) {
	raw, err := json.Marshal(wf)
	if err != nil {
		return nil, fmt.Errorf("serializing workflow: %w", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("normalizing workflow: %w", err)
	}

	for _, key := range volatileKeys {
		delete(doc, key)
	}

	return doc, nil
}
