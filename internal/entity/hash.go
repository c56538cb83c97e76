package entity

// Content digests for the append-only camera/vehicle dimension rows.
// The digest is computed over a canonical JSON rendering (RFC 8785) of the
// entity's business fields, so key ordering and numeric formatting of the
// input never influence identity. SHA-1 is sufficient here: the digest is
// an identity, not a security boundary.

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
)

// Digest computes the hex SHA-1 content digest of the given field mapping.
// Callers are expected to have dropped nil-valued keys already (the
// Canonical methods on the schema types do), so an omitted key and an
// explicit null produce the same digest.
func Digest(fields map[string]any) (string, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("failed to marshal canonical fields: %w", err)
	}

	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize fields: %w", err)
	}

	sum := sha1.Sum(canonical)
	return hex.EncodeToString(sum[:]), nil
}
