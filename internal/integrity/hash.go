// Package integrity computes deterministic digests over JSON-encodable data,
// used to detect tampering or corruption of persisted files between writes.
package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Hash returns the hex-encoded SHA-256 digest of a canonical JSON rendering
// of v. Canonicalization round-trips the value through generic JSON so every
// object level serializes with sorted keys: structurally-equal inputs hash
// identically regardless of original key insertion order or Go type.
func Hash(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return "", err
	}

	canonical, err := json.Marshal(generic)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
