package builder

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// ContentHash canonicalizes a payload with stable key ordering and
// hashes it, so byte-identical items always land on the same hash
// regardless of field order (spec §3, §4.5, §9 "Duplicate ingest").
func ContentHash(payload json.RawMessage) (string, error) {
	canon, err := canonicalizeJSON(payload)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canon)
	return hex.EncodeToString(sum[:]), nil
}

func canonicalizeJSON(raw json.RawMessage) ([]byte, error) {
	var obj any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	return json.Marshal(obj)
}
