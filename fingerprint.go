package recast

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint returns the hex BLAKE2b-256 digest of the record's encoded
// tree in its JSON form. Records that encode to equal trees, key order
// included, have equal fingerprints.
func (r *Registry) Fingerprint(v any) (string, error) {
	tree, err := r.EncodeRecord(v)
	if err != nil {
		return "", err
	}
	data, err := tree.MarshalJSON()
	if err != nil {
		return "", newCodecError(ErrMarshal, err)
	}
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Fingerprint digests v using the default registry.
func Fingerprint(v any) (string, error) {
	return defaultRegistry.Fingerprint(v)
}
