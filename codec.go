package recast

// Codec converts between tree values and bytes. Implementations must keep
// mapping key order in both directions and produce the tree scalar forms
// (nil, bool, int64, uint64, float64, string) on Unmarshal.
type Codec interface {
	// ContentType returns the MIME type for this codec (e.g., "application/json").
	ContentType() string

	// Marshal encodes a tree into bytes.
	Marshal(tree any) ([]byte, error)

	// Unmarshal decodes bytes into a tree. Mappings come back as *Map.
	Unmarshal(data []byte) (any, error)
}
