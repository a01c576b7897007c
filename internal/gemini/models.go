package gemini

// RawStoreRecord is one untyped item decoded from the model's JSON output.
// Key names and value types vary between responses.
type RawStoreRecord map[string]interface{}

// GroundedText is the text of a generation plus its grounding metadata.
// Supports and Sources are nil when the provider attached no metadata.
type GroundedText struct {
	Text     string
	Supports []CitationSupport
	Sources  []CitationSource
}

// CitationSupport ties a span of the response text to one or more sources.
// EndIndex is a byte offset into GroundedText.Text.
type CitationSupport struct {
	EndIndex     int
	ChunkIndices []int
}

// CitationSource is a web page the model grounded its answer on.
type CitationSource struct {
	URI   string
	Title string
}
