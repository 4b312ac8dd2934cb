package domain

import (
	"crypto/md5" //nolint:gosec // content addressing, not a security boundary
	"encoding/hex"
	"unicode/utf8"
)

// MaxMetadataTextBytes bounds the chunk text stored alongside a vector.
// Vector stores reject payloads above roughly 40KB per entry.
const MaxMetadataTextBytes = 36000

// Document is an uploaded file split into pages.
// It is identified by its object storage key and is immutable once ingested.
type Document struct {
	// Key is the object storage key the document was uploaded under.
	Key string

	// Pages holds the extracted text in page order.
	Pages []Page
}

// Page is the extracted text of a single page.
type Page struct {
	// Number is the 1-based page number.
	Number int

	// Text is the raw extracted text.
	Text string
}

// Chunk is an overlapping segment of a single page's normalised text.
type Chunk struct {
	// ID is the content hash of Text, see ContentHash.
	ID string

	// PageNumber is the page the chunk was cut from.
	PageNumber int

	// Index is the ordinal position within the page.
	Index int

	// Text is the chunk content.
	Text string
}

// Metadata returns the metadata stored with the chunk's vector.
func (c Chunk) Metadata() ChunkMetadata {
	return ChunkMetadata{
		PageNumber: c.PageNumber,
		Text:       TruncateUTF8(c.Text, MaxMetadataTextBytes),
	}
}

// ChunkMetadata is the retrievable payload kept next to each vector.
type ChunkMetadata struct {
	PageNumber int    `json:"pageNumber"`
	Text       string `json:"text"`
}

// VectorEntry is a single record written to the vector index.
type VectorEntry struct {
	ID       string        `json:"id"`
	Vector   []float32     `json:"values"`
	Metadata ChunkMetadata `json:"metadata"`
}

// VectorMatch is a query hit. Higher scores are more similar.
type VectorMatch struct {
	ID       string        `json:"id"`
	Score    float64       `json:"score"`
	Metadata ChunkMetadata `json:"metadata"`
}

// ContentHash returns the hex MD5 digest of text.
// Re-ingesting identical text yields the same id, so upserts are idempotent.
func ContentHash(text string) string {
	sum := md5.Sum([]byte(text)) //nolint:gosec // see import
	return hex.EncodeToString(sum[:])
}

// TruncateUTF8 cuts s to at most maxBytes without splitting a rune.
func TruncateUTF8(s string, maxBytes int) string {
	if maxBytes <= 0 {
		return ""
	}
	if len(s) <= maxBytes {
		return s
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
