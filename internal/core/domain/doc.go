// Package domain defines the core business entities for docchat.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document and Page: an uploaded PDF split into page text
//   - Chunk: an overlapping, content-addressed segment of one page
//   - VectorEntry and VectorMatch: what the vector index stores and returns
//   - Conversation and Message: the persisted chat history
//   - IngestStatus: progress of the per-document ingestion state machine
//
// It also owns the pure mappings the pipeline relies on: Namespace turns a
// storage key into a store-safe namespace and ContentHash turns chunk text
// into a stable id.
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
