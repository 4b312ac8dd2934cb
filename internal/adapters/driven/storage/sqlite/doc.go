// Package sqlite stores conversations and chunk vectors in a single
// database file using modernc.org/sqlite, so no CGO toolchain is needed.
//
// Store exposes two views over the shared connection: ConversationStore for
// chats and their append-only messages, and VectorStore for embeddings that
// are scored in process with cosine similarity.
//
// The schema lives in numbered migrations/NNN_name.up.sql files, applied in
// order on open and recorded in schema_migrations. The file defaults to
// ~/.docchat/data/docchat.db and runs in WAL mode.
package sqlite
