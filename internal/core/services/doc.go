// Package services holds the document chat pipeline.
//
// VectorIndex batches writes to a VectorStore and reports the failing
// batch. IngestionService turns an uploaded PDF into namespaced vectors,
// RetrievalService picks the passages that answer a query, and ChatService
// streams a grounded reply and persists the turn once it completes.
// ConversationService ties uploads, ingestion and chats together for the
// driving adapters, and SettingsService reads and writes configuration.
//
// Services depend only on domain and the port interfaces.
package services
