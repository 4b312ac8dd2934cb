// Package driven defines what the pipeline needs from infrastructure:
// model providers, the vector index, file and chat storage, and config.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - EmbeddingService: Maps text to vectors
//   - LLMService: Streams chat completions
//   - VectorStore: Namespaced similarity index
//   - ObjectStore: Uploaded file storage
//   - PageExtractor: Turns PDF bytes into page text
//   - ConversationStore: Conversation and message persistence
//   - IngestionStatusStore: Ingestion progress tracking
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
//   - PromptStore: User-editable prompt templates. Without it, embedded defaults are used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or service package
package driven
