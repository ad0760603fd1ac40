// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - DocumentStore: document and chunk persistence plus similarity queries
//   - EmbeddingService: text to vector (external capability)
//   - TokenCounter: text to exact token count (external capability)
//   - TextExtractor: file metadata and text extraction
//   - ConfigStore: application configuration
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
