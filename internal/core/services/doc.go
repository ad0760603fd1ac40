// Package services contains the application-level orchestration:
// the ingestion pipeline and the retrieval engine. Services depend on
// domain types, the ports, and the pure chunking/segmentation
// packages; adapters are injected at composition time.
package services
