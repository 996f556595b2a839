// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - Connector / ConnectorFactory: produce batches of candidate documents
//   - DedupStore: processed-id sets, checksum index, sync state and error logs
//   - SourceStore, CredentialsStore, AuthProviderStore: source configuration
//   - ObjectStore: staging area for fetched bytes
//   - Detector, Assessor, Extractor: the classification pipeline collaborators
//   - ResultStore: hand-off of processing records
//   - ConfigStore: application configuration
//
// # Optional Interfaces
//
// These can be nil, the pipeline degrades gracefully:
//
//   - Enhancer: without it ENHANCE decisions dispatch the original file
//   - OCREngine: without it image extraction fails per document
//   - ProgressReporter: without it stage events are dropped
//   - TextPipeline: without it extracted text is not chunked
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or extractor package
package driven
