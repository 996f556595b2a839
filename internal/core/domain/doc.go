// Package domain defines the core entities of the intake engine.
//
// This package is part of the hexagonal architecture's innermost layer
// and defines the fundamental types:
//
//   - RawDocument: a candidate document produced by a connector
//   - SyncState: the per-source synchronisation state machine
//   - DetectionResult, QualityAssessment: classification pipeline outputs
//   - ProcessingResult: the per-document record of one pipeline run
//   - Source, Credentials: configured upstream systems
//
// # Import Rules
//
//   - Can Import: Standard library, google/uuid for content identities
//   - Cannot Import: Any internal/ package
package domain
