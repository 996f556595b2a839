// Package services holds the intake engine: the sync state machine, the
// classification pipeline and the scheduler, plus the source, credential
// and settings services that the CLI, TUI, HTTP API and MCP server drive.
// Storage, connectors and OCR are reached only through driven ports.
package services
