// Package extractors holds the format extractors used by the intake
// pipeline and the ordered Set the orchestrator dispatches through.
//
// Each sub-package handles one format family:
//
//   - text: plain text, markdown and csv
//   - html: HTML converted to markdown
//   - email: RFC 822 messages
//   - office: PDF and office formats via docconv
//   - image: OCR through a driven.OCREngine
//   - cad: DXF text entities
package extractors
