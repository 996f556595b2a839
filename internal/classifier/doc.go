// Package classifier decides a document's FileType by fusing three votes:
// the filename extension, a container-aware MIME sniff and a magic-number
// sniff of the leading bytes.
//
// Each vote contributes confidence*weight to a per-type score. A winning
// score below LowConfidence falls back to a fixed priority order over the
// types that received votes. Detection never fails: unreadable input is
// reported as UNKNOWN with zero confidence.
package classifier
