// Package objectstore holds the staging adapters for fetched document bytes.
//
// The pipeline works on files, so every adapter returns a local path from
// Put. The local adapter writes into a work directory; the s3 adapter
// uploads to a bucket and keeps a local working copy.
package objectstore
