// Package cursor packs connector sync positions into the opaque string kept
// in SyncState.Cursor. Every connector cursor is a JSON object carrying a
// "v" schema version, encoded as unpadded URL-safe base64.
package cursor

import (
	"encoding/base64"
	"encoding/json"
	"errors"
)

// ErrInvalid is returned for cursors that are not base64 JSON or that were
// written by a newer schema.
var ErrInvalid = errors.New("invalid cursor")

// Encode returns the cursor string for v, or "" if v cannot be marshalled.
func Encode(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(data)
}

// Decode unpacks s into dst. An empty s leaves dst untouched, so callers
// pass a fresh cursor and get it back on a first sync.
func Decode(s string, dst any, current int) error {
	if s == "" {
		return nil
	}
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return ErrInvalid
	}
	var header struct {
		V int `json:"v"`
	}
	if err := json.Unmarshal(data, &header); err != nil || header.V > current {
		return ErrInvalid
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return ErrInvalid
	}
	return nil
}
