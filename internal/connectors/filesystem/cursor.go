package filesystem

import (
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-intake/internal/connectors/cursor"
)

const CursorVersion = 1

var ErrInvalidCursor = fmt.Errorf("filesystem: %w", cursor.ErrInvalid)

// Cursor is the newest file modification time walked so far.
type Cursor struct {
	Version       int       `json:"v"`
	ModifiedAfter time.Time `json:"modified_after"`
}

func NewCursor() *Cursor {
	return &Cursor{Version: CursorVersion}
}

func (c *Cursor) Encode() string { return cursor.Encode(c) }

func DecodeCursor(s string) (*Cursor, error) {
	c := NewCursor()
	if err := cursor.Decode(s, c, CursorVersion); err != nil {
		return nil, ErrInvalidCursor
	}
	return c, nil
}

func (c *Cursor) Advance(t time.Time) {
	if t.After(c.ModifiedAfter) {
		c.ModifiedAfter = t.UTC()
	}
}
