package drive

import (
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-intake/internal/connectors/cursor"
)

const CursorVersion = 1

var ErrInvalidCursor = fmt.Errorf("drive: %w", cursor.ErrInvalid)

// Cursor is the largest modifiedTime pulled so far; the next query filters
// on modifiedTime > ModifiedAfter.
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

func (c *Cursor) IsEmpty() bool { return c.ModifiedAfter.IsZero() }

func (c *Cursor) Advance(t time.Time) {
	if t.After(c.ModifiedAfter) {
		c.ModifiedAfter = t.UTC()
	}
}
