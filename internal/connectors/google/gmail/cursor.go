package gmail

import (
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-intake/internal/connectors/cursor"
)

const CursorVersion = 1

var ErrInvalidCursor = fmt.Errorf("gmail: %w", cursor.ErrInvalid)

// Cursor holds the internal date of the newest message pulled. Incremental
// syncs ask Gmail for mail after it.
type Cursor struct {
	Version int       `json:"v"`
	After   time.Time `json:"after"`
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

func (c *Cursor) IsEmpty() bool { return c.After.IsZero() }

// Advance keeps the later of the stored time and t.
func (c *Cursor) Advance(t time.Time) {
	if t.After(c.After) {
		c.After = t.UTC()
	}
}
