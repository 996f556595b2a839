package dropbox

import (
	"fmt"

	"github.com/custodia-labs/sercha-intake/internal/connectors/cursor"
)

const CursorVersion = 1

var ErrInvalidCursor = fmt.Errorf("dropbox: %w", cursor.ErrInvalid)

// Cursor wraps the list_folder cursor Dropbox hands back. It is only valid
// for the folder it was issued for, so Path is kept alongside it.
type Cursor struct {
	Version    int    `json:"v"`
	ListCursor string `json:"list_cursor"`
	Path       string `json:"path"`
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

func (c *Cursor) IsEmpty() bool { return c.ListCursor == "" }
