package github

import (
	"time"

	"github.com/custodia-labs/sercha-intake/internal/connectors/cursor"
)

const CursorVersion = 1

// Cursor keeps the newest issue update seen in each owner/repo.
type Cursor struct {
	Version int                  `json:"v"`
	Repos   map[string]time.Time `json:"repos"`
}

func NewCursor() *Cursor {
	return &Cursor{Version: CursorVersion, Repos: map[string]time.Time{}}
}

func (c *Cursor) Encode() string {
	if c == nil {
		return ""
	}
	return cursor.Encode(c)
}

func DecodeCursor(s string) (*Cursor, error) {
	c := NewCursor()
	if err := cursor.Decode(s, c, CursorVersion); err != nil {
		return nil, ErrInvalidCursor
	}
	if c.Repos == nil {
		c.Repos = map[string]time.Time{}
	}
	return c, nil
}

// Since is the zero time for repositories not seen yet.
func (c *Cursor) Since(repo string) time.Time {
	return c.Repos[repo]
}

func (c *Cursor) Advance(repo string, t time.Time) {
	if t.After(c.Repos[repo]) {
		c.Repos[repo] = t
	}
}
