package whitespace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
)

func TestNormalise(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"collapses spaces", "a  \t b", "a b"},
		{"trims lines", "  a  \n  b  ", "a\nb"},
		{"limits blank lines", "a\n\n\n\n\nb", "a\n\nb"},
		{"crlf", "a\r\nb\rc", "a\nb\nc"},
		{"nbsp", "a\u00a0 b", "a b"},
		{"blank", " \n \n", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalise(tt.in))
		})
	}
}

func TestProcessor_WholeText(t *testing.T) {
	chunks, err := New().Process(context.Background(), "  hi   there ", nil)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "hi there", chunks[0].Content)
}

func TestProcessor_DropsEmptyChunks(t *testing.T) {
	in := []domain.TextChunk{{Index: 0, Content: " "}, {Index: 1, Content: "x  y", Offset: 9}}
	chunks, err := New().Process(context.Background(), "", in)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, domain.TextChunk{Index: 0, Content: "x y", Offset: 9}, chunks[0])
}
