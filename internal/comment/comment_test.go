package comment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/nodedocs/internal/lang"
)

func index(t *testing.T, src string) map[int]DocComment {
	t.Helper()
	p := lang.Languages["javascript"].NewParser()
	tree, err := p.ParseCtx(context.Background(), nil, []byte(src))
	require.NoError(t, err)
	t.Cleanup(tree.Close)
	return Index(tree.RootNode(), []byte(src))
}

func TestIndexKeysByFollowingLine(t *testing.T) {
	t.Parallel()

	src := `/**
 * adds two numbers
 */
function add(a, b) { return a + b; }
`
	idx := index(t, src)
	require.Len(t, idx, 1)
	c, ok := idx[4]
	require.True(t, ok)
	assert.Equal(t, 3, c.EndLine)
	assert.Equal(t, "*\n * adds two numbers\n ", c.Text)
}

func TestIndexIgnoresNonDocComments(t *testing.T) {
	t.Parallel()

	src := `// line comment
var a = 1;
/* plain block */
var b = 2;
/**/
var c = 3;
`
	assert.Empty(t, index(t, src))
}

func TestIndexNestedComments(t *testing.T) {
	t.Parallel()

	src := `var api = {
  /** nested */
  go: function () {}
};
`
	idx := index(t, src)
	require.Contains(t, idx, 3)
	assert.Equal(t, "* nested ", idx[3].Text)
}

func TestIndexLaterCommentWins(t *testing.T) {
	t.Parallel()

	// Both comments end on line 1, so both map to line 2.
	src := "/** first */ /** second */\nvar x = 1;\n"
	idx := index(t, src)
	require.Len(t, idx, 1)
	assert.Equal(t, "* second ", idx[2].Text)
}

func TestDocBody(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw    string
		want   string
		wantOK bool
	}{
		{"/** doc */", "* doc ", true},
		{"/***/", "*", true},
		{"/**/", "", false},
		{"/* plain */", "", false},
		{"// line", "", false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()
			got, ok := docBody(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClean(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{"single line", "* adds two numbers ", " adds two numbers "},
		{"multi line", "*\n * Line one.\n *   indented\n * @param {Number} a\n ", "\nLine one.\n  indented\n@param {Number} a\n "},
		{"crlf", "*\r\n * one\r\n ", "\none\n "},
		{"no stars", "* text\n  more", " text\n  more"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Clean(tt.body))
		})
	}
}
