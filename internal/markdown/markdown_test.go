package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	r := NewRenderer()

	t.Run("gfm", func(t *testing.T) {
		out, err := r.Render("# Title\n\n~~old~~ **bold**\n\n| a | b |\n|---|---|\n| 1 | 2 |\n")
		require.NoError(t, err)
		assert.Contains(t, out, `<h1 id="title">Title</h1>`)
		assert.Contains(t, out, "<del>old</del>")
		assert.Contains(t, out, "<strong>bold</strong>")
		assert.Contains(t, out, "<table>")
	})

	t.Run("strips scripts", func(t *testing.T) {
		out, err := r.Render("hello <script>alert(1)</script> [x](javascript:alert(1))")
		require.NoError(t, err)
		assert.NotContains(t, out, "<script")
		assert.NotContains(t, out, "javascript:")
	})

	t.Run("external links", func(t *testing.T) {
		out, err := r.Render("[site](https://example.com)")
		require.NoError(t, err)
		assert.Contains(t, out, `target="_blank"`)
	})

	t.Run("code language class", func(t *testing.T) {
		out, err := r.Render("```go\nfmt.Println()\n```")
		require.NoError(t, err)
		assert.Contains(t, out, `class="language-go"`)
	})
}

func TestExcerpt(t *testing.T) {
	r := NewRenderer()

	out, err := r.Excerpt("# Hi\n\nShort *post*.", 100)
	require.NoError(t, err)
	assert.Equal(t, "Hi Short post.", out)

	long := strings.Repeat("word ", 50)
	out, err = r.Excerpt(long, 22)
	require.NoError(t, err)
	assert.Equal(t, "word word word word…", out)
}
