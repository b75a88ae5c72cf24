package html

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veldt-labs/datacore/internal/core/domain"
)

func normalise(t *testing.T, content string) domain.Document {
	t.Helper()
	result, err := New().Normalise(context.Background(), &domain.RawSource{
		SourceID: "pages/saved_page.html",
		Path:     "/corpus/pages/saved_page.html",
		Content:  []byte(content),
		Tags:     []string{"pages"},
	})
	require.NoError(t, err)
	return result.Document
}

func TestNormalise_StripsTagsAndScripts(t *testing.T) {
	doc := normalise(t, `<!DOCTYPE html>
<html>
<head><title>A Saved Page</title><style>body { color: red; }</style></head>
<body>
<script>alert("tracking");</script>
<h1>Welcome</h1>
<p>First paragraph with <b>bold</b> text.</p>
<p>Second paragraph.</p>
<!-- hidden comment -->
</body>
</html>`)

	assert.Equal(t, "A Saved Page", doc.Title)
	assert.Contains(t, doc.Content, "Welcome")
	assert.Contains(t, doc.Content, "First paragraph with bold text.")
	assert.Contains(t, doc.Content, "Second paragraph.")
	assert.NotContains(t, doc.Content, "alert")
	assert.NotContains(t, doc.Content, "color: red")
	assert.NotContains(t, doc.Content, "hidden comment")
	assert.NotContains(t, doc.Content, "<")
}

func TestNormalise_DecodesEntities(t *testing.T) {
	doc := normalise(t, "<body><p>fish &amp; chips &lt;here&gt;</p></body>")
	assert.Contains(t, doc.Content, "fish & chips <here>")
}

func TestNormalise_TitleFallback(t *testing.T) {
	doc := normalise(t, "<body><p>no title tag</p></body>")
	assert.Equal(t, "saved page", doc.Title)
}

func TestNormalise_BlockElementsBecomeLines(t *testing.T) {
	doc := normalise(t, "<body><div>one</div><div>two</div></body>")
	assert.Contains(t, doc.Content, "one\ntwo")
}

func TestNormalise_NilInput(t *testing.T) {
	_, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
