package markdown

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
		SourceID: "docs/guide.md",
		Path:     "/corpus/docs/guide.md",
		Content:  []byte(content),
		Tags:     []string{"docs"},
	})
	require.NoError(t, err)
	return result.Document
}

func TestNormalise_TitleFromHeading(t *testing.T) {
	doc := normalise(t, "# Operations Guide\n\nSome body text.")
	assert.Equal(t, "Operations Guide", doc.Title)
}

func TestNormalise_TitleFallsBackToFilename(t *testing.T) {
	doc := normalise(t, "no headings at all")
	assert.Equal(t, "guide", doc.Title)
}

func TestNormalise_StripsFormatting(t *testing.T) {
	doc := normalise(t, `# Heading

Some **bold** and *italic* text with [a link](https://example.com).

- item one
- item two

`+"```go\nfmt.Println(\"code\")\n```"+`

> a quote
`)

	assert.NotContains(t, doc.Content, "#")
	assert.NotContains(t, doc.Content, "**")
	assert.NotContains(t, doc.Content, "](")
	assert.NotContains(t, doc.Content, "```")
	assert.NotContains(t, doc.Content, ">")
	assert.Contains(t, doc.Content, "bold")
	assert.Contains(t, doc.Content, "a link")
	assert.Contains(t, doc.Content, "item one")
	assert.Contains(t, doc.Content, "a quote")
	assert.NotContains(t, doc.Content, "fmt.Println")
}

func TestNormalise_PreservesMeaningfulText(t *testing.T) {
	doc := normalise(t, "# T\n\nThe invariant accountability clause binds all parties.")
	assert.Contains(t, doc.Content, "invariant accountability clause")
}

func TestNormalise_NilInput(t *testing.T) {
	_, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNormalise_Metadata(t *testing.T) {
	doc := normalise(t, "# T\n\nbody")
	assert.Equal(t, "markdown", doc.Format)
	assert.Equal(t, []string{"docs"}, doc.Tags)
	assert.Equal(t, "docs/guide.md", doc.SourceID)
}
