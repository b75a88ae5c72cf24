package plaintext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veldt-labs/datacore/internal/core/domain"
)

func TestExtensions(t *testing.T) {
	n := New()
	assert.Contains(t, n.Extensions(), ".txt")
	assert.Contains(t, n.Extensions(), ".json")
}

func TestNormalise(t *testing.T) {
	n := New()

	raw := &domain.RawSource{
		SourceID: "notes/todo_list.txt",
		Path:     "/corpus/notes/todo_list.txt",
		Content:  []byte("buy milk\nwrite report\n"),
		Tags:     []string{"notes"},
	}

	result, err := n.Normalise(context.Background(), raw)
	require.NoError(t, err)

	doc := result.Document
	assert.Equal(t, "notes/todo_list.txt", doc.SourceID)
	assert.Equal(t, "buy milk\nwrite report\n", doc.Content)
	assert.Equal(t, "todo list", doc.Title)
	assert.Equal(t, "plaintext", doc.Format)
	assert.Equal(t, []string{"notes"}, doc.Tags)
}

func TestNormalise_NilInput(t *testing.T) {
	n := New()
	result, err := n.Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, result)
}

func TestNormalise_InvalidUTF8Dropped(t *testing.T) {
	n := New()
	raw := &domain.RawSource{
		SourceID: "a.txt",
		Path:     "/corpus/a.txt",
		Content:  []byte{'o', 'k', 0xff, 0xfe, '!'},
	}

	result, err := n.Normalise(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "ok!", result.Document.Content)
}
