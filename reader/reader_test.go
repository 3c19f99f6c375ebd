package reader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestTextReaderLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "notes.txt", "Attention is all you need.\n")

	docs, err := NewTextReader(nil).LoadFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	doc := docs[0]
	assert.Equal(t, "Attention is all you need.", doc.Text)
	assert.Equal(t, "notes.txt", doc.Metadata["file_name"])
	assert.Equal(t, "txt", doc.Metadata["file_type"])
	assert.NotEmpty(t, doc.ID)
}

func TestTextReaderEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "empty.txt", "   \n")

	_, err := NewTextReader(nil).LoadFile(context.Background(), path)
	require.Error(t, err)

	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, path, rerr.Source)
}

func TestTextReaderMissingFile(t *testing.T) {
	_, err := NewTextReader(nil).LoadFile(context.Background(), "/does/not/exist.txt")
	assert.Error(t, err)
}

func TestTextReaderLoadDataMultipleFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.txt", "first")
	b := writeFile(t, dir, "b.txt", "second")

	docs, err := NewTextReader([]string{a, b}).LoadData(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "first", docs[0].Text)
	assert.Equal(t, "second", docs[1].Text)
}

func TestDirectoryReaderFiltersByExtension(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "doc.md", "# markdown doc")
	writeFile(t, dir, "plain.txt", "plain text")
	writeFile(t, dir, "data.csv", "a,b,c")
	writeFile(t, dir, ".hidden.txt", "hidden")

	docs, err := NewDirectoryReader(dir).LoadData(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)

	names := []string{
		docs[0].Metadata["file_name"].(string),
		docs[1].Metadata["file_name"].(string),
	}
	assert.ElementsMatch(t, []string{"doc.md", "plain.txt"}, names)
}

func TestDirectoryReaderRecursion(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(sub, 0o755))
	writeFile(t, dir, "top.txt", "top level")
	writeFile(t, sub, "deep.txt", "nested file")

	flat, err := NewDirectoryReader(dir).LoadData(context.Background())
	require.NoError(t, err)
	assert.Len(t, flat, 1)

	deep, err := NewDirectoryReader(dir, WithRecursive(true)).LoadData(context.Background())
	require.NoError(t, err)
	assert.Len(t, deep, 2)
}

func TestDirectoryReaderCustomExtensions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "keep.rst", "restructured text")
	writeFile(t, dir, "skip.txt", "plain")

	docs, err := NewDirectoryReader(dir, WithExtensions(".rst")).LoadData(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "keep.rst", docs[0].Metadata["file_name"])
}

func TestPDFReaderRejectsNonPDF(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "fake.pdf", "this is not a pdf")

	_, err := NewPDFReader(nil).LoadFile(context.Background(), path)
	require.Error(t, err)

	var rerr *Error
	assert.ErrorAs(t, err, &rerr)
}

func TestReaderHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "text")

	_, err := NewTextReader([]string{path}).LoadData(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
