package reader

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/quarv/docrouter/schema"
)

// TextReader loads plain text files, one document per file.
type TextReader struct {
	paths []string
}

// NewTextReader creates a reader for the given text files.
func NewTextReader(paths []string) *TextReader {
	return &TextReader{paths: paths}
}

// LoadData loads all configured files.
func (r *TextReader) LoadData(ctx context.Context) ([]schema.Document, error) {
	var docs []schema.Document
	for _, path := range r.paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fileDocs, err := r.LoadFile(ctx, path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, fileDocs...)
	}
	return docs, nil
}

// LoadFile loads one text file.
func (r *TextReader) LoadFile(ctx context.Context, path string) ([]schema.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, NewError(path, "read file", err)
	}

	text := strings.TrimSpace(string(content))
	if text == "" {
		return nil, NewError(path, "file is empty", nil)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	doc := schema.NewDocument(text, map[string]any{
		"file_path": absPath,
		"file_name": filepath.Base(path),
		"file_type": strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
	})
	return []schema.Document{doc}, nil
}

var (
	_ Reader     = (*TextReader)(nil)
	_ FileReader = (*TextReader)(nil)
)
