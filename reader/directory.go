package reader

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/quarv/docrouter/schema"
)

// DirectoryReader walks a directory and loads every supported file,
// dispatching to the right reader by extension. PDF files are loaded
// per page; everything else as plain text.
type DirectoryReader struct {
	dir        string
	recursive  bool
	extensions map[string]bool
}

// DirectoryOption configures a DirectoryReader.
type DirectoryOption func(*DirectoryReader)

// WithRecursive enables descending into subdirectories.
func WithRecursive(recursive bool) DirectoryOption {
	return func(r *DirectoryReader) {
		r.recursive = recursive
	}
}

// WithExtensions restricts loading to the given extensions, e.g. ".pdf".
func WithExtensions(extensions ...string) DirectoryOption {
	return func(r *DirectoryReader) {
		r.extensions = make(map[string]bool, len(extensions))
		for _, ext := range extensions {
			r.extensions[strings.ToLower(ext)] = true
		}
	}
}

// NewDirectoryReader creates a reader for a directory. By default it loads
// .pdf, .txt, and .md files without recursing.
func NewDirectoryReader(dir string, opts ...DirectoryOption) *DirectoryReader {
	r := &DirectoryReader{
		dir: dir,
		extensions: map[string]bool{
			".pdf": true,
			".txt": true,
			".md":  true,
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LoadData walks the directory and loads every matching file in path order.
func (r *DirectoryReader) LoadData(ctx context.Context) ([]schema.Document, error) {
	files, err := r.listFiles()
	if err != nil {
		return nil, err
	}

	var docs []schema.Document
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var loader FileReader
		if strings.ToLower(filepath.Ext(path)) == ".pdf" {
			loader = NewPDFReader(nil, WithSplitByPage(true))
		} else {
			loader = NewTextReader(nil)
		}

		fileDocs, err := loader.LoadFile(ctx, path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, fileDocs...)
	}
	return docs, nil
}

func (r *DirectoryReader) listFiles() ([]string, error) {
	var files []string
	err := filepath.WalkDir(r.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != r.dir && !r.recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		if r.extensions[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory %s: %w", r.dir, err)
	}
	sort.Strings(files)
	return files, nil
}

var _ Reader = (*DirectoryReader)(nil)
