package reader

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/quarv/docrouter/schema"
)

// PDFReader extracts text from PDF files.
type PDFReader struct {
	paths []string
	// splitByPage emits one document per page instead of one per file.
	splitByPage bool
	// extraMetadata is merged into every document's metadata.
	extraMetadata map[string]any
}

// PDFOption configures a PDFReader.
type PDFOption func(*PDFReader)

// WithSplitByPage emits one document per page.
func WithSplitByPage(split bool) PDFOption {
	return func(r *PDFReader) {
		r.splitByPage = split
	}
}

// WithPDFMetadata merges extra metadata into every loaded document.
func WithPDFMetadata(metadata map[string]any) PDFOption {
	return func(r *PDFReader) {
		r.extraMetadata = metadata
	}
}

// NewPDFReader creates a reader for the given PDF files.
func NewPDFReader(paths []string, opts ...PDFOption) *PDFReader {
	r := &PDFReader{paths: paths}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LoadData loads all configured PDF files.
func (r *PDFReader) LoadData(ctx context.Context) ([]schema.Document, error) {
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

// LoadFile extracts text from one PDF file.
func (r *PDFReader) LoadFile(ctx context.Context, path string) ([]schema.Document, error) {
	f, pdfReader, err := pdf.Open(path)
	if err != nil {
		return nil, NewError(path, "open pdf", err)
	}
	defer f.Close()

	numPages := pdfReader.NumPage()
	if numPages == 0 {
		return nil, NewError(path, "pdf has no pages", nil)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	baseMetadata := map[string]any{
		"file_path":   absPath,
		"file_name":   filepath.Base(path),
		"file_type":   "pdf",
		"total_pages": numPages,
	}
	for k, v := range r.extraMetadata {
		baseMetadata[k] = v
	}

	if r.splitByPage {
		return r.loadByPage(ctx, pdfReader, numPages, path, baseMetadata)
	}
	return r.loadWhole(ctx, pdfReader, numPages, path, baseMetadata)
}

func (r *PDFReader) loadByPage(ctx context.Context, pdfReader *pdf.Reader, numPages int, path string, baseMetadata map[string]any) ([]schema.Document, error) {
	var docs []schema.Document
	for pageNum := 1; pageNum <= numPages; pageNum++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text := pageText(pdfReader, pageNum)
		if text == "" {
			continue
		}

		metadata := make(map[string]any, len(baseMetadata)+1)
		for k, v := range baseMetadata {
			metadata[k] = v
		}
		metadata["page_number"] = pageNum

		docs = append(docs, schema.NewDocument(text, metadata))
	}

	if len(docs) == 0 {
		return nil, NewError(path, "no text content found in pdf", nil)
	}
	return docs, nil
}

func (r *PDFReader) loadWhole(ctx context.Context, pdfReader *pdf.Reader, numPages int, path string, baseMetadata map[string]any) ([]schema.Document, error) {
	var sb strings.Builder
	for pageNum := 1; pageNum <= numPages; pageNum++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text := pageText(pdfReader, pageNum)
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(text)
	}

	full := strings.TrimSpace(sb.String())
	if full == "" {
		return nil, NewError(path, "no text content found in pdf", nil)
	}
	return []schema.Document{schema.NewDocument(full, baseMetadata)}, nil
}

// pageText extracts plain text from a page. Pages that fail extraction are
// skipped rather than failing the whole file.
func pageText(pdfReader *pdf.Reader, pageNum int) string {
	page := pdfReader.Page(pageNum)
	if page.V.IsNull() {
		return ""
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

// PDFPageCount returns the number of pages in a PDF file.
func PDFPageCount(path string) (int, error) {
	f, pdfReader, err := pdf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()
	return pdfReader.NumPage(), nil
}

var (
	_ Reader     = (*PDFReader)(nil)
	_ FileReader = (*PDFReader)(nil)
)
