// Package reader loads source files into documents for indexing.
package reader

import (
	"context"

	"github.com/quarv/docrouter/schema"
)

// Reader loads documents from some source.
type Reader interface {
	// LoadData loads all documents from the reader's source.
	LoadData(ctx context.Context) ([]schema.Document, error)
}

// FileReader is a Reader that can load a single file path.
type FileReader interface {
	Reader
	// LoadFile loads documents from one file.
	LoadFile(ctx context.Context, path string) ([]schema.Document, error)
}

// Error wraps a loading failure with its source path.
type Error struct {
	Source  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Source + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a reader Error.
func NewError(source, message string, err error) *Error {
	return &Error{Source: source, Message: message, Err: err}
}
