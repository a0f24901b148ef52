package textextract

import (
	"context"
	"time"
)

// TextExtractor turns a document on disk into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (Result, error)
}

// Result is the outcome of one extraction.
type Result struct {
	Text     string
	Pages    int
	Format   string // constants.PDF | constants.TXT
	Method   string // constants.MethodPdftotext | MethodPdfcpu | MethodPlainText
	Duration time.Duration
	Warnings []string
}
