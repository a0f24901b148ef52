package constants

// DocumentStatus is the outcome of processing one submitted document.
type DocumentStatus string

// Stable values (store these exact strings in DB).
const (
	DocumentStatusOK      DocumentStatus = "OK"       // at least one note parsed
	DocumentStatusNoNotes DocumentStatus = "NO_NOTES" // text extracted, zero blocks
	DocumentStatusFailed  DocumentStatus = "FAILED"   // extraction or processing error
)

// Extraction methods reported on results and run documents.
const (
	MethodPlainText = "plain-text"
	MethodPdftotext = "pdftotext"
	MethodPdfcpu    = "pdfcpu"
	MethodInline    = "inline"
)
