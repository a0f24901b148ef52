package utils

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/romaneio-sheets/constants"
	"github.com/joseph-ayodele/romaneio-sheets/internal/common"
	"github.com/joseph-ayodele/romaneio-sheets/internal/pipeline"
	"github.com/joseph-ayodele/romaneio-sheets/internal/services/documents"
)

const (
	maxDocumentName = 255
	maxDocuments    = 200
	maxListLimit    = 500
)

// DocumentInput is one document of a parse request: either its extracted
// text or the raw file bytes (base64 in JSON).
type DocumentInput struct {
	Name    string  `json:"name"`
	Text    *string `json:"text,omitempty"`
	Content []byte  `json:"content_base64,omitempty"`
}

// ParseRequest is the body of Parse and ExportXLSX.
type ParseRequest struct {
	Documents []DocumentInput `json:"documents"`
}

// Validate checks names and that each document carries exactly one body.
func (r ParseRequest) Validate() error {
	if len(r.Documents) == 0 {
		return fmt.Errorf("%w: documents is required", common.ErrInvalidInput)
	}
	if len(r.Documents) > maxDocuments {
		return fmt.Errorf("%w: at most %d documents per request", common.ErrInvalidInput, maxDocuments)
	}
	v := common.NewValidator()
	for i, d := range r.Documents {
		field := fmt.Sprintf("documents[%d]", i)
		v.Field(field+".name", d.Name, common.Required, common.MaxLength(maxDocumentName))
		if (d.Text == nil) == (len(d.Content) == 0) {
			v.Field(field, nil, func(name string, _ interface{}) *common.ValidationError {
				return &common.ValidationError{Field: name, Message: "needs exactly one of text or content_base64"}
			})
		}
	}
	if v.HasErrors() {
		return fmt.Errorf("%w: %s", common.ErrInvalidInput, v.ErrorMessage())
	}
	return nil
}

// Inline reports whether every document was sent as text.
func (r ParseRequest) Inline() bool {
	for _, d := range r.Documents {
		if d.Text == nil {
			return false
		}
	}
	return true
}

// Texts returns the documents as inline texts. Only meaningful when Inline is true.
func (r ParseRequest) Texts() []pipeline.Text {
	out := make([]pipeline.Text, 0, len(r.Documents))
	for _, d := range r.Documents {
		out = append(out, pipeline.Text{Name: d.Name, Text: *d.Text})
	}
	return out
}

// Uploads returns every document as an upload. Text documents become .txt
// uploads so a mixed request keeps its order.
func (r ParseRequest) Uploads() []documents.Upload {
	out := make([]documents.Upload, 0, len(r.Documents))
	for _, d := range r.Documents {
		if d.Text == nil {
			out = append(out, documents.Upload{Name: d.Name, Data: d.Content})
			continue
		}
		name := d.Name
		if constants.MapExtToFormat(filepath.Ext(name)) != constants.TXT {
			name += ".txt"
		}
		out = append(out, documents.Upload{Name: name, Data: []byte(*d.Text)})
	}
	return out
}

// ListRunsRequest is the body of ListRuns.
type ListRunsRequest struct {
	Limit int `json:"limit"`
}

// Normalize clamps the limit. Zero selects the history default.
func (r ListRunsRequest) Normalize() (int, error) {
	if r.Limit < 0 {
		return 0, fmt.Errorf("%w: limit must not be negative", common.ErrInvalidInput)
	}
	return min(r.Limit, maxListLimit), nil
}

// RunRequest names one stored run.
type RunRequest struct {
	ID             string `json:"id"`
	IncludeRecords bool   `json:"include_records"`
}

// RunID validates and parses the id.
func (r RunRequest) RunID() (uuid.UUID, error) {
	id := strings.TrimSpace(r.ID)
	v := common.NewValidator().Field("id", id, common.Required, common.UUID)
	if v.HasErrors() {
		return uuid.Nil, fmt.Errorf("%w: %s", common.ErrInvalidInput, v.ErrorMessage())
	}
	return uuid.MustParse(id), nil
}
