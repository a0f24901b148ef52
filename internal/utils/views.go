package utils

import (
	"github.com/google/uuid"

	"github.com/joseph-ayodele/romaneio-sheets/internal/entity"
	"github.com/joseph-ayodele/romaneio-sheets/internal/pipeline"
	"github.com/joseph-ayodele/romaneio-sheets/internal/romaneio"
)

// DocumentView is the per-document part of a parse response.
type DocumentView struct {
	Name     string   `json:"name"`
	Status   string   `json:"status"`
	Method   string   `json:"method,omitempty"`
	Pages    int      `json:"pages"`
	Notes    int      `json:"notes"`
	Warnings []string `json:"warnings,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// BatchView is the wire shape of a processed batch, shared by HTTP and gRPC.
type BatchView struct {
	RunID     string                `json:"run_id,omitempty"`
	Records   []romaneio.NoteRecord `json:"records"`
	Documents []DocumentView        `json:"documents"`
	Summary   pipeline.Summary      `json:"summary"`
	Messages  []pipeline.Message    `json:"messages"`
}

// NewBatchView flattens a batch. runID is omitted when it is uuid.Nil.
func NewBatchView(runID uuid.UUID, b pipeline.BatchResult) BatchView {
	v := BatchView{
		Records:   b.Records(),
		Documents: make([]DocumentView, 0, len(b.Documents)),
		Summary:   b.Summary(),
		Messages:  b.Messages(),
	}
	if runID != uuid.Nil {
		v.RunID = runID.String()
	}
	for _, d := range b.Documents {
		dv := DocumentView{
			Name:     d.Name(),
			Status:   string(d.Status),
			Method:   d.Method,
			Pages:    d.Pages,
			Notes:    len(d.Records),
			Warnings: d.Warnings,
		}
		if d.Err != nil {
			dv.Error = d.Err.Error()
		}
		v.Documents = append(v.Documents, dv)
	}
	return v
}

// RunsView wraps a run listing.
type RunsView struct {
	Runs []entity.Run `json:"runs"`
}

func NewRunsView(runs []entity.Run) RunsView {
	if runs == nil {
		runs = []entity.Run{}
	}
	return RunsView{Runs: runs}
}

// RunDetailView is one run with its documents and, optionally, its records.
type RunDetailView struct {
	Run       entity.Run            `json:"run"`
	Documents []entity.RunDocument  `json:"documents"`
	Records   []romaneio.NoteRecord `json:"records,omitempty"`
}
