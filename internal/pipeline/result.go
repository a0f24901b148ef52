package pipeline

import (
	"fmt"
	"time"

	"github.com/joseph-ayodele/romaneio-sheets/constants"
	"github.com/joseph-ayodele/romaneio-sheets/internal/ingest"
	"github.com/joseph-ayodele/romaneio-sheets/internal/romaneio"
)

// DocumentResult is the outcome for one submitted document.
type DocumentResult struct {
	Index    int
	Source   ingest.Source
	Status   constants.DocumentStatus
	Records  []romaneio.NoteRecord
	Pages    int
	Method   string
	Duration time.Duration
	Warnings []string
	Err      error
}

// Name is the display name used in messages.
func (d DocumentResult) Name() string {
	if d.Source.Name != "" {
		return d.Source.Name
	}
	return fmt.Sprintf("documento %d", d.Index+1)
}

// BatchResult holds one DocumentResult per submitted document, in submission order.
type BatchResult struct {
	Documents []DocumentResult
}

// Records concatenates the records of every document in submission order.
func (b BatchResult) Records() []romaneio.NoteRecord {
	out := []romaneio.NoteRecord{}
	for _, d := range b.Documents {
		if d.Status == constants.DocumentStatusOK {
			out = append(out, d.Records...)
		}
	}
	return out
}

// Summary aggregates a batch. Absent numbers count as zero.
type Summary struct {
	Documents int     `json:"documents"`
	OK        int     `json:"ok"`
	Empty     int     `json:"empty"`
	Failed    int     `json:"failed"`
	Notes     int     `json:"notes"`
	TotalNota float64 `json:"total_nota"`
	PesoTotal float64 `json:"peso_total"`
}

func (b BatchResult) Summary() Summary {
	s := Summary{Documents: len(b.Documents)}
	for _, d := range b.Documents {
		switch d.Status {
		case constants.DocumentStatusOK:
			s.OK++
		case constants.DocumentStatusNoNotes:
			s.Empty++
		case constants.DocumentStatusFailed:
			s.Failed++
		}
		for _, r := range d.Records {
			s.Notes++
			if r.TotalNota != nil {
				s.TotalNota += *r.TotalNota
			}
			if r.PesoPedido != nil {
				s.PesoTotal += *r.PesoPedido
			}
		}
	}
	return s
}

// Message levels.
const (
	LevelWarning = "warning"
	LevelError   = "error"
)

// Message is a user-facing notice about a batch.
type Message struct {
	Level    string `json:"level"`
	Document string `json:"document,omitempty"`
	Text     string `json:"text"`
}

// Messages lists the notices an operator sees for a batch: one per empty or
// failed document, then a closing warning when no notes were found at all.
func (b BatchResult) Messages() []Message {
	out := []Message{}
	notes := 0
	for _, d := range b.Documents {
		switch d.Status {
		case constants.DocumentStatusNoNotes:
			out = append(out, Message{
				Level:    LevelWarning,
				Document: d.Name(),
				Text:     fmt.Sprintf("Nenhuma nota encontrada em %s.", d.Name()),
			})
		case constants.DocumentStatusFailed:
			out = append(out, Message{
				Level:    LevelError,
				Document: d.Name(),
				Text:     fmt.Sprintf("Erro ao processar %s: %v", d.Name(), d.Err),
			})
		case constants.DocumentStatusOK:
			notes += len(d.Records)
		}
	}
	if notes == 0 {
		out = append(out, Message{Level: LevelWarning, Text: "Nenhuma nota foi identificada nos PDFs enviados."})
	}
	return out
}
