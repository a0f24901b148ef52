// Package romaneio turns the text of delivery manifests ("romaneios") into
// one NoteRecord per invoice. Everything here is a pure function of its
// input: no I/O, no shared mutable state, safe for concurrent use.
package romaneio

import (
	"log/slog"
)

// ParseText runs header extraction and block segmentation once, parses every
// block against the shared header and normalizes the date fields. A document
// without recognizable notes yields an empty slice.
func ParseText(text string) []NoteRecord {
	header := ExtractHeader(text)
	blocks := SplitBlocks(text)
	records := make([]NoteRecord, 0, len(blocks))
	for _, b := range blocks {
		rec := ParseBlock(b, header)
		rec.DataEmissao = NormalizeDate(rec.DataEmissao)
		rec.DataPrevisao = NormalizeDate(rec.DataPrevisao)
		records = append(records, rec)
	}
	return records
}

// ParseDocuments parses each text and concatenates the results in the order
// the documents were given.
func ParseDocuments(texts []string) []NoteRecord {
	var out []NoteRecord
	for _, t := range texts {
		out = append(out, ParseText(t)...)
	}
	if out == nil {
		out = []NoteRecord{}
	}
	return out
}

// Parser wraps ParseText with logging for use inside the processing pipeline.
type Parser struct {
	logger *slog.Logger
}

func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// Parse parses one document. name is only used for logging.
func (p *Parser) Parse(name, text string) []NoteRecord {
	records := ParseText(text)
	if len(records) == 0 {
		p.logger.Debug("romaneio.parse.no_notes", "document", name, "text_bytes", len(text))
		return records
	}
	p.logger.Debug("romaneio.parse.ok",
		"document", name,
		"notes", len(records),
		"rota", records[0].Rota,
	)
	return records
}
