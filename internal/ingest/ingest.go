package ingest

import (
	"context"
)

// Source is one document submitted for processing.
type Source struct {
	Name    string // display name, usually the original file name
	Path    string // absolute path on disk
	Ext     string // lowercased, without '.'
	Size    int64
	HashHex string // sha256 of the content
	// Err is set when the file was found but could not be read. Such a
	// source is reported as FAILED instead of being extracted.
	Err error
}

// IngestionResult is the per-file ingest outcome.
type IngestionResult struct {
	Source       Source
	Deduplicated bool
	Err          string
}

// DirStats summarizes a directory ingest.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}

// Ingestor is the behavior the processing front-ends depend on.
type Ingestor interface {
	// IngestPath a single path.
	IngestPath(ctx context.Context, path string) (Source, error)
	// IngestDirectory ingests all matching files under root in lexical order.
	IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]IngestionResult, DirStats, error)
}

// Sources returns one source per matched file in walk order. Duplicates are
// kept, since every submitted document yields its own records, and files that
// failed to ingest are kept with Source.Err set.
func Sources(results []IngestionResult) []Source {
	out := make([]Source, 0, len(results))
	for _, r := range results {
		out = append(out, r.Source)
	}
	return out
}
