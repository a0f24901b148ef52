package documents

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/romaneio-sheets/internal/common"
	"github.com/joseph-ayodele/romaneio-sheets/internal/ingest"
	"github.com/joseph-ayodele/romaneio-sheets/internal/pipeline"
	"github.com/joseph-ayodele/romaneio-sheets/internal/services/history"
)

// Service handles the parse-a-batch use case shared by every front-end:
// stage or ingest the documents, run the pipeline, record the run.
type Service struct {
	ingestor ingest.Ingestor
	proc     *pipeline.Processor
	history  *history.Service
	logger   *slog.Logger
}

// NewService creates a new documents service. hist may be nil.
func NewService(ing ingest.Ingestor, proc *pipeline.Processor, hist *history.Service, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if hist == nil {
		hist = history.NewService(nil, logger)
	}
	return &Service{ingestor: ing, proc: proc, history: hist, logger: logger}
}

// History exposes the run history service.
func (s *Service) History() *history.Service { return s.history }

// Upload is an uploaded document body.
type Upload struct {
	Name string
	Data []byte
}

// Outcome is a processed batch and the run it was recorded under. A failure
// to record the run is reported in HistoryErr and never discards the batch.
type Outcome struct {
	RunID      uuid.UUID
	Batch      pipeline.BatchResult
	HistoryErr error
}

// ParseUploads stages every upload, processes them in order and records the run.
// An upload that cannot be staged fails the whole request.
func (s *Service) ParseUploads(ctx context.Context, origin string, uploads []Upload) (*Outcome, error) {
	if len(uploads) == 0 {
		return nil, fmt.Errorf("%w: no documents", common.ErrInvalidInput)
	}
	sources := make([]ingest.Source, 0, len(uploads))
	var cleanups []func()
	defer func() {
		for _, c := range cleanups {
			c()
		}
	}()
	for _, u := range uploads {
		src, cleanup, err := ingest.FromUpload(u.Name, u.Data)
		if err != nil {
			s.logger.Warn("documents.upload.rejected", "name", u.Name, "error", err)
			return nil, err
		}
		cleanups = append(cleanups, cleanup)
		sources = append(sources, src)
	}
	s.logger.Info("documents.parse", "origin", origin, "documents", len(sources))
	return s.finish(ctx, origin, s.proc.Process(ctx, sources))
}

// ParseTexts processes documents whose text was supplied directly.
func (s *Service) ParseTexts(ctx context.Context, origin string, docs []pipeline.Text) (*Outcome, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no documents", common.ErrInvalidInput)
	}
	s.logger.Info("documents.parse", "origin", origin, "documents", len(docs), "inline", true)
	return s.finish(ctx, origin, s.proc.ProcessTexts(ctx, docs))
}

// PathsRequest names files and directories on local disk.
type PathsRequest struct {
	Paths      []string
	SkipHidden bool
}

// ParsePaths ingests files and walks directories (lexical order) and processes
// everything found in argument order. Files with identical content are each
// processed; unreadable files come back as FAILED documents.
func (s *Service) ParsePaths(ctx context.Context, origin string, req PathsRequest) (*Outcome, error) {
	var sources []ingest.Source
	for _, p := range req.Paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
		}
		if !info.IsDir() {
			src, err := s.ingestor.IngestPath(ctx, p)
			if err != nil {
				return nil, err
			}
			sources = append(sources, src)
			continue
		}
		results, stats, err := s.ingestor.IngestDirectory(ctx, p, req.SkipHidden)
		if err != nil {
			return nil, err
		}
		s.logger.Info("documents.directory",
			"root", p,
			"matched", stats.Matched,
			"deduplicated", stats.Deduplicated,
			"failed", stats.Failed,
		)
		for _, r := range results {
			if r.Err != "" {
				s.logger.Warn("documents.directory.unreadable", "path", r.Source.Path, "error", r.Err)
			}
		}
		sources = append(sources, ingest.Sources(results)...)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: no pdf or txt documents found", common.ErrInvalidInput)
	}
	return s.finish(ctx, origin, s.proc.Process(ctx, sources))
}

func (s *Service) finish(ctx context.Context, origin string, batch pipeline.BatchResult) (*Outcome, error) {
	out := &Outcome{Batch: batch}
	id, err := s.history.Record(ctx, origin, batch)
	if err != nil {
		s.logger.Error("documents.history.failed", "origin", origin, "error", err)
		out.HistoryErr = err
		return out, nil
	}
	out.RunID = id
	return out, nil
}
