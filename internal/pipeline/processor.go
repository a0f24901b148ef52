package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/romaneio-sheets/constants"
	"github.com/joseph-ayodele/romaneio-sheets/internal/common"
	"github.com/joseph-ayodele/romaneio-sheets/internal/ingest"
	"github.com/joseph-ayodele/romaneio-sheets/internal/romaneio"
	"github.com/joseph-ayodele/romaneio-sheets/internal/textextract"
)

// Processor coordinates text extraction then note parsing for a batch of
// documents.
type Processor struct {
	extractor textextract.TextExtractor
	parser    *romaneio.Parser
	logger    *slog.Logger
	workers   int
	timeout   time.Duration
}

type Option func(*Processor)

func WithWorkers(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.workers = n
		}
	}
}

func WithDocumentTimeout(d time.Duration) Option {
	return func(p *Processor) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// FromConfig maps the process pipeline configuration onto options.
func FromConfig(c common.PipelineConfig) []Option {
	return []Option{WithWorkers(c.Workers), WithDocumentTimeout(c.DocumentTimeout)}
}

func NewProcessor(extractor textextract.TextExtractor, logger *slog.Logger, opts ...Option) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{
		extractor: extractor,
		parser:    romaneio.NewParser(logger),
		logger:    logger,
		workers:   4,
		timeout:   3 * time.Minute,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Process extracts and parses every source with a bounded worker pool.
// Results keep submission order. A failing document never aborts the batch;
// once ctx is done, documents not yet started are marked FAILED.
func (p *Processor) Process(ctx context.Context, sources []ingest.Source) BatchResult {
	return p.run(ctx, len(sources), func(i int) ingest.Source { return sources[i] }, func(ctx context.Context, i int) DocumentResult {
		return p.processFile(ctx, i, sources[i])
	})
}

// Text is a document whose text has already been extracted.
type Text struct {
	Name string
	Text string
}

// ProcessTexts parses already-extracted documents through the same pool.
func (p *Processor) ProcessTexts(ctx context.Context, docs []Text) BatchResult {
	src := func(i int) ingest.Source { return ingest.Source{Name: docs[i].Name} }
	return p.run(ctx, len(docs), src, func(ctx context.Context, i int) DocumentResult {
		res := DocumentResult{Index: i, Source: src(i), Method: constants.MethodInline, Pages: 1}
		p.parse(&res, textextract.Normalize(docs[i].Text))
		return res
	})
}

func (p *Processor) run(ctx context.Context, n int, source func(int) ingest.Source, work func(context.Context, int) DocumentResult) BatchResult {
	results := make([]DocumentResult, n)
	if n == 0 {
		return BatchResult{Documents: results}
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	workers := min(p.workers, n)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for i := range jobs {
				results[i] = p.guard(ctx, i, source(i), work)
				p.logger.Debug("pipeline.document.done",
					"worker_id", workerID,
					"index", i,
					"document", results[i].Name(),
					"status", results[i].Status,
				)
			}
		}(w + 1)
	}

	next := 0
feed:
	for ; next < n; next++ {
		select {
		case jobs <- next:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	for i := next; i < n; i++ {
		results[i] = failed(i, source(i), ctx.Err())
	}

	batch := BatchResult{Documents: results}
	s := batch.Summary()
	p.logger.Info("pipeline.batch.done",
		"documents", s.Documents,
		"ok", s.OK,
		"empty", s.Empty,
		"failed", s.Failed,
		"notes", s.Notes,
	)
	return batch
}

// guard applies the per-document timeout and turns a panic into a FAILED result.
func (p *Processor) guard(ctx context.Context, i int, src ingest.Source, work func(context.Context, int) DocumentResult) (res DocumentResult) {
	if err := ctx.Err(); err != nil {
		return failed(i, src, err)
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("pipeline.document.panic", "document", src.Name, "panic", r)
			res = failed(i, src, fmt.Errorf("%w: %v", common.ErrInternal, r))
		}
	}()
	start := time.Now()
	res = work(ctx, i)
	res.Duration = time.Since(start)
	return res
}

func (p *Processor) processFile(ctx context.Context, i int, src ingest.Source) DocumentResult {
	if src.Err != nil {
		p.logger.Error("pipeline.ingest.failed", "document", src.Name, "error", src.Err)
		return failed(i, src, src.Err)
	}
	res := DocumentResult{Index: i, Source: src}
	ext, err := p.extractor.Extract(ctx, src.Path)
	res.Method = ext.Method
	res.Warnings = ext.Warnings
	if err != nil {
		p.logger.Error("pipeline.extract.failed", "document", src.Name, "error", err)
		res.Status = constants.DocumentStatusFailed
		res.Err = err
		return res
	}
	res.Pages = ext.Pages
	p.parse(&res, ext.Text)
	return res
}

func (p *Processor) parse(res *DocumentResult, text string) {
	res.Records = p.parser.Parse(res.Name(), text)
	if len(res.Records) == 0 {
		res.Status = constants.DocumentStatusNoNotes
		return
	}
	res.Status = constants.DocumentStatusOK
}

func failed(i int, src ingest.Source, err error) DocumentResult {
	return DocumentResult{Index: i, Source: src, Status: constants.DocumentStatusFailed, Err: err}
}
