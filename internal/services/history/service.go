package history

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/romaneio-sheets/internal/common"
	"github.com/joseph-ayodele/romaneio-sheets/internal/entity"
	"github.com/joseph-ayodele/romaneio-sheets/internal/pipeline"
	"github.com/joseph-ayodele/romaneio-sheets/internal/repository"
	"github.com/joseph-ayodele/romaneio-sheets/internal/romaneio"
)

// Run origins.
const (
	OriginCLI   = "cli"
	OriginBatch = "batch"
	OriginHTTP  = "http"
	OriginGRPC  = "grpc"
	OriginWatch = "watch"
)

// DefaultListLimit caps ListRuns when the caller passes no limit.
const DefaultListLimit = 50

// Service records processed batches. A Service without a repository
// accepts Record calls as no-ops and reports ErrHistoryDisabled on reads.
type Service struct {
	repo   repository.RunRepository
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo repository.RunRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// Enabled reports whether runs are persisted.
func (s *Service) Enabled() bool { return s != nil && s.repo != nil }

// Record persists batch under a new run ID. It returns uuid.Nil when history is disabled.
func (s *Service) Record(ctx context.Context, origin string, batch pipeline.BatchResult) (uuid.UUID, error) {
	if !s.Enabled() {
		return uuid.Nil, nil
	}
	run, docs, records := FromBatch(uuid.New(), s.now().UTC(), origin, batch)
	if err := s.repo.SaveRun(ctx, run, docs, records); err != nil {
		return uuid.Nil, err
	}
	s.logger.Info("history.run.recorded",
		"run_id", run.ID,
		"origin", origin,
		"notes", run.Notes,
		"request_id", common.RequestIDFromContext(ctx),
	)
	return run.ID, nil
}

// FromBatch flattens a batch into the rows stored for one run.
func FromBatch(id uuid.UUID, at time.Time, origin string, batch pipeline.BatchResult) (entity.Run, []entity.RunDocument, []entity.StoredRecord) {
	sum := batch.Summary()
	run := entity.Run{
		ID:        id,
		CreatedAt: at,
		Origin:    origin,
		Documents: sum.Documents,
		Failed:    sum.Failed,
		Empty:     sum.Empty,
		Notes:     sum.Notes,
		TotalNota: sum.TotalNota,
		PesoTotal: sum.PesoTotal,
	}
	docs := make([]entity.RunDocument, 0, len(batch.Documents))
	var records []entity.StoredRecord
	for _, d := range batch.Documents {
		doc := entity.RunDocument{
			RunID:   id,
			Seq:     d.Index,
			Name:    d.Name(),
			HashHex: d.Source.HashHex,
			Status:  string(d.Status),
			Method:  d.Method,
			Pages:   d.Pages,
			Notes:   len(d.Records),
		}
		if d.Err != nil {
			doc.Error = d.Err.Error()
		}
		docs = append(docs, doc)
		for i, rec := range d.Records {
			records = append(records, entity.StoredRecord{RunID: id, DocSeq: d.Index, Seq: i, NoteRecord: rec})
		}
	}
	return run, docs, records
}

func (s *Service) ListRuns(ctx context.Context, limit int) ([]entity.Run, error) {
	if !s.Enabled() {
		return nil, common.ErrHistoryDisabled
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return s.repo.ListRuns(ctx, limit)
}

// RunDetail is one run with its documents.
type RunDetail struct {
	Run       entity.Run           `json:"run"`
	Documents []entity.RunDocument `json:"documents"`
}

func (s *Service) GetRun(ctx context.Context, id uuid.UUID) (*RunDetail, error) {
	if !s.Enabled() {
		return nil, common.ErrHistoryDisabled
	}
	run, err := s.repo.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	docs, err := s.repo.ListDocuments(ctx, id)
	if err != nil {
		return nil, err
	}
	return &RunDetail{Run: *run, Documents: docs}, nil
}

// RunRecords returns the records of a run in their original order.
func (s *Service) RunRecords(ctx context.Context, id uuid.UUID) ([]romaneio.NoteRecord, error) {
	if !s.Enabled() {
		return nil, common.ErrHistoryDisabled
	}
	if _, err := s.repo.GetRun(ctx, id); err != nil {
		return nil, err
	}
	stored, err := s.repo.ListRecords(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]romaneio.NoteRecord, len(stored))
	for i, r := range stored {
		out[i] = r.NoteRecord
	}
	return out, nil
}
