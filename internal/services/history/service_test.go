package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/romaneio-sheets/constants"
	"github.com/joseph-ayodele/romaneio-sheets/internal/common"
	"github.com/joseph-ayodele/romaneio-sheets/internal/ingest"
	"github.com/joseph-ayodele/romaneio-sheets/internal/pipeline"
	"github.com/joseph-ayodele/romaneio-sheets/internal/repository"
	"github.com/joseph-ayodele/romaneio-sheets/internal/romaneio"
)

func ptr(v float64) *float64 { return &v }

func sampleBatch() pipeline.BatchResult {
	return pipeline.BatchResult{Documents: []pipeline.DocumentResult{
		{
			Index:  0,
			Source: ingest.Source{Name: "a.pdf", HashHex: "aa"},
			Status: constants.DocumentStatusOK,
			Method: constants.MethodPdftotext,
			Pages:  1,
			Records: []romaneio.NoteRecord{
				{Rota: "123 ROTA", NumeroNota: "12345-678", TotalNota: ptr(100)},
				{Rota: "123 ROTA", NumeroNota: "12345-679", PesoPedido: ptr(3.5)},
			},
		},
		{Index: 1, Source: ingest.Source{Name: "b.pdf"}, Status: constants.DocumentStatusFailed, Err: errors.New("broken")},
	}}
}

func newRepoService(t *testing.T) *Service {
	t.Helper()
	ctx := context.Background()
	db, err := repository.Open(ctx, repository.Config{DSN: filepath.Join(t.TempDir(), "h.db")}, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(db.Close)
	if err := db.Migrate(ctx); err != nil {
		t.Fatal(err)
	}
	return NewService(repository.NewRunRepository(db, nil), nil)
}

func TestFromBatch(t *testing.T) {
	id := uuid.New()
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	run, docs, recs := FromBatch(id, at, OriginHTTP, sampleBatch())

	if run.ID != id || run.Origin != OriginHTTP || run.Documents != 2 || run.Failed != 1 || run.Notes != 2 {
		t.Errorf("run = %+v", run)
	}
	if run.TotalNota != 100 || run.PesoTotal != 3.5 {
		t.Errorf("totals = %v / %v", run.TotalNota, run.PesoTotal)
	}
	if len(docs) != 2 || docs[1].Error != "broken" || docs[0].Notes != 2 || docs[0].HashHex != "aa" {
		t.Errorf("docs = %+v", docs)
	}
	if len(recs) != 2 || recs[1].DocSeq != 0 || recs[1].Seq != 1 {
		t.Errorf("records = %+v", recs)
	}
}

func TestRecordAndRead(t *testing.T) {
	svc := newRepoService(t)
	ctx := context.Background()

	id, err := svc.Record(ctx, OriginCLI, sampleBatch())
	if err != nil || id == uuid.Nil {
		t.Fatalf("Record() = %v, %v", id, err)
	}

	runs, err := svc.ListRuns(ctx, 0)
	if err != nil || len(runs) != 1 || runs[0].ID != id {
		t.Fatalf("ListRuns() = %+v, %v", runs, err)
	}

	detail, err := svc.GetRun(ctx, id)
	if err != nil || len(detail.Documents) != 2 {
		t.Fatalf("GetRun() = %+v, %v", detail, err)
	}

	recs, err := svc.RunRecords(ctx, id)
	if err != nil {
		t.Fatalf("RunRecords() = %v", err)
	}
	if len(recs) != 2 || recs[0].NumeroNota != "12345-678" || *recs[1].PesoPedido != 3.5 {
		t.Fatalf("records = %+v", recs)
	}

	if _, err := svc.RunRecords(ctx, uuid.New()); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("unknown run err = %v", err)
	}
}

func TestDisabledHistory(t *testing.T) {
	svc := NewService(nil, nil)
	if svc.Enabled() {
		t.Fatal("Enabled() = true without repository")
	}
	id, err := svc.Record(context.Background(), OriginCLI, sampleBatch())
	if err != nil || id != uuid.Nil {
		t.Fatalf("Record() = %v, %v", id, err)
	}
	if _, err := svc.ListRuns(context.Background(), 10); !errors.Is(err, common.ErrHistoryDisabled) {
		t.Fatalf("ListRuns() err = %v", err)
	}
	if _, err := svc.RunRecords(context.Background(), uuid.New()); !errors.Is(err, common.ErrHistoryDisabled) {
		t.Fatalf("RunRecords() err = %v", err)
	}
}
