package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/romaneio-sheets/internal/common"
	"github.com/joseph-ayodele/romaneio-sheets/internal/entity"
	"github.com/joseph-ayodele/romaneio-sheets/internal/romaneio"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, Config{DSN: filepath.Join(t.TempDir(), "history.db"), DialTimeout: 5 * time.Second}, nil)
	if err != nil {
		t.Fatalf("Open() = %v", err)
	}
	t.Cleanup(db.Close)
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() = %v", err)
	}
	// idempotent
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate() = %v", err)
	}
	return db
}

func ptr(v float64) *float64 { return &v }

func TestSaveAndReadRun(t *testing.T) {
	db := openTestDB(t)
	repo := NewRunRepository(db, nil)
	ctx := context.Background()

	run := entity.Run{
		ID:        uuid.New(),
		CreatedAt: time.Date(2024, 2, 1, 10, 30, 0, 123, time.UTC),
		Origin:    "cli",
		Documents: 2,
		Empty:     1,
		Notes:     2,
		TotalNota: 2500.25,
		PesoTotal: 1000.5,
	}
	docs := []entity.RunDocument{
		{Seq: 0, Name: "a.pdf", HashHex: "abc", Status: "OK", Method: "pdftotext", Pages: 2, Notes: 2},
		{Seq: 1, Name: "b.pdf", Status: "NO_NOTES", Method: "pdfcpu", Pages: 1},
	}
	records := []entity.StoredRecord{
		{DocSeq: 0, Seq: 1, NoteRecord: romaneio.NoteRecord{Rota: "123 ROTA", NumeroNota: "12345-679", TotalNota: ptr(500.25)}},
		{DocSeq: 0, Seq: 0, NoteRecord: romaneio.NoteRecord{Rota: "123 ROTA", NumeroNota: "12345-678", PesoPedido: ptr(1000.5), TotalNota: ptr(2000)}},
	}
	if err := repo.SaveRun(ctx, run, docs, records); err != nil {
		t.Fatalf("SaveRun() = %v", err)
	}

	got, err := repo.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun() = %v", err)
	}
	if !got.CreatedAt.Equal(run.CreatedAt) || got.Origin != "cli" || got.TotalNota != 2500.25 || got.Empty != 1 {
		t.Errorf("run = %+v", got)
	}

	gotDocs, err := repo.ListDocuments(ctx, run.ID)
	if err != nil {
		t.Fatalf("ListDocuments() = %v", err)
	}
	if len(gotDocs) != 2 || gotDocs[0].HashHex != "abc" || gotDocs[1].Status != "NO_NOTES" {
		t.Errorf("documents = %+v", gotDocs)
	}

	recs, err := repo.ListRecords(ctx, run.ID)
	if err != nil {
		t.Fatalf("ListRecords() = %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("records = %d", len(recs))
	}
	if recs[0].NumeroNota != "12345-678" || recs[1].NumeroNota != "12345-679" {
		t.Errorf("records not ordered by position: %s, %s", recs[0].NumeroNota, recs[1].NumeroNota)
	}
	if recs[0].PesoPedido == nil || *recs[0].PesoPedido != 1000.5 {
		t.Errorf("peso = %v", recs[0].PesoPedido)
	}
	if recs[1].PesoPedido != nil || recs[1].ValorRecebimento != nil {
		t.Errorf("absent numbers should stay nil: %+v", recs[1].NoteRecord)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	db := openTestDB(t)
	repo := NewRunRepository(db, nil)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		run := entity.Run{ID: uuid.New(), CreatedAt: base.Add(time.Duration(i) * time.Hour), Origin: "batch"}
		ids = append(ids, run.ID)
		if err := repo.SaveRun(ctx, run, nil, nil); err != nil {
			t.Fatalf("SaveRun(%d) = %v", i, err)
		}
	}

	runs, err := repo.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns() = %v", err)
	}
	if len(runs) != 2 || runs[0].ID != ids[2] || runs[1].ID != ids[1] {
		t.Fatalf("runs = %+v", runs)
	}

	n, err := repo.CountRuns(ctx)
	if err != nil || n != 3 {
		t.Fatalf("CountRuns() = %d, %v", n, err)
	}
}

func TestGetRunNotFound(t *testing.T) {
	repo := NewRunRepository(openTestDB(t), nil)
	_, err := repo.GetRun(context.Background(), uuid.New())
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSaveRunRollsBack(t *testing.T) {
	db := openTestDB(t)
	repo := NewRunRepository(db, nil)
	ctx := context.Background()

	run := entity.Run{ID: uuid.New(), CreatedAt: time.Now(), Origin: "http"}
	// record points at a document that does not exist: FK violation
	records := []entity.StoredRecord{{DocSeq: 7, NoteRecord: romaneio.NoteRecord{NumeroNota: "1"}}}
	if err := repo.SaveRun(ctx, run, nil, records); err == nil {
		t.Fatal("SaveRun() = nil, want foreign key error")
	}
	if n, _ := repo.CountRuns(ctx); n != 0 {
		t.Fatalf("runs after rollback = %d, want 0", n)
	}
}

func TestHealthCheckAndOpenErrors(t *testing.T) {
	db := openTestDB(t)
	if err := db.HealthCheck(context.Background(), time.Second); err != nil {
		t.Fatalf("HealthCheck() = %v", err)
	}
	if _, err := Open(context.Background(), Config{DSN: "  "}, nil); !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("empty DSN err = %v", err)
	}
}

func TestSQLiteDSN(t *testing.T) {
	cases := map[string]string{
		"history.db":                        "file:history.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		"sqlite:///tmp/h.db":                "file:/tmp/h.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		"file:h.db?mode=rwc":                "file:h.db?mode=rwc&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		"file:h.db?_pragma=foreign_keys(0)": "file:h.db?_pragma=foreign_keys(0)",
	}
	for in, want := range cases {
		if got := sqliteDSN(in); got != want {
			t.Errorf("sqliteDSN(%q) = %q, want %q", in, got, want)
		}
	}
	if !IsPostgresDSN("postgresql://u@h/db") || IsPostgresDSN("history.db") {
		t.Error("IsPostgresDSN mismatch")
	}
}
