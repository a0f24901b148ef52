package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/romaneio-sheets/internal/common"
	"github.com/joseph-ayodele/romaneio-sheets/internal/entity"
	"github.com/joseph-ayodele/romaneio-sheets/internal/romaneio"
)

// timeLayout is fixed-width so that text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type RunRepository interface {
	SaveRun(ctx context.Context, run entity.Run, docs []entity.RunDocument, records []entity.StoredRecord) error
	ListRuns(ctx context.Context, limit int) ([]entity.Run, error)
	GetRun(ctx context.Context, id uuid.UUID) (*entity.Run, error)
	ListDocuments(ctx context.Context, runID uuid.UUID) ([]entity.RunDocument, error)
	ListRecords(ctx context.Context, runID uuid.UUID) ([]entity.StoredRecord, error)
	CountRuns(ctx context.Context) (int, error)
}

type runRepo struct {
	db  *DB
	log *slog.Logger
}

func NewRunRepository(db *DB, log *slog.Logger) RunRepository {
	if log == nil {
		log = db.logger
	}
	return &runRepo{db: db, log: log}
}

var runColumns = []string{"id", "created_at", "origin", "documents", "failed", "empty", "notes", "total_nota", "peso_total"}

var documentColumns = []string{"run_id", "seq", "name", "hash_hex", "status", "method", "pages", "notes", "error"}

// recordColumns returns the DDL for the 16 note columns, in column order.
func recordColumns() []*entsql.ColumnBuilder {
	numeric := map[string]bool{"peso_pedido": true, "total_nota": true, "valor_recebimento": true}
	out := make([]*entsql.ColumnBuilder, 0, len(romaneio.Columns()))
	for _, c := range romaneio.Columns() {
		if numeric[c] {
			out = append(out, entsql.Column(c).Type("double precision"))
			continue
		}
		out = append(out, entsql.Column(c).Type("text").Attr("NOT NULL"))
	}
	return out
}

// SaveRun writes the run, its documents and its records in one transaction.
func (r *runRepo) SaveRun(ctx context.Context, run entity.Run, docs []entity.RunDocument, records []entity.StoredRecord) error {
	tx, err := r.db.drv.Tx(ctx)
	if err != nil {
		return common.NewAppError("DB_TX", "begin", err)
	}
	if err := r.saveRun(ctx, tx, run, docs, records); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			r.log.Error("repository.run.rollback_failed", "run_id", run.ID, "error", rerr)
		}
		r.log.Error("repository.run.save_failed", "run_id", run.ID, "error", err)
		return err
	}
	if err := tx.Commit(); err != nil {
		return common.NewAppError("DB_TX", "commit", err)
	}
	r.log.Info("repository.run.saved",
		"run_id", run.ID,
		"origin", run.Origin,
		"documents", len(docs),
		"records", len(records),
	)
	return nil
}

func (r *runRepo) saveRun(ctx context.Context, tx dialect.Tx, run entity.Run, docs []entity.RunDocument, records []entity.StoredRecord) error {
	b := r.db.builder()

	q, args := b.Insert(TableRuns).
		Columns(runColumns...).
		Values(run.ID.String(), run.CreatedAt.UTC().Format(timeLayout), run.Origin,
			run.Documents, run.Failed, run.Empty, run.Notes, run.TotalNota, run.PesoTotal).
		Query()
	if err := tx.Exec(ctx, q, args, nil); err != nil {
		return fmt.Errorf("%w: insert run: %v", common.ErrDatabase, err)
	}

	if len(docs) > 0 {
		ins := b.Insert(TableRunDocuments).Columns(documentColumns...)
		for _, d := range docs {
			ins.Values(run.ID.String(), d.Seq, d.Name, d.HashHex, d.Status, d.Method, d.Pages, d.Notes, d.Error)
		}
		q, args = ins.Query()
		if err := tx.Exec(ctx, q, args, nil); err != nil {
			return fmt.Errorf("%w: insert run documents: %v", common.ErrDatabase, err)
		}
	}

	if len(records) > 0 {
		cols := append([]string{"run_id", "doc_seq", "seq"}, romaneio.Columns()...)
		ins := b.Insert(TableNoteRecords).Columns(cols...)
		for _, rec := range records {
			vals := append([]any{run.ID.String(), rec.DocSeq, rec.Seq}, rec.NoteRecord.Values()...)
			ins.Values(vals...)
		}
		q, args = ins.Query()
		if err := tx.Exec(ctx, q, args, nil); err != nil {
			return fmt.Errorf("%w: insert note records: %v", common.ErrDatabase, err)
		}
	}
	return nil
}

func (r *runRepo) ListRuns(ctx context.Context, limit int) ([]entity.Run, error) {
	sel := r.db.builder().Select(runColumns...).
		From(entsql.Table(TableRuns)).
		OrderBy(entsql.Desc("created_at"), entsql.Desc("id"))
	if limit > 0 {
		sel.Limit(limit)
	}
	return r.queryRuns(ctx, sel)
}

func (r *runRepo) GetRun(ctx context.Context, id uuid.UUID) (*entity.Run, error) {
	sel := r.db.builder().Select(runColumns...).
		From(entsql.Table(TableRuns)).
		Where(entsql.EQ("id", id.String()))
	runs, err := r.queryRuns(ctx, sel)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("run %s: %w", id, common.ErrNotFound)
	}
	return &runs[0], nil
}

func (r *runRepo) queryRuns(ctx context.Context, sel *entsql.Selector) ([]entity.Run, error) {
	q, args := sel.Query()
	var rows entsql.Rows
	if err := r.db.drv.Query(ctx, q, args, &rows); err != nil {
		return nil, fmt.Errorf("%w: query runs: %v", common.ErrDatabase, err)
	}
	defer rows.Close()

	out := []entity.Run{}
	for rows.Next() {
		var (
			run       entity.Run
			id, stamp string
		)
		if err := rows.Scan(&id, &stamp, &run.Origin, &run.Documents, &run.Failed, &run.Empty, &run.Notes, &run.TotalNota, &run.PesoTotal); err != nil {
			return nil, fmt.Errorf("%w: scan run: %v", common.ErrDatabase, err)
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("%w: run id %q: %v", common.ErrDatabase, id, err)
		}
		run.ID = parsed
		if run.CreatedAt, err = time.Parse(timeLayout, stamp); err != nil {
			return nil, fmt.Errorf("%w: run %s created_at: %v", common.ErrDatabase, id, err)
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate runs: %v", common.ErrDatabase, err)
	}
	return out, nil
}

func (r *runRepo) ListDocuments(ctx context.Context, runID uuid.UUID) ([]entity.RunDocument, error) {
	q, args := r.db.builder().Select(documentColumns...).
		From(entsql.Table(TableRunDocuments)).
		Where(entsql.EQ("run_id", runID.String())).
		OrderBy("seq").
		Query()
	var rows entsql.Rows
	if err := r.db.drv.Query(ctx, q, args, &rows); err != nil {
		return nil, fmt.Errorf("%w: query run documents: %v", common.ErrDatabase, err)
	}
	defer rows.Close()

	out := []entity.RunDocument{}
	for rows.Next() {
		var (
			d                     entity.RunDocument
			id                    string
			hash, method, errText sql.NullString
		)
		if err := rows.Scan(&id, &d.Seq, &d.Name, &hash, &d.Status, &method, &d.Pages, &d.Notes, &errText); err != nil {
			return nil, fmt.Errorf("%w: scan run document: %v", common.ErrDatabase, err)
		}
		d.RunID = runID
		d.HashHex, d.Method, d.Error = hash.String, method.String, errText.String
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate run documents: %v", common.ErrDatabase, err)
	}
	return out, nil
}

// ListRecords returns a run's records ordered by document, then position.
func (r *runRepo) ListRecords(ctx context.Context, runID uuid.UUID) ([]entity.StoredRecord, error) {
	cols := append([]string{"doc_seq", "seq"}, romaneio.Columns()...)
	q, args := r.db.builder().Select(cols...).
		From(entsql.Table(TableNoteRecords)).
		Where(entsql.EQ("run_id", runID.String())).
		OrderBy("doc_seq", "seq").
		Query()
	var rows entsql.Rows
	if err := r.db.drv.Query(ctx, q, args, &rows); err != nil {
		return nil, fmt.Errorf("%w: query note records: %v", common.ErrDatabase, err)
	}
	defer rows.Close()

	out := []entity.StoredRecord{}
	for rows.Next() {
		var (
			s                    entity.StoredRecord
			peso, total, recebido sql.NullFloat64
		)
		n := &s.NoteRecord
		if err := rows.Scan(&s.DocSeq, &s.Seq,
			&n.Rota, &n.DataEmissao, &n.DataPrevisao, &n.Motorista, &n.Veiculo, &n.Carga,
			&n.NumeroNota, &n.CodigoCliente, &n.NomeCliente, &n.Pedido, &n.Cidade, &peso,
			&n.Endereco, &total, &n.FormaRecebimento, &recebido,
		); err != nil {
			return nil, fmt.Errorf("%w: scan note record: %v", common.ErrDatabase, err)
		}
		s.RunID = runID
		n.PesoPedido = nullFloat(peso)
		n.TotalNota = nullFloat(total)
		n.ValorRecebimento = nullFloat(recebido)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate note records: %v", common.ErrDatabase, err)
	}
	return out, nil
}

func (r *runRepo) CountRuns(ctx context.Context) (int, error) {
	q, args := r.db.builder().Select(entsql.Count("*")).From(entsql.Table(TableRuns)).Query()
	var rows entsql.Rows
	if err := r.db.drv.Query(ctx, q, args, &rows); err != nil {
		return 0, fmt.Errorf("%w: count runs: %v", common.ErrDatabase, err)
	}
	defer rows.Close()
	n, err := entsql.ScanInt(rows)
	if err != nil {
		return 0, fmt.Errorf("%w: count runs: %v", common.ErrDatabase, err)
	}
	return n, nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
