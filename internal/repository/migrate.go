package repository

import (
	"context"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/romaneio-sheets/internal/common"
)

// Table names.
const (
	TableRuns         = "runs"
	TableRunDocuments = "run_documents"
	TableNoteRecords  = "note_records"
)

func (d *DB) builder() *entsql.DialectBuilder {
	return entsql.Dialect(d.drv.Dialect())
}

// Migrate creates the history tables when they do not exist yet.
func (d *DB) Migrate(ctx context.Context) error {
	b := d.builder()
	stmts := []entsql.Querier{
		b.CreateTable(TableRuns).IfNotExists().
			Columns(
				entsql.Column("id").Type("varchar(36)").Attr("NOT NULL"),
				entsql.Column("created_at").Type("varchar(40)").Attr("NOT NULL"),
				entsql.Column("origin").Type("varchar(16)").Attr("NOT NULL"),
				entsql.Column("documents").Type("integer").Attr("NOT NULL"),
				entsql.Column("failed").Type("integer").Attr("NOT NULL"),
				entsql.Column("empty").Type("integer").Attr("NOT NULL"),
				entsql.Column("notes").Type("integer").Attr("NOT NULL"),
				entsql.Column("total_nota").Type("double precision").Attr("NOT NULL"),
				entsql.Column("peso_total").Type("double precision").Attr("NOT NULL"),
			).
			PrimaryKey("id"),
		b.CreateTable(TableRunDocuments).IfNotExists().
			Columns(
				entsql.Column("run_id").Type("varchar(36)").Attr("NOT NULL"),
				entsql.Column("seq").Type("integer").Attr("NOT NULL"),
				entsql.Column("name").Type("text").Attr("NOT NULL"),
				entsql.Column("hash_hex").Type("varchar(64)"),
				entsql.Column("status").Type("varchar(16)").Attr("NOT NULL"),
				entsql.Column("method").Type("varchar(32)"),
				entsql.Column("pages").Type("integer").Attr("NOT NULL"),
				entsql.Column("notes").Type("integer").Attr("NOT NULL"),
				entsql.Column("error").Type("text"),
			).
			PrimaryKey("run_id", "seq").
			ForeignKeys(
				entsql.ForeignKey().Columns("run_id").
					Reference(entsql.Reference().Table(TableRuns).Columns("id")).
					OnDelete("CASCADE"),
			),
		b.CreateTable(TableNoteRecords).IfNotExists().
			Columns(append([]*entsql.ColumnBuilder{
				entsql.Column("run_id").Type("varchar(36)").Attr("NOT NULL"),
				entsql.Column("doc_seq").Type("integer").Attr("NOT NULL"),
				entsql.Column("seq").Type("integer").Attr("NOT NULL"),
			}, recordColumns()...)...).
			PrimaryKey("run_id", "doc_seq", "seq").
			ForeignKeys(
				entsql.ForeignKey().Columns("run_id", "doc_seq").
					Reference(entsql.Reference().Table(TableRunDocuments).Columns("run_id", "seq")).
					OnDelete("CASCADE"),
			),
		b.CreateIndex("runs_created_at").IfNotExists().Table(TableRuns).Columns("created_at"),
	}

	for _, st := range stmts {
		query, args := st.Query()
		if err := d.drv.Exec(ctx, query, args, nil); err != nil {
			d.logger.Error("repository.migrate.failed", "query", query, "error", err)
			return common.NewAppError("DB_MIGRATE", "create history tables", err)
		}
	}
	d.logger.Info("repository.migrate.ok", "dialect", d.drv.Dialect())
	return nil
}
