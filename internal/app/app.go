// Package app wires configuration into the services shared by every binary.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/joseph-ayodele/romaneio-sheets/internal/common"
	"github.com/joseph-ayodele/romaneio-sheets/internal/export"
	"github.com/joseph-ayodele/romaneio-sheets/internal/ingest"
	"github.com/joseph-ayodele/romaneio-sheets/internal/pipeline"
	"github.com/joseph-ayodele/romaneio-sheets/internal/repository"
	"github.com/joseph-ayodele/romaneio-sheets/internal/server"
	"github.com/joseph-ayodele/romaneio-sheets/internal/services/documents"
	"github.com/joseph-ayodele/romaneio-sheets/internal/services/history"
	"github.com/joseph-ayodele/romaneio-sheets/internal/textextract"
)

// App holds the assembled services. DB is nil when history is disabled.
type App struct {
	Config    *common.Config
	Logger    *slog.Logger
	DB        *repository.DB
	Extractor *textextract.Extractor
	Processor *pipeline.Processor
	Documents *documents.Service
	Export    *export.Service
}

// New validates cfg and builds the service graph. With an empty DSN, runs are
// not persisted; otherwise the database is opened and migrated.
func New(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Logger: logger}
	var repo repository.RunRepository
	if cfg.Database.DSN != "" {
		db, err := repository.Open(ctx, repository.ConfigFrom(cfg.Database), logger)
		if err != nil {
			return nil, fmt.Errorf("open history database: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate history database: %w", err)
		}
		a.DB = db
		repo = repository.NewRunRepository(db, logger)
	} else {
		logger.Info("app.history.disabled")
	}

	a.Extractor = textextract.NewExtractor(textextract.ConfigFrom(cfg.Extract), logger)
	a.Processor = pipeline.NewProcessor(a.Extractor, logger, pipeline.FromConfig(cfg.Pipeline)...)
	a.Export = export.NewService(cfg.Export.SheetName, logger)
	a.Documents = documents.NewService(
		ingest.NewFSIngestor(logger),
		a.Processor,
		history.NewService(repo, logger),
		logger,
	)
	return a, nil
}

// History is a shortcut for the run history service.
func (a *App) History() *history.Service { return a.Documents.History() }

// HealthCheck pings the history database, if any.
func (a *App) HealthCheck(ctx context.Context) error {
	if a.DB == nil {
		return nil
	}
	return a.DB.HealthCheck(ctx, 2*time.Second)
}

// HTTPHandler builds the HTTP surface.
func (a *App) HTTPHandler() http.Handler {
	health := func(r *http.Request) error { return a.HealthCheck(r.Context()) }
	return server.NewHTTPHandler(a.Documents, a.Export, a.Config.Server.MaxUpload, health, a.Logger).Router()
}

// RomaneioService builds the gRPC service implementation.
func (a *App) RomaneioService() *server.RomaneioService {
	return server.NewRomaneioService(a.Documents, a.Export, a.Logger)
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}
