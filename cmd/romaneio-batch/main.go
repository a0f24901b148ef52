package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/joseph-ayodele/romaneio-sheets/internal/app"
	"github.com/joseph-ayodele/romaneio-sheets/internal/common"
	"github.com/joseph-ayodele/romaneio-sheets/internal/export"
	"github.com/joseph-ayodele/romaneio-sheets/internal/services/documents"
	"github.com/joseph-ayodele/romaneio-sheets/internal/services/history"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		inmem   = flag.Bool("inmem", false, "record the run in an in-memory SQLite database")
		dir     = flag.String("dir", "", "directory to process manifests from (required)")
		out     = flag.String("out", "", "output XLSX file path (optional, defaults to the rota-based name next to --dir)")
		hidden  = flag.Bool("hidden", false, "include hidden files and directories")
		workers = flag.Int("workers", 0, "documents processed in parallel (default from PIPELINE_WORKERS)")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}

	cfg, err := common.LoadConfig()
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	if *inmem {
		cfg.Database.DSN = ":memory:"
	}
	if *workers > 0 {
		cfg.Pipeline.Workers = *workers
	}

	logger := common.NewLogger(os.Stderr, cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	logger.Info("starting batch", "dir", *dir, "history", a.History().Enabled())
	res, err := a.Documents.ParsePaths(ctx, history.OriginBatch, documents.PathsRequest{
		Paths:      []string{*dir},
		SkipHidden: !*hidden,
	})
	if err != nil {
		logger.Error("failed to process directory", "error", err)
		os.Exit(1)
	}

	for _, m := range res.Batch.Messages() {
		printError("%s: %s\n", m.Level, m.Text)
	}

	records := res.Batch.Records()
	summary := res.Batch.Summary()
	if len(records) == 0 {
		logger.Warn("no notes found, nothing exported", "documents", summary.Documents)
		os.Exit(2)
	}

	if *out == "" {
		*out = filepath.Join(filepath.Dir(filepath.Clean(*dir)), export.DownloadName(records))
	}
	data, err := a.Export.WriteXLSX(records)
	if err != nil {
		logger.Error("failed to export records", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		logger.Error("failed to write output file", "path", *out, "error", err)
		os.Exit(1)
	}

	logger.Info("batch processing complete",
		"documents", summary.Documents,
		"ok", summary.OK,
		"empty", summary.Empty,
		"failed", summary.Failed,
		"notes", summary.Notes,
		"run_id", res.RunID,
		"output", *out,
	)
	fmt.Printf("Notas: %d\n", summary.Notes)
	fmt.Printf("Soma das Notas (R$): %s\n", export.FormatBRL(summary.TotalNota))
	fmt.Printf("Peso Total: %s\n", export.FormatBRL(summary.PesoTotal))
	fmt.Printf("Planilha: %s\n", *out)
}
