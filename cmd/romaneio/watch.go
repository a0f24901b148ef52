package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/romaneio-sheets/constants"
	"github.com/joseph-ayodele/romaneio-sheets/internal/app"
	"github.com/joseph-ayodele/romaneio-sheets/internal/ingest"
	"github.com/joseph-ayodele/romaneio-sheets/internal/pipeline"
	"github.com/joseph-ayodele/romaneio-sheets/internal/services/history"
)

func watchCmd(g *globalFlags) *cobra.Command {
	var (
		out         string
		initialScan bool
		debounce    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch <dir>...",
		Short: "Convert manifests dropped into a directory, one workbook each",
		Long: `Watch directories (recursively) for new or rewritten PDF/TXT manifests.
Each document is parsed as soon as it settles and written to <out>/<name>.xlsx.
A file rewritten with unchanged content is not converted again.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := build(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := os.MkdirAll(out, 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
			w := &watcher{app: a, outDir: out, stderr: cmd.ErrOrStderr()}
			return w.run(cmd.Context(), ingest.WatchConfig{
				Roots:       args,
				InitialScan: initialScan,
				Debounce:    debounce,
				SkipHidden:  true,
				Logger:      a.Logger,
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", ".", "directory for generated workbooks")
	cmd.Flags().BoolVar(&initialScan, "initial-scan", false, "also convert documents already present")
	cmd.Flags().DurationVar(&debounce, "debounce", 2*time.Second, "quiet period before a changed file is read")
	return cmd
}

type watcher struct {
	app    *app.App
	outDir string
	stderr io.Writer

	mu   sync.Mutex
	seen map[string]string // path -> content hash last converted
}

func (w *watcher) run(ctx context.Context, cfg ingest.WatchConfig) error {
	events, errs, err := ingest.StartWatcher(ctx, cfg)
	if err != nil {
		return err
	}
	w.seen = map[string]string{}
	ing := ingest.NewFSIngestor(w.app.Logger)
	// a small buffer keeps the watcher from racing far ahead of the workers
	q := pipeline.NewQueue(w.app.Processor, func(_ pipeline.Job, res pipeline.DocumentResult) {
		w.handle(context.WithoutCancel(ctx), res)
	}, pipeline.WithQueueSize(4*w.app.Config.Pipeline.Workers))
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		q.Shutdown(shutdownCtx)
	}()

	fmt.Fprintf(w.stderr, "Observando %s (Ctrl+C para sair)\n", strings.Join(cfg.Roots, ", "))
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-errs:
			if ok && err != nil {
				w.app.Logger.Warn("watch.error", "error", err)
			}
		case path, ok := <-events:
			if !ok {
				return nil
			}
			src, err := ing.IngestPath(ctx, path)
			if err != nil {
				w.app.Logger.Warn("watch.ingest_failed", "path", path, "error", err)
				continue
			}
			if !w.changed(src) {
				continue
			}
			if err := q.Enqueue(ctx, pipeline.Job{Source: src}); err != nil {
				w.app.Logger.Warn("watch.enqueue_failed", "path", path, "error", err)
			}
		}
	}
}

func (w *watcher) changed(src ingest.Source) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.seen[src.Path] == src.HashHex {
		w.app.Logger.Info("watch.unchanged", "path", src.Path)
		return false
	}
	w.seen[src.Path] = src.HashHex
	return true
}

func (w *watcher) handle(ctx context.Context, res pipeline.DocumentResult) {
	batch := pipeline.BatchResult{Documents: []pipeline.DocumentResult{res}}
	if _, err := w.app.History().Record(ctx, history.OriginWatch, batch); err != nil {
		w.app.Logger.Error("watch.history_failed", "document", res.Name(), "error", err)
	}
	if res.Status != constants.DocumentStatusOK {
		fmt.Fprintln(w.stderr, batch.Messages()[0].Text)
		return
	}
	name := strings.TrimSuffix(res.Source.Name, filepath.Ext(res.Source.Name)) + ".xlsx"
	dest := filepath.Join(w.outDir, name)
	data, err := w.app.Export.WriteXLSX(res.Records)
	if err == nil {
		err = os.WriteFile(dest, data, 0o644)
	}
	if err != nil {
		w.app.Logger.Error("watch.write_failed", "document", res.Name(), "path", dest, "error", err)
		return
	}
	fmt.Fprintf(w.stderr, "%s: %d notas -> %s\n", res.Name(), len(res.Records), dest)
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
