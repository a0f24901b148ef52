package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/romaneio-sheets/constants"
	"github.com/joseph-ayodele/romaneio-sheets/internal/common"
)

// FSIngestor reads from the local filesystem.
type FSIngestor struct {
	logger *slog.Logger
}

var _ Ingestor = (*FSIngestor)(nil)

func NewFSIngestor(logger *slog.Logger) *FSIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSIngestor{logger: logger}
}

func (i *FSIngestor) IngestPath(ctx context.Context, path string) (Source, error) {
	if err := ctx.Err(); err != nil {
		return Source{}, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return Source{}, fmt.Errorf("abs path: %w", err)
	}

	ext := constants.NormalizeExt(filepath.Ext(abs))
	if ext == "" || !AllowedExt(ext) {
		i.logger.Warn("ingest.unsupported", "path", abs, "ext", ext)
		return Source{}, fmt.Errorf("%w: %q", common.ErrUnsupportedFormat, ext)
	}

	f, err := os.Open(abs)
	if err != nil {
		return Source{}, fmt.Errorf("open: %w", err)
	}
	defer func(f *os.File) {
		if err := f.Close(); err != nil {
			i.logger.Warn("ingest.close_failed", "path", abs, "error", err)
		}
	}(f)

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return Source{}, fmt.Errorf("hash: %w", err)
	}

	return Source{
		Name:    filepath.Base(abs),
		Path:    abs,
		Ext:     ext,
		Size:    n,
		HashHex: hex.EncodeToString(h.Sum(nil)),
	}, nil
}

// IngestDirectory walks root, skips hidden if requested,
// and calls IngestPath for each file. Returns per-file results + aggregate stats.
// A file whose content hash was already seen in this walk is marked
// deduplicated and counted, but still returned.
func (i *FSIngestor) IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]IngestionResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	var results []IngestionResult
	var stats DirStats
	seen := map[string]string{}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, failedResult(path, walkErr))
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}
		if !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		src, err := i.IngestPath(ctx, path)
		if err != nil {
			results = append(results, failedResult(path, err))
			stats.Failed++
			return nil
		}

		r := IngestionResult{Source: src}
		if first, dup := seen[src.HashHex]; dup {
			i.logger.Info("ingest.duplicate", "path", src.Path, "same_as", first)
			r.Deduplicated = true
			stats.Deduplicated++
		} else {
			seen[src.HashHex] = src.Path
		}
		results = append(results, r)
		stats.Succeeded++
		return nil
	})

	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	i.logger.Debug("ingest.directory",
		"root", root,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"deduplicated", stats.Deduplicated,
		"failed", stats.Failed,
	)
	return results, stats, nil
}

func failedResult(path string, err error) IngestionResult {
	return IngestionResult{
		Source: Source{Path: path, Name: filepath.Base(path), Err: err},
		Err:    err.Error(),
	}
}
