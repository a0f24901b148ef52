package textextract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/romaneio-sheets/constants"
	"github.com/joseph-ayodele/romaneio-sheets/internal/common"
)

// Backends selectable through Config.Backend.
const (
	BackendAuto      = "auto"
	BackendPdftotext = "pdftotext"
	BackendPdfcpu    = "pdfcpu"
)

type Config struct {
	Backend     string        // auto | pdftotext | pdfcpu; empty means auto
	Pdftotext   string        // binary name or absolute path; if empty -> "pdftotext"
	Timeout     time.Duration // 0 = no limit
	MaxFileSize int64         // 0 = no limit
}

// ConfigFrom maps the process configuration onto an extractor Config.
func ConfigFrom(c common.ExtractConfig) Config {
	return Config{
		Backend:     c.Backend,
		Pdftotext:   c.Pdftotext,
		Timeout:     c.Timeout,
		MaxFileSize: c.MaxFileSize,
	}
}

type Extractor struct {
	cfg      Config
	runner   Runner
	lookPath func(string) (string, error)
	logger   *slog.Logger
}

var _ TextExtractor = (*Extractor)(nil)

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Backend == "" {
		cfg.Backend = BackendAuto
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	return &Extractor{cfg: cfg, runner: execRunner{}, lookPath: exec.LookPath, logger: logger}
}

// WithRunner swaps the command runner used for pdftotext.
func (e *Extractor) WithRunner(r Runner) *Extractor {
	e.runner = r
	return e
}

// Extract picks a strategy based on file extension. Pages are joined with a
// single newline and the result is normalized.
func (e *Extractor) Extract(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	format := constants.MapExtToFormat(ext)
	if format == "" {
		e.logger.Warn("textextract.unsupported", "path", path, "ext", ext)
		return Result{}, fmt.Errorf("%w: extension %q", common.ErrUnsupportedFormat, ext)
	}

	info, err := os.Stat(path)
	if err != nil {
		return Result{}, common.WrapError(err, "stat document")
	}
	if e.cfg.MaxFileSize > 0 && info.Size() > e.cfg.MaxFileSize {
		return Result{}, fmt.Errorf("%w: %s is %d bytes, limit is %d", common.ErrUnsupportedFormat, filepath.Base(path), info.Size(), e.cfg.MaxFileSize)
	}

	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	res := Result{Format: format}
	var pages []string
	switch format {
	case constants.TXT:
		pages, res.Warnings, err = readPlainText(path)
		res.Method = constants.MethodPlainText
	case constants.PDF:
		pages, res.Method, res.Warnings, err = e.extractPDF(ctx, path)
	}
	res.Duration = time.Since(start)
	if err != nil {
		e.logger.Error("textextract.failed", "path", path, "method", res.Method, "error", err)
		return res, err
	}

	res.Pages = len(pages)
	res.Text = Normalize(strings.Join(pages, "\n"))
	e.logger.Debug("textextract.ok",
		"path", path,
		"method", res.Method,
		"pages", res.Pages,
		"chars", len(res.Text),
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

func (e *Extractor) extractPDF(ctx context.Context, path string) ([]string, string, []string, error) {
	switch e.cfg.Backend {
	case BackendPdftotext:
		pages, warns, err := e.pdfToText(ctx, path)
		return pages, constants.MethodPdftotext, warns, err
	case BackendPdfcpu:
		pages, warns, err := e.pdfcpuText(ctx, path)
		return pages, constants.MethodPdfcpu, warns, err
	case BackendAuto:
		if _, err := e.lookPath(e.cfg.Pdftotext); err == nil {
			pages, warns, err := e.pdfToText(ctx, path)
			if err == nil || ctx.Err() != nil {
				return pages, constants.MethodPdftotext, warns, err
			}
			e.logger.Warn("textextract.pdftotext.fallback", "path", path, "error", err)
			fallback, more, err := e.pdfcpuText(ctx, path)
			return fallback, constants.MethodPdfcpu, append(append(warns, "pdftotext failed, used pdfcpu"), more...), err
		}
		pages, warns, err := e.pdfcpuText(ctx, path)
		return pages, constants.MethodPdfcpu, warns, err
	default:
		return nil, "", nil, fmt.Errorf("%w: unknown extraction backend %q", common.ErrInvalidInput, e.cfg.Backend)
	}
}

func readPlainText(path string) ([]string, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, common.WrapError(err, "read text document")
	}
	text, legacy := decodeLegacy(data)
	var warns []string
	if legacy {
		warns = append(warns, "decoded as windows-1252")
	}
	return strings.Split(text, "\f"), warns, nil
}

// IsUnsupported reports whether err means the document cannot be handled at all.
func IsUnsupported(err error) bool {
	return errors.Is(err, common.ErrUnsupportedFormat)
}
