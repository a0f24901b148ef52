package textextract

import (
	"context"
	"fmt"
	"strings"

	"github.com/joseph-ayodele/romaneio-sheets/internal/common"
)

// pdfToText runs `pdftotext -layout -enc UTF-8 -eol unix <path> -` and splits
// the output into pages on form feeds.
func (e *Extractor) pdfToText(ctx context.Context, path string) ([]string, []string, error) {
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, e.logger, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		var warns []string
		if msg := strings.TrimSpace(string(errb)); msg != "" {
			warns = append(warns, msg)
		}
		return nil, warns, fmt.Errorf("%w: pdftotext: %v", common.ErrExtraction, err)
	}
	pages := strings.Split(string(out), "\f")
	// pdftotext terminates the last page with a form feed
	if len(pages) > 1 && strings.TrimSpace(pages[len(pages)-1]) == "" {
		pages = pages[:len(pages)-1]
	}
	return pages, nil, nil
}
