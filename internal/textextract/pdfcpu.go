package textextract

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/joseph-ayodele/romaneio-sheets/internal/common"
)

// pdfcpuText reads the PDF with pdfcpu and decodes each page's content
// stream. Pages whose content cannot be read contribute "" and a warning.
func (e *Extractor) pdfcpuText(ctx context.Context, path string) ([]string, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	pdfCtx, err := api.ReadValidateAndOptimize(f, model.NewDefaultConfiguration())
	if err != nil {
		return nil, nil, fmt.Errorf("%w: pdfcpu read: %v", common.ErrExtraction, err)
	}

	pages := make([]string, 0, pdfCtx.PageCount)
	var warns []string
	for pageNr := 1; pageNr <= pdfCtx.PageCount; pageNr++ {
		if err := ctx.Err(); err != nil {
			return nil, warns, err
		}
		text, err := pageText(pdfCtx, pageNr)
		if err != nil {
			warns = append(warns, fmt.Sprintf("page %d: %v", pageNr, err))
		}
		pages = append(pages, text)
	}
	return pages, warns, nil
}

func pageText(pdfCtx *model.Context, pageNr int) (string, error) {
	r, err := pdfcpu.ExtractPageContent(pdfCtx, pageNr)
	if err != nil {
		return "", err
	}
	if r == nil {
		return "", nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return decodeContentStream(data), nil
}
