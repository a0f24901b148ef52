package export

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/romaneio-sheets/internal/romaneio"
)

// DefaultSheet is the worksheet name used when none is configured.
const DefaultSheet = "Romaneio"

// XLSXContentType is the MIME type of generated workbooks.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Service renders note records into downloadable spreadsheets.
type Service struct {
	sheet  string
	logger *slog.Logger
}

func NewService(sheet string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if sheet == "" {
		sheet = DefaultSheet
	}
	return &Service{sheet: sheet, logger: logger}
}

// Sheet returns the worksheet name records are written to.
func (s *Service) Sheet() string { return s.sheet }

// WriteXLSX returns a workbook with a header row of the 16 column names and
// one row per record in order. Numbers are stored as numeric cells; absent
// numbers leave the cell empty.
func (s *Service) WriteXLSX(records []romaneio.NoteRecord) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.EncodeXLSX(&buf, records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeXLSX streams the workbook built by WriteXLSX to w.
func (s *Service) EncodeXLSX(w io.Writer, records []romaneio.NoteRecord) error {
	start := time.Now()

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("export.xlsx.close_failed", "error", err)
		}
	}()

	const defaultSheet = "Sheet1"
	sheet := s.sheet
	if sheet != defaultSheet {
		idx, err := f.NewSheet(sheet)
		if err != nil {
			return fmt.Errorf("xlsx sheet: %w", err)
		}
		f.SetActiveSheet(idx)
		if err := f.DeleteSheet(defaultSheet); err != nil {
			return fmt.Errorf("xlsx sheet: %w", err)
		}
	}

	columns := romaneio.Columns()
	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("xlsx header: %w", err)
	}

	if bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		last, _ := excelize.CoordinatesToCellName(len(columns), 1)
		_ = f.SetCellStyle(sheet, "A1", last, bold)
	}

	row := 2
	for _, r := range records {
		for col, v := range r.Values() {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("xlsx cell %s: %w", cell, err)
			}
		}
		row++
	}

	_ = f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
	_ = f.SetColWidth(sheet, "A", "A", 28) // rota
	_ = f.SetColWidth(sheet, "B", "C", 13) // dates
	_ = f.SetColWidth(sheet, "D", "F", 20)
	_ = f.SetColWidth(sheet, "G", "H", 14)
	_ = f.SetColWidth(sheet, "I", "I", 36) // nome_cliente
	_ = f.SetColWidth(sheet, "J", "L", 14)
	_ = f.SetColWidth(sheet, "M", "M", 40) // endereco
	_ = f.SetColWidth(sheet, "N", "P", 18)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"sheet", sheet,
		"rows", len(records),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}
