package export

import (
	"encoding/json"
	"io"
	"regexp"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joseph-ayodele/romaneio-sheets/internal/romaneio"
)

var reUnsafeName = regexp.MustCompile(`[^A-Za-z0-9\-]+`)

// DownloadName derives the workbook file name from the first record's route:
// romaneio_rota_<label>.xlsx, where every run of characters outside
// [A-Za-z0-9-] becomes "_".
func DownloadName(records []romaneio.NoteRecord) string {
	label := ""
	if len(records) > 0 {
		label = strings.TrimSpace(records[0].Rota)
	}
	if label == "" {
		label = "romaneio"
	}
	safe := strings.Trim(reUnsafeName.ReplaceAllString(label, "_"), "_")
	if safe == "" {
		safe = "romaneio"
	}
	return "romaneio_rota_" + safe + ".xlsx"
}

// WriteJSON writes records as an indented JSON array. Keys follow column
// order and absent numbers are null.
func WriteJSON(w io.Writer, records []romaneio.NoteRecord) error {
	if records == nil {
		records = []romaneio.NoteRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(records)
}

// FormatBRL renders v with two decimals in Brazilian notation, e.g. 5.458,96.
func FormatBRL(v float64) string {
	return message.NewPrinter(language.BrazilianPortuguese).Sprintf("%.2f", v)
}
