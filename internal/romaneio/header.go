package romaneio

import (
	"regexp"
	"strings"
)

var (
	reRota = compile(`^\d{2,4}\s+[A-Za-zÀ-ÿ0-9 .,\-()]+$`)

	reEmissao   = compile(`(?i)Emiss[aã]o:\s*([\d/]{8,10})`)
	rePrevisao  = compile(`(?i)Previs[aã]o:\s*([\d/]{8,10})`)
	reMotorista = compile(`(?i)Motorista:\s*([^\n]+)`)
	reVeiculo   = compile(`(?i)Ve[ií]culo:\s*([^\n]+)`)
	reCarga     = compile(`(?i)Carga[:\s]+([0-9.,]+)`)
)

// ExtractHeader pulls the shipment-level fields out of a whole document.
// Unmatched fields are left empty.
func ExtractHeader(text string) ManifestHeader {
	var h ManifestHeader
	for _, line := range nonEmptyLines(text) {
		if reRota.MatchString(line) {
			h.Rota = line
			break
		}
	}
	h.DataEmissao = findGroup(reEmissao, text)
	h.DataPrevisao = findGroup(rePrevisao, text)
	h.Motorista = findGroup(reMotorista, text)
	h.Veiculo = findGroup(reVeiculo, text)
	h.Carga = findGroup(reCarga, text)
	return h
}

// findGroup returns the first capture group of the leftmost match, trimmed.
func findGroup(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// nonEmptyLines splits on every line boundary PDF text may carry (form feeds
// between pages included) and keeps trimmed, non-blank lines.
func nonEmptyLines(text string) []string {
	raw := strings.FieldsFunc(text, isLineBreak)
	out := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', 0x1c, 0x1d, 0x1e, 0x85, 0x2028, 0x2029:
		return true
	}
	return false
}
