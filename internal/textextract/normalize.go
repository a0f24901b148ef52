package textextract

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// Normalize prepares extracted text for line-oriented parsing: LF line
// endings, NFC composition, no trailing blanks on any line.
// It never joins or reorders lines.
func Normalize(s string) string {
	if s == "" {
		return s
	}
	s = lineEndings.Replace(s)
	s = norm.NFC.String(s)
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " \t")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}

// decodeLegacy returns data as UTF-8, reading it as Windows-1252 when it is
// not valid UTF-8.
func decodeLegacy(data []byte) (string, bool) {
	if utf8.Valid(data) {
		return string(data), false
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return string(data), false
	}
	return string(out), true
}
