package textextract

import (
	"bytes"
	"encoding/hex"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// operand is one content stream operand. Only the kinds the text operators
// consume are distinguished.
type operand struct {
	kind byte // 's' string, 'n' number, 'a' array, 'o' anything else
	str  []byte
	num  float64
	arr  []operand
}

type streamLexer struct {
	data []byte
	pos  int
}

// lineWriter accumulates page text, collapsing repeated separators.
type lineWriter struct {
	sb strings.Builder
}

func (w *lineWriter) text(s string) {
	w.sb.WriteString(s)
}

func (w *lineWriter) last() byte {
	s := w.sb.String()
	if s == "" {
		return 0
	}
	return s[len(s)-1]
}

func (w *lineWriter) newline() {
	if w.sb.Len() > 0 && w.last() != '\n' {
		w.sb.WriteByte('\n')
	}
}

func (w *lineWriter) space() {
	if l := w.last(); l != 0 && l != ' ' && l != '\n' {
		w.sb.WriteByte(' ')
	}
}

// TJ offsets are in thousandths of text space; a gap this wide reads as a word break.
const tjWordGap = 200

// decodeContentStream extracts the text shown by Tj, TJ, ' and " in a page
// content stream. T*, ', ", ET and vertical Td/TD/Tm moves start a new line.
func decodeContentStream(data []byte) string {
	lx := &streamLexer{data: data}
	w := &lineWriter{}
	var operands []operand
	var lastY float64
	haveY := false

	for {
		op, tok, ok := lx.next()
		if !ok {
			break
		}
		if tok == "" {
			operands = append(operands, op)
			continue
		}
		switch tok {
		case "Tj":
			if s, ok := lastString(operands); ok {
				w.text(s)
			}
		case "TJ":
			if len(operands) > 0 && operands[len(operands)-1].kind == 'a' {
				for _, el := range operands[len(operands)-1].arr {
					switch el.kind {
					case 's':
						w.text(decodePDFText(el.str))
					case 'n':
						if -el.num > tjWordGap {
							w.space()
						}
					}
				}
			}
		case "'", `"`:
			w.newline()
			if s, ok := lastString(operands); ok {
				w.text(s)
			}
		case "T*", "ET":
			w.newline()
		case "Td", "TD":
			if len(operands) >= 2 && operands[len(operands)-1].kind == 'n' && operands[len(operands)-1].num != 0 {
				w.newline()
			} else {
				w.space()
			}
		case "Tm":
			if len(operands) >= 6 && operands[5].kind == 'n' {
				y := operands[5].num
				if haveY && y != lastY {
					w.newline()
				} else {
					w.space()
				}
				lastY, haveY = y, true
			}
		case "ID":
			lx.skipInlineImage()
		}
		operands = operands[:0]
	}
	return strings.TrimRight(w.sb.String(), " \n")
}

func lastString(operands []operand) (string, bool) {
	if len(operands) == 0 || operands[len(operands)-1].kind != 's' {
		return "", false
	}
	return decodePDFText(operands[len(operands)-1].str), true
}

// decodePDFText maps string bytes to UTF-8: UTF-16BE when BOM-prefixed,
// otherwise the single-byte WinAnsi encoding used by simple fonts.
func decodePDFText(b []byte) string {
	if len(b) >= 2 && b[0] == 0xFE && b[1] == 0xFF {
		out, err := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder().Bytes(b)
		if err == nil {
			return string(out)
		}
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}

func isPDFSpace(c byte) bool {
	switch c {
	case 0, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

func isPDFDelim(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

// next returns either an operand (tok == "") or an operator token.
func (lx *streamLexer) next() (operand, string, bool) {
	for lx.pos < len(lx.data) {
		c := lx.data[lx.pos]
		switch {
		case isPDFSpace(c):
			lx.pos++
		case c == '%':
			for lx.pos < len(lx.data) && lx.data[lx.pos] != '\n' && lx.data[lx.pos] != '\r' {
				lx.pos++
			}
		case c == '(':
			lx.pos++
			return operand{kind: 's', str: lx.literal()}, "", true
		case c == '<':
			if lx.pos+1 < len(lx.data) && lx.data[lx.pos+1] == '<' {
				lx.pos += 2
				return operand{kind: 'o'}, "", true
			}
			lx.pos++
			return operand{kind: 's', str: lx.hexString()}, "", true
		case c == '>':
			lx.pos++
			if lx.pos < len(lx.data) && lx.data[lx.pos] == '>' {
				lx.pos++
			}
			return operand{kind: 'o'}, "", true
		case c == '[':
			lx.pos++
			return lx.array(), "", true
		case c == ']' || c == ')' || c == '{' || c == '}':
			lx.pos++
		case c == '/':
			lx.pos++
			lx.regular()
			return operand{kind: 'o'}, "", true
		default:
			tok := lx.regular()
			if tok == "" {
				lx.pos++
				continue
			}
			if n, err := strconv.ParseFloat(tok, 64); err == nil {
				return operand{kind: 'n', num: n}, "", true
			}
			return operand{}, tok, true
		}
	}
	return operand{}, "", false
}

func (lx *streamLexer) regular() string {
	start := lx.pos
	for lx.pos < len(lx.data) && !isPDFSpace(lx.data[lx.pos]) && !isPDFDelim(lx.data[lx.pos]) {
		lx.pos++
	}
	return string(lx.data[start:lx.pos])
}

func (lx *streamLexer) array() operand {
	arr := operand{kind: 'a'}
	for lx.pos < len(lx.data) {
		for lx.pos < len(lx.data) && isPDFSpace(lx.data[lx.pos]) {
			lx.pos++
		}
		if lx.pos < len(lx.data) && lx.data[lx.pos] == ']' {
			lx.pos++
			return arr
		}
		op, tok, ok := lx.next()
		if !ok {
			break
		}
		if tok == "" {
			arr.arr = append(arr.arr, op)
		}
	}
	return arr
}

// literal reads a (...) string body; the opening paren is already consumed.
func (lx *streamLexer) literal() []byte {
	var out []byte
	depth := 1
	for lx.pos < len(lx.data) {
		c := lx.data[lx.pos]
		lx.pos++
		switch c {
		case '(':
			depth++
			out = append(out, c)
		case ')':
			depth--
			if depth == 0 {
				return out
			}
			out = append(out, c)
		case '\\':
			if lx.pos >= len(lx.data) {
				return out
			}
			e := lx.data[lx.pos]
			lx.pos++
			switch e {
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case 'b':
				out = append(out, '\b')
			case 'f':
				out = append(out, '\f')
			case '\r':
				if lx.pos < len(lx.data) && lx.data[lx.pos] == '\n' {
					lx.pos++
				}
			case '\n':
			default:
				if e >= '0' && e <= '7' {
					val := int(e - '0')
					for i := 0; i < 2 && lx.pos < len(lx.data); i++ {
						d := lx.data[lx.pos]
						if d < '0' || d > '7' {
							break
						}
						val = val*8 + int(d-'0')
						lx.pos++
					}
					out = append(out, byte(val))
				} else {
					out = append(out, e)
				}
			}
		default:
			out = append(out, c)
		}
	}
	return out
}

// hexString reads a <...> string body; the opening bracket is already consumed.
func (lx *streamLexer) hexString() []byte {
	var digits []byte
	for lx.pos < len(lx.data) {
		c := lx.data[lx.pos]
		lx.pos++
		if c == '>' {
			break
		}
		if isPDFSpace(c) {
			continue
		}
		digits = append(digits, c)
	}
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out, err := hex.DecodeString(string(digits))
	if err != nil {
		return nil
	}
	return out
}

// skipInlineImage jumps past binary inline image data up to its EI operator.
func (lx *streamLexer) skipInlineImage() {
	rest := lx.data[lx.pos:]
	for off := 0; ; {
		i := bytes.Index(rest[off:], []byte("EI"))
		if i < 0 {
			lx.pos = len(lx.data)
			return
		}
		at := off + i
		before := at == 0 || isPDFSpace(rest[at-1])
		after := at+2 == len(rest) || isPDFSpace(rest[at+2])
		if before && after {
			lx.pos += at + 2
			return
		}
		off = at + 2
	}
}
