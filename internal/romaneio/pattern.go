package romaneio

import (
	"regexp"
	"strings"
)

// spaceClass is the body of a character class matching every rune
// str.isspace accepts, NBSP and the other Unicode separators included.
// Go's \s alone covers ASCII whitespace only.
const spaceClass = `\s\p{Z}\x{85}\x{1c}-\x{1f}`

// compile is regexp.MustCompile with \s widened to spaceClass, both as a
// bare escape and inside bracket expressions.
func compile(expr string) *regexp.Regexp {
	return regexp.MustCompile(widenSpace(expr))
}

func widenSpace(expr string) string {
	var b strings.Builder
	inClass := false
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		switch {
		case c == '\\' && i+1 < len(expr):
			if expr[i+1] == 's' {
				if inClass {
					b.WriteString(spaceClass)
				} else {
					b.WriteString("[" + spaceClass + "]")
				}
			} else {
				b.WriteByte(c)
				b.WriteByte(expr[i+1])
			}
			i++
		case c == '[' && !inClass:
			inClass = true
			b.WriteByte(c)
			// a leading ']' or '^]' is literal
			if i+1 < len(expr) && expr[i+1] == '^' {
				b.WriteByte('^')
				i++
			}
			if i+1 < len(expr) && expr[i+1] == ']' {
				b.WriteByte(']')
				i++
			}
		case c == ']' && inClass:
			inClass = false
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
