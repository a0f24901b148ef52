package romaneio

import (
	"strings"
	"time"
)

const canonicalDate = "02/01/2006"

// accepted layouts, tried in order. Single-digit day and month are tolerated.
var dateLayouts = []string{"2/1/2006", "2/1/06"}

// NormalizeDate rewrites dd/mm/yyyy or dd/mm/yy as dd/mm/yyyy. Anything else
// is returned trimmed but otherwise untouched.
func NormalizeDate(s string) string {
	if s == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(canonicalDate)
		}
	}
	return strings.TrimSpace(s)
}
