package romaneio

import (
	"math"
	"strconv"
	"strings"
)

// ParseNumber converts a Brazilian formatted decimal ("5.458,96") into a
// float. Empty or unparsable input yields nil.
func ParseNumber(token string) *float64 {
	s := strings.TrimSpace(token)
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
