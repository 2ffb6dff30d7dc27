package dashboard

import (
	"math"
	"strings"

	"github.com/dustin/go-humanize"
)

// Rupiah formats a price the Indonesian way, dot grouped thousands and a comma before two
// decimals, e.g. Rp 35.000,00. Absent values render as a dash.
func Rupiah(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	if v < 0 {
		return "-Rp " + humanize.FormatFloat("#.###,##", -v)
	}
	return "Rp " + humanize.FormatFloat("#.###,##", v)
}

// Slug turns a display name into a lower case file name fragment.
func Slug(name string) string {
	fields := strings.Fields(strings.ToLower(name))
	return strings.Join(fields, "_")
}
