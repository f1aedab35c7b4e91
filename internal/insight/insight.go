// Package insight computes the compact aggregate objects returned to the
// reasoning model, and the full display records cached for the UI. The two
// are disjoint: insights never carry record IDs, per-row amounts or links.
package insight

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// deepLinkBase is the UI origin for record deep links.
const deepLinkBase = "https://vyaapari360.com"

// Rupees formats an amount as ₹ with thousands separators and two decimals.
func Rupees(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	s := strconv.FormatFloat(v, 'f', 2, 64)
	dot := strings.IndexByte(s, '.')
	intPart, frac := s[:dot], s[dot:]
	var b strings.Builder
	for i, d := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	return sign + "₹" + b.String() + frac
}

// formatDate renders a date the way summaries show it, e.g. "02 Jan 2006".
func formatDate(t time.Time) string {
	return t.Format("02 Jan 2006")
}

// isoDate renders a date for display records, e.g. "2006-01-02".
func isoDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// formatQty renders a quantity without trailing zeros.
func formatQty(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// groupStat accumulates per-group counts and totals for top-N groupings.
type groupStat struct {
	name  string
	count int
	total float64
	qty   float64
}

// topGroups sorts group stats by total descending (count descending when
// byCount is set), breaking ties by name for determinism, and returns at
// most n entries. n <= 0 means all.
func topGroups(stats map[string]*groupStat, n int, byCount bool) []*groupStat {
	out := make([]*groupStat, 0, len(stats))
	for _, s := range stats {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return groupLess(out[i], out[j], byCount) })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func groupLess(a, b *groupStat, byCount bool) bool {
	if byCount {
		if a.count != b.count {
			return a.count > b.count
		}
	} else if a.total != b.total {
		return a.total > b.total
	}
	if a.count != b.count {
		return a.count > b.count
	}
	return a.name < b.name
}
