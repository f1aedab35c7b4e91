package insight

import (
	"fmt"
	"math"
	"sort"

	"github.com/vyaapari360/munim/internal/cache"
	"github.com/vyaapari360/munim/internal/tally"
)

// Ledgers computes the ledger search insight. A positive closing balance
// counts as receivable, a negative one as payable.
func Ledgers(rows []tally.Ledger) map[string]any {
	var debit, credit float64
	for _, l := range rows {
		if l.ClosingBalance > 0 {
			debit += l.ClosingBalance
		} else {
			credit += -l.ClosingBalance
		}
	}

	ins := map[string]any{
		"summary":              ledgerSummary(len(rows)),
		"total_matches":        len(rows),
		"total_debit_balance":  debit,
		"total_credit_balance": credit,
		"net_outstanding":      debit - credit,
	}
	if len(rows) == 0 {
		ins["outstanding_summary"] = nil
		ins["largest_opening_balance"] = nil
		ins["largest_closing_balance"] = nil
		ins["top_parties_with_dues"] = []any{}
		ins["group_summary"] = []any{}
		return ins
	}

	ins["outstanding_summary"] = fmt.Sprintf("Total Receivables: %s, Total Payables: %s",
		Rupees(debit), Rupees(credit))

	lo := largestLedger(rows, func(l tally.Ledger) float64 { return l.OpeningBalance })
	ins["largest_opening_balance"] = map[string]any{
		"ledger_name":     lo.Name,
		"opening_balance": lo.OpeningBalance,
		"group":           lo.GroupName,
		"description": fmt.Sprintf("%s (%s) had opening balance of %s",
			lo.Name, lo.GroupName, Rupees(math.Abs(lo.OpeningBalance))),
	}

	lc := largestLedger(rows, func(l tally.Ledger) float64 { return l.ClosingBalance })
	ins["largest_closing_balance"] = map[string]any{
		"ledger_name":     lc.Name,
		"closing_balance": lc.ClosingBalance,
		"group":           lc.GroupName,
		"description": fmt.Sprintf("%s (%s) has closing balance of %s",
			lc.Name, lc.GroupName, Rupees(math.Abs(lc.ClosingBalance))),
	}

	ins["top_parties_with_dues"] = topDues(rows)
	ins["group_summary"] = ledgerGroupSummary(rows)
	return ins
}

// LedgerRecords builds the cached display rows with their deep links.
func LedgerRecords(rows []tally.Ledger) []cache.DisplayRecord {
	records := make([]cache.DisplayRecord, len(rows))
	for i, l := range rows {
		records[i] = cache.DisplayRecord{
			Fields: map[string]any{
				"id":              l.ID,
				"name":            l.Name,
				"group_name":      l.GroupName,
				"opening_balance": l.OpeningBalance,
				"closing_balance": l.ClosingBalance,
				"gstin":           l.GSTIN,
			},
			Actions: map[string]string{
				"view_ledger": fmt.Sprintf("%s/ledgers/%s", deepLinkBase, l.ID),
			},
		}
	}
	return records
}

func ledgerSummary(n int) string {
	switch n {
	case 0:
		return "No ledgers found matching your criteria."
	case 1:
		return "Found 1 ledger account."
	}
	return fmt.Sprintf("Found %d ledger accounts.", n)
}

// largestLedger picks the ledger with the largest balance magnitude.
// Ties go to the higher ID for determinism.
func largestLedger(rows []tally.Ledger, balance func(tally.Ledger) float64) tally.Ledger {
	best := rows[0]
	for _, l := range rows[1:] {
		bv, lv := math.Abs(balance(best)), math.Abs(balance(l))
		if lv > bv || (lv == bv && l.ID > best.ID) {
			best = l
		}
	}
	return best
}

// topDues lists up to five ledgers with the highest positive closing
// balance, i.e. the parties owing the most.
func topDues(rows []tally.Ledger) []any {
	owing := make([]tally.Ledger, 0, len(rows))
	for _, l := range rows {
		if l.ClosingBalance > 0 {
			owing = append(owing, l)
		}
	}
	sort.Slice(owing, func(i, j int) bool {
		if owing[i].ClosingBalance != owing[j].ClosingBalance {
			return owing[i].ClosingBalance > owing[j].ClosingBalance
		}
		return owing[i].Name < owing[j].Name
	})
	if len(owing) > 5 {
		owing = owing[:5]
	}
	out := []any{}
	for _, l := range owing {
		out = append(out, map[string]any{
			"name":        l.Name,
			"due_amount":  l.ClosingBalance,
			"group":       l.GroupName,
			"description": fmt.Sprintf("%s owes %s", l.Name, Rupees(l.ClosingBalance)),
		})
	}
	return out
}

// ledgerGroupSummary groups ledgers by account group, classifying each
// group's net position, ordered by closing magnitude.
func ledgerGroupSummary(rows []tally.Ledger) []any {
	type groupAgg struct {
		name    string
		count   int
		closing float64
	}
	groups := make(map[string]*groupAgg)
	for _, l := range rows {
		g := groups[l.GroupName]
		if g == nil {
			g = &groupAgg{name: l.GroupName}
			groups[l.GroupName] = g
		}
		g.count++
		g.closing += l.ClosingBalance
	}
	ordered := make([]*groupAgg, 0, len(groups))
	for _, g := range groups {
		ordered = append(ordered, g)
	}
	sort.Slice(ordered, func(i, j int) bool {
		ai, aj := math.Abs(ordered[i].closing), math.Abs(ordered[j].closing)
		if ai != aj {
			return ai > aj
		}
		return ordered[i].name < ordered[j].name
	})

	out := []any{}
	for _, g := range ordered {
		balanceType := "Balanced"
		if g.closing > 0 {
			balanceType = "Receivable"
		} else if g.closing < 0 {
			balanceType = "Payable"
		}
		out = append(out, map[string]any{
			"group_name":    g.name,
			"ledger_count":  g.count,
			"total_closing": g.closing,
			"balance_type":  balanceType,
			"description": fmt.Sprintf("%s: %d ledgers, %s %s",
				g.name, g.count, balanceType, Rupees(math.Abs(g.closing))),
		})
	}
	return out
}
