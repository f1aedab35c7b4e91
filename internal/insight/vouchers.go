package insight

import (
	"fmt"

	"github.com/vyaapari360/munim/internal/cache"
	"github.com/vyaapari360/munim/internal/tally"
)

// Vouchers computes the voucher search insight. Rows are expected in final
// display order; aggregates do not depend on it but the extremum tie-break
// does not either, so any order is safe.
func Vouchers(rows []tally.Voucher) map[string]any {
	total := 0.0
	for _, v := range rows {
		total += v.TotalDebit
	}

	ins := map[string]any{
		"summary":       voucherSummary(len(rows), total),
		"total_matches": len(rows),
		"total_amount":  total,
		"period":        voucherPeriod(rows),
	}
	if len(rows) == 0 {
		ins["highest_voucher"] = nil
		ins["most_common_type"] = nil
		ins["most_common_party"] = nil
		ins["top_parties_by_value"] = []any{}
		ins["voucher_type_summary"] = []any{}
		return ins
	}

	hv := highestVoucher(rows)
	party := hv.PartyLedgerName
	if party == "" {
		party = "N/A"
	}
	ins["highest_voucher"] = map[string]any{
		"voucher_number": hv.Number,
		"party":          hv.PartyLedgerName,
		"amount":         hv.TotalDebit,
		"date":           formatDate(hv.Date),
		"type":           hv.Type,
		"description": fmt.Sprintf("Highest: %s #%s to %s for %s on %s",
			hv.Type, hv.Number, party, Rupees(hv.TotalDebit), formatDate(hv.Date)),
	}

	types := make(map[string]*groupStat)
	parties := make(map[string]*groupStat)
	for _, v := range rows {
		t := types[v.Type]
		if t == nil {
			t = &groupStat{name: v.Type}
			types[v.Type] = t
		}
		t.count++
		t.total += v.TotalDebit

		if v.PartyLedgerName == "" {
			continue
		}
		p := parties[v.PartyLedgerName]
		if p == nil {
			p = &groupStat{name: v.PartyLedgerName}
			parties[v.PartyLedgerName] = p
		}
		p.count++
		p.total += v.TotalDebit
	}

	if top := topGroups(types, 1, true); len(top) > 0 {
		ins["most_common_type"] = map[string]any{
			"type":        top[0].name,
			"count":       top[0].count,
			"description": fmt.Sprintf("%s (%d vouchers)", top[0].name, top[0].count),
		}
	} else {
		ins["most_common_type"] = nil
	}

	if top := topGroups(parties, 1, true); len(top) > 0 {
		ins["most_common_party"] = map[string]any{
			"party_name":        top[0].name,
			"transaction_count": top[0].count,
			"description":       fmt.Sprintf("%s with %d transactions", top[0].name, top[0].count),
		}
	} else {
		ins["most_common_party"] = nil
	}

	topParties := []any{}
	for _, g := range topGroups(parties, 3, false) {
		topParties = append(topParties, map[string]any{
			"party_name":        g.name,
			"total_value":       g.total,
			"transaction_count": g.count,
		})
	}
	ins["top_parties_by_value"] = topParties

	typeSummary := []any{}
	for _, g := range topGroups(types, 0, false) {
		typeSummary = append(typeSummary, map[string]any{
			"type":         g.name,
			"count":        g.count,
			"total_amount": g.total,
		})
	}
	ins["voucher_type_summary"] = typeSummary

	return ins
}

// VoucherRecords builds the cached display rows with their deep links.
func VoucherRecords(rows []tally.Voucher) []cache.DisplayRecord {
	records := make([]cache.DisplayRecord, len(rows))
	for i, v := range rows {
		records[i] = cache.DisplayRecord{
			Fields: map[string]any{
				"id":                 v.ID,
				"voucher_number":     v.Number,
				"voucher_type":       v.Type,
				"voucher_date":       isoDate(v.Date),
				"party_ledger_name":  v.PartyLedgerName,
				"is_balanced":        v.IsBalanced,
				"balance_difference": v.BalanceDifference,
				"total_debit":        v.TotalDebit,
				"total_credit":       v.TotalCredit,
			},
			Actions: map[string]string{
				"view_voucher": fmt.Sprintf("%s/vouchers/%s", deepLinkBase, v.ID),
			},
		}
	}
	return records
}

func voucherSummary(n int, total float64) string {
	switch n {
	case 0:
		return "No vouchers found matching your criteria."
	case 1:
		return fmt.Sprintf("Found 1 voucher worth %s", Rupees(total))
	}
	return fmt.Sprintf("Found %d vouchers worth %s", n, Rupees(total))
}

func voucherPeriod(rows []tally.Voucher) any {
	if len(rows) == 0 {
		return nil
	}
	earliest, latest := rows[0].Date, rows[0].Date
	for _, v := range rows[1:] {
		if v.Date.Before(earliest) {
			earliest = v.Date
		}
		if v.Date.After(latest) {
			latest = v.Date
		}
	}
	if earliest.Equal(latest) {
		return "Date: " + formatDate(earliest)
	}
	return fmt.Sprintf("From %s to %s", formatDate(earliest), formatDate(latest))
}

// highestVoucher picks the voucher maximizing the debit total. Ties go to
// the more recent date, then the higher ID, so the pick is deterministic.
func highestVoucher(rows []tally.Voucher) tally.Voucher {
	best := rows[0]
	for _, v := range rows[1:] {
		switch {
		case v.TotalDebit > best.TotalDebit:
			best = v
		case v.TotalDebit == best.TotalDebit && v.Date.After(best.Date):
			best = v
		case v.TotalDebit == best.TotalDebit && v.Date.Equal(best.Date) && v.ID > best.ID:
			best = v
		}
	}
	return best
}
