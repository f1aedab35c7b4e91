package search

import (
	"strings"
	"time"

	"github.com/vyaapari360/munim/internal/tally"
)

// MatchVoucher reports whether the voucher satisfies every predicate.
func MatchVoucher(v tally.Voucher, preds []Predicate) bool {
	for _, p := range preds {
		var ok bool
		switch p.Field {
		case "voucher_type":
			ok = matchText(v.Type, p)
		case "voucher_number":
			ok = matchText(v.Number, p)
		case "reference":
			ok = matchText(v.Reference, p)
		case "party_name":
			ok = matchText(v.PartyLedgerName, p)
		case "voucher_date":
			ok = matchDate(v.Date, p)
		case "total_debit":
			ok = matchNumber(v.TotalDebit, p)
		}
		if !ok {
			return false
		}
	}
	return true
}

// MatchLedger reports whether the ledger satisfies every predicate.
func MatchLedger(l tally.Ledger, preds []Predicate) bool {
	for _, p := range preds {
		var ok bool
		switch p.Field {
		case "ledger_name":
			ok = matchText(l.Name, p)
		case "group_name":
			ok = matchText(l.GroupName, p)
		case "gstin":
			ok = matchText(l.GSTIN, p)
		case "opening_balance":
			ok = matchNumber(l.OpeningBalance, p)
		case "closing_balance":
			ok = matchNumber(l.ClosingBalance, p)
		}
		if !ok {
			return false
		}
	}
	return true
}

// MatchStockItem reports whether the stock item satisfies every predicate.
func MatchStockItem(s tally.StockItem, preds []Predicate) bool {
	for _, p := range preds {
		var ok bool
		switch p.Field {
		case "item_name":
			ok = matchText(s.Name, p)
		case "item_code":
			ok = matchText(s.Code, p)
		case "stock_group":
			ok = matchText(s.StockGroup, p)
		case "gst_hsn_code":
			ok = matchText(s.HSNCode, p)
		}
		if !ok {
			return false
		}
	}
	return true
}

// MatchGodown reports whether the godown satisfies every predicate.
// Code filters match both the godown code and the system code; location
// filters match both the location and the street address.
func MatchGodown(g tally.Godown, preds []Predicate) bool {
	for _, p := range preds {
		var ok bool
		switch p.Field {
		case "godown_name":
			ok = matchText(g.Name, p)
		case "godown_code":
			ok = matchText(g.GodownCode, p) || matchText(g.Code, p)
		case "location":
			ok = matchText(g.Location, p) || matchText(g.Address, p)
		}
		if !ok {
			return false
		}
	}
	return true
}

func matchText(value string, p Predicate) bool {
	switch p.Op {
	case OpEquals:
		return strings.EqualFold(value, p.Text)
	case OpContains:
		return strings.Contains(strings.ToLower(value), strings.ToLower(p.Text))
	case OpExact:
		return value == p.Text
	}
	return false
}

func matchNumber(v float64, p Predicate) bool {
	if p.Min != nil && v < *p.Min {
		return false
	}
	if p.Max != nil && v > *p.Max {
		return false
	}
	return true
}

// matchDate applies inclusive date bounds. Unparseable bounds never match;
// the normalizer validates formats before a predicate reaches here.
func matchDate(t time.Time, p Predicate) bool {
	day := t.Truncate(24 * time.Hour)
	if p.From != "" {
		from, err := ParseDate(p.From)
		if err != nil || day.Before(from) {
			return false
		}
	}
	if p.To != "" {
		to, err := ParseDate(p.To)
		if err != nil || day.After(to) {
			return false
		}
	}
	return true
}
