package search

import (
	"sort"
	"strings"

	"github.com/vyaapari360/munim/internal/tally"
)

// Relevance tiers for fuzzy name searches. Lower is more relevant.
const (
	tierExact    = 1
	tierPrefix   = 2
	tierContains = 3
	tierOther    = 4
)

// RelevanceTier scores how well a value matches a fuzzy name query.
// Comparison is case-insensitive except for the exact tier.
func RelevanceTier(value, query string) int {
	if value == query {
		return tierExact
	}
	lv, lq := strings.ToLower(value), strings.ToLower(query)
	switch {
	case strings.HasPrefix(lv, lq):
		return tierPrefix
	case strings.Contains(lv, lq):
		return tierContains
	}
	return tierOther
}

// OrderVouchers sorts vouchers for display. With a party query the order is
// relevance tier, then date descending, then ID descending; without one it
// is date descending then ID descending.
func OrderVouchers(rows []tally.Voucher, partyQuery string) {
	sort.SliceStable(rows, func(i, j int) bool {
		if partyQuery != "" {
			ti := RelevanceTier(rows[i].PartyLedgerName, partyQuery)
			tj := RelevanceTier(rows[j].PartyLedgerName, partyQuery)
			if ti != tj {
				return ti < tj
			}
		}
		if !rows[i].Date.Equal(rows[j].Date) {
			return rows[i].Date.After(rows[j].Date)
		}
		return rows[i].ID > rows[j].ID
	})
}

// OrderLedgers sorts ledgers by name ascending.
func OrderLedgers(rows []tally.Ledger) {
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
}

// OrderStockItems sorts stock items by name ascending.
func OrderStockItems(rows []tally.StockItem) {
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
}

// OrderGodowns sorts godowns by name ascending.
func OrderGodowns(rows []tally.Godown) {
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
}
