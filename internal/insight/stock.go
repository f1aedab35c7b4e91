package insight

import (
	"fmt"
	"sort"

	"github.com/vyaapari360/munim/internal/cache"
	"github.com/vyaapari360/munim/internal/tally"
)

// lowStockThreshold flags items at or below this opening quantity.
const lowStockThreshold = 10

// StockItems computes the stock item search insight.
func StockItems(rows []tally.StockItem) map[string]any {
	var valuation float64
	groups := make(map[string]*groupStat)
	hsns := make(map[string]*groupStat)
	missingHSN := 0
	for _, s := range rows {
		valuation += s.OpeningValue
		if s.HSNCode == "" {
			missingHSN++
		} else {
			h := hsns[s.HSNCode]
			if h == nil {
				h = &groupStat{name: s.HSNCode}
				hsns[s.HSNCode] = h
			}
			h.count++
			h.total += s.OpeningValue
		}
		if s.StockGroup != "" {
			g := groups[s.StockGroup]
			if g == nil {
				g = &groupStat{name: s.StockGroup}
				groups[s.StockGroup] = g
			}
			g.count++
			g.total += s.OpeningValue
			g.qty += s.OpeningQuantity
		}
	}

	ins := map[string]any{
		"summary":           stockSummary(len(rows), valuation),
		"total_matches":     len(rows),
		"stock_valuation":   valuation,
		"total_groups":      len(groups),
		"items_without_gst": missingHSN,
	}
	if len(rows) == 0 {
		ins["highest_value_item"] = nil
		ins["low_stock_items"] = []any{}
		ins["stock_by_group"] = []any{}
		ins["hsn_summary"] = []any{}
		ins["gst_rate_summary"] = []any{}
		ins["gst_compliance_note"] = "All items have GST classification"
		return ins
	}

	hv := highestValueItem(rows)
	ins["highest_value_item"] = map[string]any{
		"item_name": hv.Name,
		"value":     hv.OpeningValue,
		"quantity":  hv.OpeningQuantity,
		"group":     hv.StockGroup,
		"hsn":       hv.HSNCode,
		"description": fmt.Sprintf("%s is the highest valued item at %s (%s units)",
			hv.Name, Rupees(hv.OpeningValue), formatQty(hv.OpeningQuantity)),
	}

	ins["low_stock_items"] = lowStockItems(rows)

	byGroup := []any{}
	for _, g := range topGroups(groups, 10, false) {
		byGroup = append(byGroup, map[string]any{
			"group_name":     g.name,
			"item_count":     g.count,
			"total_value":    g.total,
			"total_quantity": g.qty,
			"description":    fmt.Sprintf("%s: %d items worth %s", g.name, g.count, Rupees(g.total)),
		})
	}
	ins["stock_by_group"] = byGroup

	hsnSummary := []any{}
	for _, h := range topGroups(hsns, 10, true) {
		hsnSummary = append(hsnSummary, map[string]any{
			"hsn_code":    h.name,
			"item_count":  h.count,
			"total_value": h.total,
			"description": fmt.Sprintf("HSN %s: %d items", h.name, h.count),
		})
	}
	ins["hsn_summary"] = hsnSummary

	ins["gst_rate_summary"] = gstRateSummary(rows)

	if missingHSN > 0 {
		ins["gst_compliance_note"] = fmt.Sprintf("%d items are missing HSN/SAC codes", missingHSN)
	} else {
		ins["gst_compliance_note"] = "All items have GST classification"
	}
	return ins
}

// StockItemRecords builds the cached display rows with their deep links.
func StockItemRecords(rows []tally.StockItem) []cache.DisplayRecord {
	records := make([]cache.DisplayRecord, len(rows))
	for i, s := range rows {
		records[i] = cache.DisplayRecord{
			Fields: map[string]any{
				"id":                       s.ID,
				"code":                     s.Code,
				"name":                     s.Name,
				"stock_group":              s.StockGroup,
				"gst_hsn_code":             s.HSNCode,
				"gst_rate":                 s.GSTRate,
				"opening_balance_quantity": s.OpeningQuantity,
				"opening_balance_value":    s.OpeningValue,
			},
			Actions: map[string]string{
				"view_stockitem": fmt.Sprintf("%s/stockitems/%s", deepLinkBase, s.ID),
			},
		}
	}
	return records
}

func stockSummary(n int, valuation float64) string {
	switch n {
	case 0:
		return "No stock items found matching your criteria."
	case 1:
		return fmt.Sprintf("Found 1 stock item with valuation of %s", Rupees(valuation))
	}
	return fmt.Sprintf("Found %d stock items with total valuation of %s", n, Rupees(valuation))
}

func highestValueItem(rows []tally.StockItem) tally.StockItem {
	best := rows[0]
	for _, s := range rows[1:] {
		if s.OpeningValue > best.OpeningValue ||
			(s.OpeningValue == best.OpeningValue && s.ID > best.ID) {
			best = s
		}
	}
	return best
}

// lowStockItems lists up to five items at or below the low stock threshold,
// lowest quantity first.
func lowStockItems(rows []tally.StockItem) []any {
	low := make([]tally.StockItem, 0)
	for _, s := range rows {
		if s.OpeningQuantity <= lowStockThreshold {
			low = append(low, s)
		}
	}
	sort.Slice(low, func(i, j int) bool {
		if low[i].OpeningQuantity != low[j].OpeningQuantity {
			return low[i].OpeningQuantity < low[j].OpeningQuantity
		}
		return low[i].Name < low[j].Name
	})
	if len(low) > 5 {
		low = low[:5]
	}
	out := []any{}
	for _, s := range low {
		out = append(out, map[string]any{
			"item_name":   s.Name,
			"quantity":    s.OpeningQuantity,
			"group":       s.StockGroup,
			"description": fmt.Sprintf("%s has only %s units in stock", s.Name, formatQty(s.OpeningQuantity)),
		})
	}
	return out
}

func gstRateSummary(rows []tally.StockItem) []any {
	type rateAgg struct {
		rate  float64
		count int
		total float64
	}
	rates := make(map[float64]*rateAgg)
	for _, s := range rows {
		r := rates[s.GSTRate]
		if r == nil {
			r = &rateAgg{rate: s.GSTRate}
			rates[s.GSTRate] = r
		}
		r.count++
		r.total += s.OpeningValue
	}
	ordered := make([]*rateAgg, 0, len(rates))
	for _, r := range rates {
		ordered = append(ordered, r)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].rate > ordered[j].rate })

	out := []any{}
	for _, r := range ordered {
		out = append(out, map[string]any{
			"gst_rate":    r.rate,
			"item_count":  r.count,
			"total_value": r.total,
			"description": fmt.Sprintf("%d items at %s%% GST", r.count, formatQty(r.rate)),
		})
	}
	return out
}
