package insight

import (
	"testing"
	"time"

	"github.com/vyaapari360/munim/internal/tally"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestRupees(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "₹0.00"},
		{999, "₹999.00"},
		{1000, "₹1,000.00"},
		{1234567.5, "₹1,234,567.50"},
		{-50, "-₹50.00"},
	}
	for _, tc := range tests {
		if got := Rupees(tc.in); got != tc.want {
			t.Errorf("Rupees(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

// assertNoRecordKeys walks an insight and fails on any key that belongs to
// display records rather than aggregates.
func assertNoRecordKeys(t *testing.T, v any) {
	t.Helper()
	switch x := v.(type) {
	case map[string]any:
		for k, vv := range x {
			if k == "id" || k == "actions" {
				t.Errorf("insight carries record key %q", k)
			}
			assertNoRecordKeys(t, vv)
		}
	case []any:
		for _, vv := range x {
			assertNoRecordKeys(t, vv)
		}
	}
}

func TestVouchers_Empty(t *testing.T) {
	ins := Vouchers(nil)
	if got := ins["summary"]; got != "No vouchers found matching your criteria." {
		t.Errorf("summary = %v", got)
	}
	if got := ins["total_matches"]; got != 0 {
		t.Errorf("total_matches = %v", got)
	}
	if ins["period"] != nil {
		t.Errorf("period = %v, want nil", ins["period"])
	}
	for _, k := range []string{"highest_voucher", "most_common_type", "most_common_party"} {
		if ins[k] != nil {
			t.Errorf("%s = %v, want nil", k, ins[k])
		}
	}
	for _, k := range []string{"top_parties_by_value", "voucher_type_summary"} {
		if got := ins[k].([]any); len(got) != 0 {
			t.Errorf("%s has %d entries, want 0", k, len(got))
		}
	}
}

func TestVouchers_Aggregates(t *testing.T) {
	rows := []tally.Voucher{
		{ID: "v1", Number: "S-1", Type: "Sales", Date: date("2025-01-10"), PartyLedgerName: "Acme Corp", TotalDebit: 5000},
		{ID: "v2", Number: "S-2", Type: "Sales", Date: date("2025-01-15"), PartyLedgerName: "Acme Corp", TotalDebit: 3000},
		{ID: "v3", Number: "P-1", Type: "Payment", Date: date("2025-02-01"), PartyLedgerName: "Globex", TotalDebit: 12000},
	}
	ins := Vouchers(rows)

	if got := ins["summary"]; got != "Found 3 vouchers worth ₹20,000.00" {
		t.Errorf("summary = %v", got)
	}
	if got := ins["total_amount"]; got != 20000.0 {
		t.Errorf("total_amount = %v", got)
	}
	if got := ins["period"]; got != "From 10 Jan 2025 to 01 Feb 2025" {
		t.Errorf("period = %v", got)
	}

	hv := ins["highest_voucher"].(map[string]any)
	if hv["voucher_number"] != "P-1" || hv["amount"] != 12000.0 {
		t.Errorf("highest_voucher = %v", hv)
	}
	if got := hv["description"]; got != "Highest: Payment #P-1 to Globex for ₹12,000.00 on 01 Feb 2025" {
		t.Errorf("highest description = %v", got)
	}

	mct := ins["most_common_type"].(map[string]any)
	if mct["type"] != "Sales" || mct["count"] != 2 {
		t.Errorf("most_common_type = %v", mct)
	}
	if got := mct["description"]; got != "Sales (2 vouchers)" {
		t.Errorf("type description = %v", got)
	}

	mcp := ins["most_common_party"].(map[string]any)
	if mcp["party_name"] != "Acme Corp" || mcp["transaction_count"] != 2 {
		t.Errorf("most_common_party = %v", mcp)
	}

	top := ins["top_parties_by_value"].([]any)
	if len(top) != 2 {
		t.Fatalf("top_parties_by_value has %d entries, want 2", len(top))
	}
	first := top[0].(map[string]any)
	if first["party_name"] != "Globex" || first["total_value"] != 12000.0 {
		t.Errorf("top party = %v", first)
	}

	assertNoRecordKeys(t, map[string]any(ins))
}

func TestVouchers_SingleDatePeriod(t *testing.T) {
	rows := []tally.Voucher{
		{ID: "v1", Date: date("2025-03-05"), TotalDebit: 100},
		{ID: "v2", Date: date("2025-03-05"), TotalDebit: 200},
	}
	if got := Vouchers(rows)["period"]; got != "Date: 05 Mar 2025" {
		t.Errorf("period = %v", got)
	}
}

func TestHighestVoucher_TieBreaks(t *testing.T) {
	sameAmount := []tally.Voucher{
		{ID: "a", Date: date("2025-01-01"), TotalDebit: 500},
		{ID: "b", Date: date("2025-01-02"), TotalDebit: 500},
	}
	if got := highestVoucher(sameAmount).ID; got != "b" {
		t.Errorf("later date should win, got %s", got)
	}

	sameDate := []tally.Voucher{
		{ID: "b", Date: date("2025-01-01"), TotalDebit: 500},
		{ID: "a", Date: date("2025-01-01"), TotalDebit: 500},
	}
	if got := highestVoucher(sameDate).ID; got != "b" {
		t.Errorf("higher ID should win, got %s", got)
	}
}

func TestVouchers_BlankPartyInHighest(t *testing.T) {
	rows := []tally.Voucher{
		{ID: "v1", Number: "J-1", Type: "Journal", Date: date("2025-01-01"), TotalDebit: 100},
	}
	hv := Vouchers(rows)["highest_voucher"].(map[string]any)
	if got := hv["description"]; got != "Highest: Journal #J-1 to N/A for ₹100.00 on 01 Jan 2025" {
		t.Errorf("description = %v", got)
	}
	if Vouchers(rows)["most_common_party"] != nil {
		t.Error("most_common_party should be nil when no voucher names a party")
	}
}

func TestLedgers_Balances(t *testing.T) {
	rows := []tally.Ledger{
		{ID: "l1", Name: "Acme", GroupName: "Sundry Debtors", ClosingBalance: 100},
		{ID: "l2", Name: "Globex", GroupName: "Sundry Creditors", ClosingBalance: -50},
		{ID: "l3", Name: "Cash", GroupName: "Cash-in-Hand", ClosingBalance: 0},
	}
	ins := Ledgers(rows)

	if got := ins["total_debit_balance"]; got != 100.0 {
		t.Errorf("total_debit_balance = %v", got)
	}
	if got := ins["total_credit_balance"]; got != 50.0 {
		t.Errorf("total_credit_balance = %v", got)
	}
	if got := ins["net_outstanding"]; got != 50.0 {
		t.Errorf("net_outstanding = %v", got)
	}
	if got := ins["outstanding_summary"]; got != "Total Receivables: ₹100.00, Total Payables: ₹50.00" {
		t.Errorf("outstanding_summary = %v", got)
	}
	if got := ins["summary"]; got != "Found 3 ledger accounts." {
		t.Errorf("summary = %v", got)
	}

	lc := ins["largest_closing_balance"].(map[string]any)
	if lc["ledger_name"] != "Acme" {
		t.Errorf("largest_closing_balance = %v", lc)
	}

	dues := ins["top_parties_with_dues"].([]any)
	if len(dues) != 1 {
		t.Fatalf("top_parties_with_dues has %d entries, want 1", len(dues))
	}
	due := dues[0].(map[string]any)
	if due["name"] != "Acme" || due["due_amount"] != 100.0 {
		t.Errorf("due = %v", due)
	}

	groups := ins["group_summary"].([]any)
	if len(groups) != 3 {
		t.Fatalf("group_summary has %d entries, want 3", len(groups))
	}
	first := groups[0].(map[string]any)
	if first["group_name"] != "Sundry Debtors" || first["balance_type"] != "Receivable" {
		t.Errorf("first group = %v", first)
	}
	byName := map[string]string{}
	for _, g := range groups {
		m := g.(map[string]any)
		byName[m["group_name"].(string)] = m["balance_type"].(string)
	}
	if byName["Sundry Creditors"] != "Payable" || byName["Cash-in-Hand"] != "Balanced" {
		t.Errorf("balance types = %v", byName)
	}

	assertNoRecordKeys(t, map[string]any(ins))
}

func TestLedgers_Empty(t *testing.T) {
	ins := Ledgers(nil)
	if got := ins["summary"]; got != "No ledgers found matching your criteria." {
		t.Errorf("summary = %v", got)
	}
	if ins["outstanding_summary"] != nil || ins["largest_opening_balance"] != nil || ins["largest_closing_balance"] != nil {
		t.Error("empty ledger insight should carry nil extrema")
	}
}

func TestLargestLedger_MagnitudeAndTie(t *testing.T) {
	rows := []tally.Ledger{
		{ID: "l1", Name: "Small", ClosingBalance: 10},
		{ID: "l2", Name: "BigPayable", ClosingBalance: -500},
		{ID: "l3", Name: "Peer", ClosingBalance: 500},
	}
	got := largestLedger(rows, func(l tally.Ledger) float64 { return l.ClosingBalance })
	if got.ID != "l3" {
		t.Errorf("largest = %s, want l3 (equal magnitude, higher ID)", got.ID)
	}
}

func TestStockItems_Aggregates(t *testing.T) {
	rows := []tally.StockItem{
		{ID: "s1", Name: "Steel Rod", StockGroup: "Raw Material", HSNCode: "7214", GSTRate: 18, OpeningQuantity: 5, OpeningValue: 50000},
		{ID: "s2", Name: "Cement Bag", StockGroup: "Raw Material", HSNCode: "2523", GSTRate: 28, OpeningQuantity: 200, OpeningValue: 30000},
		{ID: "s3", Name: "Scrap", StockGroup: "", HSNCode: "", GSTRate: 0, OpeningQuantity: 2, OpeningValue: 500},
	}
	ins := StockItems(rows)

	if got := ins["summary"]; got != "Found 3 stock items with total valuation of ₹80,500.00" {
		t.Errorf("summary = %v", got)
	}
	if got := ins["stock_valuation"]; got != 80500.0 {
		t.Errorf("stock_valuation = %v", got)
	}
	if got := ins["total_groups"]; got != 1 {
		t.Errorf("total_groups = %v", got)
	}
	if got := ins["items_without_gst"]; got != 1 {
		t.Errorf("items_without_gst = %v", got)
	}
	if got := ins["gst_compliance_note"]; got != "1 items are missing HSN/SAC codes" {
		t.Errorf("gst_compliance_note = %v", got)
	}

	hv := ins["highest_value_item"].(map[string]any)
	if hv["item_name"] != "Steel Rod" || hv["value"] != 50000.0 {
		t.Errorf("highest_value_item = %v", hv)
	}
	if got := hv["description"]; got != "Steel Rod is the highest valued item at ₹50,000.00 (5 units)" {
		t.Errorf("highest description = %v", got)
	}

	low := ins["low_stock_items"].([]any)
	if len(low) != 2 {
		t.Fatalf("low_stock_items has %d entries, want 2", len(low))
	}
	if first := low[0].(map[string]any); first["item_name"] != "Scrap" {
		t.Errorf("lowest quantity first, got %v", first)
	}

	rates := ins["gst_rate_summary"].([]any)
	if len(rates) != 3 {
		t.Fatalf("gst_rate_summary has %d entries, want 3", len(rates))
	}
	if first := rates[0].(map[string]any); first["gst_rate"] != 28.0 {
		t.Errorf("rates should order highest first, got %v", first)
	}

	assertNoRecordKeys(t, map[string]any(ins))
}

func TestStockItems_Empty(t *testing.T) {
	ins := StockItems(nil)
	if got := ins["summary"]; got != "No stock items found matching your criteria." {
		t.Errorf("summary = %v", got)
	}
	if ins["highest_value_item"] != nil {
		t.Errorf("highest_value_item = %v, want nil", ins["highest_value_item"])
	}
	if got := ins["gst_compliance_note"]; got != "All items have GST classification" {
		t.Errorf("gst_compliance_note = %v", got)
	}
}

func TestGodowns_Aggregates(t *testing.T) {
	rows := []tally.Godown{
		{ID: "g1", Name: "Main Store", Location: "Mumbai", Capacity: 500, CapacityUnit: "tons", ContactPerson: "Ravi"},
		{ID: "g2", Name: "Annex", Location: "Mumbai", Capacity: 100, CapacityUnit: "tons"},
		{ID: "g3", Name: "Yard", Location: "", Capacity: 0},
	}
	ins := Godowns(rows)

	if got := ins["summary"]; got != "Found 3 warehouses." {
		t.Errorf("summary = %v", got)
	}
	if got := ins["total_capacity"]; got != 600.0 {
		t.Errorf("total_capacity = %v", got)
	}
	if got := ins["unique_locations"]; got != 1 {
		t.Errorf("unique_locations = %v", got)
	}
	if got := ins["capacity_info"]; got != "Total storage capacity: 600 units" {
		t.Errorf("capacity_info = %v", got)
	}
	if got := ins["missing_contacts"]; got != "2 warehouse(s) are missing contact person details" {
		t.Errorf("missing_contacts = %v", got)
	}

	lw := ins["largest_warehouse"].(map[string]any)
	if lw["name"] != "Main Store" {
		t.Errorf("largest_warehouse = %v", lw)
	}
	if got := lw["description"]; got != "Main Store is the largest warehouse with capacity of 500 tons at Mumbai" {
		t.Errorf("largest description = %v", got)
	}

	locs := ins["location_summary"].([]any)
	if len(locs) != 2 {
		t.Fatalf("location_summary has %d entries, want 2", len(locs))
	}
	first := locs[0].(map[string]any)
	if first["location"] != "Mumbai" || first["godown_count"] != 2 {
		t.Errorf("first location = %v", first)
	}

	assertNoRecordKeys(t, map[string]any(ins))
}

func TestGodowns_Empty(t *testing.T) {
	ins := Godowns(nil)
	if got := ins["summary"]; got != "No warehouses found matching your criteria." {
		t.Errorf("summary = %v", got)
	}
	if got := ins["capacity_info"]; got != "No capacity information available" {
		t.Errorf("capacity_info = %v", got)
	}
	if got := ins["missing_contacts"]; got != "All warehouses have contact information" {
		t.Errorf("missing_contacts = %v", got)
	}
}

func TestVoucherRecords(t *testing.T) {
	rows := []tally.Voucher{
		{ID: "v1", Number: "S-1", Type: "Sales", Date: date("2025-01-10"), PartyLedgerName: "Acme", IsBalanced: true, TotalDebit: 5000, TotalCredit: 5000},
	}
	recs := VoucherRecords(rows)
	if len(recs) != 1 {
		t.Fatalf("got %d records", len(recs))
	}
	f := recs[0].Fields
	if f["voucher_number"] != "S-1" || f["voucher_date"] != "2025-01-10" || f["is_balanced"] != true {
		t.Errorf("fields = %v", f)
	}
	if got := recs[0].Actions["view_voucher"]; got != "https://vyaapari360.com/vouchers/v1" {
		t.Errorf("view_voucher = %q", got)
	}
}

func TestLedgerRecords(t *testing.T) {
	recs := LedgerRecords([]tally.Ledger{{ID: "l1", Name: "Acme", GSTIN: "27AAA"}})
	if got := recs[0].Actions["view_ledger"]; got != "https://vyaapari360.com/ledgers/l1" {
		t.Errorf("view_ledger = %q", got)
	}
	if recs[0].Fields["gstin"] != "27AAA" {
		t.Errorf("fields = %v", recs[0].Fields)
	}
}

func TestStockItemRecords(t *testing.T) {
	recs := StockItemRecords([]tally.StockItem{{ID: "s1", Name: "Rod", GSTRate: 18}})
	if got := recs[0].Actions["view_stockitem"]; got != "https://vyaapari360.com/stockitems/s1" {
		t.Errorf("view_stockitem = %q", got)
	}
	if recs[0].Fields["gst_rate"] != 18.0 {
		t.Errorf("fields = %v", recs[0].Fields)
	}
}

func TestGodownRecords(t *testing.T) {
	recs := GodownRecords([]tally.Godown{{ID: "g1", Name: "Main", Capacity: 500, CapacityUnit: "tons"}})
	if got := recs[0].Actions["view_godown"]; got != "https://vyaapari360.com/godowns/g1" {
		t.Errorf("view_godown = %q", got)
	}
	if recs[0].Fields["capacity_unit"] != "tons" {
		t.Errorf("fields = %v", recs[0].Fields)
	}
}

func TestTopGroups_Ordering(t *testing.T) {
	stats := map[string]*groupStat{
		"a": {name: "a", count: 2, total: 100},
		"b": {name: "b", count: 5, total: 50},
		"c": {name: "c", count: 5, total: 50},
	}
	byValue := topGroups(stats, 0, false)
	if byValue[0].name != "a" {
		t.Errorf("by value first = %s", byValue[0].name)
	}
	byCount := topGroups(stats, 2, true)
	if len(byCount) != 2 || byCount[0].name != "b" || byCount[1].name != "c" {
		names := make([]string, len(byCount))
		for i, g := range byCount {
			names[i] = g.name
		}
		t.Errorf("by count = %v", names)
	}
}
