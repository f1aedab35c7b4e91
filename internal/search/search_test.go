package search

import (
	"strings"
	"testing"
	"time"

	"github.com/vyaapari360/munim/internal/tally"
)

var testTenant = tally.Tenant{CompanyID: "co-1", DivisionID: "div-1"}

func TestNormalizeVouchers_DropsEmptyArgs(t *testing.T) {
	req, err := NormalizeVouchers(testTenant, map[string]any{
		"voucher_type": "Sales",
		"party_name":   "   ",
		"reference":    "",
	})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(req.Predicates) != 1 {
		t.Fatalf("predicates = %d, want 1 (blank args dropped)", len(req.Predicates))
	}
	if req.Predicates[0].Field != "voucher_type" || req.Predicates[0].Text != "Sales" {
		t.Errorf("predicate = %+v", req.Predicates[0])
	}
}

func TestNormalizeVouchers_InvalidDate(t *testing.T) {
	_, err := NormalizeVouchers(testTenant, map[string]any{"date_from": "03/01/2025"})
	if err == nil {
		t.Fatal("expected error for non-ISO date")
	}
	if !strings.Contains(err.Error(), "YYYY-MM-DD") {
		t.Errorf("error = %v, want format hint", err)
	}
}

func TestNormalizeVouchers_NegativeAmount(t *testing.T) {
	_, err := NormalizeVouchers(testTenant, map[string]any{"min_amount": -5.0})
	if err == nil {
		t.Fatal("expected error for negative bound")
	}
}

func TestNormalizeLedgers_ZeroBoundDropped(t *testing.T) {
	req, err := NormalizeLedgers(testTenant, map[string]any{"min_closing_balance": 0.0})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(req.Predicates) != 0 {
		t.Errorf("predicates = %+v, want zero bound dropped as unset", req.Predicates)
	}
}

func TestNormalizeVouchers_StringNumber(t *testing.T) {
	req, err := NormalizeVouchers(testTenant, map[string]any{"min_amount": "1000"})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(req.Predicates) != 1 || req.Predicates[0].Min == nil || *req.Predicates[0].Min != 1000 {
		t.Errorf("predicates = %+v", req.Predicates)
	}
}

func TestNormalizeLedgers_BalanceBounds(t *testing.T) {
	req, err := NormalizeLedgers(testTenant, map[string]any{
		"min_opening_balance": 100.0,
		"max_closing_balance": 5000.0,
	})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(req.Predicates) != 2 {
		t.Fatalf("predicates = %d, want 2", len(req.Predicates))
	}
	for _, p := range req.Predicates {
		if p.Op != OpRange {
			t.Errorf("predicate %s op = %s, want range", p.Field, p.Op)
		}
	}
}

func TestCacheKey_StableAcrossPredicateOrder(t *testing.T) {
	min := 10.0
	a := &Request{
		Tenant: testTenant,
		Entity: tally.EntityVouchers,
		Predicates: []Predicate{
			{Field: "voucher_type", Op: OpContains, Text: "Sales"},
			{Field: "total_debit", Op: OpRange, Min: &min},
		},
	}
	b := &Request{
		Tenant: testTenant,
		Entity: tally.EntityVouchers,
		Predicates: []Predicate{
			{Field: "total_debit", Op: OpRange, Min: &min},
			{Field: "voucher_type", Op: OpContains, Text: "Sales"},
		},
	}
	if a.CacheKey() != b.CacheKey() {
		t.Error("identical searches produced different cache keys")
	}
}

func TestCacheKey_DistinguishesTenantAndEntity(t *testing.T) {
	base := &Request{Tenant: testTenant, Entity: tally.EntityVouchers}
	otherTenant := &Request{Tenant: tally.Tenant{CompanyID: "co-2", DivisionID: "div-1"}, Entity: tally.EntityVouchers}
	otherEntity := &Request{Tenant: testTenant, Entity: tally.EntityLedgers}

	if base.CacheKey() == otherTenant.CacheKey() {
		t.Error("different tenants share a cache key")
	}
	if base.CacheKey() == otherEntity.CacheKey() {
		t.Error("different entities share a cache key")
	}
}

func TestMatchVoucher(t *testing.T) {
	v := tally.Voucher{
		Type:            "Sales",
		Number:          "SV-042",
		PartyLedgerName: "Acme Corporation",
		Date:            time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		TotalDebit:      1500,
	}

	cases := []struct {
		name  string
		preds []Predicate
		want  bool
	}{
		{"type contains, case-insensitive", []Predicate{{Field: "voucher_type", Op: OpContains, Text: "sal"}}, true},
		{"party partial", []Predicate{{Field: "party_name", Op: OpContains, Text: "acme"}}, true},
		{"party mismatch", []Predicate{{Field: "party_name", Op: OpContains, Text: "globex"}}, false},
		{"date in range", []Predicate{{Field: "voucher_date", Op: OpRange, From: "2025-03-01", To: "2025-03-31"}}, true},
		{"date before range", []Predicate{{Field: "voucher_date", Op: OpRange, From: "2025-04-01"}}, false},
		{"date on boundary", []Predicate{{Field: "voucher_date", Op: OpRange, From: "2025-03-10", To: "2025-03-10"}}, true},
		{"amount in bounds", []Predicate{{Field: "total_debit", Op: OpRange, Min: f(1000), Max: f(2000)}}, true},
		{"amount below min", []Predicate{{Field: "total_debit", Op: OpRange, Min: f(2000)}}, false},
		{"conjunction fails on one", []Predicate{
			{Field: "voucher_type", Op: OpContains, Text: "Sales"},
			{Field: "party_name", Op: OpContains, Text: "globex"},
		}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := MatchVoucher(v, tc.preds); got != tc.want {
				t.Errorf("MatchVoucher = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMatchGodown_CodeAndLocationFallbacks(t *testing.T) {
	g := tally.Godown{
		Name:       "Main Warehouse",
		Code:       "GW-01",
		GodownCode: "MAIN",
		Location:   "Andheri East",
		Address:    "42 Industrial Estate, Mumbai",
	}
	if !MatchGodown(g, []Predicate{{Field: "godown_code", Op: OpContains, Text: "gw-01"}}) {
		t.Error("system code did not match")
	}
	if !MatchGodown(g, []Predicate{{Field: "location", Op: OpContains, Text: "mumbai"}}) {
		t.Error("address fallback did not match")
	}
}

func TestRelevanceTier(t *testing.T) {
	cases := []struct {
		value string
		want  int
	}{
		{"Acme", tierExact},
		{"Acme Corp", tierPrefix},
		{"XAcmeY", tierContains},
		{"Other", tierOther},
	}
	for _, tc := range cases {
		if got := RelevanceTier(tc.value, "Acme"); got != tc.want {
			t.Errorf("RelevanceTier(%q) = %d, want %d", tc.value, got, tc.want)
		}
	}
}

func TestOrderVouchers_RelevanceThenDateDesc(t *testing.T) {
	d := func(day int) time.Time { return time.Date(2025, 3, day, 0, 0, 0, 0, time.UTC) }
	rows := []tally.Voucher{
		{ID: "1", PartyLedgerName: "Other", Date: d(20)},
		{ID: "2", PartyLedgerName: "Acme Corp", Date: d(5)},
		{ID: "3", PartyLedgerName: "Acme", Date: d(1)},
		{ID: "4", PartyLedgerName: "Acme Corp", Date: d(10)},
	}
	OrderVouchers(rows, "Acme")

	got := []string{rows[0].ID, rows[1].ID, rows[2].ID, rows[3].ID}
	want := []string{"3", "4", "2", "1"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestOrderVouchers_NoQueryDateDesc(t *testing.T) {
	d := func(day int) time.Time { return time.Date(2025, 3, day, 0, 0, 0, 0, time.UTC) }
	rows := []tally.Voucher{
		{ID: "a", Date: d(1)},
		{ID: "b", Date: d(15)},
		{ID: "c", Date: d(15)},
	}
	OrderVouchers(rows, "")
	if rows[0].ID != "c" || rows[1].ID != "b" || rows[2].ID != "a" {
		t.Errorf("order = %s,%s,%s", rows[0].ID, rows[1].ID, rows[2].ID)
	}
}

func TestOrderLedgers_NameAscending(t *testing.T) {
	rows := []tally.Ledger{{Name: "Cash"}, {Name: "Bank"}, {Name: "Sales"}}
	OrderLedgers(rows)
	if rows[0].Name != "Bank" || rows[1].Name != "Cash" || rows[2].Name != "Sales" {
		t.Errorf("order = %s,%s,%s", rows[0].Name, rows[1].Name, rows[2].Name)
	}
}

func f(v float64) *float64 { return &v }
