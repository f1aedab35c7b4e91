package erp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/vyaapari360/munim/internal/cache"
	"github.com/vyaapari360/munim/internal/search"
	"github.com/vyaapari360/munim/internal/store"
	"github.com/vyaapari360/munim/internal/tally"
	"github.com/vyaapari360/munim/internal/tools"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var erpTenant = tally.Tenant{CompanyID: "co-1", DivisionID: "div-1"}

// failingStore reports the same error for every operation.
type failingStore struct {
	err error
}

func (f *failingStore) SearchVouchers(context.Context, *search.Request) ([]tally.Voucher, error) {
	return nil, f.err
}

func (f *failingStore) SearchLedgers(context.Context, *search.Request) ([]tally.Ledger, error) {
	return nil, f.err
}

func (f *failingStore) SearchStockItems(context.Context, *search.Request) ([]tally.StockItem, error) {
	return nil, f.err
}

func (f *failingStore) SearchGodowns(context.Context, *search.Request) ([]tally.Godown, error) {
	return nil, f.err
}

func (f *failingStore) ListMaster(context.Context, tally.Tenant, string) ([]tally.MasterRecord, error) {
	return nil, f.err
}

func (f *failingStore) Ping(context.Context) error { return f.err }

func setup(t *testing.T, st store.Store) (*tools.Registry, *cache.Results) {
	t.Helper()
	reg := tools.NewRegistry()
	results := cache.New()
	err := RegisterAll(reg, Config{
		Tenant: erpTenant,
		Store:  st,
		Cache:  results,
		Logger: discardLogger(),
	})
	if err != nil {
		t.Fatalf("RegisterAll: %v", err)
	}
	return reg, results
}

func decodeOutput(t *testing.T, res *tools.Result) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal([]byte(res.Output), &payload); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, res.Output)
	}
	return payload
}

func TestRegisterAll_MissingTenant(t *testing.T) {
	err := RegisterAll(tools.NewRegistry(), Config{Store: store.NewMemory(), Cache: cache.New()})
	if !errors.Is(err, tally.ErrMissingTenant) {
		t.Fatalf("err = %v, want ErrMissingTenant", err)
	}
}

func TestRegisterAll_ToolSet(t *testing.T) {
	reg, _ := setup(t, store.NewMemory())
	for _, name := range []string{"search_vouchers", "search_ledgers", "search_stockitem", "search_godown", "list_master"} {
		if reg.Get(name) == nil {
			t.Errorf("tool %q not registered", name)
		}
	}
	if got := len(reg.List()); got != 5 {
		t.Errorf("registry has %d tools, want 5", got)
	}
}

func TestSearchVouchers_InsightAndCache(t *testing.T) {
	mem := store.NewMemory()
	mem.AddVouchers(
		tally.Voucher{ID: "v1", Number: "S-1", Type: "Sales", PartyLedgerName: "Acme Corp", TotalDebit: 5000},
		tally.Voucher{ID: "v2", Number: "P-1", Type: "Payment", PartyLedgerName: "Globex", TotalDebit: 1000},
	)
	reg, results := setup(t, mem)

	res, err := reg.Get("search_vouchers").Execute(context.Background(), map[string]any{"voucher_type": "Sales"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.Success {
		t.Fatalf("result not successful: %s", res.Output)
	}

	payload := decodeOutput(t, res)
	ins, ok := payload["insights"].(map[string]any)
	if !ok {
		t.Fatalf("output has no insights object: %v", payload)
	}
	if got := ins["total_matches"]; got != 1.0 {
		t.Errorf("total_matches = %v", got)
	}

	if got := res.Metadata["records_count"]; got != 1 {
		t.Errorf("records_count = %v", got)
	}
	if got := res.Metadata["entity"]; got != "vouchers" {
		t.Errorf("entity = %v", got)
	}
	first, ok := res.Metadata["first_record"].(map[string]any)
	if !ok || first["voucher_number"] != "S-1" {
		t.Errorf("first_record = %v", res.Metadata["first_record"])
	}

	key, _ := res.Metadata["cache_key"].(string)
	if key == "" {
		t.Fatal("cache_key missing from metadata")
	}
	env, ok := results.Get(key)
	if !ok {
		t.Fatal("envelope not cached")
	}
	if len(env.Records) != 1 || env.Records[0].Fields["id"] != "v1" {
		t.Errorf("cached records = %v", env.Records)
	}
	if env.Records[0].Actions["view_voucher"] == "" {
		t.Error("cached record has no deep link")
	}
}

func TestSearchVouchers_EmptyMatch(t *testing.T) {
	reg, results := setup(t, store.NewMemory())
	res, err := reg.Get("search_vouchers").Execute(context.Background(), map[string]any{"party_name": "Nobody"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.Success {
		t.Fatalf("result not successful: %s", res.Output)
	}
	ins := decodeOutput(t, res)["insights"].(map[string]any)
	if got := ins["summary"]; got != "No vouchers found matching your criteria." {
		t.Errorf("summary = %v", got)
	}
	if got := res.Metadata["records_count"]; got != 0 {
		t.Errorf("records_count = %v", got)
	}
	if _, ok := res.Metadata["first_record"]; ok {
		t.Error("first_record should be absent for empty results")
	}
	// Empty result sets are still cached so the UI can show zero rows.
	if results.Len() != 1 {
		t.Errorf("cache has %d envelopes, want 1", results.Len())
	}
}

func TestSearchVouchers_InvalidDate(t *testing.T) {
	reg, _ := setup(t, store.NewMemory())
	tool := reg.Get("search_vouchers")

	if err := tool.Validate(map[string]any{"date_from": "03/01/2025"}); err == nil {
		t.Error("Validate should reject a non-ISO date")
	}

	res, err := tool.Execute(context.Background(), map[string]any{"date_from": "03/01/2025"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Success {
		t.Fatal("result should not be successful")
	}
	payload := decodeOutput(t, res)
	if payload["error"] != "Failed to search vouchers" {
		t.Errorf("error = %v", payload["error"])
	}
	if msg, _ := payload["message"].(string); !strings.Contains(msg, "YYYY-MM-DD") {
		t.Errorf("message = %q, want format hint", msg)
	}
}

func TestSearchVouchers_StoreTimeout(t *testing.T) {
	failing := &failingStore{err: &tally.DataAccessError{
		Op:      "search vouchers",
		Timeout: true,
		Err:     context.DeadlineExceeded,
	}}
	reg, _ := setup(t, failing)

	res, err := reg.Get("search_vouchers").Execute(context.Background(), map[string]any{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Success {
		t.Fatal("result should not be successful")
	}
	payload := decodeOutput(t, res)
	if payload["error"] != "Connection timeout" {
		t.Errorf("error = %v", payload["error"])
	}
}

func TestSearchLedgers_BalanceFilter(t *testing.T) {
	mem := store.NewMemory()
	mem.AddLedgers(
		tally.Ledger{ID: "l1", Name: "Acme", ClosingBalance: 100},
		tally.Ledger{ID: "l2", Name: "Globex", ClosingBalance: 9000},
	)
	reg, _ := setup(t, mem)

	res, err := reg.Get("search_ledgers").Execute(context.Background(), map[string]any{"min_closing_balance": 1000.0})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.Success {
		t.Fatalf("result not successful: %s", res.Output)
	}
	ins := decodeOutput(t, res)["insights"].(map[string]any)
	if got := ins["total_matches"]; got != 1.0 {
		t.Errorf("total_matches = %v", got)
	}
	if got := ins["total_debit_balance"]; got != 9000.0 {
		t.Errorf("total_debit_balance = %v", got)
	}
}

func TestSearchLedgers_ZeroBoundMatchesAll(t *testing.T) {
	mem := store.NewMemory()
	mem.AddLedgers(
		tally.Ledger{ID: "l1", Name: "Acme", ClosingBalance: 100},
		tally.Ledger{ID: "l2", Name: "Globex", ClosingBalance: -50},
		tally.Ledger{ID: "l3", Name: "Initech", ClosingBalance: 0},
	)
	reg, _ := setup(t, mem)

	// A zero bound is an empty filter, not a cutoff that hides credit balances.
	res, err := reg.Get("search_ledgers").Execute(context.Background(), map[string]any{"min_closing_balance": 0.0})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.Success {
		t.Fatalf("result not successful: %s", res.Output)
	}
	ins := decodeOutput(t, res)["insights"].(map[string]any)
	if got := ins["total_matches"]; got != 3.0 {
		t.Errorf("total_matches = %v, want 3", got)
	}
	if got := ins["total_debit_balance"]; got != 100.0 {
		t.Errorf("total_debit_balance = %v, want 100", got)
	}
	if got := ins["total_credit_balance"]; got != 50.0 {
		t.Errorf("total_credit_balance = %v, want 50", got)
	}
	if got := ins["net_outstanding"]; got != 50.0 {
		t.Errorf("net_outstanding = %v, want 50", got)
	}
}

func TestSearchLedgers_NegativeBound(t *testing.T) {
	reg, _ := setup(t, store.NewMemory())
	res, err := reg.Get("search_ledgers").Execute(context.Background(), map[string]any{"min_closing_balance": -5.0})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Success {
		t.Fatal("negative bound should fail")
	}
}

func TestSearchStockItems(t *testing.T) {
	mem := store.NewMemory()
	mem.AddStockItems(tally.StockItem{ID: "s1", Name: "Steel Rod", HSNCode: "7214", OpeningValue: 50000})
	reg, results := setup(t, mem)

	res, err := reg.Get("search_stockitem").Execute(context.Background(), map[string]any{"item_name": "steel"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.Success {
		t.Fatalf("result not successful: %s", res.Output)
	}
	if got := res.Metadata["entity"]; got != "stockitems" {
		t.Errorf("entity = %v", got)
	}
	env, ok := results.LatestFor(tally.EntityStockItems)
	if !ok || env.Records[0].Fields["name"] != "Steel Rod" {
		t.Errorf("cached envelope = %v", env)
	}
}

func TestSearchGodowns(t *testing.T) {
	mem := store.NewMemory()
	mem.AddGodowns(tally.Godown{ID: "g1", Name: "Main Store", Address: "12 MG Road, Mumbai"})
	reg, _ := setup(t, mem)

	res, err := reg.Get("search_godown").Execute(context.Background(), map[string]any{"location": "mumbai"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.Success {
		t.Fatalf("result not successful: %s", res.Output)
	}
	ins := decodeOutput(t, res)["insights"].(map[string]any)
	if got := ins["total_matches"]; got != 1.0 {
		t.Errorf("total_matches = %v", got)
	}
}

func TestListMaster_Success(t *testing.T) {
	mem := store.NewMemory()
	mem.SetMaster("vouchertype", []tally.MasterRecord{
		{ID: "m1", Name: "Sales"},
		{ID: "m2", Name: "Payment"},
	})
	reg, _ := setup(t, mem)

	res, err := reg.Get("list_master").Execute(context.Background(), map[string]any{"collection": "VoucherType"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.Success {
		t.Fatalf("result not successful: %s", res.Output)
	}
	var records []tally.MasterRecord
	if err := json.Unmarshal([]byte(res.Output), &records); err != nil {
		t.Fatalf("output is not a record list: %v", err)
	}
	if len(records) != 2 || records[0].Name != "Sales" {
		t.Errorf("records = %v", records)
	}
	if got := res.Metadata["records_count"]; got != 2 {
		t.Errorf("records_count = %v", got)
	}
	if got := res.Metadata["collection"]; got != "VoucherType" {
		t.Errorf("collection = %v", got)
	}
}

func TestListMaster_Unsupported(t *testing.T) {
	reg, _ := setup(t, store.NewMemory())
	res, err := reg.Get("list_master").Execute(context.Background(), map[string]any{"collection": "Company"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Success {
		t.Fatal("unsupported collection should fail")
	}
	payload := decodeOutput(t, res)
	if payload["error"] != "Unsupported collection" {
		t.Errorf("error = %v", payload["error"])
	}
	supported, ok := payload["supported_collections"].([]any)
	if !ok || len(supported) != len(tally.SupportedCollections) {
		t.Errorf("supported_collections = %v", payload["supported_collections"])
	}
}

func TestListMaster_MissingCollection(t *testing.T) {
	reg, _ := setup(t, store.NewMemory())
	tool := reg.Get("list_master")
	if err := tool.Validate(map[string]any{}); err == nil {
		t.Error("Validate should require collection")
	}
	if _, err := tool.Execute(context.Background(), map[string]any{}); err == nil {
		t.Error("Execute should require collection")
	}
}
