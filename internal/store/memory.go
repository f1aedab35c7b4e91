package store

import (
	"context"
	"sync"

	"github.com/vyaapari360/munim/internal/search"
	"github.com/vyaapari360/munim/internal/tally"
)

// Memory is an in-process Store used for development and tests. It holds
// one tenant's data and evaluates predicates with the shared matchers, so
// it filters exactly like the SQL backend.
type Memory struct {
	mu         sync.RWMutex
	vouchers   []tally.Voucher
	ledgers    []tally.Ledger
	stockItems []tally.StockItem
	godowns    []tally.Godown
	masters    map[string][]tally.MasterRecord
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{masters: make(map[string][]tally.MasterRecord)}
}

// AddVouchers appends vouchers to the store.
func (m *Memory) AddVouchers(rows ...tally.Voucher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vouchers = append(m.vouchers, rows...)
}

// AddLedgers appends ledgers to the store.
func (m *Memory) AddLedgers(rows ...tally.Ledger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ledgers = append(m.ledgers, rows...)
}

// AddStockItems appends stock items to the store.
func (m *Memory) AddStockItems(rows ...tally.StockItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stockItems = append(m.stockItems, rows...)
}

// AddGodowns appends godowns to the store.
func (m *Memory) AddGodowns(rows ...tally.Godown) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.godowns = append(m.godowns, rows...)
}

// SetMaster replaces one master collection. The name is normalized, so
// "VoucherType" and "vouchertype" address the same collection.
func (m *Memory) SetMaster(collection string, records []tally.MasterRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.masters[tally.NormalizeCollection(collection)] = records
}

func (m *Memory) SearchVouchers(_ context.Context, req *search.Request) ([]tally.Voucher, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []tally.Voucher{}
	for _, v := range m.vouchers {
		if search.MatchVoucher(v, req.Predicates) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *Memory) SearchLedgers(_ context.Context, req *search.Request) ([]tally.Ledger, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []tally.Ledger{}
	for _, l := range m.ledgers {
		if search.MatchLedger(l, req.Predicates) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *Memory) SearchStockItems(_ context.Context, req *search.Request) ([]tally.StockItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []tally.StockItem{}
	for _, s := range m.stockItems {
		if search.MatchStockItem(s, req.Predicates) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *Memory) SearchGodowns(_ context.Context, req *search.Request) ([]tally.Godown, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []tally.Godown{}
	for _, g := range m.godowns {
		if search.MatchGodown(g, req.Predicates) {
			out = append(out, g)
		}
	}
	return out, nil
}

func (m *Memory) ListMaster(_ context.Context, _ tally.Tenant, collection string) ([]tally.MasterRecord, error) {
	if !tally.CollectionSupported(collection) {
		return nil, &tally.UnsupportedCollectionError{Collection: collection}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	records := m.masters[tally.NormalizeCollection(collection)]
	out := make([]tally.MasterRecord, len(records))
	copy(out, records)
	return out, nil
}

func (m *Memory) Ping(context.Context) error { return nil }
