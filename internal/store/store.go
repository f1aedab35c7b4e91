// Package store defines the analytical data source behind the search tools.
// Backends return unordered, tenant-scoped row sets; ordering and
// aggregation happen above them so every backend behaves identically.
package store

import (
	"context"

	"github.com/vyaapari360/munim/internal/search"
	"github.com/vyaapari360/munim/internal/tally"
)

// Store is the query surface the tool handlers depend on.
type Store interface {
	SearchVouchers(ctx context.Context, req *search.Request) ([]tally.Voucher, error)
	SearchLedgers(ctx context.Context, req *search.Request) ([]tally.Ledger, error)
	SearchStockItems(ctx context.Context, req *search.Request) ([]tally.StockItem, error)
	SearchGodowns(ctx context.Context, req *search.Request) ([]tally.Godown, error)

	// ListMaster returns all records of one master collection. Collections
	// outside tally.SupportedCollections fail with UnsupportedCollectionError.
	ListMaster(ctx context.Context, tn tally.Tenant, collection string) ([]tally.MasterRecord, error)

	// Ping verifies connectivity. Called once at startup so a broken
	// data source fails the boot instead of the first chat turn.
	Ping(ctx context.Context) error
}
