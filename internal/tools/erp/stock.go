package erp

import (
	"context"
	"log/slog"

	"github.com/vyaapari360/munim/internal/cache"
	"github.com/vyaapari360/munim/internal/insight"
	"github.com/vyaapari360/munim/internal/search"
	"github.com/vyaapari360/munim/internal/tools"
)

// SearchStockItemsTool searches inventory items.
type SearchStockItemsTool struct {
	cfg Config
}

func (t *SearchStockItemsTool) Name() string { return "search_stockitem" }

func (t *SearchStockItemsTool) Description() string {
	return "Search for stock items in the ERP system. Use this when users ask about finding specific " +
		"stock items or products, stock items in a specific stock group, stock items by HSN code, " +
		"product inventory and stock information, items by name or code, stock valuation and " +
		"inventory worth, or items with low stock or missing GST details. Returns business insights " +
		"about stock items including valuation, highest value items, stock by group, GST compliance, " +
		"and low stock alerts."
}

func (t *SearchStockItemsTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"item_name":    optionalString("Filter by item name. Supports partial matching (e.g. 'Widget' will match 'Widget A')."),
			"item_code":    optionalString("Filter by item code. Supports partial matching."),
			"stock_group":  optionalString("Filter by stock group name. Supports partial matching (e.g. 'Electronics' will match 'Electronics - Components')."),
			"gst_hsn_code": optionalString("Filter by GST HSN code. Supports partial matching."),
		},
		"required":             []any{},
		"additionalProperties": false,
	}
}

func (t *SearchStockItemsTool) Validate(params map[string]any) error {
	_, err := search.NormalizeStockItems(t.cfg.Tenant, params)
	return err
}

func (t *SearchStockItemsTool) Execute(ctx context.Context, params map[string]any) (*tools.Result, error) {
	req, err := search.NormalizeStockItems(t.cfg.Tenant, params)
	if err != nil {
		return errorResult("Failed to search stock items", err)
	}

	ctx, cancel := context.WithTimeout(ctx, t.cfg.queryTimeout())
	defer cancel()

	rows, err := t.cfg.Store.SearchStockItems(ctx, req)
	if err != nil {
		t.cfg.Logger.WarnContext(ctx, "search_stockitem failed", slog.Any("error", err))
		return errorResult("Failed to search stock items", err)
	}

	search.OrderStockItems(rows)

	env := &cache.Envelope{
		Key:        req.CacheKey(),
		Entity:     req.Entity,
		Insight:    insight.StockItems(rows),
		Records:    insight.StockItemRecords(rows),
		TotalCount: len(rows),
	}
	t.cfg.Cache.Put(env)

	return insightResult(env.Insight, env)
}
