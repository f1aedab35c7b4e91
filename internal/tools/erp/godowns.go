package erp

import (
	"context"
	"log/slog"

	"github.com/vyaapari360/munim/internal/cache"
	"github.com/vyaapari360/munim/internal/insight"
	"github.com/vyaapari360/munim/internal/search"
	"github.com/vyaapari360/munim/internal/tools"
)

// SearchGodownsTool searches warehouses.
type SearchGodownsTool struct {
	cfg Config
}

func (t *SearchGodownsTool) Name() string { return "search_godown" }

func (t *SearchGodownsTool) Description() string {
	return "Search for godowns (warehouses) in the ERP system. Use this when users ask about finding " +
		"specific godowns or warehouses, godowns by location or address, warehouse capacity and " +
		"details, or storage locations and facility information. Returns business insights including " +
		"total warehouses, total storage capacity, largest warehouse details, location-wise " +
		"distribution, and warehouses missing contact information."
}

func (t *SearchGodownsTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"godown_name": optionalString("Filter by godown name. Supports partial matching (e.g. 'Main' will match 'Main Warehouse')."),
			"godown_code": optionalString("Filter by godown code. Supports partial matching."),
			"location":    optionalString("Filter by location or address. Supports partial matching (e.g. 'Mumbai' will match godowns in Mumbai)."),
		},
		"required":             []any{},
		"additionalProperties": false,
	}
}

func (t *SearchGodownsTool) Validate(params map[string]any) error {
	_, err := search.NormalizeGodowns(t.cfg.Tenant, params)
	return err
}

func (t *SearchGodownsTool) Execute(ctx context.Context, params map[string]any) (*tools.Result, error) {
	req, err := search.NormalizeGodowns(t.cfg.Tenant, params)
	if err != nil {
		return errorResult("Failed to search godowns", err)
	}

	ctx, cancel := context.WithTimeout(ctx, t.cfg.queryTimeout())
	defer cancel()

	rows, err := t.cfg.Store.SearchGodowns(ctx, req)
	if err != nil {
		t.cfg.Logger.WarnContext(ctx, "search_godown failed", slog.Any("error", err))
		return errorResult("Failed to search godowns", err)
	}

	search.OrderGodowns(rows)

	env := &cache.Envelope{
		Key:        req.CacheKey(),
		Entity:     req.Entity,
		Insight:    insight.Godowns(rows),
		Records:    insight.GodownRecords(rows),
		TotalCount: len(rows),
	}
	t.cfg.Cache.Put(env)

	return insightResult(env.Insight, env)
}
