package erp

import (
	"context"
	"log/slog"

	"github.com/vyaapari360/munim/internal/cache"
	"github.com/vyaapari360/munim/internal/insight"
	"github.com/vyaapari360/munim/internal/search"
	"github.com/vyaapari360/munim/internal/tools"
)

// SearchLedgersTool searches accounts and balances.
type SearchLedgersTool struct {
	cfg Config
}

func (t *SearchLedgersTool) Name() string { return "search_ledgers" }

func (t *SearchLedgersTool) Description() string {
	return "Search for ledgers (accounts) in the ERP system. Use this when users ask about finding " +
		"specific ledgers or accounts, ledgers in a specific group, ledgers with specific balance " +
		"ranges, ledgers by GSTIN, account balances and financial information, outstanding " +
		"receivables and payables, or party dues and credit analysis. Returns business insights " +
		"including total ledgers, total receivables and payables, net outstanding, largest " +
		"opening/closing balances, top parties with dues, and group-wise summary (especially " +
		"Sundry Debtors vs Creditors)."
}

func (t *SearchLedgersTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"ledger_name":         optionalString("Filter by ledger name. Supports partial matching (e.g. 'Cash' will match 'Cash Account')."),
			"group_name":          optionalString("Filter by group name. Supports partial matching (e.g. 'Assets' will match 'Current Assets')."),
			"gstin":               optionalString("Filter by GSTIN (GST Identification Number). Supports partial matching."),
			"min_opening_balance": optionalNumber("Minimum opening balance. Returns ledgers with opening balance >= this value."),
			"max_opening_balance": optionalNumber("Maximum opening balance. Returns ledgers with opening balance <= this value."),
			"min_closing_balance": optionalNumber("Minimum closing balance. Returns ledgers with closing balance >= this value."),
			"max_closing_balance": optionalNumber("Maximum closing balance. Returns ledgers with closing balance <= this value."),
		},
		"required":             []any{},
		"additionalProperties": false,
	}
}

func (t *SearchLedgersTool) Validate(params map[string]any) error {
	_, err := search.NormalizeLedgers(t.cfg.Tenant, params)
	return err
}

func (t *SearchLedgersTool) Execute(ctx context.Context, params map[string]any) (*tools.Result, error) {
	req, err := search.NormalizeLedgers(t.cfg.Tenant, params)
	if err != nil {
		return errorResult("Failed to search ledgers", err)
	}

	ctx, cancel := context.WithTimeout(ctx, t.cfg.queryTimeout())
	defer cancel()

	rows, err := t.cfg.Store.SearchLedgers(ctx, req)
	if err != nil {
		t.cfg.Logger.WarnContext(ctx, "search_ledgers failed", slog.Any("error", err))
		return errorResult("Failed to search ledgers", err)
	}

	search.OrderLedgers(rows)

	env := &cache.Envelope{
		Key:        req.CacheKey(),
		Entity:     req.Entity,
		Insight:    insight.Ledgers(rows),
		Records:    insight.LedgerRecords(rows),
		TotalCount: len(rows),
	}
	t.cfg.Cache.Put(env)

	return insightResult(env.Insight, env)
}
