package erp

import (
	"context"
	"log/slog"

	"github.com/vyaapari360/munim/internal/cache"
	"github.com/vyaapari360/munim/internal/insight"
	"github.com/vyaapari360/munim/internal/search"
	"github.com/vyaapari360/munim/internal/tools"
)

// SearchVouchersTool searches posted transactions.
type SearchVouchersTool struct {
	cfg Config
}

func (t *SearchVouchersTool) Name() string { return "search_vouchers" }

func (t *SearchVouchersTool) Description() string {
	return "Search for vouchers and transactions in the ERP system. Use this when users ask about " +
		"specific transactions, invoices, bills, payments or receipts; transactions for a specific " +
		"party, customer or vendor; transactions in a date range; transactions of a specific type " +
		"(Sales, Purchase, Payment, etc.); transactions within an amount range; or finding vouchers " +
		"by number or reference. Returns business insights including total vouchers and amount, " +
		"highest value voucher details, most common voucher type, most frequent party, top parties " +
		"by value, date range, and a summary by voucher type."
}

func (t *SearchVouchersTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"voucher_type":   optionalString("Filter by voucher type (e.g. 'Sales', 'Purchase', 'Payment', 'Receipt', 'Journal'). Case-insensitive, supports partial matching."),
			"voucher_number": optionalString("Filter by voucher number. Supports partial matching."),
			"reference":      optionalString("Filter by reference number or PO number. Supports partial matching."),
			"date_from":      optionalString("Start date for filtering (format: YYYY-MM-DD). Returns vouchers from this date onwards."),
			"date_to":        optionalString("End date for filtering (format: YYYY-MM-DD). Returns vouchers up to this date."),
			"min_amount":     optionalNumber("Minimum voucher amount. Returns vouchers with amount >= this value."),
			"max_amount":     optionalNumber("Maximum voucher amount. Returns vouchers with amount <= this value."),
			"party_name":     optionalString("Filter by party/customer/vendor name. Supports fuzzy matching and partial names (e.g. 'ABC' will match 'ABC Corporation')."),
		},
		"required":             []any{},
		"additionalProperties": false,
	}
}

func (t *SearchVouchersTool) Validate(params map[string]any) error {
	_, err := search.NormalizeVouchers(t.cfg.Tenant, params)
	return err
}

func (t *SearchVouchersTool) Execute(ctx context.Context, params map[string]any) (*tools.Result, error) {
	req, err := search.NormalizeVouchers(t.cfg.Tenant, params)
	if err != nil {
		return errorResult("Failed to search vouchers", err)
	}

	ctx, cancel := context.WithTimeout(ctx, t.cfg.queryTimeout())
	defer cancel()

	rows, err := t.cfg.Store.SearchVouchers(ctx, req)
	if err != nil {
		t.cfg.Logger.WarnContext(ctx, "search_vouchers failed", slog.Any("error", err))
		return errorResult("Failed to search vouchers", err)
	}

	search.OrderVouchers(rows, req.TextFilter("party_name"))

	env := &cache.Envelope{
		Key:        req.CacheKey(),
		Entity:     req.Entity,
		Insight:    insight.Vouchers(rows),
		Records:    insight.VoucherRecords(rows),
		TotalCount: len(rows),
	}
	t.cfg.Cache.Put(env)

	return insightResult(env.Insight, env)
}
