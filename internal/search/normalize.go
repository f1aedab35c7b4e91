package search

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vyaapari360/munim/internal/tally"
)

// NormalizeVouchers builds a voucher search request from raw tool arguments.
// Empty and unset arguments are dropped; amount bounds must be non-negative.
func NormalizeVouchers(tn tally.Tenant, params map[string]any) (*Request, error) {
	r := &Request{Tenant: tn, Entity: tally.EntityVouchers}
	r.addText("voucher_type", OpContains, textArg(params, "voucher_type"))
	r.addText("voucher_number", OpContains, textArg(params, "voucher_number"))
	r.addText("reference", OpContains, textArg(params, "reference"))
	r.addText("party_name", OpContains, textArg(params, "party_name"))

	from, to := textArg(params, "date_from"), textArg(params, "date_to")
	if from != "" || to != "" {
		for _, d := range []string{from, to} {
			if d == "" {
				continue
			}
			if _, err := ParseDate(d); err != nil {
				return nil, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", d)
			}
		}
		r.Predicates = append(r.Predicates, Predicate{Field: "voucher_date", Op: OpRange, From: from, To: to})
	}

	if err := r.addBounds("total_debit", params, "min_amount", "max_amount"); err != nil {
		return nil, err
	}
	return r, nil
}

// NormalizeLedgers builds a ledger search request from raw tool arguments.
func NormalizeLedgers(tn tally.Tenant, params map[string]any) (*Request, error) {
	r := &Request{Tenant: tn, Entity: tally.EntityLedgers}
	r.addText("ledger_name", OpContains, textArg(params, "ledger_name"))
	r.addText("group_name", OpContains, textArg(params, "group_name"))
	r.addText("gstin", OpContains, textArg(params, "gstin"))
	if err := r.addBounds("opening_balance", params, "min_opening_balance", "max_opening_balance"); err != nil {
		return nil, err
	}
	if err := r.addBounds("closing_balance", params, "min_closing_balance", "max_closing_balance"); err != nil {
		return nil, err
	}
	return r, nil
}

// NormalizeStockItems builds a stock item search request from raw tool arguments.
func NormalizeStockItems(tn tally.Tenant, params map[string]any) (*Request, error) {
	r := &Request{Tenant: tn, Entity: tally.EntityStockItems}
	r.addText("item_name", OpContains, textArg(params, "item_name"))
	r.addText("item_code", OpContains, textArg(params, "item_code"))
	r.addText("stock_group", OpContains, textArg(params, "stock_group"))
	r.addText("gst_hsn_code", OpContains, textArg(params, "gst_hsn_code"))
	return r, nil
}

// NormalizeGodowns builds a godown search request from raw tool arguments.
func NormalizeGodowns(tn tally.Tenant, params map[string]any) (*Request, error) {
	r := &Request{Tenant: tn, Entity: tally.EntityGodowns}
	r.addText("godown_name", OpContains, textArg(params, "godown_name"))
	r.addText("godown_code", OpContains, textArg(params, "godown_code"))
	r.addText("location", OpContains, textArg(params, "location"))
	return r, nil
}

func (r *Request) addText(field string, op Op, value string) {
	if value == "" {
		return
	}
	r.Predicates = append(r.Predicates, Predicate{Field: field, Op: op, Text: value})
}

func (r *Request) addBounds(field string, params map[string]any, minKey, maxKey string) error {
	min, err := numberArg(params, minKey)
	if err != nil {
		return err
	}
	max, err := numberArg(params, maxKey)
	if err != nil {
		return err
	}
	if min == nil && max == nil {
		return nil
	}
	r.Predicates = append(r.Predicates, Predicate{Field: field, Op: OpRange, Min: min, Max: max})
	return nil
}

func textArg(params map[string]any, key string) string {
	s, _ := params[key].(string)
	return strings.TrimSpace(s)
}

// numberArg extracts an optional numeric argument. JSON decoding produces
// float64, but models occasionally send numbers as strings, so both are
// accepted. Negative bounds are rejected: amounts and balance filters are
// magnitudes, not signed values. A zero value means the model left the
// filter empty, so it is dropped like any other unset argument.
func numberArg(params map[string]any, key string) (*float64, error) {
	v, ok := params[key]
	if !ok || v == nil {
		return nil, nil
	}
	var n float64
	switch t := v.(type) {
	case float64:
		n = t
	case int:
		n = float64(t)
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil, nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number for %s: %q", key, t)
		}
		n = parsed
	default:
		return nil, fmt.Errorf("invalid type for %s: expected number", key)
	}
	if n < 0 {
		return nil, fmt.Errorf("%s must be non-negative", key)
	}
	if n == 0 {
		return nil, nil
	}
	return &n, nil
}
