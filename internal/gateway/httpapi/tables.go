package httpapi

import (
	"fmt"
	"strconv"

	"github.com/vyaapari360/munim/internal/cache"
	"github.com/vyaapari360/munim/internal/tally"
)

const tablePageSize = 5

// TableColumn describes one column of a rendered table.
type TableColumn struct {
	Key             string `json:"key"`
	Header          string `json:"header"`
	ClassName       string `json:"className,omitempty"`
	HeaderClassName string `json:"headerClassName,omitempty"`
}

// TableData is the frontend-ready table payload attached to chat responses.
type TableData struct {
	Columns     []TableColumn    `json:"columns"`
	Rows        []map[string]any `json:"rows"`
	TotalCount  int              `json:"total_count"`
	PageSize    int              `json:"page_size"`
	CurrentPage int              `json:"current_page"`
	Title       string           `json:"title"`
}

// BuildTable renders a cached result envelope as a table.
// Returns nil for entities that have no table layout.
func BuildTable(env *cache.Envelope) *TableData {
	switch env.Entity {
	case tally.EntityVouchers:
		return voucherTable(env)
	case tally.EntityLedgers:
		return ledgerTable(env)
	case tally.EntityStockItems:
		return stockItemTable(env)
	case tally.EntityGodowns:
		return godownTable(env)
	}
	return nil
}

func voucherTable(env *cache.Envelope) *TableData {
	columns := []TableColumn{
		{Key: "index", Header: "#", ClassName: "w-12"},
		{Key: "voucher_number", Header: "Voucher Number"},
		{Key: "type", Header: "Type"},
		{Key: "date", Header: "Date"},
		{Key: "party", Header: "Party"},
		{Key: "debit", Header: "Debit", ClassName: "text-right", HeaderClassName: "text-right"},
		{Key: "credit", Header: "Credit", ClassName: "text-right", HeaderClassName: "text-right"},
		{Key: "balanced", Header: "Balanced", ClassName: "text-center", HeaderClassName: "text-center"},
		{Key: "actions", Header: "Actions", ClassName: "text-center", HeaderClassName: "text-center"},
	}

	rows := make([]map[string]any, 0, len(env.Records))
	for idx, rec := range env.Records {
		rows = append(rows, map[string]any{
			"index":          idx + 1,
			"voucher_number": fieldString(rec, "voucher_number"),
			"type":           fieldString(rec, "voucher_type"),
			"date":           fieldString(rec, "voucher_date"),
			"party":          fieldString(rec, "party_ledger_name"),
			"debit":          fieldNumber(rec, "total_debit"),
			"credit":         fieldNumber(rec, "total_credit"),
			"balanced":       fieldBool(rec, "is_balanced"),
			"actions":        rec.Actions["view_voucher"],
		})
	}

	return newTable(columns, rows, env.TotalCount, "Vouchers")
}

func ledgerTable(env *cache.Envelope) *TableData {
	columns := []TableColumn{
		{Key: "index", Header: "#", ClassName: "w-12"},
		{Key: "name", Header: "Ledger Name"},
		{Key: "group_name", Header: "Group"},
		{Key: "opening_balance", Header: "Opening Balance", ClassName: "text-right", HeaderClassName: "text-right"},
		{Key: "closing_balance", Header: "Closing Balance", ClassName: "text-right", HeaderClassName: "text-right"},
		{Key: "gstin", Header: "GSTIN"},
		{Key: "actions", Header: "Actions", ClassName: "text-center", HeaderClassName: "text-center"},
	}

	rows := make([]map[string]any, 0, len(env.Records))
	for idx, rec := range env.Records {
		rows = append(rows, map[string]any{
			"index":           idx + 1,
			"name":            fieldString(rec, "name"),
			"group_name":      fieldString(rec, "group_name"),
			"opening_balance": fieldNumber(rec, "opening_balance"),
			"closing_balance": fieldNumber(rec, "closing_balance"),
			"gstin":           orDash(fieldString(rec, "gstin")),
			"actions":         rec.Actions["view_ledger"],
		})
	}

	return newTable(columns, rows, env.TotalCount, "Ledgers")
}

func stockItemTable(env *cache.Envelope) *TableData {
	columns := []TableColumn{
		{Key: "index", Header: "#", ClassName: "w-12"},
		{Key: "name", Header: "Item Name"},
		{Key: "code", Header: "Code"},
		{Key: "stock_group", Header: "Stock Group"},
		{Key: "gst_hsn_code", Header: "HSN Code"},
		{Key: "gst_rate", Header: "GST %", ClassName: "text-center", HeaderClassName: "text-center"},
		{Key: "opening_balance_quantity", Header: "Qty", ClassName: "text-right", HeaderClassName: "text-right"},
		{Key: "opening_balance_value", Header: "Value", ClassName: "text-right", HeaderClassName: "text-right"},
		{Key: "actions", Header: "Actions", ClassName: "text-center", HeaderClassName: "text-center"},
	}

	rows := make([]map[string]any, 0, len(env.Records))
	for idx, rec := range env.Records {
		rows = append(rows, map[string]any{
			"index":                    idx + 1,
			"name":                     fieldString(rec, "name"),
			"code":                     fieldString(rec, "code"),
			"stock_group":              orDash(fieldString(rec, "stock_group")),
			"gst_hsn_code":             orDash(fieldString(rec, "gst_hsn_code")),
			"gst_rate":                 fieldNumber(rec, "gst_rate"),
			"opening_balance_quantity": fieldNumber(rec, "opening_balance_quantity"),
			"opening_balance_value":    fieldNumber(rec, "opening_balance_value"),
			"actions":                  rec.Actions["view_stockitem"],
		})
	}

	return newTable(columns, rows, env.TotalCount, "Stock Items")
}

func godownTable(env *cache.Envelope) *TableData {
	columns := []TableColumn{
		{Key: "index", Header: "#", ClassName: "w-12"},
		{Key: "name", Header: "Warehouse Name"},
		{Key: "location_details", Header: "Location"},
		{Key: "address", Header: "Address"},
		{Key: "contact_person", Header: "Contact Person"},
		{Key: "phone", Header: "Phone"},
		{Key: "capacity", Header: "Capacity", ClassName: "text-right", HeaderClassName: "text-right"},
		{Key: "actions", Header: "Actions", ClassName: "text-center", HeaderClassName: "text-center"},
	}

	rows := make([]map[string]any, 0, len(env.Records))
	for idx, rec := range env.Records {
		rows = append(rows, map[string]any{
			"index":            idx + 1,
			"name":             fieldString(rec, "name"),
			"location_details": orDash(fieldString(rec, "location_details")),
			"address":          orDash(fieldString(rec, "address")),
			"contact_person":   orDash(fieldString(rec, "contact_person")),
			"phone":            orDash(fieldString(rec, "phone")),
			"capacity":         capacityDisplay(rec),
			"actions":          rec.Actions["view_godown"],
		})
	}

	return newTable(columns, rows, env.TotalCount, "Warehouses")
}

func newTable(columns []TableColumn, rows []map[string]any, totalCount int, title string) *TableData {
	return &TableData{
		Columns:     columns,
		Rows:        rows,
		TotalCount:  totalCount,
		PageSize:    tablePageSize,
		CurrentPage: 1,
		Title:       title,
	}
}

// capacityDisplay renders "capacity unit" or "-" when no capacity is recorded.
func capacityDisplay(rec cache.DisplayRecord) string {
	capacity := fieldNumber(rec, "capacity")
	if capacity == 0 {
		return "-"
	}
	return fmt.Sprintf("%s %s", strconv.FormatFloat(capacity, 'f', -1, 64), fieldString(rec, "capacity_unit"))
}

func fieldString(rec cache.DisplayRecord, key string) string {
	if v, ok := rec.Fields[key].(string); ok {
		return v
	}
	return ""
}

func fieldNumber(rec cache.DisplayRecord, key string) float64 {
	switch v := rec.Fields[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

func fieldBool(rec cache.DisplayRecord, key string) bool {
	if v, ok := rec.Fields[key].(bool); ok {
		return v
	}
	return false
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
